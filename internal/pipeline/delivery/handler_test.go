package delivery

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	accountdomain "replypilot-backend/internal/account/domain"
	pipelinedomain "replypilot-backend/internal/pipeline/domain"
	"replypilot-backend/pkg/errs"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProcessing struct {
	accountID string
	cursor    string
	processed int
	err       error
	calls     int
}

func (f *fakeProcessing) ProcessNotification(ctx context.Context, accountID, cursor string) (int, error) {
	f.calls++
	f.accountID = accountID
	f.cursor = cursor
	return f.processed, f.err
}

type fakeLookup struct {
	accounts map[string]*accountdomain.Account
}

func (f *fakeLookup) FindByEmail(email string) (*accountdomain.Account, error) {
	return f.accounts[email], nil
}

type fakeMessageList struct {
	messages []*pipelinedomain.ProcessedMessage
}

func (f *fakeMessageList) Create(*pipelinedomain.ProcessedMessage) error { return nil }
func (f *fakeMessageList) ExistsByGmailMessageID(string) (bool, error)   { return false, nil }
func (f *fakeMessageList) MarkResponse(string, bool, string) error       { return nil }
func (f *fakeMessageList) ListByAccount(accountID string, limit, offset int) ([]*pipelinedomain.ProcessedMessage, error) {
	return f.messages, nil
}

func setupRouter(processing *fakeProcessing, lookup *fakeLookup, messages *fakeMessageList) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewPipelineHandler(processing, lookup, messages)

	r := gin.New()
	r.POST("/api/gmail/webhook", handler.Webhook)
	r.GET("/api/gmail/webhook", handler.WebhookChallenge)
	r.POST("/api/gmail/process", handler.Process)
	r.GET("/api/gmail/log", func(c *gin.Context) {
		c.Set("accountID", "a1")
		handler.Log(c)
	})
	return r
}

func pushBody(t *testing.T, emailAddress string, historyID uint64) []byte {
	t.Helper()
	payload, err := json.Marshal(map[string]interface{}{
		"emailAddress": emailAddress,
		"historyId":    historyID,
	})
	require.NoError(t, err)

	body, err := json.Marshal(map[string]interface{}{
		"message": map[string]string{
			"data":      base64.StdEncoding.EncodeToString(payload),
			"messageId": "pubsub-1",
		},
		"subscription": "projects/p/subscriptions/s",
	})
	require.NoError(t, err)
	return body
}

func TestWebhookProcessesNotification(t *testing.T) {
	processing := &fakeProcessing{processed: 2}
	lookup := &fakeLookup{accounts: map[string]*accountdomain.Account{
		"owner@business.com": {ID: "a1", Email: "owner@business.com"},
	}}
	r := setupRouter(processing, lookup, &fakeMessageList{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/gmail/webhook", bytes.NewReader(pushBody(t, "owner@business.com", 4567)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a1", processing.accountID)
	assert.Equal(t, "4567", processing.cursor)
	assert.Contains(t, w.Body.String(), `"processed":2`)
}

func TestWebhookMalformedEnvelope(t *testing.T) {
	processing := &fakeProcessing{}
	r := setupRouter(processing, &fakeLookup{}, &fakeMessageList{})

	for _, body := range []string{"not json", `{}`, `{"message":{"data":"%%%"}}`} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/gmail/webhook", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)
	}
	assert.Zero(t, processing.calls)
}

func TestWebhookAcknowledgesMissingFields(t *testing.T) {
	processing := &fakeProcessing{}
	r := setupRouter(processing, &fakeLookup{}, &fakeMessageList{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/gmail/webhook", bytes.NewReader(pushBody(t, "", 0)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	// Permanently unprocessable: ack, never retry.
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, processing.calls)
}

func TestWebhookAcknowledgesUnknownAddress(t *testing.T) {
	processing := &fakeProcessing{}
	r := setupRouter(processing, &fakeLookup{accounts: map[string]*accountdomain.Account{}}, &fakeMessageList{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/gmail/webhook", bytes.NewReader(pushBody(t, "stranger@example.com", 99)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, processing.calls)
}

func TestWebhookAcknowledgesProcessingFailure(t *testing.T) {
	processing := &fakeProcessing{err: errs.Upstreamf("gmail down")}
	lookup := &fakeLookup{accounts: map[string]*accountdomain.Account{
		"owner@business.com": {ID: "a1"},
	}}
	r := setupRouter(processing, lookup, &fakeMessageList{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/gmail/webhook", bytes.NewReader(pushBody(t, "owner@business.com", 99)))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, processing.calls)
}

func TestWebhookChallengeEcho(t *testing.T) {
	r := setupRouter(&fakeProcessing{}, &fakeLookup{}, &fakeMessageList{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/gmail/webhook?hub.challenge=verify-me-42", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "verify-me-42", w.Body.String())
}

func TestProcessEndpoint(t *testing.T) {
	processing := &fakeProcessing{processed: 3}
	r := setupRouter(processing, &fakeLookup{}, &fakeMessageList{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/gmail/process",
		bytes.NewBufferString(`{"accountId":"a1","historyCursor":"123"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "a1", processing.accountID)
	assert.Equal(t, "123", processing.cursor)
	assert.Contains(t, w.Body.String(), `"processed":3`)
}

func TestProcessEndpointMapsErrors(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"validation", errs.Validationf("bad input"), http.StatusBadRequest},
		{"not found", errs.NotFoundf("no account"), http.StatusNotFound},
		{"auth", errs.Authf("token revoked"), http.StatusUnauthorized},
		{"upstream", errs.Upstreamf("gmail down"), http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := setupRouter(&fakeProcessing{err: tt.err}, &fakeLookup{}, &fakeMessageList{})

			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/api/gmail/process",
				bytes.NewBufferString(`{"accountId":"a1","historyCursor":"123"}`))
			req.Header.Set("Content-Type", "application/json")
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.expected, w.Code)
		})
	}
}

func TestLogEndpoint(t *testing.T) {
	messages := &fakeMessageList{messages: []*pipelinedomain.ProcessedMessage{
		{ID: "row-1", AccountID: "a1", GmailMessageID: "m1", Subject: "Hello"},
	}}
	r := setupRouter(&fakeProcessing{}, &fakeLookup{}, messages)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/gmail/log?limit=10", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"gmail_message_id":"m1"`)
	assert.Contains(t, w.Body.String(), `"limit":10`)
}
