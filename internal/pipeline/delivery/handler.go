package delivery

import (
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	accountdomain "replypilot-backend/internal/account/domain"
	"replypilot-backend/internal/pipeline/repository"
	"replypilot-backend/internal/pipeline/usecase"
	"replypilot-backend/pkg/errs"

	"github.com/gin-gonic/gin"
)

// AccountLookup resolves the mailbox address in a push notification to an
// account. Returns (nil, nil) for unknown addresses.
type AccountLookup interface {
	FindByEmail(email string) (*accountdomain.Account, error)
}

// PipelineHandler exposes the processing pipeline over HTTP: the Pub/Sub
// push webhook, the internal processing endpoint and the audit log.
type PipelineHandler struct {
	processing usecase.ProcessingUsecase
	accounts   AccountLookup
	messages   repository.ProcessedMessageRepository
}

func NewPipelineHandler(processing usecase.ProcessingUsecase, accounts AccountLookup, messages repository.ProcessedMessageRepository) *PipelineHandler {
	return &PipelineHandler{
		processing: processing,
		accounts:   accounts,
		messages:   messages,
	}
}

// pushEnvelope is the Pub/Sub push delivery wrapper.
type pushEnvelope struct {
	Message struct {
		Data      string `json:"data"`
		MessageID string `json:"messageId"`
	} `json:"message"`
	Subscription string `json:"subscription"`
}

// gmailNotification is the payload Gmail publishes on inbox changes.
type gmailNotification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

// Webhook accepts Gmail push notifications. Outright malformed envelopes get
// a 400; everything else is acknowledged with 200 even when processing
// fails, so the push channel never enters a redelivery storm.
func (h *PipelineHandler) Webhook(c *gin.Context) {
	var envelope pushEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil || envelope.Message.Data == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no message in request"})
		return
	}

	data, err := base64.StdEncoding.DecodeString(envelope.Message.Data)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "undecodable message data"})
		return
	}

	var notification gmailNotification
	if err := json.Unmarshal(data, &notification); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "undecodable message data"})
		return
	}

	if notification.EmailAddress == "" || notification.HistoryID == 0 {
		log.Printf("[Webhook] notification missing emailAddress or historyId, acknowledging")
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	account, err := h.accounts.FindByEmail(notification.EmailAddress)
	if err != nil {
		log.Printf("[Webhook] account lookup failed for %s: %v", notification.EmailAddress, err)
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}
	if account == nil {
		// Unrecognized address: acknowledge so the channel does not retry.
		log.Printf("[Webhook] no account for %s, acknowledging", notification.EmailAddress)
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	cursor := strconv.FormatUint(notification.HistoryID, 10)
	processed, err := h.processing.ProcessNotification(c.Request.Context(), account.ID, cursor)
	if err != nil {
		log.Printf("[Webhook] processing failed for account %s: %v", account.ID, err)
		c.JSON(http.StatusOK, gin.H{"success": true})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "processed": processed})
}

// WebhookChallenge echoes the verification challenge verbatim.
func (h *PipelineHandler) WebhookChallenge(c *gin.Context) {
	if challenge := c.Query("hub.challenge"); challenge != "" {
		c.String(http.StatusOK, challenge)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "gmail webhook endpoint"})
}

type processRequest struct {
	AccountID     string `json:"accountId"`
	HistoryCursor string `json:"historyCursor"`
}

// Process is the orchestrator's direct entry point, used by the webhook
// adapter and for manual replays.
func (h *PipelineHandler) Process(c *gin.Context) {
	var req processRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	processed, err := h.processing.ProcessNotification(c.Request.Context(), req.AccountID, req.HistoryCursor)
	if err != nil {
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "processed": processed})
}

// Log lists the account's audit rows, newest first.
func (h *PipelineHandler) Log(c *gin.Context) {
	accountID := c.GetString("accountID")

	limit := 50
	offset := 0
	if parsed, err := strconv.Atoi(c.Query("limit")); err == nil && parsed > 0 {
		limit = parsed
	}
	if parsed, err := strconv.Atoi(c.Query("offset")); err == nil && parsed >= 0 {
		offset = parsed
	}

	messages, err := h.messages.ListByAccount(accountID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"messages": messages,
		"limit":    limit,
		"offset":   offset,
	})
}
