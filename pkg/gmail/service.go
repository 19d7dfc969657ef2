package gmail

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	accountdomain "replypilot-backend/internal/account/domain"
	pipelinedomain "replypilot-backend/internal/pipeline/domain"
	"replypilot-backend/pkg/errs"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const snapshotLimit = 10

// requestTimeout bounds every outbound Gmail API call. History enumeration
// and watch registration run outside the pipeline's per-message deadline, so
// the transport itself must never block indefinitely.
const requestTimeout = 30 * time.Second

// Service builds account-scoped Gmail clients and manages inbox watches.
type Service struct {
	clientID     string
	clientSecret string
	topicName    string
}

func NewService(clientID, clientSecret, topicName string) *Service {
	return &Service{
		clientID:     clientID,
		clientSecret: clientSecret,
		topicName:    topicName,
	}
}

// notifyTokenSource wraps an oauth2 token source and invokes a callback
// whenever the access token rotates, so refreshed credentials get persisted.
type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback pipelinedomain.TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(t); err != nil {
			log.Printf("[Gmail] failed to persist refreshed token: %v", err)
		}
	}
	return t, nil
}

// oauthClient builds the account's HTTP client with a refresh-persisting
// token source and a hard request timeout.
func (s *Service) oauthClient(ctx context.Context, account *accountdomain.Account, onTokenRefresh pipelinedomain.TokenUpdateFunc) *http.Client {
	token := &oauth2.Token{
		AccessToken:  account.AccessToken,
		RefreshToken: account.RefreshToken,
		TokenType:    "Bearer",
	}
	if account.TokenExpiresAt != nil {
		token.Expiry = *account.TokenExpiresAt
	}

	config := &oauth2.Config{
		ClientID:     s.clientID,
		ClientSecret: s.clientSecret,
		Endpoint:     google.Endpoint,
	}

	wrapped := &notifyTokenSource{
		src:      config.TokenSource(ctx, token),
		current:  token,
		callback: onTokenRefresh,
	}

	client := oauth2.NewClient(ctx, wrapped)
	client.Timeout = requestTimeout
	return client
}

func (s *Service) gmailService(ctx context.Context, account *accountdomain.Account, onTokenRefresh pipelinedomain.TokenUpdateFunc) (*gmailapi.Service, error) {
	srv, err := gmailapi.NewService(ctx, option.WithHTTPClient(s.oauthClient(ctx, account, onTokenRefresh)))
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}
	return srv, nil
}

// ClientFor returns a mailbox client bound to the account's credentials.
// Accounts without a usable token pair are rejected before any provider call.
func (s *Service) ClientFor(account *accountdomain.Account, onTokenRefresh pipelinedomain.TokenUpdateFunc) (pipelinedomain.MailboxClient, error) {
	if !account.HasGmailCredentials() {
		return nil, errs.Validationf("account %s has no Gmail credentials", account.ID)
	}
	return &accountClient{service: s, account: account, onTokenRefresh: onTokenRefresh}, nil
}

// SetupWatch registers the inbox for push notifications and returns the
// cursor and expiry reported by Gmail. The previous watch is stopped first
// because Gmail allows only one notification client per user.
func (s *Service) SetupWatch(ctx context.Context, account *accountdomain.Account, onTokenRefresh pipelinedomain.TokenUpdateFunc) (historyID string, expiry time.Time, err error) {
	if s.topicName == "" {
		return "", time.Time{}, errs.Configf("PUBSUB_TOPIC is not configured")
	}

	srv, err := s.gmailService(ctx, account, onTokenRefresh)
	if err != nil {
		return "", time.Time{}, err
	}

	_ = srv.Users.Stop("me").Context(ctx).Do()

	req := &gmailapi.WatchRequest{
		TopicName:         s.topicName,
		LabelIds:          []string{"INBOX"},
		LabelFilterAction: "include",
	}

	resp, err := srv.Users.Watch("me", req).Context(ctx).Do()
	if err != nil {
		return "", time.Time{}, mapProviderError(err, "unable to watch mailbox")
	}
	if resp.Expiration == 0 || resp.HistoryId == 0 {
		return "", time.Time{}, errs.Upstreamf("invalid response from Gmail watch API")
	}

	return strconv.FormatUint(resp.HistoryId, 10), time.UnixMilli(resp.Expiration), nil
}

type accountClient struct {
	service        *Service
	account        *accountdomain.Account
	onTokenRefresh pipelinedomain.TokenUpdateFunc
}

func (c *accountClient) ListChangesSince(ctx context.Context, cursor string) ([]string, error) {
	srv, err := c.service.gmailService(ctx, c.account, c.onTokenRefresh)
	if err != nil {
		return nil, err
	}

	startID, err := strconv.ParseUint(cursor, 10, 64)
	if cursor == "" || err != nil {
		// No usable cursor: bounded recent-inbox snapshot instead of history.
		resp, err := srv.Users.Messages.List("me").
			LabelIds("INBOX").MaxResults(snapshotLimit).Context(ctx).Do()
		if err != nil {
			return nil, mapProviderError(err, "unable to list recent messages")
		}
		ids := make([]string, 0, len(resp.Messages))
		for _, msg := range resp.Messages {
			ids = append(ids, msg.Id)
		}
		return ids, nil
	}

	resp, err := srv.Users.History.List("me").
		StartHistoryId(startID).LabelId("INBOX").Context(ctx).Do()
	if err != nil {
		return nil, mapProviderError(err, "unable to list history")
	}

	// Collapse history records into unique added-message IDs, preserving order.
	seen := make(map[string]bool)
	var ids []string
	for _, record := range resp.History {
		for _, added := range record.MessagesAdded {
			if added.Message == nil || seen[added.Message.Id] {
				continue
			}
			seen[added.Message.Id] = true
			ids = append(ids, added.Message.Id)
		}
	}
	return ids, nil
}

func (c *accountClient) FetchMessage(ctx context.Context, messageID string) (*gmailapi.Message, error) {
	srv, err := c.service.gmailService(ctx, c.account, c.onTokenRefresh)
	if err != nil {
		return nil, err
	}

	msg, err := srv.Users.Messages.Get("me", messageID).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, mapProviderError(err, "unable to retrieve message")
	}
	return msg, nil
}

func (c *accountClient) CreateDraft(ctx context.Context, to, subject, body, threadID, inReplyTo string) (string, error) {
	srv, err := c.service.gmailService(ctx, c.account, c.onTokenRefresh)
	if err != nil {
		return "", err
	}

	draft := &gmailapi.Draft{
		Message: &gmailapi.Message{
			Raw:      buildDraftRaw(to, subject, body, inReplyTo),
			ThreadId: threadID,
		},
	}

	created, err := srv.Users.Drafts.Create("me", draft).Context(ctx).Do()
	if err != nil {
		return "", mapProviderError(err, "unable to create draft")
	}
	return created.Id, nil
}

// mapProviderError translates Gmail API failures into the service taxonomy.
func mapProviderError(err error, msg string) error {
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return errs.Authf("%s: %v", msg, err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return errs.Authf("%s: %v", msg, err)
		case http.StatusNotFound:
			return errs.NotFoundf("%s: %v", msg, err)
		}
	}
	return errs.Upstreamf("%s: %v", msg, err)
}
