package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	accountdomain "replypilot-backend/internal/account/domain"
	pipelinedomain "replypilot-backend/internal/pipeline/domain"
	"replypilot-backend/internal/pipeline/repository"
	"replypilot-backend/pkg/ai"
	"replypilot-backend/pkg/errs"
	"replypilot-backend/pkg/gmail"

	"golang.org/x/oauth2"
)

// draftConfidenceThreshold gates draft creation on the generator's own
// quality score: below it the response is recorded but never surfaced as a
// draft in the user's mailbox.
const draftConfidenceThreshold = 0.7

type processingUsecase struct {
	accounts       AccountStore
	messages       repository.ProcessedMessageRepository
	mailboxes      MailboxClientFactory
	completions    ai.Service
	messageTimeout time.Duration
}

func NewProcessingUsecase(accounts AccountStore, messages repository.ProcessedMessageRepository, mailboxes MailboxClientFactory, completions ai.Service, messageTimeout time.Duration) ProcessingUsecase {
	if messageTimeout <= 0 {
		messageTimeout = 60 * time.Second
	}
	return &processingUsecase{
		accounts:       accounts,
		messages:       messages,
		mailboxes:      mailboxes,
		completions:    completions,
		messageTimeout: messageTimeout,
	}
}

func (u *processingUsecase) ProcessNotification(ctx context.Context, accountID, cursor string) (int, error) {
	if accountID == "" || cursor == "" {
		return 0, errs.Validationf("accountId and historyCursor are required")
	}

	account, err := u.accounts.FindByIDWithFAQs(accountID)
	if err != nil {
		return 0, err
	}
	if account == nil {
		return 0, errs.NotFoundf("account %s", accountID)
	}

	client, err := u.mailboxes.ClientFor(account, u.tokenSaver(account))
	if err != nil {
		return 0, err
	}

	messageIDs, err := client.ListChangesSince(ctx, account.HistoryID)
	if err != nil {
		return 0, fmt.Errorf("change enumeration failed: %w", err)
	}

	log.Printf("[Pipeline] account %s: %d added message(s) since cursor %q", account.ID, len(messageIDs), account.HistoryID)

	processed := 0
	for _, messageID := range messageIDs {
		created, err := u.processMessage(ctx, client, account, messageID)
		if err != nil {
			// Contained: one poison message must not abort the batch.
			log.Printf("[Pipeline] message %s failed: %v", messageID, err)
			continue
		}
		if created {
			processed++
		}
	}

	// The cursor advances to the notification's value regardless of
	// per-message outcomes: forward progress is never held hostage by a
	// failing message, at the cost of possibly skipping one that failed
	// before its audit row was written.
	if err := u.accounts.UpdateCursor(account.ID, cursor); err != nil {
		return processed, fmt.Errorf("cursor update failed: %w", err)
	}

	log.Printf("[Pipeline] account %s: processed %d message(s), cursor now %q", account.ID, processed, cursor)
	return processed, nil
}

// processMessage runs one message through dedup, classification and the
// response gate. It reports whether a new audit row was created. The
// recover guard keeps a panicking SDK call from unwinding past the
// per-message boundary.
func (u *processingUsecase) processMessage(ctx context.Context, client MailboxClient, account *accountdomain.Account, messageID string) (created bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			created = false
			err = fmt.Errorf("panic while handling message %s: %v", messageID, r)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, u.messageTimeout)
	defer cancel()

	exists, err := u.messages.ExistsByGmailMessageID(messageID)
	if err != nil {
		return false, err
	}
	if exists {
		log.Printf("[Pipeline] message %s already processed, skipping", messageID)
		return false, nil
	}

	msg, err := client.FetchMessage(ctx, messageID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			log.Printf("[Pipeline] message %s no longer exists, skipping", messageID)
			return false, nil
		}
		return false, err
	}

	content := gmail.ExtractContent(msg)

	if isSelfOrAutomated(content.From, account.Email) {
		log.Printf("[Pipeline] skipping own or automated email from %s", content.From)
		return false, nil
	}

	profile := profileFor(account)

	classification, err := u.completions.Classify(ctx, content, profile)
	if err != nil {
		// Fail soft: classification failure never blocks the audit record.
		log.Printf("[Pipeline] classification failed for message %s, using default: %v", messageID, err)
		classification = ai.DefaultClassification()
	}

	record := &pipelinedomain.ProcessedMessage{
		AccountID:      account.ID,
		GmailMessageID: content.MessageID,
		GmailThreadID:  content.ThreadID,
		Subject:        content.Subject,
		FromEmail:      content.From,
		FromName:       content.FromName,
		ReceivedAt:     content.Date,
		Intent:         classification.Intent,
		Category:       classification.Category,
		Confidence:     classification.Confidence,
	}

	if err := u.messages.Create(record); err != nil {
		if errors.Is(err, repository.ErrDuplicateMessage) {
			// Lost the race against a concurrent invocation; the other
			// worker owns this message.
			log.Printf("[Pipeline] message %s inserted concurrently, skipping", messageID)
			return false, nil
		}
		return false, err
	}

	if classification.RequiresResponse && account.AutoRespond && classification.Category != ai.CategorySpam {
		u.respond(ctx, client, account, content, classification, profile, record)
	}

	return true, nil
}

// respond generates a reply and, when trusted enough, persists it as a Gmail
// draft. All failures here are contained: the audit row already exists and
// must survive whatever happens to the draft attempt.
func (u *processingUsecase) respond(ctx context.Context, client MailboxClient, account *accountdomain.Account, content *pipelinedomain.EmailContent, classification *ai.Classification, profile ai.Profile, record *pipelinedomain.ProcessedMessage) {
	response, err := u.completions.Generate(ctx, content, classification, profile)
	if err != nil {
		log.Printf("[Pipeline] response generation failed for message %s, using fallback: %v", record.GmailMessageID, err)
		response = ai.FallbackResponse(profile.Tone)
	}

	if response.Confidence > draftConfidenceThreshold {
		draftID, err := client.CreateDraft(ctx, content.From, content.Subject, response.Response, content.ThreadID, content.ReplyToHeader)
		if err != nil {
			log.Printf("[Pipeline] draft creation failed for message %s: %v", record.GmailMessageID, err)
			if err := u.messages.MarkResponse(record.ID, false, ""); err != nil {
				log.Printf("[Pipeline] failed to update audit row %s: %v", record.ID, err)
			}
			return
		}
		if err := u.messages.MarkResponse(record.ID, true, draftID); err != nil {
			log.Printf("[Pipeline] failed to update audit row %s: %v", record.ID, err)
		}
		log.Printf("[Pipeline] draft %s created for message %s", draftID, record.GmailMessageID)
		return
	}

	if err := u.messages.MarkResponse(record.ID, false, ""); err != nil {
		log.Printf("[Pipeline] failed to update audit row %s: %v", record.ID, err)
	}
	log.Printf("[Pipeline] response for message %s below draft threshold (%.2f), not drafted", record.GmailMessageID, response.Confidence)
}

// tokenSaver persists credentials rotated by the mailbox client's token
// source back onto the account.
func (u *processingUsecase) tokenSaver(account *accountdomain.Account) pipelinedomain.TokenUpdateFunc {
	return func(token *oauth2.Token) error {
		account.AccessToken = token.AccessToken
		if token.RefreshToken != "" {
			account.RefreshToken = token.RefreshToken
		}
		expiry := token.Expiry
		return u.accounts.UpdateTokens(account.ID, account.AccessToken, account.RefreshToken, &expiry)
	}
}

// isSelfOrAutomated filters mail that must never be classified or drafted:
// the account's own messages and automated senders.
func isSelfOrAutomated(from, accountEmail string) bool {
	lower := strings.ToLower(from)
	return (accountEmail != "" && strings.Contains(lower, strings.ToLower(accountEmail))) ||
		strings.Contains(lower, "noreply") ||
		strings.Contains(lower, "no-reply")
}

func profileFor(account *accountdomain.Account) ai.Profile {
	faqs := make([]ai.FAQ, 0, len(account.FAQs))
	for _, faq := range account.FAQs {
		faqs = append(faqs, ai.FAQ{Question: faq.Question, Answer: faq.Answer})
	}
	return ai.Profile{
		Tone:               account.BusinessTone,
		CustomInstructions: account.CustomInstructions,
		FAQs:               faqs,
		DisplayName:        account.Name,
	}
}
