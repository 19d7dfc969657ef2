package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"replypilot-backend/internal/pipeline/delivery"
	"replypilot-backend/internal/pipeline/usecase"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// GmailNotification is the payload Gmail publishes to the Pub/Sub topic on
// inbox changes.
type GmailNotification struct {
	EmailAddress string `json:"emailAddress"`
	HistoryID    uint64 `json:"historyId"`
}

// Service pulls Gmail change notifications from a Pub/Sub subscription and
// feeds them into the processing pipeline. It is the pull-mode alternative
// to the push webhook; deployments run one or the other.
type Service struct {
	pubsubClient *pubsub.Client
	accounts     delivery.AccountLookup
	processing   usecase.ProcessingUsecase
	projectID    string
	topicName    string
	subName      string

	// Drop notifications whose historyId does not advance past the last one
	// seen for the account. Guarded by mu; Receive runs handlers concurrently.
	mu            sync.Mutex
	lastHistoryID map[string]uint64
}

func NewService(projectID, topicName string, accounts delivery.AccountLookup, processing usecase.ProcessingUsecase, credentialsFile string) (*Service, error) {
	ctx := context.Background()

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %v", err)
	}

	return &Service{
		pubsubClient:  client,
		accounts:      accounts,
		processing:    processing,
		projectID:     projectID,
		topicName:     topicName,
		subName:       topicName + "-sub", // Convention: topic-sub
		lastHistoryID: make(map[string]uint64),
	}, nil
}

func (s *Service) Start(ctx context.Context) {
	log.Printf("[PubSub] Starting notification service with topic: %s, subscription: %s", s.topicName, s.subName)

	sub := s.pubsubClient.Subscription(s.subName)
	exists, err := sub.Exists(ctx)
	if err != nil {
		log.Printf("[PubSub] Error checking subscription existence: %v", err)
		return
	}

	if !exists {
		topic := s.pubsubClient.Topic(s.topicName)
		topicExists, err := topic.Exists(ctx)
		if err != nil {
			log.Printf("[PubSub] Error checking topic existence: %v", err)
			return
		}
		if !topicExists {
			log.Printf("[PubSub] Topic %s does not exist, cannot create subscription", s.topicName)
			return
		}

		sub, err = s.pubsubClient.CreateSubscription(ctx, s.subName, pubsub.SubscriptionConfig{
			Topic:       topic,
			AckDeadline: 10 * time.Second,
		})
		if err != nil {
			log.Printf("[PubSub] Failed to create subscription: %v", err)
			return
		}
		log.Printf("[PubSub] Created subscription: %s", s.subName)
	}

	log.Printf("[PubSub] Listening for messages on subscription: %s", s.subName)
	err = sub.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		s.handleMessage(ctx, msg)
		// Always ack: a notification is only a hint to check history, and
		// redelivering a failed one would replay the same hint.
		msg.Ack()
	})
	if err != nil {
		log.Printf("[PubSub] Error receiving messages: %v", err)
	}
}

func (s *Service) handleMessage(ctx context.Context, msg *pubsub.Message) {
	var notification GmailNotification
	if err := json.Unmarshal(msg.Data, &notification); err != nil {
		log.Printf("[PubSub] Failed to unmarshal notification: %v", err)
		return
	}
	if notification.EmailAddress == "" || notification.HistoryID == 0 {
		log.Printf("[PubSub] Notification missing emailAddress or historyId, dropping")
		return
	}

	log.Printf("[PubSub] Received notification for: %s (historyId: %d)", notification.EmailAddress, notification.HistoryID)

	account, err := s.accounts.FindByEmail(notification.EmailAddress)
	if err != nil {
		log.Printf("[PubSub] Error finding account for %s: %v", notification.EmailAddress, err)
		return
	}
	if account == nil {
		log.Printf("[PubSub] No account for email: %s", notification.EmailAddress)
		return
	}

	if !s.advance(account.ID, notification.HistoryID) {
		log.Printf("[PubSub] Skipping stale notification for account %s (historyId %d)", account.ID, notification.HistoryID)
		return
	}

	cursor := strconv.FormatUint(notification.HistoryID, 10)
	processed, err := s.processing.ProcessNotification(ctx, account.ID, cursor)
	if err != nil {
		log.Printf("[PubSub] Processing failed for account %s: %v", account.ID, err)
		return
	}
	log.Printf("[PubSub] Account %s: processed %d message(s)", account.ID, processed)
}

// advance records the history ID and reports whether it moved forward.
func (s *Service) advance(accountID string, historyID uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if last, ok := s.lastHistoryID[accountID]; ok && historyID <= last {
		return false
	}
	s.lastHistoryID[accountID] = historyID
	return true
}
