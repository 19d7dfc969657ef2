package usecase

import (
	"context"
	"time"

	accountdomain "replypilot-backend/internal/account/domain"
	accountdto "replypilot-backend/internal/account/dto"
	pipelinedomain "replypilot-backend/internal/pipeline/domain"
)

// AccountUsecase handles assistant settings and mailbox watch registration.
type AccountUsecase interface {
	GetSettings(accountID string) (*accountdto.SettingsResponse, error)

	// UpdateSettings applies the request and replaces the FAQ set wholesale.
	UpdateSettings(accountID string, req *accountdto.UpdateSettingsRequest) (*accountdto.SettingsResponse, error)

	// SetupWatch registers the account's inbox for push notifications and
	// persists the returned cursor and expiry.
	SetupWatch(ctx context.Context, accountID string) (*accountdto.WatchResponse, error)
}

// MailboxWatcher is the slice of the Gmail service watch setup needs.
type MailboxWatcher interface {
	SetupWatch(ctx context.Context, account *accountdomain.Account, onTokenRefresh pipelinedomain.TokenUpdateFunc) (historyID string, expiry time.Time, err error)
}
