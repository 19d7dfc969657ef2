package repository

import (
	"time"

	accountdomain "replypilot-backend/internal/account/domain"
)

// AccountRepository defines persistence for accounts, their FAQ sets and
// session refresh tokens. Lookups return (nil, nil) when no row exists.
type AccountRepository interface {
	Create(account *accountdomain.Account) error
	FindByID(id string) (*accountdomain.Account, error)
	FindByIDWithFAQs(id string) (*accountdomain.Account, error)
	FindByEmail(email string) (*accountdomain.Account, error)
	Update(account *accountdomain.Account) error

	UpdateTokens(id, accessToken, refreshToken string, expiresAt *time.Time) error
	UpdateCursor(id, historyID string) error
	UpdateWatch(id, historyID string, expiry time.Time) error

	ReplaceFAQs(accountID string, faqs []accountdomain.FAQ) error

	SaveRefreshToken(token *accountdomain.RefreshToken) error
	FindRefreshToken(token string) (*accountdomain.RefreshToken, error)
	DeleteRefreshToken(token string) error
}
