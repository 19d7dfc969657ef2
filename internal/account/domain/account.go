package domain

import "time"

// Account is one connected Gmail mailbox plus its assistant configuration.
type Account struct {
	ID       string `json:"id" gorm:"primaryKey"`
	Email    string `json:"email" gorm:"uniqueIndex;not null"`
	Password string `json:"-"` // Never return password in JSON
	Name     string `json:"name"`
	Provider string `json:"provider"` // "email" or "google"

	// Gmail OAuth credentials. Refreshed transparently by the mailbox
	// client; rotated values are persisted via UpdateTokens.
	AccessToken    string     `json:"-"`
	RefreshToken   string     `json:"-"`
	TokenExpiresAt *time.Time `json:"-"`

	// HistoryID is the change cursor for incremental sync. Owned by the
	// processing pipeline; WatchExpiry is owned by watch setup.
	HistoryID   string     `json:"history_id"`
	WatchExpiry *time.Time `json:"watch_expiry,omitempty"`

	// Assistant configuration, mutated only via settings.
	BusinessTone       string `json:"business_tone" gorm:"default:professional"`
	CustomInstructions string `json:"custom_instructions"`
	AutoRespond        bool   `json:"auto_respond"`

	FAQs []FAQ `json:"faqs,omitempty" gorm:"foreignKey:AccountID"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasGmailCredentials reports whether the account can open a mailbox client.
func (a *Account) HasGmailCredentials() bool {
	return a.AccessToken != "" && a.RefreshToken != ""
}

// FAQ is a question/answer pair used as grounding context for generated
// replies. The set is replaced wholesale on every settings save.
type FAQ struct {
	ID        string `json:"id" gorm:"primaryKey"`
	AccountID string `json:"-" gorm:"index;not null"`
	Question  string `json:"question"`
	Answer    string `json:"answer"`
	Position  int    `json:"position"`
}

type RefreshToken struct {
	Token     string    `json:"token" gorm:"primaryKey"`
	AccountID string    `json:"account_id"`
	ExpiresAt time.Time `json:"expires_at"`
}
