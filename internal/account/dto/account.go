package dto

import (
	"time"

	accountdomain "replypilot-backend/internal/account/domain"
)

// SettingsResponse is the assistant configuration plus the account identity
// and mailbox sync state the dashboard shows alongside it.
type SettingsResponse struct {
	ID                 string              `json:"id"`
	Email              string              `json:"email"`
	Name               string              `json:"name"`
	BusinessTone       string              `json:"business_tone"`
	CustomInstructions string              `json:"custom_instructions"`
	AutoRespond        bool                `json:"auto_respond"`
	FAQs               []accountdomain.FAQ `json:"faqs"`
	GmailConnected     bool                `json:"gmail_connected"`
	HistoryID          string              `json:"history_id,omitempty"`
	WatchExpiry        *time.Time          `json:"watch_expiry,omitempty"`
}

type FAQInput struct {
	Question string `json:"question" binding:"required"`
	Answer   string `json:"answer" binding:"required"`
}

// UpdateSettingsRequest replaces the assistant configuration. The FAQ list
// is replaced wholesale; omitted pointer fields keep their current value.
type UpdateSettingsRequest struct {
	BusinessTone       *string    `json:"business_tone"`
	CustomInstructions *string    `json:"custom_instructions"`
	AutoRespond        *bool      `json:"auto_respond"`
	FAQs               []FAQInput `json:"faqs"`
}

type WatchResponse struct {
	HistoryID   string    `json:"history_id"`
	WatchExpiry time.Time `json:"watch_expiry"`
}
