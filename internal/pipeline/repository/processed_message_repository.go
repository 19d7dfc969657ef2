package repository

import (
	"errors"
	"time"

	pipelinedomain "replypilot-backend/internal/pipeline/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// processedMessageRepository implements ProcessedMessageRepository backed by gorm.
type processedMessageRepository struct {
	db *gorm.DB
}

func NewProcessedMessageRepository(db *gorm.DB) ProcessedMessageRepository {
	return &processedMessageRepository{db: db}
}

func (r *processedMessageRepository) Create(message *pipelinedomain.ProcessedMessage) error {
	message.ID = uuid.New().String()
	message.CreatedAt = time.Now()
	message.UpdatedAt = time.Now()

	err := r.db.Create(message).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicateMessage
	}
	return err
}

func (r *processedMessageRepository) ExistsByGmailMessageID(gmailMessageID string) (bool, error) {
	var count int64
	err := r.db.Model(&pipelinedomain.ProcessedMessage{}).
		Where("gmail_message_id = ?", gmailMessageID).Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *processedMessageRepository) MarkResponse(id string, draftCreated bool, gmailDraftID string) error {
	updates := map[string]interface{}{
		"response_generated": true,
		"draft_created":      draftCreated,
		"updated_at":         time.Now(),
	}
	if gmailDraftID != "" {
		updates["gmail_draft_id"] = gmailDraftID
	}
	return r.db.Model(&pipelinedomain.ProcessedMessage{}).Where("id = ?", id).Updates(updates).Error
}

func (r *processedMessageRepository) ListByAccount(accountID string, limit, offset int) ([]*pipelinedomain.ProcessedMessage, error) {
	var messages []*pipelinedomain.ProcessedMessage
	err := r.db.Where("account_id = ?", accountID).
		Order("received_at DESC").
		Limit(limit).Offset(offset).
		Find(&messages).Error
	if err != nil {
		return nil, err
	}
	return messages, nil
}
