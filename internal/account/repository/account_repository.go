package repository

import (
	"errors"
	"time"

	accountdomain "replypilot-backend/internal/account/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// accountRepository implements AccountRepository backed by gorm.
type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(account *accountdomain.Account) error {
	account.ID = uuid.New().String()
	account.CreatedAt = time.Now()
	account.UpdatedAt = time.Now()
	return r.db.Create(account).Error
}

func (r *accountRepository) FindByID(id string) (*accountdomain.Account, error) {
	var account accountdomain.Account
	err := r.db.Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) FindByIDWithFAQs(id string) (*accountdomain.Account, error) {
	var account accountdomain.Account
	err := r.db.Preload("FAQs", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).Where("id = ?", id).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) FindByEmail(email string) (*accountdomain.Account, error) {
	var account accountdomain.Account
	err := r.db.Where("email = ?", email).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *accountRepository) Update(account *accountdomain.Account) error {
	account.UpdatedAt = time.Now()
	return r.db.Save(account).Error
}

func (r *accountRepository) UpdateTokens(id, accessToken, refreshToken string, expiresAt *time.Time) error {
	return r.db.Model(&accountdomain.Account{}).Where("id = ?", id).Updates(map[string]interface{}{
		"access_token":     accessToken,
		"refresh_token":    refreshToken,
		"token_expires_at": expiresAt,
		"updated_at":       time.Now(),
	}).Error
}

func (r *accountRepository) UpdateCursor(id, historyID string) error {
	return r.db.Model(&accountdomain.Account{}).Where("id = ?", id).Updates(map[string]interface{}{
		"history_id": historyID,
		"updated_at": time.Now(),
	}).Error
}

func (r *accountRepository) UpdateWatch(id, historyID string, expiry time.Time) error {
	return r.db.Model(&accountdomain.Account{}).Where("id = ?", id).Updates(map[string]interface{}{
		"history_id":   historyID,
		"watch_expiry": expiry,
		"updated_at":   time.Now(),
	}).Error
}

// ReplaceFAQs swaps the account's FAQ set atomically: delete-all, insert-new.
func (r *accountRepository) ReplaceFAQs(accountID string, faqs []accountdomain.FAQ) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", accountID).Delete(&accountdomain.FAQ{}).Error; err != nil {
			return err
		}
		for i := range faqs {
			faqs[i].ID = uuid.New().String()
			faqs[i].AccountID = accountID
			faqs[i].Position = i
		}
		if len(faqs) == 0 {
			return nil
		}
		return tx.Create(&faqs).Error
	})
}

func (r *accountRepository) SaveRefreshToken(token *accountdomain.RefreshToken) error {
	// Clean up expired tokens for the account, keep valid ones so each
	// device retains its own session.
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ? AND expires_at < ?", token.AccountID, time.Now()).
			Delete(&accountdomain.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Create(token).Error
	})
}

func (r *accountRepository) FindRefreshToken(token string) (*accountdomain.RefreshToken, error) {
	var refreshToken accountdomain.RefreshToken
	err := r.db.Where("token = ?", token).First(&refreshToken).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &refreshToken, nil
}

func (r *accountRepository) DeleteRefreshToken(token string) error {
	return r.db.Where("token = ?", token).Delete(&accountdomain.RefreshToken{}).Error
}
