package usecase

import (
	"context"
	"log"

	accountdomain "replypilot-backend/internal/account/domain"
	accountdto "replypilot-backend/internal/account/dto"
	"replypilot-backend/internal/account/repository"
	pipelinedomain "replypilot-backend/internal/pipeline/domain"
	"replypilot-backend/pkg/errs"

	"golang.org/x/oauth2"
)

type accountUsecase struct {
	accounts repository.AccountRepository
	watcher  MailboxWatcher
}

func NewAccountUsecase(accounts repository.AccountRepository, watcher MailboxWatcher) AccountUsecase {
	return &accountUsecase{
		accounts: accounts,
		watcher:  watcher,
	}
}

func (u *accountUsecase) GetSettings(accountID string) (*accountdto.SettingsResponse, error) {
	account, err := u.accounts.FindByIDWithFAQs(accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, errs.NotFoundf("account %s", accountID)
	}
	return settingsResponse(account), nil
}

func (u *accountUsecase) UpdateSettings(accountID string, req *accountdto.UpdateSettingsRequest) (*accountdto.SettingsResponse, error) {
	account, err := u.accounts.FindByID(accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, errs.NotFoundf("account %s", accountID)
	}

	if req.BusinessTone != nil {
		if !validTone(*req.BusinessTone) {
			return nil, errs.Validationf("unknown business tone %q", *req.BusinessTone)
		}
		account.BusinessTone = *req.BusinessTone
	}
	if req.CustomInstructions != nil {
		account.CustomInstructions = *req.CustomInstructions
	}
	if req.AutoRespond != nil {
		account.AutoRespond = *req.AutoRespond
	}

	if err := u.accounts.Update(account); err != nil {
		return nil, err
	}

	// A present FAQs key replaces the whole set, including with an empty list.
	if req.FAQs != nil {
		faqs := make([]accountdomain.FAQ, 0, len(req.FAQs))
		for _, input := range req.FAQs {
			faqs = append(faqs, accountdomain.FAQ{Question: input.Question, Answer: input.Answer})
		}
		if err := u.accounts.ReplaceFAQs(account.ID, faqs); err != nil {
			return nil, err
		}
	}

	return u.GetSettings(accountID)
}

func (u *accountUsecase) SetupWatch(ctx context.Context, accountID string) (*accountdto.WatchResponse, error) {
	account, err := u.accounts.FindByID(accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, errs.NotFoundf("account %s", accountID)
	}
	if !account.HasGmailCredentials() {
		return nil, errs.Validationf("account has no linked Gmail mailbox")
	}

	historyID, expiry, err := u.watcher.SetupWatch(ctx, account, u.tokenSaver(account))
	if err != nil {
		return nil, err
	}

	if err := u.accounts.UpdateWatch(account.ID, historyID, expiry); err != nil {
		return nil, err
	}

	log.Printf("[Account] watch registered for %s, cursor %s, expires %s", account.Email, historyID, expiry)
	return &accountdto.WatchResponse{HistoryID: historyID, WatchExpiry: expiry}, nil
}

func (u *accountUsecase) tokenSaver(account *accountdomain.Account) pipelinedomain.TokenUpdateFunc {
	return func(token *oauth2.Token) error {
		account.AccessToken = token.AccessToken
		if token.RefreshToken != "" {
			account.RefreshToken = token.RefreshToken
		}
		expiry := token.Expiry
		return u.accounts.UpdateTokens(account.ID, account.AccessToken, account.RefreshToken, &expiry)
	}
}

func validTone(tone string) bool {
	switch tone {
	case "professional", "friendly", "casual", "formal":
		return true
	}
	return false
}

func settingsResponse(account *accountdomain.Account) *accountdto.SettingsResponse {
	faqs := account.FAQs
	if faqs == nil {
		faqs = []accountdomain.FAQ{}
	}
	return &accountdto.SettingsResponse{
		ID:                 account.ID,
		Email:              account.Email,
		Name:               account.Name,
		BusinessTone:       account.BusinessTone,
		CustomInstructions: account.CustomInstructions,
		AutoRespond:        account.AutoRespond,
		FAQs:               faqs,
		GmailConnected:     account.HasGmailCredentials(),
		HistoryID:          account.HistoryID,
		WatchExpiry:        account.WatchExpiry,
	}
}
