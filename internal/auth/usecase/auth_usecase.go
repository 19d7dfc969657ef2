package usecase

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	accountdomain "replypilot-backend/internal/account/domain"
	"replypilot-backend/internal/account/repository"
	authdto "replypilot-backend/internal/auth/dto"
	"replypilot-backend/pkg/config"
	"replypilot-backend/pkg/errs"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// authUsecase implements AuthUsecase
type authUsecase struct {
	accounts repository.AccountRepository
	config   *config.Config
}

func NewAuthUsecase(accounts repository.AccountRepository, cfg *config.Config) AuthUsecase {
	return &authUsecase{
		accounts: accounts,
		config:   cfg,
	}
}

func (u *authUsecase) Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error) {
	existing, err := u.accounts.FindByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errs.Validationf("email already registered")
	}

	hashedPassword, err := repository.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	account := &accountdomain.Account{
		Email:        req.Email,
		Password:     hashedPassword,
		Name:         req.Name,
		Provider:     "email",
		BusinessTone: "professional",
	}

	if err := u.accounts.Create(account); err != nil {
		return nil, err
	}

	return u.generateTokens(account)
}

func (u *authUsecase) Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error) {
	account, err := u.accounts.FindByEmail(req.Email)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, errs.Authf("invalid email or password")
	}

	if account.Provider != "email" {
		return nil, errs.Authf("please use Google Sign-In for this account")
	}

	if !repository.CheckPasswordHash(req.Password, account.Password) {
		return nil, errs.Authf("invalid email or password")
	}

	return u.generateTokens(account)
}

// googleTokenInfo is the response from Google's tokeninfo endpoint.
type googleTokenInfo struct {
	Email         string `json:"email"`
	Name          string `json:"name"`
	EmailVerified string `json:"email_verified"` // Google returns this as string "true" or "false"
	Sub           string `json:"sub"`
}

func (u *authUsecase) GoogleSignIn(req *authdto.GoogleSignInRequest) (*authdto.TokenResponse, error) {
	tokenInfo, err := verifyGoogleIDToken(req.Token)
	if err != nil {
		return nil, err
	}

	account, err := u.accounts.FindByEmail(tokenInfo.Email)
	if err != nil {
		return nil, err
	}

	if account == nil {
		account = &accountdomain.Account{
			Email:        tokenInfo.Email,
			Name:         tokenInfo.Name,
			Provider:     "google",
			BusinessTone: "professional",
		}
		if err := u.accounts.Create(account); err != nil {
			return nil, err
		}
	} else {
		account.Name = tokenInfo.Name
		if err := u.accounts.Update(account); err != nil {
			return nil, err
		}
	}

	// Link the mailbox when the client completed the Gmail consent flow.
	if req.AccessToken != "" {
		account.AccessToken = req.AccessToken
		if req.RefreshToken != "" {
			account.RefreshToken = req.RefreshToken
		}
		var expiresAt *time.Time
		if req.ExpiresIn > 0 {
			t := time.Now().Add(time.Duration(req.ExpiresIn) * time.Second)
			expiresAt = &t
		}
		if err := u.accounts.UpdateTokens(account.ID, account.AccessToken, account.RefreshToken, expiresAt); err != nil {
			return nil, err
		}
	}

	return u.generateTokens(account)
}

func verifyGoogleIDToken(idToken string) (*googleTokenInfo, error) {
	url := fmt.Sprintf("https://oauth2.googleapis.com/tokeninfo?id_token=%s", idToken)

	resp, err := http.Get(url)
	if err != nil {
		return nil, errs.Upstreamf("failed to verify Google token: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, errs.Authf("failed to verify Google token: status %d, body: %s", resp.StatusCode, string(body))
	}

	var tokenInfo googleTokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&tokenInfo); err != nil {
		return nil, errs.Upstreamf("failed to decode Google token info: %v", err)
	}

	if tokenInfo.EmailVerified != "true" {
		return nil, errs.Authf("google email is not verified")
	}

	return &tokenInfo, nil
}

func (u *authUsecase) RefreshToken(refreshToken string) (*authdto.TokenResponse, error) {
	token, err := jwt.Parse(refreshToken, func(token *jwt.Token) (interface{}, error) {
		return []byte(u.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, errs.Authf("invalid refresh token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errs.Authf("invalid token claims")
	}

	storedToken, err := u.accounts.FindRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	if storedToken == nil || storedToken.ExpiresAt.Before(time.Now()) {
		return nil, errs.Authf("refresh token expired")
	}

	accountID, ok := claims["account_id"].(string)
	if !ok {
		return nil, errs.Authf("invalid token claims")
	}

	account, err := u.accounts.FindByID(accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, errs.Authf("account not found")
	}

	return u.generateTokens(account)
}

func (u *authUsecase) Logout(refreshToken string) error {
	return u.accounts.DeleteRefreshToken(refreshToken)
}

func (u *authUsecase) generateTokens(account *accountdomain.Account) (*authdto.TokenResponse, error) {
	accessToken, err := u.generateAccessToken(account)
	if err != nil {
		return nil, err
	}

	refreshToken, err := u.generateRefreshToken(account)
	if err != nil {
		return nil, err
	}

	entity := &accountdomain.RefreshToken{
		Token:     refreshToken,
		AccountID: account.ID,
		ExpiresAt: time.Now().Add(u.config.JWTRefreshExpiry),
	}
	if err := u.accounts.SaveRefreshToken(entity); err != nil {
		return nil, err
	}

	return &authdto.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Account:      account,
	}, nil
}

func (u *authUsecase) generateAccessToken(account *accountdomain.Account) (string, error) {
	claims := jwt.MapClaims{
		"account_id": account.ID,
		"email":      account.Email,
		"exp":        time.Now().Add(u.config.JWTAccessExpiry).Unix(),
		"iat":        time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.config.JWTSecret))
}

func (u *authUsecase) generateRefreshToken(account *accountdomain.Account) (string, error) {
	claims := jwt.MapClaims{
		"account_id": account.ID,
		"token_id":   uuid.New().String(),
		"exp":        time.Now().Add(u.config.JWTRefreshExpiry).Unix(),
		"iat":        time.Now().Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(u.config.JWTSecret))
}

func (u *authUsecase) ValidateToken(tokenString string) (*accountdomain.Account, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(u.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return nil, errs.Authf("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errs.Authf("invalid token claims")
	}

	accountID, ok := claims["account_id"].(string)
	if !ok {
		return nil, errs.Authf("invalid token claims")
	}

	account, err := u.accounts.FindByID(accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, errs.Authf("account not found")
	}

	return account, nil
}
