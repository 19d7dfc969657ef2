package dto

import accountdomain "replypilot-backend/internal/account/domain"

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
}

// GoogleSignInRequest carries the Google ID token plus, when the client
// completed the Gmail consent flow, the OAuth pair that lets the backend
// act on the mailbox.
type GoogleSignInRequest struct {
	Token        string `json:"token" binding:"required"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type TokenResponse struct {
	AccessToken  string                 `json:"access_token"`
	RefreshToken string                 `json:"refresh_token"`
	Account      *accountdomain.Account `json:"account"`
}
