package usecase

import (
	accountdomain "replypilot-backend/internal/account/domain"
	authdto "replypilot-backend/internal/auth/dto"
)

// AuthUsecase handles account registration, sign-in and session tokens.
type AuthUsecase interface {
	Register(req *authdto.RegisterRequest) (*authdto.TokenResponse, error)
	Login(req *authdto.LoginRequest) (*authdto.TokenResponse, error)

	// GoogleSignIn verifies the Google ID token, finds or creates the
	// account and, when the request carries a Gmail OAuth pair, links the
	// mailbox to it.
	GoogleSignIn(req *authdto.GoogleSignInRequest) (*authdto.TokenResponse, error)

	RefreshToken(refreshToken string) (*authdto.TokenResponse, error)
	Logout(refreshToken string) error

	ValidateToken(tokenString string) (*accountdomain.Account, error)
}
