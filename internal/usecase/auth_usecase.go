// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"leadintake/internal/domain/entity"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// LoginInput carries the credentials of the form-encoded token endpoint.
type LoginInput struct {
	Email    string
	Password string
}

// RefreshInput carries the refresh token being exchanged.
type RefreshInput struct {
	RefreshToken string
}

// RegisterInput defines the data required to register a new attorney.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
}

// --- Output DTOs ---

// AttorneyOutput is the public summary of an attorney.
type AttorneyOutput struct {
	ID    uuid.UUID
	Name  string
	Email string
}

// AuthUsecase defines the authentication flows.
// This is the contract that the delivery layer (e.g., API handlers) will depend on.
type AuthUsecase interface {
	Login(ctx context.Context, input *LoginInput) (*entity.TokenPair, error)
	Refresh(ctx context.Context, input *RefreshInput) (*entity.TokenPair, error)
	Register(ctx context.Context, input *RegisterInput) (*AttorneyOutput, error)
	// Authenticate resolves a bearer access token to the attorney it was issued for.
	Authenticate(ctx context.Context, accessToken string) (uuid.UUID, error)
	// VerifyCredentials checks an email/password pair with the same decoy discipline as Login.
	VerifyCredentials(ctx context.Context, email, password string) (*entity.Attorney, error)
}
