// Package handler contains the HTTP handlers for the application.
package handler

import (
	"net/http"

	"leadintake/internal/delivery/api/response"
	"leadintake/internal/domain/entity"
	"leadintake/internal/errors"
	"leadintake/internal/usecase"

	"github.com/labstack/echo/v4"
)

const tokenTypeBearer = "Bearer"

type accessTokenRequest struct {
	Username string `form:"username" validate:"required"`
	Password string `form:"password" validate:"required"`
}

type refreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=128"`
	Email    string `json:"email" validate:"required,email,max=256"`
	Password string `json:"password" validate:"required,max=256"`
}

type tokenBundle struct {
	TokenType             string `json:"token_type"`
	AccessToken           string `json:"access_token"`
	ExpiresAt             int64  `json:"expires_at"`
	RefreshToken          string `json:"refresh_token"`
	RefreshTokenExpiresAt int64  `json:"refresh_token_expires_at"`
}

type attorneySummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// AuthHandler serves the token and registration endpoints.
type AuthHandler struct {
	uc usecase.AuthUsecase
}

func NewAuthHandler(uc usecase.AuthUsecase) *AuthHandler {
	return &AuthHandler{uc: uc}
}

// IssueAccessToken exchanges form-encoded credentials for a token bundle.
func (h *AuthHandler) IssueAccessToken(c echo.Context) error {
	var req accessTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "expected form fields username and password")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	pair, err := h.uc.Login(c.Request().Context(), &usecase.LoginInput{
		Email:    req.Username,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newTokenBundle(pair))
}

// RefreshToken rotates a refresh token.
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	var req refreshTokenRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "expected a JSON body with refresh_token")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	pair, err := h.uc.Refresh(c.Request().Context(), &usecase.RefreshInput{RefreshToken: req.RefreshToken})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusOK, newTokenBundle(pair))
}

// Register creates an attorney account.
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return response.BindingError(c, "expected a JSON body with name, email and password")
	}
	if err := c.Validate(&req); err != nil {
		return errors.WithStack(err)
	}

	output, err := h.uc.Register(c.Request().Context(), &usecase.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return errors.WithStack(err)
	}

	return response.Success(c, http.StatusCreated, attorneySummary{
		ID:    output.ID.String(),
		Email: output.Email,
	})
}

func newTokenBundle(pair *entity.TokenPair) tokenBundle {
	return tokenBundle{
		TokenType:             tokenTypeBearer,
		AccessToken:           pair.Access.Token,
		ExpiresAt:             pair.Access.ExpiresAt,
		RefreshToken:          pair.Refresh.Token,
		RefreshTokenExpiresAt: pair.Refresh.ExpiresAt,
	}
}

// HealthCheck is a simple handler to check if the service is up.
func HealthCheck(c echo.Context) error {
	return response.Success(c, http.StatusOK, map[string]string{"status": "ok"})
}
