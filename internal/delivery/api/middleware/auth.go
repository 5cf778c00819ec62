package middleware

import (
	"strings"

	"leadintake/internal/delivery/api/response"
	deliverycontext "leadintake/internal/delivery/context"
	"leadintake/internal/usecase"

	"github.com/labstack/echo/v4"
)

const bearerPrefix = "Bearer "

// AuthMiddleware guards routes that need an access token.
type AuthMiddleware struct {
	auth usecase.AuthUsecase
}

func NewAuthMiddleware(auth usecase.AuthUsecase) *AuthMiddleware {
	return &AuthMiddleware{auth: auth}
}

// Authenticate validates the bearer access token and records the attorney on the context.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
			return response.Unauthorized(c)
		}

		attorneyID, err := m.auth.Authenticate(c.Request().Context(), strings.TrimSpace(header[len(bearerPrefix):]))
		if err != nil {
			return response.Unauthorized(c)
		}

		deliverycontext.SetAttorneyID(c, attorneyID)

		return next(c)
	}
}
