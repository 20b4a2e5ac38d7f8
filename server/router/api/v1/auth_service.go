package v1

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/stridecoach/stride/server/auth"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	Email       string `json:"email"`
}

// Login authenticates the backoffice admin against the configured
// credentials and issues a JWT access token.
func (s *APIV1Service) Login(c echo.Context) error {
	request := &loginRequest{}
	if err := c.Bind(request); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed request body")
	}
	if request.Email == "" || request.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email and password are required")
	}

	if s.Profile.AdminEmail == "" || request.Email != s.Profile.AdminEmail ||
		!auth.VerifyPassword(s.Profile.AdminPassword, request.Password) {
		slog.Warn("backoffice login rejected", "email", request.Email)
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	}

	token, err := auth.GenerateAccessToken(request.Email, s.Secret)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to issue token")
	}

	slog.Info("backoffice login", "email", request.Email)
	return c.JSON(http.StatusOK, &loginResponse{AccessToken: token, Email: request.Email})
}
