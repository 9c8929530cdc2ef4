package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eduvisory/consulting-platform/internal/api/metrics"
	"github.com/eduvisory/consulting-platform/internal/api/middleware"
	"github.com/eduvisory/consulting-platform/internal/core/domain"
	"github.com/eduvisory/consulting-platform/internal/core/ports"
)

// AuthHandler handles login and logout.
type AuthHandler struct {
	accounts ports.AccountService
	tokens   ports.TokenService
	recorder ports.ActivityRecorder
}

func NewAuthHandler(accounts ports.AccountService, tokens ports.TokenService, recorder ports.ActivityRecorder) *AuthHandler {
	return &AuthHandler{accounts: accounts, tokens: tokens, recorder: recorder}
}

// Login authenticates an account and returns a bearer token.
//
// @Summary      Login
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  loginResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.accounts.Authenticate(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return err
	}

	session, err := h.tokens.Issue(c.Request().Context(), account.ID, account.Role)
	if err != nil {
		return err
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	h.recorder.Enqueue(domain.ActivityEvent{
		Kind:      domain.ActivityLogin,
		EntityID:  account.ID,
		ActorID:   account.ID,
		Timestamp: time.Now().UTC(),
	})
	return c.JSON(http.StatusOK, loginResponse{
		Token:     session.Token,
		Role:      session.Role,
		ExpiresAt: session.ExpiresAt,
	})
}

// Logout revokes the presented token before its natural expiry.
//
// @Summary      Logout
// @Tags         auth
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  errorResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	identity := middleware.IdentityFrom(c)
	if err := h.tokens.Revoke(c.Request().Context(), identity); err != nil {
		return err
	}
	metrics.TokensRevokedTotal.Inc()
	return c.NoContent(http.StatusNoContent)
}
