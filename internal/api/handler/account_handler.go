package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eduvisory/consulting-platform/internal/api/metrics"
	"github.com/eduvisory/consulting-platform/internal/api/middleware"
	"github.com/eduvisory/consulting-platform/internal/core/domain"
	"github.com/eduvisory/consulting-platform/internal/core/ports"
)

// AccountHandler handles registration and credential rotation.
type AccountHandler struct {
	accounts ports.AccountService
}

func NewAccountHandler(accounts ports.AccountService) *AccountHandler {
	return &AccountHandler{accounts: accounts}
}

// Register creates a new account. Sign-up is anonymous for clients and
// consultants; seeding an admin requires an account:admin bearer.
//
// @Summary      Register a new account
// @Tags         accounts
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "Account details"
// @Success      201   {object}  registerResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /accounts [post]
func (h *AccountHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	account, err := h.accounts.Register(c.Request().Context(), ports.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		Profile: domain.Profile{
			FullName:       req.Profile.FullName,
			Company:        req.Profile.Company,
			Specialization: req.Profile.Specialization,
			Phone:          req.Profile.Phone,
		},
		Actor: middleware.IdentityFrom(c),
	})
	if err != nil {
		return err
	}

	metrics.AccountsRegisteredTotal.WithLabelValues(account.Role).Inc()
	return c.JSON(http.StatusCreated, registerResponse{AccountID: account.ID})
}

// RotatePassword replaces the account's credential. The subject presents its
// current password; an admin may override without it.
//
// @Summary      Change an account password
// @Tags         accounts
// @Accept       json
// @Security     BearerAuth
// @Param        id    path  string                 true  "Account id"
// @Param        body  body  rotatePasswordRequest  true  "Password change"
// @Success      204
// @Failure      400  {object}  errorResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Router       /accounts/{id}/password [post]
func (h *AccountHandler) RotatePassword(c echo.Context) error {
	var req rotatePasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	err := h.accounts.RotatePassword(c.Request().Context(), ports.RotatePasswordInput{
		AccountID:       c.Param("id"),
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
		Actor:           middleware.IdentityFrom(c),
	})
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
