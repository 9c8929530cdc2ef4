package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/eduvisory/consulting-platform/internal/api/metrics"
	"github.com/eduvisory/consulting-platform/internal/api/middleware"
	"github.com/eduvisory/consulting-platform/internal/core/domain"
	"github.com/eduvisory/consulting-platform/internal/core/ports"
)

// LeadHandler handles the lead pipeline endpoints.
type LeadHandler struct {
	leads ports.LeadService
}

func NewLeadHandler(leads ports.LeadService) *LeadHandler {
	return &LeadHandler{leads: leads}
}

// Create opens a new lead in status "new".
//
// @Summary      Create a lead
// @Tags         leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createLeadRequest  true  "Owning client"
// @Success      201   {object}  leadResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /leads [post]
func (h *LeadHandler) Create(c echo.Context) error {
	var req createLeadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	lead, err := h.leads.Create(c.Request().Context(), middleware.IdentityFrom(c), req.ClientID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toLeadResponse(lead))
}

// Patch transitions the lead's status or reassigns its consultant.
//
// @Summary      Transition or reassign a lead
// @Tags         leads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "Lead id"
// @Param        body  body      patchLeadRequest  true  "Status or assignee change"
// @Success      200   {object}  leadResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /leads/{id} [patch]
func (h *LeadHandler) Patch(c echo.Context) error {
	var req patchLeadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if (req.Status == "") == (req.AssignedConsultantID == "") {
		return echo.NewHTTPError(http.StatusBadRequest, "exactly one of status or assigned_consultant_id must be set")
	}

	identity := middleware.IdentityFrom(c)
	leadID := c.Param("id")

	if req.Status != "" {
		lead, err := h.leads.Transition(c.Request().Context(), identity, leadID, domain.LeadStatus(req.Status))
		if err != nil {
			return err
		}
		if n := len(lead.History); n >= 2 {
			metrics.LeadTransitionsTotal.WithLabelValues(string(lead.History[n-2].Status), string(lead.Status)).Inc()
		}
		return c.JSON(http.StatusOK, toLeadResponse(lead))
	}

	lead, err := h.leads.Reassign(c.Request().Context(), identity, leadID, req.AssignedConsultantID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toLeadResponse(lead))
}

// Get returns one lead visible to the caller.
//
// @Summary      Get a lead
// @Tags         leads
// @Produce      json
// @Security     BearerAuth
// @Param        id  path      string  true  "Lead id"
// @Success      200  {object}  leadResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /leads/{id} [get]
func (h *LeadHandler) Get(c echo.Context) error {
	lead, err := h.leads.Get(c.Request().Context(), middleware.IdentityFrom(c), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toLeadResponse(lead))
}

// List returns leads scoped by the caller's role.
//
// @Summary      List leads
// @Tags         leads
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   leadResponse
// @Failure      403  {object}  errorResponse
// @Router       /leads [get]
func (h *LeadHandler) List(c echo.Context) error {
	leads, err := h.leads.List(c.Request().Context(), middleware.IdentityFrom(c))
	if err != nil {
		return err
	}

	out := make([]leadResponse, 0, len(leads))
	for _, l := range leads {
		out = append(out, toLeadResponse(l))
	}
	return c.JSON(http.StatusOK, out)
}
