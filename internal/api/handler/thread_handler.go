package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/eduvisory/consulting-platform/internal/api/metrics"
	"github.com/eduvisory/consulting-platform/internal/api/middleware"
	"github.com/eduvisory/consulting-platform/internal/core/domain"
	"github.com/eduvisory/consulting-platform/internal/core/ports"
)

// ThreadHandler handles conversation threads and messages.
type ThreadHandler struct {
	threads ports.ThreadService
}

func NewThreadHandler(threads ports.ThreadService) *ThreadHandler {
	return &ThreadHandler{threads: threads}
}

// Open resolves the thread between the caller and the other party, creating
// it on first contact. Replaying the call returns the existing thread.
//
// @Summary      Get or create the thread with another party
// @Tags         threads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      openThreadRequest  true  "Other participant"
// @Success      200   {object}  threadResponse
// @Success      201   {object}  threadResponse
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /threads [post]
func (h *ThreadHandler) Open(c echo.Context) error {
	var req openThreadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	thread, created, err := h.threads.Open(c.Request().Context(), middleware.IdentityFrom(c), req.OtherPartyID)
	if err != nil {
		return err
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		metrics.ThreadsCreatedTotal.Inc()
	}
	return c.JSON(status, toThreadResponse(thread))
}

// List returns the account's threads, most recently active first.
//
// @Summary      List threads for an account
// @Tags         threads
// @Produce      json
// @Security     BearerAuth
// @Param        as_user  query     string  true  "Account id"
// @Success      200      {array}   threadSummaryResponse
// @Failure      403      {object}  errorResponse
// @Router       /threads [get]
func (h *ThreadHandler) List(c echo.Context) error {
	accountID := c.QueryParam("as_user")
	if accountID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "as_user is required")
	}

	summaries, err := h.threads.ThreadsFor(c.Request().Context(), middleware.IdentityFrom(c), accountID)
	if err != nil {
		return err
	}

	out := make([]threadSummaryResponse, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, threadSummaryResponse{
			ThreadID:     s.Thread.ID,
			OtherParty:   s.OtherParty,
			LastActivity: s.Thread.LastActivity,
		})
	}
	return c.JSON(http.StatusOK, out)
}

// Messages lists a thread's messages in order from an optional cursor.
//
// @Summary      List messages in a thread
// @Tags         threads
// @Produce      json
// @Security     BearerAuth
// @Param        id      path      string  true   "Thread id"
// @Param        cursor  query     int     false  "Resume cursor (last seen seq)"
// @Param        limit   query     int     false  "Page size (max 100)"
// @Success      200     {object}  listMessagesResponse
// @Failure      403     {object}  errorResponse
// @Failure      404     {object}  errorResponse
// @Router       /threads/{id}/messages [get]
func (h *ThreadHandler) Messages(c echo.Context) error {
	cursor, _ := strconv.ParseInt(c.QueryParam("cursor"), 10, 64)
	limit, _ := strconv.Atoi(c.QueryParam("limit"))

	page, err := h.threads.Messages(c.Request().Context(), middleware.IdentityFrom(c), c.Param("id"), cursor, limit)
	if err != nil {
		return err
	}

	resp := listMessagesResponse{
		Messages:   make([]messageResponse, 0, len(page.Messages)),
		NextCursor: page.NextCursor,
	}
	for _, m := range page.Messages {
		resp.Messages = append(resp.Messages, toMessageResponse(m))
	}
	return c.JSON(http.StatusOK, resp)
}

// Append sends one message into the thread.
//
// @Summary      Append a message to a thread
// @Tags         threads
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                true  "Thread id"
// @Param        body  body      appendMessageRequest  true  "Message body"
// @Success      201   {object}  messageResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /threads/{id}/messages [post]
func (h *ThreadHandler) Append(c echo.Context) error {
	var req appendMessageRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	identity := middleware.IdentityFrom(c)
	msg, err := h.threads.Append(c.Request().Context(), identity, c.Param("id"), req.Body)
	if err != nil {
		return err
	}

	metrics.MessagesSentTotal.WithLabelValues(identity.Role).Inc()
	return c.JSON(http.StatusCreated, toMessageResponse(msg))
}

func toThreadResponse(t *domain.Thread) threadResponse {
	return threadResponse{
		ThreadID:     t.ID,
		ClientID:     t.ClientID,
		ConsultantID: t.ConsultantID,
		CreatedAt:    t.CreatedAt,
		LastActivity: t.LastActivity,
	}
}

func toMessageResponse(m *domain.Message) messageResponse {
	return messageResponse{
		ID:       m.ID,
		ThreadID: m.ThreadID,
		SenderID: m.SenderID,
		Seq:      m.Seq,
		Body:     m.Body,
		SentAt:   m.SentAt,
	}
}
