package notification

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rentnest/rentnest-api/internal/middleware"
	"github.com/rentnest/rentnest-api/internal/pkg/logger"
	"github.com/rentnest/rentnest-api/internal/pkg/request"
	"github.com/rentnest/rentnest-api/internal/pkg/response"
)

// Handler handles notification HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates notification handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrNotificationNotFound):
		response.NotFound(w, "Notification not found")
	default:
		logger.FromContext(r.Context()).Error().Err(err).
			Str("path", r.URL.Path).
			Msg("notification request failed")
		response.InternalError(w)
	}
}

// List handles GET /notifications
// @Summary List my notifications
// @Tags Notification
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Limit (max 100)"
// @Success 200 {object} response.Response{data=[]NotificationResponse}
// @Router /notifications [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var q struct {
		Page  int `schema:"page"`
		Limit int `schema:"limit"`
	}
	details, err := request.DecodeQuery(r, &q)
	if err != nil {
		response.BadRequest(w, "Invalid query string")
		return
	}
	if details != nil {
		response.ValidationError(w, details)
		return
	}
	page := request.NewPage(q.Page, q.Limit, 20, 100)

	notifications, total, err := h.service.List(r.Context(), middleware.GetUserID(r.Context()), page.Page, page.Limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]*NotificationResponse, len(notifications))
	for i, n := range notifications {
		items[i] = NotificationResponseFromEntity(n)
	}
	response.WithMeta(w, items, response.NewMeta(total, page.Page, page.Limit))
}

// GetUnreadCount handles GET /notifications/unread-count
// @Summary Unread notification count
// @Tags Notification
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=UnreadCountResponse}
// @Router /notifications/unread-count [get]
func (h *Handler) GetUnreadCount(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.UnreadCount(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, UnreadCountResponse{UnreadCount: count})
}

// MarkAsRead handles POST /notifications/{id}/read
// @Summary Mark notification read
// @Tags Notification
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 204
// @Failure 400,404 {object} response.Response
// @Router /notifications/{id}/read [post]
func (h *Handler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid notification ID")
		return
	}

	if err := h.service.MarkAsRead(r.Context(), id, middleware.GetUserID(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	response.NoContent(w)
}

// MarkAllAsRead handles POST /notifications/read-all
// @Summary Mark all notifications read
// @Tags Notification
// @Security BearerAuth
// @Success 204
// @Router /notifications/read-all [post]
func (h *Handler) MarkAllAsRead(w http.ResponseWriter, r *http.Request) {
	if err := h.service.MarkAllAsRead(r.Context(), middleware.GetUserID(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	response.NoContent(w)
}
