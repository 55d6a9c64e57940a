package admin

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rentnest/rentnest-api/internal/middleware"
	"github.com/rentnest/rentnest-api/internal/pkg/logger"
	"github.com/rentnest/rentnest-api/internal/pkg/request"
	"github.com/rentnest/rentnest-api/internal/pkg/response"
	"github.com/rentnest/rentnest-api/internal/pkg/validator"
)

// Handler handles admin HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates admin handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		response.NotFound(w, "User not found")
	case errors.Is(err, ErrCannotBanAdmin), errors.Is(err, ErrCannotBanSelf):
		response.Conflict(w, err.Error())
	default:
		logger.FromContext(r.Context()).Error().Err(err).
			Str("path", r.URL.Path).
			Msg("admin request failed")
		response.InternalError(w)
	}
}

func userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid user ID")
		return uuid.Nil, false
	}
	return id, true
}

// ListUsers handles GET /admin/users
// @Summary List users
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param user_type query string false "tenant|landlord|admin"
// @Param banned query bool false "Only banned / not banned"
// @Param search query string false "Email or name"
// @Param page query int false "Page"
// @Param limit query int false "Limit (max 100)"
// @Success 200 {object} response.Response{data=[]UserResponse}
// @Failure 400,401,403,422,500 {object} response.Response
// @Router /admin/users [get]
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	var q ListQuery
	details, err := request.DecodeQuery(r, &q)
	if err != nil {
		response.BadRequest(w, "Invalid query string")
		return
	}
	if details != nil {
		response.ValidationError(w, details)
		return
	}
	if errs := validator.Validate(&q); errs != nil {
		response.ValidationError(w, errs)
		return
	}
	page := request.NewPage(q.Page, q.Limit, 20, 100)

	users, total, err := h.service.ListUsers(r.Context(), q.Filter(), page.Page, page.Limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	items := make([]*UserResponse, len(users))
	for i, u := range users {
		items[i] = UserResponseFromEntity(u)
	}
	response.WithMeta(w, items, response.NewMeta(total, page.Page, page.Limit))
}

// GetUser handles GET /admin/users/{id}
// @Summary Get user
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response{data=UserResponse}
// @Router /admin/users/{id} [get]
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	u, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, UserResponseFromEntity(u))
}

// Ban handles POST /admin/users/{id}/ban
// @Summary Ban user
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param request body BanRequest false "Reason"
// @Success 200 {object} response.Response{data=UserResponse}
// @Failure 400,404,409 {object} response.Response
// @Router /admin/users/{id}/ban [post]
func (h *Handler) Ban(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	var req BanRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	u, err := h.service.Ban(r.Context(), middleware.GetUserID(r.Context()), id, req.Reason)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, UserResponseFromEntity(u))
}

// Unban handles POST /admin/users/{id}/unban
// @Summary Unban user
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response{data=UserResponse}
// @Router /admin/users/{id}/unban [post]
func (h *Handler) Unban(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	u, err := h.service.Unban(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, UserResponseFromEntity(u))
}

// VerifyEmail handles POST /admin/users/{id}/verify
// @Summary Mark user email verified
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response{data=UserResponse}
// @Router /admin/users/{id}/verify [post]
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}
	u, err := h.service.VerifyEmail(r.Context(), middleware.GetUserID(r.Context()), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, UserResponseFromEntity(u))
}
