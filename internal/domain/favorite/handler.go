package favorite

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rentnest/rentnest-api/internal/middleware"
	"github.com/rentnest/rentnest-api/internal/pkg/logger"
	"github.com/rentnest/rentnest-api/internal/pkg/request"
	"github.com/rentnest/rentnest-api/internal/pkg/response"
	"github.com/rentnest/rentnest-api/internal/pkg/validator"
)

// Handler for favorites API
type Handler struct {
	service *Service
}

// NewHandler creates favorites handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrApartmentNotFound):
		response.NotFound(w, "Apartment not found")
	case errors.Is(err, ErrFavoriteNotFound):
		response.NotFound(w, err.Error())
	default:
		logger.FromContext(r.Context()).Error().Err(err).
			Str("path", r.URL.Path).
			Msg("favorite request failed")
		response.InternalError(w)
	}
}

func apartmentParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "apartmentId"))
	if err != nil {
		response.BadRequest(w, "Invalid apartment ID")
		return uuid.Nil, false
	}
	return id, true
}

// Toggle handles POST /favorites/toggle
// @Summary Add or remove an apartment from favorites
// @Tags Favorite
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ToggleRequest true "Apartment"
// @Success 200 {object} response.Response{data=ToggleResponse}
// @Failure 400,401,404,422,500 {object} response.Response
// @Router /favorites/toggle [post]
func (h *Handler) Toggle(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}
	apartmentID, err := uuid.Parse(req.ApartmentID)
	if err != nil {
		response.BadRequest(w, "Invalid apartment ID")
		return
	}

	result, err := h.service.Toggle(r.Context(), middleware.GetUserID(r.Context()), apartmentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, ToggleResponse{Status: result, ApartmentID: apartmentID})
}

// List handles GET /favorites
// @Summary List saved apartments
// @Tags Favorite
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Limit (max 100)"
// @Success 200 {object} response.Response{data=[]FavoriteResponse}
// @Failure 400,401,500 {object} response.Response
// @Router /favorites [get]
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

	items, total, err := h.service.List(r.Context(), middleware.GetUserID(r.Context()), page.Page, page.Limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]*FavoriteResponse, len(items))
	for i, it := range items {
		out[i] = FavoriteResponseFromEntity(it)
	}
	response.WithMeta(w, out, response.NewMeta(total, page.Page, page.Limit))
}

// Remove handles DELETE /favorites/{apartmentId}
// @Summary Remove from favorites
// @Tags Favorite
// @Security BearerAuth
// @Param apartmentId path string true "Apartment ID"
// @Success 204
// @Failure 400,401,404,500 {object} response.Response
// @Router /favorites/{apartmentId} [delete]
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	apartmentID, ok := apartmentParam(w, r)
	if !ok {
		return
	}
	if err := h.service.Remove(r.Context(), middleware.GetUserID(r.Context()), apartmentID); err != nil {
		writeError(w, r, err)
		return
	}
	response.NoContent(w)
}

// Check handles GET /favorites/{apartmentId}/check
// @Summary Is apartment in favorites
// @Tags Favorite
// @Produce json
// @Security BearerAuth
// @Param apartmentId path string true "Apartment ID"
// @Success 200 {object} response.Response{data=map[string]bool}
// @Router /favorites/{apartmentId}/check [get]
func (h *Handler) Check(w http.ResponseWriter, r *http.Request) {
	apartmentID, ok := apartmentParam(w, r)
	if !ok {
		return
	}
	saved, err := h.service.IsFavorited(r.Context(), middleware.GetUserID(r.Context()), apartmentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, map[string]bool{"is_favorited": saved})
}
