package review

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

// Handler handles review HTTP requests.
type Handler struct {
	service *Service
}

// NewHandler creates a new review handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrBookingNotFound):
		response.NotFound(w, "Booking not found")
	case errors.Is(err, ErrApartmentNotFound):
		response.NotFound(w, "Apartment not found")
	case errors.Is(err, ErrNotBookingTenant):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrAlreadyReviewed), errors.Is(err, ErrBookingNotCompleted):
		response.Conflict(w, err.Error())
	default:
		logger.FromContext(r.Context()).Error().Err(err).
			Str("path", r.URL.Path).
			Msg("review request failed")
		response.InternalError(w)
	}
}

func pathID(w http.ResponseWriter, r *http.Request, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /bookings/{id}/review
// @Summary Review a completed stay
// @Tags Review
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param request body CreateRequest true "Rating and comment"
// @Success 201 {object} response.Response{data=ReviewResponse}
// @Failure 400,401,403,404,409,422,500 {object} response.Response
// @Router /bookings/{id}/review [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	bookingID, ok := pathID(w, r, "booking")
	if !ok {
		return
	}

	var req CreateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	rev, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), bookingID, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Created(w, rev.ToResponse())
}

// ListByApartment handles GET /apartments/{id}/reviews
// @Summary List apartment reviews
// @Tags Review
// @Produce json
// @Param id path string true "Apartment ID"
// @Param page query int false "Page"
// @Param limit query int false "Limit (max 50)"
// @Success 200 {object} response.Response{data=[]ReviewResponse}
// @Failure 400,404,500 {object} response.Response
// @Router /apartments/{id}/reviews [get]
func (h *Handler) ListByApartment(w http.ResponseWriter, r *http.Request) {
	apartmentID, ok := pathID(w, r, "apartment")
	if !ok {
		return
	}

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
	page := request.NewPage(q.Page, q.Limit, 10, 50)

	items, total, err := h.service.ListByApartment(r.Context(), apartmentID, page.Page, page.Limit)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]*ReviewResponse, len(items))
	for i, it := range items {
		out[i] = it.ToResponse()
	}
	response.WithMeta(w, out, response.NewMeta(total, page.Page, page.Limit))
}

// Summary handles GET /apartments/{id}/reviews/summary
// @Summary Rating overview
// @Tags Review
// @Produce json
// @Param id path string true "Apartment ID"
// @Success 200 {object} response.Response{data=SummaryResponse}
// @Failure 400,404,500 {object} response.Response
// @Router /apartments/{id}/reviews/summary [get]
func (h *Handler) Summary(w http.ResponseWriter, r *http.Request) {
	apartmentID, ok := pathID(w, r, "apartment")
	if !ok {
		return
	}

	s, err := h.service.Summary(r.Context(), apartmentID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, NewSummaryResponse(s))
}
