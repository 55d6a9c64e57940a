package booking

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rentnest/rentnest-api/internal/middleware"
	"github.com/rentnest/rentnest-api/internal/pkg/daterange"
	"github.com/rentnest/rentnest-api/internal/pkg/logger"
	"github.com/rentnest/rentnest-api/internal/pkg/request"
	"github.com/rentnest/rentnest-api/internal/pkg/response"
	"github.com/rentnest/rentnest-api/internal/pkg/validator"
)

// MaxDocumentUpload bounds the multipart body of a document upload.
const MaxDocumentUpload = 16 << 20

// Handler handles booking HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates booking handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func viewerFrom(r *http.Request) Viewer {
	return Viewer{
		UserID: middleware.GetUserID(r.Context()),
		Role:   middleware.GetRole(r.Context()),
	}
}

// writeError maps service errors onto the response envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Unprocessable(w, err.Error())
	case errors.Is(err, ErrConflict):
		response.Conflict(w, err.Error())
	case errors.Is(err, ErrForbidden):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrNotFound):
		response.NotFound(w, err.Error())
	default:
		logger.FromContext(r.Context()).Error().Err(err).
			Str("path", r.URL.Path).
			Msg("booking request failed")
		response.InternalError(w)
	}
}

func bookingID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid booking ID")
		return uuid.Nil, false
	}
	return id, true
}

// Create handles POST /bookings
// @Summary Create a booking request
// @Tags Booking
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateBookingRequest true "Booking request"
// @Success 201 {object} response.Response{data=BookingResponse}
// @Failure 400,401,403,404,409,422,500 {object} response.Response
// @Router /bookings [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateBookingRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	// validated above
	apartmentID, _ := uuid.Parse(req.ApartmentID)
	start, _ := daterange.Parse(req.StartDate)
	end, _ := daterange.Parse(req.EndDate)

	guests := 1
	if req.GuestCount != nil {
		guests = *req.GuestCount
	}

	b, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), &CreateInput{
		ApartmentID: apartmentID,
		BookingType: BookingType(req.BookingType),
		StartDate:   start,
		EndDate:     end,
		GuestCount:  guests,
		Message:     req.Message,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Created(w, BookingResponseFromEntity(b))
}

// List handles GET /bookings
// @Summary List bookings visible to the caller
// @Description Overdue pending and approved bookings are marked completed first.
// @Tags Booking
// @Produce json
// @Security BearerAuth
// @Param status query string false "pending|approved|rejected|cancelled|completed"
// @Param scope query string false "active|past|future"
// @Param ordering query string false "created_at|-created_at|start_date|-start_date"
// @Param page query int false "Page"
// @Param limit query int false "Limit (max 100)"
// @Success 200 {object} response.Response{data=[]BookingResponse}
// @Failure 400,401,422,500 {object} response.Response
// @Router /bookings [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
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

	filter := &ListFilter{
		Viewer:   viewerFrom(r),
		Scope:    Scope(q.Scope),
		Ordering: q.Ordering,
	}
	if q.Status != "" {
		st := Status(q.Status)
		filter.Status = &st
	}

	page := request.NewPage(q.Page, q.Limit, 20, 100)
	items, total, err := h.service.List(r.Context(), filter, &Pagination{Page: page.Page, Limit: page.Limit})
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]*BookingResponse, len(items))
	for i, b := range items {
		out[i] = BookingResponseFromEntity(b)
	}
	response.WithMeta(w, out, response.NewMeta(total, page.Page, page.Limit))
}

// GetByID handles GET /bookings/{id}
// @Summary Get a booking
// @Tags Booking
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Response{data=BookingResponse}
// @Failure 400,401,403,404,500 {object} response.Response
// @Router /bookings/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}

	b, err := h.service.Get(r.Context(), viewerFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, BookingResponseFromEntity(b))
}

type transitionFunc func(ctx context.Context, v Viewer, id uuid.UUID) (*Booking, error)

func (h *Handler) runTransition(w http.ResponseWriter, r *http.Request, apply transitionFunc) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}
	b, err := apply(r.Context(), viewerFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, BookingResponseFromEntity(b))
}

// Approve handles POST /bookings/{id}/approve
// @Summary Approve a pending booking (owner or admin)
// @Tags Booking
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Response{data=BookingResponse}
// @Failure 400,401,403,404,409,500 {object} response.Response
// @Router /bookings/{id}/approve [post]
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.service.Approve)
}

// Reject handles POST /bookings/{id}/reject
// @Summary Reject a pending booking (owner or admin)
// @Tags Booking
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Response{data=BookingResponse}
// @Failure 400,401,403,404,409,500 {object} response.Response
// @Router /bookings/{id}/reject [post]
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.service.Reject)
}

// Cancel handles POST /bookings/{id}/cancel
// @Summary Cancel a pending or approved booking (tenant)
// @Tags Booking
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Response{data=BookingResponse}
// @Failure 400,401,403,404,409,500 {object} response.Response
// @Router /bookings/{id}/cancel [post]
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.service.Cancel)
}

// RequestRefund handles POST /bookings/{id}/request-refund
// @Summary Request a refund (tenant)
// @Tags Booking
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Response{data=BookingResponse}
// @Failure 400,401,403,404,409,500 {object} response.Response
// @Router /bookings/{id}/request-refund [post]
func (h *Handler) RequestRefund(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.service.RequestRefund)
}

// ProcessRefund handles POST /bookings/{id}/process-refund
// @Summary Process a requested refund (apartment owner)
// @Tags Booking
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Response{data=BookingResponse}
// @Failure 400,401,403,404,409,500 {object} response.Response
// @Router /bookings/{id}/process-refund [post]
func (h *Handler) ProcessRefund(w http.ResponseWriter, r *http.Request) {
	h.runTransition(w, r, h.service.ProcessRefund)
}

// UploadDocument handles POST /bookings/{id}/documents
// Multipart form: file + document_type
// @Summary Attach a document to a booking
// @Tags Booking
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Param document_type formData string true "passport|id_card|contract|payment_proof|other"
// @Param file formData file true "PDF, JPEG or PNG"
// @Success 201 {object} response.Response{data=DocumentResponse}
// @Failure 400,401,403,404,422,500 {object} response.Response
// @Router /bookings/{id}/documents [post]
func (h *Handler) UploadDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxDocumentUpload)
	if err := r.ParseMultipartForm(MaxDocumentUpload); err != nil {
		response.BadRequest(w, "File too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "No file provided")
		return
	}
	defer file.Close()

	doc, err := h.service.UploadDocument(r.Context(), viewerFrom(r), id,
		DocumentType(r.FormValue("document_type")), header.Filename, file)
	if err != nil {
		writeError(w, r, err)
		return
	}

	response.Created(w, DocumentResponseFromEntity(doc))
}

// ListDocuments handles GET /bookings/{id}/documents
// @Summary List booking documents
// @Tags Booking
// @Produce json
// @Security BearerAuth
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Response{data=[]DocumentResponse}
// @Failure 400,401,403,404,500 {object} response.Response
// @Router /bookings/{id}/documents [get]
func (h *Handler) ListDocuments(w http.ResponseWriter, r *http.Request) {
	id, ok := bookingID(w, r)
	if !ok {
		return
	}

	docs, err := h.service.ListDocuments(r.Context(), viewerFrom(r), id)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]*DocumentResponse, len(docs))
	for i, d := range docs {
		out[i] = DocumentResponseFromEntity(d)
	}
	response.OK(w, out)
}

// Availability handles GET /apartments/{id}/availability
// @Summary Occupied date ranges of an apartment
// @Tags Apartment
// @Produce json
// @Param id path string true "Apartment ID"
// @Param from query string true "YYYY-MM-DD"
// @Param to query string true "YYYY-MM-DD"
// @Success 200 {object} response.Response{data=[]RangeResponse}
// @Failure 400,404,422,500 {object} response.Response
// @Router /apartments/{id}/availability [get]
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	apartmentID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.BadRequest(w, "Invalid apartment ID")
		return
	}

	var q AvailabilityQuery
	if _, err := request.DecodeQuery(r, &q); err != nil {
		response.BadRequest(w, "Invalid query string")
		return
	}
	if errs := validator.Validate(&q); errs != nil {
		response.ValidationError(w, errs)
		return
	}
	from, _ := daterange.Parse(q.From)
	to, _ := daterange.Parse(q.To)

	ranges, err := h.service.BlockedRanges(r.Context(), apartmentID, from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]RangeResponse, len(ranges))
	for i, rg := range ranges {
		out[i].StartDate, out[i].EndDate = rg.Format()
	}
	response.OK(w, out)
}
