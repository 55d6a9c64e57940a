package apartment

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

// MaxImageUpload bounds the multipart body of an image upload.
const MaxImageUpload = 12 << 20

// Handler handles apartment HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates apartment handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrApartmentNotFound):
		response.NotFound(w, "Apartment not found")
	case errors.Is(err, ErrImageNotFound):
		response.NotFound(w, "Image not found")
	case errors.Is(err, ErrNotApartmentOwner):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrInvalidImage),
		errors.Is(err, ErrInvalidPropertyType),
		errors.Is(err, ErrInvalidGuestLimit),
		errors.Is(err, ErrInvalidCoordinates):
		response.Unprocessable(w, err.Error())
	default:
		logger.FromContext(r.Context()).Error().Err(err).
			Str("path", r.URL.Path).
			Msg("apartment request failed")
		response.InternalError(w)
	}
}

func urlUUID(w http.ResponseWriter, r *http.Request, param, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		response.BadRequest(w, "Invalid "+label+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// Search handles GET /apartments
// @Summary Search available apartments
// @Tags Apartment
// @Produce json
// @Param location query string false "City, country or address substring"
// @Param check_in query string false "YYYY-MM-DD"
// @Param check_out query string false "YYYY-MM-DD"
// @Param guests query int false "Guests"
// @Param lat query number false "Latitude"
// @Param lng query number false "Longitude"
// @Param radius_km query number false "Radius in km"
// @Param ordering query string false "price_per_month|size_sqm|created_at, prefix - for desc"
// @Param page query int false "Page"
// @Param limit query int false "Limit (max 100)"
// @Success 200 {object} response.Response{data=[]ListItemResponse}
// @Failure 400,422,500 {object} response.Response
// @Router /apartments [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var q SearchQuery
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

	filter, radius, err := q.ToFilter()
	if err != nil {
		response.BadRequest(w, err.Error())
		return
	}
	if userID := middleware.GetUserID(r.Context()); userID != uuid.Nil {
		filter.ViewerID = &userID
	}

	page := request.NewPage(q.Page, q.Limit, 20, 100)
	items, total, err := h.service.Search(r.Context(), filter, radius, &Pagination{Page: page.Page, Limit: page.Limit})
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]*ListItemResponse, len(items))
	for i, it := range items {
		out[i] = ListItemResponseFromEntity(it)
	}
	response.WithMeta(w, out, response.NewMeta(total, page.Page, page.Limit))
}

// Locations handles GET /apartments/locations
// @Summary Autocomplete cities and countries
// @Tags Apartment
// @Produce json
// @Param q query string true "At least 2 characters"
// @Success 200 {object} response.Response{data=[]LocationResponse}
// @Router /apartments/locations [get]
func (h *Handler) Locations(w http.ResponseWriter, r *http.Request) {
	locs, err := h.service.Locations(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]LocationResponse, len(locs))
	for i, l := range locs {
		out[i] = LocationResponse{City: l.City, Country: l.Country, Label: l.Label()}
	}
	response.OK(w, out)
}

// GetByID handles GET /apartments/{id}
// @Summary Get apartment with images and rating
// @Tags Apartment
// @Produce json
// @Param id path string true "Apartment ID"
// @Success 200 {object} response.Response{data=DetailResponse}
// @Failure 400,404,500 {object} response.Response
// @Router /apartments/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id", "apartment")
	if !ok {
		return
	}

	d, err := h.service.Detail(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, DetailResponseFromEntity(d))
}

// Create handles POST /apartments
// @Summary Create apartment listing
// @Tags Apartment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateRequest true "Listing"
// @Success 201 {object} response.Response{data=ApartmentResponse}
// @Failure 400,401,403,422,500 {object} response.Response
// @Router /apartments [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	a, err := h.service.Create(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Created(w, ApartmentResponseFromEntity(a))
}

// ListMine handles GET /apartments/mine
// @Summary List my apartments
// @Tags Apartment
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=[]ApartmentResponse}
// @Router /apartments/mine [get]
func (h *Handler) ListMine(w http.ResponseWriter, r *http.Request) {
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

	items, total, err := h.service.ListByOwner(r.Context(), middleware.GetUserID(r.Context()), &Pagination{Page: page.Page, Limit: page.Limit})
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]*ApartmentResponse, len(items))
	for i, a := range items {
		out[i] = ApartmentResponseFromEntity(a)
	}
	response.WithMeta(w, out, response.NewMeta(total, page.Page, page.Limit))
}

// Update handles PATCH /apartments/{id}
// @Summary Update apartment listing
// @Tags Apartment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Apartment ID"
// @Param request body UpdateRequest true "Fields to change"
// @Success 200 {object} response.Response{data=ApartmentResponse}
// @Failure 400,401,403,404,422,500 {object} response.Response
// @Router /apartments/{id} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id", "apartment")
	if !ok {
		return
	}

	var req UpdateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	a, err := h.service.Update(r.Context(), id, middleware.GetUserID(r.Context()), middleware.GetRole(r.Context()), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, ApartmentResponseFromEntity(a))
}

// Delete handles DELETE /apartments/{id}
// @Summary Delete apartment listing
// @Tags Apartment
// @Security BearerAuth
// @Param id path string true "Apartment ID"
// @Success 204
// @Failure 400,401,403,404,500 {object} response.Response
// @Router /apartments/{id} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id", "apartment")
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id, middleware.GetUserID(r.Context()), middleware.GetRole(r.Context())); err != nil {
		writeError(w, r, err)
		return
	}
	response.NoContent(w)
}

// UploadImage handles POST /apartments/{id}/images
// @Summary Upload apartment image
// @Tags Apartment
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path string true "Apartment ID"
// @Param file formData file true "Image"
// @Param caption formData string false "Caption"
// @Success 201 {object} response.Response{data=ImageResponse}
// @Failure 400,401,403,404,422,500 {object} response.Response
// @Router /apartments/{id}/images [post]
func (h *Handler) UploadImage(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id", "apartment")
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxImageUpload)
	if err := r.ParseMultipartForm(MaxImageUpload); err != nil {
		response.BadRequest(w, "File too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		response.BadRequest(w, "No file provided")
		return
	}
	defer file.Close()

	img, err := h.service.UploadImage(r.Context(), id,
		middleware.GetUserID(r.Context()), middleware.GetRole(r.Context()),
		header.Filename, file, r.FormValue("caption"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Created(w, ImageResponseFromEntity(img))
}

// DeleteImage handles DELETE /apartments/{id}/images/{imageId}
// @Summary Delete apartment image
// @Tags Apartment
// @Security BearerAuth
// @Success 204
// @Router /apartments/{id}/images/{imageId} [delete]
func (h *Handler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id", "apartment")
	if !ok {
		return
	}
	imageID, ok := urlUUID(w, r, "imageId", "image")
	if !ok {
		return
	}

	err := h.service.DeleteImage(r.Context(), id, imageID, middleware.GetUserID(r.Context()), middleware.GetRole(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.NoContent(w)
}

// SetPrimaryImage handles POST /apartments/{id}/images/{imageId}/primary
// @Summary Make image the cover photo
// @Tags Apartment
// @Security BearerAuth
// @Success 204
// @Router /apartments/{id}/images/{imageId}/primary [post]
func (h *Handler) SetPrimaryImage(w http.ResponseWriter, r *http.Request) {
	id, ok := urlUUID(w, r, "id", "apartment")
	if !ok {
		return
	}
	imageID, ok := urlUUID(w, r, "imageId", "image")
	if !ok {
		return
	}

	err := h.service.SetPrimaryImage(r.Context(), id, imageID, middleware.GetUserID(r.Context()), middleware.GetRole(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.NoContent(w)
}
