package auth

import (
	"errors"
	"net/http"

	"github.com/rentnest/rentnest-api/internal/middleware"
	"github.com/rentnest/rentnest-api/internal/pkg/logger"
	"github.com/rentnest/rentnest-api/internal/pkg/response"
	"github.com/rentnest/rentnest-api/internal/pkg/validator"
)

// Handler handles auth HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates auth handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrEmailAlreadyExists):
		response.Conflict(w, "Email already registered")
	case errors.Is(err, ErrInvalidUserType):
		response.Unprocessable(w, err.Error())
	case errors.Is(err, ErrInvalidCredentials):
		response.Unauthorized(w, "Invalid email or password")
	case errors.Is(err, ErrInvalidRefreshToken):
		response.Unauthorized(w, "Invalid or expired refresh token")
	case errors.Is(err, ErrUserBanned):
		response.Forbidden(w, "Account is banned")
	case errors.Is(err, ErrUserNotFound):
		response.NotFound(w, "User not found")
	case errors.Is(err, ErrWrongPassword):
		response.Unprocessable(w, err.Error())
	case errors.Is(err, ErrInvalidVerificationToken), errors.Is(err, ErrVerificationExpired):
		response.BadRequest(w, err.Error())
	default:
		logger.FromContext(r.Context()).Error().Err(err).
			Str("path", r.URL.Path).
			Msg("auth request failed")
		response.InternalError(w)
	}
}

// Register handles POST /auth/register
// @Summary Register a tenant or landlord
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Account"
// @Success 201 {object} response.Response{data=RegisterResponse}
// @Failure 400,409,422,500 {object} response.Response
// @Router /auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	result, err := h.service.Register(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.Created(w, result)
}

// Login handles POST /auth/login
// @Summary Log in with email and password
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Credentials"
// @Success 200 {object} response.Response{data=AuthResponse}
// @Failure 400,401,403,422,500 {object} response.Response
// @Router /auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	result, err := h.service.Login(r.Context(), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, result)
}

// Refresh handles POST /auth/refresh
// @Summary Rotate refresh token
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} response.Response{data=AuthResponse}
// @Failure 400,401,403,422 {object} response.Response
// @Router /auth/refresh [post]
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	result, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, result)
}

// Logout handles POST /auth/logout
// @Summary Revoke refresh token
// @Tags Auth
// @Accept json
// @Param request body RefreshRequest true "Refresh token"
// @Success 204
// @Router /auth/logout [post]
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		logger.FromContext(r.Context()).Warn().Err(err).Msg("failed to revoke refresh token")
	}
	response.NoContent(w)
}

// Me handles GET /auth/me
// @Summary Current user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=UserResponse}
// @Failure 401,404 {object} response.Response
// @Router /auth/me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.GetCurrentUser(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, u)
}

// UpdateMe handles PATCH /auth/me
// @Summary Update name and phone
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateProfileRequest true "Fields to change"
// @Success 200 {object} response.Response{data=UserResponse}
// @Router /auth/me [patch]
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), middleware.GetUserID(r.Context()), &req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, u)
}

// ChangePassword handles POST /auth/me/password
// @Summary Change password
// @Tags Auth
// @Accept json
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "Passwords"
// @Success 204
// @Failure 400,401,422 {object} response.Response
// @Router /auth/me/password [post]
func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req ChangePasswordRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	if err := h.service.ChangePassword(r.Context(), middleware.GetUserID(r.Context()), &req); err != nil {
		writeError(w, r, err)
		return
	}
	response.NoContent(w)
}

// VerifyEmail handles GET /auth/verify-email?token=
// @Summary Confirm email address from the emailed link
// @Tags Auth
// @Produce json
// @Param token query string true "Signed token"
// @Success 200 {object} response.Response{data=UserResponse}
// @Failure 400 {object} response.Response
// @Router /auth/verify-email [get]
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		response.BadRequest(w, "Missing token")
		return
	}

	u, err := h.service.VerifyEmail(r.Context(), token)
	if err != nil {
		writeError(w, r, err)
		return
	}
	response.OK(w, u)
}

// ResendVerification handles POST /auth/verify-email/resend
// @Summary Send a new verification link
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /auth/verify-email/resend [post]
func (h *Handler) ResendVerification(w http.ResponseWriter, r *http.Request) {
	sent, err := h.service.ResendVerification(r.Context(), middleware.GetUserID(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	status := "sent"
	if !sent {
		status = "already_verified"
	}
	response.OK(w, map[string]string{"status": status})
}
