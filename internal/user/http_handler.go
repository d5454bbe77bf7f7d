package user

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"tsundoku/internal/httpx"
)

type HTTPHandler struct {
	service *Service
	log     logrus.FieldLogger
}

func NewHTTPHandler(service *Service, log logrus.FieldLogger) *HTTPHandler {
	return &HTTPHandler{service: service, log: log}
}

type registerReq struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required,password_strength,max=72"`
}

type userResponse struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// RegisterUser handles POST /users/register
// @Summary Register a new user
// @Description Create an account. The response is the same whether or not the email is already registered.
// @Tags users
// @Accept json
// @Produce json
// @Param request body registerReq true "Registration request"
// @Success 202 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /users/register [post]
func (h *HTTPHandler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req registerReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}

	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	err := h.service.Register(r.Context(), RegisterCommand{
		Email:    req.Email,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		httpx.Log(h.log, r).WithError(err).Error("register user")
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccessAccepted(w, r, map[string]string{
		"message": "Check your inbox to finish signing up",
	})
}

// ConfirmUser handles GET /users/confirm
// @Summary Confirm email address
// @Description Activate the account behind a mailed confirmation link
// @Tags users
// @Produce json
// @Param token query string true "Confirmation token"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /users/confirm [get]
func (h *HTTPHandler) ConfirmUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.Confirm(r.Context(), r.URL.Query().Get("token"))
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_TOKEN", "The confirmation link is invalid or already used", nil)
			return
		}
		httpx.Log(h.log, r).WithError(err).Error("confirm user")
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(w, r, userResponse{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		Role:     u.Role,
	}, nil)
}

type emailReq struct {
	Email string `json:"email" validate:"required,email,max=255"`
}

// ResendConfirmation handles POST /users/confirmation
// @Summary Resend the confirmation mail
// @Tags users
// @Accept json
// @Produce json
// @Param request body emailReq true "Account email"
// @Success 202 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /users/confirmation [post]
func (h *HTTPHandler) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	h.acceptEmail(w, r, "resend confirmation", h.service.ResendConfirmation)
}

// RequestPasswordReset handles POST /users/password
// @Summary Request a password reset mail
// @Description The response is the same whether or not the email is registered.
// @Tags users
// @Accept json
// @Produce json
// @Param request body emailReq true "Account email"
// @Success 202 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /users/password [post]
func (h *HTTPHandler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	h.acceptEmail(w, r, "request password reset", h.service.RequestPasswordReset)
}

func (h *HTTPHandler) acceptEmail(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, string) error) {
	var req emailReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	if err := fn(r.Context(), req.Email); err != nil {
		httpx.Log(h.log, r).WithError(err).Error(op)
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccessAccepted(w, r, map[string]string{
		"message": "If the address is registered, a mail is on its way",
	})
}

type resetPasswordReq struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,password_strength,max=72"`
}

// ResetPassword handles PUT /users/password
// @Summary Set a new password
// @Tags users
// @Accept json
// @Param request body resetPasswordReq true "Reset token and new password"
// @Success 204 "No Content"
// @Failure 400 {object} httpx.ErrorResponse
// @Router /users/password [put]
func (h *HTTPHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	if err := h.service.ResetPassword(r.Context(), req.Token, req.Password); err != nil {
		if errors.Is(err, ErrInvalidToken) {
			httpx.JSONError(w, r, http.StatusBadRequest, "INVALID_TOKEN", "The reset link is invalid or expired", nil)
			return
		}
		httpx.Log(h.log, r).WithError(err).Error("reset password")
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccessNoContent(w)
}

// GetCurrentUser handles GET /me
// @Summary Get current user
// @Tags users
// @Produce json
// @Security Bearer
// @Success 200 {object} httpx.SuccessResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Router /me [get]
func (h *HTTPHandler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.service.GetByID(r.Context(), httpx.UserIDFrom(r))
	if err != nil {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	httpx.JSONSuccess(w, r, userResponse{
		ID:       u.ID,
		Email:    u.Email,
		Username: u.Username,
		Role:     u.Role,
	}, nil)
}

// DeleteCurrentUser handles DELETE /me
// @Summary Delete account
// @Description Delete the authenticated user together with their readings and sessions
// @Tags users
// @Security Bearer
// @Success 204 "No Content"
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /me [delete]
func (h *HTTPHandler) DeleteCurrentUser(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	if userID == "" {
		httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
		return
	}

	if err := h.service.Delete(r.Context(), userID); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
			return
		}
		httpx.Log(h.log, r).WithError(err).Error("delete user")
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccessNoContent(w)
}
