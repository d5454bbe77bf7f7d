package purchasemedium

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"tsundoku/internal/httpx"
	"tsundoku/internal/user"
)

type HTTPHandler struct {
	service *Service
	log     logrus.FieldLogger
}

func NewHTTPHandler(service *Service, log logrus.FieldLogger) *HTTPHandler {
	return &HTTPHandler{service: service, log: log}
}

// List handles GET /purchase-media
// @Summary List purchase media
// @Tags purchase-media
// @Produce json
// @Success 200 {object} httpx.SuccessResponse
// @Router /purchase-media [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	media, err := h.service.List(r.Context())
	if err != nil {
		httpx.Log(h.log, r).WithError(err).Error("list purchase media")
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, r, media, nil)
}

// Delete handles DELETE /purchase-media/{id}
// @Summary Delete an unused purchase medium
// @Tags purchase-media
// @Security Bearer
// @Param id path int true "Purchase medium ID"
// @Success 204
// @Failure 403 {object} httpx.ErrorResponse
// @Failure 409 {object} httpx.ErrorResponse
// @Router /purchase-media/{id} [delete]
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if httpx.RoleFrom(r) != user.RoleAdmin {
		httpx.JSONError(w, r, http.StatusForbidden, "FORBIDDEN", "Admin role required", nil)
		return
	}

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Purchase medium not found", nil)
		return
	}

	switch err := h.service.Delete(r.Context(), id); {
	case err == nil:
		httpx.JSONSuccessNoContent(w)
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Purchase medium not found", nil)
	case errors.Is(err, ErrInUse):
		httpx.JSONError(w, r, http.StatusConflict, "IN_USE", "Purchase medium is used by readings", nil)
	default:
		httpx.Log(h.log, r).WithError(err).Error("delete purchase medium")
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}
