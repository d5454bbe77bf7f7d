package suggest

import (
	"net/http"

	"github.com/sirupsen/logrus"

	"tsundoku/internal/httpx"
)

const failureMessage = "AI推測に失敗しました"

type HTTPHandler struct {
	service *Service
	log     logrus.FieldLogger
}

func NewHTTPHandler(service *Service, log logrus.FieldLogger) *HTTPHandler {
	return &HTTPHandler{service: service, log: log}
}

type predictReq struct {
	Title       string `json:"title" validate:"required,max=255"`
	Author      string `json:"author" validate:"max=255"`
	Description string `json:"description" validate:"max=10000"`
}

type predictResp struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason,omitempty"`
	Error   string `json:"error,omitempty"`
}

// PredictReason handles POST /readings/predict-reason
// @Summary Suggest a reason for picking up a book
// @Tags readings
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body predictReq true "Book"
// @Success 200 {object} predictResp
// @Failure 422 {object} predictResp
// @Router /readings/predict-reason [post]
func (h *HTTPHandler) PredictReason(w http.ResponseWriter, r *http.Request) {
	var req predictReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteJSON(w, http.StatusUnprocessableEntity, predictResp{Error: failureMessage})
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.WriteJSON(w, http.StatusUnprocessableEntity, predictResp{Error: failureMessage})
		return
	}

	reason, err := h.service.Predict(r.Context(), httpx.UserIDFrom(r), Book{
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
	})
	if err != nil {
		httpx.Log(h.log, r).WithError(err).Info("reason prediction failed")
		httpx.WriteJSON(w, http.StatusUnprocessableEntity, predictResp{Error: failureMessage})
		return
	}
	httpx.WriteJSON(w, http.StatusOK, predictResp{Success: true, Reason: reason})
}
