package contact

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"tsundoku/internal/httpx"
)

// Sender delivers a contact message.
type Sender interface {
	Forward(ctx context.Context, m Message) error
}

type HTTPHandler struct {
	sender Sender
	log    logrus.FieldLogger
}

func NewHTTPHandler(sender Sender, log logrus.FieldLogger) *HTTPHandler {
	return &HTTPHandler{sender: sender, log: log}
}

type contactReq struct {
	Name    string `json:"name" validate:"required,max=100"`
	Email   string `json:"email" validate:"required,email,max=255"`
	Content string `json:"content" validate:"required,max=5000"`
}

// Submit handles POST /contact
// @Summary Send a message to the operators
// @Tags contact
// @Accept json
// @Produce json
// @Param request body contactReq true "Message"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /contact [post]
func (h *HTTPHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var req contactReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	// The submitter is told it went through either way.
	if err := h.sender.Forward(r.Context(), Message{Name: req.Name, Email: req.Email, Content: req.Content}); err != nil {
		httpx.Log(h.log, r).WithError(err).Error("contact message not forwarded")
	}
	httpx.JSONSuccess(w, r, map[string]string{"message": "お問い合わせを受け付けました"}, nil)
}
