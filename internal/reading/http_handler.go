package reading

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tsundoku/internal/book"
	"tsundoku/internal/httpx"
)

type HTTPHandler struct {
	service *Service
	log     logrus.FieldLogger
}

func NewHTTPHandler(service *Service, log logrus.FieldLogger) *HTTPHandler {
	return &HTTPHandler{service: service, log: log}
}

type readingReq struct {
	BookID           string `json:"book_id" validate:"required,uuid"`
	PurchaseMediumID *int64 `json:"purchase_medium_id" validate:"omitempty,gt=0"`
	Reason           string `json:"reason" validate:"max=2000"`
	Status           string `json:"status" validate:"required,oneof=wish tsundoku completed"`
	WishDate         string `json:"wish_date" validate:"omitempty,datetime=2006-01-02"`
	TsundokuDate     string `json:"tsundoku_date" validate:"omitempty,datetime=2006-01-02"`
	CompletedDate    string `json:"completed_date" validate:"omitempty,datetime=2006-01-02"`
}

type statusReq struct {
	Status string `json:"status" validate:"required,oneof=wish tsundoku completed"`
	Date   string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

// Response is the JSON shape of a reading, with the derived maturity fields.
type Response struct {
	ID               string     `json:"id"`
	BookID           string     `json:"book_id"`
	Book             *book.Book `json:"book,omitempty"`
	PurchaseMediumID *int64     `json:"purchase_medium_id"`
	Reason           string     `json:"reason"`
	Status           Status     `json:"status"`
	WishDate         *string    `json:"wish_date"`
	TsundokuDate     *string    `json:"tsundoku_date"`
	CompletedDate    *string    `json:"completed_date"`
	Tier             *Tier      `json:"tier"`
	MaturityDays     *int       `json:"maturity_days"`
	Badge            *string    `json:"badge"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// NewResponse renders r as of today.
func NewResponse(r Reading, today time.Time) Response {
	resp := Response{
		ID:               r.ID,
		BookID:           r.BookID,
		Book:             r.Book,
		PurchaseMediumID: r.PurchaseMediumID,
		Reason:           r.Reason,
		Status:           r.Status,
		WishDate:         FormatDate(r.WishDate),
		TsundokuDate:     FormatDate(r.TsundokuDate),
		CompletedDate:    FormatDate(r.CompletedDate),
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
	if days, ok := MaturityDays(r, today); ok {
		tier := TierForDays(days)
		resp.MaturityDays = &days
		resp.Tier = &tier
	}
	if badge, ok := Badge(r, today); ok {
		resp.Badge = &badge
	}
	return resp
}

func (h *HTTPHandler) respond(w http.ResponseWriter, r *http.Request, rd Reading, created bool) {
	body := NewResponse(rd, h.service.Today())
	if created {
		httpx.JSONSuccessCreated(w, r, body)
		return
	}
	httpx.JSONSuccess(w, r, body, nil)
}

// List handles GET /readings
// @Summary List the caller's readings, newest first
// @Tags readings
// @Produce json
// @Security Bearer
// @Param status query string false "wish, tsundoku or completed"
// @Param cursor query string false "Cursor from meta.next_cursor"
// @Param limit query int false "Items per page (max 100)"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /readings [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := httpx.UserIDFrom(r)
	query := r.URL.Query()

	var status *Status
	if v := query.Get("status"); v != "" {
		s, err := ParseStatus(v)
		if err != nil {
			httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", []httpx.ErrorDetail{
				{Field: "status", Message: "must be one of: wish tsundoku completed"},
			})
			return
		}
		status = &s
	}
	limit, _ := strconv.Atoi(query.Get("limit"))

	page, err := h.service.List(r.Context(), userID, status, query.Get("cursor"), limit)
	if err != nil {
		if errors.Is(err, ErrInvalidCursor) {
			httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid cursor", nil)
			return
		}
		httpx.Log(h.log, r).WithError(err).Error("list readings")
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	today := h.service.Today()
	out := make([]Response, 0, len(page.Readings))
	for _, rd := range page.Readings {
		out = append(out, NewResponse(rd, today))
	}
	meta := map[string]any{"has_more": page.NextCursor != ""}
	if page.NextCursor != "" {
		meta["next_cursor"] = page.NextCursor
	}
	httpx.JSONSuccess(w, r, out, meta)
}

// Get handles GET /readings/{id}
// @Summary Get one of the caller's readings
// @Tags readings
// @Produce json
// @Security Bearer
// @Param id path string true "Reading ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /readings/{id} [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	rd, err := h.service.Get(r.Context(), httpx.UserIDFrom(r), id)
	if err != nil {
		h.writeError(w, r, err, "get reading")
		return
	}
	h.respond(w, r, rd, false)
}

// Create handles POST /readings
// @Summary Record a reading
// @Tags readings
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body readingReq true "Reading data"
// @Success 201 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Router /readings [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	rd, err := h.service.Create(r.Context(), httpx.UserIDFrom(r), in)
	if err != nil {
		h.writeError(w, r, err, "create reading")
		return
	}
	h.respond(w, r, rd, true)
}

// Update handles PUT /readings/{id}
// @Summary Replace a reading
// @Tags readings
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Reading ID"
// @Param request body readingReq true "Reading data"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /readings/{id} [put]
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	in, ok := h.decodeInput(w, r)
	if !ok {
		return
	}
	rd, err := h.service.Update(r.Context(), httpx.UserIDFrom(r), id, in)
	if err != nil {
		h.writeError(w, r, err, "update reading")
		return
	}
	h.respond(w, r, rd, false)
}

// ChangeStatus handles PATCH /readings/{id}/status
// @Summary Move a reading to another status
// @Description Without a date, the matching date is set to today unless already present.
// @Tags readings
// @Accept json
// @Produce json
// @Security Bearer
// @Param id path string true "Reading ID"
// @Param request body statusReq true "New status"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /readings/{id}/status [patch]
func (h *HTTPHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req statusReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	status, _ := ParseStatus(req.Status)
	date, _ := parseOptionalDate(req.Date)

	rd, err := h.service.ChangeStatus(r.Context(), httpx.UserIDFrom(r), id, status, date)
	if err != nil {
		h.writeError(w, r, err, "change reading status")
		return
	}
	h.respond(w, r, rd, false)
}

// Delete handles DELETE /readings/{id}
// @Summary Delete a reading
// @Tags readings
// @Security Bearer
// @Param id path string true "Reading ID"
// @Success 204
// @Failure 404 {object} httpx.ErrorResponse
// @Router /readings/{id} [delete]
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), httpx.UserIDFrom(r), id); err != nil {
		h.writeError(w, r, err, "delete reading")
		return
	}
	httpx.JSONSuccessNoContent(w)
}

// Recommend handles GET /readings/recommend
// @Summary Pick one of the caller's readings at random
// @Tags readings
// @Produce json
// @Security Bearer
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /readings/recommend [get]
func (h *HTTPHandler) Recommend(w http.ResponseWriter, r *http.Request) {
	rd, err := h.service.Recommend(r.Context(), httpx.UserIDFrom(r))
	if err != nil {
		h.writeError(w, r, err, "recommend reading")
		return
	}
	h.respond(w, r, rd, false)
}

// Stats handles GET /readings/stats
// @Summary Shelf statistics of the caller
// @Tags readings
// @Produce json
// @Security Bearer
// @Success 200 {object} httpx.SuccessResponse
// @Router /readings/stats [get]
func (h *HTTPHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.service.Stats(r.Context(), httpx.UserIDFrom(r))
	if err != nil {
		httpx.Log(h.log, r).WithError(err).Error("reading stats")
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, r, st, nil)
}

func (h *HTTPHandler) pathID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Reading not found", nil)
		return "", false
	}
	return id, true
}

func (h *HTTPHandler) decodeInput(w http.ResponseWriter, r *http.Request) (Input, bool) {
	var req readingReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return Input{}, false
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return Input{}, false
	}

	status, _ := ParseStatus(req.Status)
	in := Input{
		BookID:           req.BookID,
		PurchaseMediumID: req.PurchaseMediumID,
		Reason:           req.Reason,
		Status:           status,
	}
	// Formats were checked by the validator.
	in.WishDate, _ = parseOptionalDate(req.WishDate)
	in.TsundokuDate, _ = parseOptionalDate(req.TsundokuDate)
	in.CompletedDate, _ = parseOptionalDate(req.CompletedDate)
	return in, true
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error, op string) {
	if verr, ok := IsValidation(err); ok {
		details := make([]httpx.ErrorDetail, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			details = append(details, httpx.ErrorDetail{Field: f.Field, Message: f.Message})
		}
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	switch {
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Reading not found", nil)
	case errors.Is(err, ErrBookNotFound):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", []httpx.ErrorDetail{
			{Field: "book_id", Message: "book does not exist"},
		})
	case errors.Is(err, ErrMediumNotFound):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", []httpx.ErrorDetail{
			{Field: "purchase_medium_id", Message: "purchase medium does not exist"},
		})
	default:
		httpx.Log(h.log, r).WithError(err).Error(op)
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
	}
}

func parseOptionalDate(v string) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	d, err := ParseDate(v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
