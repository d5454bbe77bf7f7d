package book

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tsundoku/internal/httpx"
	"tsundoku/internal/platform/googlebooks"
)

type HTTPHandler struct {
	service *Service
	log     logrus.FieldLogger
}

func NewHTTPHandler(service *Service, log logrus.FieldLogger) *HTTPHandler {
	return &HTTPHandler{service: service, log: log}
}

type createReq struct {
	Title         string `json:"title" validate:"max=255"`
	Author        string `json:"author" validate:"max=255"`
	Publisher     string `json:"publisher" validate:"max=255"`
	PublishedDate string `json:"published_date" validate:"max=32"`
	Description   string `json:"description" validate:"max=10000"`
	ISBN          string `json:"isbn" validate:"max=32"`
	ImageURL      string `json:"image_url" validate:"max=2048"`
	Source        string `json:"source" validate:"omitempty,oneof=manual google_books"`
}

type importReq struct {
	VolumeID string `json:"volume_id" validate:"required,max=64"`
}

type resolutionResponse struct {
	Book    Book   `json:"book"`
	Outcome string `json:"outcome"`
}

// List handles GET /books
// @Summary List registered books
// @Tags books
// @Produce json
// @Param q query string false "Title, author or ISBN"
// @Param page query int false "Page number"
// @Param page_size query int false "Items per page (max 100)"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /books [get]
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	page, _ := strconv.Atoi(query.Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(query.Get("page_size"))
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	books, total, err := h.service.List(r.Context(), Query{
		Q:      query.Get("q"),
		Limit:  pageSize,
		Offset: (page - 1) * pageSize,
	})
	if err != nil {
		httpx.Log(h.log, r).WithError(err).Error("list books")
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(w, r, books, map[string]any{
		"page":        page,
		"page_size":   pageSize,
		"total":       total,
		"total_pages": (total + pageSize - 1) / pageSize,
	})
}

// Get handles GET /books/{id}
// @Summary Get a book
// @Tags books
// @Produce json
// @Param id path string true "Book ID"
// @Success 200 {object} httpx.SuccessResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/{id} [get]
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
		return
	}

	b, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
			return
		}
		httpx.Log(h.log, r).WithError(err).Error("get book")
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, r, b, nil)
}

// Create handles POST /books
// @Summary Register a book
// @Description Reuses an existing book with the same ISBN, or the same title and author when no ISBN is given.
// @Tags books
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body createReq true "Book data"
// @Success 200 {object} httpx.SuccessResponse "existing book reused"
// @Success 201 {object} httpx.SuccessResponse "new book stored"
// @Failure 400 {object} httpx.ErrorResponse
// @Router /books [post]
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	src := Source(req.Source)
	if src == "" {
		src = SourceManual
	}

	res, err := h.service.Register(r.Context(), Candidate{
		Title:         req.Title,
		Author:        req.Author,
		Publisher:     req.Publisher,
		PublishedDate: req.PublishedDate,
		Description:   req.Description,
		ISBN:          req.ISBN,
		ImageURL:      req.ImageURL,
		Source:        src,
	})
	h.writeResolution(w, r, res, err)
}

// Import handles POST /books/import
// @Summary Register a Google Books volume
// @Tags books
// @Accept json
// @Produce json
// @Security Bearer
// @Param request body importReq true "Volume id"
// @Success 200 {object} httpx.SuccessResponse "existing book reused"
// @Success 201 {object} httpx.SuccessResponse "new book stored"
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 404 {object} httpx.ErrorResponse
// @Router /books/import [post]
func (h *HTTPHandler) Import(w http.ResponseWriter, r *http.Request) {
	var req importReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Invalid request body", nil)
		return
	}
	if details := httpx.ValidateStruct(req); len(details) > 0 {
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", details)
		return
	}

	res, err := h.service.Import(r.Context(), req.VolumeID)
	h.writeResolution(w, r, res, err)
}

func (h *HTTPHandler) writeResolution(w http.ResponseWriter, r *http.Request, res Resolution, err error) {
	switch {
	case err == nil:
	case errors.Is(err, ErrTitleRequired):
		httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid input", []httpx.ErrorDetail{
			{Field: "title", Message: "title is required"},
		})
		return
	case errors.Is(err, ErrVolumeNotFound):
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Volume not found", nil)
		return
	default:
		httpx.Log(h.log, r).WithError(err).Error("register book")
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}

	body := resolutionResponse{Book: res.Book, Outcome: res.Outcome.String()}
	if res.Outcome == OutcomeConstructed {
		httpx.JSONSuccessCreated(w, r, body)
		return
	}
	httpx.JSONSuccess(w, r, body, nil)
}

// Search handles GET /books/search
// @Summary Search Google Books
// @Description Upstream failures yield an empty page, never an error.
// @Tags books
// @Produce json
// @Param query query string false "Keywords or ISBN"
// @Param page query int false "Page number"
// @Success 200 {object} httpx.SuccessResponse
// @Router /books/search [get]
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	page = min(page, googlebooks.LastPage(searchPageSize))

	res := h.service.Search(r.Context(), r.URL.Query().Get("query"), page)
	httpx.JSONSuccess(w, r, res.Results, map[string]any{
		"total_items":  res.TotalItems,
		"current_page": res.CurrentPage,
		"per_page":     res.PerPage,
		"total_pages":  res.TotalPages,
	})
}

// Suggestions handles GET /books/suggestions
// @Summary Search-as-you-type suggestions
// @Tags books
// @Produce json
// @Param q query string false "Partial title"
// @Success 200 {object} httpx.SuccessResponse
// @Router /books/suggestions [get]
func (h *HTTPHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	if q == "" {
		q = r.URL.Query().Get("query")
	}
	httpx.JSONSuccess(w, r, h.service.Suggestions(r.Context(), q), nil)
}
