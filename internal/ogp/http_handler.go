package ogp

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"tsundoku/internal/httpx"
	"tsundoku/internal/metrics"
	"tsundoku/internal/reading"
)

// ReadingFinder loads a reading regardless of its owner.
type ReadingFinder interface {
	FindPublic(ctx context.Context, id string) (reading.Reading, error)
}

type HTTPHandler struct {
	readings ReadingFinder
	renderer *Renderer
	log      logrus.FieldLogger
}

func NewHTTPHandler(readings ReadingFinder, renderer *Renderer, log logrus.FieldLogger) *HTTPHandler {
	return &HTTPHandler{readings: readings, renderer: renderer, log: log}
}

// CardFor builds the card text of a reading.
func CardFor(r reading.Reading) Card {
	c := Card{Status: r.Status.Label(), Reason: r.Reason}
	if r.Book != nil {
		c.Title = r.Book.Title
		c.Author = r.Book.Author
	}
	return c
}

// Image handles GET /readings/{id}/ogp.jpg
// @Summary Share card of a reading
// @Description Unknown readings and rendering failures return the static fallback image.
// @Tags readings
// @Produce jpeg
// @Param id path string true "Reading ID"
// @Success 200
// @Router /readings/{id}/ogp.jpg [get]
func (h *HTTPHandler) Image(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		h.writeFallback(w)
		return
	}

	rd, err := h.readings.FindPublic(r.Context(), id)
	if err != nil {
		if !errors.Is(err, reading.ErrNotFound) {
			httpx.Log(h.log, r).WithError(err).Error("load reading for ogp")
		}
		h.writeFallback(w)
		return
	}

	var buf bytes.Buffer
	if err := h.renderer.Render(&buf, CardFor(rd)); err != nil {
		httpx.Log(h.log, r).WithError(err).WithField("reading_id", id).Error("render ogp image")
		h.writeFallback(w)
		return
	}

	metrics.RecordOGPRender(false)
	h.write(w, buf.Bytes(), "inline; filename=\"reading_"+id+"_ogp.jpg\"")
}

func (h *HTTPHandler) writeFallback(w http.ResponseWriter) {
	metrics.RecordOGPRender(true)
	h.write(w, h.renderer.Fallback(), "inline")
}

func (h *HTTPHandler) write(w http.ResponseWriter, body []byte, disposition string) {
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Cache-Control", "public, max-age=300")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
