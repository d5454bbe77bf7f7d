package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"tsundoku/internal/auth"
	"tsundoku/internal/book"
	"tsundoku/internal/contact"
	"tsundoku/internal/httpx"
	"tsundoku/internal/logger"
	"tsundoku/internal/ogp"
	"tsundoku/internal/profile"
	"tsundoku/internal/purchasemedium"
	"tsundoku/internal/reading"
	"tsundoku/internal/session"
	"tsundoku/internal/suggest"
	"tsundoku/internal/user"
)

func testRouter(ping func(context.Context) error) http.Handler {
	log := logger.Discard()
	h := handlers{
		users:    user.NewHTTPHandler(nil, log),
		auth:     auth.NewHTTPHandler(nil, log),
		sessions: session.NewHTTPHandler(nil, log),
		books:    book.NewHTTPHandler(nil, log),
		readings: reading.NewHTTPHandler(nil, log),
		media:    purchasemedium.NewHTTPHandler(nil, log),
		ogp:      ogp.NewHTTPHandler(nil, nil, log),
		suggest:  suggest.NewHTTPHandler(nil, log),
		contact:  contact.NewHTTPHandler(nil, log),
		profile:  profile.NewHTTPHandler(nil, log),
	}
	return newRouter(h, httpx.AuthMiddleware("routing-test-secret", nil), ping)
}

func TestRouter_Health(t *testing.T) {
	ok := testRouter(func(context.Context) error { return nil })
	down := testRouter(func(context.Context) error { return errors.New("down") })

	rec := httptest.NewRecorder()
	ok.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	ok.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	ok.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_ProtectedRoutesRequireToken(t *testing.T) {
	router := testRouter(func(context.Context) error { return nil })
	id := "7c3d9e1f-2a4b-4c6d-8e0f-1a2b3c4d5e6f"

	routes := []struct{ method, path string }{
		{http.MethodGet, "/me"},
		{http.MethodDelete, "/me"},
		{http.MethodGet, "/me/profile"},
		{http.MethodGet, "/me/sessions"},
		{http.MethodDelete, "/me/sessions/" + id},
		{http.MethodPost, "/auth/logout"},
		{http.MethodPost, "/books"},
		{http.MethodPost, "/books/import"},
		{http.MethodGet, "/readings"},
		{http.MethodPost, "/readings"},
		{http.MethodGet, "/readings/recommend"},
		{http.MethodGet, "/readings/stats"},
		{http.MethodPost, "/readings/predict-reason"},
		{http.MethodGet, "/readings/" + id},
		{http.MethodPut, "/readings/" + id},
		{http.MethodPatch, "/readings/" + id + "/status"},
		{http.MethodDelete, "/readings/" + id},
		{http.MethodDelete, "/purchase-media/1"},
	}
	for _, rt := range routes {
		t.Run(rt.method+" "+rt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(rt.method, rt.path, nil))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestRouter_MethodAndPath(t *testing.T) {
	router := testRouter(func(context.Context) error { return nil })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/books", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/books", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/users/password", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "POST, PUT", rec.Header().Get("Allow"))
}
