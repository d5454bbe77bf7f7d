package main

import (
	"context"
	"net/http"
	"time"

	"tsundoku/internal/auth"
	"tsundoku/internal/book"
	"tsundoku/internal/contact"
	"tsundoku/internal/httpx"
	"tsundoku/internal/metrics"
	"tsundoku/internal/ogp"
	"tsundoku/internal/profile"
	"tsundoku/internal/purchasemedium"
	"tsundoku/internal/reading"
	"tsundoku/internal/session"
	"tsundoku/internal/suggest"
	"tsundoku/internal/user"
)

type handlers struct {
	users    *user.HTTPHandler
	auth     *auth.HTTPHandler
	sessions *session.HTTPHandler
	books    *book.HTTPHandler
	readings *reading.HTTPHandler
	media    *purchasemedium.HTTPHandler
	ogp      *ogp.HTTPHandler
	suggest  *suggest.HTTPHandler
	contact  *contact.HTTPHandler
	profile  *profile.HTTPHandler
}

// newRouter registers every route. The metrics wrapper sits directly around the
// mux so it sees the matched pattern.
func newRouter(h handlers, requireAuth httpx.Middleware, ping func(context.Context) error) http.Handler {
	mux := http.NewServeMux()
	protected := func(f http.HandlerFunc) http.Handler {
		return requireAuth(f)
	}

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
		defer cancel()
		if err := ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("POST /users/register", h.users.RegisterUser)
	mux.HandleFunc("GET /users/confirm", h.users.ConfirmUser)
	mux.HandleFunc("POST /users/confirmation", h.users.ResendConfirmation)
	mux.HandleFunc("POST /users/password", h.users.RequestPasswordReset)
	mux.HandleFunc("PUT /users/password", h.users.ResetPassword)
	mux.HandleFunc("POST /users/login", h.auth.Login)
	mux.HandleFunc("POST /auth/refresh", h.auth.RefreshToken)
	mux.Handle("POST /auth/logout", protected(h.auth.Logout))

	mux.Handle("GET /me", protected(h.users.GetCurrentUser))
	mux.Handle("DELETE /me", protected(h.users.DeleteCurrentUser))
	mux.Handle("GET /me/profile", protected(h.profile.GetOwnProfile))
	mux.Handle("GET /me/sessions", protected(h.sessions.ListSessions))
	mux.Handle("DELETE /me/sessions/{id}", protected(h.sessions.DeleteSession))

	mux.HandleFunc("GET /books", h.books.List)
	mux.HandleFunc("GET /books/search", h.books.Search)
	mux.HandleFunc("GET /books/suggestions", h.books.Suggestions)
	mux.HandleFunc("GET /books/{id}", h.books.Get)
	mux.Handle("POST /books", protected(h.books.Create))
	mux.Handle("POST /books/import", protected(h.books.Import))

	mux.Handle("GET /readings", protected(h.readings.List))
	mux.Handle("POST /readings", protected(h.readings.Create))
	mux.Handle("GET /readings/recommend", protected(h.readings.Recommend))
	mux.Handle("GET /readings/stats", protected(h.readings.Stats))
	mux.Handle("POST /readings/predict-reason", protected(h.suggest.PredictReason))
	mux.Handle("GET /readings/{id}", protected(h.readings.Get))
	mux.Handle("PUT /readings/{id}", protected(h.readings.Update))
	mux.Handle("PATCH /readings/{id}/status", protected(h.readings.ChangeStatus))
	mux.Handle("DELETE /readings/{id}", protected(h.readings.Delete))
	mux.HandleFunc("GET /readings/{id}/ogp.jpg", h.ogp.Image)

	mux.HandleFunc("GET /purchase-media", h.media.List)
	mux.Handle("DELETE /purchase-media/{id}", protected(h.media.Delete))

	mux.HandleFunc("POST /contact", h.contact.Submit)

	return metrics.InstrumentHandler(mux)
}
