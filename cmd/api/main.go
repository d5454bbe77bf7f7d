package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"tsundoku/internal/auth"
	"tsundoku/internal/book"
	"tsundoku/internal/config"
	"tsundoku/internal/contact"
	"tsundoku/internal/httpx"
	"tsundoku/internal/logger"
	"tsundoku/internal/mailer"
	"tsundoku/internal/ogp"
	"tsundoku/internal/platform/googlebooks"
	"tsundoku/internal/profile"
	"tsundoku/internal/purchasemedium"
	"tsundoku/internal/reading"
	"tsundoku/internal/session"
	"tsundoku/internal/suggest"
	"tsundoku/internal/user"
)

const (
	sessionCleanupInterval = time.Hour
	shutdownTimeout        = 10 * time.Second
	contactTimeout         = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		logrus.WithError(err).Error("server stopped")
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	pool, err := openDB(ctx, cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("database %s: %w", cfg.RedactedDSN(), err)
	}
	defer pool.Close()
	log.WithField("dsn", cfg.RedactedDSN()).Info("database connection OK")

	timeout := cfg.Database.Timeout.Duration

	var catalogOpts []googlebooks.Option
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		catalogOpts = append(catalogOpts, googlebooks.WithCache(googlebooks.NewRedisCache(rdb, cfg.Redis.CacheTTL.Duration)))
		log.WithField("addr", cfg.Redis.Addr).Info("search cache enabled")
	}
	catalog := googlebooks.NewClient(cfg.GoogleBooks.APIKey, cfg.GoogleBooks.LangRestrict, cfg.GoogleBooks.RPS, log, catalogOpts...)

	mail, err := mailer.New(cfg.Mail, log)
	if err != nil {
		return fmt.Errorf("mailer: %w", err)
	}
	renderer, err := ogp.NewRenderer(cfg.OGP, log)
	if err != nil {
		return fmt.Errorf("ogp renderer: %w", err)
	}

	users := user.NewService(user.NewPostgresRepo(pool, timeout), mail, cfg.Server.PublicURL, log)
	sessions := session.NewService(session.NewPostgresRepo(pool, timeout), session.NewBlacklistPostgresRepo(pool, timeout), log)
	auths := auth.NewService(cfg.Auth.JWTSecret, users, sessions, log)
	books := book.NewService(book.NewPostgresRepo(pool, timeout), catalog, log)
	readings := reading.NewService(reading.NewPostgresRepo(pool, timeout), cfg.Location(), log)
	media := purchasemedium.NewService(purchasemedium.NewPostgresRepo(pool, timeout), log)
	suggestions := suggest.NewService(suggest.NewOpenAIClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL), cfg.OpenAI.Model, readings, log)
	forwarder := contact.NewForwarder(cfg.Contact, &http.Client{Timeout: contactTimeout}, log)

	h := handlers{
		users:    user.NewHTTPHandler(users, log),
		auth:     auth.NewHTTPHandler(auths, log),
		sessions: session.NewHTTPHandler(sessions, log),
		books:    book.NewHTTPHandler(books, log),
		readings: reading.NewHTTPHandler(readings, log),
		media:    purchasemedium.NewHTTPHandler(media, log),
		ogp:      ogp.NewHTTPHandler(readings, renderer, log),
		suggest:  suggest.NewHTTPHandler(suggestions, log),
		contact:  contact.NewHTTPHandler(forwarder, log),
		profile:  profile.NewHTTPHandler(profile.NewService(users, readings), log),
	}

	proxies, err := httpx.ParseTrustedProxies(cfg.Server.TrustedProxies)
	if err != nil {
		return err
	}

	limiter := httpx.NewRateLimiter(cfg.Server.RateLimitRPS, cfg.Server.RateLimitBurst)
	router := newRouter(h, httpx.AuthMiddleware(cfg.Auth.JWTSecret, sessions), pool.Ping)
	handler := httpx.Chain(router,
		httpx.TrustedProxyMiddleware(proxies),
		httpx.RequestIDMiddleware,
		httpx.RecoveryMiddleware(log),
		httpx.AccessLogMiddleware(log),
		httpx.SecurityHeadersMiddleware(cfg.Server.EnableHSTS),
		httpx.CORSMiddleware(cfg.Server.CORSOrigins),
		httpx.RequestSizeLimitMiddleware(cfg.Server.MaxBodyBytes),
		limiter.Middleware,
	)

	go limiter.Run(ctx)
	go sessions.RunCleanup(ctx, sessionCleanupInterval)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Server.Addr).Info("starting server")
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func openDB(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
