// Package server is the composition root of the HTTP API: it opens the
// database, builds services and handlers, and mounts the routes.
//
// DEPENDENCY FLOW:
//
//	config.Config → server.New:
//	  sqlite.DB → AccountService, ScheduleService → handlers → chi routes
//
// Each layer only receives what it needs. Services get repository
// interfaces, handlers get services.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/postmuse/internal/auth"
	"github.com/sakif/postmuse/internal/clock"
	"github.com/sakif/postmuse/internal/config"
	"github.com/sakif/postmuse/internal/handler"
	"github.com/sakif/postmuse/internal/middleware"
	sqliteRepo "github.com/sakif/postmuse/internal/repository/sqlite"
	"github.com/sakif/postmuse/internal/service"
)

// Server owns the router and the database connection, which is closed on
// shutdown.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB

	accounts  *service.AccountService
	schedule  *service.ScheduleService
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	clock     clock.Clock
	zone      clock.Zone
}

// Option customises a Server. Tests use them to pin the clock or lower the
// bcrypt cost.
type Option func(*Server)

func WithClock(c clock.Clock) Option {
	return func(s *Server) { s.clock = c }
}

func WithPasswordService(p *auth.PasswordService) Option {
	return func(s *Server) { s.passwords = p }
}

// New opens the database, seeds the configured admin and wires the routes.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger, opts ...Option) (*Server, error) {
	zone, err := cfg.Zone()
	if err != nil {
		return nil, err
	}
	tokens, err := auth.NewTokenService(cfg.JWT.Secret, cfg.JWT.TTL)
	if err != nil {
		return nil, fmt.Errorf("configuring tokens: %w", err)
	}

	db, err := sqliteRepo.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router:    chi.NewRouter(),
		config:    cfg,
		logger:    logger,
		db:        db,
		tokens:    tokens,
		passwords: auth.NewPasswordService(),
		clock:     clock.Real{},
		zone:      zone,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.accounts = service.NewAccountService(db, s.passwords, tokens, cfg.Usage.UserLimit, logger)
	s.schedule = service.NewScheduleService(db, db, zone, cfg.PlatformSet(), logger)

	if err := s.seedAdmin(ctx); err != nil {
		db.Close()
		return nil, err
	}

	s.setupRoutes()
	return s, nil
}

func (s *Server) seedAdmin(ctx context.Context) error {
	email, password := s.config.Admin.Email, s.config.Admin.Password
	if email == "" || password == "" {
		return nil
	}
	created, err := s.accounts.EnsureAdmin(ctx, email, password)
	if err != nil {
		return fmt.Errorf("seeding admin: %w", err)
	}
	if created {
		s.logger.Info("admin account created", slog.String("email", email))
	}
	return nil
}

// setupRoutes mounts:
//
//	GET    /healthz
//	POST   /auth/register | /auth/login | /auth/logout
//	GET    /api/me                     POST /api/usage
//	GET    /api/platforms
//	GET    /api/posts                  POST /api/posts
//	DELETE /api/posts/{id}
//	GET    /api/admin/users            POST /api/admin/users
//	PATCH  /api/admin/users/{email}    DELETE /api/admin/users/{email}
//	GET    /api/admin/posts            DELETE /api/admin/posts/{id}
//
// Middleware order: RequestID, RealIP, Logger, Recoverer. Recoverer sits
// inside Logger so a panic is still logged as a 500.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	authHandler := handler.NewAuthHandler(s.accounts, s.tokens.TTL(), s.logger)
	postHandler := handler.NewPostHandler(s.schedule, s.clock, s.zone, s.logger)
	adminHandler := handler.NewAdminHandler(s.accounts, s.schedule, s.logger)

	s.router.Get("/healthz", handler.HandleHealth(s.db, s.logger))

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
	})

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(s.tokens))

		r.Get("/me", authHandler.HandleMe)
		r.Post("/usage", authHandler.HandleUsage)
		r.Get("/platforms", postHandler.HandlePlatforms)

		r.Get("/posts", postHandler.HandleList)
		r.Post("/posts", postHandler.HandleCreate)
		r.Delete("/posts/{id}", postHandler.HandleDelete)

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireAdmin(s.accounts))

			r.Get("/users", adminHandler.HandleListUsers)
			r.Post("/users", adminHandler.HandleCreateUser)
			r.Patch("/users/{email}", adminHandler.HandleUpdateUser)
			r.Delete("/users/{email}", adminHandler.HandleDeleteUser)
			r.Get("/posts", adminHandler.HandleListPosts)
			r.Delete("/posts/{id}", adminHandler.HandleDeletePost)
		})
	})
}

// Handler exposes the router, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the database.
func (s *Server) Close() error {
	return s.db.Close()
}

// Start serves until SIGINT/SIGTERM, then drains in-flight requests for up
// to 30 seconds and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Server.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Server.Port)),
			slog.String("database", s.config.Database.Path),
			slog.String("timezone", s.zone.Location().String()),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
