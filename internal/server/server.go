// Package server wires the dependency graph and owns the HTTP lifecycle.
//
// This is the composition root: main hands over a Config and a logger, and
// everything else (store, token service, SSO broker, mail dispatcher,
// service, handlers, routes) is assembled here in one place.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/sakif/auth-service/internal/auth"
	"github.com/sakif/auth-service/internal/config"
	"github.com/sakif/auth-service/internal/handler"
	"github.com/sakif/auth-service/internal/mail"
	"github.com/sakif/auth-service/internal/middleware"
	sqliteRepo "github.com/sakif/auth-service/internal/repository/sqlite"
	"github.com/sakif/auth-service/internal/service"
	"github.com/sakif/auth-service/internal/sso"
	"github.com/sakif/auth-service/internal/token"
)

// mailQueueSize bounds the background send queue; overflow drops sends
// rather than blocking request handlers.
const mailQueueSize = 64

// Server owns the router and the resources that need orderly shutdown:
// the database connection and the mail dispatcher.
type Server struct {
	router     *chi.Mux
	cfg        config.Config
	logger     *slog.Logger
	db         *sqliteRepo.DB
	dispatcher *mail.Dispatcher
}

// New assembles the full dependency chain.
//
// Each layer receives only what it needs: the service gets the repository
// interface rather than the concrete sqlite.DB, the handlers get the
// service rather than the repository.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	tokens, err := token.New(cfg.SecretKey, cfg.AccessTTL(), cfg.RefreshTTL())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating token service: %w", err)
	}

	mailer := mail.NewSMTPMailer(cfg.Mail, cfg.BaseURL)
	dispatcher := mail.NewDispatcher(mailer, logger, mailQueueSize)

	svc := service.NewAuthService(db, tokens, auth.NewPasswordService(), dispatcher, logger)
	broker := sso.NewBroker(cfg)
	authHandler := handler.NewAuthHandler(svc, broker, logger)

	s := &Server{
		router:     chi.NewRouter(),
		cfg:        cfg,
		logger:     logger,
		db:         db,
		dispatcher: dispatcher,
	}
	s.setupRoutes(authHandler, tokens)

	return s, nil
}

// setupRoutes configures middleware and the route table.
//
//	POST /signup                      register a local account
//	GET  /verify-email?token=         confirm the verification link
//	POST /resend-verification         re-send the verification email
//	POST /token                       password grant (form encoded)
//	GET  /users/me                    current account (bearer token)
//	GET  /auth/{provider}/login       redirect to the SSO provider
//	GET  /auth/{provider}/callback    complete the SSO flow
func (s *Server) setupRoutes(h *handler.AuthHandler, tokens *token.Service) {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	s.router.Get("/", h.HandleRoot)
	s.router.Post("/signup", h.HandleSignup)
	s.router.Get("/verify-email", h.HandleVerifyEmail)
	s.router.Post("/resend-verification", h.HandleResendVerification)
	s.router.Post("/token", h.HandleToken)

	s.router.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))
		r.Get("/users/me", h.HandleMe)
	})

	s.router.Route("/auth/{provider}", func(r chi.Router) {
		r.Get("/login", h.HandleSSOLogin)
		r.Get("/callback", h.HandleSSOCallback)
	})
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down in
// order: stop accepting connections, drain in-flight requests (30s),
// flush the mail queue, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	s.dispatcher.Start()
	defer s.dispatcher.Stop()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
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
			slog.Int("port", s.cfg.Port),
			slog.String("database", s.cfg.DatabaseURL),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
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
