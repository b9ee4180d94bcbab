// Package server is the composition root: it opens the database, builds the
// avatar store, wires repositories into services and services into
// handlers, and lays out every route. main stays minimal; everything that
// connects one layer to another happens here.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/codewaltz/codewaltz/internal/auth"
	"github.com/codewaltz/codewaltz/internal/handler"
	"github.com/codewaltz/codewaltz/internal/middleware"
	sqliteRepo "github.com/codewaltz/codewaltz/internal/repository/sqlite"
	"github.com/codewaltz/codewaltz/internal/runner"
	"github.com/codewaltz/codewaltz/internal/service"
	"github.com/codewaltz/codewaltz/internal/storage"
)

// Config holds everything the server needs from the environment.
type Config struct {
	Port   int
	DBPath string
	// DataDir holds served assets; avatars live in DataDir/avatars.
	DataDir string
	// JWTSecret signs session tokens. Required.
	JWTSecret string
	// GitHub OAuth app credentials. All three empty disables GitHub sign-in.
	GitHubClientID     string
	GitHubClientSecret string
	GitHubCallbackURL  string
	// SecureCookies marks session cookies Secure; set behind HTTPS.
	SecureCookies bool
}

// Server owns the router and the resources that need closing on shutdown.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New opens the database and wires every layer. run may be nil; the run
// endpoints then answer 503.
func New(cfg Config, logger *slog.Logger, run runner.Runner) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("server: JWT secret is required")
	}

	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(run); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}
	return s, nil
}

// Handler exposes the configured router, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.router }

// Close releases the server's resources without going through Start.
func (s *Server) Close() error { return s.db.Close() }

func (s *Server) setupRoutes(run runner.Runner) error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return err
	}

	var github *auth.GitHubProvider
	if s.config.GitHubClientID != "" && s.config.GitHubClientSecret != "" {
		github = auth.NewGitHubProvider(
			s.config.GitHubClientID,
			s.config.GitHubClientSecret,
			s.config.GitHubCallbackURL,
		)
	} else {
		s.logger.Warn("GitHub OAuth not configured — github sign-in disabled")
	}

	avatarStore, err := storage.NewAvatarStore(filepath.Join(s.config.DataDir, "avatars"))
	if err != nil {
		return err
	}

	// services: every one is handed interfaces, never the concrete DB type
	passwords := auth.NewPasswordService()
	authService := service.NewAuthService(s.db, passwords, s.logger)
	snippetService := service.NewSnippetService(s.db, s.db, s.db, s.logger)
	commentService := service.NewCommentService(s.db, s.db, s.db, s.logger)
	avatarService := service.NewAvatarService(avatarStore, s.db, s.db, s.logger)

	authHandler := handler.NewAuthHandler(authService, github, tokens, s.config.SecureCookies, s.logger)
	snippetHandler := handler.NewSnippetHandler(snippetService, s.logger)
	commentHandler := handler.NewCommentHandler(commentService, s.logger)
	avatarHandler := handler.NewAvatarHandler(avatarService, s.logger)
	runHandler := handler.NewRunHandler(snippetService, run, s.logger)

	// avatar bytes are public assets
	avatarFS := http.FileServer(http.Dir(avatarStore.Dir()))
	s.router.Handle("/avatars/*", http.StripPrefix("/avatars/", avatarFS))

	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandler.HandleRegister)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		r.Get("/github/login", authHandler.HandleGitHubLogin)
		r.Get("/github/callback", authHandler.HandleGitHubCallback)
	})

	s.router.Route("/api", func(r chi.Router) {
		// reads and reactions work anonymously; reactions dedupe on the
		// client id header when no session is present
		r.Group(func(r chi.Router) {
			r.Use(auth.OptionalAuth(tokens))
			r.Get("/snippets", snippetHandler.HandleList)
			r.Get("/snippets/{id}", snippetHandler.HandleGet)
			r.Post("/snippets/{id}/like", snippetHandler.HandleLike)
			r.Post("/snippets/{id}/share", snippetHandler.HandleShare)
			r.Get("/snippets/{id}/comments", commentHandler.HandleList)
			r.Get("/snippets/{id}/comments/count", commentHandler.HandleCount)
			r.Get("/users/{id}/avatar", avatarHandler.HandleGet)
			r.Get("/run/languages", runHandler.HandleLanguages)
		})

		// mutations require a session
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth(tokens))
			r.Post("/snippets", snippetHandler.HandleCreate)
			r.Put("/snippets/{id}", snippetHandler.HandleUpdate)
			r.Delete("/snippets/{id}", snippetHandler.HandleDelete)
			r.Delete("/snippets", snippetHandler.HandleDeleteAll)
			r.Post("/snippets/{id}/run", runHandler.HandleRun)
			r.Post("/snippets/{id}/comments", commentHandler.HandleCreate)
			r.Get("/me", authHandler.HandleMe)
			r.Patch("/me", authHandler.HandleUpdateMe)
			r.Post("/me/avatar", avatarHandler.HandleUpload)
		})
	})

	return nil
}

// Start runs the server until SIGINT/SIGTERM, then shuts down gracefully:
// stop accepting connections, drain in-flight requests, close the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
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
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
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
