// Package main starts the CodeWaltz API server. Its only job is reading the
// environment, constructing the top-level dependencies, and handing off to
// internal/server.
//
// Configuration (environment variables):
//
//	PORT                  listen port, default 8080
//	DB_PATH               SQLite file, default data/codewaltz.db
//	DATA_DIR              served assets (avatars), default data
//	JWT_SECRET            session signing secret, required
//	GITHUB_CLIENT_ID      GitHub OAuth app id, optional
//	GITHUB_CLIENT_SECRET  GitHub OAuth app secret, optional
//	GITHUB_CALLBACK_URL   OAuth callback, default derived from PORT
//	SECURE_COOKIES        "1" to mark session cookies Secure (behind HTTPS)
//	ENABLE_RUNNER         "1" to start the Docker snippet runner
package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/codewaltz/codewaltz/internal/runner"
	"github.com/codewaltz/codewaltz/internal/runner/docker"
	"github.com/codewaltz/codewaltz/internal/server"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	port := 8080
	if portStr := os.Getenv("PORT"); portStr != "" {
		var err error
		port, err = strconv.Atoi(portStr)
		if err != nil {
			logger.Error("invalid PORT value", slog.String("value", portStr))
			os.Exit(1)
		}
	}

	dbPath := "data/codewaltz.db"
	if envDB := os.Getenv("DB_PATH"); envDB != "" {
		dbPath = envDB
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		logger.Error("failed to create database directory", slog.String("error", err.Error()))
		os.Exit(1)
	}

	dataDir := "data"
	if envData := os.Getenv("DATA_DIR"); envData != "" {
		dataDir = envData
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET is required (try: openssl rand -hex 32)")
		os.Exit(1)
	}

	githubCallbackURL := os.Getenv("GITHUB_CALLBACK_URL")
	if githubCallbackURL == "" {
		githubCallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", port)
	}

	// The sandbox needs a reachable Docker daemon, so it is opt-in. Without
	// it the API serves everything except snippet execution.
	var run runner.Runner
	if os.Getenv("ENABLE_RUNNER") == "1" {
		dockerRunner, err := docker.New(docker.DefaultConfig(), logger)
		if err != nil {
			logger.Warn("docker runner unavailable — snippet execution disabled",
				slog.String("error", err.Error()),
			)
		} else {
			defer dockerRunner.Close()
			run = dockerRunner
		}
	}

	cfg := server.Config{
		Port:               port,
		DBPath:             dbPath,
		DataDir:            dataDir,
		JWTSecret:          jwtSecret,
		GitHubClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		GitHubClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		GitHubCallbackURL:  githubCallbackURL,
		SecureCookies:      os.Getenv("SECURE_COOKIES") == "1",
	}

	srv, err := server.New(cfg, logger, run)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
