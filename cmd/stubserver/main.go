// Package main runs an in-memory trail catalog service for local use of the
// client. Every account, hike, route and point is lost on exit.
package main

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/atinyakov/TrailKeeper/internal/certgen"
	"github.com/atinyakov/TrailKeeper/internal/logger"
	"github.com/atinyakov/TrailKeeper/internal/models"
	"github.com/atinyakov/TrailKeeper/internal/remotetest"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

var (
	// version holds the build version set via ldflags.
	version string
	// buildDate holds the build timestamp set via ldflags.
	buildDate string
)

func main() {
	addr := pflag.StringP("addr", "a", ":8080", "listen address")
	level := pflag.String("log-level", "Info", "log level")
	seedEmail := pflag.String("seed-email", "", "create a creator account with this email at startup")
	seedPassword := pflag.String("seed-password", "", "password of the seeded account")
	tlsDir := pflag.String("tls-dir", "", "serve HTTPS with a dev CA kept in this directory")
	hosts := pflag.StringSlice("tls-host", []string{"localhost", "127.0.0.1"}, "names the server certificate is valid for")
	pflag.Parse()

	// Print build metadata (or "N/A" if unset).
	fmt.Printf("Build version: %s\n", cmp.Or(version, "N/A"))
	fmt.Printf("Build date: %s\n", cmp.Or(buildDate, "N/A"))

	// Initialize structured logging.
	log := logger.New()
	defer func() { _ = log.Log.Sync() }()
	if err := log.Init(*level); err != nil {
		log.Log.Fatal("failed to init logger", zap.Error(err))
	}
	zapLogger := log.Log

	stub := remotetest.New(zapLogger)
	if *seedEmail != "" {
		u := stub.AddUser(*seedEmail, *seedPassword, "creator", models.RoleCreator)
		zapLogger.Info("seeded account", zap.String("email", u.Email), zap.String("id", u.ID))
	}

	// The client's default base URL is <host>/api.
	router := chi.NewRouter()
	router.Mount("/api", stub.Handler())
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:              *addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serve := server.ListenAndServe
	if *tlsDir != "" {
		caPath, err := certgen.WriteDevPKI(*tlsDir, *hosts)
		if err != nil {
			zapLogger.Fatal("failed to prepare TLS certificates", zap.Error(err))
		}
		zapLogger.Info("serving HTTPS, start the client with --ca", zap.String("ca", caPath))
		serve = func() error {
			return server.ListenAndServeTLS(
				filepath.Join(*tlsDir, certgen.ServerCertFile),
				filepath.Join(*tlsDir, certgen.ServerKeyFile),
			)
		}
	}

	go func() {
		zapLogger.Info("starting stub catalog server", zap.String("addr", *addr))
		if err := serve(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		zapLogger.Error("shutdown failed", zap.Error(err))
	}
}
