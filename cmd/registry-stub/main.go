// Command registry-stub serves the token registry GraphQL API from a
// fixture file for local development.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KunalBagaria/tokengate/internal/observability"
	"github.com/KunalBagaria/tokengate/internal/registrystub"
	"go.uber.org/zap"
)

func main() {
	addr := flag.String("addr", envOrDefault("REGISTRY_STUB_ADDR", ":8081"), "listen address")
	fixtures := flag.String("fixtures", envOrDefault("REGISTRY_STUB_FIXTURES", "cmd/registry-stub/fixtures.example.json"), "fixture file")
	flag.Parse()

	logger, err := observability.NewLogger(envOrDefault("LOG_LEVEL", "info"), os.Getenv("LOG_FORMAT"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, logger, *addr, *fixtures); err != nil {
		logger.Error("registry stub exited", zap.Error(err))
		os.Exit(1)
	}
}

func newHandler(path string) (http.Handler, *registrystub.Fixtures, error) {
	f, err := registrystub.LoadFixtures(path)
	if err != nil {
		return nil, nil, err
	}
	h, err := registrystub.NewHandler(f)
	if err != nil {
		return nil, nil, err
	}
	return h, f, nil
}

func run(ctx context.Context, logger *zap.Logger, addr, path string) error {
	h, f, err := newHandler(path)
	if err != nil {
		return err
	}

	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 5 * time.Second}
	errc := make(chan error, 1)
	go func() {
		logger.Info("registry stub listening",
			zap.String("addr", addr),
			zap.String("fixtures", path),
			zap.Int("projects", len(f.Projects)))
		errc <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
