// Command churnstub serves canned churn analysis replies so the client can be
// exercised without the real agent service.
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

	"github.com/csheth/churnscout/internal/logging"
	"github.com/csheth/churnscout/internal/stub"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "churnstub:", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("churnstub", flag.ContinueOnError)
	addr := fs.String("addr", "127.0.0.1:8000", "listen address")
	fixturePath := fs.String("fixture", "", "YAML fixture file (defaults to the built-in demo)")
	allowOrigin := fs.String("allow-origin", "", "CORS origin to allow, empty disables CORS")
	logLevel := fs.String("log-level", "info", "log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	logger, closer, err := logging.New(logging.Config{File: logging.Stderr, Level: *logLevel, Console: true})
	if err != nil {
		return err
	}
	defer closer.Close()

	fixture, err := stub.LoadFixture(*fixturePath)
	if err != nil {
		return err
	}

	handler := stub.NewServer(stub.Config{
		Fixture:       fixture,
		Logger:        logger,
		AllowedOrigin: *allowOrigin,
	})
	srv := &http.Server{
		Addr:              *addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", *addr).Int("routes", len(fixture.Routes)).Msg("stub listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info().Msg("shutting down")
	return srv.Shutdown(shutdownCtx)
}
