package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dhruvprajapati002/PassGuard/internal/platform"
	"github.com/dhruvprajapati002/PassGuard/internal/server"
)

func main() {
	logger := log.New(os.Stdout, "[passguardd] ", log.LstdFlags|log.Lshortfile)

	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		logger.Println("loaded .env")
	}

	if err := platform.DisableCoreDumps(); err != nil {
		logger.Printf("could not disable core dumps: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := server.FromEnv()
	srv, err := server.New(ctx, cfg)
	if err != nil {
		logger.Fatalf("startup: %v", err)
	}

	httpSrv := &http.Server{
		Addr:              srv.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Printf("listening on %s", httpSrv.Addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		logger.Println("shutting down")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("serve: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("shutdown: %v", err)
	}
	if err := srv.Close(shutdownCtx); err != nil {
		logger.Printf("mongo disconnect: %v", err)
	}
}
