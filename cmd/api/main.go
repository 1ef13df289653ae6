package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"order-matching/internal/api"
	"order-matching/internal/archive"
	"order-matching/internal/engine"
	"order-matching/internal/event"
	"order-matching/internal/logging"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	logger, err := logging.New(os.Getenv("LOG_LEVEL"))
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	bus := event.NewBus(logger)
	arc := archive.New(logger)
	bus.Subscribe(arc)
	eng := engine.New(bus, arc, logger)

	for _, asset := range bootstrapAssets() {
		if _, err := eng.CreateBook(asset); err != nil {
			logger.Fatal("bootstrap book", zap.String("asset", asset), zap.Error(err))
		}
	}

	router := api.NewRouter(eng, logger)
	handler := cors.Default().Handler(router)

	addr := getenv("APP_ADDR", ":8080")
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		logger.Info("server listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

// bootstrapAssets returns the books to pre-create at startup, from the
// comma-separated BOOTSTRAP_ASSETS variable.
func bootstrapAssets() []string {
	raw := os.Getenv("BOOTSTRAP_ASSETS")
	if raw == "" {
		return nil
	}
	var assets []string
	for _, a := range strings.Split(raw, ",") {
		if a = strings.TrimSpace(a); a != "" {
			assets = append(assets, a)
		}
	}
	return assets
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
