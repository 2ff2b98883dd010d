// Package main запускает HTTP-сервер шага выбора контейнера.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/skip-selection/internal/catalog"
	"github.com/mmeshcher/skip-selection/internal/config"
	"github.com/mmeshcher/skip-selection/internal/handler"
	"github.com/mmeshcher/skip-selection/internal/repository"
	"github.com/mmeshcher/skip-selection/internal/selection"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	// Без DATABASE_URI черновик бронирования не сохраняется
	var repo *repository.PostgresRepository
	var bookings selection.BookingSaver
	if cfg.DatabaseURI != "" {
		repo, err = repository.NewPostgresRepository(cfg.DatabaseURI)
		if err != nil {
			sugar.Fatalw("database initialization error", "error", err.Error())
		}
		defer repo.Close()
		bookings = repo
	}

	client := catalog.NewClient(cfg.CatalogURL, cfg.FetchTimeout)
	store := selection.NewStore(client, cfg.Location(), bookings, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	h := handler.NewHandler(ctx, store, logger)
	if repo != nil {
		h.WithBookings(repo)
	}

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Каталог загружается сразу при старте, как при открытии шага в браузере
	store.RequestCatalog(ctx)

	g.Go(func() error {
		sugar.Infow("starting skip selection server",
			"addr", cfg.RunAddress,
			"postcode", cfg.Postcode,
			"area", cfg.Area,
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
