// Package main запускает терминальный интерфейс шага выбора контейнера.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/mmeshcher/skip-selection/internal/catalog"
	"github.com/mmeshcher/skip-selection/internal/config"
	"github.com/mmeshcher/skip-selection/internal/repository"
	"github.com/mmeshcher/skip-selection/internal/selection"
	"github.com/mmeshcher/skip-selection/internal/tui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Parse()
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Терминал занят интерфейсом, поэтому лог пишется в файл
	logCfg := zap.NewProductionConfig()
	logCfg.OutputPaths = []string{filepath.Join(os.TempDir(), "skiptui.log")}
	logger, err := logCfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer logger.Sync()

	var bookings selection.BookingSaver
	if cfg.DatabaseURI != "" {
		repo, err := repository.NewPostgresRepository(cfg.DatabaseURI)
		if err != nil {
			return fmt.Errorf("database initialization error: %w", err)
		}
		defer repo.Close()
		bookings = repo
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := selection.NewStore(catalog.NewClient(cfg.CatalogURL, cfg.FetchTimeout), cfg.Location(), bookings, logger)

	m := tui.NewModel(ctx, store, logger)
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}

	return nil
}
