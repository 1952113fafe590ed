package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/gwientjes/wall-cli/internal/app"
	"github.com/gwientjes/wall-cli/internal/config"
	"github.com/gwientjes/wall-cli/internal/storage"
	"github.com/gwientjes/wall-cli/internal/supabase"
	"github.com/gwientjes/wall-cli/internal/tui"
)

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	repo, err := storage.NewRepository(cfg.DBPath)
	if err != nil {
		log.Fatalf("storage init error: %v", err)
	}
	defer repo.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := repo.Init(ctx); err != nil {
		log.Fatalf("storage schema error: %v", err)
	}
	if err := repo.CheckWritable(ctx); err != nil {
		log.Fatalf("storage write check failed (%v). Verify WALL_DB_PATH is writable: %s", err, cfg.DBPath)
	}

	client := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseKey, nil)
	service := app.NewService(client, repo, cfg.AuthorName)

	cached, err := service.ListCached(ctx, app.DefaultCacheLimit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not load cached posts (%v), starting empty\n", err)
		cached = nil
	}

	subscriber := supabase.NewSubscriber(cfg.SupabaseURL, cfg.SupabaseKey)
	subCtx, subCancel := context.WithCancel(context.Background())
	defer subCancel()
	subscriber.Start(subCtx)
	defer subscriber.Close()

	model := tui.NewModel(service, cfg.Profile, cached, subscriber.Posts(), subscriber.Status())

	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		log.Fatalf("tui error: %v", err)
	}
}
