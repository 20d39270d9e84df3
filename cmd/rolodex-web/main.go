// cmd/rolodex-web serves the contact agent over HTTP and websocket.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/scrypster/rolodex/internal/app"
	"github.com/scrypster/rolodex/internal/backup"
	"github.com/scrypster/rolodex/internal/config"
	"github.com/scrypster/rolodex/internal/connections"
	"github.com/scrypster/rolodex/internal/server"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize: %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	srv := server.New(cfg, a.Engine, a.Store, a.Metrics)
	addr, err := srv.Start(ctx)
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
	log.Printf("Rolodex running at http://%s (storage: %s, llm: %s)", addr, cfg.Storage.StorageEngine, cfg.LLM.LLMProvider)

	if cfg.Storage.StorageEngine == "sqlite" && cfg.Storage.BackupInterval > 0 {
		backups, err := backup.New(backup.Config{
			DBPath:   connections.SQLitePath(cfg.Storage),
			Dir:      filepath.Join(cfg.Storage.DataPath, "backups"),
			Interval: cfg.Storage.BackupInterval,
			Keep:     cfg.Storage.BackupKeep,
		})
		if err != nil {
			log.Fatalf("Failed to initialize backups: %v", err)
		}
		go backups.Run(ctx)
	}

	// Sweep idle sessions on a timer as well as on registry growth.
	go func() {
		ticker := time.NewTicker(cfg.Session.ExpiryAfter)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := a.Memories.Sweep(); n > 0 {
					log.Printf("Swept %d idle sessions", n)
				}
				a.Metrics.SetSessions(a.Memories.Len())
			case <-ctx.Done():
				return
			}
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Println("Shutting down gracefully...")
	cancel()
	time.Sleep(1 * time.Second) // Give time for connections to close
}
