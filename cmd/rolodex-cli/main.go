// cmd/rolodex-cli is a line-oriented chat with the contact agent. Each line
// read from stdin is one message; each reply is written to stdout.
//
// All logging goes to stderr so stdout carries only replies.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/scrypster/rolodex/internal/app"
	"github.com/scrypster/rolodex/internal/attribution"
	"github.com/scrypster/rolodex/internal/config"
)

func main() {
	log.SetOutput(os.Stderr)
	log.SetPrefix("rolodex-cli: ")
	log.SetFlags(log.LstdFlags)

	userID := flag.String("user", attribution.DetectUser(), "User ID for the chat session")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	a, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize: %v", err)
	}
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
		_ = os.Stdin.Close()
	}()

	if err := run(ctx, a.Engine, *userID, os.Stdin, os.Stdout); err != nil {
		log.Printf("chat ended: %v", err)
	}
}
