package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/paul/wannsee/internal/store/sqlite"
	"github.com/paul/wannsee/pkg/account"
	"github.com/paul/wannsee/pkg/config"
	"github.com/paul/wannsee/pkg/csp"
	"github.com/paul/wannsee/pkg/database"
	"github.com/paul/wannsee/pkg/event"
	"github.com/paul/wannsee/pkg/relayclient"
)

const Version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "Path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	acct, err := account.FromPrivateKeyHex(cfg.PrivateKey)
	if err != nil {
		log.Fatalf("Failed to load account key: %v", err)
	}

	store, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open event store: %v", err)
	}
	defer store.Close()

	db := database.NewWithCapacity(store, cfg.QueueCapacity)
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool := relayclient.NewPool(&relayclient.Options{
		QueueCapacity: cfg.QueueCapacity,
		IngestRate:    cfg.IngestRate,
	})
	defer pool.Close()

	connected := 0
	for _, url := range cfg.Relays {
		if err := pool.Add(ctx, url); err != nil {
			log.Printf("Skipping relay %s: %v", url, err)
			continue
		}
		connected++
	}
	if connected == 0 {
		log.Fatalf("Could not connect to any relay")
	}

	// One subscription covering both directions of the account's
	// direct messages
	pool.Subscribe("dm",
		&event.Filter{
			Kinds: []int{event.KindDirectMessage},
			Tags:  map[string][]string{"p": {acct.PublicKey()}},
		},
		&event.Filter{
			Kinds:   []int{event.KindDirectMessage},
			Authors: []string{acct.PublicKey()},
		},
	)

	// Bridge the merged relay stream into the sync pipeline
	msgs := csp.NewQueue[database.RelayResponse](cfg.QueueCapacity)
	go func() {
		for {
			m, ok := pool.Messages().Pop()
			if !ok {
				msgs.Close()
				return
			}
			if err := msgs.Put(database.RelayResponse{Message: m.Message, RelayURL: m.RelayURL}); err != nil {
				pool.Messages().Close()
				return
			}
		}
	}()

	results := db.SyncNewDirectMessageEvents(ctx, acct, msgs)
	go func() {
		for {
			res, ok := results.Pop()
			if !ok {
				return
			}
			if res.Failure != nil {
				log.Printf("%s", res.Failure)
				continue
			}
			counterpart, err := database.WhoIAmTalkingTo(res.Event, acct.PublicKey())
			if err != nil {
				continue
			}
			log.Printf("Message with %s: %s", counterpart, res.Event.Content)
		}
	}()

	log.Printf("wannsee v%s syncing direct messages for %s from %d relay(s)", Version, acct.PublicKey(), connected)

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Println("Shutting down...")
}
