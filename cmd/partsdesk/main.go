package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"partsdesk/cache"
	"partsdesk/config"
	"partsdesk/engine"
	"partsdesk/market"
	"partsdesk/messaging"
	"partsdesk/store"
	"partsdesk/www"
)

func main() {
	configPath := flag.String("config", "partsdesk.yaml", "path to config file")
	debug := flag.Bool("debug", false, "enable debug logging")
	port := flag.Int("port", 0, "HTTP port (overrides config)")
	flag.Parse()

	if *debug {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *port > 0 {
		cfg.Web.Port = *port
	}
	if cfg.Provider.ID == "" {
		log.Fatal("provider.id must be set in config")
	}

	db, err := store.Open(&cfg.Cache)
	if err != nil {
		log.Fatalf("open cache database: %v", err)
	}
	defer db.Close()

	// Redis is optional; without it warm starts fall back to the local
	// store alone.
	var hot *cache.RedisStore
	if cfg.Redis.Address != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		hot = cache.NewRedisStore(rdb, cfg.Provider.ID)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := hot.Ping(ctx); err != nil {
			log.Printf("redis unavailable, continuing without hot cache: %v", err)
			hot = nil
		}
		cancel()
	}

	client := market.NewClient(cfg.Backend.BaseURL, cfg.Provider.ID, cfg.Provider.APIKey, cfg.Backend.Timeout)

	msgClient := messaging.NewClient(&cfg.Messaging, cfg.ClientID())
	defer msgClient.Close()

	eng := engine.New(engine.Config{
		AppConfig: cfg,
		DB:        db,
		Hot:       hot,
		Client:    client,
		Messaging: msgClient,
	})
	msgClient.SetStatusHandler(eng.BrokerStatusChanged)
	if err := msgClient.Connect(); err != nil {
		log.Printf("messaging connect: %v (notifications disabled, periodic reconcile still runs)", err)
	}
	eng.Start()
	defer eng.Stop()

	router, stopWeb := www.NewRouter(eng, db, cfg.Web.SessionSecret)
	defer stopWeb()

	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	server := &http.Server{Addr: addr, Handler: router}

	go func() {
		log.Printf("partsdesk listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("Shutting down...")

	// Stop SSE event hub first so long-lived connections close
	stopWeb()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("http server shutdown: %v", err)
	}
}
