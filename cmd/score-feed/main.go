package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nepcscore/services/live-scoring/internal/cache"
	"github.com/nepcscore/services/live-scoring/internal/config"
	"github.com/nepcscore/services/live-scoring/internal/consumer"
	"github.com/nepcscore/services/live-scoring/internal/handlers"
	"github.com/nepcscore/services/live-scoring/internal/hub"
	"github.com/redis/go-redis/v9"
)

func main() {
	fmt.Println("🚀 Starting live score feed...")

	cfg := config.LoadConfig()

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		fmt.Printf("❌ Failed to parse Redis URL: %v\n", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)

	if err := redisClient.Ping(ctx).Err(); err != nil {
		fmt.Printf("❌ Failed to connect to Redis: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Connected to Redis")

	h := hub.NewHub()
	go h.Run(ctx)

	streamConsumer := consumer.NewStreamConsumer(redisClient, h, cfg.Stream)
	go streamConsumer.Start(ctx)

	// Pass the root context so viewer connections outlive the upgrade request
	feed := handlers.NewFeedHandler(ctx, h, cache.NewRedisWriter(redisClient))

	mux := http.NewServeMux()
	feed.Routes(mux)

	server := &http.Server{
		Addr:    cfg.Server.FeedAddr,
		Handler: mux,
	}

	go func() {
		fmt.Printf("✓ Live feed listening on %s\n", cfg.Server.FeedAddr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Printf("❌ Server error: %v\n", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\n🛑 Shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		fmt.Printf("⚠️  Server shutdown error: %v\n", err)
	}

	redisClient.Close()

	fmt.Println("✓ Shutdown complete")
}
