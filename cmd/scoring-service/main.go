package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/nepcscore/services/live-scoring/internal/cache"
	"github.com/nepcscore/services/live-scoring/internal/config"
	"github.com/nepcscore/services/live-scoring/internal/handlers"
	"github.com/nepcscore/services/live-scoring/internal/ledger"
	"github.com/nepcscore/services/live-scoring/internal/publisher"
	"github.com/nepcscore/services/live-scoring/internal/retry"
	"github.com/nepcscore/services/live-scoring/internal/session"
	"github.com/nepcscore/services/live-scoring/internal/sink"
	"github.com/redis/go-redis/v9"
)

func main() {
	fmt.Println("=== nepCscore Scoring Service ===")

	cfg := config.LoadConfig()
	ctx := context.Background()

	// Connect to Redis
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		fmt.Printf("❌ Failed to parse Redis URL: %v\n", err)
		os.Exit(1)
	}
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		fmt.Printf("❌ Failed to connect to Redis: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Connected to Redis")

	policy := retry.NewPolicy(cfg.Retry.MaxAttempts, cfg.Retry.InitialDelay)

	sinks := sink.NewMulti(
		sink.Named{Name: "stream", Sink: sink.NewRetrying(publisher.NewStreamPublisher(redisClient), policy)},
		sink.Named{Name: "cache", Sink: sink.NewRetrying(cache.NewRedisWriter(redisClient), policy)},
	)

	checks := map[string]handlers.HealthCheck{
		"redis": func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
	}

	// Optional event ledger
	if cfg.LedgerEnabled() {
		db, err := ledger.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			fmt.Printf("❌ Failed to connect to ledger: %v\n", err)
			os.Exit(1)
		}
		defer db.Close()

		l := ledger.New(db)
		if err := l.EnsureSchema(ctx); err != nil {
			fmt.Printf("❌ Failed to prepare ledger schema: %v\n", err)
			os.Exit(1)
		}

		sinks.Add("ledger", sink.NewRetrying(l, policy))
		checks["ledger"] = db.PingContext
		fmt.Println("✓ Connected to event ledger")
	} else {
		fmt.Println("  Event ledger disabled (LEDGER_DSN not set)")
	}

	manager := session.NewManager(sinks)
	handler := handlers.NewHandler(manager, checks)

	// Setup router
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	handler.Routes(r)

	srv := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		fmt.Printf("✓ Scoring service listening on %s (sinks: %d, attempts per write: %d)\n",
			cfg.Server.Addr, sinks.Len(), policy.Attempts())
		fmt.Println("  Endpoints:")
		fmt.Println("    GET    /health")
		fmt.Println("    POST   /api/v1/sessions")
		fmt.Println("    GET    /api/v1/sessions")
		fmt.Println("    GET    /api/v1/sessions/{sessionID}")
		fmt.Println("    DELETE /api/v1/sessions/{sessionID}")
		fmt.Println("    POST   /api/v1/sessions/{sessionID}/runs")
		fmt.Println("    POST   /api/v1/sessions/{sessionID}/wicket")
		fmt.Println("    POST   /api/v1/sessions/{sessionID}/extras")
		fmt.Println("    POST   /api/v1/sessions/{sessionID}/batters")
		fmt.Println("    PUT    /api/v1/sessions/{sessionID}/bowler")

		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		fmt.Printf("❌ Server error: %v\n", err)
		os.Exit(1)

	case sig := <-shutdown:
		fmt.Printf("\n⚠️  Received signal: %v\n", sig)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			fmt.Printf("⚠️  Graceful shutdown failed: %v\n", err)
			if err := srv.Close(); err != nil {
				fmt.Printf("❌ Could not stop server: %v\n", err)
			}
		}
	}

	fmt.Println("✓ Shutdown complete")
}
