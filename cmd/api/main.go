package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"example.com/worklog/internal/adapters"
	"example.com/worklog/internal/api"
	"example.com/worklog/internal/auth"
	"example.com/worklog/internal/config"
	"example.com/worklog/internal/correlate"
	"example.com/worklog/internal/events"
	"example.com/worklog/internal/generate"
	persistence "example.com/worklog/internal/persistence/postgres"
	"example.com/worklog/internal/pipeline"
	"example.com/worklog/internal/prompt"
	"example.com/worklog/internal/rank"
	"example.com/worklog/internal/session"
	httptransport "example.com/worklog/internal/transport/http"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	repo := persistence.NewEntryRepository(pool)
	publisher := events.NewPublisher(cfg.KafkaBrokers)
	defer publisher.Close()

	store := session.NewStore(session.Config{
		TTL:           cfg.SessionTTL,
		SweepInterval: cfg.SessionSweepInterval,
		MaxSessions:   cfg.SessionMaxCount,
	})
	go store.Start(ctx)

	registry := adapters.NewRegistry(adapterConfig(cfg))
	runner := pipeline.NewRunner(registry, rank.New(rank.DefaultWeights()), correlate.New(correlate.DefaultConfig()), store,
		pipeline.WithMaxActivities(cfg.MaxActivities))

	assembler, err := prompt.New()
	if err != nil {
		log.Fatalf("failed to build prompt assembler: %v", err)
	}
	llm := generate.NewHTTPClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel, cfg.LLMTimeout)
	generator := generate.New(llm, assembler, generate.Config{
		Timeout:          cfg.LLMTimeout,
		InputTokenBudget: cfg.InputTokenBudget,
	})

	handler := api.NewHandler(runner, store, generator, repo, publisher)
	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)
	mux.Handle("/metrics", promhttp.Handler())

	// Simple CORS middleware for local dev
	cors := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "http://localhost:5173")
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}

	// Basic request logger
	logger := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log.Printf("%s %s", r.Method, r.URL.Path)
			next.ServeHTTP(w, r)
		})
	}

	authMiddleware := auth.NewMiddleware(auth.Config{Secret: cfg.JWTSecret, Issuer: cfg.JWTIssuer})

	server := httptransport.NewServer(httptransport.ServerConfig{
		Address:     cfg.HTTPAddress,
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}, authMiddleware.Wrap(logger(cors(mux))))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("worklog-service listening on %s", cfg.HTTPAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-shutdownCh
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	store.Wait()
}

// adapterConfig merges configured endpoints over the production defaults.
func adapterConfig(cfg config.Config) adapters.Config {
	out := adapters.DefaultConfig()
	if cfg.GitHubBaseURL != "" {
		out.GitHubBaseURL = cfg.GitHubBaseURL
	}
	if cfg.GitLabBaseURL != "" {
		out.GitLabBaseURL = cfg.GitLabBaseURL
	}
	if cfg.JiraBaseURL != "" {
		out.JiraBaseURL = cfg.JiraBaseURL
	}
	if cfg.SlackBaseURL != "" {
		out.SlackBaseURL = cfg.SlackBaseURL
	}
	if cfg.CalendarBaseURL != "" {
		out.CalendarBaseURL = cfg.CalendarBaseURL
	}
	if cfg.ConfluenceBaseURL != "" {
		out.ConfluenceBaseURL = cfg.ConfluenceBaseURL
	}
	return out
}
