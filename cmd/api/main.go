// Package main is the entry point for the API server.
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
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/renato-saldanha/talk-to-api/internal/config"
	"github.com/renato-saldanha/talk-to-api/internal/events"
	"github.com/renato-saldanha/talk-to-api/internal/funnel"
	"github.com/renato-saldanha/talk-to-api/internal/handler"
	"github.com/renato-saldanha/talk-to-api/internal/llm"
	"github.com/renato-saldanha/talk-to-api/internal/middleware"
	"github.com/renato-saldanha/talk-to-api/internal/pinecone"
	"github.com/renato-saldanha/talk-to-api/internal/rag"
	"github.com/renato-saldanha/talk-to-api/internal/service"
	"github.com/renato-saldanha/talk-to-api/internal/session"
	"github.com/renato-saldanha/talk-to-api/internal/store"
	"github.com/renato-saldanha/talk-to-api/pkg/logger"
	"github.com/renato-saldanha/talk-to-api/pkg/tracing"
)

func main() {
	// Load .env in development; ignore absence in production
	_ = godotenv.Load()

	cfg := config.Load()

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()
	logger.SetGlobal(log)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", zap.Error(err))
		os.Exit(1)
	}

	log.Info("starting API server")

	ctx := context.Background()

	// Initialize tracing if enabled
	if cfg.TracingEnabled {
		tp, err := tracing.InitTracer(ctx, "talk-to-api", cfg.TracingEndpoint)
		if err != nil {
			log.Warn("failed to initialize tracing", zap.Error(err))
		} else {
			defer tracing.Shutdown(ctx, tp)
		}
	}

	// Connect to PostgreSQL and apply the schema
	pg, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("failed to connect to database", zap.Error(err))
		os.Exit(1)
	}
	defer pg.Close()

	// Initialize the OpenAI client; it always serves embeddings
	openaiClient, err := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAIEmbeddingModel)
	if err != nil {
		log.Error("failed to create OpenAI client", zap.Error(err))
		os.Exit(1)
	}

	// Completions may come from Anthropic when configured
	var completer llm.Completer = openaiClient
	if cfg.AnthropicAPIKey != "" {
		anthropicClient, err := llm.NewAnthropicClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
		if err != nil {
			log.Warn("failed to create Anthropic client, falling back to OpenAI", zap.Error(err))
		} else {
			completer = anthropicClient
		}
	}
	log.Info("completion provider selected", zap.String("provider", completer.Name()))

	// Initialize the vector index client and seed the reference corpus
	pineconeClient, err := pinecone.NewClient(cfg.PineconeAPIKey)
	if err != nil {
		log.Error("failed to create Pinecone client", zap.Error(err))
		os.Exit(1)
	}

	if cfg.PineconeSkipSeed {
		log.Info("skipping index seed")
	} else {
		seeder := rag.NewSeeder(openaiClient, pineconeClient, cfg.PineconeIndex, cfg.PineconeEnvironment, log)
		if err := seeder.Seed(ctx); err != nil {
			log.Error("failed to seed index", zap.Error(err))
			os.Exit(1)
		}
	}

	// Connect to NATS when configured; lead events are optional
	var publisher events.Publisher = events.NopPublisher{}
	var natsPublisher *events.NATSPublisher
	if cfg.NATSURL != "" {
		natsPublisher, err = events.Connect(ctx, cfg.NATSURL, cfg.NATSToken, log)
		if err != nil {
			log.Error("failed to connect to NATS", zap.Error(err))
			os.Exit(1)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
	}

	// Assemble the funnel engine
	oracle := rag.NewOracle(openaiClient, pineconeClient, cfg.PineconeIndex, cfg.QualifiedScoreThreshold, log)
	extractor := funnel.NewExtractor(completer, log)
	generator := funnel.NewGenerator(completer, log)
	engine := funnel.NewEngine(extractor, oracle, generator, log)

	// Initialize services and handlers
	sessions := session.NewPolicy(cfg.SessionExpiryMinutes)
	conversationSvc := service.NewConversationService(pg, engine, sessions, publisher, log)

	healthHandler := handler.NewHealthHandler(pg, pineconeClient, cfg.PineconeIndex)
	conversationHandler := handler.NewConversationHandler(conversationSvc, log)
	adminHandler := handler.NewAdminHandler(conversationSvc, log)

	// Create router
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logging(log))
	r.Use(middleware.SecurityHeaders)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Correlation-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health endpoints
	r.Get("/health", healthHandler.Health)
	r.Get("/ready", healthHandler.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// Public lead API
	r.Route("/api/v1/conversations", func(r chi.Router) {
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Post("/{phoneNumber}/messages", conversationHandler.SubmitMessage)
		r.Get("/{phoneNumber}/status", conversationHandler.GetStatus)
	})

	// Operator API
	r.Route("/api/v1/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))

		r.Get("/conversations", adminHandler.ListConversations)
		r.Get("/conversations/{phoneNumber}", adminHandler.GetTranscript)
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      r,
		ReadTimeout:  cfg.ServerReadTimeout,
		WriteTimeout: cfg.ServerWriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info("server listening", zap.String("port", cfg.ServerPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}
