package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/bryanwahyu/solidity-sec/internal/application"
	appanalysis "github.com/bryanwahyu/solidity-sec/internal/application/analysis"
	"github.com/bryanwahyu/solidity-sec/internal/config"
	domainai "github.com/bryanwahyu/solidity-sec/internal/domain/ai"
	"github.com/bryanwahyu/solidity-sec/internal/domain/analyses"
	"github.com/bryanwahyu/solidity-sec/internal/domain/contracts"
	"github.com/bryanwahyu/solidity-sec/internal/domain/faults"
	"github.com/bryanwahyu/solidity-sec/internal/infra/ai/limit"
	"github.com/bryanwahyu/solidity-sec/internal/infra/ai/ollama"
	"github.com/bryanwahyu/solidity-sec/internal/infra/ai/openaicompat"
	mysqlp "github.com/bryanwahyu/solidity-sec/internal/infra/db/mysql"
	postgresp "github.com/bryanwahyu/solidity-sec/internal/infra/db/postgres"
	"github.com/bryanwahyu/solidity-sec/internal/infra/httpserver"
	minioStore "github.com/bryanwahyu/solidity-sec/internal/infra/storage"
	"github.com/bryanwahyu/solidity-sec/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	// load config
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	ctx := context.Background()

	// connect database per configured driver
	var (
		db           *sql.DB
		contractRepo contracts.Repository
		analysisRepo analyses.Repository
		faultRepo    faults.Repository
	)
	switch cfg.Database.Driver {
	case "postgres":
		db, err = postgresp.Connect(ctx, cfg.PostgresDSN())
		if err != nil {
			log.Fatalf("postgres connect error: %v", err)
		}
		contractRepo = postgresp.NewContractRepository(db)
		analysisRepo = postgresp.NewAnalysisRepository(db)
		faultRepo = postgresp.NewFaultRepository(db)
	default:
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		if err != nil {
			log.Fatalf("mysql connect error: %v", err)
		}
		contractRepo = mysqlp.NewContractRepository(db)
		analysisRepo = mysqlp.NewAnalysisRepository(db)
		faultRepo = mysqlp.NewFaultRepository(db)
	}
	defer db.Close()

	// optional transcript store
	var transcripts analyses.TranscriptStore
	if cfg.Minio.Enabled {
		store, err := minioStore.New(ctx,
			cfg.Minio.Endpoint,
			cfg.Minio.Region,
			cfg.Minio.BucketName,
			cfg.Minio.AccessKey,
			cfg.Minio.SecretKey,
			cfg.Minio.UseSSL,
		)
		if err != nil {
			log.Fatalf("minio init error: %v", err)
		}
		transcripts = store
	}

	// inference clients: one per model service, each behind a global
	// in-flight gate shared across all analyses
	var ollamaPing *ollama.Client
	newClient := func(model string) domainai.Client {
		if cfg.AI.Provider == "openai" {
			return openaicompat.New(cfg.AI.APIKey, model, cfg.AI.Host)
		}
		c := ollama.New(ollama.Config{
			BaseURL: cfg.AI.Host,
			Model:   model,
			Timeout: cfg.RequestTimeout(),
		})
		if ollamaPing == nil {
			ollamaPing = c
		}
		return c
	}
	detectionClient := limit.Wrap(newClient(cfg.AI.DetectionModel), cfg.AI.DetectionInflight)
	explanationClient := limit.Wrap(newClient(cfg.AI.ExplanationModel), cfg.AI.ExplanationInflight)

	clock := application.SystemClock{}

	orch := &appanalysis.Orchestrator{
		Analyses:      analysisRepo,
		Faults:        faultRepo,
		Transcripts:   transcripts,
		Detector:      &appanalysis.DetectionStage{Client: detectionClient},
		Explainer:     &appanalysis.ExplanationStage{Client: explanationClient},
		Clock:         clock,
		TotalTimeout:  cfg.TotalTimeout(),
		ExplainFanout: cfg.Analysis.ExplainFanout,
	}

	svc := &appanalysis.Service{
		Contracts:    contractRepo,
		Analyses:     analysisRepo,
		Orch:         orch,
		Clock:        clock,
		MaxCodeBytes: cfg.MaxCodeBytes(),
	}

	// health checks: database always, inference when using ollama
	checkers := map[string]middleware.HealthChecker{
		"database": &middleware.DatabaseHealthChecker{DB: db},
	}
	if ollamaPing != nil {
		checkers["inference"] = middleware.PingChecker(ollamaPing.Ping)
	}

	// init router
	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}))
	mux.Use(middleware.LoggingMiddleware)
	mux.Use(middleware.MetricsMiddleware)
	mux.Use(middleware.RateLimitMiddleware(cfg.RateLimit.PerMinute, cfg.RateLimit.PerMinute/60+1))
	mux.Get("/healthz", middleware.HealthHandler(checkers))
	mux.Mount("/", httpserver.NewRouter(svc, faultRepo))

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// run server
	go func() {
		log.Printf("server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Println("shutting down server...")

	ctx2, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		log.Printf("shutdown error: %v", err)
	}
}
