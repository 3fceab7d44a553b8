package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/sorashop/backend/config"
	httpDelivery "github.com/sorashop/backend/internal/delivery/http"
	"github.com/sorashop/backend/internal/domain"
	"github.com/sorashop/backend/internal/infrastructure/fetch"
	"github.com/sorashop/backend/internal/infrastructure/openai"
	"github.com/sorashop/backend/internal/infrastructure/storage"
	"github.com/sorashop/backend/internal/usecase"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting SoraShop Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	// Initialize infrastructure dependencies
	fetcher := fetch.NewLayeredFetcher(
		cfg.Ingest.MinContentLength,
		fetch.NewReaderStrategy(cfg.Reader.BaseURL, cfg.Ingest.FetchTimeout),
		fetch.NewDirectStrategy(cfg.Ingest.FetchTimeout, cfg.Ingest.RequestsPerMinute),
	)
	log.Printf("Reader service: %s (fallback: direct fetch, %d req/min)",
		cfg.Reader.BaseURL, cfg.Ingest.RequestsPerMinute)

	completionClient := openai.NewClient(cfg.OpenAI.APIKey, cfg.OpenAI.BaseURL, cfg.OpenAI.Model, cfg.OpenAI.Timeout)
	log.Printf("Completion API: %s (model: %s)", cfg.OpenAI.BaseURL, cfg.OpenAI.Model)

	var store domain.ObjectStore
	if cfg.Storage.Endpoint != "" {
		minioStore, err := storage.NewMinioStore(
			context.Background(),
			cfg.Storage.Endpoint,
			cfg.Storage.AccessKey,
			cfg.Storage.SecretKey,
			cfg.Storage.Bucket,
			cfg.Storage.Region,
			cfg.Storage.UseSSL,
		)
		if err != nil {
			log.Fatalf("Failed to connect to object storage: %v", err)
		}
		store = minioStore
		log.Printf("Object storage: %s (bucket: %s)", cfg.Storage.Endpoint, cfg.Storage.Bucket)
	} else {
		store = storage.NewMemoryStore()
		log.Printf("WARNING: no storage endpoint configured, mirrored images are kept in memory")
	}

	// Initialize usecase layer
	ingestService := usecase.NewIngestService(
		fetcher,
		usecase.NewFieldExtractor(),
		usecase.NewPriceNormalizer(cfg.Ingest.YuanRate),
		usecase.NewDraftAssembler(),
		usecase.NewProductNormalizer(completionClient, cfg.Ingest.ExchangeRate),
		usecase.NewImageMirror(store, cfg.Ingest.FetchTimeout),
	)

	log.Printf("Pricing: 1 USD = %.0f JPY, 1 CNY = %.2f USD", cfg.Ingest.ExchangeRate, cfg.Ingest.YuanRate)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(ingestService, store)

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server listening on %s", addr)

	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}
