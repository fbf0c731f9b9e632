package main

import (
	"context"
	"os"
	"time"

	"grocery-deals/config"
	"grocery-deals/scraper/flyersite"
	"grocery-deals/scraper/storefront"
	"grocery-deals/server"
	"grocery-deals/services"
	"grocery-deals/storage"
	"grocery-deals/utils"
)

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== Grocery deal aggregator starting ===")
	logger.Info("Config — concurrency: %d | fetch timeout: %ds | cache TTL: %dm",
		cfg.MaxConcurrency, cfg.FetchTimeoutSec, cfg.CacheTTLMinutes)

	stores, err := config.LoadStores(cfg.StoresFile)
	if err != nil {
		logger.Error("Failed to load store roster: %v", err)
		os.Exit(1)
	}
	logger.Info("Store roster: %d flyer stores + %s", len(stores), cfg.StorefrontName)

	endpoints := flyersite.Endpoints{
		SearchURL: cfg.FlyerSearchURL,
		ItemsURL:  cfg.FlyerItemsURL,
	}

	fetchers := make([]services.StoreFetcher, 0, len(stores)+1)
	for _, store := range stores {
		fetchers = append(fetchers, services.StoreFetcher{
			Fetcher:            flyersite.New(store, endpoints, logger),
			BypassCategoryGate: store.BypassCategoryGate,
		})
	}
	fetchers = append(fetchers, services.StoreFetcher{
		Fetcher: storefront.New(storefront.Config{
			StoreName:  cfg.StorefrontName,
			FlyerURL:   cfg.StorefrontFlyerURL,
			GraphQLURL: cfg.StorefrontGraphQLURL,
			CategoryID: cfg.StorefrontCategoryID,
		}, logger),
	})

	aggregator := services.NewAggregator(fetchers, cfg.MaxConcurrency, cfg.RateLimitMs,
		time.Duration(cfg.FetchTimeoutSec)*time.Second, logger)

	cache, err := storage.NewFileCache(cfg.CacheDir,
		time.Duration(cfg.CacheTTLMinutes)*time.Minute, logger)
	if err != nil {
		logger.Error("Failed to initialize cache: %v", err)
		os.Exit(1)
	}

	var archiver services.DealArchiver
	if cfg.ArchiveEnabled {
		pgWriter, err := storage.NewPostgresWriter(cfg.DSN(), logger)
		if err != nil {
			logger.Error("Failed to connect to PostgreSQL: %v", err)
			os.Exit(1)
		}
		defer pgWriter.Close()
		archiver = pgWriter
		logger.Info("Deal archive enabled (table: deal_history)")
	}

	deals := services.NewDealService(aggregator, cache, archiver, logger)

	if cfg.RunOnce {
		runOnce(deals, cfg.WarmPostalCode, logger)
		return
	}

	logger.Info("Listening on %s", cfg.ListenAddr)
	if err := server.New(deals, logger).Start(cfg.ListenAddr); err != nil {
		logger.Error("Server stopped: %v", err)
		os.Exit(1)
	}
}

// runOnce performs exactly one aggregation for the configured postal code
// and exits 0/1 — used for scheduled cache warming.
func runOnce(deals *services.DealService, postalCode string, logger *utils.Logger) {
	logger.Info("One-shot mode: warming cache for %s", postalCode)

	result, err := deals.GetOrRefresh(context.Background(), postalCode)
	if err != nil {
		logger.Error("One-shot aggregation failed: %v", err)
		os.Exit(1)
	}

	insights := services.NewInsightService(logger)
	insights.Print(insights.Generate(result))

	logger.Info("Cache warmed for %s — %d deals", result.PostalCode, len(result.Deals))
}
