package services

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"grocery-deals/models"
	"grocery-deals/scraper"
	"grocery-deals/utils"
)

// StoreFetcher pairs a source adapter with its gating behavior.
type StoreFetcher struct {
	Fetcher scraper.Fetcher
	// BypassCategoryGate keeps the store's items regardless of resolved
	// category (see models.StoreConfig).
	BypassCategoryGate bool
}

// Aggregator fans per-store fetches out concurrently and merges the
// surviving records into one result.
type Aggregator struct {
	fetchers []StoreFetcher
	pool     *utils.WorkerPool
	timeout  time.Duration
	logger   *utils.Logger
}

// NewAggregator creates an Aggregator over the given store fetchers.
func NewAggregator(fetchers []StoreFetcher, maxConcurrency, rateLimitMs int,
	fetchTimeout time.Duration, logger *utils.Logger) *Aggregator {
	return &Aggregator{
		fetchers: fetchers,
		pool:     utils.NewWorkerPool(maxConcurrency, rateLimitMs),
		timeout:  fetchTimeout,
		logger:   logger,
	}
}

// NormalizePostalCode uppercases and strips all whitespace from a raw
// postal code.
func NormalizePostalCode(code string) string {
	return strings.ToUpper(strings.Join(strings.Fields(code), ""))
}

// fetchOutcome is one store's settled result.
type fetchOutcome struct {
	store  string
	bypass bool
	deals  []*models.DealRecord
	err    error
}

// Aggregate runs every configured store fetch concurrently and merges
// whatever succeeded. A store failing or timing out contributes zero
// records and never aborts the batch; zero total deals is a valid result.
func (a *Aggregator) Aggregate(ctx context.Context, postalCode string) (*models.AggregationResult, error) {
	code := NormalizePostalCode(postalCode)

	a.logger.Info("[aggregator] Aggregating deals for %s across %d stores", code, len(a.fetchers))
	start := time.Now()

	outcomes := make([]fetchOutcome, len(a.fetchers))
	var mu sync.Mutex

	for i, sf := range a.fetchers {
		i, sf := i, sf
		a.pool.Submit(func() {
			fetchCtx, cancel := context.WithTimeout(ctx, a.timeout)
			defer cancel()

			deals, err := sf.Fetcher.Fetch(fetchCtx, code)
			mu.Lock()
			outcomes[i] = fetchOutcome{
				store:  sf.Fetcher.Store(),
				bypass: sf.BypassCategoryGate,
				deals:  deals,
				err:    err,
			}
			mu.Unlock()
		})
	}
	a.pool.Wait()

	merged := a.merge(outcomes)

	a.logger.Info("[aggregator] %s done in %v — %d deals", code, time.Since(start).Round(time.Millisecond), len(merged))

	return &models.AggregationResult{
		PostalCode: code,
		Stores:     a.storeNames(),
		FetchedAt:  time.Now().UTC(),
		Deals:      merged,
	}, nil
}

// merge applies the coarse category gate and id dedup across the settled
// per-store outcomes. Failures are logged here, never surfaced.
func (a *Aggregator) merge(outcomes []fetchOutcome) []*models.DealRecord {
	var merged []*models.DealRecord
	ids := utils.NewIDSet()

	for _, o := range outcomes {
		if o.err != nil {
			a.logger.Warn("[aggregator] %s failed: %v", o.store, o.err)
			continue
		}
		a.logger.Debug("[aggregator] %s contributed %d records", o.store, len(o.deals))

		for _, d := range o.deals {
			if !o.bypass && !IsGroceryCategory(d.Category) {
				continue
			}
			if !ids.Add(d.ID) {
				continue
			}
			merged = append(merged, d)
		}
	}

	if merged == nil {
		merged = []*models.DealRecord{}
	}
	return merged
}

// storeNames returns the canonical roster names, sorted.
func (a *Aggregator) storeNames() []string {
	names := make([]string, 0, len(a.fetchers))
	for _, sf := range a.fetchers {
		names = append(names, sf.Fetcher.Store())
	}
	sort.Strings(names)
	return names
}
