package services

import (
	"context"

	"grocery-deals/models"
	"grocery-deals/utils"
)

// ResultCache persists one aggregation result per normalized postal code.
// A Get miss for any reason (absent, expired, corrupt) returns false.
type ResultCache interface {
	Get(postalCode string) (*models.AggregationResult, bool)
	Put(result *models.AggregationResult) error
}

// DealArchiver records aggregation results for price-history analysis.
type DealArchiver interface {
	Archive(result *models.AggregationResult) error
}

// DealService fronts the aggregator with the postal-code cache and the
// optional deal archive. This is the surface both the HTTP handler and the
// one-shot warm mode call.
type DealService struct {
	aggregator *Aggregator
	cache      ResultCache
	archiver   DealArchiver
	logger     *utils.Logger
}

// NewDealService wires the service. archiver may be nil.
func NewDealService(aggregator *Aggregator, cache ResultCache, archiver DealArchiver, logger *utils.Logger) *DealService {
	return &DealService{
		aggregator: aggregator,
		cache:      cache,
		archiver:   archiver,
		logger:     logger,
	}
}

// GetOrRefresh returns the cached aggregation result for the postal code
// while it is still fresh, and otherwise recomputes, persists, and returns
// a new one. Concurrent refreshes for the same code are an accepted
// inefficiency: the cache write is an idempotent full overwrite.
func (s *DealService) GetOrRefresh(ctx context.Context, postalCode string) (*models.AggregationResult, error) {
	code := NormalizePostalCode(postalCode)

	if cached, ok := s.cache.Get(code); ok {
		s.logger.Debug("[deals] Cache hit for %s (%d deals)", code, len(cached.Deals))
		return cached, nil
	}

	result, err := s.aggregator.Aggregate(ctx, code)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Put(result); err != nil {
		return nil, err
	}

	if s.archiver != nil {
		if err := s.archiver.Archive(result); err != nil {
			// History is best-effort; the fresh result is still served.
			s.logger.Warn("[deals] Archive write failed: %v", err)
		}
	}

	return result, nil
}
