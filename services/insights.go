package services

import (
	"math"
	"sort"

	"grocery-deals/models"
	"grocery-deals/utils"
)

// InsightService computes per-run statistics over an aggregation result.
// Used by the one-shot warm mode to leave a readable trail in scheduler logs.
type InsightService struct {
	logger *utils.Logger
}

// NewInsightService creates an InsightService with the given logger.
func NewInsightService(logger *utils.Logger) *InsightService {
	return &InsightService{logger: logger}
}

// Generate builds a DealReport from the result.
func (s *InsightService) Generate(result *models.AggregationResult) *models.DealReport {
	report := &models.DealReport{
		DealsByStore:    make(map[string]int),
		DealsByCategory: make(map[string]int),
	}
	if result == nil || len(result.Deals) == 0 {
		return report
	}

	report.TotalDeals = len(result.Deals)

	var discounted []*models.DealRecord
	var pctSum float64

	for _, d := range result.Deals {
		report.DealsByStore[d.Store]++
		report.DealsByCategory[d.Category]++

		if d.WasPrice > d.Price && d.WasPrice > 0 {
			discounted = append(discounted, d)
			pctSum += (d.WasPrice - d.Price) / d.WasPrice * 100
		}
	}

	if len(discounted) > 0 {
		report.AvgDiscountPct = math.Round(pctSum/float64(len(discounted))*100) / 100

		sort.Slice(discounted, func(i, j int) bool {
			di := (discounted[i].WasPrice - discounted[i].Price) / discounted[i].WasPrice
			dj := (discounted[j].WasPrice - discounted[j].Price) / discounted[j].WasPrice
			return di > dj
		})
		if len(discounted) > 5 {
			discounted = discounted[:5]
		}
		report.DeepestDiscount = discounted
	}

	return report
}

// Print logs the report.
func (s *InsightService) Print(report *models.DealReport) {
	s.logger.Info("[insights] Total deals: %d", report.TotalDeals)
	s.logger.Info("[insights] Average discount depth: %.2f%%", report.AvgDiscountPct)

	stores := make([]string, 0, len(report.DealsByStore))
	for store := range report.DealsByStore {
		stores = append(stores, store)
	}
	sort.Strings(stores)
	for _, store := range stores {
		s.logger.Info("[insights]   %-28s %d deals", store, report.DealsByStore[store])
	}

	for _, d := range report.DeepestDiscount {
		s.logger.Info("[insights] Deep discount: %s @ %s — $%.2f (was $%.2f)",
			d.Title, d.Store, d.Price, d.WasPrice)
	}
}
