package models

import "time"

// Category taxonomy. Every DealRecord carries exactly one of these.
const (
	CategoryProduce   = "produce"
	CategoryMeat      = "meat"
	CategorySeafood   = "seafood"
	CategoryDairy     = "dairy"
	CategoryBakery    = "bakery"
	CategoryDeli      = "deli"
	CategoryPantry    = "pantry"
	CategoryFrozen    = "frozen"
	CategorySnacks    = "snacks"
	CategoryBeverages = "beverages"
	CategoryOther     = "other"
)

// DealRecord is the canonical normalized representation of one discounted
// grocery item. Records are immutable once produced by a fetcher.
type DealRecord struct {
	ID        string  `json:"id"`
	Title     string  `json:"title"`
	Store     string  `json:"store"`
	Price     float64 `json:"price"`
	WasPrice  float64 `json:"wasPrice,omitempty"`
	Unit      string  `json:"unit"`
	Category  string  `json:"category"`
	ImageURL  string  `json:"imageUrl,omitempty"`
	ValidFrom string  `json:"validFrom,omitempty"`
	ValidTo   string  `json:"validTo,omitempty"`
}

// AggregationResult is one full aggregation run for a postal code.
// It is read-only after creation; a refresh produces a new result.
type AggregationResult struct {
	PostalCode string        `json:"postalCode"`
	Stores     []string      `json:"stores"`
	FetchedAt  time.Time     `json:"fetchedAt"`
	Deals      []*DealRecord `json:"deals"`
}

// StoreConfig describes one flyer-aggregator store in the roster.
type StoreConfig struct {
	// Name is the canonical display name used on DealRecords.
	Name string `yaml:"name"`
	// Slug keys derived deal ids and cache-friendly identifiers.
	Slug string `yaml:"slug"`
	// SearchPhrase is the query sent to the flyer aggregator's search endpoint.
	SearchPhrase string `yaml:"searchPhrase"`
	// Categories is the category stack appended to the search query.
	Categories []string `yaml:"categories,omitempty"`
	// FlyerNames lists acceptable flyer-name candidates, in preference order.
	// Sources may run several concurrent campaigns; matching against this
	// list avoids picking up a stale or wrong-store flyer.
	FlyerNames []string `yaml:"flyerNames,omitempty"`
	// NeedsPostalCode marks stores whose search endpoint is postal-code aware.
	NeedsPostalCode bool `yaml:"needsPostalCode,omitempty"`
	// BypassCategoryGate keeps all of a store's items regardless of resolved
	// category. Set for stores whose catalogs do not separate grocery from
	// general merchandise at the category level (currently Costco only —
	// flagged for product-owner review before adding more).
	BypassCategoryGate bool `yaml:"bypassCategoryGate,omitempty"`
}

// DealReport holds per-run statistics over an aggregation result.
type DealReport struct {
	TotalDeals      int
	DealsByStore    map[string]int
	DealsByCategory map[string]int
	AvgDiscountPct  float64
	DeepestDiscount []*DealRecord
}
