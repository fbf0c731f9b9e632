package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"grocery-deals/models"
	"grocery-deals/utils"
)

// fakeFetcher is a scripted scraper.Fetcher for orchestrator tests.
type fakeFetcher struct {
	name  string
	deals []*models.DealRecord
	err   error
	block bool
	calls int32
}

func (f *fakeFetcher) Store() string { return f.name }

func (f *fakeFetcher) Fetch(ctx context.Context, postalCode string) ([]*models.DealRecord, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.deals, nil
}

func deal(id, store, category string, price float64) *models.DealRecord {
	return &models.DealRecord{ID: id, Title: id, Store: store, Price: price, Unit: "each", Category: category}
}

func newTestAggregator(fetchers []StoreFetcher) *Aggregator {
	return NewAggregator(fetchers, 4, 0, 200*time.Millisecond, utils.NewLogger())
}

func TestNormalizePostalCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"m5v2t6", "M5V2T6"},
		{" M5V 2T6 ", "M5V2T6"},
		{"l6c\t0h3", "L6C0H3"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizePostalCode(tt.in); got != tt.want {
			t.Errorf("NormalizePostalCode(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestAggregateToleratesFailedStores(t *testing.T) {
	agg := newTestAggregator([]StoreFetcher{
		{Fetcher: &fakeFetcher{name: "Metro", deals: []*models.DealRecord{
			deal("metro-1-milk", "Metro", "dairy", 4.99),
			deal("metro-1-bread", "Metro", "bakery", 2.49),
		}}},
		{Fetcher: &fakeFetcher{name: "Sobeys", err: errors.New("connection refused")}},
		{Fetcher: &fakeFetcher{name: "FreshCo", deals: []*models.DealRecord{
			deal("freshco-7-apples", "FreshCo", "produce", 3.99),
		}}},
	})

	result, err := agg.Aggregate(context.Background(), "M5V2T6")
	if err != nil {
		t.Fatalf("Aggregate must not surface per-store failures: %v", err)
	}
	if len(result.Deals) != 3 {
		t.Errorf("expected 3 deals from surviving stores, got %d", len(result.Deals))
	}
	for _, d := range result.Deals {
		if d.Store == "Sobeys" {
			t.Errorf("failed store contributed a record: %+v", d)
		}
	}
}

func TestAggregateTimedOutStoreContributesNothing(t *testing.T) {
	agg := newTestAggregator([]StoreFetcher{
		{Fetcher: &fakeFetcher{name: "Metro", deals: []*models.DealRecord{
			deal("metro-1-milk", "Metro", "dairy", 4.99),
		}}},
		{Fetcher: &fakeFetcher{name: "Slowmart", block: true}},
	})

	start := time.Now()
	result, err := agg.Aggregate(context.Background(), "M5V2T6")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("aggregation took %v; should be bounded by the fetch timeout", elapsed)
	}
	if len(result.Deals) != 1 {
		t.Errorf("expected only the fast store's deal, got %d", len(result.Deals))
	}
}

func TestAggregateAppliesCoarseCategoryGate(t *testing.T) {
	agg := newTestAggregator([]StoreFetcher{
		{Fetcher: &fakeFetcher{name: "Giant Tiger", deals: []*models.DealRecord{
			deal("gt-3-cereal", "Giant Tiger", "pantry", 3.49),
			deal("gt-3-lamp", "Giant Tiger", "other", 19.99),
		}}},
		{Fetcher: &fakeFetcher{name: "Costco", deals: []*models.DealRecord{
			deal("costco-9-rotisserie", "Costco", "deli", 7.99),
			deal("costco-9-mystery", "Costco", "other", 49.99),
		}}, BypassCategoryGate: true},
	})

	result, err := agg.Aggregate(context.Background(), "M5V2T6")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := map[string]bool{}
	for _, d := range result.Deals {
		got[d.ID] = true
	}
	if got["gt-3-lamp"] {
		t.Error("non-grocery category should be gated for regular stores")
	}
	if !got["costco-9-mystery"] {
		t.Error("bypassCategoryGate store should keep all its records")
	}
	if !got["gt-3-cereal"] || !got["costco-9-rotisserie"] {
		t.Error("grocery records should always survive the gate")
	}
}

func TestAggregateDeduplicatesIDs(t *testing.T) {
	dup := deal("metro-1-milk", "Metro", "dairy", 4.99)
	agg := newTestAggregator([]StoreFetcher{
		{Fetcher: &fakeFetcher{name: "Metro", deals: []*models.DealRecord{dup, dup}}},
	})

	result, err := agg.Aggregate(context.Background(), "M5V2T6")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Deals) != 1 {
		t.Errorf("expected duplicate id to be dropped, got %d deals", len(result.Deals))
	}
}

func TestAggregateEnvelope(t *testing.T) {
	agg := newTestAggregator([]StoreFetcher{
		{Fetcher: &fakeFetcher{name: "Zehrs"}},
		{Fetcher: &fakeFetcher{name: "Fortinos"}},
	})

	before := time.Now().UTC()
	result, err := agg.Aggregate(context.Background(), " l6c 0h3 ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.PostalCode != "L6C0H3" {
		t.Errorf("postal code = %q, want normalized L6C0H3", result.PostalCode)
	}
	if len(result.Stores) != 2 || result.Stores[0] != "Fortinos" || result.Stores[1] != "Zehrs" {
		t.Errorf("stores = %v, want sorted roster", result.Stores)
	}
	if result.FetchedAt.Before(before) {
		t.Error("fetchedAt should be the aggregation time")
	}
	if result.Deals == nil {
		t.Error("zero deals is a valid result and must marshal as [], not null")
	}
}
