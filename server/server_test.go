package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"grocery-deals/models"
	"grocery-deals/services"
	"grocery-deals/storage"
	"grocery-deals/utils"
)

type stubFetcher struct {
	name  string
	deals []*models.DealRecord
}

func (f *stubFetcher) Store() string { return f.name }

func (f *stubFetcher) Fetch(ctx context.Context, postalCode string) ([]*models.DealRecord, error) {
	return f.deals, nil
}

// failingCache makes every refresh fail at the persistence step.
type failingCache struct{}

func (failingCache) Get(postalCode string) (*models.AggregationResult, bool) { return nil, false }
func (failingCache) Put(result *models.AggregationResult) error {
	return errors.New("disk full")
}

func newTestServer(t *testing.T, cache services.ResultCache) *Server {
	t.Helper()
	logger := utils.NewLogger()

	fetcher := &stubFetcher{name: "No Frills", deals: []*models.DealRecord{
		{ID: "nofrills-5-bananas", Title: "Bananas", Store: "No Frills",
			Price: 0.57, Unit: "lb", Category: "produce"},
	}}
	agg := services.NewAggregator([]services.StoreFetcher{{Fetcher: fetcher}}, 2, 0, time.Second, logger)

	if cache == nil {
		fc, err := storage.NewFileCache(t.TempDir(), time.Hour, logger)
		if err != nil {
			t.Fatalf("NewFileCache: %v", err)
		}
		cache = fc
	}
	return New(services.NewDealService(agg, cache, nil, logger), logger)
}

func TestDealsEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/deals?postalCode=m5v+2t6", nil)
	req.Header.Set("Origin", "https://deals.example.com")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body: %s", rec.Code, rec.Body.String())
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Access-Control-Allow-Origin = %q, want *", got)
	}

	var result models.AggregationResult
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("response is not an aggregation result: %v", err)
	}
	if result.PostalCode != "M5V2T6" {
		t.Errorf("postal code = %q, want normalized M5V2T6", result.PostalCode)
	}
	if len(result.Deals) != 1 || result.Deals[0].ID != "nofrills-5-bananas" {
		t.Errorf("deals = %+v", result.Deals)
	}
}

func TestDealsEndpointRequiresPostalCode(t *testing.T) {
	srv := newTestServer(t, nil)

	for _, target := range []string{"/api/deals", "/api/deals?postalCode=%20%20"} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", target, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), "postalCode query parameter is required") {
			t.Errorf("%s: body = %s", target, rec.Body.String())
		}
	}
}

func TestDealsEndpointRefreshFailure(t *testing.T) {
	srv := newTestServer(t, failingCache{})

	req := httptest.NewRequest(http.MethodGet, "/api/deals?postalCode=M5V2T6", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "deal aggregation failed") {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"status":"ok"`) {
		t.Errorf("body = %s", rec.Body.String())
	}
}
