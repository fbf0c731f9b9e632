package flyersite

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"grocery-deals/models"
	"grocery-deals/utils"
)

func testEndpoints(ts *httptest.Server) Endpoints {
	return Endpoints{
		SearchURL: ts.URL + "/en/search_result",
		ItemsURL:  ts.URL + "/flyers/%s/%d/flyer_items.json",
	}
}

const anchorSearchHTML = `<html><body>
<div class="results">
<a href="/flyers/walmart-flyer-441209">Walmart Flyer</a>
<a href="/flyers/nofrills-flyer-912001?auto_clippings=true">No Frills Flyer</a>
</div>
</body></html>`

const nofrillsItemsJSON = `[
  {"id": 9001, "name": "2% Milk 4L", "current_price": 449, "category": "Dairy",
   "valid_from": "2025-08-28T00:00:00-04:00", "valid_to": "2025-09-03T00:00:00-04:00",
   "clipping_image_url": "https://img.example.com/milk.jpg"},
  {"name": "Whole Wheat Bread", "price_text": "$3.99", "sale_story": "save $1", "category_name": "Bakery"},
  {"name": "Chicken Breast", "price": "7.69/kg", "category": "Meat"},
  {"name": "Air Fryer 5.8QT", "current_price": 4999, "category": "Home"},
  {"current_price": 199},
  {"name": "Gift Card", "price_text": "see in store"}
]`

func TestFetchNormalizesFlyerItems(t *testing.T) {
	var searchQuery string

	mux := http.NewServeMux()
	mux.HandleFunc("/en/search_result", func(w http.ResponseWriter, r *http.Request) {
		searchQuery = r.URL.RawQuery
		w.Write([]byte(anchorSearchHTML))
	})
	mux.HandleFunc("/flyers/nofrills-flyer/912001/flyer_items.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(nofrillsItemsJSON))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	cfg := models.StoreConfig{
		Name:            "No Frills",
		Slug:            "nofrills",
		SearchPhrase:    "no frills",
		FlyerNames:      []string{"nofrills-flyer"},
		NeedsPostalCode: true,
	}
	f := New(cfg, testEndpoints(ts), utils.NewLogger())

	deals, err := f.Fetch(context.Background(), "M5V2T6")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if !strings.Contains(searchQuery, "search_term=no+frills") {
		t.Errorf("search query missing search_term: %q", searchQuery)
	}
	if !strings.Contains(searchQuery, "postal_code=M5V2T6") {
		t.Errorf("store requiring a postal code should send it: %q", searchQuery)
	}

	if len(deals) != 3 {
		t.Fatalf("expected 3 normalized deals, got %d: %+v", len(deals), deals)
	}

	byID := map[string]*models.DealRecord{}
	for _, d := range deals {
		byID[d.ID] = d
	}

	milk := byID["nofrills-912001-9001"]
	if milk == nil {
		t.Fatal("milk record missing or mis-keyed")
	}
	if milk.Price != 4.49 {
		t.Errorf("cents-encoded price = %v, want 4.49", milk.Price)
	}
	if milk.Category != "dairy" || milk.Unit != "each" {
		t.Errorf("milk = %s/%s, want dairy/each", milk.Category, milk.Unit)
	}
	if milk.ValidFrom != "2025-08-28" || milk.ValidTo != "2025-09-03" {
		t.Errorf("validity = %s..%s, want date part of the timestamps", milk.ValidFrom, milk.ValidTo)
	}
	if milk.Store != "No Frills" || milk.ImageURL == "" {
		t.Errorf("milk envelope fields wrong: %+v", milk)
	}

	bread := byID["nofrills-912001-whole-wheat-bread"]
	if bread == nil {
		t.Fatal("title-keyed record missing")
	}
	if bread.Price != 3.99 || bread.WasPrice != 4.99 {
		t.Errorf("bread = %v was %v, want 3.99 was 4.99 via save-amount", bread.Price, bread.WasPrice)
	}

	chicken := byID["nofrills-912001-chicken-breast"]
	if chicken == nil {
		t.Fatal("unit-priced record missing")
	}
	if chicken.Price != 3.49 || chicken.Unit != "lb" {
		t.Errorf("per-kg price = %v/%s, want 3.49/lb", chicken.Price, chicken.Unit)
	}
}

func TestFetchEmbeddedBlobAndWrappedItems(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/en/search_result", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><script>window.__DATA__ = {"flyers":[{"flyer_name":"foodbasics","flyer_run_id":777}]}</script></html>`))
	})
	mux.HandleFunc("/flyers/foodbasics/777/flyer_items.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"items":[
			{"name": "Cream Cheese", "price": "2.99"},
			{"name": "Cream Cheese", "price": "4.99"}
		]}`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	cfg := models.StoreConfig{Name: "Food Basics", Slug: "foodbasics", SearchPhrase: "food basics"}
	f := New(cfg, testEndpoints(ts), utils.NewLogger())

	deals, err := f.Fetch(context.Background(), "M5V2T6")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(deals) != 2 {
		t.Fatalf("expected both same-title records, got %d", len(deals))
	}
	if deals[0].ID != "foodbasics-777-cream-cheese" || deals[1].ID != "foodbasics-777-cream-cheese-1" {
		t.Errorf("duplicate titles should get a counter suffix: %q, %q", deals[0].ID, deals[1].ID)
	}
}

func TestFetchNoFlyerFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/en/search_result", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html><body><p>No results for this search.</p></body></html>`))
	})
	ts := httptest.NewServer(mux)
	defer ts.Close()

	cfg := models.StoreConfig{Name: "Metro", Slug: "metro", SearchPhrase: "metro"}
	f := New(cfg, testEndpoints(ts), utils.NewLogger())

	if _, err := f.Fetch(context.Background(), "M5V2T6"); err == nil {
		t.Fatal("expected an error when the search page has no flyer candidates")
	}
}

func TestPickFlyerCandidate(t *testing.T) {
	candidates := []flyerRef{
		{name: "walmart-flyer", runID: 1},
		{name: "metro-flyer", runID: 2},
		{name: "metro-flyer-on", runID: 3},
	}

	tests := []struct {
		name      string
		preferred []string
		want      int
	}{
		{"exact match wins", []string{"metro-flyer"}, 2},
		{"prefix match wins", []string{"metro"}, 2},
		{"later preference still beats position", []string{"missing", "metro-flyer-on"}, 3},
		{"no preference falls back to first", nil, 1},
		{"unmatched preference falls back to first", []string{"sobeys"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := pickFlyerCandidate(candidates, tt.preferred); got.runID != tt.want {
				t.Errorf("pickFlyerCandidate(%v) = run %d, want %d", tt.preferred, got.runID, tt.want)
			}
		})
	}
}
