// Package flyersite fetches deals from flyer-aggregator sites that embed
// flyer identifiers in search-result HTML and serve line items as JSON.
package flyersite

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"grocery-deals/models"
	"grocery-deals/scraper"
	"grocery-deals/services"
	"grocery-deals/utils"
)

var (
	// anchorRe extracts a flyer-name/run-id pair from deep links like
	// /flyers/nofrills-flyer-912345.
	anchorRe = regexp.MustCompile(`/flyers/([a-z0-9-]+?)-(\d+)(?:[/?#]|$)`)
	// blobRes extract the same pair from JSON embedded in the search page.
	// Key names vary between page revisions.
	blobRes = []*regexp.Regexp{
		regexp.MustCompile(`"flyer_name"\s*:\s*"([a-z0-9-]+)"\s*,\s*"flyer_run_id"\s*:\s*(\d+)`),
		regexp.MustCompile(`"name"\s*:\s*"([a-z0-9-]+)"\s*,\s*"run_id"\s*:\s*(\d+)`),
	}
	// isoDateRe pulls the date part out of timestamps like
	// "2025-08-28T00:00:00-04:00".
	isoDateRe = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
	slugRe    = regexp.MustCompile(`[^a-z0-9]+`)
)

// Endpoints configures the flyer aggregator URLs.
type Endpoints struct {
	// SearchURL is the search endpoint; store query parameters are appended.
	SearchURL string
	// ItemsURL is a printf template taking the flyer name and run id.
	ItemsURL string
}

// flyerRef identifies one published flyer run.
type flyerRef struct {
	name  string
	runID int
}

// Fetcher pulls deals for a single store from a flyer-aggregator site.
type Fetcher struct {
	cfg       models.StoreConfig
	endpoints Endpoints
	client    *http.Client
	logger    *utils.Logger
}

// New creates a Fetcher for the given store.
func New(cfg models.StoreConfig, endpoints Endpoints, logger *utils.Logger) *Fetcher {
	return &Fetcher{
		cfg:       cfg,
		endpoints: endpoints,
		client:    scraper.NewHTTPClient(),
		logger:    logger,
	}
}

// Store returns the canonical store name.
func (f *Fetcher) Store() string { return f.cfg.Name }

// Fetch discovers the store's current flyer run from the search page, then
// pulls and normalizes its line items.
func (f *Fetcher) Fetch(ctx context.Context, postalCode string) ([]*models.DealRecord, error) {
	ref, err := f.discoverFlyer(ctx, postalCode)
	if err != nil {
		return nil, fmt.Errorf("flyersite: %s: %w", f.cfg.Slug, err)
	}

	f.logger.Debug("[%s] Using flyer %s (run %d)", f.cfg.Slug, ref.name, ref.runID)

	items, err := f.fetchItems(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("flyersite: %s: %w", f.cfg.Slug, err)
	}

	return f.buildRecords(ref, items), nil
}

func (f *Fetcher) searchURL(postalCode string) string {
	q := url.Values{}
	q.Set("search_term", f.cfg.SearchPhrase)
	for _, c := range f.cfg.Categories {
		q.Add("categories[]", c)
	}
	if f.cfg.NeedsPostalCode && postalCode != "" {
		q.Set("postal_code", postalCode)
	}
	return f.endpoints.SearchURL + "?" + q.Encode()
}

// discoverFlyer finds the flyer-name/run-id pair for the store's current
// campaign in the search-result page.
func (f *Fetcher) discoverFlyer(ctx context.Context, postalCode string) (flyerRef, error) {
	body, err := scraper.Get(ctx, f.client, f.searchURL(postalCode))
	if err != nil {
		return flyerRef{}, err
	}

	candidates := findFlyerCandidates(body)
	if len(candidates) == 0 {
		return flyerRef{}, fmt.Errorf("no flyer found in search results for %q", f.cfg.SearchPhrase)
	}

	return pickFlyerCandidate(candidates, f.cfg.FlyerNames), nil
}

// findFlyerCandidates parses both shapes the search page is known to take:
// anchor deep links and an embedded JSON blob.
func findFlyerCandidates(html []byte) []flyerRef {
	var refs []flyerRef
	seen := map[string]struct{}{}

	add := func(name string, runID int) {
		key := fmt.Sprintf("%s-%d", name, runID)
		if _, dup := seen[key]; dup {
			return
		}
		seen[key] = struct{}{}
		refs = append(refs, flyerRef{name: name, runID: runID})
	}

	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html)); err == nil {
		doc.Find(`a[href*="/flyers/"]`).Each(func(_ int, s *goquery.Selection) {
			href := s.AttrOr("href", "")
			if m := anchorRe.FindStringSubmatch(href); len(m) == 3 {
				if runID, err := strconv.Atoi(m[2]); err == nil {
					add(m[1], runID)
				}
			}
		})
	}

	text := string(html)
	for _, re := range blobRes {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if runID, err := strconv.Atoi(m[2]); err == nil {
				add(m[1], runID)
			}
		}
	}

	return refs
}

// pickFlyerCandidate selects which of the concurrent flyer campaigns to
// fetch. The first candidate matching the store's preferred names wins and
// the remaining matches are ignored; without a preference list the first
// discovered candidate is used. Aggregating all matching campaigns instead
// is a possible future change, kept behind this one function.
func pickFlyerCandidate(candidates []flyerRef, preferred []string) flyerRef {
	for _, want := range preferred {
		for _, c := range candidates {
			if c.name == want || strings.HasPrefix(c.name, want+"-") {
				return c
			}
		}
	}
	return candidates[0]
}

// fetchItems pulls the flyer run's line items. The endpoint has served both
// a bare JSON array and an {"items": [...]} wrapper.
func (f *Fetcher) fetchItems(ctx context.Context, ref flyerRef) ([]map[string]any, error) {
	itemsURL := fmt.Sprintf(f.endpoints.ItemsURL, ref.name, ref.runID)

	body, err := scraper.Get(ctx, f.client, itemsURL)
	if err != nil {
		return nil, err
	}

	var items []map[string]any
	if err := json.Unmarshal(body, &items); err == nil {
		return items, nil
	}

	var wrapper struct {
		Items []map[string]any `json:"items"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return nil, fmt.Errorf("decode items for flyer %s: %w", ref.name, err)
	}
	return wrapper.Items, nil
}

// buildRecords normalizes raw line items into DealRecords, dropping
// anything unparseable or non-grocery.
func (f *Fetcher) buildRecords(ref flyerRef, items []map[string]any) []*models.DealRecord {
	records := make([]*models.DealRecord, 0, len(items))
	seen := map[string]int{}

	for _, item := range items {
		title := scraper.ProbeString(item, "name", "title", "display_name")
		if title == "" {
			continue
		}

		rawPrice, ok := scraper.ProbeValue(item, "current_price", "price", "sale_price", "price_text")
		if !ok {
			continue
		}
		price, unit, ok := resolvePrice(rawPrice)
		if !ok {
			continue
		}

		categoryNames := scraper.ProbeStrings(item, "category_names", "categories")
		if !services.IsGroceryItem(title, categoryNames) {
			continue
		}

		label := scraper.ProbeString(item, "category", "category_name", "department")
		if label == "" && len(categoryNames) > 0 {
			label = strings.Join(categoryNames, " ")
		}

		if unit == "each" {
			if size := scraper.ProbeString(item, "unit", "unit_size", "package_size", "size"); size != "" {
				unit = size
			}
		}

		rec := &models.DealRecord{
			ID:        f.dealID(ref, item, title, seen),
			Title:     title,
			Store:     f.cfg.Name,
			Price:     price,
			Unit:      unit,
			Category:  services.Classify(label, title),
			ImageURL:  scraper.ProbeString(item, "clipping_image_url", "large_image_url", "image_url", "image"),
			ValidFrom: isoDate(scraper.ProbeString(item, "valid_from", "start_date")),
			ValidTo:   isoDate(scraper.ProbeString(item, "valid_to", "end_date")),
		}

		prePrice := scraper.ProbeString(item, "pre_price_text", "original_price", "was_price")
		story := scraper.ProbeString(item, "sale_story", "sale_text", "description")
		if was, ok := services.DeriveWasPrice(price, prePrice, story); ok {
			rec.WasPrice = was
		}

		records = append(records, rec)
	}

	return records
}

// resolvePrice turns the raw current-price value into dollars. Numeric
// values go through cents normalization; unit-price text like "4.99/kg"
// becomes a per-pound figure.
func resolvePrice(raw any) (price float64, unit string, ok bool) {
	switch v := raw.(type) {
	case float64:
		p, ok := services.ParsePrice(v)
		if !ok {
			return 0, "", false
		}
		return services.NormalizeCurrentPrice(p), "each", true
	case string:
		if p, ok := services.ParseUnitPrice(v); ok {
			return p, "lb", true
		}
		p, ok := services.ParsePrice(v)
		return p, "each", ok
	}
	return 0, "", false
}

// dealID derives a stable-within-run identifier. A store may legitimately
// list the same title twice in one flyer run at different sizes or prices,
// so collisions get a counter suffix.
func (f *Fetcher) dealID(ref flyerRef, item map[string]any, title string, seen map[string]int) string {
	base := scraper.ProbeString(item, "id", "item_id", "sku")
	if base == "" {
		base = slugify(title)
	}

	id := fmt.Sprintf("%s-%d-%s", f.cfg.Slug, ref.runID, base)
	n := seen[id]
	seen[id] = n + 1
	if n > 0 {
		id = fmt.Sprintf("%s-%d", id, n)
	}
	return id
}

func slugify(s string) string {
	return strings.Trim(slugRe.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func isoDate(s string) string {
	return isoDateRe.FindString(s)
}
