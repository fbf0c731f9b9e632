// Package storefront fetches deals from a structured retailer catalog: a
// REST call resolves the current eflyer for a postal-code prefix, then a
// paginated GraphQL query walks the discounted catalog items.
package storefront

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"grocery-deals/models"
	"grocery-deals/scraper"
	"grocery-deals/services"
	"grocery-deals/utils"
)

var (
	// dateRangeRe parses the human-readable validity window the eflyer
	// endpoint returns, e.g. "Valid 08/28/2025 - 09/03/2025".
	dateRangeRe = regexp.MustCompile(`(\d{2}/\d{2}/\d{4})\s*-\s*(\d{2}/\d{2}/\d{4})`)
	slugRe      = regexp.MustCompile(`[^a-z0-9]+`)
)

const productsQuery = `
query FlyerProducts($flyerId: String!, $categoryId: String!, $page: Int!) {
  flyerCategory(flyerId: $flyerId, categoryId: $categoryId, page: $page) {
    pageInfo { page totalPages }
    products {
      sku
      name
      packageSize
      imageUrl
      pricing { finalPrice regularPrice }
      category { name }
    }
  }
}`

// Config holds the storefront endpoints.
type Config struct {
	StoreName string
	// FlyerURL is the REST endpoint resolving an FSA to the current eflyer.
	FlyerURL string
	// GraphQLURL is the catalog query endpoint.
	GraphQLURL string
	// CategoryID selects the discounted-grocery category to walk.
	CategoryID string
}

// Fetcher pulls deals from the storefront catalog.
type Fetcher struct {
	storeName  string
	storeSlug  string
	flyerURL   string
	graphqlURL string
	categoryID string
	client     *http.Client
	logger     *utils.Logger
}

// New creates a storefront Fetcher.
func New(cfg Config, logger *utils.Logger) *Fetcher {
	return &Fetcher{
		storeName:  cfg.StoreName,
		storeSlug:  strings.Trim(slugRe.ReplaceAllString(strings.ToLower(cfg.StoreName), "-"), "-"),
		flyerURL:   cfg.FlyerURL,
		graphqlURL: cfg.GraphQLURL,
		categoryID: cfg.CategoryID,
		client:     scraper.NewHTTPClient(),
		logger:     logger,
	}
}

// Store returns the canonical store name.
func (f *Fetcher) Store() string { return f.storeName }

// currentFlyer is the REST discovery response. Field names probed loosely;
// the endpoint has renamed them before.
type currentFlyer struct {
	ID        string `json:"id"`
	FlyerID   string `json:"flyerId"`
	DateRange string `json:"dateRange"`
	ValidText string `json:"validText"`
}

func (c currentFlyer) flyerID() string {
	if c.FlyerID != "" {
		return c.FlyerID
	}
	return c.ID
}

func (c currentFlyer) rangeText() string {
	if c.DateRange != "" {
		return c.DateRange
	}
	return c.ValidText
}

// flyerPage is the GraphQL page payload.
type flyerPage struct {
	FlyerCategory struct {
		PageInfo struct {
			Page       int `json:"page"`
			TotalPages int `json:"totalPages"`
		} `json:"pageInfo"`
		Products []struct {
			SKU         string `json:"sku"`
			Name        string `json:"name"`
			PackageSize string `json:"packageSize"`
			ImageURL    string `json:"imageUrl"`
			Pricing     struct {
				FinalPrice   float64 `json:"finalPrice"`
				RegularPrice float64 `json:"regularPrice"`
			} `json:"pricing"`
			Category struct {
				Name string `json:"name"`
			} `json:"category"`
		} `json:"products"`
	} `json:"flyerCategory"`
}

// Fetch resolves the current eflyer for the postal code's FSA and walks
// its discounted items page by page.
func (f *Fetcher) Fetch(ctx context.Context, postalCode string) ([]*models.DealRecord, error) {
	fsa := forwardSortationArea(postalCode)
	if fsa == "" {
		return nil, fmt.Errorf("storefront: %s: postal code %q has no FSA prefix", f.storeName, postalCode)
	}

	flyer, validFrom, validTo, err := f.currentFlyer(ctx, fsa)
	if err != nil {
		return nil, fmt.Errorf("storefront: %s: %w", f.storeName, err)
	}

	var deals []*models.DealRecord
	page, totalPages := 1, 1

	// Page N+1 needs page N's reported total, so this walk is sequential.
	for page <= totalPages {
		data, err := f.execute(ctx, productsQuery, map[string]any{
			"flyerId":    flyer,
			"categoryId": f.categoryID,
			"page":       page,
		})
		if err != nil {
			return nil, fmt.Errorf("storefront: %s: page %d: %w", f.storeName, page, err)
		}

		var pageData flyerPage
		if err := json.Unmarshal(data, &pageData); err != nil {
			return nil, fmt.Errorf("storefront: %s: decode page %d: %w", f.storeName, page, err)
		}

		if tp := pageData.FlyerCategory.PageInfo.TotalPages; tp > 0 {
			totalPages = tp
		}
		f.logger.Debug("[%s] Flyer %s page %d/%d — %d products",
			f.storeSlug, flyer, page, totalPages, len(pageData.FlyerCategory.Products))

		for _, p := range pageData.FlyerCategory.Products {
			rec, ok := f.buildRecord(p.SKU, p.Name, p.PackageSize, p.ImageURL,
				p.Pricing.FinalPrice, p.Pricing.RegularPrice, p.Category.Name,
				validFrom, validTo)
			if ok {
				deals = append(deals, rec)
			}
		}

		page++
	}

	return deals, nil
}

// currentFlyer resolves the eflyer id plus validity window for an FSA.
func (f *Fetcher) currentFlyer(ctx context.Context, fsa string) (id, validFrom, validTo string, err error) {
	endpoint := f.flyerURL + "?" + url.Values{"fsa": {fsa}}.Encode()

	var flyer currentFlyer
	if err := scraper.GetJSON(ctx, f.client, endpoint, &flyer); err != nil {
		return "", "", "", err
	}
	if flyer.flyerID() == "" {
		return "", "", "", fmt.Errorf("no current eflyer for FSA %s", fsa)
	}

	validFrom, validTo = parseDateRange(flyer.rangeText())
	return flyer.flyerID(), validFrom, validTo, nil
}

// buildRecord keeps only genuine discounts: items missing either price, or
// not strictly cheaper than regular, are skipped rather than included as
// non-discounted.
func (f *Fetcher) buildRecord(sku, name, packageSize, imageURL string,
	finalPrice, regularPrice float64, categoryName, validFrom, validTo string) (*models.DealRecord, bool) {

	if name == "" || finalPrice <= 0 || regularPrice <= 0 || finalPrice >= regularPrice {
		return nil, false
	}
	if !services.IsGroceryItem(name, []string{categoryName}) {
		return nil, false
	}

	unit := "each"
	if packageSize != "" {
		unit = packageSize
	}
	if sku == "" {
		sku = name
	}

	return &models.DealRecord{
		ID:        fmt.Sprintf("%s-%s", f.storeSlug, sku),
		Title:     name,
		Store:     f.storeName,
		Price:     finalPrice,
		WasPrice:  regularPrice,
		Unit:      unit,
		Category:  services.Classify(categoryName, name),
		ImageURL:  imageURL,
		ValidFrom: validFrom,
		ValidTo:   validTo,
	}, true
}

// parseDateRange extracts the ISO validity window from a slash-delimited
// human date-range string. Unparseable ranges leave the window absent.
func parseDateRange(s string) (from, to string) {
	m := dateRangeRe.FindStringSubmatch(s)
	if len(m) != 3 {
		return "", ""
	}

	start, err1 := time.Parse("01/02/2006", m[1])
	end, err2 := time.Parse("01/02/2006", m[2])
	if err1 != nil || err2 != nil {
		return "", ""
	}
	return start.Format("2006-01-02"), end.Format("2006-01-02")
}

// forwardSortationArea returns the first three characters of a normalized
// Canadian postal code.
func forwardSortationArea(postalCode string) string {
	if len(postalCode) < 3 {
		return ""
	}
	return postalCode[:3]
}
