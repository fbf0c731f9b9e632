package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"grocery-deals/models"
)

// storesFile is the on-disk shape of the roster file.
type storesFile struct {
	Stores []models.StoreConfig `yaml:"stores"`
}

// LoadStores reads the flyer-aggregator store roster from a YAML file.
// A missing file falls back to the compiled-in default roster; a present
// but unreadable or empty file is an error, since a deliberately
// configured roster should never be silently ignored.
func LoadStores(path string) ([]models.StoreConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultStores(), nil
		}
		return nil, fmt.Errorf("stores: read %q: %w", path, err)
	}

	var f storesFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("stores: parse %q: %w", path, err)
	}
	if len(f.Stores) == 0 {
		return nil, fmt.Errorf("stores: %q contains no store entries", path)
	}

	for i, s := range f.Stores {
		if s.Name == "" || s.Slug == "" {
			return nil, fmt.Errorf("stores: entry %d is missing name or slug", i)
		}
	}

	return f.Stores, nil
}

// DefaultStores returns the built-in flyer-aggregator roster.
func DefaultStores() []models.StoreConfig {
	return []models.StoreConfig{
		{Name: "Walmart", Slug: "walmart", SearchPhrase: "Walmart", Categories: []string{"Groceries"}, FlyerNames: []string{"walmart-supercentre", "walmart"}, NeedsPostalCode: true},
		{Name: "No Frills", Slug: "nofrills", SearchPhrase: "No Frills", FlyerNames: []string{"nofrills", "no-frills-ontario"}, NeedsPostalCode: true},
		{Name: "Food Basics", Slug: "foodbasics", SearchPhrase: "Food Basics", FlyerNames: []string{"foodbasics"}},
		{Name: "FreshCo", Slug: "freshco", SearchPhrase: "FreshCo", FlyerNames: []string{"freshco", "freshco-west"}},
		{Name: "Metro", Slug: "metro", SearchPhrase: "Metro", FlyerNames: []string{"metro-ontario", "metro"}},
		{Name: "Sobeys", Slug: "sobeys", SearchPhrase: "Sobeys", FlyerNames: []string{"sobeys-ontario", "sobeys"}},
		{Name: "Loblaws", Slug: "loblaws", SearchPhrase: "Loblaws", FlyerNames: []string{"loblaws"}},
		{Name: "Zehrs", Slug: "zehrs", SearchPhrase: "Zehrs", FlyerNames: []string{"zehrs"}},
		{Name: "Fortinos", Slug: "fortinos", SearchPhrase: "Fortinos", FlyerNames: []string{"fortinos"}},
		{Name: "Real Canadian Superstore", Slug: "superstore", SearchPhrase: "Real Canadian Superstore", FlyerNames: []string{"realcanadiansuperstore-on", "realcanadiansuperstore"}, NeedsPostalCode: true},
		{Name: "Giant Tiger", Slug: "gianttiger", SearchPhrase: "Giant Tiger", FlyerNames: []string{"gianttiger"}},
		{Name: "Costco", Slug: "costco", SearchPhrase: "Costco", FlyerNames: []string{"costco", "costco-ontario"}, BypassCategoryGate: true},
		{Name: "Shoppers Drug Mart", Slug: "shoppers", SearchPhrase: "Shoppers Drug Mart", Categories: []string{"Food"}, FlyerNames: []string{"shoppersdrugmart"}},
		{Name: "T&T Supermarket", Slug: "tnt", SearchPhrase: "T&T Supermarket", FlyerNames: []string{"tt-supermarket"}},
		{Name: "Farm Boy", Slug: "farmboy", SearchPhrase: "Farm Boy", FlyerNames: []string{"farmboy"}},
		{Name: "Your Independent Grocer", Slug: "independent", SearchPhrase: "Your Independent Grocer", FlyerNames: []string{"yourindependentgrocer"}},
		{Name: "Valu-mart", Slug: "valumart", SearchPhrase: "Valu-mart", FlyerNames: []string{"valumart"}},
	}
}
