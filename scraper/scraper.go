// Package scraper defines the per-source fetcher contract and the
// field-probing helpers shared by all source adapters.
package scraper

import (
	"context"
	"fmt"
	"math"
	"strings"

	"grocery-deals/models"
)

// Fetcher pulls the current deals for one store. Implementations return
// partial or empty results without error; an error means the source was
// fatally unreachable for this run.
type Fetcher interface {
	Store() string
	Fetch(ctx context.Context, postalCode string) ([]*models.DealRecord, error)
}

// Upstream sources are schema-fragile: the same logical value appears
// under different key names across stores and across silent upstream
// deploys. Each logical field is therefore read through an ordered
// candidate-key list, first successfully-parsed value wins.

// ProbeValue returns the first non-nil value found under any candidate key.
func ProbeValue(item map[string]any, keys ...string) (any, bool) {
	for _, key := range keys {
		if v, ok := item[key]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// ProbeString returns the first non-empty string found under any candidate
// key. Numeric values are formatted, so "id": 4821 probes as "4821".
func ProbeString(item map[string]any, keys ...string) string {
	for _, key := range keys {
		v, ok := item[key]
		if !ok || v == nil {
			continue
		}
		switch s := v.(type) {
		case string:
			if trimmed := strings.TrimSpace(s); trimmed != "" {
				return trimmed
			}
		case float64:
			if s == math.Trunc(s) {
				return fmt.Sprintf("%d", int64(s))
			}
			return fmt.Sprintf("%v", s)
		}
	}
	return ""
}

// ProbeStrings returns the first non-empty string slice found under any
// candidate key. Sources emit category-name arrays as []any of strings.
func ProbeStrings(item map[string]any, keys ...string) []string {
	for _, key := range keys {
		raw, ok := item[key]
		if !ok {
			continue
		}
		list, ok := raw.([]any)
		if !ok {
			continue
		}
		var out []string
		for _, v := range list {
			if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}
