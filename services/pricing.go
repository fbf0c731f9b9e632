package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Pounds per kilogram; used to bring metric unit pricing onto the
// per-pound figures the rest of the pipeline works in.
const poundsPerKg = 2.20462262185

var (
	// numberRe captures the first decimal-or-integer numeric token.
	numberRe = regexp.MustCompile(`\d+(?:\.\d+)?`)
	// saveAmountRe captures "save $X" promotional phrasing.
	saveAmountRe = regexp.MustCompile(`save\s*\$?\s*(\d+(?:\.\d+)?)`)
	// percentOffRe captures "N% off" promotional phrasing.
	percentOffRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%\s*off`)
	// unitPriceRe captures unit-price text like "4.99/kg" or "2.49 / lb".
	unitPriceRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*/\s*(kg|lb)`)
	// controlWordRe matches standalone "was"/"now" control words.
	controlWordRe = regexp.MustCompile(`\b(?:was|now)\b`)
	// percentTokenRe matches "N%" tokens, which are discounts, not prices.
	percentTokenRe = regexp.MustCompile(`\d+(?:\.\d+)?\s*%`)
)

// ParsePrice turns a raw value of unknown shape — number, numeric string,
// or free text with currency symbols and promotional phrasing — into a
// price in dollars. The second return value is false when no price can be
// extracted; callers must drop the record rather than default the price.
func ParsePrice(raw any) (float64, bool) {
	switch v := raw.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return 0, false
		}
		return v, true
	case int:
		if v < 0 {
			return 0, false
		}
		return float64(v), true
	case string:
		return parsePriceText(v)
	}
	return 0, false
}

// parsePriceText extracts the first numeric token after stripping currency
// symbols and promotional control phrases. A phrase like "save $1" or
// "$2 off" never contributes its amount to the parsed value.
func parsePriceText(s string) (float64, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}

	// Promotional phrasing and everything after it is discarded.
	for _, phrase := range []string{"save", "off"} {
		if i := strings.Index(s, phrase); i >= 0 {
			s = s[:i]
		}
	}
	s = controlWordRe.ReplaceAllString(s, " ")
	s = percentTokenRe.ReplaceAllString(s, " ")
	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, "¢", "")

	token := numberRe.FindString(s)
	if token == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// NormalizeCurrentPrice guards against sources that encode $1.29 as 129:
// an integer value in [100, 10000] is interpreted as cents. Anything else
// is already in dollars and passes through unchanged.
func NormalizeCurrentPrice(v float64) float64 {
	if v == math.Trunc(v) && v >= 100 && v <= 10000 {
		return round2(v / 100)
	}
	return v
}

// DeriveWasPrice resolves the pre-discount reference price for a deal,
// trying each derivation in priority order until one yields a value that
// exceeds the current price:
//
//  1. explicit pre-price text, parsed directly
//  2. promotional "sale story" text, parsed directly
//  3. a "save $X" phrase, added to the current price
//  4. an "N% off" phrase, solved algebraically (N must be in (0,100))
//
// Returns false when no derivation succeeds; the reference price is then
// simply absent, never guessed.
func DeriveWasPrice(current float64, prePriceText, saleStory string) (float64, bool) {
	if v, ok := parsePriceText(prePriceText); ok {
		if v = round2(v); v > current {
			return v, true
		}
	}

	if v, ok := parsePriceText(saleStory); ok {
		if v = round2(v); v > current {
			return v, true
		}
	}

	combined := strings.ToLower(prePriceText + " " + saleStory)

	if m := saveAmountRe.FindStringSubmatch(combined); len(m) == 2 {
		if saved, err := strconv.ParseFloat(m[1], 64); err == nil && saved > 0 {
			if v := round2(current + saved); v > current {
				return v, true
			}
		}
	}

	if m := percentOffRe.FindStringSubmatch(combined); len(m) == 2 {
		if pct, err := strconv.ParseFloat(m[1], 64); err == nil && pct > 0 && pct < 100 {
			if v := round2(current / (1 - pct/100)); v > current {
				return v, true
			}
		}
	}

	return 0, false
}

// ParseUnitPrice converts unit-price text like "4.99/kg" to a per-pound
// figure. One upstream source mixes metric and imperial unit pricing;
// "/lb" values pass through unchanged. Returns false when the text does
// not carry a recognizable unit price.
func ParseUnitPrice(s string) (float64, bool) {
	m := unitPriceRe.FindStringSubmatch(strings.ToLower(s))
	if len(m) != 3 {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	if m[2] == "kg" {
		return round2(v / poundsPerKg), true
	}
	return round2(v), true
}

// round2 rounds to 2 decimal places. Applied only at the point a value is
// derived, so floating-point drift never compounds through the chain.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
