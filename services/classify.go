package services

import (
	"regexp"
	"strings"

	"grocery-deals/models"
)

// nonGroceryDeny forces `other` on any match, overriding grocery-sounding
// labels. Flyer aggregators mix full general-merchandise catalogs into
// their grocery sections.
var nonGroceryDeny = []*regexp.Regexp{
	regexp.MustCompile(`furniture|sofa|couch|mattress|recliner|ottoman|dresser|nightstand|bookcase|bed frame|patio set`),
	regexp.MustCompile(`\btv\b|television|laptop|tablet|smartphone|headphone|earbud|speaker|monitor|printer|router|camera|drone`),
	regexp.MustCompile(`apparel|clothing|t-shirt|hoodie|jeans|jacket|sneaker|footwear|pajama|legging`),
	regexp.MustCompile(`appliance|air fryer|microwave|blender|toaster oven|vacuum|dishwasher|refrigerator`),
	regexp.MustCompile(`video game|board game|console|xbox|playstation|nintendo|\blego\b`),
}

type categoryRule struct {
	category string
	re       *regexp.Regexp
}

// groceryRules is scanned in order; first match wins. The combined
// "meat and seafood" department rule sits before the generic per-category
// scan because "seafood" alone would otherwise claim it.
var groceryRules = []categoryRule{
	{models.CategoryMeat, regexp.MustCompile(`meat\s*(?:and|&)\s*seafood`)},
	{models.CategoryProduce, regexp.MustCompile(`produce|fruit|vegetable|salad|herb`)},
	{models.CategorySeafood, regexp.MustCompile(`seafood|fish|salmon|shrimp|lobster|crab|tilapia|cod\b`)},
	{models.CategoryMeat, regexp.MustCompile(`\bmeat\b|beef|pork|chicken|turkey|lamb|sausage|bacon|steak`)},
	{models.CategoryDairy, regexp.MustCompile(`dairy|milk|cheese|yogurt|butter|cream\b|\begg`)},
	{models.CategoryBakery, regexp.MustCompile(`bakery|bread|bagel|\bbun\b|croissant|pastr|muffin|tortilla`)},
	{models.CategoryDeli, regexp.MustCompile(`\bdeli\b|charcuterie|sliced meat|hummus`)},
	{models.CategoryPantry, regexp.MustCompile(`pantry|canned|pasta|\brice\b|cereal|sauce|condiment|spice|baking|flour|\boil\b|soup|peanut butter|\bjam\b`)},
	{models.CategoryFrozen, regexp.MustCompile(`frozen|ice cream|popsicle`)},
	{models.CategorySnacks, regexp.MustCompile(`snack|chip|cracker|candy|chocolate|cookie|granola|popcorn`)},
	{models.CategoryBeverages, regexp.MustCompile(`beverage|drink|juice|soda|\bpop\b|coffee|\btea\b|water|kombucha`)},
}

// genericLabels are placeholders some sources use instead of a real
// department name. Unclassifiable items under these default to pantry —
// in practice most unlabeled grocery items are pantry staples.
var genericLabels = map[string]struct{}{
	"":          {},
	"other":     {},
	"grocery":   {},
	"groceries": {},
	"general":   {},
	"food":      {},
	"market":    {},
}

// Classify maps a source-provided label plus the item's title text to one
// category of the fixed taxonomy. Deterministic and order-sensitive.
func Classify(label, title string) string {
	text := strings.ToLower(label + " " + title)

	for _, re := range nonGroceryDeny {
		if re.MatchString(text) {
			return models.CategoryOther
		}
	}

	for _, rule := range groceryRules {
		if rule.re.MatchString(text) {
			return rule.category
		}
	}

	if _, generic := genericLabels[strings.TrimSpace(strings.ToLower(label))]; generic {
		return models.CategoryPantry
	}
	return models.CategoryOther
}
