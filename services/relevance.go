package services

import (
	"strings"

	"grocery-deals/models"
)

// nonGroceryKeywords is the deny-list applied to titles and source
// category names. Substring match on lowercase text; this is the only
// thing keeping a couch or an air fryer out of the grocery deal list.
var nonGroceryKeywords = []string{
	// electronics
	"television", " tv", "tv ", "laptop", "notebook pc", "tablet", "ipad",
	"iphone", "samsung", "smartphone", "headphone", "earbud", "speaker",
	"soundbar", "monitor", "printer", "router", "modem", "camera", "drone",
	"smartwatch", "game console", "xbox", "playstation", "nintendo",
	// furniture
	"furniture", "sofa", "couch", "sectional", "mattress", "recliner",
	"ottoman", "dresser", "nightstand", "bookcase", "bed frame", "futon",
	"patio set", "office chair",
	// small appliances
	"air fryer", "microwave", "blender", "toaster oven", "stand mixer",
	"vacuum", "dishwasher", "refrigerator", "freezer chest", "space heater",
	"humidifier", "coffee maker", "electric kettle",
	// apparel
	"t-shirt", "hoodie", "jeans", "sweatpants", "jacket", "parka",
	"sneaker", "running shoe", "boots", "sandal", "pajama", "legging",
	"underwear", "socks",
	// personal care & household goods
	"shampoo", "conditioner bottle", "deodorant", "toothpaste", "toothbrush",
	"mascara", "lipstick", "razor", "cologne", "perfume", "detergent",
	"bleach", "fabric softener",
	// toys & games
	"lego", "board game", "video game", "action figure", "doll ",
}

// groceryCategories is the coarse-gate set: everything in the taxonomy
// except `other`.
var groceryCategories = map[string]struct{}{
	models.CategoryProduce:   {},
	models.CategoryMeat:      {},
	models.CategorySeafood:   {},
	models.CategoryDairy:     {},
	models.CategoryBakery:    {},
	models.CategoryDeli:      {},
	models.CategoryPantry:    {},
	models.CategoryFrozen:    {},
	models.CategorySnacks:    {},
	models.CategoryBeverages: {},
}

// IsGroceryItem reports whether an item looks like actual grocery
// merchandise. Both the title and any source-provided category names are
// checked against the deny-list.
func IsGroceryItem(title string, categoryNames []string) bool {
	if matchesDenyList(title) {
		return false
	}
	for _, name := range categoryNames {
		if matchesDenyList(name) {
			return false
		}
	}
	return true
}

func matchesDenyList(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range nonGroceryKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// IsGroceryCategory is the coarse gate applied after classification.
// Stores with BypassCategoryGate set skip this check entirely.
func IsGroceryCategory(category string) bool {
	_, ok := groceryCategories[category]
	return ok
}
