package services

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		label string
		title string
		want  string
	}{
		{"meat and seafood", "", "meat"},
		{"Meat & Seafood", "Weekly specials", "meat"},
		{"", "Fresh Atlantic Salmon Fillet", "seafood"},
		{"produce", "Gala Apples 3lb bag", "produce"},
		{"", "2% Milk 4L", "dairy"},
		{"Bakery", "Whole Wheat Bread", "bakery"},
		{"", "Orange Juice 1.75L", "beverages"},
		{"", "Frozen Pizza", "frozen"},
		{"", "Kettle Cooked Chips", "snacks"},
		{"", "Tomato Pasta Sauce", "pantry"},
		{"Electronics", "55in 4K Television", "other"},
		{"dairy", "Mini Bar Refrigerator", "other"},
		{"Home Decor", "Scented Candle Set", "other"},
		{"grocery", "Mystery Assortment", "pantry"},
		{"", "Mystery Assortment", "pantry"},
		{"food", "Mystery Assortment", "pantry"},
	}

	for _, tt := range tests {
		if got := Classify(tt.label, tt.title); got != tt.want {
			t.Errorf("Classify(%q, %q) = %q; want %q", tt.label, tt.title, got, tt.want)
		}
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	for i := 0; i < 10; i++ {
		if got := Classify("meat and seafood", "department specials"); got != "meat" {
			t.Fatalf("run %d: Classify returned %q, want stable %q", i, got, "meat")
		}
	}
}

func TestClassifyDenyListOverridesGroceryLabel(t *testing.T) {
	// A grocery-sounding label must not rescue general merchandise.
	if got := Classify("pantry", "Air Fryer 5.8QT"); got != "other" {
		t.Errorf("deny-list should force other, got %q", got)
	}
}
