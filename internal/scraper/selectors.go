package scraper

import (
	"encoding/json"
	"fmt"
	"os"
)

// SelectorConfig drives price extraction from a rendered listing page.
// Listing sites shuffle their markup often enough that keeping the selectors
// in data instead of code lets an operator patch them without a redeploy.
type SelectorConfig struct {
	PriceList ListSelectors `json:"price_list"`
}

type ListSelectors struct {
	// RowStrategies are tried in order until one matches at least one row.
	RowStrategies []string     `json:"row_strategies"`
	Elements      ListElements `json:"elements"`
}

type ListElements struct {
	Title   string `json:"title"`
	Details string `json:"details"`
	Price   string `json:"price"`
	Change  string `json:"change"`
}

// LoadSelectors loads the selector configuration from the specified JSON file.
func LoadSelectors(path string) (SelectorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return SelectorConfig{}, fmt.Errorf("failed to read selector config file: %w", err)
	}

	return LoadSelectorsFromBytes(data)
}

// LoadSelectorsFromBytes parses selector configuration from raw JSON bytes.
// This supports loading from embedded data via go:embed.
func LoadSelectorsFromBytes(data []byte) (SelectorConfig, error) {
	var config SelectorConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return SelectorConfig{}, fmt.Errorf("failed to parse selector config JSON: %w", err)
	}

	return config, nil
}

// DefaultSelectors returns the fallback configuration if no JSON file is loaded.
func DefaultSelectors() SelectorConfig {
	return SelectorConfig{
		PriceList: ListSelectors{
			RowStrategies: []string{
				"div[tabindex='1']",
				".bama-ad-holder, .inventory-item, .car-list-item",
				"a[href*='/price/']",
			},
			Elements: ListElements{
				Title:   "span.text-base.font-semibold",
				Details: ".pr-4.flex.flex-row.flex-wrap",
				Price:   ".text-title-medium",
				Change:  "span[dir='ltr']",
			},
		},
	}
}
