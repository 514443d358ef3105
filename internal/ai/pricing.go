package ai

import (
	"strings"
	"unicode/utf8"
)

// modelPrice holds USD cost per million tokens.
type modelPrice struct {
	inputPerM  float64
	outputPerM float64
}

// pricing tables per provider. Models not listed fall back to the provider's
// "default" row so cost tracking never silently drops an attempt.
var pricing = map[string]map[string]modelPrice{
	"gemini": {
		"gemini-2.5-flash": {inputPerM: 0.30, outputPerM: 2.50},
		"gemini-2.5-pro":   {inputPerM: 1.25, outputPerM: 10.00},
		"gemini-2.0-flash": {inputPerM: 0.10, outputPerM: 0.40},
		"default":          {inputPerM: 0.30, outputPerM: 2.50},
	},
	"openai": {
		"gpt-4o":      {inputPerM: 2.50, outputPerM: 10.00},
		"gpt-4o-mini": {inputPerM: 0.15, outputPerM: 0.60},
		"default":     {inputPerM: 0.15, outputPerM: 0.60},
	},
	"openrouter": {
		"default": {inputPerM: 0.20, outputPerM: 0.80},
	},
}

// Cost computes the USD cost of one attempt.
func Cost(provider, model string, inputTokens, outputTokens int) float64 {
	table, ok := pricing[provider]
	if !ok {
		return 0
	}
	price, ok := table[strings.ToLower(model)]
	if !ok {
		price = table["default"]
	}
	return float64(inputTokens)/1e6*price.inputPerM + float64(outputTokens)/1e6*price.outputPerM
}

// EstimateTokens approximates a token count when the provider omits usage
// metadata. Roughly four characters per token; counted in runes so
// multi-byte Persian text doesn't inflate the estimate.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text) / 4
	if n == 0 && text != "" {
		return 1
	}
	return n
}
