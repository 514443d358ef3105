package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kiasilver/rozegar-sub005/internal/models"
)

// CreateTokenUsage records one AI generation attempt.
func (c *Client) CreateTokenUsage(ctx context.Context, usage *models.TokenUsage) error {
	if err := c.db.WithContext(ctx).Create(usage).Error; err != nil {
		return fmt.Errorf("failed to record token usage: %w", err)
	}
	return nil
}

// RecordUsage logs one generation attempt. Failures are logged and swallowed
// so a broken usage table never blocks the pipeline itself.
func (c *Client) RecordUsage(ctx context.Context, provider, model, operation string, inputTokens, outputTokens int, cost float64, succeeded bool, errKind string) {
	usage := &models.TokenUsage{
		Provider:     provider,
		Model:        model,
		Operation:    operation,
		InputTokens:  inputTokens,
		OutputTokens: outputTokens,
		TotalTokens:  inputTokens + outputTokens,
		CostUSD:      cost,
		Succeeded:    succeeded,
		ErrorKind:    errKind,
	}
	if err := c.CreateTokenUsage(ctx, usage); err != nil {
		slog.Error("Failed to record token usage", "provider", provider, "error", err)
	}
}

// UsageSummary aggregates token spend for the stats endpoint.
type UsageSummary struct {
	Provider    string  `json:"provider"`
	TotalTokens int64   `json:"total_tokens"`
	TotalCost   float64 `json:"total_cost_usd"`
	Attempts    int64   `json:"attempts"`
}

// UsageSince aggregates per-provider usage from the given time onward.
func (c *Client) UsageSince(ctx context.Context, since time.Time) ([]UsageSummary, error) {
	var summaries []UsageSummary
	err := c.db.WithContext(ctx).Model(&models.TokenUsage{}).
		Select("provider, SUM(total_tokens) AS total_tokens, SUM(cost_usd) AS total_cost, COUNT(*) AS attempts").
		Where("created_at >= ?", since).
		Group("provider").
		Scan(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate token usage: %w", err)
	}
	return summaries, nil
}
