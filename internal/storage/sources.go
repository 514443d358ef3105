package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kiasilver/rozegar-sub005/internal/models"
)

// ListActiveSources returns active RSS sources ordered by priority, highest
// first.
func (c *Client) ListActiveSources(ctx context.Context) ([]models.Source, error) {
	var sources []models.Source
	err := c.db.WithContext(ctx).
		Where("active = ?", true).
		Order("priority DESC, id ASC").
		Find(&sources).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active sources: %w", err)
	}
	return sources, nil
}

// ListSources returns all RSS sources regardless of state.
func (c *Client) ListSources(ctx context.Context) ([]models.Source, error) {
	var sources []models.Source
	if err := c.db.WithContext(ctx).Order("priority DESC, id ASC").Find(&sources).Error; err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	return sources, nil
}

// ListActiveScrapeSources returns active car-price sources.
func (c *Client) ListActiveScrapeSources(ctx context.Context) ([]models.ScrapeSource, error) {
	var sources []models.ScrapeSource
	err := c.db.WithContext(ctx).
		Where("active = ?", true).
		Order("id ASC").
		Find(&sources).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list active scrape sources: %w", err)
	}
	return sources, nil
}

// GetScrapeSource fetches one car-price source by ID.
func (c *Client) GetScrapeSource(ctx context.Context, id uint) (*models.ScrapeSource, error) {
	var source models.ScrapeSource
	err := c.db.WithContext(ctx).First(&source, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get scrape source %d: %w", id, err)
	}
	return &source, nil
}

// MarkScrapeSuccess resets the error counter and stamps a successful run.
func (c *Client) MarkScrapeSuccess(ctx context.Context, id uint) error {
	now := time.Now()
	err := c.db.WithContext(ctx).Model(&models.ScrapeSource{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_run_at":        now,
			"last_success_at":    now,
			"last_status":        models.ScrapeStatusSuccess,
			"consecutive_errors": 0,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark scrape success for source %d: %w", id, err)
	}
	return nil
}

// MarkScrapeError increments the consecutive-error counter and stamps the
// failed run. Price rows are left untouched.
func (c *Client) MarkScrapeError(ctx context.Context, id uint) error {
	err := c.db.WithContext(ctx).Model(&models.ScrapeSource{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_run_at":        time.Now(),
			"last_status":        models.ScrapeStatusError,
			"consecutive_errors": gorm.Expr("consecutive_errors + 1"),
		}).Error
	if err != nil {
		return fmt.Errorf("failed to mark scrape error for source %d: %w", id, err)
	}
	return nil
}
