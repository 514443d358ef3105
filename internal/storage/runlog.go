package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/kiasilver/rozegar-sub005/internal/models"
)

// CreateRunLog appends one run-log entry. The log is append-only; entries
// are never updated after ProcessedAt is stamped.
func (c *Client) CreateRunLog(ctx context.Context, entry *models.RunLogEntry) error {
	if err := c.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create run log entry: %w", err)
	}
	return nil
}

// HasRunLogURL reports whether any run-log entry carries the given canonical
// source URL. Full history, no time window.
func (c *Client) HasRunLogURL(ctx context.Context, url string) (bool, error) {
	var count int64
	err := c.db.WithContext(ctx).Model(&models.RunLogEntry{}).
		Where("source_url = ?", url).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check run log by URL: %w", err)
	}
	return count > 0, nil
}

// RunLogTitlesBySource returns the titles of past entries for one source so
// the dedup gate can apply normalized and truncated-title matching in memory.
func (c *Client) RunLogTitlesBySource(ctx context.Context, sourceName string) ([]string, error) {
	var titles []string
	err := c.db.WithContext(ctx).Model(&models.RunLogEntry{}).
		Where("source_name = ?", sourceName).
		Pluck("title", &titles).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load run log titles: %w", err)
	}
	return titles, nil
}

// LastTickerSuccess returns the time of the most recent successful price
// ticker send, or the zero time when none exists.
func (c *Client) LastTickerSuccess(ctx context.Context) (time.Time, error) {
	var entry models.RunLogEntry
	err := c.db.WithContext(ctx).
		Where("marker = ? AND telegram_status = ?", models.TickerMarker, models.ChannelStatusSent).
		Order("created_at DESC").
		Limit(1).
		Find(&entry).Error
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to query last ticker success: %w", err)
	}
	if entry.ID == 0 {
		return time.Time{}, nil
	}
	return entry.CreatedAt, nil
}

// RunLogFilter narrows ListRunLogs. Zero values mean "no filter".
type RunLogFilter struct {
	Channel string // telegram or website
	Status  string // sent, failed, skipped
	Marker  string
	Page    int
	PerPage int
}

// ClampPage normalizes pagination to sane bounds.
func (f *RunLogFilter) ClampPage() (page, perPage int) {
	page = f.Page
	if page < 1 {
		page = 1
	}
	perPage = f.PerPage
	if perPage < 1 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	return page, perPage
}

// ListRunLogs returns run-log entries newest first with the given filter.
func (c *Client) ListRunLogs(ctx context.Context, filter RunLogFilter) ([]models.RunLogEntry, int64, error) {
	q := c.db.WithContext(ctx).Model(&models.RunLogEntry{})

	switch filter.Channel {
	case models.TargetTelegram:
		if filter.Status != "" {
			q = q.Where("telegram_status = ?", filter.Status)
		} else {
			q = q.Where("telegram_status <> ''")
		}
	case models.TargetWebsite:
		if filter.Status != "" {
			q = q.Where("website_status = ?", filter.Status)
		} else {
			q = q.Where("website_status <> ''")
		}
	default:
		if filter.Status != "" {
			q = q.Where("telegram_status = ? OR website_status = ?", filter.Status, filter.Status)
		}
	}
	if filter.Marker != "" {
		q = q.Where("marker = ?", filter.Marker)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count run log entries: %w", err)
	}

	page, perPage := filter.ClampPage()
	var entries []models.RunLogEntry
	err := q.Order("created_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&entries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list run log entries: %w", err)
	}
	return entries, total, nil
}

// CleanupCarPriceLogs deletes car-price run-log entries older than the
// retention window. Returns the number of rows removed.
func (c *Client) CleanupCarPriceLogs(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res := c.db.WithContext(ctx).
		Where("marker = ? AND created_at < ?", models.CarPriceMarker, cutoff).
		Delete(&models.RunLogEntry{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to clean up car price logs: %w", res.Error)
	}
	return res.RowsAffected, nil
}
