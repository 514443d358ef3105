package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/kiasilver/rozegar-sub005/internal/models"
)

// EnqueueItem adds an RSS candidate to the publish queue.
func (c *Client) EnqueueItem(ctx context.Context, item *models.QueueItem) error {
	item.Status = models.QueueStatusPending
	if err := c.db.WithContext(ctx).Create(item).Error; err != nil {
		return fmt.Errorf("failed to enqueue item: %w", err)
	}
	return nil
}

// QueuedLinks returns the links of items currently waiting or processing so
// the check task doesn't enqueue the same article twice within one cycle.
func (c *Client) QueuedLinks(ctx context.Context) (map[string]bool, error) {
	var links []string
	err := c.db.WithContext(ctx).Model(&models.QueueItem{}).
		Where("status IN ?", []string{models.QueueStatusPending, models.QueueStatusProcessing}).
		Pluck("link", &links).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load queued links: %w", err)
	}
	set := make(map[string]bool, len(links))
	for _, l := range links {
		set[l] = true
	}
	return set, nil
}

// ClaimNextQueueItem atomically moves the oldest pending item to processing
// and returns it. Returns models.ErrNotFound when the queue is empty.
func (c *Client) ClaimNextQueueItem(ctx context.Context) (*models.QueueItem, error) {
	var item models.QueueItem
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", models.QueueStatusPending).
			Order("created_at ASC").
			First(&item).Error
		if err != nil {
			return err
		}
		return tx.Model(&item).Update("status", models.QueueStatusProcessing).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, fmt.Errorf("failed to claim queue item: %w", err)
	}
	return &item, nil
}

// FinishQueueItem marks a claimed item done or failed.
func (c *Client) FinishQueueItem(ctx context.Context, id uint, succeeded bool) error {
	status := models.QueueStatusDone
	if !succeeded {
		status = models.QueueStatusFailed
	}
	err := c.db.WithContext(ctx).Model(&models.QueueItem{}).
		Where("id = ?", id).
		Update("status", status).Error
	if err != nil {
		return fmt.Errorf("failed to finish queue item %d: %w", id, err)
	}
	return nil
}

// PendingQueueCount reports how many items await their publish slot.
func (c *Client) PendingQueueCount(ctx context.Context) (int64, error) {
	var count int64
	err := c.db.WithContext(ctx).Model(&models.QueueItem{}).
		Where("status = ?", models.QueueStatusPending).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count pending queue items: %w", err)
	}
	return count, nil
}
