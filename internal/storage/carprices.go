package storage

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/kiasilver/rozegar-sub005/internal/models"
)

// ReplaceCarPrices swaps a source's price rows inside one transaction.
// A failure anywhere rolls back, leaving the previous rows intact.
func (c *Client) ReplaceCarPrices(ctx context.Context, sourceID uint, prices []models.CarPrice) error {
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("source_id = ?", sourceID).Delete(&models.CarPrice{}).Error; err != nil {
			return fmt.Errorf("delete old prices: %w", err)
		}
		for i := range prices {
			prices[i].SourceID = sourceID
		}
		if len(prices) > 0 {
			if err := tx.CreateInBatches(prices, 100).Error; err != nil {
				return fmt.Errorf("insert new prices: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace car prices for source %d: %w", sourceID, err)
	}
	return nil
}

// ListCarPrices returns the current price rows for one source.
func (c *Client) ListCarPrices(ctx context.Context, sourceID uint) ([]models.CarPrice, error) {
	var prices []models.CarPrice
	err := c.db.WithContext(ctx).
		Where("source_id = ?", sourceID).
		Order("brand ASC, model ASC").
		Find(&prices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list car prices: %w", err)
	}
	return prices, nil
}

// ListAllCarPrices returns every current price row, newest sources first.
// The price ticker uses this for the daily digest.
func (c *Client) ListAllCarPrices(ctx context.Context) ([]models.CarPrice, error) {
	var prices []models.CarPrice
	err := c.db.WithContext(ctx).
		Order("source_id ASC, brand ASC, model ASC").
		Find(&prices).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list all car prices: %w", err)
	}
	return prices, nil
}
