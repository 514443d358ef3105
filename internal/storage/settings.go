package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/kiasilver/rozegar-sub005/internal/models"
)

// defaultSettings is returned when the singleton row does not exist yet.
func defaultSettings() *models.Settings {
	return &models.Settings{
		ID:                  1,
		Active:              false,
		CheckInterval:       10 * time.Minute,
		PublishInterval:     5 * time.Minute,
		TelegramEnabled:     true,
		WebsiteEnabled:      true,
		TelegramLength:      models.LengthMedium,
		TelegramTone:        models.ToneReporter,
		WebsiteLength:       models.LengthLong,
		WebsiteTone:         models.ToneReporter,
		CombinedProcessing:  true,
		DefaultProvider:     "gemini",
		CarPriceIntervalHrs: 24,
		TickerHours:         "10,14,18",
		TickerWindowMinutes: 55,
	}
}

// GetSettings loads the automation settings singleton, falling back to
// defaults when the row has never been saved.
func (c *Client) GetSettings(ctx context.Context) (*models.Settings, error) {
	var settings models.Settings
	err := c.db.WithContext(ctx).First(&settings, 1).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return defaultSettings(), nil
		}
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	return &settings, nil
}

// SaveSettings upserts the settings singleton. Validation happens at the
// HTTP boundary before this is called.
func (c *Client) SaveSettings(ctx context.Context, settings *models.Settings) error {
	settings.ID = 1
	if err := c.db.WithContext(ctx).Save(settings).Error; err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
