package models

import "time"

// Content length presets.
const (
	LengthShort  = "short"
	LengthMedium = "medium"
	LengthLong   = "long"
)

// Content tone presets.
const (
	ToneReporter           = "reporter"
	ToneReporterAnalytical = "reporter_analytical"
	ToneReporterOpinion    = "reporter_opinion"
)

// Settings is the automation configuration singleton. The admin panel writes
// it through this service's settings endpoint; a successful save triggers a
// scheduler restart so stale intervals never survive.
type Settings struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Active               bool          `gorm:"default:false" json:"active"`
	CheckInterval        time.Duration `gorm:"default:600000000000" json:"check_interval" validate:"min=60000000000"`
	PublishInterval      time.Duration `gorm:"default:300000000000" json:"publish_interval" validate:"min=0"`
	TelegramEnabled      bool          `gorm:"default:true" json:"telegram_enabled"`
	WebsiteEnabled       bool          `gorm:"default:true" json:"website_enabled"`
	TelegramLength       string        `gorm:"size:16;default:medium" json:"telegram_length" validate:"oneof=short medium long"`
	TelegramTone         string        `gorm:"size:32;default:reporter" json:"telegram_tone" validate:"oneof=reporter reporter_analytical reporter_opinion"`
	WebsiteLength        string        `gorm:"size:16;default:long" json:"website_length" validate:"oneof=short medium long"`
	WebsiteTone          string        `gorm:"size:32;default:reporter" json:"website_tone" validate:"oneof=reporter reporter_analytical reporter_opinion"`
	CustomPrompt         string        `gorm:"type:text" json:"custom_prompt"`
	RewritePrompt        string        `gorm:"type:text" json:"rewrite_prompt"`
	AddWatermark         bool          `gorm:"default:false" json:"add_watermark"`
	ForceSEO             bool          `gorm:"default:false" json:"force_seo"`
	CombinedProcessing   bool          `gorm:"default:true" json:"combined_processing"`
	DefaultProvider      string        `gorm:"size:32;default:gemini" json:"default_provider" validate:"required"`
	FallbackProvider     string        `gorm:"size:32" json:"fallback_provider"`
	DefaultModel         string        `gorm:"size:64" json:"default_model"`
	TelegramBotToken     string        `gorm:"size:255" json:"telegram_bot_token"`
	TelegramChannelID    string        `gorm:"size:255" json:"telegram_channel_id"`
	SiteURL              string        `gorm:"size:2048" json:"site_url" validate:"omitempty,url"`
	CarPriceIntervalHrs  int           `gorm:"default:24" json:"car_price_interval_hours" validate:"min=1"`
	CarPriceDailyTime    string        `gorm:"size:5" json:"car_price_daily_time" validate:"omitempty,hhmm"`
	TickerEnabled        bool          `gorm:"default:false" json:"ticker_enabled"`
	TickerHours          string        `gorm:"size:64;default:'10,14,18'" json:"ticker_hours" validate:"omitempty,hourlist"`
	TickerWindowMinutes  int           `gorm:"default:55" json:"ticker_duplicate_window_minutes" validate:"min=1"`

	UpdatedAt time.Time `json:"updated_at"`
}

func (Settings) TableName() string { return "automation_settings" }

// TickerWindow returns the duplicate-suppression window for the price ticker.
func (s *Settings) TickerWindow() time.Duration {
	if s.TickerWindowMinutes <= 0 {
		return 55 * time.Minute
	}
	return time.Duration(s.TickerWindowMinutes) * time.Minute
}

// ChannelEnabled reports whether the given delivery target should reach the
// named channel under the current settings.
func (s *Settings) ChannelEnabled(channel, target string) bool {
	switch channel {
	case TargetTelegram:
		return s.TelegramEnabled && (target == TargetTelegram || target == TargetBoth)
	case TargetWebsite:
		return s.WebsiteEnabled && (target == TargetWebsite || target == TargetBoth)
	}
	return false
}
