package models

import "time"

// Per-channel outcome states recorded in the run log.
const (
	ChannelStatusSent    = "sent"
	ChannelStatusFailed  = "failed"
	ChannelStatusSkipped = "skipped"
)

// TickerMarker tags run-log rows produced by the price ticker so the
// duplicate-window query can find the last successful send.
const TickerMarker = "DAILY_PRICES"

// CarPriceMarker tags run-log rows produced by car-price scrape runs.
const CarPriceMarker = "CAR_PRICES"

// RunLogEntry is the append-only record of one processed item. It doubles as
// the dedup oracle: an item whose URL or normalized title already appears
// here is never processed again.
type RunLogEntry struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Title         string    `gorm:"size:1024;not null;index" json:"title"`
	SourceURL     string    `gorm:"size:2048;index" json:"source_url"`
	SourceName    string    `gorm:"size:255" json:"source_name"`
	CategoryID    uint      `json:"category_id"`
	CategoryName  string    `gorm:"size:255" json:"category_name"`
	Target        string    `gorm:"size:16" json:"target"`
	Marker        string    `gorm:"size:32;index" json:"marker,omitempty"`

	TelegramStatus    string `gorm:"size:16" json:"telegram_status"`
	TelegramError     string `gorm:"type:text" json:"telegram_error,omitempty"`
	TelegramMessageID string `gorm:"size:64" json:"telegram_message_id,omitempty"`

	WebsiteStatus string `gorm:"size:16" json:"website_status"`
	WebsiteError  string `gorm:"type:text" json:"website_error,omitempty"`
	BlogPostID    uint   `json:"blog_post_id,omitempty"`
	BlogSlug      string `gorm:"size:512" json:"blog_slug,omitempty"`

	TokensUsed int     `json:"tokens_used"`
	CostUSD    float64 `json:"cost_usd"`

	CreatedAt   time.Time  `gorm:"index" json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at"`
}

func (RunLogEntry) TableName() string { return "news_logs" }

// Succeeded reports whether at least one channel delivered.
func (e *RunLogEntry) Succeeded() bool {
	return e.TelegramStatus == ChannelStatusSent || e.WebsiteStatus == ChannelStatusSent
}
