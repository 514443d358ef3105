package models

import (
	"errors"
	"time"
)

// ErrNotFound is returned by storage lookups when no row matches.
var ErrNotFound = errors.New("record not found")

// Delivery targets for a processed item.
const (
	TargetTelegram = "telegram"
	TargetWebsite  = "website"
	TargetBoth     = "both"
)

// Source is an RSS feed the automation polls. Rows are owned by the admin
// panel; this service only reads them and updates health counters.
type Source struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:255;not null" json:"name" validate:"required"`
	FeedURL      string    `gorm:"size:2048;not null" json:"feed_url" validate:"required,url"`
	CategoryID   uint      `gorm:"index" json:"category_id"`
	CategoryName string    `gorm:"size:255" json:"category_name"`
	Target       string    `gorm:"size:16;default:both" json:"target" validate:"oneof=telegram website both"`
	Priority     int       `gorm:"default:0" json:"priority"`
	Active       bool      `gorm:"default:true;index" json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Source) TableName() string { return "rss_sources" }

// Scrape source health states.
const (
	ScrapeStatusPending = "pending"
	ScrapeStatusSuccess = "success"
	ScrapeStatusError   = "error"
)

// maxConsecutiveScrapeErrors is where retries stop until an operator or the
// next global run intervenes.
const MaxConsecutiveScrapeErrors = 5

// ScrapeSource is a car-price listing page scraped on a schedule.
type ScrapeSource struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Name              string     `gorm:"size:255;not null" json:"name" validate:"required"`
	URL               string     `gorm:"size:2048;not null" json:"url" validate:"required,url"`
	ScheduleTime      string     `gorm:"size:5" json:"schedule_time" validate:"omitempty,hhmm"`
	SendToTelegram    bool       `gorm:"default:false" json:"send_to_telegram"`
	Active            bool       `gorm:"default:true;index" json:"active"`
	LastRunAt         *time.Time `json:"last_run_at"`
	LastSuccessAt     *time.Time `json:"last_success_at"`
	LastStatus        string     `gorm:"size:16;default:pending" json:"last_status"`
	ConsecutiveErrors int        `gorm:"default:0" json:"consecutive_errors"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

func (ScrapeSource) TableName() string { return "car_price_sources" }

// Degraded reports whether the source has hit the consecutive-error ceiling
// and should be surfaced to the operator.
func (s *ScrapeSource) Degraded() bool {
	return s.ConsecutiveErrors >= MaxConsecutiveScrapeErrors
}
