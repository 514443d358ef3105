package models

import "time"

// Queue item states.
const (
	QueueStatusPending    = "pending"
	QueueStatusProcessing = "processing"
	QueueStatusDone       = "done"
	QueueStatusFailed     = "failed"
)

// QueueItem is an RSS candidate waiting for its publish slot. The check task
// fills the queue; the publish task pops the oldest pending item once per
// publish interval so the channel is paced instead of flooded.
type QueueItem struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:1024;not null" json:"title"`
	Link         string    `gorm:"size:2048;not null" json:"link"`
	Summary      string    `gorm:"type:text" json:"summary"`
	Content      string    `gorm:"type:text" json:"content"`
	ImageURL     string    `gorm:"size:2048" json:"image_url"`
	SourceID     uint      `gorm:"index" json:"source_id"`
	SourceName   string    `gorm:"size:255" json:"source_name"`
	CategoryID   uint      `json:"category_id"`
	CategoryName string    `gorm:"size:255" json:"category_name"`
	Target       string    `gorm:"size:16" json:"target"`
	Status       string    `gorm:"size:16;default:pending;index" json:"status"`
	PublishedAt  time.Time `json:"published_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (QueueItem) TableName() string { return "news_queue" }
