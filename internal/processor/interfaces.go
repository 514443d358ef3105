package processor

import (
	"context"

	"github.com/kiasilver/rozegar-sub005/internal/ai"
	"github.com/kiasilver/rozegar-sub005/internal/feed"
	"github.com/kiasilver/rozegar-sub005/internal/models"
	"github.com/kiasilver/rozegar-sub005/internal/publisher"
)

// Store abstracts the storage layer for the ingestion pipeline.
type Store interface {
	GetSettings(ctx context.Context) (*models.Settings, error)
	ListActiveSources(ctx context.Context) ([]models.Source, error)

	HasRunLogURL(ctx context.Context, url string) (bool, error)
	RunLogTitlesBySource(ctx context.Context, sourceName string) ([]string, error)
	CreateRunLog(ctx context.Context, entry *models.RunLogEntry) error

	QueuedLinks(ctx context.Context) (map[string]bool, error)
	EnqueueItem(ctx context.Context, item *models.QueueItem) error
	ClaimNextQueueItem(ctx context.Context) (*models.QueueItem, error)
	FinishQueueItem(ctx context.Context, id uint, succeeded bool) error
}

// Generator abstracts the AI gateway.
type Generator interface {
	Generate(ctx context.Context, defaultProvider, fallbackProvider string, req ai.Request) (*ai.Result, error)
}

// TelegramSender abstracts the Telegram channel.
type TelegramSender interface {
	SendMessage(ctx context.Context, botToken, chatID, text, parseMode string) (string, error)
}

// WebsitePublisher abstracts the website channel.
type WebsitePublisher interface {
	Publish(ctx context.Context, article publisher.Article) (*models.BlogPost, error)
}

// FeedFetcher abstracts feed retrieval.
type FeedFetcher interface {
	Fetch(ctx context.Context, source models.Source) ([]feed.Item, error)
}
