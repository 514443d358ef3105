package prices

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kiasilver/rozegar-sub005/internal/config"
	"github.com/kiasilver/rozegar-sub005/internal/models"
	"github.com/kiasilver/rozegar-sub005/internal/scraper"
)

const carPriceLogRetention = 3 * 24 * time.Hour

// CarPriceStore is the storage surface car-price runs need.
type CarPriceStore interface {
	GetSettings(ctx context.Context) (*models.Settings, error)
	ListActiveScrapeSources(ctx context.Context) ([]models.ScrapeSource, error)
	GetScrapeSource(ctx context.Context, id uint) (*models.ScrapeSource, error)
	MarkScrapeSuccess(ctx context.Context, id uint) error
	MarkScrapeError(ctx context.Context, id uint) error
	ReplaceCarPrices(ctx context.Context, sourceID uint, prices []models.CarPrice) error
	ListCarPrices(ctx context.Context, sourceID uint) ([]models.CarPrice, error)
	CreateRunLog(ctx context.Context, entry *models.RunLogEntry) error
	CleanupCarPriceLogs(ctx context.Context, olderThan time.Duration) (int64, error)
}

// MessageSender delivers digest text to the channel.
type MessageSender interface {
	SendMessage(ctx context.Context, botToken, chatID, text, parseMode string) (string, error)
}

// CarPriceRunner scrapes car-price sources and publishes their digests.
type CarPriceRunner struct {
	store    CarPriceStore
	scraper  scraper.Scraper
	telegram MessageSender
	config   *config.Config
	loc      *time.Location
}

func NewCarPriceRunner(store CarPriceStore, sc scraper.Scraper, telegram MessageSender, cfg *config.Config, loc *time.Location) *CarPriceRunner {
	if loc == nil {
		loc = time.UTC
	}
	return &CarPriceRunner{store: store, scraper: sc, telegram: telegram, config: cfg, loc: loc}
}

// RunAll scrapes every active source in parallel, then prunes old car-price
// log rows. One source failing never blocks the others.
func (r *CarPriceRunner) RunAll(ctx context.Context) error {
	sources, err := r.store.ListActiveScrapeSources(ctx)
	if err != nil {
		return fmt.Errorf("list scrape sources: %w", err)
	}
	if len(sources) == 0 {
		slog.Info("No active car-price sources")
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(3)
	for _, src := range sources {
		g.Go(func() error {
			if err := r.RunSource(gctx, src); err != nil {
				slog.Warn("Car-price run failed", "source", src.Name, "error", err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if deleted, err := r.store.CleanupCarPriceLogs(ctx, carPriceLogRetention); err != nil {
		slog.Warn("Car-price log cleanup failed", "error", err)
	} else if deleted > 0 {
		slog.Info("Cleaned up old car-price logs", "rows", deleted)
	}
	return nil
}

// RunSource scrapes one source. On success its price rows are replaced in a
// transaction and the error counter resets; on failure the counter grows and
// the stale rows stay. Sources flagged for Telegram get their digest sent
// after a successful scrape.
func (r *CarPriceRunner) RunSource(ctx context.Context, src models.ScrapeSource) error {
	rows, err := r.scraper.ScrapePrices(ctx, src)
	if err != nil {
		if markErr := r.store.MarkScrapeError(ctx, src.ID); markErr != nil {
			slog.Error("Failed to record scrape error", "source", src.Name, "error", markErr)
		}
		return err
	}

	if err := r.store.ReplaceCarPrices(ctx, src.ID, rows); err != nil {
		if markErr := r.store.MarkScrapeError(ctx, src.ID); markErr != nil {
			slog.Error("Failed to record scrape error", "source", src.Name, "error", markErr)
		}
		return fmt.Errorf("store prices for %s: %w", src.Name, err)
	}
	if err := r.store.MarkScrapeSuccess(ctx, src.ID); err != nil {
		slog.Error("Failed to record scrape success", "source", src.Name, "error", err)
	}

	if src.SendToTelegram {
		if err := r.sendDigest(ctx, src, rows); err != nil {
			slog.Warn("Car-price digest send failed", "source", src.Name, "error", err)
		}
	}
	return nil
}

// TestSend formats and sends the stored rows for one source through the same
// formatter scheduled runs use.
func (r *CarPriceRunner) TestSend(ctx context.Context, sourceID uint) error {
	src, err := r.store.GetScrapeSource(ctx, sourceID)
	if err != nil {
		return err
	}
	rows, err := r.store.ListCarPrices(ctx, src.ID)
	if err != nil {
		return fmt.Errorf("load prices for %s: %w", src.Name, err)
	}
	if len(rows) == 0 {
		return fmt.Errorf("no stored prices for %s", src.Name)
	}
	return r.sendDigest(ctx, *src, rows)
}

func (r *CarPriceRunner) sendDigest(ctx context.Context, src models.ScrapeSource, rows []models.CarPrice) error {
	settings, err := r.store.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	botToken := settings.TelegramBotToken
	if botToken == "" {
		botToken = r.config.TelegramBotToken
	}
	if botToken == "" || settings.TelegramChannelID == "" {
		return fmt.Errorf("no Telegram credentials configured")
	}

	now := time.Now().In(r.loc)
	message := FormatCarPriceDigest(src.Name, rows, settings.SiteURL, now)

	msgID, sendErr := r.telegram.SendMessage(ctx, botToken, settings.TelegramChannelID, message, "MarkdownV2")

	entry := &models.RunLogEntry{
		Title:          "قیمت خودرو - " + src.Name,
		SourceName:     src.Name,
		Target:         models.TargetTelegram,
		Marker:         models.CarPriceMarker,
		TelegramStatus: models.ChannelStatusSent,
		ProcessedAt:    &now,
	}
	if sendErr != nil {
		entry.TelegramStatus = models.ChannelStatusFailed
		entry.TelegramError = sendErr.Error()
	} else {
		entry.TelegramMessageID = msgID
	}
	if err := r.store.CreateRunLog(ctx, entry); err != nil {
		slog.Error("Failed to log car-price send", "source", src.Name, "error", err)
	}
	return sendErr
}
