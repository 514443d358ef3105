package prices

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kiasilver/rozegar-sub005/internal/config"
	"github.com/kiasilver/rozegar-sub005/internal/models"
)

const tickerImagePath = "/images/gheymat/gheymat.jpg"

// TickerStore is the storage surface the ticker needs.
type TickerStore interface {
	GetSettings(ctx context.Context) (*models.Settings, error)
	LastTickerSuccess(ctx context.Context) (time.Time, error)
	CreateRunLog(ctx context.Context, entry *models.RunLogEntry) error
}

// MarketFetcher yields the current market quotes.
type MarketFetcher interface {
	FetchMarket(ctx context.Context) ([]Item, error)
}

// PhotoSender delivers the digest photo to the channel.
type PhotoSender interface {
	SendPhoto(ctx context.Context, botToken, chatID, photoURL, caption, parseMode string) (string, error)
}

// Ticker sends the market digest to the Telegram channel. The scheduler fires
// it hourly; Run itself enforces the enabled flag and the duplicate window so
// a manual trigger and a cron tick share one code path.
type Ticker struct {
	store    TickerStore
	fetcher  MarketFetcher
	telegram PhotoSender
	config   *config.Config
	loc      *time.Location
}

func NewTicker(store TickerStore, fetcher MarketFetcher, telegram PhotoSender, cfg *config.Config, loc *time.Location) *Ticker {
	if loc == nil {
		loc = time.UTC
	}
	return &Ticker{store: store, fetcher: fetcher, telegram: telegram, config: cfg, loc: loc}
}

// Run fetches, formats and sends the market digest. force bypasses the
// enabled flag and the duplicate window for operator-triggered sends.
func (t *Ticker) Run(ctx context.Context, force bool) error {
	settings, err := t.store.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if !force && !settings.TickerEnabled {
		slog.Info("Price ticker disabled, skipping")
		return nil
	}

	botToken := settings.TelegramBotToken
	if botToken == "" {
		botToken = t.config.TelegramBotToken
	}
	if botToken == "" || settings.TelegramChannelID == "" {
		slog.Warn("Price ticker has no Telegram credentials, skipping")
		return nil
	}

	if !force {
		last, err := t.store.LastTickerSuccess(ctx)
		if err != nil {
			return fmt.Errorf("check last ticker run: %w", err)
		}
		if !last.IsZero() && time.Since(last) < settings.TickerWindow() {
			slog.Info("Price digest already sent inside duplicate window", "last", last)
			return nil
		}
	}

	now := time.Now().In(t.loc)

	items, err := t.fetcher.FetchMarket(ctx)
	if err != nil || len(items) < MinMarketItems {
		reason := "insufficient market data"
		if err != nil {
			reason = err.Error()
		} else {
			reason = fmt.Sprintf("%s: %d quotes", reason, len(items))
		}
		t.logRun(ctx, now, "قیمت‌های روز - ارسال خودکار (خطا)", models.ChannelStatusFailed, reason, "")
		return fmt.Errorf("fetch market prices: %s", reason)
	}

	caption := FormatMarketDigest(items, now)
	photoURL := strings.TrimRight(t.config.SiteBaseURL, "/") + tickerImagePath

	title := fmt.Sprintf("قیمت‌های روز - ساعت %02d:00", now.Hour())
	msgID, err := t.telegram.SendPhoto(ctx, botToken, settings.TelegramChannelID, photoURL, caption, "")
	if err != nil {
		t.logRun(ctx, now, title, models.ChannelStatusFailed, err.Error(), "")
		return fmt.Errorf("send price digest: %w", err)
	}

	t.logRun(ctx, now, title, models.ChannelStatusSent, "", msgID)
	slog.Info("Price digest sent", "quotes", len(items), "message_id", msgID)
	return nil
}

func (t *Ticker) logRun(ctx context.Context, now time.Time, title, status, errText, msgID string) {
	entry := &models.RunLogEntry{
		Title:             title,
		Target:            models.TargetTelegram,
		Marker:            models.TickerMarker,
		TelegramStatus:    status,
		TelegramError:     errText,
		TelegramMessageID: msgID,
		ProcessedAt:       &now,
	}
	if err := t.store.CreateRunLog(ctx, entry); err != nil {
		slog.Error("Failed to log ticker run", "error", err)
	}
}
