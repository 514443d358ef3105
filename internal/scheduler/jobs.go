package scheduler

import (
	"context"
	"log/slog"
	"slices"
	"time"

	"github.com/kiasilver/rozegar-sub005/internal/models"
	"github.com/kiasilver/rozegar-sub005/internal/util"
)

const scrapeRetryDelay = 10 * time.Minute

// tickerTick fires at the top of every hour. The digest only goes out when
// the current hour is one of the configured send hours; the duplicate window
// inside the ticker itself guards against double sends around restarts.
func (m *Manager) tickerTick(ctx context.Context) {
	settings, err := m.store.GetSettings(ctx)
	if err != nil {
		slog.Error("Ticker tick failed to load settings", "error", err)
		return
	}
	if !settings.TickerEnabled {
		return
	}

	hour := time.Now().In(m.loc).Hour()
	if !slices.Contains(util.ParseHourList(settings.TickerHours), hour) {
		return
	}

	if !m.tickerBusy.CompareAndSwap(false, true) {
		slog.Warn("Previous ticker run still in flight, skipping")
		return
	}
	defer m.tickerBusy.Store(false)

	if err := m.ticker.Run(ctx, false); err != nil {
		slog.Error("Ticker run failed", "error", err)
	}
}

func (m *Manager) carPriceGlobalTick(ctx context.Context) {
	if !m.carBusy.CompareAndSwap(false, true) {
		slog.Warn("Previous car-price run still in flight, skipping global run")
		return
	}
	defer m.carBusy.Store(false)

	if err := m.carPrices.RunAll(ctx); err != nil {
		slog.Error("Car-price global run failed", "error", err)
	}
}

// carPriceMinuteTick runs every minute and picks up two kinds of due sources:
// ones whose fixed schedule time matches the current minute, and errored ones
// whose retry delay has elapsed. Retries stop once the consecutive-error
// ceiling is hit; the source then waits for an operator or the next global
// run.
func (m *Manager) carPriceMinuteTick(ctx context.Context) {
	sources, err := m.store.ListActiveScrapeSources(ctx)
	if err != nil {
		slog.Error("Car-price minute check failed to list sources", "error", err)
		return
	}
	if len(sources) == 0 {
		return
	}

	now := time.Now().In(m.loc)

	var due []models.ScrapeSource
	for _, src := range sources {
		switch {
		case scheduleDue(src.ScheduleTime, now):
			due = append(due, src)
		case shouldRetry(src, now):
			due = append(due, src)
		}
	}
	if len(due) == 0 {
		return
	}

	if !m.carBusy.CompareAndSwap(false, true) {
		slog.Warn("Previous car-price run still in flight, skipping minute tick")
		return
	}
	defer m.carBusy.Store(false)

	for _, src := range due {
		if err := m.carPrices.RunSource(ctx, src); err != nil {
			slog.Warn("Scheduled car-price run failed", "source", src.Name, "error", err)
		}
	}
}

// scheduleDue compares parsed hour and minute rather than raw strings, so
// unpadded and Persian-digit schedule times fire on their minute too.
func scheduleDue(scheduleTime string, now time.Time) bool {
	hour, minute, ok := util.ParseHHMM(scheduleTime)
	if !ok {
		return false
	}
	return now.Hour() == hour && now.Minute() == minute
}

func shouldRetry(src models.ScrapeSource, now time.Time) bool {
	if src.LastStatus != models.ScrapeStatusError {
		return false
	}
	if src.ConsecutiveErrors >= models.MaxConsecutiveScrapeErrors {
		return false
	}
	if src.LastRunAt == nil {
		return true
	}
	return now.Sub(*src.LastRunAt) >= scrapeRetryDelay
}
