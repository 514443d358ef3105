package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/kiasilver/rozegar-sub005/internal/models"
	"github.com/kiasilver/rozegar-sub005/internal/util"
)

// Store is the settings and source surface the scheduler reads.
type Store interface {
	GetSettings(ctx context.Context) (*models.Settings, error)
	ListActiveScrapeSources(ctx context.Context) ([]models.ScrapeSource, error)
}

// RSSPipeline runs the two halves of the RSS flow.
type RSSPipeline interface {
	CheckSources(ctx context.Context) error
	PublishNext(ctx context.Context) error
}

// CarPriceJobs runs car-price scrapes.
type CarPriceJobs interface {
	RunAll(ctx context.Context) error
	RunSource(ctx context.Context, src models.ScrapeSource) error
}

// TickerJob sends the market price digest.
type TickerJob interface {
	Run(ctx context.Context, force bool) error
}

const defaultPublishInterval = 5 * time.Minute

// Manager owns every scheduled task. Intervals and cron specs come from the
// settings row, so a settings save is applied by calling Restart: the old
// tasks wind down, new ones start with the fresh values.
type Manager struct {
	store     Store
	rss       RSSPipeline
	carPrices CarPriceJobs
	ticker    TickerJob
	loc       *time.Location

	mu      sync.Mutex
	cron    *cron.Cron
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	started bool

	checkBusy   atomic.Bool
	publishBusy atomic.Bool
	carBusy     atomic.Bool
	tickerBusy  atomic.Bool
}

func New(store Store, rss RSSPipeline, carPrices CarPriceJobs, ticker TickerJob, loc *time.Location) *Manager {
	if loc == nil {
		loc = time.UTC
	}
	return &Manager{
		store:     store,
		rss:       rss,
		carPrices: carPrices,
		ticker:    ticker,
		loc:       loc,
	}
}

// Start reads the current settings and spins up all tasks. Calling Start on a
// running manager is a no-op.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.started {
		return nil
	}

	settings, err := m.store.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	runCtx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel

	m.cron = cron.New(
		cron.WithLocation(m.loc),
		cron.WithChain(cron.Recover(cron.DefaultLogger)),
	)

	if _, err := m.cron.AddFunc("0 * * * *", func() { m.tickerTick(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("schedule ticker: %w", err)
	}
	if _, err := m.cron.AddFunc(carPriceGlobalSpec(settings), func() { m.carPriceGlobalTick(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("schedule car-price global run: %w", err)
	}
	if _, err := m.cron.AddFunc("* * * * *", func() { m.carPriceMinuteTick(runCtx) }); err != nil {
		cancel()
		return fmt.Errorf("schedule car-price source checks: %w", err)
	}
	m.cron.Start()

	checkInterval := settings.CheckInterval
	if checkInterval < time.Minute {
		checkInterval = time.Minute
	}
	publishInterval := settings.PublishInterval
	if publishInterval <= 0 {
		publishInterval = defaultPublishInterval
	}

	m.wg.Add(2)
	go m.checkLoop(runCtx, checkInterval)
	go m.publishLoop(runCtx, publishInterval)

	m.started = true
	slog.Info("Scheduler started",
		"check_interval", checkInterval,
		"publish_interval", publishInterval,
		"timezone", m.loc.String(),
	)
	return nil
}

// Stop winds down all tasks and waits for in-flight runs to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.started {
		return
	}

	m.cancel()
	<-m.cron.Stop().Done()
	m.wg.Wait()

	m.started = false
	slog.Info("Scheduler stopped")
}

// Restart applies new settings: stop everything, then start with the values
// currently in storage.
func (m *Manager) Restart(ctx context.Context) error {
	m.Stop()
	return m.Start(ctx)
}

// carPriceGlobalSpec maps the settings schedule to a cron spec: a fixed daily
// time when one is set, otherwise an every-N-hours interval.
func carPriceGlobalSpec(settings *models.Settings) string {
	if settings.CarPriceDailyTime != "" {
		if hour, minute, ok := util.ParseHHMM(settings.CarPriceDailyTime); ok {
			return fmt.Sprintf("%d %d * * *", minute, hour)
		}
	}
	hours := settings.CarPriceIntervalHrs
	if hours < 1 {
		hours = 24
	}
	return fmt.Sprintf("0 */%d * * *", hours)
}

func (m *Manager) checkLoop(ctx context.Context, interval time.Duration) {
	defer m.wg.Done()

	m.runCheck(ctx)
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.runCheck(ctx)
		}
	}
}

func (m *Manager) publishLoop(ctx context.Context, interval time.Duration) {
	defer m.wg.Done()

	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.runPublish(ctx)
		}
	}
}

func (m *Manager) runCheck(ctx context.Context) {
	if !m.checkBusy.CompareAndSwap(false, true) {
		slog.Warn("Previous source check still running, skipping tick")
		return
	}
	defer m.checkBusy.Store(false)

	if err := m.rss.CheckSources(ctx); err != nil {
		slog.Error("Source check failed", "error", err)
	}
}

func (m *Manager) runPublish(ctx context.Context) {
	if !m.publishBusy.CompareAndSwap(false, true) {
		slog.Warn("Previous publish still running, skipping tick")
		return
	}
	defer m.publishBusy.Store(false)

	err := m.rss.PublishNext(ctx)
	switch {
	case err == nil:
	case errors.Is(err, models.ErrNotFound):
		// Empty queue, nothing to publish this slot.
	default:
		slog.Error("Publish failed", "error", err)
	}
}
