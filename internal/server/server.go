package server

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kiasilver/rozegar-sub005/internal/config"
	"github.com/kiasilver/rozegar-sub005/internal/models"
	"github.com/kiasilver/rozegar-sub005/internal/storage"
	"github.com/kiasilver/rozegar-sub005/internal/validator"
)

const triggerTimeout = 4 * time.Minute

// Store is the storage surface the HTTP handlers read and write.
type Store interface {
	GetSettings(ctx context.Context) (*models.Settings, error)
	SaveSettings(ctx context.Context, settings *models.Settings) error
	ListSources(ctx context.Context) ([]models.Source, error)
	ListActiveScrapeSources(ctx context.Context) ([]models.ScrapeSource, error)
	ListRunLogs(ctx context.Context, filter storage.RunLogFilter) ([]models.RunLogEntry, int64, error)
	ListAllCarPrices(ctx context.Context) ([]models.CarPrice, error)
	UsageSince(ctx context.Context, since time.Time) ([]storage.UsageSummary, error)
	PendingQueueCount(ctx context.Context) (int64, error)
}

// RSSRunner triggers the RSS pipeline halves.
type RSSRunner interface {
	CheckSources(ctx context.Context) error
	PublishNext(ctx context.Context) error
}

// CarPriceRunner triggers car-price jobs.
type CarPriceRunner interface {
	RunAll(ctx context.Context) error
	TestSend(ctx context.Context, sourceID uint) error
}

// TickerRunner triggers the market price digest.
type TickerRunner interface {
	Run(ctx context.Context, force bool) error
}

// SchedulerControl restarts the schedulers after a settings change.
type SchedulerControl interface {
	Restart(ctx context.Context) error
}

type Server struct {
	store     Store
	rss       RSSRunner
	carPrices CarPriceRunner
	ticker    TickerRunner
	scheduler SchedulerControl
	validate  *validator.Validator
	config    *config.Config
}

func New(store Store, rss RSSRunner, carPrices CarPriceRunner, ticker TickerRunner, scheduler SchedulerControl, validate *validator.Validator, cfg *config.Config) *Server {
	return &Server{
		store:     store,
		rss:       rss,
		carPrices: carPrices,
		ticker:    ticker,
		scheduler: scheduler,
		validate:  validate,
		config:    cfg,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, `{"status":"ok"}`)
	})

	mux.HandleFunc("GET /api/settings", s.GetSettingsHandler)
	mux.HandleFunc("PUT /api/settings", s.UpdateSettingsHandler)
	mux.HandleFunc("GET /api/sources", s.ListSourcesHandler)
	mux.HandleFunc("GET /api/logs", s.ListLogsHandler)
	mux.HandleFunc("GET /api/car-prices", s.ListCarPricesHandler)
	mux.HandleFunc("GET /api/stats", s.StatsHandler)

	mux.HandleFunc("POST /api/check", s.trigger("source check", s.rss.CheckSources))
	mux.HandleFunc("POST /api/publish", s.trigger("publish", s.rss.PublishNext))
	mux.HandleFunc("POST /api/car-prices/run", s.trigger("car-price run", s.carPrices.RunAll))
	mux.HandleFunc("POST /api/car-prices/sources/{id}/test-send", s.CarPriceTestSendHandler)
	mux.HandleFunc("POST /api/ticker/send", s.trigger("price digest", func(ctx context.Context) error {
		return s.ticker.Run(ctx, true)
	}))

	mux.HandleFunc("POST /cron/check", s.cronAuth(s.trigger("source check", s.rss.CheckSources)))
	mux.HandleFunc("POST /cron/publish", s.cronAuth(s.trigger("publish", s.rss.PublishNext)))
	mux.HandleFunc("POST /cron/car-prices", s.cronAuth(s.trigger("car-price run", s.carPrices.RunAll)))
	mux.HandleFunc("POST /cron/ticker", s.cronAuth(s.trigger("price digest", func(ctx context.Context) error {
		return s.ticker.Run(ctx, false)
	})))

	return mux
}

// trigger runs a pipeline asynchronously and answers 202 right away, so slow
// scraping and AI calls never hit the client's request timeout.
func (s *Server) trigger(name string, run func(ctx context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		go func() {
			defer func() {
				if rec := recover(); rec != nil {
					slog.Error("Panic in triggered run", "task", name, "panic", rec)
				}
			}()
			ctx, cancel := context.WithTimeout(context.Background(), triggerTimeout)
			defer cancel()
			if err := run(ctx); err != nil {
				slog.Error("Triggered run failed", "task", name, "error", err)
			}
		}()

		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintf(w, "%s started.\n", name)
	}
}

// cronAuth guards the /cron endpoints with the shared bearer secret. The
// comparison is constant time so the secret can't be probed byte by byte.
func (s *Server) cronAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.config.CronSecret == "" {
			http.Error(w, "cron endpoints disabled: no secret configured", http.StatusServiceUnavailable)
			return
		}
		token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(s.config.CronSecret)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

func (s *Server) GetSettingsHandler(w http.ResponseWriter, r *http.Request) {
	settings, err := s.store.GetSettings(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

// UpdateSettingsHandler validates and saves the settings row, then restarts
// the schedulers so new intervals take effect without a redeploy.
func (s *Server) UpdateSettingsHandler(w http.ResponseWriter, r *http.Request) {
	var settings models.Settings
	if err := json.NewDecoder(r.Body).Decode(&settings); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid JSON body: %w", err))
		return
	}
	if err := s.validate.ValidateStruct(&settings); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}
	if err := s.store.SaveSettings(r.Context(), &settings); err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	// Restart in the background: Stop waits for in-flight ticks, and a
	// running scrape can hold that for minutes.
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("Panic restarting scheduler", "panic", rec)
			}
		}()
		ctx, cancel := context.WithTimeout(context.Background(), triggerTimeout)
		defer cancel()
		if err := s.scheduler.Restart(ctx); err != nil {
			slog.Error("Scheduler restart after settings save failed", "error", err)
		}
	}()

	writeJSON(w, http.StatusOK, &settings)
}

func (s *Server) ListSourcesHandler(w http.ResponseWriter, r *http.Request) {
	sources, err := s.store.ListSources(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	scrapeSources, err := s.store.ListActiveScrapeSources(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"rss_sources":       sources,
		"car_price_sources": scrapeSources,
	})
}

func (s *Server) ListLogsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := storage.RunLogFilter{
		Channel: q.Get("channel"),
		Status:  q.Get("status"),
		Marker:  q.Get("marker"),
	}
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PerPage, _ = strconv.Atoi(q.Get("per_page"))

	entries, total, err := s.store.ListRunLogs(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	page, perPage := filter.ClampPage()
	writeJSON(w, http.StatusOK, map[string]any{
		"entries":  entries,
		"total":    total,
		"page":     page,
		"per_page": perPage,
	})
}

func (s *Server) ListCarPricesHandler(w http.ResponseWriter, r *http.Request) {
	prices, err := s.store.ListAllCarPrices(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"prices": prices})
}

// StatsHandler reports per-provider token spend over the requested window
// plus the current publish-queue backlog.
func (s *Server) StatsHandler(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	if days < 1 {
		days = 30
	}
	since := time.Now().AddDate(0, 0, -days)

	usage, err := s.store.UsageSince(r.Context(), since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	pending, err := s.store.PendingQueueCount(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"usage":         usage,
		"pending_queue": pending,
		"since":         since,
		"days":          days,
	})
}

// CarPriceTestSendHandler sends the stored digest for one source to the
// channel. Synchronous: the operator wants the result.
func (s *Server) CarPriceTestSendHandler(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid source id"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), time.Minute)
	defer cancel()
	if err := s.carPrices.TestSend(ctx, uint(id)); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, models.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "sent"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
