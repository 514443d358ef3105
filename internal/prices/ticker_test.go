package prices

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kiasilver/rozegar-sub005/internal/config"
	"github.com/kiasilver/rozegar-sub005/internal/models"
)

type mockTickerStore struct {
	settings *models.Settings
	lastRun  time.Time
	logs     []*models.RunLogEntry
}

func (m *mockTickerStore) GetSettings(_ context.Context) (*models.Settings, error) {
	return m.settings, nil
}

func (m *mockTickerStore) LastTickerSuccess(_ context.Context) (time.Time, error) {
	return m.lastRun, nil
}

func (m *mockTickerStore) CreateRunLog(_ context.Context, entry *models.RunLogEntry) error {
	m.logs = append(m.logs, entry)
	return nil
}

type mockMarketFetcher struct {
	items []Item
	err   error
	calls int
}

func (m *mockMarketFetcher) FetchMarket(_ context.Context) ([]Item, error) {
	m.calls++
	return m.items, m.err
}

type mockPhotoSender struct {
	captions []string
	err      error
}

func (m *mockPhotoSender) SendPhoto(_ context.Context, _, _, _, caption, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.captions = append(m.captions, caption)
	return "photo-1", nil
}

func tickerSettings() *models.Settings {
	return &models.Settings{
		TickerEnabled:       true,
		TickerHours:         "10,14,18",
		TickerWindowMinutes: 55,
		TelegramBotToken:    "token",
		TelegramChannelID:   "@rozegar",
	}
}

func newTestTicker(store *mockTickerStore, fetcher *mockMarketFetcher, sender *mockPhotoSender) *Ticker {
	return NewTicker(store, fetcher, sender, &config.Config{SiteBaseURL: "https://rozeghar.com"}, time.UTC)
}

func TestTickerRun_SendsDigest(t *testing.T) {
	store := &mockTickerStore{settings: tickerSettings()}
	fetcher := &mockMarketFetcher{items: marketItems()}
	sender := &mockPhotoSender{}

	if err := newTestTicker(store, fetcher, sender).Run(context.Background(), false); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(sender.captions) != 1 {
		t.Fatalf("Expected 1 photo send, got %d", len(sender.captions))
	}
	if !strings.Contains(sender.captions[0], "#قیمت_روز") {
		t.Error("Caption should be the formatted digest")
	}

	if len(store.logs) != 1 {
		t.Fatalf("Expected 1 run log, got %d", len(store.logs))
	}
	entry := store.logs[0]
	if entry.Marker != models.TickerMarker {
		t.Errorf("Marker = %q, want %q", entry.Marker, models.TickerMarker)
	}
	if entry.TelegramStatus != models.ChannelStatusSent || entry.TelegramMessageID != "photo-1" {
		t.Errorf("Entry not recorded as sent: %+v", entry)
	}
}

func TestTickerRun_DuplicateWindow(t *testing.T) {
	tests := []struct {
		name     string
		ago      time.Duration
		wantSend bool
	}{
		{"SuppressedAt30m", 30 * time.Minute, false},
		{"AllowedAt61m", 61 * time.Minute, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &mockTickerStore{settings: tickerSettings(), lastRun: time.Now().Add(-tt.ago)}
			fetcher := &mockMarketFetcher{items: marketItems()}
			sender := &mockPhotoSender{}

			if err := newTestTicker(store, fetcher, sender).Run(context.Background(), false); err != nil {
				t.Fatalf("Run returned error: %v", err)
			}
			sent := len(sender.captions) == 1
			if sent != tt.wantSend {
				t.Errorf("sent = %v, want %v", sent, tt.wantSend)
			}
		})
	}
}

func TestTickerRun_ForceBypassesWindow(t *testing.T) {
	store := &mockTickerStore{settings: tickerSettings(), lastRun: time.Now().Add(-10 * time.Minute)}
	store.settings.TickerEnabled = false
	fetcher := &mockMarketFetcher{items: marketItems()}
	sender := &mockPhotoSender{}

	if err := newTestTicker(store, fetcher, sender).Run(context.Background(), true); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if len(sender.captions) != 1 {
		t.Error("Forced run should send despite window and disabled flag")
	}
}

func TestTickerRun_InsufficientData(t *testing.T) {
	store := &mockTickerStore{settings: tickerSettings()}
	fetcher := &mockMarketFetcher{items: marketItems()[:3]}
	sender := &mockPhotoSender{}

	err := newTestTicker(store, fetcher, sender).Run(context.Background(), false)
	if err == nil {
		t.Fatal("Fewer than 5 quotes must be an error")
	}
	if len(sender.captions) != 0 {
		t.Error("Nothing should be sent on insufficient data")
	}
	if len(store.logs) != 1 || store.logs[0].TelegramStatus != models.ChannelStatusFailed {
		t.Error("Failed run should be logged with the ticker marker")
	}
}

func TestTickerRun_Disabled(t *testing.T) {
	store := &mockTickerStore{settings: tickerSettings()}
	store.settings.TickerEnabled = false
	fetcher := &mockMarketFetcher{items: marketItems()}
	sender := &mockPhotoSender{}

	if err := newTestTicker(store, fetcher, sender).Run(context.Background(), false); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if fetcher.calls != 0 {
		t.Error("Disabled ticker should not fetch")
	}
}

func TestTickerRun_SendFailureLogged(t *testing.T) {
	store := &mockTickerStore{settings: tickerSettings()}
	fetcher := &mockMarketFetcher{items: marketItems()}
	sender := &mockPhotoSender{err: errors.New("bad gateway")}

	if err := newTestTicker(store, fetcher, sender).Run(context.Background(), false); err == nil {
		t.Fatal("Send failure must surface as an error")
	}
	if len(store.logs) != 1 || store.logs[0].TelegramStatus != models.ChannelStatusFailed {
		t.Error("Failed send should be logged")
	}
	if !strings.Contains(store.logs[0].TelegramError, "bad gateway") {
		t.Errorf("Error text not recorded: %q", store.logs[0].TelegramError)
	}
}
