package storage

import (
	"testing"
	"time"

	"github.com/kiasilver/rozegar-sub005/internal/models"
)

func TestRunLogFilter_ClampPage(t *testing.T) {
	tests := []struct {
		name        string
		filter      RunLogFilter
		wantPage    int
		wantPerPage int
	}{
		{name: "defaults", filter: RunLogFilter{}, wantPage: 1, wantPerPage: 20},
		{name: "negative page", filter: RunLogFilter{Page: -3, PerPage: 50}, wantPage: 1, wantPerPage: 50},
		{name: "per page ceiling", filter: RunLogFilter{Page: 2, PerPage: 5000}, wantPage: 2, wantPerPage: 100},
		{name: "passthrough", filter: RunLogFilter{Page: 7, PerPage: 25}, wantPage: 7, wantPerPage: 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, perPage := tt.filter.ClampPage()
			if page != tt.wantPage || perPage != tt.wantPerPage {
				t.Errorf("ClampPage() = (%d, %d), want (%d, %d)", page, perPage, tt.wantPage, tt.wantPerPage)
			}
		})
	}
}

func TestDefaultSettings(t *testing.T) {
	s := defaultSettings()
	if s.Active {
		t.Error("Automation should default to inactive")
	}
	if s.CheckInterval != 10*time.Minute {
		t.Errorf("Expected 10m check interval, got %s", s.CheckInterval)
	}
	if s.TickerWindowMinutes != 55 {
		t.Errorf("Expected 55 minute ticker window, got %d", s.TickerWindowMinutes)
	}
	if s.TelegramLength != models.LengthMedium || s.WebsiteLength != models.LengthLong {
		t.Errorf("Unexpected default lengths: %s/%s", s.TelegramLength, s.WebsiteLength)
	}
}
