package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"
)

type Config struct {
	DatabaseURL      string
	Port             string
	CronSecret       string
	GeminiAPIKey     string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	TelegramBotToken string
	SiteBaseURL      string
	RequestTimeout   time.Duration
	ScrapeTimeout    time.Duration
	MaxFeedItems     int
	Timezone         string
}

func Load() (*Config, error) {
	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is required but not set")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		slog.Info("Defaulting to port", "port", port)
	}

	cronSecret := os.Getenv("CRON_SECRET")
	if cronSecret == "" {
		slog.Warn("CRON_SECRET not set, /cron endpoints will reject all requests")
	}

	geminiKey := os.Getenv("GEMINI_API_KEY")
	if geminiKey == "" {
		slog.Warn("GEMINI_API_KEY not set, Gemini provider will be unavailable")
	}

	openAIKey := os.Getenv("OPENAI_API_KEY")
	openAIBaseURL := os.Getenv("OPENAI_BASE_URL")
	if openAIBaseURL == "" {
		openAIBaseURL = "https://api.openai.com/v1"
	}

	telegramToken := os.Getenv("TELEGRAM_BOT_TOKEN")

	siteBaseURL := os.Getenv("SITE_BASE_URL")

	requestTimeoutStr := os.Getenv("REQUEST_TIMEOUT")
	if requestTimeoutStr == "" {
		requestTimeoutStr = "30s"
	}
	requestTimeout, err := time.ParseDuration(requestTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT %q: %w", requestTimeoutStr, err)
	}

	scrapeTimeoutStr := os.Getenv("SCRAPE_TIMEOUT")
	if scrapeTimeoutStr == "" {
		scrapeTimeoutStr = "2m"
	}
	scrapeTimeout, err := time.ParseDuration(scrapeTimeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SCRAPE_TIMEOUT %q: %w", scrapeTimeoutStr, err)
	}

	maxFeedItems := 10
	if v := os.Getenv("MAX_FEED_ITEMS"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_FEED_ITEMS %q: %w", v, err)
		}
		maxFeedItems = parsed
	}

	timezone := os.Getenv("AUTOMATION_TZ")
	if timezone == "" {
		timezone = "Asia/Tehran"
	}

	return &Config{
		DatabaseURL:      databaseURL,
		Port:             port,
		CronSecret:       cronSecret,
		GeminiAPIKey:     geminiKey,
		OpenAIAPIKey:     openAIKey,
		OpenAIBaseURL:    openAIBaseURL,
		TelegramBotToken: telegramToken,
		SiteBaseURL:      siteBaseURL,
		RequestTimeout:   requestTimeout,
		ScrapeTimeout:    scrapeTimeout,
		MaxFeedItems:     maxFeedItems,
		Timezone:         timezone,
	}, nil
}
