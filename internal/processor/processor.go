package processor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kiasilver/rozegar-sub005/internal/ai"
	"github.com/kiasilver/rozegar-sub005/internal/config"
	"github.com/kiasilver/rozegar-sub005/internal/feed"
	"github.com/kiasilver/rozegar-sub005/internal/models"
	"github.com/kiasilver/rozegar-sub005/internal/publisher"
	"github.com/kiasilver/rozegar-sub005/internal/transform"
	"github.com/kiasilver/rozegar-sub005/internal/util"
)

// Processor runs the RSS pipeline: the check pass fills the publish queue,
// the publish pass transforms and dispatches one item at a time.
type Processor struct {
	store    Store
	fetcher  FeedFetcher
	gateway  Generator
	telegram TelegramSender
	website  WebsitePublisher
	config   *config.Config
}

func New(store Store, fetcher FeedFetcher, gateway Generator, telegram TelegramSender, website WebsitePublisher, cfg *config.Config) *Processor {
	return &Processor{
		store:    store,
		fetcher:  fetcher,
		gateway:  gateway,
		telegram: telegram,
		website:  website,
		config:   cfg,
	}
}

// CheckSources polls every active source and enqueues the items that pass
// the dedup gate. Per-source failures are isolated: one dead feed never
// blocks the others.
func (p *Processor) CheckSources(ctx context.Context) error {
	settings, err := p.store.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if !settings.Active {
		slog.Info("Automation disabled, skipping source check")
		return nil
	}

	sources, err := p.store.ListActiveSources(ctx)
	if err != nil {
		return fmt.Errorf("list sources: %w", err)
	}
	if len(sources) == 0 {
		slog.Info("No active sources")
		return nil
	}

	queued, err := p.store.QueuedLinks(ctx)
	if err != nil {
		return fmt.Errorf("load queued links: %w", err)
	}

	type sourceResult struct {
		source models.Source
		items  []feed.Item
	}
	results := make([]sourceResult, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(5)
	for i, src := range sources {
		g.Go(func() error {
			items, err := p.fetcher.Fetch(gctx, src)
			if err != nil {
				slog.Warn("Feed fetch failed", "source", src.Name, "error", err)
				return nil
			}
			results[i] = sourceResult{source: src, items: items}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var enqueued int
	for _, res := range results {
		for _, item := range res.items {
			if queued[item.Link] {
				continue
			}
			ok, err := p.ShouldProcess(ctx, item, res.source.Name)
			if err != nil {
				slog.Warn("Dedup check failed, skipping item", "title", item.Title, "error", err)
				continue
			}
			if !ok {
				continue
			}
			qi := &models.QueueItem{
				Title:        item.Title,
				Link:         item.Link,
				Summary:      item.Summary,
				Content:      item.Content,
				ImageURL:     item.ImageURL,
				SourceID:     res.source.ID,
				SourceName:   res.source.Name,
				CategoryID:   res.source.CategoryID,
				CategoryName: res.source.CategoryName,
				Target:       res.source.Target,
				PublishedAt:  item.PublishedAt,
			}
			if err := p.store.EnqueueItem(ctx, qi); err != nil {
				slog.Error("Failed to enqueue item", "title", item.Title, "error", err)
				continue
			}
			queued[item.Link] = true
			enqueued++
		}
	}

	slog.Info("Source check finished", "sources", len(sources), "enqueued", enqueued)
	return nil
}

// PublishNext pops the oldest queued item and processes it. Returns
// models.ErrNotFound when the queue is empty.
func (p *Processor) PublishNext(ctx context.Context) error {
	settings, err := p.store.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	if !settings.Active {
		return nil
	}

	item, err := p.store.ClaimNextQueueItem(ctx)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return models.ErrNotFound
		}
		return fmt.Errorf("claim queue item: %w", err)
	}

	entry := p.processItem(ctx, item, settings)
	if err := p.store.CreateRunLog(ctx, entry); err != nil {
		slog.Error("Failed to write run log", "title", item.Title, "error", err)
	}
	if err := p.store.FinishQueueItem(ctx, item.ID, entry.Succeeded()); err != nil {
		slog.Warn("Failed to finish queue item", "id", item.ID, "error", err)
	}

	slog.Info("Item processed",
		"title", item.Title,
		"telegram", entry.TelegramStatus,
		"website", entry.WebsiteStatus,
	)
	return nil
}

// channelOutcome carries one channel's result out of its goroutine.
type channelOutcome struct {
	status    string
	errText   string
	messageID string
	blogID    uint
	blogSlug  string
	tokens    int
	cost      float64
}

// processItem transforms and dispatches one item to its enabled channels.
// The two channels run as independent tasks; both outcomes land in a single
// run-log entry.
func (p *Processor) processItem(ctx context.Context, item *models.QueueItem, settings *models.Settings) *models.RunLogEntry {
	now := time.Now()
	entry := &models.RunLogEntry{
		Title:        item.Title,
		SourceURL:    item.Link,
		SourceName:   item.SourceName,
		CategoryID:   item.CategoryID,
		CategoryName: item.CategoryName,
		Target:       item.Target,
		ProcessedAt:  &now,
	}

	wantTelegram := settings.ChannelEnabled(models.TargetTelegram, item.Target)
	wantWebsite := settings.ChannelEnabled(models.TargetWebsite, item.Target)
	if !wantTelegram {
		entry.TelegramStatus = models.ChannelStatusSkipped
	}
	if !wantWebsite {
		entry.WebsiteStatus = models.ChannelStatusSkipped
	}
	if !wantTelegram && !wantWebsite {
		return entry
	}

	in := transform.Input{
		Title:    item.Title,
		Content:  pickContent(item),
		Category: item.CategoryName,
	}

	var telegramText, websiteHTML string
	var combinedTokens int
	var combinedCost float64
	combined := wantTelegram && wantWebsite && transform.CombinedUsable(settings)
	if combined {
		tg, web, res, err := p.generateCombined(ctx, in, settings)
		if err != nil {
			slog.Warn("Combined generation failed, falling back to per-channel calls", "title", item.Title, "error", err)
			combined = false
		} else {
			telegramText, websiteHTML = tg, web
			combinedTokens = res.InputTokens + res.OutputTokens
			combinedCost = res.CostUSD
		}
	}

	var tgOut, webOut channelOutcome
	var g errgroup.Group
	if wantTelegram {
		g.Go(func() error {
			tgOut = p.dispatchTelegram(ctx, in, item, settings, telegramText, combined)
			return nil
		})
	}
	if wantWebsite {
		g.Go(func() error {
			webOut = p.dispatchWebsite(ctx, in, item, settings, websiteHTML, combined)
			return nil
		})
	}
	_ = g.Wait()

	if wantTelegram {
		entry.TelegramStatus = tgOut.status
		entry.TelegramError = tgOut.errText
		entry.TelegramMessageID = tgOut.messageID
	}
	if wantWebsite {
		entry.WebsiteStatus = webOut.status
		entry.WebsiteError = webOut.errText
		entry.BlogPostID = webOut.blogID
		entry.BlogSlug = webOut.blogSlug
	}
	entry.TokensUsed = combinedTokens + tgOut.tokens + webOut.tokens
	entry.CostUSD = combinedCost + tgOut.cost + webOut.cost
	return entry
}

func (p *Processor) dispatchTelegram(ctx context.Context, in transform.Input, item *models.QueueItem, settings *models.Settings, pregenerated string, combined bool) channelOutcome {
	var out channelOutcome

	text := pregenerated
	if !combined {
		res, err := p.gateway.Generate(ctx, settings.DefaultProvider, settings.FallbackProvider, ai.Request{
			Prompt:    transform.BuildTelegramPrompt(in, settings),
			Model:     settings.DefaultModel,
			Operation: "rss_telegram",
		})
		if err != nil {
			out.status = models.ChannelStatusFailed
			out.errText = err.Error()
			return out
		}
		text = res.Text
		out.tokens = res.InputTokens + res.OutputTokens
		out.cost = res.CostUSD
	}

	message := transform.CleanForTelegram(ai.StripFences(text))
	message = "<b>" + html.EscapeString(item.Title) + "</b>\n\n" + message
	if settings.AddWatermark {
		message = transform.Watermark(message, settings.SiteURL)
	}

	msgID, err := p.telegram.SendMessage(ctx, p.botToken(settings), settings.TelegramChannelID, message, "HTML")
	if err != nil {
		out.status = models.ChannelStatusFailed
		out.errText = err.Error()
		return out
	}
	out.status = models.ChannelStatusSent
	out.messageID = msgID
	return out
}

func (p *Processor) dispatchWebsite(ctx context.Context, in transform.Input, item *models.QueueItem, settings *models.Settings, pregenerated string, combined bool) channelOutcome {
	var out channelOutcome

	content := pregenerated
	if !combined {
		res, err := p.gateway.Generate(ctx, settings.DefaultProvider, settings.FallbackProvider, ai.Request{
			Prompt:    transform.BuildWebsitePrompt(in, settings),
			Model:     settings.DefaultModel,
			Operation: "rss_website",
		})
		if err != nil {
			out.status = models.ChannelStatusFailed
			out.errText = err.Error()
			return out
		}
		content = res.Text
		out.tokens = res.InputTokens + res.OutputTokens
		out.cost = res.CostUSD
	}

	post, err := p.website.Publish(ctx, publisher.Article{
		Title:      item.Title,
		Content:    ai.StripFences(content),
		Excerpt:    util.NormalizeTitle(item.Summary),
		CategoryID: item.CategoryID,
		ImageURL:   item.ImageURL,
		SourceName: item.SourceName,
		ForceSEO:   settings.ForceSEO,
	})
	if err != nil {
		out.status = models.ChannelStatusFailed
		out.errText = err.Error()
		return out
	}
	out.status = models.ChannelStatusSent
	out.blogID = post.ID
	out.blogSlug = post.Slug
	return out
}

// combinedPayload is the JSON shape the combined prompt asks for.
type combinedPayload struct {
	TelegramSummary string `json:"telegram_summary"`
	WebsiteContent  string `json:"website_content"`
}

func (p *Processor) generateCombined(ctx context.Context, in transform.Input, settings *models.Settings) (telegramText, websiteHTML string, res *ai.Result, err error) {
	res, err = p.gateway.Generate(ctx, settings.DefaultProvider, settings.FallbackProvider, ai.Request{
		Prompt:    transform.BuildCombinedPrompt(in, settings),
		Model:     settings.DefaultModel,
		Operation: "rss_combined",
		JSON:      true,
	})
	if err != nil {
		return "", "", nil, err
	}

	var payload combinedPayload
	if err := json.Unmarshal([]byte(ai.StripFences(res.Text)), &payload); err != nil {
		return "", "", nil, fmt.Errorf("%w: %v", ai.ErrMalformedResponse, err)
	}
	if strings.TrimSpace(payload.TelegramSummary) == "" || strings.TrimSpace(payload.WebsiteContent) == "" {
		return "", "", nil, fmt.Errorf("%w: combined payload missing a channel", ai.ErrMalformedResponse)
	}
	return payload.TelegramSummary, payload.WebsiteContent, res, nil
}

// pickContent prefers full content over the summary.
func pickContent(item *models.QueueItem) string {
	if strings.TrimSpace(item.Content) != "" {
		return item.Content
	}
	return item.Summary
}

// botToken prefers the settings row, falling back to the environment.
func (p *Processor) botToken(settings *models.Settings) string {
	if settings.TelegramBotToken != "" {
		return settings.TelegramBotToken
	}
	return p.config.TelegramBotToken
}
