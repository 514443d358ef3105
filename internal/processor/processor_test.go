package processor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kiasilver/rozegar-sub005/internal/ai"
	"github.com/kiasilver/rozegar-sub005/internal/config"
	"github.com/kiasilver/rozegar-sub005/internal/feed"
	"github.com/kiasilver/rozegar-sub005/internal/models"
	"github.com/kiasilver/rozegar-sub005/internal/publisher"
)

// --- Mock implementations ---

type mockStore struct {
	settings   *models.Settings
	sources    []models.Source
	loggedURLs map[string]bool
	titles     map[string][]string
	queue      []*models.QueueItem
	runLogs    []*models.RunLogEntry

	urlCheckErr   error
	titleCheckErr error
	enqueueErr    error
	nextID        uint
}

func newMockStore() *mockStore {
	return &mockStore{
		settings:   activeSettings(),
		loggedURLs: make(map[string]bool),
		titles:     make(map[string][]string),
	}
}

func activeSettings() *models.Settings {
	return &models.Settings{
		Active:             true,
		CheckInterval:      10 * time.Minute,
		PublishInterval:    5 * time.Minute,
		TelegramEnabled:    true,
		WebsiteEnabled:     true,
		TelegramLength:     models.LengthMedium,
		TelegramTone:       models.ToneReporter,
		WebsiteLength:      models.LengthLong,
		WebsiteTone:        models.ToneReporter,
		DefaultProvider:    "gemini",
		FallbackProvider:   "openai",
		TelegramBotToken:   "bot-token",
		TelegramChannelID:  "@rozegar",
		CombinedProcessing: false,
	}
}

func (m *mockStore) GetSettings(_ context.Context) (*models.Settings, error) {
	return m.settings, nil
}

func (m *mockStore) ListActiveSources(_ context.Context) ([]models.Source, error) {
	return m.sources, nil
}

func (m *mockStore) HasRunLogURL(_ context.Context, url string) (bool, error) {
	if m.urlCheckErr != nil {
		return false, m.urlCheckErr
	}
	return m.loggedURLs[url], nil
}

func (m *mockStore) RunLogTitlesBySource(_ context.Context, sourceName string) ([]string, error) {
	if m.titleCheckErr != nil {
		return nil, m.titleCheckErr
	}
	return m.titles[sourceName], nil
}

func (m *mockStore) CreateRunLog(_ context.Context, entry *models.RunLogEntry) error {
	m.runLogs = append(m.runLogs, entry)
	return nil
}

func (m *mockStore) QueuedLinks(_ context.Context) (map[string]bool, error) {
	set := make(map[string]bool)
	for _, item := range m.queue {
		if item.Status == models.QueueStatusPending || item.Status == models.QueueStatusProcessing {
			set[item.Link] = true
		}
	}
	return set, nil
}

func (m *mockStore) EnqueueItem(_ context.Context, item *models.QueueItem) error {
	if m.enqueueErr != nil {
		return m.enqueueErr
	}
	m.nextID++
	item.ID = m.nextID
	item.Status = models.QueueStatusPending
	m.queue = append(m.queue, item)
	return nil
}

func (m *mockStore) ClaimNextQueueItem(_ context.Context) (*models.QueueItem, error) {
	for _, item := range m.queue {
		if item.Status == models.QueueStatusPending {
			item.Status = models.QueueStatusProcessing
			return item, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *mockStore) FinishQueueItem(_ context.Context, id uint, succeeded bool) error {
	for _, item := range m.queue {
		if item.ID == id {
			if succeeded {
				item.Status = models.QueueStatusDone
			} else {
				item.Status = models.QueueStatusFailed
			}
		}
	}
	return nil
}

type mockFetcher struct {
	items map[uint][]feed.Item
	errs  map[uint]error
}

func (m *mockFetcher) Fetch(_ context.Context, source models.Source) ([]feed.Item, error) {
	if err := m.errs[source.ID]; err != nil {
		return nil, err
	}
	return m.items[source.ID], nil
}

type mockGateway struct {
	response string
	err      error
	calls    int
	prompts  []string
}

func (m *mockGateway) Generate(_ context.Context, _, _ string, req ai.Request) (*ai.Result, error) {
	m.calls++
	m.prompts = append(m.prompts, req.Prompt)
	if m.err != nil {
		return nil, m.err
	}
	return &ai.Result{Text: m.response, Provider: "gemini", Model: "m", InputTokens: 100, OutputTokens: 50, CostUSD: 0.001}, nil
}

type mockTelegram struct {
	sent    []string
	sendErr error
}

func (m *mockTelegram) SendMessage(_ context.Context, _, _, text, _ string) (string, error) {
	if m.sendErr != nil {
		return "", m.sendErr
	}
	m.sent = append(m.sent, text)
	return "msg-1", nil
}

type mockWebsite struct {
	published  []publisher.Article
	publishErr error
}

func (m *mockWebsite) Publish(_ context.Context, article publisher.Article) (*models.BlogPost, error) {
	if m.publishErr != nil {
		return nil, m.publishErr
	}
	m.published = append(m.published, article)
	return &models.BlogPost{ID: 9, Slug: "slug-9", Title: article.Title}, nil
}

func newTestProcessor(store *mockStore, fetcher *mockFetcher, gw *mockGateway, tg *mockTelegram, web *mockWebsite) *Processor {
	return New(store, fetcher, gw, tg, web, &config.Config{})
}

func feedItem(title, link string) feed.Item {
	return feed.Item{Title: title, Link: link, Summary: "summary", PublishedAt: time.Now()}
}

// --- CheckSources ---

func TestCheckSources_EnqueuesNewItems(t *testing.T) {
	store := newMockStore()
	store.sources = []models.Source{{ID: 1, Name: "Feed A", Target: models.TargetBoth}}
	fetcher := &mockFetcher{items: map[uint][]feed.Item{
		1: {feedItem("خبر اول", "https://a.ir/1"), feedItem("خبر دوم", "https://a.ir/2")},
	}}
	p := newTestProcessor(store, fetcher, &mockGateway{}, &mockTelegram{}, &mockWebsite{})

	if err := p.CheckSources(context.Background()); err != nil {
		t.Fatalf("CheckSources returned error: %v", err)
	}
	if len(store.queue) != 2 {
		t.Fatalf("Expected 2 queued items, got %d", len(store.queue))
	}
}

func TestCheckSources_SkipsLoggedURL(t *testing.T) {
	store := newMockStore()
	store.sources = []models.Source{{ID: 1, Name: "Feed A"}}
	store.loggedURLs["https://a.ir/1"] = true
	fetcher := &mockFetcher{items: map[uint][]feed.Item{
		1: {feedItem("خبر", "https://a.ir/1")},
	}}
	p := newTestProcessor(store, fetcher, &mockGateway{}, &mockTelegram{}, &mockWebsite{})

	if err := p.CheckSources(context.Background()); err != nil {
		t.Fatalf("CheckSources returned error: %v", err)
	}
	if len(store.queue) != 0 {
		t.Errorf("Already-processed item must not be re-enqueued, queue=%d", len(store.queue))
	}
}

func TestCheckSources_FailsClosedOnStorageError(t *testing.T) {
	store := newMockStore()
	store.sources = []models.Source{{ID: 1, Name: "Feed A"}}
	store.urlCheckErr = errors.New("db unreachable")
	fetcher := &mockFetcher{items: map[uint][]feed.Item{
		1: {feedItem("خبر", "https://a.ir/1")},
	}}
	p := newTestProcessor(store, fetcher, &mockGateway{}, &mockTelegram{}, &mockWebsite{})

	if err := p.CheckSources(context.Background()); err != nil {
		t.Fatalf("CheckSources returned error: %v", err)
	}
	if len(store.queue) != 0 {
		t.Error("Dedup storage error must skip the item, not enqueue it")
	}
}

func TestCheckSources_SourceFailureIsolated(t *testing.T) {
	store := newMockStore()
	store.sources = []models.Source{
		{ID: 1, Name: "Broken"},
		{ID: 2, Name: "Healthy"},
	}
	fetcher := &mockFetcher{
		items: map[uint][]feed.Item{2: {feedItem("خبر", "https://b.ir/1")}},
		errs:  map[uint]error{1: errors.New("timeout")},
	}
	p := newTestProcessor(store, fetcher, &mockGateway{}, &mockTelegram{}, &mockWebsite{})

	if err := p.CheckSources(context.Background()); err != nil {
		t.Fatalf("CheckSources returned error: %v", err)
	}
	if len(store.queue) != 1 {
		t.Errorf("Healthy source should still enqueue, got %d items", len(store.queue))
	}
}

func TestCheckSources_InactiveAutomation(t *testing.T) {
	store := newMockStore()
	store.settings.Active = false
	store.sources = []models.Source{{ID: 1, Name: "Feed A"}}
	fetcher := &mockFetcher{items: map[uint][]feed.Item{1: {feedItem("خبر", "https://a.ir/1")}}}
	p := newTestProcessor(store, fetcher, &mockGateway{}, &mockTelegram{}, &mockWebsite{})

	if err := p.CheckSources(context.Background()); err != nil {
		t.Fatalf("CheckSources returned error: %v", err)
	}
	if len(store.queue) != 0 {
		t.Error("Disabled automation must not enqueue")
	}
}

func TestCheckSources_DuplicateTitleSameSource(t *testing.T) {
	store := newMockStore()
	store.sources = []models.Source{{ID: 1, Name: "Feed A"}}
	store.titles["Feed A"] = []string{"Central Bank Announces New Exchange Rate Policy"}
	fetcher := &mockFetcher{items: map[uint][]feed.Item{
		1: {feedItem("central bank announces new exchange rate policy", "https://a.ir/other")},
	}}
	p := newTestProcessor(store, fetcher, &mockGateway{}, &mockTelegram{}, &mockWebsite{})

	if err := p.CheckSources(context.Background()); err != nil {
		t.Fatalf("CheckSources returned error: %v", err)
	}
	if len(store.queue) != 0 {
		t.Error("Normalized-title duplicate must be skipped")
	}
}

// --- PublishNext ---

func queueOne(store *mockStore, target string) {
	store.queue = append(store.queue, &models.QueueItem{
		ID: 1, Title: "خبر مهم", Link: "https://a.ir/1", Summary: "خلاصه",
		SourceName: "Feed A", CategoryName: "اقتصاد", Target: target,
		Status: models.QueueStatusPending,
	})
}

func TestPublishNext_BothChannelsSent(t *testing.T) {
	store := newMockStore()
	queueOne(store, models.TargetBoth)
	gw := &mockGateway{response: "متن تولید شده"}
	tg := &mockTelegram{}
	web := &mockWebsite{}
	p := newTestProcessor(store, &mockFetcher{}, gw, tg, web)

	if err := p.PublishNext(context.Background()); err != nil {
		t.Fatalf("PublishNext returned error: %v", err)
	}
	if len(store.runLogs) != 1 {
		t.Fatalf("Expected 1 run log entry, got %d", len(store.runLogs))
	}
	entry := store.runLogs[0]
	if entry.TelegramStatus != models.ChannelStatusSent || entry.WebsiteStatus != models.ChannelStatusSent {
		t.Errorf("Expected both channels sent, got tg=%s web=%s", entry.TelegramStatus, entry.WebsiteStatus)
	}
	if entry.TelegramMessageID != "msg-1" || entry.BlogPostID != 9 || entry.BlogSlug != "slug-9" {
		t.Errorf("Entry missing channel artifacts: %+v", entry)
	}
	if entry.TokensUsed != 300 {
		t.Errorf("Expected 300 tokens across two calls, got %d", entry.TokensUsed)
	}
	if gw.calls != 2 {
		t.Errorf("Expected 2 separate AI calls, got %d", gw.calls)
	}
	if store.queue[0].Status != models.QueueStatusDone {
		t.Errorf("Queue item should be done, got %s", store.queue[0].Status)
	}
}

func TestPublishNext_ChannelIsolation(t *testing.T) {
	store := newMockStore()
	queueOne(store, models.TargetBoth)
	gw := &mockGateway{response: "متن"}
	tg := &mockTelegram{sendErr: errors.New("telegram down")}
	web := &mockWebsite{}
	p := newTestProcessor(store, &mockFetcher{}, gw, tg, web)

	if err := p.PublishNext(context.Background()); err != nil {
		t.Fatalf("PublishNext returned error: %v", err)
	}
	entry := store.runLogs[0]
	if entry.TelegramStatus != models.ChannelStatusFailed {
		t.Errorf("Expected telegram failed, got %s", entry.TelegramStatus)
	}
	if !strings.Contains(entry.TelegramError, "telegram down") {
		t.Errorf("Telegram error not recorded: %q", entry.TelegramError)
	}
	if entry.WebsiteStatus != models.ChannelStatusSent {
		t.Errorf("Website must succeed despite telegram failure, got %s", entry.WebsiteStatus)
	}
	if len(web.published) != 1 {
		t.Errorf("Website publish should have happened, got %d", len(web.published))
	}
}

func TestPublishNext_EscapesTitleForTelegram(t *testing.T) {
	store := newMockStore()
	queueOne(store, models.TargetTelegram)
	store.queue[0].Title = "Q&A: <Live> coverage"
	tg := &mockTelegram{}
	p := newTestProcessor(store, &mockFetcher{}, &mockGateway{response: "body"}, tg, &mockWebsite{})

	if err := p.PublishNext(context.Background()); err != nil {
		t.Fatalf("PublishNext returned error: %v", err)
	}
	if len(tg.sent) != 1 {
		t.Fatalf("Expected 1 Telegram send, got %d", len(tg.sent))
	}
	if !strings.HasPrefix(tg.sent[0], "<b>Q&amp;A: &lt;Live&gt; coverage</b>") {
		t.Errorf("Title must be HTML-escaped inside the bold wrapper, got %q", tg.sent[0])
	}
}

func TestPublishNext_TargetRouting(t *testing.T) {
	store := newMockStore()
	queueOne(store, models.TargetTelegram)
	gw := &mockGateway{response: "متن"}
	web := &mockWebsite{}
	p := newTestProcessor(store, &mockFetcher{}, gw, &mockTelegram{}, web)

	if err := p.PublishNext(context.Background()); err != nil {
		t.Fatalf("PublishNext returned error: %v", err)
	}
	entry := store.runLogs[0]
	if entry.TelegramStatus != models.ChannelStatusSent {
		t.Errorf("Expected telegram sent, got %s", entry.TelegramStatus)
	}
	if entry.WebsiteStatus != models.ChannelStatusSkipped {
		t.Errorf("Website should be skipped for telegram-only target, got %s", entry.WebsiteStatus)
	}
	if len(web.published) != 0 {
		t.Error("Website publish must not happen for telegram-only target")
	}
}

func TestPublishNext_CombinedMode(t *testing.T) {
	store := newMockStore()
	store.settings.CombinedProcessing = true
	queueOne(store, models.TargetBoth)
	gw := &mockGateway{response: `{"telegram_summary":"خلاصه تلگرام","website_content":"<p>مقاله</p>"}`}
	tg := &mockTelegram{}
	web := &mockWebsite{}
	p := newTestProcessor(store, &mockFetcher{}, gw, tg, web)

	if err := p.PublishNext(context.Background()); err != nil {
		t.Fatalf("PublishNext returned error: %v", err)
	}
	if gw.calls != 1 {
		t.Errorf("Combined mode should make exactly one AI call, got %d", gw.calls)
	}
	entry := store.runLogs[0]
	if entry.TelegramStatus != models.ChannelStatusSent || entry.WebsiteStatus != models.ChannelStatusSent {
		t.Errorf("Both channels should deliver, got tg=%s web=%s", entry.TelegramStatus, entry.WebsiteStatus)
	}
	if len(tg.sent) != 1 || !strings.Contains(tg.sent[0], "خلاصه تلگرام") {
		t.Errorf("Telegram should carry the combined summary, got %v", tg.sent)
	}
}

func TestPublishNext_CombinedMalformedFallsBack(t *testing.T) {
	store := newMockStore()
	store.settings.CombinedProcessing = true
	queueOne(store, models.TargetBoth)
	gw := &mockGateway{response: "not json at all"}
	p := newTestProcessor(store, &mockFetcher{}, gw, &mockTelegram{}, &mockWebsite{})

	if err := p.PublishNext(context.Background()); err != nil {
		t.Fatalf("PublishNext returned error: %v", err)
	}
	// One failed combined call plus two per-channel calls.
	if gw.calls != 3 {
		t.Errorf("Expected 3 AI calls after fallback, got %d", gw.calls)
	}
	entry := store.runLogs[0]
	if entry.TelegramStatus != models.ChannelStatusSent || entry.WebsiteStatus != models.ChannelStatusSent {
		t.Errorf("Fallback should still deliver both, got tg=%s web=%s", entry.TelegramStatus, entry.WebsiteStatus)
	}
}

func TestPublishNext_AIFailureRecorded(t *testing.T) {
	store := newMockStore()
	queueOne(store, models.TargetBoth)
	gw := &mockGateway{err: ai.ErrProviderUnavailable}
	p := newTestProcessor(store, &mockFetcher{}, gw, &mockTelegram{}, &mockWebsite{})

	if err := p.PublishNext(context.Background()); err != nil {
		t.Fatalf("PublishNext returned error: %v", err)
	}
	entry := store.runLogs[0]
	if entry.TelegramStatus != models.ChannelStatusFailed || entry.WebsiteStatus != models.ChannelStatusFailed {
		t.Errorf("Both channels should fail, got tg=%s web=%s", entry.TelegramStatus, entry.WebsiteStatus)
	}
	if store.queue[0].Status != models.QueueStatusFailed {
		t.Errorf("Queue item should be failed, got %s", store.queue[0].Status)
	}
}

func TestPublishNext_EmptyQueue(t *testing.T) {
	store := newMockStore()
	p := newTestProcessor(store, &mockFetcher{}, &mockGateway{}, &mockTelegram{}, &mockWebsite{})

	err := p.PublishNext(context.Background())
	if !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Expected ErrNotFound for empty queue, got %v", err)
	}
}
