package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// clickImportedTab activates the imported-cars tab on listing pages that ship
// both lists behind a client-side toggle. Matching by visible text is the only
// stable handle; the tab carries no id.
const clickImportedTab = `(() => {
	const els = Array.from(document.querySelectorAll('div, button, a, span'));
	const tab = els.find(el => el.textContent && el.textContent.trim() === 'وارداتی' &&
		(String(el.className).includes('chip') || String(el.className).includes('tab')));
	if (tab) tab.click();
})()`

// Renderer turns a listing URL into fully rendered HTML. The production
// implementation drives a headless browser; tests substitute static pages.
type Renderer interface {
	Render(ctx context.Context, pageURL string) (string, error)
}

type chromeRenderer struct {
	timeout time.Duration
}

// NewChromeRenderer returns a Renderer backed by a headless Chrome instance.
func NewChromeRenderer(timeout time.Duration) Renderer {
	return &chromeRenderer{timeout: timeout}
}

func (r *chromeRenderer) Render(ctx context.Context, pageURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.UserAgent(browserUserAgent),
		chromedp.WindowSize(1920, 1080),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	browserCtx, cancelTimeout := context.WithTimeout(browserCtx, r.timeout)
	defer cancelTimeout()

	actions := []chromedp.Action{
		chromedp.Navigate(pageURL),
		chromedp.Sleep(2 * time.Second),
	}
	if strings.Contains(pageURL, "imported=1") {
		actions = append(actions,
			chromedp.Evaluate(clickImportedTab, nil),
			chromedp.Sleep(2*time.Second),
		)
	}
	// Listing pages lazy-load rows on scroll.
	for i := 0; i < 8; i++ {
		actions = append(actions,
			chromedp.Evaluate(`window.scrollBy(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(400*time.Millisecond),
		)
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html, chromedp.ByQuery))

	if err := chromedp.Run(browserCtx, actions...); err != nil {
		return "", fmt.Errorf("render page %s: %w", pageURL, err)
	}
	return html, nil
}
