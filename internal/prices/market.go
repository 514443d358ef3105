package prices

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kiasilver/rozegar-sub005/internal/scraper"
)

const defaultMarketURL = "https://donya-e-eqtesad.com/"

// MarketClient pulls the live quote carousel from the market data site. The
// carousel is filled by client-side JavaScript, so the page goes through the
// same headless renderer the car-price scraper uses.
type MarketClient struct {
	renderer scraper.Renderer
	url      string
}

func NewMarketClient(renderer scraper.Renderer) *MarketClient {
	return &MarketClient{renderer: renderer, url: defaultMarketURL}
}

// NewMarketClientWithURL overrides the source URL. Used by tests.
func NewMarketClientWithURL(renderer scraper.Renderer, url string) *MarketClient {
	return &MarketClient{renderer: renderer, url: url}
}

// FetchMarket renders the market page and extracts the quote carousel.
// Duplicate titles are collapsed, first occurrence wins.
func (m *MarketClient) FetchMarket(ctx context.Context) ([]Item, error) {
	html, err := m.renderer.Render(ctx, m.url)
	if err != nil {
		return nil, fmt.Errorf("fetch market page: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse market page: %w", err)
	}

	var items []Item
	seen := make(map[string]bool)
	doc.Find("#carousel_header li.plus, #carousel_header li.minus, #carousel_header li.equal").Each(func(_ int, li *goquery.Selection) {
		trend := TrendFlat
		if li.HasClass("plus") {
			trend = TrendUp
		} else if li.HasClass("minus") {
			trend = TrendDown
		}

		title := strings.TrimSpace(li.Find(".title a").First().Text())
		price := strings.TrimSpace(li.Find(".price span").First().Text())
		percentage := strings.TrimSpace(li.Find(".price-percentage .wrapper span").First().Text())
		if percentage == "" {
			percentage = "0.00 %"
		}

		if title == "" || price == "" || seen[title] {
			return
		}
		seen[title] = true
		items = append(items, Item{Title: title, Price: price, Percentage: percentage, Trend: trend})
	})

	if len(items) == 0 {
		return nil, fmt.Errorf("market carousel yielded no quotes")
	}
	return items, nil
}
