package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/kiasilver/rozegar-sub005/internal/config"
	"github.com/kiasilver/rozegar-sub005/internal/models"
	"github.com/kiasilver/rozegar-sub005/internal/util"
)

const maxScrapeRetries = 3

// Scraper extracts price rows from a car-price listing page.
type Scraper interface {
	ScrapePrices(ctx context.Context, source models.ScrapeSource) ([]models.CarPrice, error)
}

type Client struct {
	renderer  Renderer
	selectors SelectorConfig
}

func New(cfg *config.Config) *Client {
	return &Client{
		renderer:  &chromeRenderer{timeout: cfg.ScrapeTimeout},
		selectors: LoadConfig(),
	}
}

// NewWithRenderer builds a client around a custom renderer. Used by tests to
// feed static HTML.
func NewWithRenderer(r Renderer, selectors SelectorConfig) *Client {
	return &Client{renderer: r, selectors: selectors}
}

// ScrapePrices renders the source page and extracts its price table. A page
// that renders but yields zero rows is an error: either the site blocked us
// or the markup changed, and stale rows in storage are better than an empty
// table.
func (c *Client) ScrapePrices(ctx context.Context, source models.ScrapeSource) ([]models.CarPrice, error) {
	var prices []models.CarPrice

	err := util.RetryWithBackoff(ctx, maxScrapeRetries, time.Second, func(attempt int) error {
		if attempt > 0 {
			slog.Warn("Retrying price scrape", "source", source.Name, "attempt", attempt+1)
		}
		html, err := c.renderer.Render(ctx, source.URL)
		if err != nil {
			return err
		}
		rows, err := c.parsePriceList(html, source.ID)
		if err != nil {
			return err
		}
		prices = rows
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scrape %s: %w", source.Name, err)
	}

	slog.Info("Price scrape finished", "source", source.Name, "rows", len(prices))
	return prices, nil
}

// titleSplit separates brand, model and trim. Listing titles use either the
// Latin or the Persian comma.
var titleSplit = regexp.MustCompile(`[,،]`)

var collapseSpaces = regexp.MustCompile(`\s+`)

func cleanText(s string) string {
	s = strings.ReplaceAll(s, "]", "")
	return strings.TrimSpace(collapseSpaces.ReplaceAllString(s, " "))
}

func (c *Client) parsePriceList(html string, sourceID uint) ([]models.CarPrice, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}

	rows := c.findRows(doc)
	if rows == nil || rows.Length() == 0 {
		return nil, fmt.Errorf("no price rows matched any selector strategy")
	}

	var prices []models.CarPrice
	rows.Each(func(_ int, row *goquery.Selection) {
		link := row
		if !row.Is("a") {
			link = row.Find("a").First()
			if link.Length() == 0 {
				return
			}
		}

		title := cleanText(link.Find(c.selectors.PriceList.Elements.Title).First().Text())
		if title == "" {
			title = cleanText(link.Text())
		}

		var brand, model, trim string
		parts := splitTitle(title)
		if len(parts) > 0 {
			brand = parts[0]
		}
		if len(parts) > 1 {
			model = parts[1]
		}
		if len(parts) > 2 {
			trim = strings.TrimLeft(strings.Join(parts[2:], " "), ":-")
			trim = strings.TrimSpace(trim)
		}

		var year, priceText, change string
		details := link.Find(c.selectors.PriceList.Elements.Details).First()
		if details.Length() > 0 {
			cells := details.Children()
			year = cleanText(cells.Eq(0).Text())
			priceCell := cells.Eq(3)
			priceText = cleanText(priceCell.Find(c.selectors.PriceList.Elements.Price).First().Text())
			change = cleanText(priceCell.Find(c.selectors.PriceList.Elements.Change).First().Text())
		}

		if brand == "" || priceText == "" {
			return
		}
		if model == "" {
			model = brand
		}

		prices = append(prices, models.CarPrice{
			SourceID:  sourceID,
			Brand:     brand,
			Model:     model,
			Trim:      trim,
			Year:      year,
			Price:     util.ParsePrice(priceText),
			PriceText: priceText,
			Change:    change,
		})
	})

	if len(prices) == 0 {
		return nil, fmt.Errorf("matched %d rows but extracted no usable prices", rows.Length())
	}
	return prices, nil
}

// findRows walks the configured strategies in order and returns the first
// selection with at least one row. The final link strategy additionally drops
// hrefs carrying query strings, which are navigation chips rather than price
// rows.
func (c *Client) findRows(doc *goquery.Document) *goquery.Selection {
	strategies := c.selectors.PriceList.RowStrategies
	for i, strategy := range strategies {
		sel := doc.Find(strategy)
		if i == len(strategies)-1 {
			sel = sel.FilterFunction(func(_ int, s *goquery.Selection) bool {
				href, ok := s.Attr("href")
				return ok && !strings.Contains(href, "?")
			})
		}
		if sel.Length() > 0 {
			return sel
		}
	}
	return nil
}

func splitTitle(title string) []string {
	var parts []string
	for _, p := range titleSplit.Split(title, -1) {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}
