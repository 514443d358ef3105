package prices

import (
	"fmt"
	"strings"
	"time"

	ptime "github.com/yaa110/go-persian-calendar"
)

// Trend directions reported by the market ticker source.
const (
	TrendUp   = "plus"
	TrendDown = "minus"
	TrendFlat = "equal"
)

// Item is one market quote from the ticker source.
type Item struct {
	Title      string
	Price      string
	Percentage string
	Trend      string
}

// MinMarketItems is the floor below which a ticker run is treated as a failed
// fetch rather than a sendable digest.
const MinMarketItems = 5

func trendEmoji(trend string) string {
	switch trend {
	case TrendUp:
		return " 📈"
	case TrendDown:
		return " 📉"
	}
	return ""
}

// DateHeader renders the Jalali date line that opens every digest.
func DateHeader(now time.Time) string {
	pt := ptime.New(now)

	season := "❄️"
	switch m := int(pt.Month()); {
	case m <= 3:
		season = "🌸"
	case m <= 6:
		season = "☀️"
	case m <= 9:
		season = "🍂"
	}

	return fmt.Sprintf("📅  %s, %d / %d / %d %s", pt.Weekday().String(), pt.Day(), int(pt.Month()), pt.Year(), season)
}

// find returns the first item whose title contains every given substring.
func find(items []Item, subs ...string) *Item {
	for i := range items {
		ok := true
		for _, sub := range subs {
			if !strings.Contains(items[i].Title, sub) {
				ok = false
				break
			}
		}
		if ok {
			return &items[i]
		}
	}
	return nil
}

func anyOf(title string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(title, sub) {
			return true
		}
	}
	return false
}

// FormatMarketDigest renders the Persian market digest sent as the ticker
// photo caption. Gold first, then currencies, then the exchange index, each
// in a fixed order so the channel layout stays stable across runs.
func FormatMarketDigest(items []Item, now time.Time) string {
	if len(items) == 0 {
		return "قیمتی یافت نشد"
	}

	var gold, currency, stocks, others []Item
	for _, item := range items {
		switch {
		case anyOf(item.Title, "طلا", "سکه", "مثقال", "اونس", "انس"):
			gold = append(gold, item)
		case anyOf(item.Title, "دلار", "یورو", "پوند", "درهم", "یوان", "لیر", "بیت کوین"):
			currency = append(currency, item)
		case anyOf(item.Title, "شاخص", "بورس"):
			stocks = append(stocks, item)
		default:
			others = append(others, item)
		}
	}

	var b strings.Builder
	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteString("\n\n")
	}

	b.WriteString(DateHeader(now))
	b.WriteString("\n\n")

	goldRows := []struct {
		label string
		item  *Item
	}{
		{"🧈 انس طلا:  ", firstOf(find(gold, "اونس طلا"), find(gold, "انس طلا"))},
		{"🧈 یک مثقال  ۱۸ عیار :    ", find(gold, "مثقال")},
		{"🧈 ۱گرم طلا ۱۸:  ", find(gold, "گرم طلا")},
		{"🟡 سکه امام :  ", firstOf(find(gold, "سکه امامی"), find(gold, "سکه امام"))},
		{"🟡 سکه بهار :  ", find(gold, "سکه بهار")},
		{"🟡 نیم سکه :    ", find(gold, "نیم سکه")},
		{"🟡 ربع سکه :    ", find(gold, "ربع سکه")},
	}
	for _, row := range goldRows {
		if row.item != nil {
			line("%s%s%s", row.label, row.item.Price, trendEmoji(row.item.Trend))
		}
	}

	currencyRows := []struct {
		label string
		item  *Item
	}{
		{"💸 دلار    ≈       ", find(currency, "دلار")},
		{"💶 یورو  ≈       ", find(currency, "یورو")},
		{"🇬🇧پوند.   ≈       ", find(currency, "پوند")},
		{"🇦🇪 درهم   ≈       ", find(currency, "درهم")},
		{"🇨🇳یوان    ≈       ", find(currency, "یوان")},
		{"🇹🇷لیر      ≈        ", find(currency, "لیر")},
		{"🪙 بیت کوین    ≈       ", find(currency, "بیت کوین")},
	}
	for _, row := range currencyRows {
		if row.item != nil {
			line("%s%s%s", row.label, row.item.Price, trendEmoji(row.item.Trend))
		}
	}

	for _, item := range stocks {
		fmt.Fprintf(&b, "%s : %s\n", item.Title, item.Price)
	}
	for _, item := range others {
		fmt.Fprintf(&b, "💎 %s:  %s (%s)%s\n", item.Title, item.Price, item.Percentage, trendEmoji(item.Trend))
	}

	b.WriteString("\n#قیمت_روز #انس_طلا #مثقال_طلا #گرم_طلا_۱۸ #سکه_امام #سکه_بهار_آزادی #نیم_سکه #ربع_سکه #دلار #یورو #درهم #بیت_کوین #شاخص_کل_بورس")

	return b.String()
}

func firstOf(candidates ...*Item) *Item {
	for _, c := range candidates {
		if c != nil {
			return c
		}
	}
	return nil
}
