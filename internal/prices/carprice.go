package prices

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/kiasilver/rozegar-sub005/internal/models"
	"github.com/kiasilver/rozegar-sub005/internal/notifier"
)

// rlm forces right-to-left rendering on lines that mix Persian and Latin text.
const rlm = "‏"

var bracketChars = strings.NewReplacer("[", "", "]", "")

// latinBase matches up to two leading Latin tokens, e.g. "MVM X22" out of
// "MVM X22 Pro IE".
var latinBase = regexp.MustCompile(`^[A-Za-z0-9]+( [A-Za-z0-9]+)?`)

func dedupeWords(s string) string {
	words := strings.Fields(s)
	var out []string
	for i, w := range words {
		if i == 0 || !strings.EqualFold(words[i-1], w) {
			out = append(out, w)
		}
	}
	return strings.Join(out, " ")
}

// fullModelName joins brand and model without repeating the brand when the
// listing already includes it.
func fullModelName(row models.CarPrice) string {
	model := strings.TrimSpace(bracketChars.Replace(row.Model))
	brand := strings.TrimSpace(bracketChars.Replace(row.Brand))
	if brand != "" && !hasPrefixFold(model, brand) {
		model = brand + " " + model
	}
	return dedupeWords(model)
}

func hasPrefixFold(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}

// baseModel extracts the grouping name: the leading Latin pair when present,
// otherwise the first word.
func baseModel(name string) string {
	if m := latinBase.FindString(name); m != "" {
		return m
	}
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return name
}

func formatThousands(n int64) string {
	s := fmt.Sprintf("%d", n)
	if len(s) <= 3 {
		return s
	}
	var parts []string
	for len(s) > 3 {
		parts = append([]string{s[len(s)-3:]}, parts...)
		s = s[:len(s)-3]
	}
	return s + "," + strings.Join(parts, ",")
}

type digestGroup struct {
	base string
	year string
	rows []models.CarPrice
}

// FormatCarPriceDigest renders one source's price table as a MarkdownV2
// Telegram message: rows grouped by base model and year, trims listed under
// each group, Jalali date and hashtags at the bottom. The manual test-send
// path goes through this exact function so what the operator previews is what
// the channel gets.
func FormatCarPriceDigest(sourceName string, rows []models.CarPrice, siteURL string, now time.Time) string {
	esc := notifier.EscapeMarkdownV2

	var b strings.Builder
	fmt.Fprintf(&b, "%s🔻 *%s*\n\n", rlm, esc(sourceName))

	if len(rows) == 0 {
		b.WriteString(rlm + "_قیمت بازار موجود نیست_\n\n")
	}

	groups := make(map[string]*digestGroup)
	var order []string
	for _, row := range rows {
		name := fullModelName(row)
		base := baseModel(name)
		year := row.Year
		if year == "" {
			year = "نامشخص"
		}
		key := base + "|" + year
		g, ok := groups[key]
		if !ok {
			g = &digestGroup{base: base, year: year}
			groups[key] = g
			order = append(order, key)
		}
		g.rows = append(g.rows, row)
	}

	sort.Slice(order, func(i, j int) bool {
		a, c := groups[order[i]], groups[order[j]]
		if a.base != c.base {
			return a.base < c.base
		}
		return a.year > c.year
	})

	for _, key := range order {
		g := groups[key]
		fmt.Fprintf(&b, "%s🔹 قیمت \\(%s %s\\)\n", rlm, esc(g.base), esc(g.year))

		sort.Slice(g.rows, func(i, j int) bool {
			return fullModelName(g.rows[i]) < fullModelName(g.rows[j])
		})
		for _, row := range g.rows {
			trim := rowTrim(row, g.base)
			price := row.PriceText
			if row.Price > 0 {
				price = formatThousands(row.Price)
			}
			fmt.Fprintf(&b, "%s▫️ \\(%s\\) : %s تومان\n", rlm, esc(trim), esc(price))
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\n%s%s\n\n", rlm, esc(DateHeader(now)))
	fmt.Fprintf(&b, "🔗 [مشاهده قیمت درب کارخانه](%s/car-prices)\n\n", strings.TrimRight(siteURL, "/"))

	fmt.Fprintf(&b, "%s ", hashtag("قیمت_"+strings.Join(strings.Fields(sourceName), "_")))
	b.WriteString(hashtag("قیمت_خودرو") + " " + hashtag("بازار_خودرو") + " " + hashtag("قیمت_روز_خودرو") + " " + hashtag("قیمت_ماشین"))

	return b.String()
}

// rowTrim derives the display trim: the explicit trim column when present,
// otherwise whatever the model name carries beyond the base, else the stock
// "پایه" label.
func rowTrim(row models.CarPrice, base string) string {
	trim := strings.TrimSpace(bracketChars.Replace(row.Trim))
	if trim == "" {
		name := fullModelName(row)
		trim = strings.TrimSpace(strings.TrimPrefix(name, base))
		trim = strings.TrimLeft(trim, ":-")
		trim = strings.TrimSpace(trim)
	}
	if trim == "" {
		return "پایه"
	}
	return dedupeWords(trim)
}

func hashtag(name string) string {
	return `\#` + strings.ReplaceAll(name, "_", `\_`)
}
