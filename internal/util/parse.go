package util

import (
	"regexp"
	"strconv"
	"strings"
)

// persianDigits maps Persian and Arabic-Indic digits to ASCII.
var persianDigits = strings.NewReplacer(
	"۰", "0", "۱", "1", "۲", "2", "۳", "3", "۴", "4",
	"۵", "5", "۶", "6", "۷", "7", "۸", "8", "۹", "9",
	"٠", "0", "١", "1", "٢", "2", "٣", "3", "٤", "4",
	"٥", "5", "٦", "6", "٧", "7", "٨", "8", "٩", "9",
)

// ToASCIIDigits replaces Persian and Arabic-Indic digits with their ASCII
// equivalents. Scraped price pages mix all three.
func ToASCIIDigits(s string) string {
	return persianDigits.Replace(s)
}

var nonDigitRegex = regexp.MustCompile(`[^\d]`)

// ParsePrice extracts an integer price from scraped text, tolerating Persian
// digits, thousands separators, and surrounding words. Returns 0 when no
// digits are present.
func ParsePrice(s string) int64 {
	cleaned := nonDigitRegex.ReplaceAllString(ToASCIIDigits(s), "")
	if cleaned == "" {
		return 0
	}
	v, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// ParseHourList parses a comma-separated hour list like "10,14,18".
// Invalid or out-of-range entries are skipped.
func ParseHourList(s string) []int {
	var hours []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(ToASCIIDigits(part))
		if part == "" {
			continue
		}
		h, err := strconv.Atoi(part)
		if err != nil || h < 0 || h > 23 {
			continue
		}
		hours = append(hours, h)
	}
	return hours
}

// ParseHHMM parses a "HH:MM" schedule string. ok is false for malformed or
// out-of-range input.
func ParseHHMM(s string) (hour, minute int, ok bool) {
	parts := strings.SplitN(strings.TrimSpace(ToASCIIDigits(s)), ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, 0, false
	}
	return h, m, true
}
