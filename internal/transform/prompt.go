// Package transform turns raw feed items into channel-ready Persian content.
package transform

import (
	"strings"

	"github.com/kiasilver/rozegar-sub005/internal/models"
)

// lengthRange maps a length preset to the instruction embedded in prompts.
func lengthRange(length string) string {
	switch length {
	case models.LengthShort:
		return "300 to 500 chars"
	case models.LengthMedium:
		return "600 to 900 chars"
	case models.LengthLong:
		return "1000 to 1500 chars"
	default:
		return "700 to 1000 chars"
	}
}

// websiteLengthRange is the article-scale variant used for blog prompts.
func websiteLengthRange(length string) string {
	switch length {
	case models.LengthShort:
		return "Concise (approx 500 words)"
	case models.LengthLong:
		return "Comprehensive and detailed (over 1000 words)"
	default:
		return "Standard news article (approx 700 words)"
	}
}

// toneInstruction returns the Persian style block for a tone preset.
func toneInstruction(tone string) string {
	switch tone {
	case models.ToneReporterAnalytical:
		return "شما یک روزنامه‌نگار تحلیلگر هستید. خبر را بازنویسی کنید، تحلیل و زمینه اضافه کنید و دلایل و پیامدها را بررسی کنید. لحن تحلیلی و حرفه‌ای."
	case models.ToneReporterOpinion:
		return "شما یک ستون‌نویس تحلیلی هستید. خبر را بازنویسی کنید و نظر تخصصی خود را همراه با پیشنهادات بیان کنید. لحن حرفه‌ای اما دارای دیدگاه."
	default:
		return "شما یک روزنامه‌نگار حرفه‌ای هستید. خبر را به صورت رسمی و بی‌طرفانه بازنویسی کنید. لحن خبری، بدون نظر شخصی."
	}
}

const defaultTelegramTemplate = `{tone}

عنوان: {title}
دسته: {category}

محتوای اصلی:
{content}

الزامات:
- خلاصه‌ای روان و جذاب برای کانال تلگرام بنویسید
- حفظ نکات و آمار مهم
- طول: {lengthLimit}
- بدون هشتگ و بدون لینک

فقط متن خلاصه را برگردانید:`

const defaultWebsiteTemplate = `{tone}

عنوان: {title}
دسته: {category}

محتوای اصلی:
{content}

الزامات:
- بازنویسی کامل و روان به زبان فارسی
- حفظ تمام جزئیات و آمار
- طول: {lengthLimit}
- ساختار: مقدمه، بدنه اصلی، نتیجه‌گیری
- خروجی با تگ‌های HTML ساده (p, h2, ul, li)

فقط متن بازنویسی شده را برگردانید (بدون عنوان اضافی):`

const combinedTemplate = `{tone}

عنوان: {title}
دسته: {category}

محتوای اصلی:
{content}

دو خروجی بسازید:
1. "telegram_summary": خلاصه برای کانال تلگرام، طول {telegramLength}
2. "website_content": بازنویسی کامل برای وب‌سایت با تگ‌های HTML ساده، طول {websiteLength}

خروجی را فقط به صورت یک شیء JSON با همین دو کلید برگردانید.`

// Input is the raw material for one item's prompts.
type Input struct {
	Title    string
	Content  string
	Category string
}

// BuildTelegramPrompt renders the Telegram prompt. A non-empty customTemplate
// from settings replaces the default wholesale; placeholders work in both.
func BuildTelegramPrompt(in Input, settings *models.Settings) string {
	template := settings.CustomPrompt
	if strings.TrimSpace(template) == "" {
		template = defaultTelegramTemplate
	}
	return renderTemplate(template, in, settings.TelegramTone, lengthRange(settings.TelegramLength))
}

// BuildWebsitePrompt renders the website article prompt, honoring the
// rewrite-prompt override from settings.
func BuildWebsitePrompt(in Input, settings *models.Settings) string {
	template := settings.RewritePrompt
	if strings.TrimSpace(template) == "" {
		template = defaultWebsiteTemplate
	}
	return renderTemplate(template, in, settings.WebsiteTone, websiteLengthRange(settings.WebsiteLength))
}

// BuildCombinedPrompt renders the single-call prompt producing both channel
// outputs as JSON. Custom prompts disable combined mode upstream, so this
// always uses the built-in template.
func BuildCombinedPrompt(in Input, settings *models.Settings) string {
	p := renderTemplate(combinedTemplate, in, settings.TelegramTone, "")
	p = strings.ReplaceAll(p, "{telegramLength}", lengthRange(settings.TelegramLength))
	p = strings.ReplaceAll(p, "{websiteLength}", websiteLengthRange(settings.WebsiteLength))
	return p
}

func renderTemplate(template string, in Input, tone, lengthLimit string) string {
	title := in.Title
	if title == "" {
		title = "News"
	}
	r := strings.NewReplacer(
		"{tone}", toneInstruction(tone),
		"{title}", title,
		"{content}", in.Content,
		"{category}", in.Category,
		"{lengthLimit}", lengthLimit,
	)
	return r.Replace(template)
}

// CombinedUsable reports whether combined single-call processing applies:
// it is skipped when either channel carries a custom prompt, since those are
// written against the per-channel templates.
func CombinedUsable(settings *models.Settings) bool {
	return settings.CombinedProcessing &&
		strings.TrimSpace(settings.CustomPrompt) == "" &&
		strings.TrimSpace(settings.RewritePrompt) == ""
}
