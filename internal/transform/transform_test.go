package transform

import (
	"strings"
	"testing"
	"time"

	"github.com/kiasilver/rozegar-sub005/internal/models"
)

func testSettings() *models.Settings {
	return &models.Settings{
		CheckInterval:      10 * time.Minute,
		TelegramLength:     models.LengthShort,
		TelegramTone:       models.ToneReporter,
		WebsiteLength:      models.LengthLong,
		WebsiteTone:        models.ToneReporterAnalytical,
		CombinedProcessing: true,
	}
}

func TestBuildTelegramPrompt(t *testing.T) {
	in := Input{Title: "عنوان خبر", Content: "متن خبر", Category: "اقتصاد"}
	p := BuildTelegramPrompt(in, testSettings())

	if !strings.Contains(p, "عنوان خبر") || !strings.Contains(p, "متن خبر") || !strings.Contains(p, "اقتصاد") {
		t.Error("Prompt missing title, content, or category")
	}
	if !strings.Contains(p, "300 to 500 chars") {
		t.Error("Prompt missing short length range")
	}
	if strings.Contains(p, "{") {
		t.Errorf("Unreplaced placeholder in prompt: %s", p)
	}
}

func TestBuildTelegramPrompt_CustomTemplate(t *testing.T) {
	s := testSettings()
	s.CustomPrompt = "Summarize {title} in {lengthLimit}"
	p := BuildTelegramPrompt(Input{Title: "T", Content: "C"}, s)
	if p != "Summarize T in 300 to 500 chars" {
		t.Errorf("Custom template not rendered, got %q", p)
	}
}

func TestBuildWebsitePrompt_LengthVariants(t *testing.T) {
	in := Input{Title: "T", Content: "C", Category: "X"}

	s := testSettings()
	s.WebsiteLength = models.LengthShort
	if !strings.Contains(BuildWebsitePrompt(in, s), "approx 500 words") {
		t.Error("Short website prompt missing word target")
	}
	s.WebsiteLength = models.LengthLong
	if !strings.Contains(BuildWebsitePrompt(in, s), "over 1000 words") {
		t.Error("Long website prompt missing word target")
	}
}

func TestBuildCombinedPrompt(t *testing.T) {
	p := BuildCombinedPrompt(Input{Title: "T", Content: "C", Category: "X"}, testSettings())
	if !strings.Contains(p, "telegram_summary") || !strings.Contains(p, "website_content") {
		t.Error("Combined prompt missing JSON keys")
	}
	if strings.Contains(p, "{telegramLength}") || strings.Contains(p, "{websiteLength}") {
		t.Error("Combined prompt has unreplaced length placeholders")
	}
}

func TestCombinedUsable(t *testing.T) {
	s := testSettings()
	if !CombinedUsable(s) {
		t.Error("Expected combined mode usable with default prompts")
	}
	s.CustomPrompt = "custom"
	if CombinedUsable(s) {
		t.Error("Custom prompt should disable combined mode")
	}
	s.CustomPrompt = ""
	s.CombinedProcessing = false
	if CombinedUsable(s) {
		t.Error("Disabled flag should disable combined mode")
	}
}

func TestCleanForTelegram(t *testing.T) {
	raw := `<h2>سرخط</h2><p>پاراگراف اول</p><ul><li>مورد یک</li><li>مورد دو</li></ul><span>ساده</span>`
	got := CleanForTelegram(raw)

	if !strings.Contains(got, "<b>سرخط</b>") {
		t.Errorf("Heading should become bold, got %q", got)
	}
	if !strings.Contains(got, "• مورد یک") {
		t.Errorf("List items should become bullets, got %q", got)
	}
	if strings.Contains(got, "<span>") || strings.Contains(got, "<ul>") {
		t.Errorf("Disallowed tags should be removed, got %q", got)
	}
	if strings.Contains(got, "\n\n\n") {
		t.Errorf("Blank lines should be collapsed, got %q", got)
	}
}

func TestCleanForTelegram_KeepsInlineTags(t *testing.T) {
	got := CleanForTelegram(`<p><strong>مهم</strong> و <em>تاکید</em> و <a href="https://x.ir">لینک</a></p>`)
	if !strings.Contains(got, "<b>مهم</b>") {
		t.Errorf("strong should map to b, got %q", got)
	}
	if !strings.Contains(got, "<i>تاکید</i>") {
		t.Errorf("em should map to i, got %q", got)
	}
	if !strings.Contains(got, `<a href="https://x.ir">لینک</a>`) {
		t.Errorf("Links should survive, got %q", got)
	}
}

func TestCleanForTelegram_DropsScripts(t *testing.T) {
	got := CleanForTelegram(`<p>متن</p><script>alert(1)</script>`)
	if strings.Contains(got, "alert") {
		t.Errorf("Script content must be dropped, got %q", got)
	}
}

func TestCleanForBlog(t *testing.T) {
	raw := `<h2>تیتر</h2><p>متن <span style="x">درون</span></p><script>bad()</script>`
	got := CleanForBlog(raw)

	if !strings.Contains(got, "<h2>تیتر</h2>") {
		t.Errorf("h2 should survive, got %q", got)
	}
	if !strings.Contains(got, "درون") || strings.Contains(got, "<span") {
		t.Errorf("span should unwrap keeping text, got %q", got)
	}
	if strings.Contains(got, "bad()") {
		t.Errorf("Script content must be dropped, got %q", got)
	}
}

func TestExtractKeywords(t *testing.T) {
	kws := ExtractKeywords("قیمت خودرو در بازار", "قیمت خودرو امروز افزایش یافت")
	if len(kws) == 0 || len(kws) > 5 {
		t.Fatalf("Expected 1 to 5 keywords, got %v", kws)
	}
	seen := map[string]bool{}
	for _, k := range kws {
		if seen[k] {
			t.Errorf("Duplicate keyword %q", k)
		}
		seen[k] = true
	}
}

func TestWatermark(t *testing.T) {
	got := Watermark("متن", "https://rozegar.ir")
	if !strings.HasSuffix(got, "https://rozegar.ir") {
		t.Errorf("Watermark missing, got %q", got)
	}
	if Watermark("متن", "") != "متن" {
		t.Error("Empty site URL should leave content untouched")
	}
}
