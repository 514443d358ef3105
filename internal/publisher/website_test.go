package publisher

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kiasilver/rozegar-sub005/internal/models"
)

type mockBlogStore struct {
	posts     []*models.BlogPost
	taken     map[string]bool
	createErr error
	slugErr   error
}

func newMockBlogStore() *mockBlogStore {
	return &mockBlogStore{taken: make(map[string]bool)}
}

func (m *mockBlogStore) CreateBlogPost(_ context.Context, post *models.BlogPost) error {
	if m.createErr != nil {
		return m.createErr
	}
	post.ID = uint(len(m.posts) + 1)
	m.posts = append(m.posts, post)
	return nil
}

func (m *mockBlogStore) SlugExists(_ context.Context, slug string) (bool, error) {
	if m.slugErr != nil {
		return false, m.slugErr
	}
	return m.taken[slug], nil
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"قیمت خودرو امروز", "قیمت-خودرو-امروز"},
		{"  Mixed فارسی & English!  ", "mixed-فارسی-english"},
		{"---", ""},
	}
	for _, tt := range tests {
		if got := Slugify(tt.input); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestSlugify_CapsLength(t *testing.T) {
	got := Slugify(strings.Repeat("عنوان ", 50))
	if n := len([]rune(got)); n > 80 {
		t.Errorf("Slug too long: %d runes", n)
	}
}

func TestPublish(t *testing.T) {
	store := newMockBlogStore()
	p := New(store)

	post, err := p.Publish(context.Background(), Article{
		Title:      "خبر مهم اقتصادی",
		Content:    "<p>متن</p><script>x()</script>",
		CategoryID: 3,
		SourceName: "Khabar Online",
	})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if post.ID == 0 {
		t.Error("Expected assigned post ID")
	}
	if post.Slug != "خبر-مهم-اقتصادی" {
		t.Errorf("Unexpected slug: %s", post.Slug)
	}
	if strings.Contains(post.Content, "script") {
		t.Errorf("Content should be cleaned, got %q", post.Content)
	}
	if post.SEOKeywords != "" {
		t.Error("SEO fields should be empty without ForceSEO")
	}
}

func TestPublish_ForceSEO(t *testing.T) {
	store := newMockBlogStore()
	p := New(store)

	post, err := p.Publish(context.Background(), Article{
		Title:    "قیمت دلار در بازار تهران",
		Content:  "قیمت دلار امروز در بازار آزاد تهران افزایش یافت",
		ForceSEO: true,
	})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if post.SEOTitle == "" || post.SEOKeywords == "" {
		t.Errorf("Expected SEO fields populated, got title=%q keywords=%q", post.SEOTitle, post.SEOKeywords)
	}
}

func TestPublish_SlugCollision(t *testing.T) {
	store := newMockBlogStore()
	store.taken["خبر-تکراری"] = true
	p := New(store)

	post, err := p.Publish(context.Background(), Article{Title: "خبر تکراری", Content: "x"})
	if err != nil {
		t.Fatalf("Publish returned error: %v", err)
	}
	if post.Slug == "خبر-تکراری" {
		t.Error("Expected suffixed slug on collision")
	}
	if !strings.HasPrefix(post.Slug, "خبر-تکراری-") {
		t.Errorf("Suffixed slug should keep the base, got %s", post.Slug)
	}
}

func TestPublish_EmptyTitle(t *testing.T) {
	p := New(newMockBlogStore())
	if _, err := p.Publish(context.Background(), Article{Title: "  "}); err == nil {
		t.Error("Expected error for empty title")
	}
}

func TestPublish_StoreError(t *testing.T) {
	store := newMockBlogStore()
	store.createErr = errors.New("db down")
	p := New(store)
	if _, err := p.Publish(context.Background(), Article{Title: "T", Content: "C"}); err == nil {
		t.Error("Expected error when store fails")
	}
}
