// Package publisher creates website articles from transformed content.
package publisher

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kiasilver/rozegar-sub005/internal/models"
	"github.com/kiasilver/rozegar-sub005/internal/transform"
)

// BlogStore is the storage surface the publisher needs.
type BlogStore interface {
	CreateBlogPost(ctx context.Context, post *models.BlogPost) error
	SlugExists(ctx context.Context, slug string) (bool, error)
}

// Publisher writes blog rows for the website channel.
type Publisher struct {
	store BlogStore
}

func New(store BlogStore) *Publisher {
	return &Publisher{store: store}
}

// Article is the channel-ready payload for one website post.
type Article struct {
	Title      string
	Content    string
	Excerpt    string
	CategoryID uint
	ImageURL   string
	SourceName string
	ForceSEO   bool
}

// Publish cleans the content, derives a unique slug, and inserts the blog
// row. Returns the created post so the caller can log its ID and slug.
func (p *Publisher) Publish(ctx context.Context, article Article) (*models.BlogPost, error) {
	if strings.TrimSpace(article.Title) == "" {
		return nil, fmt.Errorf("article title is empty")
	}

	slug, err := p.uniqueSlug(ctx, article.Title)
	if err != nil {
		return nil, err
	}

	post := &models.BlogPost{
		Title:        strings.TrimSpace(article.Title),
		Slug:         slug,
		Content:      transform.CleanForBlog(article.Content),
		Excerpt:      article.Excerpt,
		CategoryID:   article.CategoryID,
		ImageURL:     article.ImageURL,
		Published:    true,
		AuthorSource: article.SourceName,
	}

	if article.ForceSEO {
		post.SEOTitle = post.Title
		post.SEOKeywords = strings.Join(transform.ExtractKeywords(article.Title, article.Content), ", ")
	}

	if err := p.store.CreateBlogPost(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

// slugUnsafe matches everything that is not a Persian or Latin word
// character. Persian letters stay in the slug; the CMS router handles
// unicode paths.
var slugUnsafe = regexp.MustCompile(`[^\x{0600}-\x{06FF}a-z0-9]+`)

// Slugify turns a title into a URL slug.
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = slugUnsafe.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len([]rune(s)) > 80 {
		s = strings.Trim(string([]rune(s)[:80]), "-")
	}
	return s
}

// uniqueSlug appends a timestamp suffix when the natural slug is taken.
func (p *Publisher) uniqueSlug(ctx context.Context, title string) (string, error) {
	slug := Slugify(title)
	if slug == "" {
		slug = fmt.Sprintf("post-%d", time.Now().Unix())
	}

	exists, err := p.store.SlugExists(ctx, slug)
	if err != nil {
		return "", fmt.Errorf("check slug: %w", err)
	}
	if !exists {
		return slug, nil
	}
	return fmt.Sprintf("%s-%d", slug, time.Now().Unix()), nil
}
