package storage

import (
	"context"
	"fmt"

	"github.com/kiasilver/rozegar-sub005/internal/models"
)

// CreateBlogPost inserts a website article. The CMS renders it; this service
// only writes the row and reports the generated ID back.
func (c *Client) CreateBlogPost(ctx context.Context, post *models.BlogPost) error {
	if err := c.db.WithContext(ctx).Create(post).Error; err != nil {
		return fmt.Errorf("failed to create blog post: %w", err)
	}
	return nil
}

// SlugExists reports whether a blog slug is already taken.
func (c *Client) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := c.db.WithContext(ctx).Model(&models.BlogPost{}).
		Where("slug = ?", slug).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check slug: %w", err)
	}
	return count > 0, nil
}
