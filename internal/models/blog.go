package models

import "time"

// BlogPost is a website article created by the automation. The CMS renders
// these rows; this service only inserts them.
type BlogPost struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Title        string    `gorm:"size:1024;not null" json:"title" validate:"required"`
	Slug         string    `gorm:"size:512;uniqueIndex;not null" json:"slug" validate:"required"`
	Content      string    `gorm:"type:text" json:"content"`
	Excerpt      string    `gorm:"type:text" json:"excerpt"`
	CategoryID   uint      `gorm:"index" json:"category_id"`
	ImageURL     string    `gorm:"size:2048" json:"image_url"`
	SEOTitle     string    `gorm:"size:1024" json:"seo_title,omitempty"`
	SEOKeywords  string    `gorm:"size:1024" json:"seo_keywords,omitempty"`
	Published    bool      `gorm:"default:true" json:"published"`
	AuthorSource string    `gorm:"size:255" json:"author_source"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (BlogPost) TableName() string { return "blog_posts" }
