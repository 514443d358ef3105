package models

import "time"

// CarPrice is one scraped price row. Rows for a source are replaced wholesale
// inside a transaction on every successful scrape; a failed scrape leaves the
// previous rows untouched.
type CarPrice struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	SourceID  uint      `gorm:"index;not null" json:"source_id"`
	Brand     string    `gorm:"size:128" json:"brand"`
	Model     string    `gorm:"size:255;not null" json:"model"`
	Trim      string    `gorm:"size:255" json:"trim"`
	Year      string    `gorm:"size:16" json:"year"`
	Price     int64     `json:"price"`
	PriceText string    `gorm:"size:64" json:"price_text"`
	Change    string    `gorm:"size:32" json:"change"`
	CreatedAt time.Time `json:"created_at"`
}

func (CarPrice) TableName() string { return "car_prices" }
