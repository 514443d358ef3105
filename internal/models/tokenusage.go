package models

import "time"

// TokenUsage records one AI generation attempt, successful or not. One row
// per attempt, so a fallback hop produces two rows.
type TokenUsage struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Provider     string    `gorm:"size:32;not null;index" json:"provider"`
	Model        string    `gorm:"size:64" json:"model"`
	Operation    string    `gorm:"size:64" json:"operation"`
	InputTokens  int       `json:"input_tokens"`
	OutputTokens int       `json:"output_tokens"`
	TotalTokens  int       `json:"total_tokens"`
	CostUSD      float64   `json:"cost_usd"`
	Succeeded    bool      `json:"succeeded"`
	ErrorKind    string    `gorm:"size:64" json:"error_kind,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

func (TokenUsage) TableName() string { return "token_usages" }
