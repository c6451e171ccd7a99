package models

import "time"

// FeedbackCategory classifies a feedback entry
type FeedbackCategory string

const (
	FeedbackCategorySuggestion FeedbackCategory = "suggestion"
	FeedbackCategoryBug        FeedbackCategory = "bug"
	FeedbackCategoryData       FeedbackCategory = "data"
	FeedbackCategoryOther      FeedbackCategory = "other"
)

// MaxFeedbackContentLength is the rune cap for feedback content
const MaxFeedbackContentLength = 2000

// NormalizeFeedbackCategory maps unknown values to FeedbackCategoryOther
func NormalizeFeedbackCategory(raw string) FeedbackCategory {
	switch c := FeedbackCategory(raw); c {
	case FeedbackCategorySuggestion, FeedbackCategoryBug, FeedbackCategoryData, FeedbackCategoryOther:
		return c
	default:
		return FeedbackCategoryOther
	}
}

// FeedbackEntry is a stored piece of user feedback
type FeedbackEntry struct {
	ID        int64            `json:"id"`
	Category  FeedbackCategory `json:"type"`
	Content   string           `json:"content"`
	ClientIP  *string          `json:"client_ip,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
