package models

import (
	"testing"
)

func TestLanguage_Valid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value Language
		valid bool
	}{
		{"english", LanguageEnglish, true},
		{"chinese", LanguageChinese, true},
		{"empty", Language(""), false},
		{"zh is not cn", Language("zh"), false},
		{"uppercase", Language("EN"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.value.Valid(); got != tt.valid {
				t.Errorf("Language(%q).Valid() = %v, want %v", tt.value, got, tt.valid)
			}
		})
	}
}

func TestNormalizeFeedbackCategory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want FeedbackCategory
	}{
		{"suggestion", FeedbackCategorySuggestion},
		{"bug", FeedbackCategoryBug},
		{"data", FeedbackCategoryData},
		{"other", FeedbackCategoryOther},
		{"unknown-category", FeedbackCategoryOther},
		{"", FeedbackCategoryOther},
		{"BUG", FeedbackCategoryOther},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			if got := NormalizeFeedbackCategory(tt.raw); got != tt.want {
				t.Errorf("NormalizeFeedbackCategory(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestOccupationStats_Value(t *testing.T) {
	t.Parallel()

	s := &OccupationStats{PercentageSum: 42.5, PercentageNonZero: 8.5}

	tests := []struct {
		metric StatsMetric
		want   float64
		ok     bool
	}{
		{MetricPercentageSum, 42.5, true},
		{MetricPercentageNonZero, 8.5, true},
		{StatsMetric("automated_score_avg"), 0, false},
		{StatsMetric(""), 0, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.metric), func(t *testing.T) {
			t.Parallel()
			got, ok := s.Value(tt.metric)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Value(%q) = (%v, %v), want (%v, %v)", tt.metric, got, ok, tt.want, tt.ok)
			}
		})
	}
}
