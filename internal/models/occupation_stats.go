package models

import "time"

// StatsMetric names a value projected from OccupationStats
type StatsMetric string

const (
	// MetricPercentageSum is the sum of exposure over all tasks
	MetricPercentageSum StatsMetric = "percentage_sum"
	// MetricPercentageNonZero is the mean exposure over tasks with exposure > 0
	MetricPercentageNonZero StatsMetric = "percentage_non_zero"
)

// OccupationStats holds the derived statistics for one (title, title_cn) pair
type OccupationStats struct {
	ID                int64     `json:"id"`
	Title             string    `json:"title"`
	TitleCN           string    `json:"title_cn"`
	PercentageSum     float64   `json:"percentage_sum"`
	PercentageNonZero float64   `json:"percentage_non_zero"`
	AutomatedScoreAvg float64   `json:"automated_score_avg"`
	TaskCount         int       `json:"task_count"`
	RebuiltAt         time.Time `json:"rebuilt_at"`
}

// Value returns the field selected by metric and whether the metric is known
func (s *OccupationStats) Value(metric StatsMetric) (float64, bool) {
	switch metric {
	case MetricPercentageSum:
		return s.PercentageSum, true
	case MetricPercentageNonZero:
		return s.PercentageNonZero, true
	default:
		return 0, false
	}
}

// OccupationStatValue is one row of a stats listing
type OccupationStatValue struct {
	Title   string  `json:"title"`
	TitleCN string  `json:"title_cn"`
	Value   float64 `json:"value"`
}
