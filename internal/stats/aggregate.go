package stats

import (
	"time"

	"github.com/Curisan/anthropic-econ-index/internal/models"
)

type occupationKey struct {
	title   string
	titleCN string
}

type accumulator struct {
	stats        *models.OccupationStats
	scoreTotal   float64
	nonZeroTotal float64
	nonZeroCount int
}

// Aggregate computes one OccupationStats per distinct (title, title_cn) pair, in order of
// first appearance. percentage_non_zero is the mean over tasks with exposure > 0, or 0
// when there are none.
func Aggregate(records []*models.TaskRecord, rebuiltAt time.Time) []*models.OccupationStats {
	byKey := make(map[occupationKey]*accumulator)
	var order []*accumulator

	for _, rec := range records {
		key := occupationKey{title: rec.Title, titleCN: rec.TitleCN}
		acc, ok := byKey[key]
		if !ok {
			acc = &accumulator{stats: &models.OccupationStats{
				Title:     rec.Title,
				TitleCN:   rec.TitleCN,
				RebuiltAt: rebuiltAt,
			}}
			byKey[key] = acc
			order = append(order, acc)
		}

		acc.stats.TaskCount++
		acc.stats.PercentageSum += rec.Percentage
		acc.scoreTotal += float64(rec.AutomatedScore)
		if rec.Percentage > 0 {
			acc.nonZeroTotal += rec.Percentage
			acc.nonZeroCount++
		}
	}

	out := make([]*models.OccupationStats, 0, len(order))
	for _, acc := range order {
		acc.stats.AutomatedScoreAvg = acc.scoreTotal / float64(acc.stats.TaskCount)
		if acc.nonZeroCount > 0 {
			acc.stats.PercentageNonZero = acc.nonZeroTotal / float64(acc.nonZeroCount)
		}
		out = append(out, acc.stats)
	}
	return out
}
