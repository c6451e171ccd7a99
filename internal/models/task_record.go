package models

const (
	// MaxTaskTextLength is the rune cap applied to task descriptions at import
	MaxTaskTextLength = 1024
	// MaxScoreReasonLength is the rune cap applied to automation score rationales at import
	MaxScoreReasonLength = 4096
	// DefaultTaskType is stored when the source row has no task type
	DefaultTaskType = "未知"
)

// TaskRecord is one imported task row of an occupation. Rows are never updated;
// a reimport replaces the whole set.
type TaskRecord struct {
	ID                   int64   `json:"id"`
	OccupationCode       string  `json:"onet_soc_code"`
	Title                string  `json:"title"`
	TitleCN              string  `json:"title_cn"`
	TaskID               int64   `json:"task_id"`
	Task                 string  `json:"task"`
	TaskCN               string  `json:"task_cn"`
	TaskType             string  `json:"task_type"`
	IncumbentsResponding int     `json:"incumbents_responding"`
	Date                 string  `json:"date"`
	DomainSource         string  `json:"domain_source"`
	Percentage           float64 `json:"percentage"`
	AutomatedScore       int     `json:"automated_score"`
	AutomatedScoreReason string  `json:"automated_score_reason"`
}

// TaskShare is a task description with its exposure percentage
type TaskShare struct {
	Task       string  `json:"task"`
	Percentage float64 `json:"percentage"`
}
