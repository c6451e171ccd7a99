package models

import "time"

// SearchEvent records one task-distribution lookup
type SearchEvent struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Language  Language  `json:"language"`
	ClientIP  *string   `json:"client_ip,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// PopularOccupation is a title with its search count inside a window
type PopularOccupation struct {
	Title string `json:"title"`
	Count int    `json:"count"`
}
