package monitor

import "time"

type Status struct {
	PostgreSQL     bool      `json:"postgresql"`
	Redis          bool      `json:"redis"`
	Journal        bool      `json:"journal"`
	JournalBacklog int       `json:"journal_backlog"`
	LastCheck      time.Time `json:"last_check"`
}
