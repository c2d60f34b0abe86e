package models

import "time"

// Setting is one runtime-editable application setting
type Setting struct {
	ID          int64
	Key         string
	Value       string
	Description string
	Category    string
	UpdatedAt   time.Time
	UpdatedBy   *int64
}
