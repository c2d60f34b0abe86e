package models

import "time"

// Team belongs to exactly one league and one owning user
type Team struct {
	ID        int64
	Name      string
	LeagueID  int64
	OwnerID   int64
	CreatedAt time.Time
	OwnerName string // Populated via JOIN
}
