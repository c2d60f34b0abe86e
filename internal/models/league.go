package models

import "time"

// Capacity bounds for a league's max_teams
const (
	MinLeagueTeams = 2
	MaxLeagueTeams = 20
)

// DraftType is the order in which teams pick
type DraftType string

const (
	DraftSnake  DraftType = "snake"
	DraftRandom DraftType = "random"
)

// DraftTypes lists the selectable draft types in display order
var DraftTypes = []DraftType{DraftSnake, DraftRandom}

func (d DraftType) Valid() bool {
	return d == DraftSnake || d == DraftRandom
}

func (d DraftType) Label() string {
	switch d {
	case DraftSnake:
		return "Snake Draft"
	case DraftRandom:
		return "Random Draft"
	}
	return string(d)
}

// PointSystem names the rule that maps finish positions to points
type PointSystem string

const (
	PointSystemDefault    PointSystem = "default"
	PointSystemSimple     PointSystem = "simple"
	PointSystemPointsRace PointSystem = "points-race"
)

// PointSystems lists the selectable scoring systems in display order
var PointSystems = []PointSystem{PointSystemDefault, PointSystemSimple, PointSystemPointsRace}

func (p PointSystem) Valid() bool {
	switch p {
	case PointSystemDefault, PointSystemSimple, PointSystemPointsRace:
		return true
	}
	return false
}

func (p PointSystem) Label() string {
	switch p {
	case PointSystemDefault:
		return "Default F1 Points"
	case PointSystemSimple:
		return "Simple Points"
	case PointSystemPointsRace:
		return "Points Race"
	}
	return string(p)
}

// LeagueStatus is the season phase of a league
type LeagueStatus string

const (
	LeagueSetup     LeagueStatus = "setup"
	LeagueActive    LeagueStatus = "active"
	LeagueCompleted LeagueStatus = "completed"
)

func (s LeagueStatus) Valid() bool {
	switch s {
	case LeagueSetup, LeagueActive, LeagueCompleted:
		return true
	}
	return false
}

// Next returns the only status s may move to. ok is false for completed.
func (s LeagueStatus) Next() (next LeagueStatus, ok bool) {
	switch s {
	case LeagueSetup:
		return LeagueActive, true
	case LeagueActive:
		return LeagueCompleted, true
	}
	return "", false
}

// CanAdvanceTo reports whether target is the single forward step from s.
func (s LeagueStatus) CanAdvanceTo(target LeagueStatus) bool {
	next, ok := s.Next()
	return ok && next == target
}

// League represents a fantasy league
type League struct {
	ID             int64
	Name           string
	Description    string
	IsPublic       bool
	MaxTeams       int
	DraftType      DraftType
	PointSystem    PointSystem
	Status         LeagueStatus
	OwnerID        int64
	CommissionerID int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (l *League) IsOwner(userID int64) bool {
	return l.OwnerID == userID
}

// LeagueSummary is a league with the counts shown on list pages
type LeagueSummary struct {
	League
	MemberCount int
	TeamCount   int
	OwnerName   string
}

// IsFull reports whether no further members can join
func (s *LeagueSummary) IsFull() bool {
	return s.MemberCount >= s.MaxTeams
}
