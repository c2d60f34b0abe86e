package models

import "time"

// Race is one round of a championship season
type Race struct {
	ID          int64
	Season      int
	Round       int
	Name        string
	CircuitName string
	Country     string
	City        string
	Date        string // YYYY-MM-DD
	Time        string // HH:MM:SSZ, empty when unknown
	Status      string
	UpdatedAt   time.Time
}

// Driver is a driver entered in one season
type Driver struct {
	ID          int64
	Season      int
	DriverRef   string
	Number      int
	Code        string
	FirstName   string
	LastName    string
	Nationality string
	DateOfBirth string
	Constructor string
	Status      string
	UpdatedAt   time.Time
}

func (d *Driver) FullName() string {
	return d.FirstName + " " + d.LastName
}
