// Package scoring converts race finish positions into fantasy points.
package scoring

import "f1fantasy/internal/models"

// MaxPosition is the last classified position that can score under any system
const MaxPosition = 20

// Result is one finish. Finished is false for DNF, DSQ and similar markers,
// in which case Position is ignored.
type Result struct {
	Position int
	Finished bool
}

// Finish returns a classified result at position p.
func Finish(p int) Result {
	return Result{Position: p, Finished: true}
}

// DNF is the result for a driver who was not classified.
var DNF = Result{}

var defaultTable = [...]int{25, 18, 15, 12, 10, 8, 6, 4, 2, 1}

// Points returns the points for r under system. Unknown systems score as
// default; out-of-range positions and non-finishes score zero.
func Points(system models.PointSystem, r Result) int {
	if !r.Finished || r.Position < 1 {
		return 0
	}
	p := r.Position

	switch system {
	case models.PointSystemSimple:
		if p > MaxPosition {
			return 0
		}
		return MaxPosition + 1 - p
	case models.PointSystemPointsRace:
		if p > MaxPosition {
			return 0
		}
		return max(10-abs(p-10), 1)
	default:
		if p > len(defaultTable) {
			return 0
		}
		return defaultTable[p-1]
	}
}

// Row is one line of a points table.
type Row struct {
	Position int
	Points   int
}

// Table lists points for positions 1 to MaxPosition under system.
func Table(system models.PointSystem) []Row {
	rows := make([]Row, 0, MaxPosition)
	for p := 1; p <= MaxPosition; p++ {
		rows = append(rows, Row{Position: p, Points: Points(system, Finish(p))})
	}
	return rows
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
