package f1data

import (
	"context"
	"fmt"
	"strconv"

	"f1fantasy/internal/database"
	"f1fantasy/internal/models"
	"f1fantasy/internal/repository"

	"github.com/rs/zerolog/log"
)

// Source is where season data comes from
type Source interface {
	Races(ctx context.Context, season int) ([]APIRace, error)
	Constructors(ctx context.Context, season int) ([]APIConstructor, error)
	Drivers(ctx context.Context, season int, constructorID string) ([]APIDriver, error)
}

// SeasonResult reports what one season import stored
type SeasonResult struct {
	Season  int
	Races   int
	Drivers int
	Err     error
}

// Importer copies season data from a Source into the database
type Importer struct {
	db     *database.DB
	source Source
}

func NewImporter(db *database.DB, source Source) *Importer {
	return &Importer{db: db, source: source}
}

// Import loads every season from start to end inclusive. A failing season is
// reported in its result and does not stop the others; it only returns an
// error when ctx is cancelled or the range is invalid.
func (im *Importer) Import(ctx context.Context, start, end int) ([]SeasonResult, error) {
	if start > end {
		return nil, fmt.Errorf("start season %d is after end season %d", start, end)
	}

	var results []SeasonResult
	for season := start; season <= end; season++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := im.ImportSeason(ctx, season)
		if res.Err != nil {
			log.Error().Err(res.Err).Int("season", season).Msg("Season import failed")
		} else {
			log.Info().Int("season", season).Int("races", res.Races).Int("drivers", res.Drivers).Msg("Season imported")
		}
		results = append(results, res)
	}
	return results, nil
}

// ImportSeason fetches one season and stores it in a single transaction.
// Nothing is written when any request fails.
func (im *Importer) ImportSeason(ctx context.Context, season int) SeasonResult {
	res := SeasonResult{Season: season}

	races, drivers, err := im.fetch(ctx, season)
	if err != nil {
		res.Err = err
		return res
	}

	res.Err = database.Run(ctx, im.db, repository.NewF1DataRepository, func(r *repository.F1DataRepository) error {
		for i := range races {
			if err := r.UpsertRace(ctx, &races[i]); err != nil {
				return err
			}
		}
		for i := range drivers {
			if err := r.UpsertDriver(ctx, &drivers[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if res.Err == nil {
		res.Races, res.Drivers = len(races), len(drivers)
	}
	return res
}

func (im *Importer) fetch(ctx context.Context, season int) ([]models.Race, []models.Driver, error) {
	apiRaces, err := im.source.Races(ctx, season)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch races: %w", err)
	}
	races := make([]models.Race, 0, len(apiRaces))
	for _, ar := range apiRaces {
		round, err := strconv.Atoi(ar.Round)
		if err != nil {
			return nil, nil, fmt.Errorf("race %q has invalid round %q", ar.RaceName, ar.Round)
		}
		races = append(races, models.Race{
			Season:      season,
			Round:       round,
			Name:        ar.RaceName,
			CircuitName: ar.Circuit.CircuitName,
			Country:     ar.Circuit.Location.Country,
			City:        ar.Circuit.Location.Locality,
			Date:        ar.Date,
			Time:        ar.Time,
		})
	}

	constructors, err := im.source.Constructors(ctx, season)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch constructors: %w", err)
	}

	// A driver who changed teams mid-season is listed under each
	// constructor; the last one listed wins.
	index := make(map[string]int)
	var drivers []models.Driver
	for _, c := range constructors {
		apiDrivers, err := im.source.Drivers(ctx, season, c.ConstructorID)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to fetch drivers for %s: %w", c.ConstructorID, err)
		}
		for _, ad := range apiDrivers {
			d := models.Driver{
				Season:      season,
				DriverRef:   ad.DriverID,
				Number:      ad.Number(),
				Code:        ad.Code,
				FirstName:   ad.GivenName,
				LastName:    ad.FamilyName,
				Nationality: ad.Nationality,
				DateOfBirth: ad.DateOfBirth,
				Constructor: c.Name,
			}
			if i, ok := index[d.DriverRef]; ok {
				drivers[i] = d
				continue
			}
			index[d.DriverRef] = len(drivers)
			drivers = append(drivers, d)
		}
	}
	return races, drivers, nil
}
