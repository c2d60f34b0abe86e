package service

import (
	"context"

	"f1fantasy/internal/database"
	"f1fantasy/internal/models"
)

// SeasonService reads the imported championship data
type SeasonService struct {
	repos *repos
}

// NewSeasonService creates a season service
func NewSeasonService(db *database.DB) *SeasonService {
	return &SeasonService{repos: bindRepos(db)}
}

// Season is one year's calendar and driver line-up
type Season struct {
	Year    int
	Races   []models.Race
	Drivers []models.Driver
}

// LatestSeason returns the most recent imported season, or 0 when nothing
// has been imported
func (s *SeasonService) LatestSeason(ctx context.Context) (int, error) {
	return s.repos.f1data.LatestSeason(ctx)
}

// Season loads the races and drivers of year. An unimported year is empty,
// not an error.
func (s *SeasonService) Season(ctx context.Context, year int) (*Season, error) {
	races, err := s.repos.f1data.ListRaces(ctx, year)
	if err != nil {
		return nil, err
	}
	drivers, err := s.repos.f1data.ListDrivers(ctx, year)
	if err != nil {
		return nil, err
	}
	return &Season{Year: year, Races: races, Drivers: drivers}, nil
}
