package service

import (
	"context"
	"errors"
	"strings"

	"f1fantasy/internal/database"
	"f1fantasy/internal/models"
	"f1fantasy/internal/permission"
	"f1fantasy/internal/validation"

	"github.com/rs/zerolog/log"
)

// TeamService handles fantasy teams
type TeamService struct {
	db    *database.DB
	repos *repos
}

// NewTeamService creates a new team service
func NewTeamService(db *database.DB) *TeamService {
	return &TeamService{db: db, repos: bindRepos(db)}
}

// Create makes the actor's team in a league. The actor must be a member
// without a team, and the league must not already have max_teams teams.
func (s *TeamService) Create(ctx context.Context, actorID, leagueID int64, name string) (*models.Team, error) {
	name = strings.TrimSpace(name)
	if err := validation.ValidateTeamName(name); err != nil {
		return nil, err
	}

	team := &models.Team{Name: name, LeagueID: leagueID, OwnerID: actorID}
	err := database.Run(ctx, s.db, bindRepos, func(r *repos) error {
		league, err := r.leagues.LockLeague(ctx, leagueID)
		if err != nil {
			return err
		}
		if league == nil {
			return ErrLeagueNotFound
		}
		membership, err := r.members.GetMembership(ctx, leagueID, actorID)
		if err != nil {
			return err
		}
		if membership == nil {
			return ErrNotMember
		}
		existing, err := r.teams.GetUserTeam(ctx, leagueID, actorID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyHasTeam
		}
		count, err := r.teams.CountTeamsByLeague(ctx, leagueID)
		if err != nil {
			return err
		}
		if count >= league.MaxTeams {
			return ErrLeagueFull
		}
		return r.teams.CreateTeam(ctx, team)
	})
	if errors.Is(err, database.ErrUniqueViolation) {
		err = ErrTeamNameTaken
	}
	observe(leagueOps, "create_team", err)
	if err != nil {
		return nil, err
	}

	log.Info().Int64("team_id", team.ID).Int64("league_id", leagueID).Int64("owner_id", actorID).Msg("Team created")
	return team, nil
}

// TeamView is a team with the league it plays in
type TeamView struct {
	Team   *models.Team
	League *models.League
}

// View returns a team if user may see its league
func (s *TeamService) View(ctx context.Context, teamID int64, user *models.User) (*TeamView, error) {
	team, err := s.repos.teams.GetTeamByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team == nil {
		return nil, ErrTeamNotFound
	}
	league, err := s.repos.leagues.GetLeagueByID(ctx, team.LeagueID)
	if err != nil {
		return nil, err
	}
	if league == nil {
		return nil, ErrTeamNotFound
	}
	membership, err := s.repos.members.GetMembership(ctx, league.ID, user.ID)
	if err != nil {
		return nil, err
	}
	if !permission.CanView(league, membership, user.IsAdmin) {
		return nil, ErrForbidden
	}
	return &TeamView{Team: team, League: league}, nil
}

// ListByLeague returns the league's teams by name
func (s *TeamService) ListByLeague(ctx context.Context, leagueID int64) ([]models.Team, error) {
	return s.repos.teams.ListTeamsByLeague(ctx, leagueID)
}

// UserTeam returns the user's team in the league, or nil
func (s *TeamService) UserTeam(ctx context.Context, leagueID, userID int64) (*models.Team, error) {
	return s.repos.teams.GetUserTeam(ctx, leagueID, userID)
}
