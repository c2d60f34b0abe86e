package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"f1fantasy/internal/database"
	"f1fantasy/internal/models"
	"f1fantasy/internal/security"
	"f1fantasy/internal/validation"

	"github.com/rs/zerolog/log"
)

// AdminService backs the administration panel
type AdminService struct {
	db    *database.DB
	repos *repos
}

// NewAdminService creates a new admin service
func NewAdminService(db *database.DB) *AdminService {
	return &AdminService{db: db, repos: bindRepos(db)}
}

// DashboardStats are the counts shown on the admin dashboard
type DashboardStats struct {
	Users        int
	Leagues      int
	Teams        int
	Races        int
	Drivers      int
	LatestSeason int
}

// Stats gathers the dashboard counts
func (s *AdminService) Stats(ctx context.Context) (*DashboardStats, error) {
	var (
		stats DashboardStats
		err   error
	)
	if stats.Users, err = s.repos.users.CountUsers(ctx); err != nil {
		return nil, err
	}
	if stats.Leagues, err = s.repos.leagues.CountLeagues(ctx); err != nil {
		return nil, err
	}
	if stats.Teams, err = s.repos.teams.CountTeams(ctx); err != nil {
		return nil, err
	}
	if stats.Races, err = s.repos.f1data.CountRaces(ctx); err != nil {
		return nil, err
	}
	if stats.Drivers, err = s.repos.f1data.CountDrivers(ctx); err != nil {
		return nil, err
	}
	if stats.LatestSeason, err = s.repos.f1data.LatestSeason(ctx); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListUsers returns every account
func (s *AdminService) ListUsers(ctx context.Context) ([]models.User, error) {
	return s.repos.users.ListUsers(ctx)
}

// GetUser returns one account
func (s *AdminService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.repos.users.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// ListLeagues returns every league
func (s *AdminService) ListLeagues(ctx context.Context) ([]models.LeagueSummary, error) {
	return s.repos.leagues.ListAllLeagues(ctx)
}

// UserInput is the admin user form. An empty Password leaves the password
// unchanged on update.
type UserInput struct {
	Username   string
	Email      string
	Name       string
	Password   string
	IsAdmin    bool
	IsActive   bool
	Visibility models.Visibility
}

func (in *UserInput) normalize() error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	in.Name = strings.TrimSpace(in.Name)
	if in.Visibility == "" {
		in.Visibility = models.VisibilityPublic
	}
	if !in.Visibility.Valid() {
		return validation.ValidationError{Field: "visibility", Message: "unknown visibility"}
	}
	if err := validation.ValidateUsername(in.Username); err != nil {
		return err
	}
	if in.Email != "" {
		if err := validation.ValidateEmail(in.Email); err != nil {
			return err
		}
	}
	return nil
}

// CreateUser adds an account from the admin panel
func (s *AdminService) CreateUser(ctx context.Context, in UserInput) (*models.User, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(in.Password); err != nil {
		return nil, err
	}
	hash, err := security.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     in.Username,
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		IsAdmin:      in.IsAdmin,
		IsActive:     in.IsActive,
		Visibility:   in.Visibility,
	}
	if err := s.repos.users.CreateUser(ctx, user); err != nil {
		return nil, s.conflict(ctx, err, user.Email, 0)
	}
	log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("User created by administrator")
	return user, nil
}

// UpdateUser edits an account. Administrators cannot remove their own admin
// flag or deactivate themselves.
func (s *AdminService) UpdateUser(ctx context.Context, actorID, id int64, in UserInput) (*models.User, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	if in.Password != "" {
		if err := validation.ValidatePassword(in.Password); err != nil {
			return nil, err
		}
	}
	if actorID == id && (!in.IsAdmin || !in.IsActive) {
		return nil, ErrCannotModifySelf
	}

	var user *models.User
	err := database.Run(ctx, s.db, bindRepos, func(r *repos) error {
		existing, err := r.users.GetUserByID(ctx, id)
		if err != nil {
			return err
		}
		if existing == nil {
			return ErrUserNotFound
		}
		existing.Username = in.Username
		existing.Email = in.Email
		existing.Name = in.Name
		existing.IsAdmin = in.IsAdmin
		existing.IsActive = in.IsActive
		existing.Visibility = in.Visibility
		if err := r.users.UpdateUser(ctx, existing); err != nil {
			return err
		}
		if in.Password != "" {
			hash, err := security.HashPassword(in.Password)
			if err != nil {
				return fmt.Errorf("failed to hash password: %w", err)
			}
			if err := r.users.UpdatePassword(ctx, id, hash); err != nil {
				return err
			}
		}
		if !existing.IsActive {
			if err := r.users.DeleteUserSessions(ctx, id); err != nil {
				return err
			}
		}
		user = existing
		return nil
	})
	if err != nil {
		return nil, s.conflict(ctx, err, in.Email, id)
	}
	log.Info().Int64("user_id", id).Int64("actor_id", actorID).Msg("User updated by administrator")
	return user, nil
}

// conflict turns a unique violation into the username or email sentinel
func (s *AdminService) conflict(ctx context.Context, err error, email string, userID int64) error {
	if !errors.Is(err, database.ErrUniqueViolation) {
		return err
	}
	if email != "" {
		if taken, _ := s.repos.users.GetUserByEmail(ctx, email); taken != nil && taken.ID != userID {
			return ErrEmailTaken
		}
	}
	return ErrUsernameTaken
}

// DeleteUser removes another account. Accounts that still own leagues are
// kept.
func (s *AdminService) DeleteUser(ctx context.Context, actorID, id int64) error {
	if actorID == id {
		return ErrCannotModifySelf
	}
	return database.Run(ctx, s.db, bindRepos, func(r *repos) error {
		user, err := r.users.GetUserByID(ctx, id)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}
		owned, err := r.leagues.CountOwnedLeagues(ctx, id)
		if err != nil {
			return err
		}
		if owned > 0 {
			return ErrOwnsLeagues
		}
		if err := r.users.DeleteUser(ctx, id); err != nil {
			return err
		}
		log.Info().Int64("user_id", id).Int64("actor_id", actorID).Msg("User deleted by administrator")
		return nil
	})
}
