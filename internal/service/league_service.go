package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"f1fantasy/internal/database"
	"f1fantasy/internal/models"
	"f1fantasy/internal/permission"
	"f1fantasy/internal/settings"
	"f1fantasy/internal/validation"

	"github.com/rs/zerolog/log"
)

// LeagueService handles league lifecycle and membership
type LeagueService struct {
	db       *database.DB
	repos    *repos
	settings *SettingsService
}

// NewLeagueService creates a new league service
func NewLeagueService(db *database.DB, settingsService *SettingsService) *LeagueService {
	return &LeagueService{db: db, repos: bindRepos(db), settings: settingsService}
}

// LeagueInput carries the editable league settings from a form
type LeagueInput struct {
	Name        string
	Description string
	IsPublic    bool
	MaxTeams    int
	DraftType   models.DraftType
	PointSystem models.PointSystem
}

// InputFromLeague returns the current settings of l as form input
func InputFromLeague(l *models.League) LeagueInput {
	return LeagueInput{
		Name:        l.Name,
		Description: l.Description,
		IsPublic:    l.IsPublic,
		MaxTeams:    l.MaxTeams,
		DraftType:   l.DraftType,
		PointSystem: l.PointSystem,
	}
}

// CapacityBounds returns the allowed range for max_teams
func (s *LeagueService) CapacityBounds(ctx context.Context) (min, max int) {
	min, max = models.MinLeagueTeams, models.MaxLeagueTeams
	if s.settings == nil {
		return min, max
	}
	if v := s.settings.Int(ctx, settings.MinTeamsPerLeague); v > min {
		min = v
	}
	if v := s.settings.Int(ctx, settings.MaxTeamsPerLeague); v > 0 && v < max {
		max = v
	}
	if min > max {
		return models.MinLeagueTeams, models.MaxLeagueTeams
	}
	return min, max
}

func (s *LeagueService) publicAllowed(ctx context.Context) bool {
	return s.settings == nil || s.settings.Bool(ctx, settings.AllowPublicLeague)
}

// validateField checks the new value of one field
func (s *LeagueService) validateField(ctx context.Context, f models.Field, in LeagueInput) error {
	switch f {
	case models.FieldName:
		return validation.ValidateLeagueName(in.Name)
	case models.FieldDescription:
		return validation.ValidateDescription(in.Description)
	case models.FieldIsPublic:
		if in.IsPublic && !s.publicAllowed(ctx) {
			return ErrPublicLeaguesDisabled
		}
	case models.FieldMaxTeams:
		min, max := s.CapacityBounds(ctx)
		if in.MaxTeams < min || in.MaxTeams > max {
			return fmt.Errorf("%w: must be between %d and %d", ErrInvalidCapacity, min, max)
		}
	case models.FieldDraftType:
		if !in.DraftType.Valid() {
			return fmt.Errorf("%w: unknown draft type %q", ErrInvalidLeagueSetting, in.DraftType)
		}
	case models.FieldPointSystem:
		if !in.PointSystem.Valid() {
			return fmt.Errorf("%w: unknown scoring system %q", ErrInvalidLeagueSetting, in.PointSystem)
		}
	}
	return nil
}

// Create makes a new league owned by owner, who also becomes its
// commissioner and first member with every edit grant.
func (s *LeagueService) Create(ctx context.Context, ownerID int64, in LeagueInput) (*models.League, error) {
	league, err := s.create(ctx, ownerID, in)
	observe(leagueOps, "create", err)
	return league, err
}

func (s *LeagueService) create(ctx context.Context, ownerID int64, in LeagueInput) (*models.League, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if in.DraftType == "" {
		in.DraftType = models.DraftSnake
	}
	if in.PointSystem == "" {
		in.PointSystem = models.PointSystemDefault
	}
	for _, f := range models.Fields {
		if err := s.validateField(ctx, f, in); err != nil {
			return nil, err
		}
	}

	league := &models.League{
		Name:           in.Name,
		Description:    in.Description,
		IsPublic:       in.IsPublic,
		MaxTeams:       in.MaxTeams,
		DraftType:      in.DraftType,
		PointSystem:    in.PointSystem,
		Status:         models.LeagueSetup,
		OwnerID:        ownerID,
		CommissionerID: ownerID,
	}

	err := database.Run(ctx, s.db, bindRepos, func(r *repos) error {
		if s.settings != nil {
			owned, err := r.leagues.CountOwnedLeagues(ctx, ownerID)
			if err != nil {
				return err
			}
			if limit := s.settings.Int(ctx, settings.MaxLeaguesPerUser); limit > 0 && owned >= limit {
				return ErrLeagueLimitReached
			}
		}
		if err := r.leagues.CreateLeague(ctx, league); err != nil {
			return err
		}
		return r.members.AddMember(ctx, &models.Membership{
			LeagueID: league.ID,
			UserID:   ownerID,
			Role:     models.RoleCommissioner,
			Grants:   models.AllGrants(),
		})
	})
	if errors.Is(err, database.ErrUniqueViolation) {
		return nil, ErrLeagueNameTaken
	}
	if err != nil {
		return nil, err
	}

	log.Info().Int64("league_id", league.ID).Str("name", league.Name).Int64("owner_id", ownerID).Msg("League created")
	return league, nil
}

// Get returns the league with its counts
func (s *LeagueService) Get(ctx context.Context, leagueID int64) (*models.LeagueSummary, error) {
	summary, err := s.repos.leagues.GetLeagueSummary(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, ErrLeagueNotFound
	}
	return summary, nil
}

// Membership returns the user's membership, or nil when not a member
func (s *LeagueService) Membership(ctx context.Context, leagueID, userID int64) (*models.Membership, error) {
	return s.repos.members.GetMembership(ctx, leagueID, userID)
}

// LeagueView is everything the league page shows to one user
type LeagueView struct {
	League     *models.LeagueSummary
	Membership *models.Membership
	Members    []models.Member
	Teams      []models.Team
	UserTeam   *models.Team
	Editable   []models.Field
	CanManage  bool
	IsOwner    bool
}

// IsMember reports whether the viewer belongs to the league
func (v *LeagueView) IsMember() bool {
	return v.Membership != nil
}

// View loads the league page for user. Private leagues are hidden from
// non-members who are not administrators.
func (s *LeagueService) View(ctx context.Context, leagueID int64, user *models.User) (*LeagueView, error) {
	summary, err := s.Get(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	membership, err := s.repos.members.GetMembership(ctx, leagueID, user.ID)
	if err != nil {
		return nil, err
	}
	if !permission.CanView(&summary.League, membership, user.IsAdmin) {
		return nil, ErrForbidden
	}

	members, err := s.repos.members.ListMembers(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	teams, err := s.repos.teams.ListTeamsByLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}

	view := &LeagueView{
		League:     summary,
		Membership: membership,
		Members:    members,
		Teams:      teams,
		Editable:   permission.Editable(&summary.League, membership),
		CanManage:  permission.CanManage(&summary.League, membership),
		IsOwner:    permission.IsOwner(&summary.League, membership),
	}
	for i := range teams {
		if teams[i].OwnerID == user.ID {
			view.UserTeam = &teams[i]
		}
	}
	return view, nil
}

// EditResult reports which changed fields were applied and which were left
// unchanged for lack of permission
type EditResult struct {
	League  *models.League
	Applied []models.Field
	Skipped []models.Field
}

// Edit applies the changed fields of in that the actor may edit. Fields the
// actor may not edit are left unchanged and reported in Skipped.
func (s *LeagueService) Edit(ctx context.Context, actorID, leagueID int64, in LeagueInput) (*EditResult, error) {
	result, err := s.edit(ctx, actorID, leagueID, in)
	observe(leagueOps, "edit", err)
	return result, err
}

func (s *LeagueService) edit(ctx context.Context, actorID, leagueID int64, in LeagueInput) (*EditResult, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)

	result := &EditResult{}
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
		if !permission.CanEditAny(league, membership) {
			return ErrForbidden
		}

		updated := *league
		for _, f := range models.Fields {
			if !fieldChanged(league, in, f) {
				continue
			}
			if !permission.Gate(league, membership, f) {
				result.Skipped = append(result.Skipped, f)
				continue
			}
			if err := s.validateField(ctx, f, in); err != nil {
				return err
			}
			if f == models.FieldMaxTeams {
				count, err := r.members.CountMembers(ctx, leagueID)
				if err != nil {
					return err
				}
				if in.MaxTeams < count {
					return fmt.Errorf("%w: the league already has %d members", ErrInvalidCapacity, count)
				}
			}
			applyField(&updated, in, f)
			result.Applied = append(result.Applied, f)
		}

		result.League = &updated
		if len(result.Applied) == 0 {
			return nil
		}
		return r.leagues.UpdateLeague(ctx, &updated)
	})
	if errors.Is(err, database.ErrUniqueViolation) {
		return nil, ErrLeagueNameTaken
	}
	if err != nil {
		return nil, err
	}

	if len(result.Applied) > 0 || len(result.Skipped) > 0 {
		log.Info().Int64("league_id", leagueID).Int64("actor_id", actorID).
			Interface("applied", result.Applied).Interface("skipped", result.Skipped).Msg("League edited")
	}
	return result, nil
}

func fieldChanged(l *models.League, in LeagueInput, f models.Field) bool {
	switch f {
	case models.FieldName:
		return in.Name != l.Name
	case models.FieldDescription:
		return in.Description != l.Description
	case models.FieldIsPublic:
		return in.IsPublic != l.IsPublic
	case models.FieldMaxTeams:
		return in.MaxTeams != l.MaxTeams
	case models.FieldDraftType:
		return in.DraftType != l.DraftType
	case models.FieldPointSystem:
		return in.PointSystem != l.PointSystem
	}
	return false
}

func applyField(l *models.League, in LeagueInput, f models.Field) {
	switch f {
	case models.FieldName:
		l.Name = in.Name
	case models.FieldDescription:
		l.Description = in.Description
	case models.FieldIsPublic:
		l.IsPublic = in.IsPublic
	case models.FieldMaxTeams:
		l.MaxTeams = in.MaxTeams
	case models.FieldDraftType:
		l.DraftType = in.DraftType
	case models.FieldPointSystem:
		l.PointSystem = in.PointSystem
	}
}

// Delete removes the league. Only the owner may delete it, and confirmation
// must equal the league's current name.
func (s *LeagueService) Delete(ctx context.Context, actorID, leagueID int64, confirmation string) error {
	err := database.Run(ctx, s.db, bindRepos, func(r *repos) error {
		league, err := r.leagues.LockLeague(ctx, leagueID)
		if err != nil {
			return err
		}
		if league == nil {
			return ErrLeagueNotFound
		}
		if !league.IsOwner(actorID) {
			return ErrForbidden
		}
		if confirmation != league.Name {
			return ErrConfirmationMismatch
		}
		return r.leagues.DeleteLeague(ctx, leagueID)
	})
	observe(leagueOps, "delete", err)
	if err == nil {
		log.Info().Int64("league_id", leagueID).Int64("actor_id", actorID).Msg("League deleted")
	}
	return err
}

// Join adds the user to a public league as a plain member
func (s *LeagueService) Join(ctx context.Context, userID, leagueID int64) error {
	league, err := s.repos.leagues.GetLeagueByID(ctx, leagueID)
	if err == nil && league == nil {
		err = ErrLeagueNotFound
	}
	if err == nil && !league.IsPublic {
		err = ErrForbidden
	}
	if err == nil {
		_, err = enroll(ctx, s.db, &models.Membership{LeagueID: leagueID, UserID: userID, Role: models.RoleMember})
	}
	observe(leagueOps, "join", err)
	if err == nil {
		log.Info().Int64("league_id", leagueID).Int64("user_id", userID).Msg("User joined league")
	}
	return err
}

// enroll adds m while the league has room. The league row is locked for the
// duration so concurrent joins cannot overfill it. Pending invites for the
// same league are cleared.
func enroll(ctx context.Context, db *database.DB, m *models.Membership) (*models.League, error) {
	var league *models.League
	err := database.Run(ctx, db, bindRepos, func(r *repos) error {
		l, err := r.leagues.LockLeague(ctx, m.LeagueID)
		if err != nil {
			return err
		}
		if l == nil {
			return ErrLeagueNotFound
		}
		league = l

		existing, err := r.members.GetMembership(ctx, m.LeagueID, m.UserID)
		if err != nil {
			return err
		}
		if existing != nil {
			return ErrAlreadyMember
		}

		added, err := r.members.AddMemberIfCapacity(ctx, m, l.MaxTeams)
		if errors.Is(err, database.ErrUniqueViolation) {
			return ErrAlreadyMember
		}
		if err != nil {
			return err
		}
		if !added {
			return ErrLeagueFull
		}
		return r.invites.DeleteInvitesForUserLeague(ctx, m.UserID, m.LeagueID)
	})
	return league, err
}

// Leave removes the caller's own membership. The owner can never leave.
func (s *LeagueService) Leave(ctx context.Context, userID, leagueID int64) error {
	err := database.Run(ctx, s.db, bindRepos, func(r *repos) error {
		league, err := r.leagues.LockLeague(ctx, leagueID)
		if err != nil {
			return err
		}
		if league == nil {
			return ErrLeagueNotFound
		}
		if league.IsOwner(userID) {
			return ErrOwnerCannotLeave
		}
		removed, err := r.members.RemoveMember(ctx, leagueID, userID)
		if err != nil {
			return err
		}
		if !removed {
			return ErrNotMember
		}
		if league.CommissionerID == userID {
			return r.leagues.SetCommissioner(ctx, leagueID, league.OwnerID)
		}
		return nil
	})
	observe(leagueOps, "leave", err)
	if err == nil {
		log.Info().Int64("league_id", leagueID).Int64("user_id", userID).Msg("User left league")
	}
	return err
}

// manageTarget loads the league and checks that actor may manage target
func manageTarget(ctx context.Context, r *repos, actorID, leagueID, targetID int64) (*models.League, *models.Membership, error) {
	league, err := r.leagues.LockLeague(ctx, leagueID)
	if err != nil {
		return nil, nil, err
	}
	if league == nil {
		return nil, nil, ErrLeagueNotFound
	}
	actor, err := r.members.GetMembership(ctx, leagueID, actorID)
	if err != nil {
		return nil, nil, err
	}
	if !permission.CanManage(league, actor) {
		return nil, nil, ErrForbidden
	}
	if actorID == targetID {
		return nil, nil, ErrCannotModifySelf
	}
	if league.IsOwner(targetID) {
		return nil, nil, ErrCannotModifyOwner
	}
	if league.CommissionerID == targetID && !league.IsOwner(actorID) {
		return nil, nil, ErrForbidden
	}
	target, err := r.members.GetMembership(ctx, leagueID, targetID)
	if err != nil {
		return nil, nil, err
	}
	if target == nil {
		return nil, nil, ErrNotMember
	}
	return league, target, nil
}

// RemoveMember removes target from the league along with their team
func (s *LeagueService) RemoveMember(ctx context.Context, actorID, leagueID, targetID int64) error {
	err := database.Run(ctx, s.db, bindRepos, func(r *repos) error {
		league, _, err := manageTarget(ctx, r, actorID, leagueID, targetID)
		if err != nil {
			return err
		}
		if _, err := r.members.RemoveMember(ctx, leagueID, targetID); err != nil {
			return err
		}
		if league.CommissionerID == targetID {
			return r.leagues.SetCommissioner(ctx, leagueID, league.OwnerID)
		}
		return nil
	})
	observe(leagueOps, "remove_member", err)
	if err == nil {
		log.Info().Int64("league_id", leagueID).Int64("actor_id", actorID).Int64("user_id", targetID).Msg("Member removed")
	}
	return err
}

// ChangeRole sets target's role and, for commissioners, their edit grants
func (s *LeagueService) ChangeRole(ctx context.Context, actorID, leagueID, targetID int64, role models.Role, grants models.EditGrants) error {
	if !role.Valid() {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidLeagueSetting, role)
	}
	if role == models.RoleMember {
		grants = models.EditGrants{}
	}
	err := database.Run(ctx, s.db, bindRepos, func(r *repos) error {
		league, _, err := manageTarget(ctx, r, actorID, leagueID, targetID)
		if err != nil {
			return err
		}
		if err := r.members.UpdateRole(ctx, leagueID, targetID, role, grants); err != nil {
			return err
		}
		if league.CommissionerID == targetID && role == models.RoleMember {
			return r.leagues.SetCommissioner(ctx, leagueID, league.OwnerID)
		}
		return nil
	})
	observe(leagueOps, "change_role", err)
	if err == nil {
		log.Info().Int64("league_id", leagueID).Int64("actor_id", actorID).Int64("user_id", targetID).
			Str("role", string(role)).Msg("Member role changed")
	}
	return err
}

// SetCommissioner makes target the league's designated commissioner. Only
// the owner may reassign it. Passing the owner's ID takes it back.
func (s *LeagueService) SetCommissioner(ctx context.Context, actorID, leagueID, targetID int64) error {
	err := database.Run(ctx, s.db, bindRepos, func(r *repos) error {
		league, err := r.leagues.LockLeague(ctx, leagueID)
		if err != nil {
			return err
		}
		if league == nil {
			return ErrLeagueNotFound
		}
		if !league.IsOwner(actorID) {
			return ErrForbidden
		}
		target, err := r.members.GetMembership(ctx, leagueID, targetID)
		if err != nil {
			return err
		}
		if target == nil {
			return ErrNotMember
		}
		// The designation itself confers every field, so stored grants stay
		// as they were and a replaced commissioner falls back to them.
		if target.Role != models.RoleCommissioner {
			if err := r.members.UpdateRole(ctx, leagueID, targetID, models.RoleCommissioner, target.Grants); err != nil {
				return err
			}
		}
		return r.leagues.SetCommissioner(ctx, leagueID, targetID)
	})
	observe(leagueOps, "set_commissioner", err)
	if err == nil {
		log.Info().Int64("league_id", leagueID).Int64("actor_id", actorID).Int64("user_id", targetID).Msg("Commissioner designated")
	}
	return err
}

// AdvanceStatus moves the league one step along setup, active, completed
func (s *LeagueService) AdvanceStatus(ctx context.Context, actorID, leagueID int64, target models.LeagueStatus) error {
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
		if !permission.CanManage(league, membership) {
			return ErrForbidden
		}
		if !league.Status.CanAdvanceTo(target) {
			return ErrInvalidStatusTransition
		}
		moved, err := r.leagues.UpdateStatus(ctx, leagueID, league.Status, target)
		if err != nil {
			return err
		}
		if !moved {
			return ErrInvalidStatusTransition
		}
		return nil
	})
	observe(leagueOps, "advance_status", err)
	if err == nil {
		log.Info().Int64("league_id", leagueID).Str("status", string(target)).Msg("League status advanced")
	}
	return err
}

// Members returns the league's members with their user names
func (s *LeagueService) Members(ctx context.Context, leagueID int64) ([]models.Member, error) {
	return s.repos.members.ListMembers(ctx, leagueID)
}

func (s *LeagueService) ListForUser(ctx context.Context, userID int64) ([]models.LeagueSummary, error) {
	return s.repos.leagues.ListLeaguesForUser(ctx, userID)
}

func (s *LeagueService) ListOwned(ctx context.Context, userID int64) ([]models.LeagueSummary, error) {
	return s.repos.leagues.ListOwnedLeagues(ctx, userID)
}

func (s *LeagueService) ListPublic(ctx context.Context) ([]models.LeagueSummary, error) {
	return s.repos.leagues.ListPublicLeagues(ctx)
}

func (s *LeagueService) ListAll(ctx context.Context) ([]models.LeagueSummary, error) {
	return s.repos.leagues.ListAllLeagues(ctx)
}
