package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"f1fantasy/internal/database"
	"f1fantasy/internal/invite"
	"f1fantasy/internal/models"
	"f1fantasy/internal/permission"
	"f1fantasy/internal/validation"

	"github.com/rs/zerolog/log"
)

// Notifier delivers invite links to people without an account
type Notifier interface {
	SendLeagueInvite(ctx context.Context, toEmail, leagueName, inviterName, link string) error
}

// InviteService invites users to leagues
type InviteService struct {
	db       *database.DB
	repos    *repos
	tokens   *invite.TokenIssuer
	notifier Notifier
	baseURL  string
}

// NewInviteService creates an invite service. notifier may be nil, in which
// case links are only shown to the inviter.
func NewInviteService(db *database.DB, tokens *invite.TokenIssuer, notifier Notifier, baseURL string) *InviteService {
	return &InviteService{
		db:       db,
		repos:    bindRepos(db),
		tokens:   tokens,
		notifier: notifier,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}
}

// InviteRequest names who to invite and with which role
type InviteRequest struct {
	Identifier string // username or email
	Role       models.Role
	Grants     models.EditGrants
}

// InviteOutcome describes what an invite produced: a pending invite on an
// existing account, or a registration link for an email address.
type InviteOutcome struct {
	Pending   *models.PendingInvite
	Email     string
	Link      string
	Delivered bool
}

// Invite invites the user named by req to the league. The actor must be able
// to manage the league and the league must have room.
func (s *InviteService) Invite(ctx context.Context, actor *models.User, leagueID int64, req InviteRequest) (*InviteOutcome, error) {
	outcome, err := s.invite(ctx, actor, leagueID, req)
	observe(leagueOps, "invite", err)
	return outcome, err
}

func (s *InviteService) invite(ctx context.Context, actor *models.User, leagueID int64, req InviteRequest) (*InviteOutcome, error) {
	req.Identifier = strings.TrimSpace(req.Identifier)
	if req.Identifier == "" {
		return nil, validation.ValidationError{Field: "identifier", Message: "username or email is required"}
	}
	if !req.Role.Valid() {
		req.Role = models.RoleMember
	}
	if req.Role == models.RoleMember {
		req.Grants = models.EditGrants{}
	}

	league, err := s.repos.leagues.GetLeagueSummary(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	if league == nil {
		return nil, ErrLeagueNotFound
	}
	membership, err := s.repos.members.GetMembership(ctx, leagueID, actor.ID)
	if err != nil {
		return nil, err
	}
	if !permission.CanManage(&league.League, membership) {
		return nil, ErrForbidden
	}
	if league.IsFull() {
		return nil, ErrLeagueFull
	}

	target, err := s.repos.users.GetUserByIdentifier(ctx, req.Identifier)
	if err != nil {
		return nil, err
	}
	if target != nil {
		return s.inviteExisting(ctx, actor, &league.League, target, req)
	}
	return s.inviteByEmail(ctx, actor, &league.League, req)
}

func (s *InviteService) inviteExisting(ctx context.Context, actor *models.User, league *models.League, target *models.User, req InviteRequest) (*InviteOutcome, error) {
	if !target.IsSearchable() {
		return nil, ErrInviteeNotSearchable
	}
	existing, err := s.repos.members.GetMembership(ctx, league.ID, target.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyMember
	}

	inviterID := actor.ID
	pending := &models.PendingInvite{
		UserID:    target.ID,
		LeagueID:  league.ID,
		InviterID: &inviterID,
		Role:      req.Role,
		Grants:    req.Grants,
	}
	if err := s.repos.invites.CreateInvite(ctx, pending); err != nil {
		if errors.Is(err, database.ErrUniqueViolation) {
			return nil, ErrInvitePending
		}
		return nil, err
	}
	pending.LeagueName = league.Name
	pending.InviterName = actor.Username

	log.Info().Int64("league_id", league.ID).Int64("inviter_id", actor.ID).Int64("user_id", target.ID).
		Str("role", string(req.Role)).Msg("Pending invite created")
	return &InviteOutcome{Pending: pending, Email: target.Email}, nil
}

func (s *InviteService) inviteByEmail(ctx context.Context, actor *models.User, league *models.League, req InviteRequest) (*InviteOutcome, error) {
	if !strings.Contains(req.Identifier, "@") {
		return nil, ErrUserNotFound
	}
	if err := validation.ValidateEmail(req.Identifier); err != nil {
		return nil, err
	}

	token, err := s.tokens.Mint(league.ID, req.Identifier, req.Role, req.Grants)
	if err != nil {
		return nil, err
	}
	outcome := &InviteOutcome{
		Email: strings.ToLower(req.Identifier),
		Link:  s.baseURL + "/register?invite_token=" + url.QueryEscape(token),
	}

	if s.notifier != nil {
		if err := s.notifier.SendLeagueInvite(ctx, outcome.Email, league.Name, actor.DisplayName(), outcome.Link); err != nil {
			log.Warn().Err(err).Int64("league_id", league.ID).Str("email", outcome.Email).Msg("Invite email not delivered")
		} else {
			outcome.Delivered = true
		}
	}

	log.Info().Int64("league_id", league.ID).Int64("inviter_id", actor.ID).Bool("delivered", outcome.Delivered).
		Str("role", string(req.Role)).Msg("Invite link issued")
	return outcome, nil
}

// ListPending returns the invites waiting on the user's account
func (s *InviteService) ListPending(ctx context.Context, userID int64) ([]models.PendingInvite, error) {
	return s.repos.invites.ListInvitesForUser(ctx, userID)
}

// CountPending returns how many invites await the user
func (s *InviteService) CountPending(ctx context.Context, userID int64) (int, error) {
	return s.repos.invites.CountInvitesForUser(ctx, userID)
}

func (s *InviteService) ownInvite(ctx context.Context, userID, inviteID int64) (*models.PendingInvite, error) {
	inv, err := s.repos.invites.GetInvite(ctx, inviteID)
	if err != nil {
		return nil, err
	}
	if inv == nil || inv.UserID != userID {
		return nil, ErrInviteNotFound
	}
	return inv, nil
}

// Accept turns a pending invite into a membership with the proposed role
// and grants. A full league leaves the invite in place.
func (s *InviteService) Accept(ctx context.Context, userID, inviteID int64) (*models.League, error) {
	league, err := s.accept(ctx, userID, inviteID)
	observe(leagueOps, "accept_invite", err)
	return league, err
}

func (s *InviteService) accept(ctx context.Context, userID, inviteID int64) (*models.League, error) {
	inv, err := s.ownInvite(ctx, userID, inviteID)
	if err != nil {
		return nil, err
	}

	grants := inv.Grants
	if inv.Role != models.RoleCommissioner {
		grants = models.EditGrants{}
	}
	league, err := enroll(ctx, s.db, &models.Membership{
		LeagueID: inv.LeagueID,
		UserID:   userID,
		Role:     inv.Role,
		Grants:   grants,
	})
	if errors.Is(err, ErrAlreadyMember) {
		if _, delErr := s.repos.invites.DeleteInvite(ctx, inviteID); delErr != nil {
			return nil, fmt.Errorf("failed to clear invite: %w", delErr)
		}
	}
	if err != nil {
		return nil, err
	}

	log.Info().Int64("league_id", inv.LeagueID).Int64("user_id", userID).Str("role", string(inv.Role)).Msg("Invite accepted")
	return league, nil
}

// Decline discards a pending invite
func (s *InviteService) Decline(ctx context.Context, userID, inviteID int64) error {
	if _, err := s.ownInvite(ctx, userID, inviteID); err != nil {
		return err
	}
	if _, err := s.repos.invites.DeleteInvite(ctx, inviteID); err != nil {
		return err
	}
	log.Info().Int64("invite_id", inviteID).Int64("user_id", userID).Msg("Invite declined")
	return nil
}
