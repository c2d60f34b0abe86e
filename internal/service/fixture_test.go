package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"f1fantasy/internal/database"
	"f1fantasy/internal/database/dbtest"
	"f1fantasy/internal/invite"
	"f1fantasy/internal/models"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"
)

type sentInvite struct {
	To, League, Inviter, Link string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentInvite
	err  error
}

func (n *fakeNotifier) SendLeagueInvite(_ context.Context, toEmail, leagueName, inviterName, link string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sentInvite{To: toEmail, League: leagueName, Inviter: inviterName, Link: link})
	return nil
}

type fixture struct {
	db       *database.DB
	repos    *repos
	clock    *clockwork.FakeClock
	tokens   *invite.TokenIssuer
	notifier *fakeNotifier
	settings *SettingsService
	auth     *AuthService
	leagues  *LeagueService
	invites  *InviteService
	teams    *TeamService
	admin    *AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := dbtest.New(t)
	clock := clockwork.NewFakeClockAt(time.Now())
	tokens := invite.NewTokenIssuer("test-secret", invite.DefaultTTL, clock)
	settingsService := NewSettingsService(db, nil)
	notifier := &fakeNotifier{}

	return &fixture{
		db:       db,
		repos:    bindRepos(db),
		clock:    clock,
		tokens:   tokens,
		notifier: notifier,
		settings: settingsService,
		auth:     NewAuthService(db, settingsService, tokens, time.Hour, clock),
		leagues:  NewLeagueService(db, settingsService),
		invites:  NewInviteService(db, tokens, notifier, "http://fantasy.test/"),
		teams:    NewTeamService(db),
		admin:    NewAdminService(db),
	}
}

// user inserts an account directly, skipping password hashing
func (f *fixture) user(t *testing.T, username string) *models.User {
	t.Helper()
	u := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "unused",
		IsActive:     true,
		Visibility:   models.VisibilityPublic,
	}
	require.NoError(t, f.repos.users.CreateUser(context.Background(), u))
	return u
}

func (f *fixture) league(t *testing.T, owner *models.User, name string, maxTeams int, public bool) *models.League {
	t.Helper()
	l, err := f.leagues.Create(context.Background(), owner.ID, LeagueInput{
		Name:        name,
		MaxTeams:    maxTeams,
		IsPublic:    public,
		DraftType:   models.DraftSnake,
		PointSystem: models.PointSystemDefault,
	})
	require.NoError(t, err)
	return l
}

func (f *fixture) member(t *testing.T, l *models.League, u *models.User, role models.Role, grants models.EditGrants) {
	t.Helper()
	require.NoError(t, f.repos.members.AddMember(context.Background(), &models.Membership{
		LeagueID: l.ID, UserID: u.ID, Role: role, Grants: grants,
	}))
}

func (f *fixture) membership(t *testing.T, l *models.League, u *models.User) *models.Membership {
	t.Helper()
	m, err := f.repos.members.GetMembership(context.Background(), l.ID, u.ID)
	require.NoError(t, err)
	return m
}
