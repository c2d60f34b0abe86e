package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"

	"f1fantasy/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInviteExistingUser(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "helmut")
	member := f.user(t, "max")
	invitee := f.user(t, "yuki")
	league := f.league(t, owner, "Milton Keynes", 4, false)
	f.member(t, league, member, models.RoleMember, models.EditGrants{})

	t.Run("plain members cannot invite", func(t *testing.T) {
		_, err := f.invites.Invite(ctx, member, league.ID, InviteRequest{Identifier: "yuki"})
		assert.ErrorIs(t, err, ErrForbidden)
	})

	grants := models.EditGrants{Name: true, MaxTeams: true}
	outcome, err := f.invites.Invite(ctx, owner, league.ID, InviteRequest{
		Identifier: "YUKI@example.com",
		Role:       models.RoleCommissioner,
		Grants:     grants,
	})
	require.NoError(t, err)
	require.NotNil(t, outcome.Pending)
	assert.Empty(t, outcome.Link)
	assert.Equal(t, invitee.ID, outcome.Pending.UserID)

	t.Run("second invite while pending", func(t *testing.T) {
		_, err := f.invites.Invite(ctx, owner, league.ID, InviteRequest{Identifier: "yuki"})
		assert.ErrorIs(t, err, ErrInvitePending)

		count, err := f.invites.CountPending(ctx, invitee.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("existing members", func(t *testing.T) {
		_, err := f.invites.Invite(ctx, owner, league.ID, InviteRequest{Identifier: "max"})
		assert.ErrorIs(t, err, ErrAlreadyMember)
	})

	t.Run("only the invitee can act on the invite", func(t *testing.T) {
		_, err := f.invites.Accept(ctx, member.ID, outcome.Pending.ID)
		assert.ErrorIs(t, err, ErrInviteNotFound)
		assert.ErrorIs(t, f.invites.Decline(ctx, member.ID, outcome.Pending.ID), ErrInviteNotFound)
	})

	t.Run("accept applies role and grants", func(t *testing.T) {
		pending, err := f.invites.ListPending(ctx, invitee.ID)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		assert.Equal(t, "Milton Keynes", pending[0].LeagueName)

		joined, err := f.invites.Accept(ctx, invitee.ID, pending[0].ID)
		require.NoError(t, err)
		assert.Equal(t, league.ID, joined.ID)

		m := f.membership(t, league, invitee)
		require.NotNil(t, m)
		assert.Equal(t, models.RoleCommissioner, m.Role)
		assert.Equal(t, grants, m.Grants)

		count, err := f.invites.CountPending(ctx, invitee.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})
}

func TestInviteRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "claire")
	league := f.league(t, owner, "Grove", 2, false)

	hidden := f.user(t, "hidden")
	require.NoError(t, f.auth.SetVisibility(ctx, hidden.ID, models.VisibilityHidden))

	inactive := f.user(t, "retired")
	inactive.IsActive = false
	require.NoError(t, f.repos.users.UpdateUser(ctx, inactive))

	_, err := f.invites.Invite(ctx, owner, league.ID, InviteRequest{Identifier: "hidden"})
	assert.ErrorIs(t, err, ErrInviteeNotSearchable)

	_, err = f.invites.Invite(ctx, owner, league.ID, InviteRequest{Identifier: "retired"})
	assert.ErrorIs(t, err, ErrInviteeNotSearchable)

	_, err = f.invites.Invite(ctx, owner, league.ID, InviteRequest{Identifier: "nobody"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, err = f.invites.Invite(ctx, owner, 999, InviteRequest{Identifier: "hidden"})
	assert.ErrorIs(t, err, ErrLeagueNotFound)

	f.member(t, league, f.user(t, "logan"), models.RoleMember, models.EditGrants{})
	_, err = f.invites.Invite(ctx, owner, league.ID, InviteRequest{Identifier: "new@example.com"})
	assert.ErrorIs(t, err, ErrLeagueFull)
}

func TestInviteAcceptOnFullLeagueKeepsInvite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "james")
	invitee := f.user(t, "liam")
	league := f.league(t, owner, "Faenza", 2, false)

	outcome, err := f.invites.Invite(ctx, owner, league.ID, InviteRequest{Identifier: "liam"})
	require.NoError(t, err)

	f.member(t, league, f.user(t, "isack"), models.RoleMember, models.EditGrants{})

	_, err = f.invites.Accept(ctx, invitee.ID, outcome.Pending.ID)
	assert.ErrorIs(t, err, ErrLeagueFull)

	count, err := f.invites.CountPending(ctx, invitee.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	require.NoError(t, f.invites.Decline(ctx, invitee.ID, outcome.Pending.ID))
	count, err = f.invites.CountPending(ctx, invitee.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestInviteByEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "mike")
	owner.Name = "Mike Krack"
	league := f.league(t, owner, "Silverstone", 6, false)

	outcome, err := f.invites.Invite(ctx, owner, league.ID, InviteRequest{
		Identifier: "Lance@Example.com",
		Role:       models.RoleMember,
		Grants:     models.AllGrants(),
	})
	require.NoError(t, err)
	assert.Nil(t, outcome.Pending)
	assert.Equal(t, "lance@example.com", outcome.Email)
	assert.True(t, outcome.Delivered)
	require.True(t, strings.HasPrefix(outcome.Link, "http://fantasy.test/register?invite_token="))

	require.Len(t, f.notifier.sent, 1)
	sent := f.notifier.sent[0]
	assert.Equal(t, "lance@example.com", sent.To)
	assert.Equal(t, "Silverstone", sent.League)
	assert.Equal(t, "Mike Krack", sent.Inviter)
	assert.Equal(t, outcome.Link, sent.Link)

	link, err := url.Parse(outcome.Link)
	require.NoError(t, err)
	claims, err := f.tokens.Verify(link.Query().Get("invite_token"))
	require.NoError(t, err)
	assert.Equal(t, league.ID, claims.LeagueID)
	assert.Equal(t, models.RoleMember, claims.Role)
	assert.False(t, claims.Permissions.Any())

	t.Run("delivery failure still returns the link", func(t *testing.T) {
		f.notifier.err = errors.New("ses unavailable")
		outcome, err := f.invites.Invite(ctx, owner, league.ID, InviteRequest{Identifier: "felipe@example.com"})
		require.NoError(t, err)
		assert.False(t, outcome.Delivered)
		assert.NotEmpty(t, outcome.Link)
	})
}
