package service

import (
	"context"
	"testing"

	"f1fantasy/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeamCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "andreas")
	member := f.user(t, "gabriel")
	outsider := f.user(t, "outsider")
	league := f.league(t, owner, "Enstone", 2, false)
	f.member(t, league, member, models.RoleMember, models.EditGrants{})

	team, err := f.teams.Create(ctx, owner.ID, league.ID, "  Blue Flag  ")
	require.NoError(t, err)
	assert.Equal(t, "Blue Flag", team.Name)
	assert.Equal(t, owner.ID, team.OwnerID)

	_, err = f.teams.Create(ctx, owner.ID, league.ID, "Second Car")
	assert.ErrorIs(t, err, ErrAlreadyHasTeam)

	_, err = f.teams.Create(ctx, outsider.ID, league.ID, "Gatecrashers")
	assert.ErrorIs(t, err, ErrNotMember)

	_, err = f.teams.Create(ctx, member.ID, league.ID, "Blue Flag")
	assert.ErrorIs(t, err, ErrTeamNameTaken)

	_, err = f.teams.Create(ctx, member.ID, league.ID, "ab")
	assert.Error(t, err)

	_, err = f.teams.Create(ctx, member.ID, 999, "Nowhere")
	assert.ErrorIs(t, err, ErrLeagueNotFound)

	second, err := f.teams.Create(ctx, member.ID, league.ID, "Pink Panthers")
	require.NoError(t, err)

	teams, err := f.teams.ListByLeague(ctx, league.ID)
	require.NoError(t, err)
	assert.Len(t, teams, 2)

	mine, err := f.teams.UserTeam(ctx, league.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, mine.ID)

	t.Run("view follows league visibility", func(t *testing.T) {
		view, err := f.teams.View(ctx, second.ID, owner)
		require.NoError(t, err)
		assert.Equal(t, league.ID, view.League.ID)

		_, err = f.teams.View(ctx, second.ID, outsider)
		assert.ErrorIs(t, err, ErrForbidden)

		_, err = f.teams.View(ctx, 999, owner)
		assert.ErrorIs(t, err, ErrTeamNotFound)
	})
}
