package service

import (
	"f1fantasy/internal/database"
	"f1fantasy/internal/repository"
)

// repos is the set of repositories bound to one database handle, either the
// pool or a transaction.
type repos struct {
	users    *repository.UserRepository
	leagues  *repository.LeagueRepository
	members  *repository.MembershipRepository
	teams    *repository.TeamRepository
	invites  *repository.PendingInviteRepository
	settings *repository.SettingsRepository
	f1data   *repository.F1DataRepository
}

func bindRepos(q database.DBTX) *repos {
	return &repos{
		users:    repository.NewUserRepository(q),
		leagues:  repository.NewLeagueRepository(q),
		members:  repository.NewMembershipRepository(q),
		teams:    repository.NewTeamRepository(q),
		invites:  repository.NewPendingInviteRepository(q),
		settings: repository.NewSettingsRepository(q),
		f1data:   repository.NewF1DataRepository(q),
	}
}
