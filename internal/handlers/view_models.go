package handlers

import (
	"f1fantasy/internal/models"
	"f1fantasy/internal/scoring"
	"f1fantasy/internal/service"
	"f1fantasy/internal/settings"
)

// Page is the data every layout needs
type Page struct {
	Title          string
	AppName        string
	User           *models.User
	CSRFToken      string
	Flash          *Flash
	PendingInvites int
}

type ErrorViewData struct {
	Page
	Status  int
	Message string
}

type LoginViewData struct {
	Page
	OAuthProviders []OAuthProviderView
	Error          string
	Identifier     string
	Next           string
}

type RegisterViewData struct {
	Page
	OAuthProviders   []OAuthProviderView
	Error            string
	Username         string
	Email            string
	Name             string
	InviteToken      string
	InviteLeague     string
	RegistrationOpen bool
}

type DashboardViewData struct {
	Page
	AppDescription string
	Leagues        []models.LeagueSummary
	Invites        []models.PendingInvite
}

type LeagueListViewData struct {
	Page
	Mine   []models.LeagueSummary
	Public []models.LeagueSummary
	Joined map[int64]bool
}

// LeagueFormViewData backs both the create and the edit form. League is nil
// when creating.
type LeagueFormViewData struct {
	Page
	Action        string
	League        *models.LeagueSummary
	Input         service.LeagueInput
	Editable      []models.Field
	Skipped       []models.Field
	MinTeams      int
	MaxTeams      int
	PublicAllowed bool
	Error         string
}

type LeagueViewData struct {
	Page
	View       *service.LeagueView
	Scoring    []scoring.Row
	NextStatus models.LeagueStatus
	CanAdvance bool
}

type LeagueDeleteViewData struct {
	Page
	League *models.LeagueSummary
	Error  string
}

type TeamViewData struct {
	Page
	Team   *models.Team
	League *models.League
}

type InvitesViewData struct {
	Page
	Invites []models.PendingInvite
}

type AccountViewData struct {
	Page
	Owned []models.LeagueSummary
	Error string
}

type SeasonViewData struct {
	Page
	Season       int
	LatestSeason int
	Races        []models.Race
	Drivers      []models.Driver
}

type AdminDashboardViewData struct {
	Page
	Stats           *service.DashboardStats
	MaintenanceMode bool
	EmailEnabled    bool
	Version         string
}

type AdminSettingsViewData struct {
	Page
	Categories []settings.Category
	Category   string
	Settings   []service.SettingValue
	Error      string
}

type AdminUsersViewData struct {
	Page
	Users []models.User
	Error string
}

type AdminUserViewData struct {
	Page
	Target *models.User
	Error  string
}

type AdminLeaguesViewData struct {
	Page
	Leagues []models.LeagueSummary
}

type AdminBackupViewData struct {
	Page
	Stats *service.DashboardStats
	Error string
}
