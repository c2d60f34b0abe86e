package handlers

import (
	"net/http"

	"f1fantasy/internal/service"
	"f1fantasy/internal/settings"
)

// DashboardHandler renders the signed-in landing page
type DashboardHandler struct {
	leagueService   *service.LeagueService
	inviteService   *service.InviteService
	settingsService *service.SettingsService
	renderer        *Renderer
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(leagueService *service.LeagueService, inviteService *service.InviteService, settingsService *service.SettingsService, renderer *Renderer) *DashboardHandler {
	return &DashboardHandler{
		leagueService:   leagueService,
		inviteService:   inviteService,
		settingsService: settingsService,
		renderer:        renderer,
	}
}

// Dashboard lists the user's leagues and pending invites
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	leagues, err := h.leagueService.ListForUser(r.Context(), user.ID)
	if err != nil {
		h.renderer.fail(w, r, err, "")
		return
	}
	invites, err := h.inviteService.ListPending(r.Context(), user.ID)
	if err != nil {
		h.renderer.fail(w, r, err, "")
		return
	}

	data := DashboardViewData{
		Page:           h.renderer.page(w, r, "Dashboard"),
		AppDescription: h.settingsService.String(r.Context(), settings.AppDescription),
		Leagues:        leagues,
		Invites:        invites,
	}
	h.renderer.render(w, http.StatusOK, "dashboard.tmpl", data)
}
