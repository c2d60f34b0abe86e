package handlers

import (
	"fmt"
	"net/http"

	"f1fantasy/internal/service"
)

// TeamHandler handles team pages
type TeamHandler struct {
	teamService *service.TeamService
	renderer    *Renderer
}

func NewTeamHandler(teamService *service.TeamService, renderer *Renderer) *TeamHandler {
	return &TeamHandler{teamService: teamService, renderer: renderer}
}

// Create adds the user's team to a league
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	leagueID, ok := pathID(r, "id")
	if !ok {
		h.renderer.renderError(w, r, http.StatusNotFound, ErrNotFound)
		return
	}
	user := GetUserFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, http.StatusBadRequest, ErrInvalidFormData)
		return
	}

	team, err := h.teamService.Create(r.Context(), user.ID, leagueID, r.PostFormValue("name"))
	if err != nil {
		h.renderer.fail(w, r, err, leagueURL(leagueID))
		return
	}
	redirectWithFlash(w, r, fmt.Sprintf("/teams/%d", team.ID), "Team created.")
}

// Show renders a team page
func (h *TeamHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.renderer.renderError(w, r, http.StatusNotFound, ErrNotFound)
		return
	}

	view, err := h.teamService.View(r.Context(), id, GetUserFromContext(r.Context()))
	if err != nil {
		h.renderer.fail(w, r, err, "")
		return
	}
	data := TeamViewData{
		Page:   h.renderer.page(w, r, view.Team.Name),
		Team:   view.Team,
		League: view.League,
	}
	h.renderer.render(w, http.StatusOK, "team.tmpl", data)
}
