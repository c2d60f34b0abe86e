package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"f1fantasy/internal/models"
	"f1fantasy/internal/scoring"
	"f1fantasy/internal/service"
	"f1fantasy/internal/settings"
)

// LeagueHandler handles league pages and membership management
type LeagueHandler struct {
	leagueService   *service.LeagueService
	settingsService *service.SettingsService
	renderer        *Renderer
}

// NewLeagueHandler creates a new league handler
func NewLeagueHandler(leagueService *service.LeagueService, settingsService *service.SettingsService, renderer *Renderer) *LeagueHandler {
	return &LeagueHandler{
		leagueService:   leagueService,
		settingsService: settingsService,
		renderer:        renderer,
	}
}

// pathID parses a numeric path wildcard
func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	return id, err == nil && id > 0
}

func leagueURL(id int64) string {
	return fmt.Sprintf("/leagues/%d", id)
}

// List shows the user's leagues and the public leagues they can join
func (h *LeagueHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	mine, err := h.leagueService.ListForUser(r.Context(), user.ID)
	if err != nil {
		h.renderer.fail(w, r, err, "")
		return
	}
	public, err := h.leagueService.ListPublic(r.Context())
	if err != nil {
		h.renderer.fail(w, r, err, "")
		return
	}

	joined := make(map[int64]bool, len(mine))
	for _, l := range mine {
		joined[l.ID] = true
	}
	data := LeagueListViewData{
		Page:   h.renderer.page(w, r, "Leagues"),
		Mine:   mine,
		Public: public,
		Joined: joined,
	}
	h.renderer.render(w, http.StatusOK, "leagues.tmpl", data)
}

func (h *LeagueHandler) formData(w http.ResponseWriter, r *http.Request, title string) LeagueFormViewData {
	lo, hi := h.leagueService.CapacityBounds(r.Context())
	return LeagueFormViewData{
		Page:          h.renderer.page(w, r, title),
		MinTeams:      lo,
		MaxTeams:      hi,
		PublicAllowed: h.settingsService.Bool(r.Context(), settings.AllowPublicLeague),
	}
}

// ShowCreate renders an empty league form with every field editable
func (h *LeagueHandler) ShowCreate(w http.ResponseWriter, r *http.Request) {
	data := h.formData(w, r, "Create a league")
	data.Action = "/leagues"
	data.Editable = models.Fields
	data.Input = service.LeagueInput{
		MaxTeams:    min(max(defaultMaxTeams, data.MinTeams), data.MaxTeams),
		DraftType:   models.DraftSnake,
		PointSystem: models.PointSystemDefault,
	}
	h.renderer.render(w, http.StatusOK, "league_form.tmpl", data)
}

// Create handles the league creation form
func (h *LeagueHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, http.StatusBadRequest, ErrInvalidFormData)
		return
	}

	in, err := parseLeagueForm(r, service.LeagueInput{})
	if err == nil {
		var league *models.League
		league, err = h.leagueService.Create(r.Context(), user.ID, in)
		if err == nil {
			redirectWithFlash(w, r, leagueURL(league.ID), "League created.")
			return
		}
	}
	if statusFor(err) >= http.StatusInternalServerError {
		h.renderer.fail(w, r, err, "")
		return
	}

	data := h.formData(w, r, "Create a league")
	data.Action = "/leagues"
	data.Editable = models.Fields
	data.Input = in
	data.Error = userMessage(err)
	h.renderer.render(w, statusFor(err), "league_form.tmpl", data)
}

// parseLeagueForm overlays the submitted fields on base. Disabled inputs are
// not submitted, so absent fields keep the base value.
func parseLeagueForm(r *http.Request, base service.LeagueInput) (service.LeagueInput, error) {
	in := base
	if _, ok := r.PostForm["name"]; ok {
		in.Name = strings.TrimSpace(r.PostFormValue("name"))
	}
	if _, ok := r.PostForm["description"]; ok {
		in.Description = strings.TrimSpace(r.PostFormValue("description"))
	}
	if _, ok := r.PostForm["is_public"]; ok {
		in.IsPublic = r.PostFormValue("is_public") == "true"
	}
	if _, ok := r.PostForm["max_teams"]; ok {
		n, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("max_teams")))
		if err != nil {
			return in, service.ErrInvalidCapacity
		}
		in.MaxTeams = n
	}
	if _, ok := r.PostForm["draft_type"]; ok {
		in.DraftType = models.DraftType(r.PostFormValue("draft_type"))
	}
	if _, ok := r.PostForm["point_system"]; ok {
		in.PointSystem = models.PointSystem(r.PostFormValue("point_system"))
	}
	return in, nil
}

// Show renders the league page
func (h *LeagueHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.renderer.renderError(w, r, http.StatusNotFound, ErrNotFound)
		return
	}

	view, err := h.leagueService.View(r.Context(), id, GetUserFromContext(r.Context()))
	if err != nil {
		h.renderer.fail(w, r, err, "")
		return
	}

	data := LeagueViewData{
		Page:    h.renderer.page(w, r, view.League.Name),
		View:    view,
		Scoring: scoring.Table(view.League.PointSystem),
	}
	data.NextStatus, data.CanAdvance = view.League.Status.Next()
	h.renderer.render(w, http.StatusOK, "league.tmpl", data)
}

// ShowEdit renders the edit form with the fields the user may change
func (h *LeagueHandler) ShowEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.renderer.renderError(w, r, http.StatusNotFound, ErrNotFound)
		return
	}
	view, err := h.leagueService.View(r.Context(), id, GetUserFromContext(r.Context()))
	if err != nil {
		h.renderer.fail(w, r, err, "")
		return
	}
	if len(view.Editable) == 0 {
		h.renderer.renderError(w, r, http.StatusForbidden, ErrForbidden)
		return
	}

	data := h.formData(w, r, "Edit "+view.League.Name)
	data.Action = leagueURL(id) + "/edit"
	data.League = view.League
	data.Editable = view.Editable
	data.Input = service.InputFromLeague(&view.League.League)
	h.renderer.render(w, http.StatusOK, "league_form.tmpl", data)
}

// Edit applies the submitted changes. Fields the user lacks permission for
// are skipped and reported back.
func (h *LeagueHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.renderer.renderError(w, r, http.StatusNotFound, ErrNotFound)
		return
	}
	user := GetUserFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, http.StatusBadRequest, ErrInvalidFormData)
		return
	}

	view, err := h.leagueService.View(r.Context(), id, user)
	if err != nil {
		h.renderer.fail(w, r, err, "")
		return
	}

	in, err := parseLeagueForm(r, service.InputFromLeague(&view.League.League))
	var result *service.EditResult
	if err == nil {
		result, err = h.leagueService.Edit(r.Context(), user.ID, id, in)
	}
	if err != nil {
		if status := statusFor(err); status == http.StatusForbidden || status >= http.StatusInternalServerError {
			h.renderer.fail(w, r, err, "")
			return
		}
		data := h.formData(w, r, "Edit "+view.League.Name)
		data.Action = leagueURL(id) + "/edit"
		data.League = view.League
		data.Editable = view.Editable
		data.Input = in
		data.Error = userMessage(err)
		h.renderer.render(w, statusFor(err), "league_form.tmpl", data)
		return
	}

	switch {
	case len(result.Skipped) > 0:
		setFlash(w, r, "error", "Some changes were not saved, you lack permission for: "+fieldLabels(result.Skipped)+".")
	case len(result.Applied) == 0:
		setFlash(w, r, "success", "Nothing to change.")
	default:
		setFlash(w, r, "success", "Updated "+fieldLabels(result.Applied)+".")
	}
	http.Redirect(w, r, leagueURL(id), http.StatusSeeOther)
}

func fieldLabels(fields []models.Field) string {
	labels := make([]string, len(fields))
	for i, f := range fields {
		labels[i] = strings.ToLower(f.Label())
	}
	return strings.Join(labels, ", ")
}

// ShowDelete renders the delete confirmation page
func (h *LeagueHandler) ShowDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.renderer.renderError(w, r, http.StatusNotFound, ErrNotFound)
		return
	}
	user := GetUserFromContext(r.Context())
	league, err := h.leagueService.Get(r.Context(), id)
	if err != nil {
		h.renderer.fail(w, r, err, "")
		return
	}
	if !league.IsOwner(user.ID) {
		h.renderer.renderError(w, r, http.StatusForbidden, ErrForbidden)
		return
	}

	data := LeagueDeleteViewData{
		Page:   h.renderer.page(w, r, "Delete "+league.Name),
		League: league,
	}
	h.renderer.render(w, http.StatusOK, "league_delete.tmpl", data)
}

// Delete removes the league once the owner has typed its name
func (h *LeagueHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.renderer.renderError(w, r, http.StatusNotFound, ErrNotFound)
		return
	}
	user := GetUserFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, http.StatusBadRequest, ErrInvalidFormData)
		return
	}

	err := h.leagueService.Delete(r.Context(), user.ID, id, r.PostFormValue("confirm_name"))
	if errors.Is(err, service.ErrConfirmationMismatch) {
		league, getErr := h.leagueService.Get(r.Context(), id)
		if getErr != nil {
			h.renderer.fail(w, r, getErr, "")
			return
		}
		data := LeagueDeleteViewData{
			Page:   h.renderer.page(w, r, "Delete "+league.Name),
			League: league,
			Error:  userMessage(err),
		}
		h.renderer.render(w, http.StatusUnprocessableEntity, "league_delete.tmpl", data)
		return
	}
	if err != nil {
		h.renderer.fail(w, r, err, "")
		return
	}
	redirectWithFlash(w, r, "/dashboard", "League deleted.")
}

// Join adds the user to a public league
func (h *LeagueHandler) Join(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.renderer.renderError(w, r, http.StatusNotFound, ErrNotFound)
		return
	}
	user := GetUserFromContext(r.Context())
	if err := h.leagueService.Join(r.Context(), user.ID, id); err != nil {
		h.renderer.fail(w, r, err, leagueURL(id))
		return
	}
	redirectWithFlash(w, r, leagueURL(id), "You joined the league.")
}

// Leave removes the user from a league they do not own
func (h *LeagueHandler) Leave(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.renderer.renderError(w, r, http.StatusNotFound, ErrNotFound)
		return
	}
	user := GetUserFromContext(r.Context())
	if err := h.leagueService.Leave(r.Context(), user.ID, id); err != nil {
		h.renderer.fail(w, r, err, leagueURL(id))
		return
	}
	redirectWithFlash(w, r, "/dashboard", "You left the league.")
}

// AdvanceStatus moves the league one step through its season phases
func (h *LeagueHandler) AdvanceStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.renderer.renderError(w, r, http.StatusNotFound, ErrNotFound)
		return
	}
	user := GetUserFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, http.StatusBadRequest, ErrInvalidFormData)
		return
	}

	target := models.LeagueStatus(r.PostFormValue("status"))
	if err := h.leagueService.AdvanceStatus(r.Context(), user.ID, id, target); err != nil {
		h.renderer.fail(w, r, err, leagueURL(id))
		return
	}
	redirectWithFlash(w, r, leagueURL(id), "League is now "+string(target)+".")
}

// memberTarget parses the league and member ids of a member management route
func (h *LeagueHandler) memberTarget(w http.ResponseWriter, r *http.Request) (leagueID, targetID int64, ok bool) {
	leagueID, ok = pathID(r, "id")
	if ok {
		targetID, ok = pathID(r, "userID")
	}
	if !ok {
		h.renderer.renderError(w, r, http.StatusNotFound, ErrNotFound)
	}
	return leagueID, targetID, ok
}

// parseGrants reads the grant_<field> checkboxes
func parseGrants(r *http.Request) models.EditGrants {
	var grants models.EditGrants
	for _, f := range models.Fields {
		grants.Set(f, r.PostFormValue("grant_"+string(f)) == "on")
	}
	return grants
}

// ChangeRole sets a member's role and edit grants
func (h *LeagueHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	leagueID, targetID, ok := h.memberTarget(w, r)
	if !ok {
		return
	}
	user := GetUserFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, http.StatusBadRequest, ErrInvalidFormData)
		return
	}

	role := models.Role(r.PostFormValue("role"))
	if err := h.leagueService.ChangeRole(r.Context(), user.ID, leagueID, targetID, role, parseGrants(r)); err != nil {
		h.renderer.fail(w, r, err, leagueURL(leagueID))
		return
	}
	redirectWithFlash(w, r, leagueURL(leagueID), "Role updated.")
}

// RemoveMember removes someone else from the league
func (h *LeagueHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	leagueID, targetID, ok := h.memberTarget(w, r)
	if !ok {
		return
	}
	user := GetUserFromContext(r.Context())
	if err := h.leagueService.RemoveMember(r.Context(), user.ID, leagueID, targetID); err != nil {
		h.renderer.fail(w, r, err, leagueURL(leagueID))
		return
	}
	redirectWithFlash(w, r, leagueURL(leagueID), "Member removed.")
}

// SetCommissioner makes a member the league's commissioner
func (h *LeagueHandler) SetCommissioner(w http.ResponseWriter, r *http.Request) {
	leagueID, targetID, ok := h.memberTarget(w, r)
	if !ok {
		return
	}
	user := GetUserFromContext(r.Context())
	if err := h.leagueService.SetCommissioner(r.Context(), user.ID, leagueID, targetID); err != nil {
		h.renderer.fail(w, r, err, leagueURL(leagueID))
		return
	}
	redirectWithFlash(w, r, leagueURL(leagueID), "Commissioner updated.")
}
