package handlers

import (
	"fmt"
	"net/http"
	"strings"

	"f1fantasy/internal/models"
	"f1fantasy/internal/service"
)

// InviteHandler handles sending and answering league invites
type InviteHandler struct {
	inviteService *service.InviteService
	authService   *service.AuthService
	renderer      *Renderer
}

// NewInviteHandler creates a new invite handler
func NewInviteHandler(inviteService *service.InviteService, authService *service.AuthService, renderer *Renderer) *InviteHandler {
	return &InviteHandler{
		inviteService: inviteService,
		authService:   authService,
		renderer:      renderer,
	}
}

// Send invites a user by username or email. Unknown email addresses get a
// registration link, which is emailed when delivery is configured and shown
// to the inviter otherwise.
func (h *InviteHandler) Send(w http.ResponseWriter, r *http.Request) {
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

	req := service.InviteRequest{
		Identifier: strings.TrimSpace(r.PostFormValue("identifier")),
		Role:       models.Role(r.PostFormValue("role")),
	}
	if req.Role == models.RoleCommissioner {
		req.Grants = parseGrants(r)
	}

	outcome, err := h.inviteService.Invite(r.Context(), user, leagueID, req)
	if err != nil {
		h.renderer.fail(w, r, err, leagueURL(leagueID))
		return
	}

	var message string
	switch {
	case outcome.Pending != nil:
		message = fmt.Sprintf("Invite sent to %s.", req.Identifier)
	case outcome.Delivered:
		message = fmt.Sprintf("Registration invite emailed to %s.", outcome.Email)
	default:
		message = fmt.Sprintf("Email delivery is not configured. Share this registration link with %s: %s", outcome.Email, outcome.Link)
	}
	redirectWithFlash(w, r, leagueURL(leagueID), message)
}

// List shows the user's pending invites
func (h *InviteHandler) List(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	invites, err := h.inviteService.ListPending(r.Context(), user.ID)
	if err != nil {
		h.renderer.fail(w, r, err, "")
		return
	}
	data := InvitesViewData{
		Page:    h.renderer.page(w, r, "Invites"),
		Invites: invites,
	}
	h.renderer.render(w, http.StatusOK, "invites.tmpl", data)
}

// Accept joins the league named by a pending invite
func (h *InviteHandler) Accept(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.renderer.renderError(w, r, http.StatusNotFound, ErrNotFound)
		return
	}
	user := GetUserFromContext(r.Context())

	league, err := h.inviteService.Accept(r.Context(), user.ID, id)
	if err != nil {
		h.renderer.fail(w, r, err, "/invites")
		return
	}
	redirectWithFlash(w, r, leagueURL(league.ID), "Welcome to "+league.Name+".")
}

// Decline discards a pending invite
func (h *InviteHandler) Decline(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.renderer.renderError(w, r, http.StatusNotFound, ErrNotFound)
		return
	}
	user := GetUserFromContext(r.Context())

	if err := h.inviteService.Decline(r.Context(), user.ID, id); err != nil {
		h.renderer.fail(w, r, err, "/invites")
		return
	}
	redirectWithFlash(w, r, "/invites", "Invite declined.")
}

// Redeem uses an emailed invite token for an already signed-in user
func (h *InviteHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	token := r.URL.Query().Get("token")
	if token == "" {
		h.renderer.renderError(w, r, http.StatusBadRequest, "Missing invite token")
		return
	}

	redemption := h.authService.RedeemToken(r.Context(), user, token)
	flashRedemption(w, r, redemption)
	http.Redirect(w, r, redemptionTarget(redemption, "/dashboard"), http.StatusSeeOther)
}
