package handlers

import (
	"net/http"

	"f1fantasy/internal/models"
	"f1fantasy/internal/security"
	"f1fantasy/internal/service"
)

const deleteConfirmation = "DELETE"

// AccountHandler handles the user's own account settings
type AccountHandler struct {
	authService   *service.AuthService
	leagueService *service.LeagueService
	renderer      *Renderer
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(authService *service.AuthService, leagueService *service.LeagueService, renderer *Renderer) *AccountHandler {
	return &AccountHandler{
		authService:   authService,
		leagueService: leagueService,
		renderer:      renderer,
	}
}

// Show renders the account page
func (h *AccountHandler) Show(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, http.StatusOK, "")
}

func (h *AccountHandler) show(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	user := GetUserFromContext(r.Context())
	owned, err := h.leagueService.ListOwned(r.Context(), user.ID)
	if err != nil {
		h.renderer.fail(w, r, err, "")
		return
	}
	data := AccountViewData{
		Page:  h.renderer.page(w, r, "Account"),
		Owned: owned,
		Error: errMsg,
	}
	h.renderer.render(w, status, "account.tmpl", data)
}

// SetVisibility hides or exposes the account to invite search
func (h *AccountHandler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, http.StatusBadRequest, ErrInvalidFormData)
		return
	}

	visibility := models.Visibility(r.PostFormValue("visibility"))
	if err := h.authService.SetVisibility(r.Context(), user.ID, visibility); err != nil {
		h.renderer.fail(w, r, err, "/account")
		return
	}
	redirectWithFlash(w, r, "/account", "Visibility updated.")
}

// ChangePassword replaces the password after checking the current one
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, http.StatusBadRequest, ErrInvalidFormData)
		return
	}

	err := h.authService.ChangePassword(r.Context(), user, r.PostFormValue("current_password"), r.PostFormValue("new_password"))
	if err != nil {
		if statusFor(err) >= http.StatusInternalServerError {
			h.renderer.fail(w, r, err, "")
			return
		}
		h.show(w, r, statusFor(err), userMessage(err))
		return
	}
	redirectWithFlash(w, r, "/account", "Password changed.")
}

// Delete removes the account once the user has typed DELETE
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, http.StatusBadRequest, ErrInvalidFormData)
		return
	}
	if r.PostFormValue("confirm") != deleteConfirmation {
		h.show(w, r, http.StatusUnprocessableEntity, "Type DELETE to confirm account deletion")
		return
	}

	if err := h.authService.DeleteAccount(r.Context(), user.ID); err != nil {
		h.renderer.fail(w, r, err, "/account")
		return
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
	redirectWithFlash(w, r, "/login", "Your account has been deleted.")
}
