package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"f1fantasy/internal/models"
	"f1fantasy/internal/security"
	"f1fantasy/internal/service"
	"f1fantasy/internal/settings"

	"github.com/rs/zerolog/log"
)

// WelcomeSender emails new accounts
type WelcomeSender interface {
	SendWelcome(ctx context.Context, toEmail, name string) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	authService          *service.AuthService
	settingsService      *service.SettingsService
	welcome              WelcomeSender
	renderer             *Renderer
	oauthProviders       map[string]OAuthProvider
	oauthRedirectBaseURL string
}

// NewAuthHandler creates a new auth handler. welcome may be nil.
func NewAuthHandler(authService *service.AuthService, settingsService *service.SettingsService, welcome WelcomeSender, renderer *Renderer, oauthProviders map[string]OAuthProvider, oauthRedirectBaseURL string) *AuthHandler {
	return &AuthHandler{
		authService:          authService,
		settingsService:      settingsService,
		welcome:              welcome,
		renderer:             renderer,
		oauthProviders:       oauthProviders,
		oauthRedirectBaseURL: oauthRedirectBaseURL,
	}
}

// Home sends visitors to their dashboard or the login page
func (h *AuthHandler) Home(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		h.renderer.renderError(w, r, http.StatusNotFound, ErrNotFound)
		return
	}
	if GetUserFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// ShowLogin renders the login page
func (h *AuthHandler) ShowLogin(w http.ResponseWriter, r *http.Request) {
	if GetUserFromContext(r.Context()) != nil {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	data := LoginViewData{
		Page:           h.renderer.page(w, r, "Log in"),
		OAuthProviders: h.oauthProviderViews(r),
		Next:           safeNext(r.URL.Query().Get("next")),
	}
	h.renderer.render(w, http.StatusOK, "login.tmpl", data)
}

// Login handles login form submission
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, http.StatusBadRequest, ErrInvalidFormData)
		return
	}

	identifier := strings.TrimSpace(r.FormValue("identifier"))
	password := r.FormValue("password")
	next := safeNext(r.FormValue("next"))

	session, user, err := h.authService.Login(r.Context(), identifier, password)
	if err != nil {
		status := statusFor(err)
		message := userMessage(err)
		if errors.Is(err, service.ErrInvalidCredentials) {
			status = http.StatusUnauthorized
		}
		data := LoginViewData{
			Page:           h.renderer.page(w, r, "Log in"),
			OAuthProviders: h.oauthProviderViews(r),
			Error:          message,
			Identifier:     identifier,
			Next:           next,
		}
		h.renderer.render(w, status, "login.tmpl", data)
		return
	}

	http.SetCookie(w, security.CreateSessionCookie(r, security.SessionCookieName, session.ID, session.ExpiresAt))
	if next == "" {
		next = landingFor(user)
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// ShowRegister renders the registration page. An invite_token query
// parameter pre-fills the email and names the invited league.
func (h *AuthHandler) ShowRegister(w http.ResponseWriter, r *http.Request) {
	if GetUserFromContext(r.Context()) != nil {
		if token := r.URL.Query().Get("invite_token"); token != "" {
			http.Redirect(w, r, "/invites/redeem?token="+url.QueryEscape(token), http.StatusSeeOther)
			return
		}
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}

	data := RegisterViewData{
		Page:             h.renderer.page(w, r, "Register"),
		OAuthProviders:   h.oauthProviderViews(r),
		RegistrationOpen: h.settingsService.Bool(r.Context(), settings.AllowRegistration),
	}
	if token := r.URL.Query().Get("invite_token"); token != "" {
		claims, leagueName, err := h.authService.PreviewInvite(r.Context(), token)
		if err != nil {
			data.Error = "This invite link cannot be used: " + err.Error() + ". You can still register without it."
		} else {
			data.InviteToken = token
			data.InviteLeague = leagueName
			data.Email = claims.Email
		}
	}
	h.renderer.render(w, http.StatusOK, "register.tmpl", data)
}

// Register handles registration form submission
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, http.StatusBadRequest, ErrInvalidFormData)
		return
	}

	reg := service.Registration{
		Username:    r.FormValue("username"),
		Email:       r.FormValue("email"),
		Password:    r.FormValue("password"),
		Name:        r.FormValue("name"),
		InviteToken: r.FormValue("invite_token"),
	}

	user, redemption, err := h.authService.Register(r.Context(), reg)
	if err != nil {
		data := RegisterViewData{
			Page:             h.renderer.page(w, r, "Register"),
			OAuthProviders:   h.oauthProviderViews(r),
			Error:            userMessage(err),
			Username:         reg.Username,
			Email:            reg.Email,
			Name:             reg.Name,
			InviteToken:      reg.InviteToken,
			RegistrationOpen: h.settingsService.Bool(r.Context(), settings.AllowRegistration),
		}
		h.renderer.render(w, statusFor(err), "register.tmpl", data)
		return
	}

	if h.welcome != nil && user.Email != "" {
		if err := h.welcome.SendWelcome(r.Context(), user.Email, user.DisplayName()); err != nil {
			log.Warn().Err(err).Int64("user_id", user.ID).Msg("Welcome email not delivered")
		}
	}

	// Auto-login after registration
	session, _, err := h.authService.Login(r.Context(), user.Username, reg.Password)
	if err != nil {
		log.Warn().Err(err).Int64("user_id", user.ID).Msg("Login after registration failed")
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}
	http.SetCookie(w, security.CreateSessionCookie(r, security.SessionCookieName, session.ID, session.ExpiresAt))

	flashRedemption(w, r, redemption)
	http.Redirect(w, r, redemptionTarget(redemption, landingFor(user)), http.StatusSeeOther)
}

// Logout handles logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(security.SessionCookieName); err == nil {
		if err := h.authService.Logout(r.Context(), cookie.Value); err != nil {
			log.Warn().Err(err).Msg("Failed to delete session")
		}
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

// flashRedemption tells the user what their invite token did. A failed
// redemption never blocks the account it arrived with.
func flashRedemption(w http.ResponseWriter, r *http.Request, redemption *service.Redemption) {
	switch {
	case redemption == nil:
	case redemption.Joined():
		setFlash(w, r, "success", fmt.Sprintf("Welcome to %s! You joined as %s.", redemption.LeagueName, redemption.Role))
	default:
		setFlash(w, r, "error", "Your invite could not be used: "+redemption.Err.Error())
	}
}

func redemptionTarget(redemption *service.Redemption, fallback string) string {
	if redemption.Joined() {
		return fmt.Sprintf("/leagues/%d", redemption.LeagueID)
	}
	return fallback
}

func landingFor(user *models.User) string {
	if user.IsAdmin {
		return "/admin"
	}
	return "/dashboard"
}

// safeNext keeps post-login redirects on this site
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}
