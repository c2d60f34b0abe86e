package handlers

import (
	"bytes"
	"html/template"
	"net/http"
	"net/url"
	"strings"
	"time"

	"f1fantasy/internal/security"
	"f1fantasy/internal/service"
	"f1fantasy/internal/settings"

	"github.com/rs/zerolog/log"
)

// Flash is a one-shot message carried across a redirect
type Flash struct {
	Kind    string // success or error
	Message string
}

// Renderer executes page templates with the shared layout data
type Renderer struct {
	templates *template.Template
	settings  *service.SettingsService
	invites   *service.InviteService
	csrf      *security.CSRFGenerator
}

// NewRenderer creates a renderer. invites may be nil, in which case the
// pending invite badge is not shown.
func NewRenderer(templates *template.Template, settingsService *service.SettingsService, inviteService *service.InviteService, csrf *security.CSRFGenerator) *Renderer {
	return &Renderer{
		templates: templates,
		settings:  settingsService,
		invites:   inviteService,
		csrf:      csrf,
	}
}

// page builds the layout data for the current request and consumes any
// pending flash message.
func (rd *Renderer) page(w http.ResponseWriter, r *http.Request, title string) Page {
	ctx := r.Context()
	p := Page{
		Title:   title,
		AppName: rd.settings.String(ctx, settings.AppName),
		User:    GetUserFromContext(ctx),
		Flash:   popFlash(w, r),
	}
	if sessionID := GetSessionIDFromContext(ctx); sessionID != "" {
		p.CSRFToken, _ = rd.csrf.GenerateToken(sessionID)
	}
	if p.User != nil && rd.invites != nil {
		if n, err := rd.invites.CountPending(ctx, p.User.ID); err == nil {
			p.PendingInvites = n
		}
	}
	return p
}

// render executes the named template into a buffer first so a template
// failure never leaves a half-written page.
func (rd *Renderer) render(w http.ResponseWriter, status int, name string, data any) {
	var buf bytes.Buffer
	if err := rd.templates.ExecuteTemplate(&buf, name, data); err != nil {
		respondWithError(w, http.StatusInternalServerError, ErrInternalServerError, "Error rendering "+name, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func (rd *Renderer) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	data := ErrorViewData{
		Page:    rd.page(w, r, http.StatusText(status)),
		Status:  status,
		Message: message,
	}
	rd.render(w, status, "error.tmpl", data)
}

// fail reports a service error. Capacity, state and conflict failures go
// back to redirectTo with a flash reason; authorization and missing records
// get an error page; anything else is logged as an internal error.
func (rd *Renderer) fail(w http.ResponseWriter, r *http.Request, err error, redirectTo string) {
	status := statusFor(err)
	switch {
	case status >= http.StatusInternalServerError:
		log.Error().Err(err).Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed")
		rd.renderError(w, r, status, ErrInternalServerError)
	case status == http.StatusForbidden || status == http.StatusNotFound || redirectTo == "":
		rd.renderError(w, r, status, userMessage(err))
	default:
		setFlash(w, r, "error", userMessage(err))
		http.Redirect(w, r, redirectTo, http.StatusSeeOther)
	}
}

func setFlash(w http.ResponseWriter, r *http.Request, kind, message string) {
	cookie := security.CreateSessionCookie(r, flashCookieName, url.QueryEscape(kind+"|"+message), time.Time{})
	http.SetCookie(w, cookie)
}

func popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, security.CreateDeleteCookie(r, flashCookieName))

	raw, err := url.QueryUnescape(cookie.Value)
	if err != nil {
		return nil
	}
	kind, message, ok := strings.Cut(raw, "|")
	if !ok || (kind != "success" && kind != "error") {
		return nil
	}
	return &Flash{Kind: kind, Message: message}
}

func redirectWithFlash(w http.ResponseWriter, r *http.Request, to, message string) {
	setFlash(w, r, "success", message)
	http.Redirect(w, r, to, http.StatusSeeOther)
}
