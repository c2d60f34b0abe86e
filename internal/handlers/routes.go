package handlers

import (
	"net/http"

	"f1fantasy/internal/templates"
)

// Router holds every page handler and registers their routes
type Router struct {
	Middleware *Middleware
	Auth       *AuthHandler
	Dashboard  *DashboardHandler
	Leagues    *LeagueHandler
	Teams      *TeamHandler
	Invites    *InviteHandler
	Account    *AccountHandler
	Seasons    *SeasonHandler
	Admin      *AdminHandler

	// MetricsEnabled exposes the Prometheus registry on /metrics
	MetricsEnabled bool
}

// Handler builds the route table wrapped in the global middleware pipeline
func (rt *Router) Handler() http.Handler {
	return rt.Middleware.Pipeline(rt.Mux())
}

// Mux registers every route on a fresh ServeMux
func (rt *Router) Mux() *http.ServeMux {
	m := rt.Middleware
	auth := m.RequireAuth
	admin := m.RequireAdmin
	csrf := m.CSRFProtect

	mux := http.NewServeMux()

	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(templates.Static())))
	if rt.MetricsEnabled {
		mux.Handle("GET /metrics", MetricsHandler())
	}

	// Public routes
	mux.HandleFunc("GET /", rt.Auth.Home)
	mux.HandleFunc("GET /login", rt.Auth.ShowLogin)
	mux.HandleFunc("POST /login", m.RateLimit(rt.Auth.Login))
	mux.HandleFunc("GET /register", rt.Auth.ShowRegister)
	mux.HandleFunc("POST /register", m.RateLimit(rt.Auth.Register))
	mux.HandleFunc("POST /logout", rt.Auth.Logout)
	mux.HandleFunc("GET /auth/{provider}/start", rt.Auth.StartOAuth)
	mux.HandleFunc("GET /auth/{provider}/callback", rt.Auth.OAuthCallback)

	mux.HandleFunc("GET /dashboard", auth(rt.Dashboard.Dashboard))

	// Leagues
	mux.HandleFunc("GET /leagues", auth(rt.Leagues.List))
	mux.HandleFunc("GET /leagues/new", auth(rt.Leagues.ShowCreate))
	mux.HandleFunc("POST /leagues", auth(csrf(rt.Leagues.Create)))
	mux.HandleFunc("GET /leagues/{id}", auth(rt.Leagues.Show))
	mux.HandleFunc("GET /leagues/{id}/edit", auth(rt.Leagues.ShowEdit))
	mux.HandleFunc("POST /leagues/{id}/edit", auth(csrf(rt.Leagues.Edit)))
	mux.HandleFunc("GET /leagues/{id}/delete", auth(rt.Leagues.ShowDelete))
	mux.HandleFunc("POST /leagues/{id}/delete", auth(csrf(rt.Leagues.Delete)))
	mux.HandleFunc("POST /leagues/{id}/join", auth(csrf(rt.Leagues.Join)))
	mux.HandleFunc("POST /leagues/{id}/leave", auth(csrf(rt.Leagues.Leave)))
	mux.HandleFunc("POST /leagues/{id}/status", auth(csrf(rt.Leagues.AdvanceStatus)))
	mux.HandleFunc("POST /leagues/{id}/members/{userID}/role", auth(csrf(rt.Leagues.ChangeRole)))
	mux.HandleFunc("POST /leagues/{id}/members/{userID}/remove", auth(csrf(rt.Leagues.RemoveMember)))
	mux.HandleFunc("POST /leagues/{id}/members/{userID}/commissioner", auth(csrf(rt.Leagues.SetCommissioner)))
	mux.HandleFunc("POST /leagues/{id}/teams", auth(csrf(rt.Teams.Create)))
	mux.HandleFunc("POST /leagues/{id}/invites", auth(csrf(m.RateLimit(rt.Invites.Send))))

	mux.HandleFunc("GET /teams/{id}", auth(rt.Teams.Show))

	// Invites
	mux.HandleFunc("GET /invites", auth(rt.Invites.List))
	mux.HandleFunc("GET /invites/redeem", auth(rt.Invites.Redeem))
	mux.HandleFunc("POST /invites/{id}/accept", auth(csrf(rt.Invites.Accept)))
	mux.HandleFunc("POST /invites/{id}/decline", auth(csrf(rt.Invites.Decline)))

	// Account
	mux.HandleFunc("GET /account", auth(rt.Account.Show))
	mux.HandleFunc("POST /account/visibility", auth(csrf(rt.Account.SetVisibility)))
	mux.HandleFunc("POST /account/password", auth(csrf(m.RateLimit(rt.Account.ChangePassword))))
	mux.HandleFunc("POST /account/delete", auth(csrf(rt.Account.Delete)))

	// Season data
	mux.HandleFunc("GET /seasons", auth(rt.Seasons.Latest))
	mux.HandleFunc("GET /seasons/{season}", auth(rt.Seasons.Show))

	// Admin routes
	mux.HandleFunc("GET /admin", admin(rt.Admin.ShowAdminDashboard))
	mux.HandleFunc("GET /admin/settings", admin(rt.Admin.ShowSettings))
	mux.HandleFunc("POST /admin/settings", admin(csrf(rt.Admin.UpdateSettings)))
	mux.HandleFunc("GET /admin/users", admin(rt.Admin.ListUsers))
	mux.HandleFunc("POST /admin/users", admin(csrf(rt.Admin.CreateUser)))
	mux.HandleFunc("GET /admin/users/{id}", admin(rt.Admin.ShowUser))
	mux.HandleFunc("POST /admin/users/{id}", admin(csrf(rt.Admin.UpdateUser)))
	mux.HandleFunc("POST /admin/users/{id}/delete", admin(csrf(rt.Admin.DeleteUser)))
	mux.HandleFunc("GET /admin/leagues", admin(rt.Admin.ListLeagues))
	mux.HandleFunc("GET /admin/backup", admin(rt.Admin.ShowBackup))
	mux.HandleFunc("GET /admin/backup/export", admin(rt.Admin.ExportBackup))
	mux.HandleFunc("POST /admin/backup/import", admin(csrf(rt.Admin.ImportBackup)))

	return mux
}
