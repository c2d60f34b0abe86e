package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"f1fantasy/internal/models"
	"f1fantasy/internal/security"
	"f1fantasy/internal/service"
	"f1fantasy/internal/settings"

	"github.com/rs/zerolog/log"
)

// maxBackupUpload caps the size of an uploaded backup file
const maxBackupUpload = 10 << 20

// AdminHandler handles admin-specific routes
type AdminHandler struct {
	adminService    *service.AdminService
	settingsService *service.SettingsService
	backupService   *service.BackupService
	emailService    *service.EmailService
	renderer        *Renderer
	version         string
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(adminService *service.AdminService, settingsService *service.SettingsService, backupService *service.BackupService, emailService *service.EmailService, renderer *Renderer, version string) *AdminHandler {
	return &AdminHandler{
		adminService:    adminService,
		settingsService: settingsService,
		backupService:   backupService,
		emailService:    emailService,
		renderer:        renderer,
		version:         version,
	}
}

// ShowAdminDashboard shows the admin dashboard
func (h *AdminHandler) ShowAdminDashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.adminService.Stats(r.Context())
	if err != nil {
		h.renderer.fail(w, r, err, "")
		return
	}

	data := AdminDashboardViewData{
		Page:            h.renderer.page(w, r, "Admin"),
		Stats:           stats,
		MaintenanceMode: h.settingsService.Bool(r.Context(), settings.MaintenanceMode),
		EmailEnabled:    h.emailService != nil && h.emailService.IsEnabled(),
		Version:         h.version,
	}
	h.renderer.render(w, http.StatusOK, "admin_dashboard.tmpl", data)
}

// ShowSettings lists the settings of one category
func (h *AdminHandler) ShowSettings(w http.ResponseWriter, r *http.Request) {
	h.showSettings(w, r, r.URL.Query().Get("category"), http.StatusOK, "")
}

func (h *AdminHandler) showSettings(w http.ResponseWriter, r *http.Request, category string, status int, errMsg string) {
	catalogue := h.settingsService.Catalogue()
	if !catalogue.HasCategory(category) {
		if len(catalogue.Categories) == 0 {
			h.renderer.renderError(w, r, http.StatusNotFound, ErrNotFound)
			return
		}
		category = catalogue.Categories[0].Key
	}

	values, err := h.settingsService.List(r.Context(), category)
	if err != nil {
		h.renderer.fail(w, r, err, "")
		return
	}
	data := AdminSettingsViewData{
		Page:       h.renderer.page(w, r, "Settings"),
		Categories: catalogue.Categories,
		Category:   category,
		Settings:   values,
		Error:      errMsg,
	}
	h.renderer.render(w, status, "admin_settings.tmpl", data)
}

// UpdateSettings saves a category form
func (h *AdminHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, http.StatusBadRequest, ErrInvalidFormData)
		return
	}

	category := r.PostFormValue("category")
	values := make(map[string]string)
	for key := range r.PostForm {
		if key == "category" || key == "csrf_token" {
			continue
		}
		values[key] = r.PostFormValue(key)
	}

	if err := h.settingsService.Update(r.Context(), category, values, user.ID); err != nil {
		// Validation messages name the setting, so they are shown as is
		h.showSettings(w, r, category, http.StatusUnprocessableEntity, err.Error())
		return
	}
	redirectWithFlash(w, r, "/admin/settings?category="+category, "Settings saved.")
}

// ListUsers shows every account with the create form
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	h.listUsers(w, r, http.StatusOK, "")
}

func (h *AdminHandler) listUsers(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	users, err := h.adminService.ListUsers(r.Context())
	if err != nil {
		h.renderer.fail(w, r, err, "")
		return
	}
	data := AdminUsersViewData{
		Page:  h.renderer.page(w, r, "Users"),
		Users: users,
		Error: errMsg,
	}
	h.renderer.render(w, status, "admin_users.tmpl", data)
}

func parseUserInput(r *http.Request) service.UserInput {
	return service.UserInput{
		Username:   r.PostFormValue("username"),
		Email:      r.PostFormValue("email"),
		Name:       r.PostFormValue("name"),
		Password:   r.PostFormValue("password"),
		IsAdmin:    r.PostFormValue("is_admin") == "on",
		IsActive:   r.PostFormValue("is_active") == "on",
		Visibility: models.Visibility(r.PostFormValue("visibility")),
	}
}

// CreateUser adds an account
func (h *AdminHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, http.StatusBadRequest, ErrInvalidFormData)
		return
	}

	user, err := h.adminService.CreateUser(r.Context(), parseUserInput(r))
	if err != nil {
		if statusFor(err) >= http.StatusInternalServerError {
			h.renderer.fail(w, r, err, "")
			return
		}
		h.listUsers(w, r, statusFor(err), userMessage(err))
		return
	}
	redirectWithFlash(w, r, "/admin/users", "Created "+user.Username+".")
}

// ShowUser renders the edit form for one account
func (h *AdminHandler) ShowUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.renderer.renderError(w, r, http.StatusNotFound, ErrNotFound)
		return
	}
	target, err := h.adminService.GetUser(r.Context(), id)
	if err != nil {
		h.renderer.fail(w, r, err, "")
		return
	}
	data := AdminUserViewData{
		Page:   h.renderer.page(w, r, "Edit "+target.Username),
		Target: target,
	}
	h.renderer.render(w, http.StatusOK, "admin_user.tmpl", data)
}

// UpdateUser saves the edit form
func (h *AdminHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.renderer.renderError(w, r, http.StatusNotFound, ErrNotFound)
		return
	}
	actor := GetUserFromContext(r.Context())
	if err := r.ParseForm(); err != nil {
		h.renderer.renderError(w, r, http.StatusBadRequest, ErrInvalidFormData)
		return
	}

	in := parseUserInput(r)
	user, err := h.adminService.UpdateUser(r.Context(), actor.ID, id, in)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError || status == http.StatusNotFound {
			h.renderer.fail(w, r, err, "")
			return
		}
		target, getErr := h.adminService.GetUser(r.Context(), id)
		if getErr != nil {
			h.renderer.fail(w, r, getErr, "")
			return
		}
		data := AdminUserViewData{
			Page:   h.renderer.page(w, r, "Edit "+target.Username),
			Target: target,
			Error:  userMessage(err),
		}
		h.renderer.render(w, status, "admin_user.tmpl", data)
		return
	}
	redirectWithFlash(w, r, "/admin/users", "Updated "+user.Username+".")
}

// DeleteUser removes an account
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		h.renderer.renderError(w, r, http.StatusNotFound, ErrNotFound)
		return
	}
	actor := GetUserFromContext(r.Context())
	if err := h.adminService.DeleteUser(r.Context(), actor.ID, id); err != nil {
		h.renderer.fail(w, r, err, "/admin/users")
		return
	}
	redirectWithFlash(w, r, "/admin/users", "User deleted.")
}

// ListLeagues shows every league
func (h *AdminHandler) ListLeagues(w http.ResponseWriter, r *http.Request) {
	leagues, err := h.adminService.ListLeagues(r.Context())
	if err != nil {
		h.renderer.fail(w, r, err, "")
		return
	}
	data := AdminLeaguesViewData{
		Page:    h.renderer.page(w, r, "Leagues"),
		Leagues: leagues,
	}
	h.renderer.render(w, http.StatusOK, "admin_leagues.tmpl", data)
}

// ShowBackup shows the database backup/restore page
func (h *AdminHandler) ShowBackup(w http.ResponseWriter, r *http.Request) {
	h.showBackup(w, r, http.StatusOK, "")
}

func (h *AdminHandler) showBackup(w http.ResponseWriter, r *http.Request, status int, errMsg string) {
	stats, err := h.adminService.Stats(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Error getting database stats")
		stats = &service.DashboardStats{}
	}
	data := AdminBackupViewData{
		Page:  h.renderer.page(w, r, "Backup"),
		Stats: stats,
		Error: errMsg,
	}
	h.renderer.render(w, status, "admin_backup.tmpl", data)
}

// ExportBackup streams the database as a JSON download
func (h *AdminHandler) ExportBackup(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	filename := fmt.Sprintf("f1fantasy_backup_%s.json", time.Now().UTC().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))

	if err := h.backupService.ExportToWriter(r.Context(), w); err != nil {
		respondWithError(w, http.StatusInternalServerError, "Failed to export database", "Error exporting database", err)
		return
	}
	log.Info().Int64("user_id", user.ID).Msg("Database exported")
}

// ImportBackup restores an uploaded backup into an empty database
func (h *AdminHandler) ImportBackup(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())

	if err := r.ParseMultipartForm(maxBackupUpload); err != nil {
		h.showBackup(w, r, http.StatusBadRequest, "Failed to read the upload")
		return
	}
	file, _, err := r.FormFile("backup_file")
	if err != nil {
		h.showBackup(w, r, http.StatusBadRequest, "Please select a backup file")
		return
	}
	defer file.Close()

	if err := h.backupService.ImportFromReader(r.Context(), file); err != nil {
		log.Warn().Err(err).Int64("user_id", user.ID).Msg("Database import failed")
		h.showBackup(w, r, http.StatusUnprocessableEntity, "Failed to import database: "+strings.TrimSpace(err.Error()))
		return
	}
	log.Info().Int64("user_id", user.ID).Msg("Database imported")
	http.SetCookie(w, security.CreateDeleteCookie(r, security.SessionCookieName))
	redirectWithFlash(w, r, "/login", "Database imported successfully. Sign in with a restored account.")
}
