package handlers

const (
	flashCookieName = "f1_flash"
	defaultMaxTeams = 10

	ErrInvalidFormData     = "Invalid form data"
	ErrUnauthorized        = "Unauthorized"
	ErrForbidden           = "You do not have permission to do that"
	ErrNotFound            = "Page not found"
	ErrInternalServerError = "Internal server error"
	ErrTooManyRequests     = "Too many requests, please slow down"
	ErrInvalidCSRF         = "Your session expired, please reload the page and try again"
)
