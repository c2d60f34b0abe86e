package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	emailRegex    = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)
	usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_.\-]+$`)
)

// Length limits for user-supplied names
const (
	MinUsernameLength    = 3
	MaxUsernameLength    = 80
	MaxEmailLength       = 120
	MinPasswordLength    = 8
	MinLeagueNameLength  = 3
	MaxLeagueNameLength  = 100
	MaxDescriptionLength = 500
	MinTeamNameLength    = 3
	MaxTeamNameLength    = 100
)

// ValidationError represents a validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if len(email) > MaxEmailLength {
		return ValidationError{Field: "email", Message: fmt.Sprintf("email cannot exceed %d characters", MaxEmailLength)}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < MinPasswordLength {
		return ValidationError{Field: "password", Message: fmt.Sprintf("password must be at least %d characters", MinPasswordLength)}
	}
	return nil
}

// ValidateName checks if a display name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if utf8.RuneCountInString(name) < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	return nil
}

// ValidateUsername checks length and allowed characters
func ValidateUsername(username string) error {
	if err := lengthBetween("username", strings.TrimSpace(username), MinUsernameLength, MaxUsernameLength); err != nil {
		return err
	}
	if !usernameRegex.MatchString(username) {
		return ValidationError{Field: "username", Message: "username may only contain letters, numbers, dots, dashes and underscores"}
	}
	return nil
}

// ValidateLeagueName checks a league name's length
func ValidateLeagueName(name string) error {
	return lengthBetween("name", strings.TrimSpace(name), MinLeagueNameLength, MaxLeagueNameLength)
}

// ValidateDescription checks a league description's length
func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return ValidationError{Field: "description", Message: fmt.Sprintf("description cannot exceed %d characters", MaxDescriptionLength)}
	}
	return nil
}

// ValidateTeamName checks a team name's length
func ValidateTeamName(name string) error {
	return lengthBetween("name", strings.TrimSpace(name), MinTeamNameLength, MaxTeamNameLength)
}

func lengthBetween(field, value string, min, max int) error {
	n := utf8.RuneCountInString(value)
	if n == 0 {
		return ValidationError{Field: field, Message: field + " is required"}
	}
	if n < min || n > max {
		return ValidationError{Field: field, Message: fmt.Sprintf("%s must be between %d and %d characters", field, min, max)}
	}
	return nil
}
