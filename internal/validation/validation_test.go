package validation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "valid email", email: "test@example.com"},
		{name: "valid email with subdomain", email: "user@mail.example.com"},
		{name: "valid email with plus", email: "user+tag@example.com"},
		{name: "missing @", email: "testexample.com", wantErr: true},
		{name: "missing domain", email: "test@", wantErr: true},
		{name: "missing local part", email: "@example.com", wantErr: true},
		{name: "empty string", email: "", wantErr: true},
		{name: "spaces in email", email: "test @example.com", wantErr: true},
		{name: "too long", email: strings.Repeat("a", 115) + "@x.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			assert.Equal(t, tt.wantErr, err != nil, "ValidateEmail(%q) error = %v", tt.email, err)
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid name", input: "Lewis Hamilton"},
		{name: "single name", input: "Kimi"},
		{name: "empty name", input: "", wantErr: true},
		{name: "name too short", input: "K", wantErr: true},
		{name: "name with hyphen", input: "Jean-Eric"},
		{name: "name with apostrophe", input: "O'Ward"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			assert.Equal(t, tt.wantErr, err != nil, "ValidateName(%q) error = %v", tt.input, err)
		})
	}
}

func TestValidatePassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		wantErr  bool
	}{
		{name: "valid password", password: "password123"},
		{name: "password exactly 8 characters", password: "pass1234"},
		{name: "password too short", password: "pass123", wantErr: true},
		{name: "empty password", password: "", wantErr: true},
		{name: "long password", password: "thisIsAVeryLongPasswordThatShouldBeValid123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePassword(tt.password)
			assert.Equal(t, tt.wantErr, err != nil, "ValidatePassword() error = %v", err)
		})
	}
}

func TestValidateUsername(t *testing.T) {
	tests := []struct {
		name     string
		username string
		wantErr  bool
	}{
		{name: "simple", username: "max33"},
		{name: "with punctuation", username: "lando_norris.4"},
		{name: "too short", username: "ab", wantErr: true},
		{name: "too long", username: strings.Repeat("a", 81), wantErr: true},
		{name: "spaces", username: "max verstappen", wantErr: true},
		{name: "at sign", username: "max@rbr", wantErr: true},
		{name: "empty", username: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateUsername(tt.username)
			assert.Equal(t, tt.wantErr, err != nil, "ValidateUsername(%q) error = %v", tt.username, err)
		})
	}
}

func TestValidateLeagueAndTeamNames(t *testing.T) {
	assert.NoError(t, ValidateLeagueName("Paddock Club"))
	assert.Error(t, ValidateLeagueName("PC"))
	assert.Error(t, ValidateLeagueName("   "))
	assert.Error(t, ValidateLeagueName(strings.Repeat("x", 101)))

	assert.NoError(t, ValidateTeamName("Undercut Kings"))
	assert.Error(t, ValidateTeamName("UK"))

	assert.NoError(t, ValidateDescription(""))
	assert.Error(t, ValidateDescription(strings.Repeat("d", 501)))
}

func TestValidationErrorMessage(t *testing.T) {
	err := ValidateLeagueName("")
	var ve ValidationError
	assert.ErrorAs(t, err, &ve)
	assert.Equal(t, "name", ve.Field)
	assert.Equal(t, "name: name is required", err.Error())
}
