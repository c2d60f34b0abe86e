package service

import "errors"

// Account and session errors
var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrEmailTaken         = errors.New("email already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrRegistrationClosed = errors.New("registration is closed")
	ErrSessionNotFound    = errors.New("session not found")
	ErrSessionExpired     = errors.New("session expired")
	ErrUserNotFound       = errors.New("user not found")
	ErrOwnsLeagues        = errors.New("transfer or delete your leagues before deleting your account")
	ErrCannotModifySelf   = errors.New("you cannot do that to your own account")
)

// League errors
var (
	ErrLeagueNotFound          = errors.New("league not found")
	ErrForbidden               = errors.New("you do not have permission to do that")
	ErrLeagueFull              = errors.New("league is full")
	ErrAlreadyMember           = errors.New("user is already a member of this league")
	ErrNotMember               = errors.New("user is not a member of this league")
	ErrOwnerCannotLeave        = errors.New("the league owner cannot leave the league")
	ErrCannotModifyOwner       = errors.New("the league owner cannot be removed or change role")
	ErrLeagueNameTaken         = errors.New("a league with that name already exists")
	ErrInvalidCapacity         = errors.New("invalid number of teams")
	ErrInvalidStatusTransition = errors.New("league status can only move forward one step")
	ErrConfirmationMismatch    = errors.New("confirmation does not match the league name")
	ErrLeagueLimitReached      = errors.New("you have reached the maximum number of leagues")
	ErrPublicLeaguesDisabled   = errors.New("public leagues are disabled")
	ErrInvalidLeagueSetting    = errors.New("invalid league setting")
)

// Team errors
var (
	ErrTeamNameTaken  = errors.New("a team with that name already exists in this league")
	ErrAlreadyHasTeam = errors.New("you already have a team in this league")
	ErrTeamNotFound   = errors.New("team not found")
)

// Invite errors
var (
	ErrInvitePending        = errors.New("an invite to this league is already pending for that user")
	ErrInviteeNotSearchable = errors.New("that user cannot be invited")
	ErrInviteNotFound       = errors.New("invite not found")
	ErrInvalidInvite        = errors.New("invalid invite")
)

// Settings errors
var (
	ErrUnknownSetting = errors.New("unknown setting")
)
