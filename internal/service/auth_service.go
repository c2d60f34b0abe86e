package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"f1fantasy/internal/database"
	"f1fantasy/internal/invite"
	"f1fantasy/internal/models"
	"f1fantasy/internal/security"
	"f1fantasy/internal/settings"
	"f1fantasy/internal/validation"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// AuthService handles accounts, sessions and sign-in
type AuthService struct {
	db              *database.DB
	repos           *repos
	settings        *SettingsService
	tokens          *invite.TokenIssuer
	clock           clockwork.Clock
	sessionDuration time.Duration
}

// NewAuthService creates a new auth service. sessionDuration applies when
// the session_timeout setting cannot be read.
func NewAuthService(db *database.DB, settingsService *SettingsService, tokens *invite.TokenIssuer, sessionDuration time.Duration, clock clockwork.Clock) *AuthService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &AuthService{
		db:              db,
		repos:           bindRepos(db),
		settings:        settingsService,
		tokens:          tokens,
		clock:           clock,
		sessionDuration: sessionDuration,
	}
}

// Registration is the input to Register
type Registration struct {
	Username    string
	Email       string
	Password    string
	Name        string
	InviteToken string
}

// Redemption reports what happened to an invite token supplied at
// registration or redeemed by a signed-in user. A failed redemption never
// fails the surrounding operation; Err explains why no membership was made.
type Redemption struct {
	LeagueID   int64
	LeagueName string
	Role       models.Role
	Err        error
}

// Joined reports whether the token produced a membership
func (r *Redemption) Joined() bool {
	return r != nil && r.Err == nil && r.LeagueID != 0
}

// Register creates a new account. When reg carries an invite token the new
// user is enrolled in the invited league; token problems are reported in the
// returned Redemption rather than as an error.
func (s *AuthService) Register(ctx context.Context, reg Registration) (*models.User, *Redemption, error) {
	user, redemption, err := s.register(ctx, reg)
	observe(authEvents, "register", err)
	return user, redemption, err
}

func (s *AuthService) register(ctx context.Context, reg Registration) (*models.User, *Redemption, error) {
	reg.Username = strings.TrimSpace(reg.Username)
	reg.Email = strings.TrimSpace(reg.Email)
	reg.Name = strings.TrimSpace(reg.Name)

	var (
		claims   *invite.Claims
		tokenErr error
	)
	if reg.InviteToken != "" {
		claims, tokenErr = s.tokens.Verify(reg.InviteToken)
		if claims != nil && reg.Email == "" {
			reg.Email = claims.Email
		}
	}

	if claims == nil && !s.settings.Bool(ctx, settings.AllowRegistration) {
		return nil, nil, ErrRegistrationClosed
	}

	if err := validation.ValidateUsername(reg.Username); err != nil {
		return nil, nil, err
	}
	if reg.Email != "" {
		if err := validation.ValidateEmail(reg.Email); err != nil {
			return nil, nil, err
		}
	}
	if err := validation.ValidatePassword(reg.Password); err != nil {
		return nil, nil, err
	}
	if reg.Name != "" {
		if err := validation.ValidateName(reg.Name); err != nil {
			return nil, nil, err
		}
	}

	passwordHash, err := security.HashPassword(reg.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     reg.Username,
		Email:        reg.Email,
		PasswordHash: passwordHash,
		Name:         reg.Name,
		IsActive:     true,
		Visibility:   models.VisibilityPublic,
	}
	if err := s.createUser(ctx, user); err != nil {
		return nil, nil, err
	}
	log.Info().Int64("user_id", user.ID).Str("username", user.Username).Bool("admin", user.IsAdmin).Msg("User registered")

	if reg.InviteToken == "" {
		return user, nil, nil
	}
	if tokenErr != nil {
		log.Warn().Err(tokenErr).Int64("user_id", user.ID).Msg("Invite token rejected at registration")
		return user, &Redemption{Err: tokenErr}, nil
	}
	return user, s.redeem(ctx, user, claims), nil
}

// createUser maps unique violations on username or email onto the
// matching sentinel
func (s *AuthService) createUser(ctx context.Context, user *models.User) error {
	existing, err := s.repos.users.GetUserByUsername(ctx, user.Username)
	if err != nil {
		return fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return ErrUsernameTaken
	}
	if user.Email != "" {
		existing, err = s.repos.users.GetUserByEmail(ctx, user.Email)
		if err != nil {
			return fmt.Errorf("failed to check existing user: %w", err)
		}
		if existing != nil {
			return ErrEmailTaken
		}
	}

	// The first-user admin check and the insert share a transaction.
	err = database.Run(ctx, s.db, bindRepos, func(r *repos) error {
		return r.users.CreateUser(ctx, user)
	})
	if errors.Is(err, database.ErrUniqueViolation) {
		if user.Email != "" {
			if taken, _ := s.repos.users.GetUserByEmail(ctx, user.Email); taken != nil {
				return ErrEmailTaken
			}
		}
		return ErrUsernameTaken
	}
	return err
}

// PreviewInvite verifies token and returns its claims with the name of the
// league it points at, for showing on the registration page.
func (s *AuthService) PreviewInvite(ctx context.Context, token string) (*invite.Claims, string, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, "", err
	}
	league, err := s.repos.leagues.GetLeagueByID(ctx, claims.LeagueID)
	if err != nil {
		return nil, "", err
	}
	if league == nil {
		return nil, "", ErrLeagueNotFound
	}
	return claims, league.Name, nil
}

// RedeemToken enrolls an existing user using an invite token
func (s *AuthService) RedeemToken(ctx context.Context, user *models.User, token string) *Redemption {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		observe(authEvents, "redeem", err)
		return &Redemption{Err: err}
	}
	return s.redeem(ctx, user, claims)
}

func (s *AuthService) redeem(ctx context.Context, user *models.User, claims *invite.Claims) *Redemption {
	redemption := &Redemption{LeagueID: claims.LeagueID, Role: claims.Role}
	defer func() { observe(authEvents, "redeem", redemption.Err) }()

	// The token is bound to one address; accounts without an email cannot
	// prove they own it.
	if user.Email == "" || !strings.EqualFold(claims.Email, user.Email) {
		redemption.Err = fmt.Errorf("%w: the invite was sent to a different email address", ErrInvalidInvite)
		return redemption
	}

	grants := claims.Permissions
	if claims.Role != models.RoleCommissioner {
		grants = models.EditGrants{}
	}
	league, err := enroll(ctx, s.db, &models.Membership{
		LeagueID: claims.LeagueID,
		UserID:   user.ID,
		Role:     claims.Role,
		Grants:   grants,
	})
	if league != nil {
		redemption.LeagueName = league.Name
	}
	if err != nil {
		log.Warn().Err(err).Int64("user_id", user.ID).Int64("league_id", claims.LeagueID).Msg("Invite token could not be redeemed")
		redemption.Err = err
		return redemption
	}
	log.Info().Int64("user_id", user.ID).Int64("league_id", claims.LeagueID).Str("role", string(claims.Role)).Msg("Invite token redeemed")
	return redemption
}

// Login authenticates by username or email and creates a session
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*models.Session, *models.User, error) {
	session, user, err := s.login(ctx, strings.TrimSpace(identifier), password)
	observe(authEvents, "login", err)
	return session, user, err
}

func (s *AuthService) login(ctx context.Context, identifier, password string) (*models.Session, *models.User, error) {
	user, err := s.repos.users.GetUserByIdentifier(ctx, identifier)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !security.CheckPassword(user.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, ErrAccountDisabled
	}
	session, err := s.startSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

func (s *AuthService) startSession(ctx context.Context, user *models.User) (*models.Session, error) {
	expiresAt := s.clock.Now().Add(s.SessionDuration(ctx))
	session, err := s.repos.users.CreateSession(ctx, security.GenerateSessionID(), user.ID, expiresAt)
	if err != nil {
		return nil, err
	}
	if err := s.repos.users.UpdateLastLogin(ctx, user.ID); err != nil {
		log.Warn().Err(err).Int64("user_id", user.ID).Msg("Failed to record last login")
	}
	return session, nil
}

// SessionDuration is the session_timeout setting, or the configured default
func (s *AuthService) SessionDuration(ctx context.Context) time.Duration {
	if s.settings != nil {
		if minutes := s.settings.Int(ctx, settings.SessionTimeout); minutes > 0 {
			return time.Duration(minutes) * time.Minute
		}
	}
	return s.sessionDuration
}

// ValidateSession checks if a session is valid and returns the associated user
func (s *AuthService) ValidateSession(ctx context.Context, sessionID string) (*models.User, error) {
	session, err := s.repos.users.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, ErrSessionNotFound
	}

	if s.clock.Now().After(session.ExpiresAt) {
		_ = s.repos.users.DeleteSession(ctx, sessionID)
		return nil, ErrSessionExpired
	}

	user, err := s.repos.users.GetUserByID(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !user.IsActive {
		_ = s.repos.users.DeleteSession(ctx, sessionID)
		return nil, ErrSessionNotFound
	}
	return user, nil
}

// Logout invalidates a session
func (s *AuthService) Logout(ctx context.Context, sessionID string) error {
	if err := s.repos.users.DeleteSession(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to logout: %w", err)
	}
	return nil
}

// CleanupExpiredSessions removes expired sessions from the database
func (s *AuthService) CleanupExpiredSessions(ctx context.Context) error {
	n, err := s.repos.users.DeleteExpiredSessions(ctx)
	if err != nil {
		return fmt.Errorf("failed to cleanup sessions: %w", err)
	}
	if n > 0 {
		log.Info().Int64("count", n).Msg("Removed expired sessions")
	}
	return nil
}

// RunSessionCleanup calls CleanupExpiredSessions every interval until ctx is done
func (s *AuthService) RunSessionCleanup(ctx context.Context, interval time.Duration) {
	ticker := s.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			if err := s.CleanupExpiredSessions(ctx); err != nil {
				log.Error().Err(err).Msg("Session cleanup failed")
			}
		}
	}
}

// OAuthIdentity is what a provider tells us about the signed-in person
type OAuthIdentity struct {
	Provider string
	Subject  string
	Email    string
	Name     string
}

// OAuthLogin signs in the account linked to identity, linking by email or
// creating an account when none is linked yet.
func (s *AuthService) OAuthLogin(ctx context.Context, identity OAuthIdentity) (*models.Session, *models.User, error) {
	session, user, err := s.oauthLogin(ctx, identity)
	observe(authEvents, "oauth_login", err)
	return session, user, err
}

func (s *AuthService) oauthLogin(ctx context.Context, identity OAuthIdentity) (*models.Session, *models.User, error) {
	if identity.Provider == "" || identity.Subject == "" {
		return nil, nil, errors.New("missing oauth provider information")
	}
	if err := validation.ValidateEmail(identity.Email); err != nil {
		return nil, nil, err
	}

	user, err := s.repos.users.GetUserByOAuth(ctx, identity.Provider, identity.Subject)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lookup oauth user: %w", err)
	}

	if user == nil {
		existing, err := s.repos.users.GetUserByEmail(ctx, identity.Email)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to check existing user: %w", err)
		}
		if existing != nil {
			if existing.OAuthProvider != "" && existing.OAuthProvider != identity.Provider {
				return nil, nil, ErrEmailTaken
			}
			if err := s.repos.users.LinkOAuthProvider(ctx, existing.ID, identity.Provider, identity.Subject); err != nil {
				return nil, nil, err
			}
			user = existing
		} else {
			if !s.settings.Bool(ctx, settings.AllowRegistration) {
				return nil, nil, ErrRegistrationClosed
			}
			user, err = s.createOAuthUser(ctx, identity)
			if err != nil {
				return nil, nil, err
			}
		}
	}

	if !user.IsActive {
		return nil, nil, ErrAccountDisabled
	}
	session, err := s.startSession(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return session, user, nil
}

func (s *AuthService) createOAuthUser(ctx context.Context, identity OAuthIdentity) (*models.User, error) {
	randomPasswordHash, err := security.HashPassword(security.GenerateSessionID())
	if err != nil {
		return nil, fmt.Errorf("failed to generate oauth password hash: %w", err)
	}

	base := usernameFromEmail(identity.Email)
	for attempt := 0; attempt < 20; attempt++ {
		username := base
		if attempt > 0 {
			username = fmt.Sprintf("%s%d", base, attempt+1)
		}
		user := &models.User{
			Username:      username,
			Email:         identity.Email,
			PasswordHash:  randomPasswordHash,
			Name:          identity.Name,
			IsActive:      true,
			Visibility:    models.VisibilityPublic,
			OAuthProvider: identity.Provider,
			OAuthSubject:  identity.Subject,
		}
		err := s.createUser(ctx, user)
		if errors.Is(err, ErrUsernameTaken) {
			continue
		}
		if err != nil {
			return nil, err
		}
		log.Info().Int64("user_id", user.ID).Str("provider", identity.Provider).Msg("User created from oauth sign-in")
		return user, nil
	}
	return nil, ErrUsernameTaken
}

// usernameFromEmail derives a valid username from the local part of email
func usernameFromEmail(email string) string {
	local, _, _ := strings.Cut(email, "@")
	var b strings.Builder
	for _, r := range local {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '.', r == '-':
			b.WriteRune(r)
		}
	}
	name := b.String()
	for len(name) < validation.MinUsernameLength {
		name += "_"
	}
	if len(name) > validation.MaxUsernameLength-3 {
		name = name[:validation.MaxUsernameLength-3]
	}
	return name
}

// SetVisibility changes whether the user can be found by invite search
func (s *AuthService) SetVisibility(ctx context.Context, userID int64, v models.Visibility) error {
	if !v.Valid() {
		return validation.ValidationError{Field: "visibility", Message: "unknown visibility"}
	}
	return s.repos.users.UpdateVisibility(ctx, userID, v)
}

// ChangePassword replaces the password after checking the current one
func (s *AuthService) ChangePassword(ctx context.Context, user *models.User, current, next string) error {
	if !security.CheckPassword(user.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	if err := validation.ValidatePassword(next); err != nil {
		return err
	}
	hash, err := security.HashPassword(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return s.repos.users.UpdatePassword(ctx, user.ID, hash)
}

// DeleteAccount removes the user's own account. It is refused while the
// user still owns leagues.
func (s *AuthService) DeleteAccount(ctx context.Context, userID int64) error {
	return database.Run(ctx, s.db, bindRepos, func(r *repos) error {
		owned, err := r.leagues.CountOwnedLeagues(ctx, userID)
		if err != nil {
			return err
		}
		if owned > 0 {
			return ErrOwnsLeagues
		}
		if err := r.users.DeleteUser(ctx, userID); err != nil {
			return err
		}
		log.Info().Int64("user_id", userID).Msg("Account deleted")
		return nil
	})
}
