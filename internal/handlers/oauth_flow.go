package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"f1fantasy/internal/security"
	"f1fantasy/internal/service"

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	oauthStateCookie    = "oauth_state"
	oauthProviderCookie = "oauth_provider"
	oauthInviteCookie   = "oauth_invite"
	oauthCookieTTL      = 10 * time.Minute
)

// OAuthProvider defines provider configuration and metadata
type OAuthProvider struct {
	Name        string
	Label       string
	Config      *oauth2.Config
	UserInfoURL string
	AuthParams  map[string]string
}

func (p OAuthProvider) configured() bool {
	return p.Config != nil && p.Config.ClientID != "" && p.Config.ClientSecret != ""
}

type OAuthProviderView struct {
	Name     string
	Label    string
	URL      string
	CSSClass string
}

type oauthUserInfo struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *AuthHandler) oauthProviderViews(r *http.Request) []OAuthProviderView {
	var views []OAuthProviderView
	inviteToken := r.URL.Query().Get("invite_token")

	for key, provider := range h.oauthProviders {
		if !provider.configured() {
			continue
		}
		startURL := fmt.Sprintf("/auth/%s/start", key)
		if inviteToken != "" {
			startURL = startURL + "?" + url.Values{"invite_token": []string{inviteToken}}.Encode()
		}
		views = append(views, OAuthProviderView{
			Name:     key,
			Label:    provider.Label,
			URL:      startURL,
			CSSClass: "btn-" + key,
		})
	}
	sort.Slice(views, func(i, j int) bool { return views[i].Name < views[j].Name })

	return views
}

// StartOAuth initiates the OAuth flow for a provider
func (h *AuthHandler) StartOAuth(w http.ResponseWriter, r *http.Request) {
	providerKey := r.PathValue("provider")
	provider, ok := h.oauthProviders[providerKey]
	if !ok || !provider.configured() {
		h.oauthError(w, r, "OAuth provider not configured", http.StatusBadRequest)
		return
	}

	state := security.GenerateSessionID()
	setTempCookie(w, r, oauthStateCookie, state, oauthCookieTTL)
	setTempCookie(w, r, oauthProviderCookie, providerKey, oauthCookieTTL)
	if token := r.URL.Query().Get("invite_token"); token != "" {
		setTempCookie(w, r, oauthInviteCookie, token, oauthCookieTTL)
	}

	config := *provider.Config
	config.RedirectURL = h.oauthRedirectURL(r, providerKey)

	options := []oauth2.AuthCodeOption{oauth2.AccessTypeOnline}
	for key, value := range provider.AuthParams {
		options = append(options, oauth2.SetAuthURLParam(key, value))
	}

	http.Redirect(w, r, config.AuthCodeURL(state, options...), http.StatusFound)
}

// OAuthCallback handles the OAuth provider callback
func (h *AuthHandler) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	providerKey := r.PathValue("provider")
	provider, ok := h.oauthProviders[providerKey]
	if !ok || !provider.configured() {
		h.oauthError(w, r, "OAuth provider not configured", http.StatusBadRequest)
		return
	}

	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.oauthError(w, r, "Sign-in was cancelled", http.StatusBadRequest)
		return
	}
	state := r.URL.Query().Get("state")
	code := r.URL.Query().Get("code")
	if code == "" {
		h.oauthError(w, r, "Missing authorization code", http.StatusBadRequest)
		return
	}

	stateCookie, err := r.Cookie(oauthStateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != state {
		h.oauthError(w, r, "Invalid OAuth state", http.StatusBadRequest)
		return
	}
	if providerCookie, err := r.Cookie(oauthProviderCookie); err == nil && providerCookie.Value != providerKey {
		h.oauthError(w, r, "OAuth provider mismatch", http.StatusBadRequest)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	config := *provider.Config
	config.RedirectURL = h.oauthRedirectURL(r, providerKey)

	token, err := config.Exchange(ctx, code)
	if err != nil {
		log.Warn().Err(err).Str("provider", providerKey).Msg("OAuth code exchange failed")
		h.oauthError(w, r, "Failed to exchange OAuth code", http.StatusBadRequest)
		return
	}

	userInfo, err := fetchOAuthUser(ctx, provider, token)
	if err != nil {
		log.Warn().Err(err).Str("provider", providerKey).Msg("OAuth user info failed")
		h.oauthError(w, r, fmt.Sprintf("Failed to fetch %s account details", provider.Label), http.StatusBadGateway)
		return
	}

	inviteToken := ""
	if cookie, err := r.Cookie(oauthInviteCookie); err == nil {
		inviteToken = cookie.Value
	}

	clearTempCookie(w, r, oauthStateCookie)
	clearTempCookie(w, r, oauthProviderCookie)
	clearTempCookie(w, r, oauthInviteCookie)

	session, user, err := h.authService.OAuthLogin(r.Context(), service.OAuthIdentity{
		Provider: providerKey,
		Subject:  userInfo.ID,
		Email:    userInfo.Email,
		Name:     userInfo.Name,
	})
	if err != nil {
		h.oauthError(w, r, userMessage(err), statusFor(err))
		return
	}
	http.SetCookie(w, security.CreateSessionCookie(r, security.SessionCookieName, session.ID, session.ExpiresAt))

	target := landingFor(user)
	if inviteToken != "" {
		redemption := h.authService.RedeemToken(r.Context(), user, inviteToken)
		flashRedemption(w, r, redemption)
		target = redemptionTarget(redemption, target)
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// fetchOAuthUser reads the account behind token. Google and Facebook both
// answer with id, email and name.
func fetchOAuthUser(ctx context.Context, provider OAuthProvider, token *oauth2.Token) (oauthUserInfo, error) {
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))
	resp, err := client.Get(provider.UserInfoURL)
	if err != nil {
		return oauthUserInfo{}, fmt.Errorf("failed to fetch %s user info: %w", provider.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return oauthUserInfo{}, fmt.Errorf("failed to fetch %s user info: status %d", provider.Name, resp.StatusCode)
	}

	var info oauthUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return oauthUserInfo{}, fmt.Errorf("failed to parse %s user info: %w", provider.Name, err)
	}
	if info.ID == "" {
		return oauthUserInfo{}, errors.New("provider returned no account id")
	}
	return info, nil
}

func (h *AuthHandler) oauthRedirectURL(r *http.Request, providerKey string) string {
	baseURL := strings.TrimSpace(h.oauthRedirectBaseURL)
	if baseURL == "" {
		scheme := "http"
		if security.IsSecureRequest(r) {
			scheme = "https"
		}
		baseURL = fmt.Sprintf("%s://%s", scheme, r.Host)
	}
	return fmt.Sprintf("%s/auth/%s/callback", strings.TrimRight(baseURL, "/"), providerKey)
}

func setTempCookie(w http.ResponseWriter, r *http.Request, name, value string, ttl time.Duration) {
	cookie := security.CreateSessionCookie(r, name, value, time.Now().Add(ttl))
	cookie.MaxAge = int(ttl.Seconds())
	http.SetCookie(w, cookie)
}

func clearTempCookie(w http.ResponseWriter, r *http.Request, name string) {
	http.SetCookie(w, security.CreateDeleteCookie(r, name))
}

func (h *AuthHandler) oauthError(w http.ResponseWriter, r *http.Request, message string, status int) {
	data := LoginViewData{
		Page:           h.renderer.page(w, r, "Log in"),
		Error:          message,
		OAuthProviders: h.oauthProviderViews(r),
	}
	h.renderer.render(w, status, "login.tmpl", data)
}
