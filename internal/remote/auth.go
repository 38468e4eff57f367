package remote

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"sneuz/internal/model"
	"sneuz/internal/sharedstate"
)

// Auth holds the bearer token for one installed client, persisted on disk so
// every surface process (app, widget view, shortcuts) shares the login. It
// satisfies session.AuthProvider and mirrors the login flag into the shared
// state store.
type Auth struct {
	http      *resty.Client
	shared    sharedstate.Store
	tokenPath string
	log       zerolog.Logger

	mu     sync.Mutex
	token  string
	userID string
}

func NewAuth(baseURL, tokenPath string, shared sharedstate.Store, log zerolog.Logger) *Auth {
	return &Auth{
		http: resty.New().
			SetBaseURL(baseURL).
			SetTimeout(requestTimeout).
			SetHeader("Content-Type", "application/json"),
		shared:    shared,
		tokenPath: tokenPath,
		log:       log,
	}
}

type authResult struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

func (a *Auth) Register(ctx context.Context, email, password string) error {
	return a.authenticate(ctx, "/api/auth/register", email, password)
}

func (a *Auth) Login(ctx context.Context, email, password string) error {
	return a.authenticate(ctx, "/api/auth/login", email, password)
}

func (a *Auth) authenticate(ctx context.Context, path, email, password string) error {
	var result authResult
	resp, err := a.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": password}).
		SetResult(&result).
		Post(path)
	if err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return apiError("authenticate", resp)
	}

	a.adopt(result.Token, result.User.ID)
	a.shared.SetLoggedIn(true)
	a.log.Info().Str("user_id", result.User.ID).Msg("logged in")
	return nil
}

func (a *Auth) Logout() {
	a.mu.Lock()
	a.token = ""
	a.userID = ""
	a.mu.Unlock()
	_ = os.Remove(a.tokenPath)
	a.shared.SetLoggedIn(false)
}

// CurrentUser returns the user id from the stored token, or "" when there is
// no usable login. No network call; identity comes from the token claims.
func (a *Auth) CurrentUser() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.userID == "" {
		a.loadStoredLocked()
	}
	return a.userID
}

// RefreshSession exchanges the stored token for a fresh one and re-syncs the
// shared login flag. A failure leaves the user logged out locally.
func (a *Auth) RefreshSession(ctx context.Context) error {
	a.mu.Lock()
	if a.token == "" {
		a.loadStoredLocked()
	}
	token := a.token
	a.mu.Unlock()

	if token == "" {
		a.shared.SetLoggedIn(false)
		return fmt.Errorf("refresh session: no stored token")
	}

	var result authResult
	resp, err := a.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetResult(&result).
		Post("/api/auth/refresh")
	if err != nil {
		a.log.Warn().Err(err).Msg("session refresh failed")
		a.shared.SetLoggedIn(false)
		return fmt.Errorf("refresh session: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		a.shared.SetLoggedIn(false)
		return apiError("refresh session", resp)
	}

	a.adopt(result.Token, result.User.ID)
	a.shared.SetLoggedIn(true)
	return nil
}

func (a *Auth) Token() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.token == "" {
		a.loadStoredLocked()
	}
	return a.token
}

func (a *Auth) adopt(token, userID string) {
	a.mu.Lock()
	a.token = token
	a.userID = userID
	a.mu.Unlock()
	a.storeToken(token)
}

// loadStoredLocked reads the token file and extracts the subject claim. The
// signature is the server's to verify; the client only needs identity and a
// local expiry check. Callers hold a.mu.
func (a *Auth) loadStoredLocked() {
	raw, err := os.ReadFile(a.tokenPath)
	if err != nil {
		return
	}
	token := strings.TrimSpace(string(raw))
	if token == "" {
		return
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		a.log.Warn().Err(err).Msg("stored token is malformed, discarding")
		return
	}
	if claims.ExpiresAt != nil && claims.ExpiresAt.Before(time.Now()) {
		a.log.Debug().Msg("stored token expired")
		return
	}

	a.token = token
	a.userID = claims.Subject
}

func (a *Auth) storeToken(token string) {
	if err := os.MkdirAll(filepath.Dir(a.tokenPath), 0o700); err != nil {
		a.log.Warn().Err(err).Msg("create token dir failed")
		return
	}
	if err := os.WriteFile(a.tokenPath, []byte(token), 0o600); err != nil {
		a.log.Warn().Err(err).Msg("persist token failed")
	}
}

// FetchProfileSettings loads the profile and sleep targets for display
// surfaces. Not part of the session lifecycle.
func (a *Auth) FetchProfileSettings(ctx context.Context) (*model.User, *model.UserSettings, error) {
	token := a.Token()
	if token == "" {
		return nil, nil, fmt.Errorf("fetch profile: not logged in")
	}

	var profile struct {
		User model.User `json:"user"`
	}
	resp, err := a.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetResult(&profile).
		Get("/api/profile")
	if err != nil {
		return nil, nil, fmt.Errorf("fetch profile: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, nil, apiError("fetch profile", resp)
	}

	var settings struct {
		Settings model.UserSettings `json:"settings"`
	}
	resp, err = a.http.R().
		SetContext(ctx).
		SetHeader("Authorization", "Bearer "+token).
		SetResult(&settings).
		Get("/api/settings")
	if err != nil {
		return nil, nil, fmt.Errorf("fetch settings: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, nil, apiError("fetch settings", resp)
	}

	return &profile.User, &settings.Settings, nil
}
