package remote_test

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sneuz/internal/db"
	"sneuz/internal/handler"
	"sneuz/internal/remote"
	"sneuz/internal/repository"
	"sneuz/internal/router"
	"sneuz/internal/service"
	"sneuz/internal/session"
	"sneuz/internal/sharedstate"
)

// clientSurface bundles what one process of the installed client holds. Two
// surfaces built over the same data dir model the app and a shortcut process
// sharing an app group.
type clientSurface struct {
	shared sharedstate.Store
	auth   *remote.Auth
	svc    *session.Service
}

func newSurface(t *testing.T, baseURL, dataDir string) *clientSurface {
	t.Helper()
	shared := sharedstate.NewFileStore(filepath.Join(dataDir, "shared_state.json"))
	auth := remote.NewAuth(baseURL, filepath.Join(dataDir, "token"), shared, zerolog.Nop())
	client := remote.NewClient(baseURL, auth, zerolog.Nop())
	return &clientSurface{
		shared: shared,
		auth:   auth,
		svc:    session.NewService(client, auth, shared, zerolog.Nop()),
	}
}

func startServer(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	migrationsDir := filepath.Join("..", "..", "migrations")
	require.NoError(t, db.RunMigrations(database, migrationsDir))

	userRepo := repository.NewUserRepository(database)
	sessionRepo := repository.NewSessionRepository(database)
	settingsRepo := repository.NewSettingsRepository(database)
	authService := service.NewAuthService(userRepo, settingsRepo, "test-secret", time.Hour)

	engine := router.New(
		authService,
		handler.NewAuthHandler(authService, userRepo),
		handler.NewSessionHandler(sessionRepo),
		handler.NewSettingsHandler(settingsRepo, userRepo),
		nil,
	)

	server := httptest.NewServer(engine)
	t.Cleanup(server.Close)
	return server.URL
}

func TestLifecycleAcrossProcesses(t *testing.T) {
	baseURL := startServer(t)
	dataDir := t.TempDir()
	ctx := context.Background()

	app := newSurface(t, baseURL, dataDir)
	require.NoError(t, app.auth.Register(ctx, "sleeper@example.com", "123456"))
	assert.NotEmpty(t, app.auth.CurrentUser())
	assert.True(t, app.shared.IsLoggedIn())

	started, err := app.svc.StartTracking(ctx)
	require.NoError(t, err)
	assert.True(t, app.shared.IsTracking())

	// A second process over the same data dir picks the login up from disk
	// and adopts the open session instead of creating a duplicate.
	shortcut := newSurface(t, baseURL, dataDir)
	assert.Equal(t, app.auth.CurrentUser(), shortcut.auth.CurrentUser())

	adopted, err := shortcut.svc.StartTracking(ctx)
	require.NoError(t, err)
	assert.Equal(t, started.ID, adopted.ID)

	// Stop from the shortcut process, then converge the app by refreshing.
	require.NoError(t, shortcut.svc.StopTracking(ctx))
	assert.False(t, shortcut.shared.IsTracking())

	sessions, err := app.svc.RefreshFromRemote(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	require.NotNil(t, sessions[0].EndTime)
	assert.Nil(t, app.svc.ActiveSession())
	assert.False(t, app.shared.IsTracking())
}

func TestManualSessionOverHTTP(t *testing.T) {
	baseURL := startServer(t)
	app := newSurface(t, baseURL, t.TempDir())
	ctx := context.Background()

	require.NoError(t, app.auth.Register(ctx, "sleeper@example.com", "123456"))

	start := time.Date(2024, 6, 1, 22, 30, 0, 0, time.UTC)
	end := start.Add(8 * time.Hour)
	created, err := app.svc.CreateManualSession(ctx, start, end)
	require.NoError(t, err)

	sessions, err := app.svc.RefreshFromRemote(ctx)
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, created.ID, sessions[0].ID)
	assert.True(t, sessions[0].StartTime.Equal(start))
	require.NotNil(t, sessions[0].EndTime)
	assert.Equal(t, 8*time.Hour, sessions[0].Duration())
	assert.False(t, app.shared.IsTracking())

	// Edit and delete round trip through the HTTP store.
	updated, err := app.svc.UpdateSession(ctx, created.ID, start, start.Add(7*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 7*time.Hour, updated.Duration())

	require.NoError(t, app.svc.DeleteSession(ctx, created.ID))
	sessions, err = app.svc.RefreshFromRemote(ctx)
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSelfHealingStaleWidgetFlag(t *testing.T) {
	baseURL := startServer(t)
	dataDir := t.TempDir()
	ctx := context.Background()

	app := newSurface(t, baseURL, dataDir)
	require.NoError(t, app.auth.Register(ctx, "sleeper@example.com", "123456"))

	// Simulate a crashed process that left the flag on with no remote session.
	app.shared.SetTracking(true)
	start := time.Now().UTC()
	app.shared.SetStartTime(&start)

	require.NoError(t, app.svc.StopTracking(ctx))
	assert.False(t, app.shared.IsTracking())

	widget := sharedstate.NewFileStore(filepath.Join(dataDir, "shared_state.json"))
	assert.False(t, widget.IsTracking())
}

func TestAuthPersistenceAndLogout(t *testing.T) {
	baseURL := startServer(t)
	dataDir := t.TempDir()
	ctx := context.Background()

	app := newSurface(t, baseURL, dataDir)
	require.NoError(t, app.auth.Register(ctx, "sleeper@example.com", "123456"))
	userID := app.auth.CurrentUser()
	require.NotEmpty(t, userID)

	// Fresh process loads identity from the token file without a network call.
	other := newSurface(t, baseURL, dataDir)
	assert.Equal(t, userID, other.auth.CurrentUser())

	require.NoError(t, other.auth.RefreshSession(ctx))
	assert.True(t, other.shared.IsLoggedIn())

	user, settings, err := other.auth.FetchProfileSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sleeper@example.com", user.Email)
	assert.Equal(t, "22:30", settings.TargetBedtime)

	app.auth.Logout()
	assert.False(t, app.shared.IsLoggedIn())

	cold := newSurface(t, baseURL, dataDir)
	assert.Empty(t, cold.auth.CurrentUser())
	assert.Error(t, cold.auth.RefreshSession(ctx))

	_, err = cold.svc.StartTracking(ctx)
	assert.ErrorIs(t, err, session.ErrUnauthenticated)
}
