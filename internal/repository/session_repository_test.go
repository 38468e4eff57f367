package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sneuz/internal/db"
	"sneuz/internal/model"
	"sneuz/internal/repository"
)

func setupDB(t *testing.T) *repository.SessionRepository {
	t.Helper()

	database, err := db.OpenSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, db.RunMigrations(database, filepath.Join("..", "..", "migrations")))

	// Sessions reference users, so every test works against a real account.
	now := time.Now().UTC()
	users := repository.NewUserRepository(database)
	require.NoError(t, users.Create(context.Background(), &model.User{
		ID:           "u1",
		Email:        "sleeper@example.com",
		PasswordHash: "x",
		CreatedAt:    now,
		UpdatedAt:    now,
	}))

	return repository.NewSessionRepository(database)
}

func openSession(userID string, start time.Time) *model.SleepSession {
	return &model.SleepSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		StartTime: start,
		Source:    model.SourceManual,
		UpdatedAt: start,
	}
}

func closedSession(userID string, start time.Time, d time.Duration) *model.SleepSession {
	s := openSession(userID, start)
	end := start.Add(d)
	s.EndTime = &end
	return s
}

func TestOpenSessionUniqueness(t *testing.T) {
	repo := setupDB(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Insert(ctx, openSession("u1", base)))

	// The partial unique index rejects a second open session.
	err := repo.Insert(ctx, openSession("u1", base.Add(time.Minute)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sleep_sessions.user_id")

	// Completed sessions are not limited.
	require.NoError(t, repo.Insert(ctx, closedSession("u1", base.AddDate(0, 0, -1), 8*time.Hour)))
	require.NoError(t, repo.Insert(ctx, closedSession("u1", base.AddDate(0, 0, -2), 7*time.Hour)))
}

func TestSelectOpenSession(t *testing.T) {
	repo := setupDB(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)

	found, err := repo.SelectOpenSession(ctx, "u1")
	require.NoError(t, err)
	assert.Nil(t, found, "no open session reads as nil, not an error")

	require.NoError(t, repo.Insert(ctx, closedSession("u1", base.AddDate(0, 0, -1), 8*time.Hour)))
	open := openSession("u1", base)
	require.NoError(t, repo.Insert(ctx, open))

	found, err = repo.SelectOpenSession(ctx, "u1")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, open.ID, found.ID)
	assert.True(t, found.StartTime.Equal(base))
	assert.Nil(t, found.EndTime)
}

func TestSelectRecentOrderAndLimit(t *testing.T) {
	repo := setupDB(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)

	var ids []string
	for day := 0; day < 5; day++ {
		s := closedSession("u1", base.AddDate(0, 0, day), 8*time.Hour)
		require.NoError(t, repo.Insert(ctx, s))
		ids = append(ids, s.ID)
	}

	sessions, err := repo.SelectRecent(ctx, "u1", 3)
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, ids[4], sessions[0].ID, "newest first")
	assert.Equal(t, ids[2], sessions[2].ID)
}

func TestSelectCompletedExcludesOpen(t *testing.T) {
	repo := setupDB(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Insert(ctx, closedSession("u1", base, 8*time.Hour)))
	require.NoError(t, repo.Insert(ctx, openSession("u1", base.AddDate(0, 0, 1))))

	sessions, err := repo.SelectCompleted(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.NotNil(t, sessions[0].EndTime)
}

func TestUpdateClosesSession(t *testing.T) {
	repo := setupDB(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)

	open := openSession("u1", base)
	require.NoError(t, repo.Insert(ctx, open))

	end := base.Add(8 * time.Hour)
	updated, err := repo.Update(ctx, open.ID, model.SessionUpdate{EndTime: &end, UpdatedAt: end})
	require.NoError(t, err)

	// The returned row is the stored one: COALESCE keeps the untouched start
	// and the source survives.
	assert.True(t, updated.StartTime.Equal(base))
	require.NotNil(t, updated.EndTime)
	assert.True(t, updated.EndTime.Equal(end))
	assert.Equal(t, 8*time.Hour, updated.Duration())
	assert.Equal(t, model.SourceManual, updated.Source)

	got, err := repo.GetByID(ctx, open.ID)
	require.NoError(t, err)
	assert.True(t, got.EndTime.Equal(end))
}

func TestUpdateAndDeleteMissing(t *testing.T) {
	repo := setupDB(t)
	ctx := context.Background()

	now := time.Now().UTC()
	_, err := repo.Update(ctx, "missing", model.SessionUpdate{EndTime: &now, UpdatedAt: now})
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.ErrorIs(t, repo.Delete(ctx, "missing"), repository.ErrNotFound)

	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTimestampsSurviveRoundTrip(t *testing.T) {
	repo := setupDB(t)
	ctx := context.Background()

	start := time.Date(2024, 1, 1, 23, 0, 0, 123456789, time.UTC)
	s := closedSession("u1", start, 8*time.Hour+30*time.Minute)
	require.NoError(t, repo.Insert(ctx, s))

	got, err := repo.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.True(t, got.StartTime.Equal(start))
	assert.True(t, got.EndTime.Equal(*s.EndTime))
	assert.Equal(t, time.UTC, got.StartTime.Location())
}
