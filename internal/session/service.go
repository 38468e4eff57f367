// Package session implements the sleep-tracking lifecycle: starting,
// stopping, and resuming a session while keeping three state holders in
// agreement: the remote sessions table (source of truth), the in-process
// cache, and the cross-process shared state read by the widget surface.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"sneuz/internal/model"
	"sneuz/internal/sharedstate"
)

const defaultFetchLimit = 60

// RemoteStore is the slice of the backend the lifecycle needs: plain CRUD on
// the sleep_sessions table. Implemented by repository.SessionRepository
// (direct SQL) and remote.Client (HTTP).
type RemoteStore interface {
	Insert(ctx context.Context, session *model.SleepSession) error
	// SelectOpenSession returns (nil, nil) when the user has no open session.
	SelectOpenSession(ctx context.Context, userID string) (*model.SleepSession, error)
	SelectRecent(ctx context.Context, userID string, limit int) ([]model.SleepSession, error)
	// Update applies the non-nil fields and returns the stored row.
	Update(ctx context.Context, id string, fields model.SessionUpdate) (*model.SleepSession, error)
	Delete(ctx context.Context, id string) error
}

// AuthProvider supplies the current authenticated identity. RefreshSession
// must be awaited before CurrentUser can be trusted.
type AuthProvider interface {
	// CurrentUser returns the user id, or "" when not authenticated.
	CurrentUser() string
	RefreshSession(ctx context.Context) error
}

// Service is the single authority for a user's tracking state. Operations
// are safe for sequential use; overlapping calls from the same process must
// be serialized by the caller. Across processes the remote store wins and
// RefreshFromRemote is the convergence path.
type Service struct {
	remote RemoteStore
	auth   AuthProvider
	shared sharedstate.Store
	log    zerolog.Logger
	limit  int

	mu     sync.Mutex
	active *model.SleepSession
	now    func() time.Time
}

func NewService(remote RemoteStore, auth AuthProvider, shared sharedstate.Store, log zerolog.Logger) *Service {
	return &Service{
		remote: remote,
		auth:   auth,
		shared: shared,
		log:    log,
		limit:  defaultFetchLimit,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ActiveSession returns the cached open session, if any.
func (s *Service) ActiveSession() *model.SleepSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// StartTracking opens a sleep session. A cached active session is returned
// unchanged; an open session found remotely (started from another surface or
// device) is adopted instead of creating a duplicate row.
func (s *Service) StartTracking(ctx context.Context) (*model.SleepSession, error) {
	userID := s.auth.CurrentUser()
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil {
		s.log.Debug().Str("session_id", s.active.ID).Msg("start: already tracking locally, ignoring")
		return s.active, nil
	}

	existing, err := s.remote.SelectOpenSession(ctx, userID)
	if err != nil {
		return nil, &PersistenceError{Op: "select open session", Err: err}
	}
	if existing != nil {
		s.log.Info().Str("session_id", existing.ID).Msg("start: adopting existing remote session")
		s.adoptLocked(existing)
		return existing, nil
	}

	now := s.now()
	created := &model.SleepSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		StartTime: now,
		Source:    model.SourceManual,
		UpdatedAt: now,
	}
	if err := s.remote.Insert(ctx, created); err != nil {
		return nil, &PersistenceError{Op: "insert session", Err: err}
	}

	s.log.Info().Str("session_id", created.ID).Time("start_time", now).Msg("start: session created")
	s.adoptLocked(created)
	return created, nil
}

// StopTracking closes the active session. With no session resolvable locally
// or remotely it is a no-op that still forces the shared tracking flag off,
// healing a stale widget.
func (s *Service) StopTracking(ctx context.Context) error {
	userID := s.auth.CurrentUser()
	if userID == "" {
		return ErrUnauthenticated
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target := s.active
	if target == nil {
		found, err := s.remote.SelectOpenSession(ctx, userID)
		if err != nil {
			// Lookup failure is not fatal; fall through to the no-op path.
			s.log.Warn().Err(err).Msg("stop: open session lookup failed")
		} else if found != nil {
			s.log.Info().Str("session_id", found.ID).Msg("stop: adopted open session from remote")
			target = found
			s.active = found
		}
	}

	if target == nil {
		s.log.Debug().Msg("stop: no active session, clearing shared flag")
		s.shared.SetTracking(false)
		return nil
	}

	now := s.now()
	end := now
	update := model.SessionUpdate{EndTime: &end, UpdatedAt: now}
	if _, err := s.remote.Update(ctx, target.ID, update); err != nil {
		// The stop did not happen; keep local and shared state pointing at
		// the still-open session.
		return &PersistenceError{Op: "update session", Err: err}
	}

	target.EndTime = &end
	target.UpdatedAt = now
	s.log.Info().Str("session_id", target.ID).Dur("duration", target.Duration()).Msg("stop: session closed")

	s.active = nil
	s.shared.SetTracking(false)
	s.shared.SetStartTime(nil)
	return nil
}

// RefreshFromRemote fetches the user's recent sessions and reconciles the
// cache and the shared state with what the remote store says. Idempotent;
// the host surface calls it on resume and after cross-process operations.
func (s *Service) RefreshFromRemote(ctx context.Context) ([]model.SleepSession, error) {
	userID := s.auth.CurrentUser()
	if userID == "" {
		return nil, ErrUnauthenticated
	}

	sessions, err := s.remote.SelectRecent(ctx, userID, s.limit)
	if err != nil {
		return nil, &PersistenceError{Op: "select recent sessions", Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(sessions) > 0 && sessions[0].Open() {
		newest := sessions[0]
		s.active = &newest
		// Only touch the shared store when it disagrees, to avoid spurious
		// refresh signals. The start time is part of the comparison: the open
		// session may have been swapped underneath a process that was down,
		// leaving the flag correct but the widget's start time stale.
		stored := s.shared.StartTime()
		if !s.shared.IsTracking() || stored == nil || !stored.Equal(newest.StartTime) {
			s.log.Info().Str("session_id", newest.ID).Msg("refresh: remote says tracking, healing shared state")
			s.shared.SetTracking(true)
			start := newest.StartTime
			s.shared.SetStartTime(&start)
		}
	} else {
		s.active = nil
		if s.shared.IsTracking() {
			s.log.Info().Msg("refresh: remote says not tracking, healing shared state")
			s.shared.SetTracking(false)
			s.shared.SetStartTime(nil)
		}
	}

	return sessions, nil
}

// CreateManualSession records a past sleep interval entered by hand.
func (s *Service) CreateManualSession(ctx context.Context, start, end time.Time) (*model.SleepSession, error) {
	userID := s.auth.CurrentUser()
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if end.Before(start) {
		return nil, &ValidationError{Reason: "end_time before start_time"}
	}

	now := s.now()
	endUTC := end.UTC()
	created := &model.SleepSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		StartTime: start.UTC(),
		EndTime:   &endUTC,
		Source:    model.SourceManual,
		UpdatedAt: now,
	}
	if err := s.remote.Insert(ctx, created); err != nil {
		return nil, &PersistenceError{Op: "insert session", Err: err}
	}
	s.log.Info().Str("session_id", created.ID).Msg("manual session created")
	return created, nil
}

// UpdateSession rewrites both times of an existing session. Editing the
// cached active session gives it an end time, so tracking state is cleared
// the same way a successful stop would.
func (s *Service) UpdateSession(ctx context.Context, id string, start, end time.Time) (*model.SleepSession, error) {
	userID := s.auth.CurrentUser()
	if userID == "" {
		return nil, ErrUnauthenticated
	}
	if end.Before(start) {
		return nil, &ValidationError{Reason: "end_time before start_time"}
	}

	now := s.now()
	startUTC := start.UTC()
	endUTC := end.UTC()
	update := model.SessionUpdate{StartTime: &startUTC, EndTime: &endUTC, UpdatedAt: now}
	updated, err := s.remote.Update(ctx, id, update)
	if err != nil {
		return nil, &PersistenceError{Op: "update session", Err: err}
	}

	s.mu.Lock()
	if s.active != nil && s.active.ID == id {
		s.active = nil
		s.shared.SetTracking(false)
		s.shared.SetStartTime(nil)
	}
	s.mu.Unlock()

	return updated, nil
}

// DeleteSession removes a session. Deleting the cached active session clears
// tracking state like a successful stop.
func (s *Service) DeleteSession(ctx context.Context, id string) error {
	userID := s.auth.CurrentUser()
	if userID == "" {
		return ErrUnauthenticated
	}

	if err := s.remote.Delete(ctx, id); err != nil {
		return &PersistenceError{Op: "delete session", Err: err}
	}

	s.mu.Lock()
	if s.active != nil && s.active.ID == id {
		s.log.Info().Str("session_id", id).Msg("delete: removed the active session")
		s.active = nil
		s.shared.SetTracking(false)
		s.shared.SetStartTime(nil)
	}
	s.mu.Unlock()
	return nil
}

// adoptLocked points cache and shared state at an open session. Callers hold s.mu.
func (s *Service) adoptLocked(session *model.SleepSession) {
	s.active = session
	s.shared.SetTracking(true)
	start := session.StartTime
	s.shared.SetStartTime(&start)
}
