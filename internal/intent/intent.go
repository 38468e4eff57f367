// Package intent is the voice/shortcut entry point layer: thin wrappers over
// the session service that refresh auth first, consult the shared tracking
// flag, and turn redundant invocations into user-facing guidance instead of
// silent no-ops.
package intent

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"sneuz/internal/session"
	"sneuz/internal/sharedstate"
)

// User guidance returned when a shortcut is invoked in the wrong state. The
// session service itself absorbs redundant start/stop as no-ops; only this
// layer talks back to the user.
var (
	ErrAlreadyTracking = errors.New("You are already sleeping.")
	ErrNotTracking     = errors.New("You are not currently sleeping.")
)

type Intents struct {
	svc    *session.Service
	auth   session.AuthProvider
	shared sharedstate.Store
	log    zerolog.Logger
}

func New(svc *session.Service, auth session.AuthProvider, shared sharedstate.Store, log zerolog.Logger) *Intents {
	return &Intents{svc: svc, auth: auth, shared: shared, log: log}
}

func (i *Intents) StartTracking(ctx context.Context) error {
	i.refreshAuth(ctx)
	if i.auth.CurrentUser() == "" {
		return session.ErrUnauthenticated
	}
	if i.shared.IsTracking() {
		i.log.Warn().Msg("start intent: already tracking, ignoring")
		return ErrAlreadyTracking
	}
	if _, err := i.svc.StartTracking(ctx); err != nil {
		i.log.Error().Err(err).Msg("start intent failed")
		return err
	}
	i.log.Info().Msg("start intent: session started")
	return nil
}

func (i *Intents) StopTracking(ctx context.Context) error {
	i.refreshAuth(ctx)
	if i.auth.CurrentUser() == "" {
		return session.ErrUnauthenticated
	}
	if !i.shared.IsTracking() {
		i.log.Warn().Msg("stop intent: not tracking, ignoring")
		return ErrNotTracking
	}
	if err := i.svc.StopTracking(ctx); err != nil {
		i.log.Error().Err(err).Msg("stop intent failed")
		return err
	}
	i.log.Info().Msg("stop intent: session stopped")
	return nil
}

// ToggleTracking flips between start and stop based on the shared flag, so a
// single shortcut can drive both transitions.
func (i *Intents) ToggleTracking(ctx context.Context) error {
	i.refreshAuth(ctx)
	if i.auth.CurrentUser() == "" {
		return session.ErrUnauthenticated
	}

	if i.shared.IsTracking() {
		i.log.Info().Msg("toggle intent: stopping")
		return i.svc.StopTracking(ctx)
	}
	i.log.Info().Msg("toggle intent: starting")
	_, err := i.svc.StartTracking(ctx)
	return err
}

// refreshAuth is best-effort: a failed refresh still lets the identity check
// below decide, matching how the app surfaces behave offline.
func (i *Intents) refreshAuth(ctx context.Context) {
	if err := i.auth.RefreshSession(ctx); err != nil {
		i.log.Debug().Err(err).Msg("auth refresh failed")
	}
}
