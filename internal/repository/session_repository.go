package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"sneuz/internal/model"
)

// SessionRepository persists sleep sessions. It satisfies session.RemoteStore
// so the tracking core can run directly against a database.
type SessionRepository struct {
	db *sql.DB
}

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Insert(ctx context.Context, session *model.SleepSession) error {
	var endTime interface{}
	if session.EndTime != nil {
		endTime = session.EndTime.UTC().Format(time.RFC3339Nano)
	}

	_, err := r.db.ExecContext(
		ctx,
		`INSERT INTO sleep_sessions (id, user_id, start_time, end_time, source, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.StartTime.UTC().Format(time.RFC3339Nano),
		endTime,
		session.Source,
		session.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

// SelectOpenSession returns the user's most recent session without an end
// time, or nil when the user is not tracking.
func (r *SessionRepository) SelectOpenSession(ctx context.Context, userID string) (*model.SleepSession, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, start_time, end_time, source, updated_at
		 FROM sleep_sessions
		 WHERE user_id = ? AND end_time IS NULL
		 ORDER BY start_time DESC
		 LIMIT 1`,
		userID,
	)
	session, err := scanSleepSession(row)
	if err == ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

func (r *SessionRepository) SelectRecent(ctx context.Context, userID string, limit int) ([]model.SleepSession, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, start_time, end_time, source, updated_at
		 FROM sleep_sessions
		 WHERE user_id = ?
		 ORDER BY start_time DESC
		 LIMIT ?`,
		userID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("select recent sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]model.SleepSession, 0, limit)
	for rows.Next() {
		session, scanErr := scanSleepSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// SelectCompleted returns every session of the user that has an end time,
// newest first. Feeds the stats aggregation.
func (r *SessionRepository) SelectCompleted(ctx context.Context, userID string) ([]model.SleepSession, error) {
	rows, err := r.db.QueryContext(
		ctx,
		`SELECT id, user_id, start_time, end_time, source, updated_at
		 FROM sleep_sessions
		 WHERE user_id = ? AND end_time IS NOT NULL
		 ORDER BY start_time DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("select completed sessions: %w", err)
	}
	defer rows.Close()

	var sessions []model.SleepSession
	for rows.Next() {
		session, scanErr := scanSleepSession(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		sessions = append(sessions, *session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

func (r *SessionRepository) GetByID(ctx context.Context, id string) (*model.SleepSession, error) {
	row := r.db.QueryRowContext(
		ctx,
		`SELECT id, user_id, start_time, end_time, source, updated_at
		 FROM sleep_sessions
		 WHERE id = ?`,
		id,
	)
	return scanSleepSession(row)
}

// Update applies the non-nil fields and returns the stored row.
func (r *SessionRepository) Update(ctx context.Context, id string, fields model.SessionUpdate) (*model.SleepSession, error) {
	var startTime interface{}
	if fields.StartTime != nil {
		startTime = fields.StartTime.UTC().Format(time.RFC3339Nano)
	}
	var endTime interface{}
	if fields.EndTime != nil {
		endTime = fields.EndTime.UTC().Format(time.RFC3339Nano)
	}

	result, err := r.db.ExecContext(
		ctx,
		`UPDATE sleep_sessions
		 SET start_time = COALESCE(?, start_time),
		     end_time = COALESCE(?, end_time),
		     updated_at = ?
		 WHERE id = ?`,
		startTime,
		endTime,
		fields.UpdatedAt.UTC().Format(time.RFC3339Nano),
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sleep_sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSleepSession(s scanner) (*model.SleepSession, error) {
	session := model.SleepSession{}
	var startTime string
	var endTime sql.NullString
	var updatedAt string
	err := s.Scan(
		&session.ID,
		&session.UserID,
		&startTime,
		&endTime,
		&session.Source,
		&updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	parsedStartTime, err := parseTime(startTime)
	if err != nil {
		return nil, fmt.Errorf("parse session start_time: %w", err)
	}
	session.StartTime = parsedStartTime

	if endTime.Valid {
		parsedEndTime, parseErr := parseTime(endTime.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parse session end_time: %w", parseErr)
		}
		session.EndTime = &parsedEndTime
	}

	parsedUpdatedAt, err := parseTime(updatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse session updated_at: %w", err)
	}
	session.UpdatedAt = parsedUpdatedAt

	return &session, nil
}
