package model

import "time"

const SourceManual = "manual"

// SleepSession is one sleep interval. A nil EndTime marks the session as
// still open (the user is currently tracking). Wire keys are snake_case and
// timestamps serialize as RFC 3339, matching the sleep_sessions table.
type SleepSession struct {
	ID        string     `json:"id"`
	UserID    string     `json:"user_id"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Source    string     `json:"source"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func (s *SleepSession) Open() bool {
	return s.EndTime == nil
}

// Duration is zero while the session is open.
func (s *SleepSession) Duration() time.Duration {
	if s.EndTime == nil {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// SessionUpdate carries the mutable fields of a session for partial updates.
// Nil fields are left untouched.
type SessionUpdate struct {
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
}
