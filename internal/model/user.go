package model

import "time"

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserSettings holds the sleep targets shown on the dashboard. Times of day
// are "HH:MM" strings; they never participate in the session lifecycle.
type UserSettings struct {
	UserID         string `json:"user_id"`
	TargetBedtime  string `json:"target_bedtime"`
	TargetWakeTime string `json:"target_wake_time"`
	Timezone       string `json:"timezone"`
}

const (
	DefaultTargetBedtime  = "22:30"
	DefaultTargetWakeTime = "07:00"
	DefaultTimezone       = "UTC"
)
