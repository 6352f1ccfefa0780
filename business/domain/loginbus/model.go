package loginbus

import "time"

// Attempt represents one recorded login attempt, successful or not.
// Attempts are append-only and age out implicitly through time-bounded
// queries.
type Attempt struct {
	Email         string
	IP            string
	UserAgent     string
	Success       bool
	FailureReason string
	CreatedAt     time.Time
}

// NewAttempt contains information needed to record a login attempt.
type NewAttempt struct {
	Email         string
	IP            string
	UserAgent     string
	Success       bool
	FailureReason string
}
