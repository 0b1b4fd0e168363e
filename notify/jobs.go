// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package notify

import (
	"context"
	"encoding/json"
	"time"
)

// Job types
const (
	TypeNominationSubmitted = "nomination_submitted"
	TypeElectionOpen        = "election_open"
)

// Job status constants
const (
	StatusQueued  = "queued"
	StatusRunning = "running"
	StatusRetry   = "retry"
	StatusDone    = "done"
	StatusFailed  = "failed"
)

const (
	defaultMaxAttempts = 5
	defaultPriority    = 100
)

// Job is a queued unit of background work.
type Job struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	Status      string          `json:"status"`
	Attempts    int             `json:"attempts"`
	MaxAttempts int             `json:"max_attempts"`
	Priority    int             `json:"priority"`
	ScheduledAt time.Time       `json:"scheduled_at"`
	NextTryAt   *time.Time      `json:"next_try_at,omitempty"`
	LastError   string          `json:"last_error,omitempty"`
	Created     time.Time       `json:"created"`
	Updated     time.Time       `json:"updated"`
}

// Handler processes one job. A returned error schedules a retry.
type Handler func(ctx context.Context, j *Job) error

// NominationPayload is the payload of a nomination_submitted job.
type NominationPayload struct {
	NominationID string `json:"nomination_id"`
}

// ElectionOpenPayload is the payload of an election_open job.
type ElectionOpenPayload struct {
	ElectionID string `json:"election_id"`
	RunID      string `json:"run_id"`
}

// BackoffDuration returns the delay before retry number attempt: 2^attempt
// seconds, capped at five minutes.
func BackoffDuration(attempt int) time.Duration {
	if attempt <= 0 {
		return time.Second
	}
	if attempt > 16 {
		return 5 * time.Minute
	}
	d := time.Duration(1<<uint(attempt)) * time.Second
	if max := 5 * time.Minute; d > max {
		return max
	}
	return d
}
