// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package nomination

import "errors"

// Refusal codes
const (
	CodeWindowNotOpen      = "window_not_open"
	CodeWindowClosed       = "window_closed"
	CodeResponseClosed     = "response_closed"
	CodeNotEligible        = "not_eligible"
	CodeNomineeNotEligible = "nominee_not_eligible"
	CodeWrongActor         = "wrong_actor"
	CodeNotEditable        = "not_editable"
	CodeProfileIncomplete  = "profile_incomplete"
	CodeInvalidTransition  = "invalid_transition"
	CodeInvalid            = "invalid"
)

// Refusal is returned when a transition's preconditions do not hold.
type Refusal struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (r *Refusal) Error() string {
	return r.Code + ": " + r.Message
}

func refuse(code, message string) *Refusal {
	return &Refusal{Code: code, Message: message}
}

// AsRefusal unwraps a Refusal from err.
func AsRefusal(err error) (*Refusal, bool) {
	var r *Refusal
	if errors.As(err, &r) {
		return r, true
	}
	return nil, false
}
