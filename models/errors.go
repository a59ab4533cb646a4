package models

import (
	"errors"
	"fmt"
	"strings"
)

// GateErrorFmt wraps the cause of a closed gate for the viewer.
const GateErrorFmt = "You are not allowed to view this content. Gate error: %s"

// ErrNotGatedAsset marks a precondition violation: the gating protocol was
// invoked for an asset with a public policy.
var ErrNotGatedAsset = errors.New("not a lit gated asset")

// PolicyResolutionError is a transport or lookup failure while fetching the
// playback descriptor. It blocks even knowing whether gating is required.
type PolicyResolutionError struct {
	PlaybackId string
	Err        error
}

func (e *PolicyResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve playback info for %s: %v", e.PlaybackId, e.Err)
}

func (e *PolicyResolutionError) Unwrap() error {
	return e.Err
}

// CredentialError is a rejected or failed wallet signing prompt. It is
// terminal for the gating attempt; a rejected signature is never retried.
type CredentialError struct {
	Chain string
	Err   error
}

func (e *CredentialError) Error() string {
	return fmt.Sprintf("failed to sign auth message for chain %s: %v", e.Chain, e.Err)
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}

// ExchangeError is a failed token exchange with the access-control network,
// including unmet conditions. The network's message is carried verbatim so
// "not entitled" is never masked as a transient error.
type ExchangeError struct {
	Err error
}

func (e *ExchangeError) Error() string {
	return e.Err.Error()
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// VerificationError is a failed origin verification. An explicit rejection
// carries the origin's error list; a transport failure carries Err instead so
// the two remain distinguishable in the surfaced detail.
type VerificationError struct {
	Errors []string
	Err    error
}

func (e *VerificationError) Error() string {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	if e.Err != nil {
		return fmt.Sprintf("origin verification unreachable: %v", e.Err)
	}
	return "origin verification failed"
}

func (e *VerificationError) Unwrap() error {
	return e.Err
}

// Rejected reports whether the origin explicitly refused the token, as
// opposed to not answering at all.
func (e *VerificationError) Rejected() bool {
	return len(e.Errors) > 0
}

func (e *VerificationError) AllErrors() string {
	return strings.Join(e.Errors, "; ")
}
