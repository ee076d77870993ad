package durable

import (
	"fmt"
	"time"
)

// BackoffPolicy describes how the engine spaces retry attempts of a
// dispatched unit. All fields are required except MaxInterval, which the
// engine may cap internally when zero.
type BackoffPolicy struct {
	// InitialInterval is the delay before the first retry.
	InitialInterval time.Duration
	// Coefficient multiplies the interval after each attempt. Must be >= 1.
	Coefficient float64
	// MaxInterval caps the interval growth. Zero means no explicit cap.
	MaxInterval time.Duration
}

// ExecutionPolicy carries the complete timeout and retry configuration for a
// dispatched unit. There is no default policy: every field that matters must
// be supplied explicitly, and construction fails loudly when one is absent.
// A policy is immutable after construction and safe to share across any
// number of concurrent dispatches.
type ExecutionPolicy struct {
	// Timeout bounds a single attempt of the unit, start to close.
	Timeout time.Duration
	// MaxAttempts bounds the engine's retry budget, first attempt included.
	MaxAttempts int
	// Backoff spaces the retry attempts.
	Backoff BackoffPolicy
}

// NewExecutionPolicy validates the given configuration and returns an
// immutable policy. Absent or non-positive values are configuration errors,
// never silently defaulted: a hidden fallback here would let test and
// production behavior drift apart without anyone noticing.
func NewExecutionPolicy(timeout time.Duration, maxAttempts int, backoff BackoffPolicy) (*ExecutionPolicy, error) {
	p := &ExecutionPolicy{Timeout: timeout, MaxAttempts: maxAttempts, Backoff: backoff}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks every required field. A nil policy is invalid.
func (p *ExecutionPolicy) Validate() error {
	if p == nil {
		return &ConfigurationError{Field: "policy", Reason: "policy is required, no default exists"}
	}
	if p.Timeout <= 0 {
		return &ConfigurationError{Field: "timeout", Reason: fmt.Sprintf("must be positive, got %s", p.Timeout)}
	}
	if p.MaxAttempts < 1 {
		return &ConfigurationError{Field: "max_attempts", Reason: fmt.Sprintf("must be at least 1, got %d", p.MaxAttempts)}
	}
	if p.Backoff.InitialInterval <= 0 {
		return &ConfigurationError{Field: "backoff.initial_interval", Reason: fmt.Sprintf("must be positive, got %s", p.Backoff.InitialInterval)}
	}
	if p.Backoff.Coefficient < 1 {
		return &ConfigurationError{Field: "backoff.coefficient", Reason: fmt.Sprintf("must be at least 1, got %v", p.Backoff.Coefficient)}
	}
	if p.Backoff.MaxInterval < 0 {
		return &ConfigurationError{Field: "backoff.max_interval", Reason: fmt.Sprintf("must not be negative, got %s", p.Backoff.MaxInterval)}
	}
	return nil
}
