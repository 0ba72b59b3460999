// Package idempotency guards operations keyed by a caller-chosen id so
// repeated or concurrent invocations run the work at most once.
package idempotency

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrAlreadyInProgress = errors.New("operation already in progress")
	ErrAlreadyCompleted  = errors.New("operation already completed")
	ErrAlreadyFailed     = errors.New("operation already failed")
	ErrInvalidState      = errors.New("invalid state")
)

// State describes what is known about an operation key.
type State string

const (
	StateNone       State = "none"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
	StateFailed     State = "failed"
	StateError      State = "error"
)

func (s State) String() string {
	return string(s)
}

// Idempotency guards an operation so concurrent or repeated calls with
// the same key run the work at most once.
type Idempotency interface {
	Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error)
	MarkCompleted(ctx context.Context, key string, ttl time.Duration) error
	MarkFailed(ctx context.Context, key string, ttl time.Duration) error
	Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error
}

const (
	keyPrefix = "idempotency:"

	defaultLockDuration = time.Minute
	defaultStateTTL     = time.Minute
)

// Option adjusts Exec behavior.
type Option func(*execOptions)

type execOptions struct {
	lockDuration time.Duration
	stateTTL     time.Duration
}

// WithLockDuration sets how long the in-progress lock is held.
func WithLockDuration(d time.Duration) Option {
	return func(o *execOptions) { o.lockDuration = d }
}

// WithStateTTL sets how long completed/failed markers live.
func WithStateTTL(d time.Duration) Option {
	return func(o *execOptions) { o.stateTTL = d }
}

func resolveOptions(opts []Option) execOptions {
	resolved := execOptions{
		lockDuration: defaultLockDuration,
		stateTTL:     defaultStateTTL,
	}
	for _, opt := range opts {
		opt(&resolved)
	}
	if resolved.lockDuration <= 0 {
		resolved.lockDuration = defaultLockDuration
	}
	if resolved.stateTTL <= 0 {
		resolved.stateTTL = defaultStateTTL
	}
	return resolved
}

// StateTracker implements Idempotency on Redis SetNX.
type StateTracker struct {
	client *redis.Client
}

// New returns a tracker using the given Redis client.
func New(client *redis.Client) *StateTracker {
	return &StateTracker{client: client}
}

// Acquire attempts to take the in-progress lock for key and reports
// the current state when it cannot.
func (s *StateTracker) Acquire(ctx context.Context, key string, lockDuration time.Duration) (State, error) {
	fk := keyPrefix + key

	took, err := s.client.SetNX(ctx, fk, StateInProgress.String(), lockDuration).Result()
	if err != nil {
		return StateError, err
	}
	if took {
		return StateNone, nil
	}

	current, err := s.client.Get(ctx, fk).Result()
	switch {
	case errors.Is(err, redis.Nil):
		// key expired between SetNX and Get; try once more
		took, err = s.client.SetNX(ctx, fk, StateInProgress.String(), lockDuration).Result()
		if err != nil {
			return StateError, err
		}
		if took {
			return StateNone, nil
		}
		return StateError, ErrInvalidState
	case err != nil:
		return StateError, err
	}

	for _, known := range []State{StateInProgress, StateCompleted, StateFailed} {
		if current == known.String() {
			return known, nil
		}
	}
	return StateError, ErrInvalidState
}

// MarkCompleted records the key as done.
func (s *StateTracker) MarkCompleted(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, keyPrefix+key, StateCompleted.String(), ttl).Err()
}

// MarkFailed records the key as failed.
func (s *StateTracker) MarkFailed(ctx context.Context, key string, ttl time.Duration) error {
	return s.client.Set(ctx, keyPrefix+key, StateFailed.String(), ttl).Err()
}

// Exec runs fn under the key's lock and records the outcome.
func (s *StateTracker) Exec(ctx context.Context, key string, fn func(context.Context) error, opts ...Option) error {
	resolved := resolveOptions(opts)

	state, err := s.Acquire(ctx, key, resolved.lockDuration)
	if err != nil {
		return err
	}

	switch state {
	case StateInProgress:
		return ErrAlreadyInProgress
	case StateCompleted:
		return ErrAlreadyCompleted
	case StateFailed:
		return ErrAlreadyFailed
	}

	if err := fn(ctx); err != nil {
		if markErr := s.MarkFailed(ctx, key, resolved.stateTTL); markErr != nil {
			return markErr
		}
		return err
	}

	return s.MarkCompleted(ctx, key, resolved.stateTTL)
}
