// Package cache holds the Redis-backed one-time code store. The
// otp:<email> keys live here and are touched by no other component.
package cache

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/nursyahid/leadpipe/internal/identity/entity"
	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
	"github.com/nursyahid/leadpipe/internal/pkg/instrument"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	otpKeyPrefix = "otp:"

	fieldCodeHash          = "code_hash"
	fieldExpiresAt         = "expires_at"
	fieldRemainingAttempts = "remaining_attempts"
)

// decrementScript decrements remaining_attempts but never below zero,
// and reports -1 when the record is already gone (expired between the
// read and the decrement).
var decrementScript = redis.NewScript(`
if redis.call('EXISTS', KEYS[1]) == 0 then
  return -1
end
local remaining = redis.call('HINCRBY', KEYS[1], ARGV[1], -1)
if remaining < 0 then
  redis.call('HSET', KEYS[1], ARGV[1], 0)
  remaining = 0
end
return remaining
`)

type OtpStore struct {
	client *redis.Client
	ins    instrument.Instrumentation
}

func NewOtpStore(client *redis.Client, ins instrument.Instrumentation) *OtpStore {
	return &OtpStore{client: client, ins: ins}
}

func (s *OtpStore) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("identity.outbound.cache").Start(ctx, name)
}

func (s *OtpStore) endSpan(span trace.Span, err error) {
	if err != nil && !errors.Is(err, goerror.ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

func otpKey(email string) string {
	return otpKeyPrefix + email
}

// Save writes the record, replacing any prior one for the email, and
// lets Redis evict it when the ttl elapses.
func (s *OtpStore) Save(ctx context.Context, rec entity.OtpRecord, ttl time.Duration) (err error) {
	ctx, span := s.startSpan(ctx, "Save")
	defer func() { s.endSpan(span, err) }()

	key := otpKey(rec.Email)
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key,
			fieldCodeHash, rec.CodeHash,
			fieldExpiresAt, rec.ExpiresAt.UnixMilli(),
			fieldRemainingAttempts, rec.RemainingAttempts,
		)
		pipe.PExpire(ctx, key, ttl)
		return nil
	})
	return err
}

func (s *OtpStore) Get(ctx context.Context, email string) (_ *entity.OtpRecord, err error) {
	ctx, span := s.startSpan(ctx, "Get")
	defer func() { s.endSpan(span, err) }()

	values, err := s.client.HGetAll(ctx, otpKey(email)).Result()
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		err = goerror.ErrNotFound
		return nil, err
	}

	expiresAtMilli, err := strconv.ParseInt(values[fieldExpiresAt], 10, 64)
	if err != nil {
		return nil, err
	}

	remaining, err := strconv.ParseInt(values[fieldRemainingAttempts], 10, 64)
	if err != nil {
		return nil, err
	}

	return &entity.OtpRecord{
		Email:             email,
		CodeHash:          values[fieldCodeHash],
		ExpiresAt:         time.UnixMilli(expiresAtMilli),
		RemainingAttempts: remaining,
	}, nil
}

// Decrement lowers remaining_attempts by one, floored at zero, and
// returns the remaining count.
func (s *OtpStore) Decrement(ctx context.Context, email string) (_ int64, err error) {
	ctx, span := s.startSpan(ctx, "Decrement")
	defer func() { s.endSpan(span, err) }()

	remaining, err := decrementScript.Run(ctx, s.client, []string{otpKey(email)}, fieldRemainingAttempts).Int64()
	if err != nil {
		return 0, err
	}
	if remaining < 0 {
		err = goerror.ErrNotFound
		return 0, err
	}
	return remaining, nil
}

func (s *OtpStore) Delete(ctx context.Context, email string) (err error) {
	ctx, span := s.startSpan(ctx, "Delete")
	defer func() { s.endSpan(span, err) }()

	err = s.client.Del(ctx, otpKey(email)).Err()
	return err
}
