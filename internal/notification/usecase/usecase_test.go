package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nursyahid/leadpipe/internal/notification/entity"
	"github.com/nursyahid/leadpipe/internal/pkg/idempotency"
	"github.com/nursyahid/leadpipe/internal/pkg/instrument"
	"github.com/nursyahid/leadpipe/internal/pkg/mail"
	"github.com/nursyahid/leadpipe/internal/pkg/validator"
)

type stubConfig struct {
	strings map[string]string
	ints    map[string]int64
}

func (c stubConfig) Close() error                        { return nil }
func (c stubConfig) GetBool(string) bool                 { return false }
func (c stubConfig) GetString(key string) string         { return c.strings[key] }
func (c stubConfig) GetInt(key string) int               { return int(c.ints[key]) }
func (c stubConfig) GetInt32(key string) int32           { return int32(c.ints[key]) }
func (c stubConfig) GetInt64(key string) int64           { return c.ints[key] }
func (c stubConfig) GetUint(key string) uint             { return uint(c.ints[key]) }
func (c stubConfig) GetFloat64(string) float64           { return 0 }
func (c stubConfig) GetSecond(key string) time.Duration  { return time.Duration(c.ints[key]) * time.Second }
func (c stubConfig) GetMinute(key string) time.Duration  { return time.Duration(c.ints[key]) * time.Minute }
func (c stubConfig) GetHour(key string) time.Duration    { return time.Duration(c.ints[key]) * time.Hour }
func (c stubConfig) GetDay(key string) time.Duration     { return time.Duration(c.ints[key]) * 24 * time.Hour }
func (c stubConfig) GetBinary(key string) []byte         { return []byte(c.strings[key]) }
func (c stubConfig) GetArray(string) []string            { return nil }
func (c stubConfig) GetMap(string) map[string]string     { return nil }

// memIdempotency mirrors the Redis tracker: first Exec for a key runs
// fn and records the outcome, repeats answer with the recorded state.
type memIdempotency struct {
	mu     sync.Mutex
	states map[string]idempotency.State
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{states: map[string]idempotency.State{}}
}

func (m *memIdempotency) Acquire(_ context.Context, key string, _ time.Duration) (idempotency.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if st, ok := m.states[key]; ok {
		return st, nil
	}
	m.states[key] = idempotency.StateInProgress
	return idempotency.StateNone, nil
}

func (m *memIdempotency) MarkCompleted(_ context.Context, key string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[key] = idempotency.StateCompleted
	return nil
}

func (m *memIdempotency) MarkFailed(_ context.Context, key string, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[key] = idempotency.StateFailed
	return nil
}

func (m *memIdempotency) Exec(ctx context.Context, key string, fn func(context.Context) error, _ ...idempotency.Option) error {
	state, err := m.Acquire(ctx, key, 0)
	if err != nil {
		return err
	}
	switch state {
	case idempotency.StateInProgress:
		return idempotency.ErrAlreadyInProgress
	case idempotency.StateCompleted:
		return idempotency.ErrAlreadyCompleted
	case idempotency.StateFailed:
		return idempotency.ErrAlreadyFailed
	}
	if err := fn(ctx); err != nil {
		_ = m.MarkFailed(ctx, key, 0)
		return err
	}
	return m.MarkCompleted(ctx, key, 0)
}

type memDeliveryLogs struct {
	mu      sync.Mutex
	created []entity.CreateDeliveryLog
	updated []entity.UpdateDeliveryLog
}

func (db *memDeliveryLogs) CreateDeliveryLog(_ context.Context, in entity.CreateDeliveryLog) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.created = append(db.created, in)
	return nil
}

func (db *memDeliveryLogs) UpdateDeliveryLog(_ context.Context, in entity.UpdateDeliveryLog) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.updated = append(db.updated, in)
	return nil
}

// flakyMailer fails the first failures sends, then records and accepts.
type flakyMailer struct {
	mu       sync.Mutex
	failures int
	sent     []mail.Message
}

func (m *flakyMailer) Send(_ context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures > 0 {
		m.failures--
		return fmt.Errorf("smtp: connection reset")
	}
	m.sent = append(m.sent, msg)
	return nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type seqNumberID struct{ next int64 }

func (s *seqNumberID) Generate() int64 {
	s.next++
	return s.next
}

type notifFixture struct {
	uc     *Usecase
	db     *memDeliveryLogs
	mailer *flakyMailer
	idemp  *memIdempotency
	now    time.Time
}

func newNotifFixture(t *testing.T, mailFailures int) *notifFixture {
	t.Helper()

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	f := &notifFixture{
		db:     &memDeliveryLogs{},
		mailer: &flakyMailer{failures: mailFailures},
		idemp:  newMemIdempotency(),
		now:    time.Date(2026, time.March, 5, 9, 0, 0, 0, time.UTC),
	}

	f.uc = New(Dependency{
		RepoDB:      f.db,
		RepoMail:    f.mailer,
		Idempotency: f.idemp,
		Validator:   v10,
		Config: stubConfig{
			strings: map[string]string{
				"app.name": "Leadpipe",
				"app.web":  "https://leadpipe.example.com",
			},
			ints: map[string]int64{"modules.notification.max_send_retries": 2},
		},
		UID:        &seqNumberID{},
		Clock:      fixedClock{now: f.now},
		Instrument: instrument.NewNoop(),
	})

	return f
}

func TestConsumeOtpIssuedSendsCode(t *testing.T) {
	f := newNotifFixture(t, 0)

	err := f.uc.ConsumeOtpIssued(context.Background(), ConsumeOtpIssuedInput{
		UserID:    101,
		Email:     "agent@example.com",
		Code:      "481935",
		ExpiresAt: f.now.Add(10 * time.Minute),
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	if len(f.mailer.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(f.mailer.sent))
	}
	msg := f.mailer.sent[0]
	if msg.To[0] != "agent@example.com" || msg.Subject != "Your login code" {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if !strings.Contains(msg.HTMLBody, "481935") {
		t.Fatal("body must carry the code")
	}
	if !strings.Contains(msg.HTMLBody, "10 minutes") {
		t.Fatalf("body must state the expiry window, got: %s", msg.HTMLBody)
	}

	if len(f.db.created) != 1 || f.db.created[0].Template != entity.TemplateOtpCode {
		t.Fatalf("delivery log created = %+v", f.db.created)
	}
	if len(f.db.updated) != 1 || f.db.updated[0].Status != entity.DeliveryStatusSent || f.db.updated[0].Attempts != 1 {
		t.Fatalf("delivery log updated = %+v", f.db.updated)
	}
}

func TestConsumeOtpIssuedDeduplicatesRedelivery(t *testing.T) {
	f := newNotifFixture(t, 0)
	in := ConsumeOtpIssuedInput{
		UserID:    101,
		Email:     "agent@example.com",
		Code:      "481935",
		ExpiresAt: f.now.Add(10 * time.Minute),
	}

	for range 3 {
		if err := f.uc.ConsumeOtpIssued(context.Background(), in); err != nil {
			t.Fatalf("consume: %v", err)
		}
	}

	if len(f.mailer.sent) != 1 {
		t.Fatalf("sent %d emails for one event, want 1", len(f.mailer.sent))
	}

	// A later re-issue has a new expiry and must go out.
	in.ExpiresAt = f.now.Add(20 * time.Minute)
	if err := f.uc.ConsumeOtpIssued(context.Background(), in); err != nil {
		t.Fatalf("consume re-issue: %v", err)
	}
	if len(f.mailer.sent) != 2 {
		t.Fatalf("sent %d emails after re-issue, want 2", len(f.mailer.sent))
	}
}

func TestConsumeOtpIssuedSkipsExpiredCode(t *testing.T) {
	f := newNotifFixture(t, 0)

	err := f.uc.ConsumeOtpIssued(context.Background(), ConsumeOtpIssuedInput{
		UserID:    101,
		Email:     "agent@example.com",
		Code:      "481935",
		ExpiresAt: f.now.Add(-time.Minute),
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}
	if len(f.mailer.sent) != 0 || len(f.db.created) != 0 {
		t.Fatal("an already expired code must not be emailed")
	}
}

func TestConsumeOtpIssuedDropsInvalidPayload(t *testing.T) {
	f := newNotifFixture(t, 0)

	err := f.uc.ConsumeOtpIssued(context.Background(), ConsumeOtpIssuedInput{
		UserID: 101,
		Email:  "not-an-email",
		Code:   "481935",
	})
	if err != nil {
		t.Fatalf("an invalid payload must be dropped, not redelivered: %v", err)
	}
	if len(f.mailer.sent) != 0 {
		t.Fatal("invalid payload must not produce an email")
	}
}

func TestDeliverEmailRetriesThenSends(t *testing.T) {
	f := newNotifFixture(t, 2)

	err := f.uc.ConsumeOtpIssued(context.Background(), ConsumeOtpIssuedInput{
		UserID:    101,
		Email:     "agent@example.com",
		Code:      "481935",
		ExpiresAt: f.now.Add(10 * time.Minute),
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	if len(f.mailer.sent) != 1 {
		t.Fatalf("sent %d emails, want 1 after retries", len(f.mailer.sent))
	}
	if len(f.db.updated) != 1 || f.db.updated[0].Status != entity.DeliveryStatusSent || f.db.updated[0].Attempts != 3 {
		t.Fatalf("delivery log updated = %+v, want sent after 3 attempts", f.db.updated)
	}
}

func TestDeliverEmailRecordsExhaustedFailure(t *testing.T) {
	f := newNotifFixture(t, 10)

	err := f.uc.ConsumeOtpIssued(context.Background(), ConsumeOtpIssuedInput{
		UserID:    101,
		Email:     "agent@example.com",
		Code:      "481935",
		ExpiresAt: f.now.Add(10 * time.Minute),
	})
	if err != nil {
		t.Fatalf("send failure must not propagate to the broker: %v", err)
	}

	if len(f.db.updated) != 1 {
		t.Fatalf("delivery log updated = %+v", f.db.updated)
	}
	up := f.db.updated[0]
	if up.Status != entity.DeliveryStatusFailed || up.Attempts != 3 {
		t.Fatalf("update = %+v, want failed after 3 attempts", up)
	}
	if !strings.Contains(up.ProviderResponse, "connection reset") {
		t.Fatalf("provider response = %q, want the smtp error", up.ProviderResponse)
	}
}

func TestConsumeUserRegisteredSendsWelcome(t *testing.T) {
	f := newNotifFixture(t, 0)

	err := f.uc.ConsumeUserRegistered(context.Background(), ConsumeUserRegisteredInput{
		UserID:   101,
		Email:    "agent@example.com",
		FullName: "Dana Prasetyo",
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	if len(f.mailer.sent) != 1 {
		t.Fatalf("sent %d emails, want 1", len(f.mailer.sent))
	}
	msg := f.mailer.sent[0]
	if msg.Subject != "Welcome to Leadpipe" {
		t.Fatalf("subject = %q", msg.Subject)
	}
	if !strings.Contains(msg.HTMLBody, "Dana Prasetyo") || !strings.Contains(msg.HTMLBody, "https://leadpipe.example.com") {
		t.Fatalf("welcome body missing name or link: %s", msg.HTMLBody)
	}

	// The same registration event is sent once no matter how often the
	// broker redelivers it.
	if err := f.uc.ConsumeUserRegistered(context.Background(), ConsumeUserRegisteredInput{
		UserID:   101,
		Email:    "agent@example.com",
		FullName: "Dana Prasetyo",
	}); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if len(f.mailer.sent) != 1 {
		t.Fatalf("sent %d welcome emails, want 1", len(f.mailer.sent))
	}
}
