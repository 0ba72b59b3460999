package usecase

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/nursyahid/leadpipe/internal/identity/entity"
	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
	"github.com/nursyahid/leadpipe/internal/pkg/goroutine"
	"github.com/nursyahid/leadpipe/internal/pkg/hash"
	"github.com/nursyahid/leadpipe/internal/pkg/instrument"
	"github.com/nursyahid/leadpipe/internal/pkg/jwt"
	"github.com/nursyahid/leadpipe/internal/pkg/validator"
)

type stubConfig struct {
	values map[string]any
}

func (c stubConfig) Close() error { return nil }

func (c stubConfig) GetBool(key string) bool {
	v, _ := c.values[key].(bool)
	return v
}

func (c stubConfig) GetString(key string) string {
	v, _ := c.values[key].(string)
	return v
}

func (c stubConfig) GetInt(key string) int     { return int(c.num(key)) }
func (c stubConfig) GetInt32(key string) int32 { return int32(c.num(key)) }
func (c stubConfig) GetInt64(key string) int64 { return c.num(key) }
func (c stubConfig) GetUint(key string) uint   { return uint(c.num(key)) }

func (c stubConfig) GetFloat64(key string) float64 {
	v, _ := c.values[key].(float64)
	return v
}

func (c stubConfig) GetSecond(key string) time.Duration {
	return time.Duration(c.num(key)) * time.Second
}

func (c stubConfig) GetMinute(key string) time.Duration {
	return time.Duration(c.num(key)) * time.Minute
}

func (c stubConfig) GetHour(key string) time.Duration {
	return time.Duration(c.num(key)) * time.Hour
}

func (c stubConfig) GetDay(key string) time.Duration {
	return time.Duration(c.num(key)) * 24 * time.Hour
}

func (c stubConfig) GetBinary(key string) []byte { return []byte(c.GetString(key)) }

func (c stubConfig) GetArray(key string) []string {
	v, _ := c.values[key].([]string)
	return v
}

func (c stubConfig) GetMap(key string) map[string]string {
	v, _ := c.values[key].(map[string]string)
	return v
}

func (c stubConfig) num(key string) int64 {
	switch v := c.values[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	}
	return 0
}

// memOtpStore mirrors the Redis store semantics in memory: Save
// replaces, Decrement floors at zero, Get reports ErrNotFound for a
// missing key.
type memOtpStore struct {
	mu      sync.Mutex
	records map[string]entity.OtpRecord
}

func newMemOtpStore() *memOtpStore {
	return &memOtpStore{records: map[string]entity.OtpRecord{}}
}

func (s *memOtpStore) Save(_ context.Context, rec entity.OtpRecord, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Email] = rec
	return nil
}

func (s *memOtpStore) Get(_ context.Context, email string) (*entity.OtpRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[email]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &rec, nil
}

func (s *memOtpStore) Decrement(_ context.Context, email string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[email]
	if !ok {
		return 0, goerror.ErrNotFound
	}
	if rec.RemainingAttempts > 0 {
		rec.RemainingAttempts--
	}
	s.records[email] = rec
	return rec.RemainingAttempts, nil
}

func (s *memOtpStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, email)
	return nil
}

func (s *memOtpStore) record(t *testing.T, email string) entity.OtpRecord {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[email]
	if !ok {
		t.Fatalf("no otp record stored for %s", email)
	}
	return rec
}

func (s *memOtpStore) has(email string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[email]
	return ok
}

type stubRepoDB struct {
	mu            sync.Mutex
	users         map[string]*entity.User
	passwords     map[string]string // email -> hashed password
	refreshTokens []entity.RefreshToken
}

func newStubRepoDB(users ...*entity.User) *stubRepoDB {
	db := &stubRepoDB{users: map[string]*entity.User{}, passwords: map[string]string{}}
	for _, u := range users {
		db.users[u.Email] = u
	}
	return db
}

func (db *stubRepoDB) GetUserByEmail(_ context.Context, email string) (*entity.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	u, ok := db.users[email]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (db *stubRepoDB) GetUserByID(_ context.Context, id int64) (*entity.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	for _, u := range db.users {
		if u.ID == id {
			cp := *u
			return &cp, nil
		}
	}
	return nil, goerror.ErrNotFound
}

func (db *stubRepoDB) GetUserLoginInfo(_ context.Context, email string) (*entity.UserLoginInfo, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	u, ok := db.users[email]
	if !ok {
		return nil, goerror.ErrNotFound
	}
	return &entity.UserLoginInfo{
		ID:               u.ID,
		Email:            u.Email,
		Status:           u.Status,
		Password:         db.passwords[email],
		TwoFactorEnabled: u.TwoFactorEnabled,
	}, nil
}

func (db *stubRepoDB) GetUserRefreshToken(context.Context, string) (*entity.UserRefreshToken, error) {
	return nil, goerror.ErrNotFound
}

func (db *stubRepoDB) CreateUser(_ context.Context, user entity.NewUser, _ string) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users[user.Email] = &entity.User{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.FullName,
		Status:   user.Status,
	}
	return nil
}

func (db *stubRepoDB) CreateRefreshToken(_ context.Context, in entity.RefreshToken) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.refreshTokens = append(db.refreshTokens, in)
	return nil
}

func (db *stubRepoDB) RotateRefreshToken(context.Context, entity.RotateRefreshToken) error {
	return nil
}

func (db *stubRepoDB) RevokeRefreshToken(context.Context, string) error { return nil }

func (db *stubRepoDB) UpdateUserProfile(context.Context, int64, string) error { return nil }
func (db *stubRepoDB) UpdateUserAvatar(context.Context, int64, string) error  { return nil }
func (db *stubRepoDB) UpdateUserTwoFactor(context.Context, int64, bool) error { return nil }

func (db *stubRepoDB) storedRefreshTokens() []entity.RefreshToken {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]entity.RefreshToken, len(db.refreshTokens))
	copy(out, db.refreshTokens)
	return out
}

type recordMessaging struct {
	mu         sync.Mutex
	otpIssued  []OtpIssuedEvent
	registered []UserRegisteredEvent
}

func (m *recordMessaging) PublishOtpIssued(_ context.Context, msg OtpIssuedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.otpIssued = append(m.otpIssued, msg)
	return nil
}

func (m *recordMessaging) PublishUserRegistered(_ context.Context, msg UserRegisteredEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registered = append(m.registered, msg)
	return nil
}

func (m *recordMessaging) otpIssuedEvents() []OtpIssuedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]OtpIssuedEvent, len(m.otpIssued))
	copy(out, m.otpIssued)
	return out
}

type stubJWT struct{}

func (stubJWT) Generate(uid int64, _ string) (string, error) {
	return fmt.Sprintf("access-token-%d", uid), nil
}

func (stubJWT) Verify(string) (jwt.Claims, error) { return jwt.Claims{}, nil }

type stubClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stubClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stubClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// codeQueue hands out a fixed sequence of one-time codes.
type codeQueue struct {
	mu    sync.Mutex
	codes []string
}

func (q *codeQueue) Generate() (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.codes) == 0 {
		return "", fmt.Errorf("code queue exhausted")
	}
	code := q.codes[0]
	q.codes = q.codes[1:]
	return code, nil
}

type seqNumberID struct{ next int64 }

func (s *seqNumberID) Generate() int64 {
	s.next++
	return s.next
}

type fixedStringID struct{ value string }

func (s fixedStringID) Generate() string { return s.value }

type otpFixture struct {
	uc        *Usecase
	store     *memOtpStore
	db        *stubRepoDB
	mq        *recordMessaging
	clock     *stubClock
	hmac      hash.Hash
	password  hash.Hash
	goroutine *goroutine.Manager
}

const testUserEmail = "agent@example.com"

func newOtpFixture(t *testing.T, codes ...string) *otpFixture {
	t.Helper()

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	f := &otpFixture{
		store: newMemOtpStore(),
		db: newStubRepoDB(&entity.User{
			ID:               101,
			Email:            testUserEmail,
			Status:           entity.UserStatusActive,
			TwoFactorEnabled: true,
		}),
		mq:        &recordMessaging{},
		clock:     &stubClock{now: time.Date(2026, time.March, 5, 9, 0, 0, 0, time.UTC)},
		hmac:      hash.NewHMACSHA256("unit-test-hmac-secret"),
		password:  hash.NewBcrypt(4, ""),
		goroutine: goroutine.NewManager(4),
	}

	f.uc = New(Dependency{
		RepoDB:        f.db,
		OtpStore:      f.store,
		RepoMessaging: f.mq,
		Validator:     v10,
		Config: stubConfig{values: map[string]any{
			"modules.identity.otp_ttl_minutes":        10,
			"modules.identity.otp_max_attempts":       5,
			"modules.identity.refresh_token_ttl_days": 30,
		}},
		HMAC:       f.hmac,
		Password:   f.password,
		UID:        &seqNumberID{},
		UUID:       fixedStringID{value: "c0ffee00-0000-4000-8000-000000000001"},
		OID:        fixedStringID{value: "68b3f2a1c9d4e5f60718293a"},
		CodeGen:    &codeQueue{codes: codes},
		Clock:      f.clock,
		JWT:        stubJWT{},
		Instrument: instrument.NewNoop(),
		Goroutine:  f.goroutine,
	})

	return f
}

// waitDispatch blocks until fire-and-forget publishes are done.
func (f *otpFixture) waitDispatch(t *testing.T) {
	t.Helper()
	if err := f.goroutine.Wait(); err != nil {
		t.Fatalf("background tasks failed: %v", err)
	}
}

func asGoError(t *testing.T, err error) *goerror.Error {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	gErr, ok := err.(*goerror.Error)
	if !ok {
		t.Fatalf("expected *goerror.Error, got %T: %v", err, err)
	}
	return gErr
}
