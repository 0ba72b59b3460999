package usecase

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/casbin/casbin/v3"
	"github.com/casbin/casbin/v3/model"
	"github.com/nursyahid/leadpipe/internal/lead/entity"
	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
	"github.com/nursyahid/leadpipe/internal/pkg/instrument"
	"github.com/nursyahid/leadpipe/internal/pkg/jwt"
	"github.com/nursyahid/leadpipe/internal/pkg/storage"
	"github.com/nursyahid/leadpipe/internal/pkg/validator"
)

const (
	adminUserID int64 = 7
	agentUserID int64 = 11
)

type stubConfig struct {
	strings map[string]string
	ints    map[string]int64
}

func (c stubConfig) Close() error                       { return nil }
func (c stubConfig) GetBool(string) bool                { return false }
func (c stubConfig) GetString(key string) string        { return c.strings[key] }
func (c stubConfig) GetInt(key string) int              { return int(c.ints[key]) }
func (c stubConfig) GetInt32(key string) int32          { return int32(c.ints[key]) }
func (c stubConfig) GetInt64(key string) int64          { return c.ints[key] }
func (c stubConfig) GetUint(key string) uint            { return uint(c.ints[key]) }
func (c stubConfig) GetFloat64(string) float64          { return 0 }
func (c stubConfig) GetSecond(key string) time.Duration { return time.Duration(c.ints[key]) * time.Second }
func (c stubConfig) GetMinute(key string) time.Duration { return time.Duration(c.ints[key]) * time.Minute }
func (c stubConfig) GetHour(key string) time.Duration   { return time.Duration(c.ints[key]) * time.Hour }
func (c stubConfig) GetDay(key string) time.Duration    { return time.Duration(c.ints[key]) * 24 * time.Hour }
func (c stubConfig) GetBinary(key string) []byte        { return []byte(c.strings[key]) }
func (c stubConfig) GetArray(string) []string           { return nil }
func (c stubConfig) GetMap(string) map[string]string    { return nil }

type statusCall struct {
	id            int64
	ownerID       int64
	status        entity.LeadStatus
	markContacted bool
}

// fakeLeadRepo records the arguments it is called with and answers with
// canned data, so tests can assert the owner scoping the usecase applies.
type fakeLeadRepo struct {
	mu sync.Mutex

	leads        map[int64]entity.Lead
	listPages    [][]entity.Lead
	listTotal    int64
	statusCounts []entity.StatusCount
	dueFollowUps []entity.Lead

	created      []entity.NewLead
	updated      []entity.UpdateLead
	statusCalls  []statusCall
	deletes      []statusCall
	lastFilter   entity.LeadFilter
	lastOwnerArg int64
}

func (r *fakeLeadRepo) GetLeadByID(_ context.Context, id, ownerID int64) (*entity.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	lead, ok := r.leads[id]
	if !ok || (ownerID != 0 && lead.OwnerID != ownerID) {
		return nil, goerror.ErrNotFound
	}
	return &lead, nil
}

func (r *fakeLeadRepo) GetLeadList(_ context.Context, filter entity.LeadFilter) ([]entity.Lead, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = filter
	if len(r.listPages) == 0 {
		return nil, r.listTotal, nil
	}
	page := r.listPages[0]
	r.listPages = r.listPages[1:]
	return page, r.listTotal, nil
}

func (r *fakeLeadRepo) GetLeadStatusCounts(_ context.Context, ownerID int64) ([]entity.StatusCount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastOwnerArg = ownerID
	return r.statusCounts, nil
}

func (r *fakeLeadRepo) GetLeadsDueFollowUp(_ context.Context, filter entity.LeadFilter) ([]entity.Lead, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastFilter = filter
	return r.dueFollowUps, nil
}

func (r *fakeLeadRepo) CreateLead(_ context.Context, lead entity.NewLead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, lead)
	return nil
}

func (r *fakeLeadRepo) UpdateLead(_ context.Context, up entity.UpdateLead) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updated = append(r.updated, up)
	lead, ok := r.leads[up.ID]
	if !ok || (up.OwnerID != 0 && lead.OwnerID != up.OwnerID) {
		return goerror.ErrNotFound
	}
	return nil
}

func (r *fakeLeadRepo) UpdateLeadStatus(_ context.Context, id, ownerID int64, status entity.LeadStatus, markContacted bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statusCalls = append(r.statusCalls, statusCall{id: id, ownerID: ownerID, status: status, markContacted: markContacted})
	lead, ok := r.leads[id]
	if !ok || (ownerID != 0 && lead.OwnerID != ownerID) {
		return goerror.ErrNotFound
	}
	return nil
}

func (r *fakeLeadRepo) SoftDeleteLead(_ context.Context, id, ownerID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes = append(r.deletes, statusCall{id: id, ownerID: ownerID})
	lead, ok := r.leads[id]
	if !ok || (ownerID != 0 && lead.OwnerID != ownerID) {
		return goerror.ErrNotFound
	}
	return nil
}

// memStorage keeps uploaded objects in memory and hands out fake
// download URLs.
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    []storage.PutOptions
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}}
}

func (s *memStorage) Close() error { return nil }

func (s *memStorage) Put(_ context.Context, bucket, key string, r io.Reader, opts storage.PutOptions) (storage.ObjectInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return storage.ObjectInfo{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+key] = data
	s.puts = append(s.puts, opts)
	return storage.ObjectInfo{Bucket: bucket, Key: key, Size: int64(len(data))}, nil
}

func (s *memStorage) Get(context.Context, string, string) (io.ReadCloser, storage.ObjectInfo, error) {
	return nil, storage.ObjectInfo{}, goerror.ErrNotFound
}

func (s *memStorage) Stat(context.Context, string, string) (storage.ObjectInfo, error) {
	return storage.ObjectInfo{}, goerror.ErrNotFound
}

func (s *memStorage) Delete(context.Context, string, string) error { return nil }

func (s *memStorage) List(context.Context, string, string, int32) ([]storage.ObjectInfo, error) {
	return nil, nil
}

func (s *memStorage) PresignGet(_ context.Context, bucket, key string, _ time.Duration) (string, error) {
	return "https://files.example.com/" + bucket + "/" + key, nil
}

func (s *memStorage) PresignPut(_ context.Context, bucket, key string, _ storage.PutOptions, _ time.Duration) (string, error) {
	return "https://files.example.com/" + bucket + "/" + key, nil
}

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

type seqNumberID struct{ next int64 }

func (s *seqNumberID) Generate() int64 {
	s.next++
	return s.next
}

type fixedStringID struct{ value string }

func (s fixedStringID) Generate() string { return s.value }

func newTestEnforcer(t *testing.T) *casbin.Enforcer {
	t.Helper()

	m, err := model.NewModelFromString(`
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && (p.obj == "*" || r.obj == p.obj) && (p.act == "*" || r.act == p.act)
`)
	if err != nil {
		t.Fatalf("casbin model: %v", err)
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		t.Fatalf("casbin enforcer: %v", err)
	}
	if _, err := e.AddPolicy("role:admin", "*", "*"); err != nil {
		t.Fatalf("add admin policy: %v", err)
	}
	if _, err := e.AddGroupingPolicy("7", "role:admin"); err != nil {
		t.Fatalf("group admin: %v", err)
	}
	if _, err := e.AddGroupingPolicy("11", "role:agent"); err != nil {
		t.Fatalf("group agent: %v", err)
	}
	return e
}

type leadFixture struct {
	uc      *Usecase
	repo    *fakeLeadRepo
	storage *memStorage
	now     time.Time
}

func newLeadFixture(t *testing.T) *leadFixture {
	t.Helper()

	v10, err := validator.NewV10Validator()
	if err != nil {
		t.Fatalf("new validator: %v", err)
	}

	f := &leadFixture{
		repo:    &fakeLeadRepo{leads: map[int64]entity.Lead{}},
		storage: newMemStorage(),
		now:     time.Date(2026, time.March, 5, 9, 0, 0, 0, time.UTC),
	}

	f.uc = New(Dependency{
		RepoDB:   f.repo,
		Storage:  f.storage,
		Enforcer: newTestEnforcer(t),
		Validator: v10,
		Config: stubConfig{
			strings: map[string]string{"modules.lead.export_bucket": "leadpipe-exports"},
			ints:    map[string]int64{"modules.lead.export_url_ttl_minutes": 60},
		},
		UID:        &seqNumberID{next: 5000},
		UUID:       fixedStringID{value: "c0ffee00-0000-4000-8000-000000000002"},
		Clock:      fixedClock{now: f.now},
		Instrument: instrument.NewNoop(),
	})

	return f
}

func asAgent(ctx context.Context) context.Context {
	return jwt.SetAuth(ctx, jwt.Claims{UserID: agentUserID, UserEmail: "agent@example.com"})
}

func asAdmin(ctx context.Context) context.Context {
	return jwt.SetAuth(ctx, jwt.Claims{UserID: adminUserID, UserEmail: "admin@example.com"})
}
