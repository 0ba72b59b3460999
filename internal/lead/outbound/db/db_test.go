package db

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nursyahid/leadpipe/internal/lead/entity"
	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
	"github.com/nursyahid/leadpipe/internal/pkg/instrument"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	ownerAlice int64 = 11
	ownerBob   int64 = 12
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	testcontainers.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("leadpipe_test"),
		tcpostgres.WithUsername("leadpipe"),
		tcpostgres.WithPassword("leadpipe"),
		testcontainers.WithWaitStrategy(
			wait.ForListeningPort(nat.Port("5432/tcp")),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		),
	)
	if err != nil {
		t.Fatalf("start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	})

	connString, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("postgres connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		t.Fatalf("open pool: %v", err)
	}
	t.Cleanup(pool.Close)

	applyMigrations(t, pool)
	seedOwners(t, pool)

	return NewDB(pool, instrument.NewNoop())
}

func applyMigrations(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	dir := filepath.Join("..", "..", "..", "..", "db", "migrations")
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read migrations dir: %v", err)
	}

	var ups []string
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".up.sql") {
			ups = append(ups, e.Name())
		}
	}
	sort.Strings(ups)

	for _, name := range ups {
		sql, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read migration %s: %v", name, err)
		}
		if _, err := pool.Exec(context.Background(), string(sql)); err != nil {
			t.Fatalf("apply migration %s: %v", name, err)
		}
	}
}

func seedOwners(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	const query = `insert into users (id, email, full_name, status) values
		($1, 'alice@example.com', 'Alice', 1),
		($2, 'bob@example.com', 'Bob', 1)`
	if _, err := pool.Exec(context.Background(), query, ownerAlice, ownerBob); err != nil {
		t.Fatalf("seed users: %v", err)
	}
}

func seedLead(t *testing.T, store *DB, lead entity.NewLead) {
	t.Helper()
	if err := store.CreateLead(context.Background(), lead); err != nil {
		t.Fatalf("seed lead %d: %v", lead.ID, err)
	}
}

func TestLeadCreateAndGet(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	followUp := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	seedLead(t, store, entity.NewLead{
		ID:             1001,
		OwnerID:        ownerAlice,
		FullName:       "Dana Prasetyo",
		Email:          "dana@acme.test",
		Phone:          "+62811000111",
		Company:        "Acme",
		Source:         "webinar",
		Status:         entity.LeadStatusNew,
		Notes:          "asked for pricing",
		NextFollowUpAt: &followUp,
	})

	got, err := store.GetLeadByID(ctx, 1001, 0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FullName != "Dana Prasetyo" || got.OwnerID != ownerAlice || got.Status != entity.LeadStatusNew {
		t.Fatalf("unexpected lead: %+v", got)
	}
	if got.NextFollowUpAt == nil || !got.NextFollowUpAt.Equal(followUp) {
		t.Fatalf("next_follow_up_at = %v, want %v", got.NextFollowUpAt, followUp)
	}
	if got.LastContactedAt != nil {
		t.Fatalf("last_contacted_at should start empty, got %v", got.LastContactedAt)
	}
}

func TestLeadOwnerScoping(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	seedLead(t, store, entity.NewLead{ID: 1001, OwnerID: ownerAlice, FullName: "Dana", Status: entity.LeadStatusNew})

	// The owner and the unscoped (admin) read both see the lead.
	if _, err := store.GetLeadByID(ctx, 1001, ownerAlice); err != nil {
		t.Fatalf("owner read: %v", err)
	}
	if _, err := store.GetLeadByID(ctx, 1001, 0); err != nil {
		t.Fatalf("unscoped read: %v", err)
	}

	// Another agent gets the same answer as for a missing row.
	if _, err := store.GetLeadByID(ctx, 1001, ownerBob); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("foreign read err = %v, want ErrNotFound", err)
	}

	if err := store.SoftDeleteLead(ctx, 1001, ownerBob); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("foreign delete err = %v, want ErrNotFound", err)
	}
	if err := store.UpdateLeadStatus(ctx, 1001, ownerBob, entity.LeadStatusLost, false); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("foreign status update err = %v, want ErrNotFound", err)
	}
}

func TestLeadListFilters(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	seedLead(t, store, entity.NewLead{ID: 1, OwnerID: ownerAlice, FullName: "Dana Prasetyo", Email: "dana@acme.test", Company: "Acme", Status: entity.LeadStatusNew})
	seedLead(t, store, entity.NewLead{ID: 2, OwnerID: ownerAlice, FullName: "Eko Wijaya", Company: "Globex", Status: entity.LeadStatusQualified})
	seedLead(t, store, entity.NewLead{ID: 3, OwnerID: ownerBob, FullName: "Fitri Handayani", Company: "Initech", Status: entity.LeadStatusContacted})

	leads, total, err := store.GetLeadList(ctx, entity.LeadFilter{Size: 10})
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if total != 3 || len(leads) != 3 {
		t.Fatalf("list all = %d rows total %d, want 3/3", len(leads), total)
	}

	leads, total, err = store.GetLeadList(ctx, entity.LeadFilter{OwnerID: ownerAlice, Size: 10})
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if total != 2 {
		t.Fatalf("owner total = %d, want 2", total)
	}
	for _, l := range leads {
		if l.OwnerID != ownerAlice {
			t.Fatalf("owner filter leaked lead %d of owner %d", l.ID, l.OwnerID)
		}
	}

	_, total, err = store.GetLeadList(ctx, entity.LeadFilter{
		Statuses:         []int16{int16(entity.LeadStatusNew), int16(entity.LeadStatusQualified)},
		IsFilterByStatus: true,
		Size:             10,
	})
	if err != nil {
		t.Fatalf("list by status: %v", err)
	}
	if total != 2 {
		t.Fatalf("status total = %d, want 2", total)
	}

	leads, total, err = store.GetLeadList(ctx, entity.LeadFilter{
		Search:           "acme",
		IsFilterBySearch: true,
		Size:             10,
	})
	if err != nil {
		t.Fatalf("list by search: %v", err)
	}
	if total != 1 || leads[0].ID != 1 {
		t.Fatalf("search total = %d first = %+v, want the Acme lead", total, leads)
	}

	leads, _, err = store.GetLeadList(ctx, entity.LeadFilter{
		OrderBy:        "full_name",
		OrderDirection: "asc",
		Size:           2,
		Offset:         1,
	})
	if err != nil {
		t.Fatalf("list paged: %v", err)
	}
	if len(leads) != 2 || leads[0].FullName != "Eko Wijaya" {
		t.Fatalf("paged result = %+v, want ordered page starting at Eko", leads)
	}
}

func TestLeadUpdateStatusMarksContact(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	seedLead(t, store, entity.NewLead{ID: 1001, OwnerID: ownerAlice, FullName: "Dana", Status: entity.LeadStatusNew})

	if err := store.UpdateLeadStatus(ctx, 1001, 0, entity.LeadStatusContacted, true); err != nil {
		t.Fatalf("mark contacted: %v", err)
	}
	got, err := store.GetLeadByID(ctx, 1001, 0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != entity.LeadStatusContacted {
		t.Fatalf("status = %v, want contacted", got.Status)
	}
	if got.LastContactedAt == nil {
		t.Fatal("last_contacted_at must be stamped when contact is marked")
	}
	stamp := *got.LastContactedAt

	// Moving on to another status keeps the contact stamp untouched.
	if err := store.UpdateLeadStatus(ctx, 1001, 0, entity.LeadStatusQualified, false); err != nil {
		t.Fatalf("qualify: %v", err)
	}
	got, err = store.GetLeadByID(ctx, 1001, 0)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.LastContactedAt == nil || !got.LastContactedAt.Equal(stamp) {
		t.Fatalf("last_contacted_at changed from %v to %v", stamp, got.LastContactedAt)
	}
}

func TestLeadSoftDeleteHidesRow(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	seedLead(t, store, entity.NewLead{ID: 1001, OwnerID: ownerAlice, FullName: "Dana", Status: entity.LeadStatusNew})

	if err := store.SoftDeleteLead(ctx, 1001, ownerAlice); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.GetLeadByID(ctx, 1001, 0); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("get after delete err = %v, want ErrNotFound", err)
	}
	if err := store.SoftDeleteLead(ctx, 1001, ownerAlice); !errors.Is(err, goerror.ErrNotFound) {
		t.Fatalf("double delete err = %v, want ErrNotFound", err)
	}

	_, total, err := store.GetLeadList(ctx, entity.LeadFilter{Size: 10})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 0 {
		t.Fatalf("deleted lead still listed, total = %d", total)
	}
}

func TestLeadStatusCountsAndFollowUps(t *testing.T) {
	store := newTestDB(t)
	ctx := context.Background()

	soon := time.Now().Add(24 * time.Hour)
	later := time.Now().Add(14 * 24 * time.Hour)
	seedLead(t, store, entity.NewLead{ID: 1, OwnerID: ownerAlice, FullName: "Dana", Status: entity.LeadStatusNew, NextFollowUpAt: &soon})
	seedLead(t, store, entity.NewLead{ID: 2, OwnerID: ownerAlice, FullName: "Eko", Status: entity.LeadStatusNew})
	seedLead(t, store, entity.NewLead{ID: 3, OwnerID: ownerBob, FullName: "Fitri", Status: entity.LeadStatusConverted, NextFollowUpAt: &soon})
	seedLead(t, store, entity.NewLead{ID: 4, OwnerID: ownerBob, FullName: "Gita", Status: entity.LeadStatusContacted, NextFollowUpAt: &later})

	counts, err := store.GetLeadStatusCounts(ctx, 0)
	if err != nil {
		t.Fatalf("status counts: %v", err)
	}
	byStatus := map[entity.LeadStatus]int64{}
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}
	if byStatus[entity.LeadStatusNew] != 2 || byStatus[entity.LeadStatusConverted] != 1 {
		t.Fatalf("unexpected counts: %v", byStatus)
	}

	counts, err = store.GetLeadStatusCounts(ctx, ownerAlice)
	if err != nil {
		t.Fatalf("scoped status counts: %v", err)
	}
	var aliceTotal int64
	for _, c := range counts {
		aliceTotal += c.Count
	}
	if aliceTotal != 2 {
		t.Fatalf("alice total = %d, want 2", aliceTotal)
	}

	// Converted leads never show up in the follow-up queue, and the
	// window excludes far-future entries.
	due, err := store.GetLeadsDueFollowUp(ctx, entity.LeadFilter{
		FollowUpFrom: time.Now().Add(-time.Hour),
		FollowUpTo:   time.Now().Add(7 * 24 * time.Hour),
		Size:         20,
	})
	if err != nil {
		t.Fatalf("due follow-ups: %v", err)
	}
	if len(due) != 1 || due[0].ID != 1 {
		t.Fatalf("due = %+v, want only lead 1", due)
	}
}
