package usecase

import (
	"context"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/nursyahid/leadpipe/internal/lead/entity"
	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
)

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

func TestCreateAssignsCallerAsOwner(t *testing.T) {
	f := newLeadFixture(t)

	out, err := f.uc.Create(asAgent(context.Background()), CreateInput{
		FullName: "  Dana Prasetyo ",
		Email:    "dana@acme.test",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if out.ID == 0 {
		t.Fatal("create must return the generated id")
	}

	if len(f.repo.created) != 1 {
		t.Fatalf("created %d leads, want 1", len(f.repo.created))
	}
	got := f.repo.created[0]
	if got.OwnerID != agentUserID {
		t.Fatalf("owner = %d, want the caller %d", got.OwnerID, agentUserID)
	}
	if got.Status != entity.LeadStatusNew {
		t.Fatalf("status = %v, want new", got.Status)
	}
	if got.FullName != "Dana Prasetyo" {
		t.Fatalf("full name = %q, want it trimmed", got.FullName)
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	f := newLeadFixture(t)

	_, err := f.uc.Create(asAgent(context.Background()), CreateInput{FullName: "x"})
	if asGoError(t, err).Code() != goerror.CodeInvalidInput {
		t.Fatal("one-letter name must fail validation")
	}
	if len(f.repo.created) != 0 {
		t.Fatal("nothing may be stored on validation failure")
	}
}

func TestOperationsRequireAuthentication(t *testing.T) {
	f := newLeadFixture(t)
	ctx := context.Background()

	if _, err := f.uc.List(ctx, ListInput{}); asGoError(t, err).Code() != goerror.CodeUnauthorized {
		t.Fatal("list without claims must be unauthorized")
	}
	if _, err := f.uc.Create(ctx, CreateInput{FullName: "Dana"}); asGoError(t, err).Code() != goerror.CodeUnauthorized {
		t.Fatal("create without claims must be unauthorized")
	}
	if _, err := f.uc.Dashboard(ctx); asGoError(t, err).Code() != goerror.CodeUnauthorized {
		t.Fatal("dashboard without claims must be unauthorized")
	}
}

func TestListScopesAgentToOwnLeads(t *testing.T) {
	f := newLeadFixture(t)

	// The agent asks for someone else's leads; the scope wins.
	_, err := f.uc.List(asAgent(context.Background()), ListInput{OwnerID: 99})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if f.repo.lastFilter.OwnerID != agentUserID {
		t.Fatalf("filter owner = %d, want the caller %d", f.repo.lastFilter.OwnerID, agentUserID)
	}
}

func TestListAdminKeepsRequestedOwnerFilter(t *testing.T) {
	f := newLeadFixture(t)

	if _, err := f.uc.List(asAdmin(context.Background()), ListInput{OwnerID: 99}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if f.repo.lastFilter.OwnerID != 99 {
		t.Fatalf("filter owner = %d, want the requested 99", f.repo.lastFilter.OwnerID)
	}

	if _, err := f.uc.List(asAdmin(context.Background()), ListInput{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if f.repo.lastFilter.OwnerID != 0 {
		t.Fatalf("filter owner = %d, want unscoped", f.repo.lastFilter.OwnerID)
	}
}

func TestListNormalizesPagingAndStatuses(t *testing.T) {
	f := newLeadFixture(t)

	out, err := f.uc.List(asAgent(context.Background()), ListInput{
		Statuses: []string{"new", "bogus", "qualified"},
		Size:     500,
		Page:     0,
	})
	if err != nil {
		t.Fatalf("list: %v", err)
	}

	if out.Size != 10 || out.Page != 1 {
		t.Fatalf("page/size = %d/%d, want 1/10", out.Page, out.Size)
	}
	if f.repo.lastFilter.Offset != 0 {
		t.Fatalf("offset = %d, want 0", f.repo.lastFilter.Offset)
	}

	want := []int16{int16(entity.LeadStatusNew), int16(entity.LeadStatusQualified)}
	got := f.repo.lastFilter.Statuses
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("statuses = %v, want %v with bogus dropped", got, want)
	}
	if !f.repo.lastFilter.IsFilterByStatus {
		t.Fatal("status filter flag must be set")
	}
}

func TestDetailMapsMissingLead(t *testing.T) {
	f := newLeadFixture(t)
	f.repo.leads[42] = entity.Lead{ID: 42, OwnerID: adminUserID, FullName: "Foreign"}

	// Exists, but belongs to someone else: same answer as missing.
	_, err := f.uc.Detail(asAgent(context.Background()), DetailInput{ID: 42})
	gErr := asGoError(t, err)
	if gErr.Code() != goerror.CodeNotFound || gErr.Msg() != "Lead not found" {
		t.Fatalf("foreign detail = %q (%v), want Lead not found", gErr.Msg(), gErr.Code())
	}

	f.repo.leads[7] = entity.Lead{ID: 7, OwnerID: agentUserID, FullName: "Mine"}
	out, err := f.uc.Detail(asAgent(context.Background()), DetailInput{ID: 7})
	if err != nil {
		t.Fatalf("own detail: %v", err)
	}
	if out.Lead.FullName != "Mine" {
		t.Fatalf("lead = %+v", out.Lead)
	}
}

func TestUpdateStatusMarksContactOnlyForContacted(t *testing.T) {
	f := newLeadFixture(t)
	f.repo.leads[7] = entity.Lead{ID: 7, OwnerID: agentUserID}

	if err := f.uc.UpdateStatus(asAgent(context.Background()), UpdateStatusInput{ID: 7, Status: "contacted"}); err != nil {
		t.Fatalf("contacted: %v", err)
	}
	if err := f.uc.UpdateStatus(asAgent(context.Background()), UpdateStatusInput{ID: 7, Status: "qualified"}); err != nil {
		t.Fatalf("qualified: %v", err)
	}

	if len(f.repo.statusCalls) != 2 {
		t.Fatalf("status calls = %d, want 2", len(f.repo.statusCalls))
	}
	first, second := f.repo.statusCalls[0], f.repo.statusCalls[1]
	if first.status != entity.LeadStatusContacted || !first.markContacted {
		t.Fatalf("first call = %+v, want contacted with stamp", first)
	}
	if second.status != entity.LeadStatusQualified || second.markContacted {
		t.Fatalf("second call = %+v, want qualified without stamp", second)
	}
	if first.ownerID != agentUserID {
		t.Fatalf("owner scope = %d, want %d", first.ownerID, agentUserID)
	}

	err := f.uc.UpdateStatus(asAgent(context.Background()), UpdateStatusInput{ID: 7, Status: "sideways"})
	if asGoError(t, err).Code() != goerror.CodeInvalidInput {
		t.Fatal("unknown status must fail validation")
	}
}

func TestDeleteScopesToOwner(t *testing.T) {
	f := newLeadFixture(t)
	f.repo.leads[42] = entity.Lead{ID: 42, OwnerID: adminUserID}

	err := f.uc.Delete(asAgent(context.Background()), DeleteInput{ID: 42})
	if asGoError(t, err).Code() != goerror.CodeNotFound {
		t.Fatal("foreign delete must read as not found")
	}

	if err := f.uc.Delete(asAdmin(context.Background()), DeleteInput{ID: 42}); err != nil {
		t.Fatalf("admin delete: %v", err)
	}
	last := f.repo.deletes[len(f.repo.deletes)-1]
	if last.ownerID != 0 {
		t.Fatalf("admin delete owner scope = %d, want unscoped", last.ownerID)
	}
}

func TestExportUploadsCSVAndPresigns(t *testing.T) {
	f := newLeadFixture(t)
	followUp := time.Date(2026, time.March, 9, 10, 0, 0, 0, time.UTC)
	f.repo.listPages = [][]entity.Lead{{
		{ID: 1, OwnerID: agentUserID, FullName: "Dana Prasetyo", Email: "dana@acme.test", Company: "Acme", Status: entity.LeadStatusNew, NextFollowUpAt: &followUp, CreatedAt: f.now},
		{ID: 2, OwnerID: agentUserID, FullName: "Eko Wijaya", Status: entity.LeadStatusQualified, CreatedAt: f.now},
	}}
	f.repo.listTotal = 2

	out, err := f.uc.Export(asAgent(context.Background()), ExportInput{})
	if err != nil {
		t.Fatalf("export: %v", err)
	}

	if out.RowCount != 2 {
		t.Fatalf("row count = %d, want 2", out.RowCount)
	}
	if !strings.HasPrefix(out.URL, "https://files.example.com/leadpipe-exports/exports/2026-03-05/") {
		t.Fatalf("url = %q, want a presigned link under the dated prefix", out.URL)
	}
	if !out.ExpiresAt.Equal(f.now.Add(time.Hour)) {
		t.Fatalf("expires_at = %v, want one hour out", out.ExpiresAt)
	}

	var data []byte
	for _, b := range f.storage.objects {
		data = b
	}
	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("csv rows = %d, want header plus 2", len(records))
	}
	if records[0][0] != "id" || records[1][2] != "Dana Prasetyo" || records[2][7] != "qualified" {
		t.Fatalf("unexpected csv contents: %v", records)
	}

	if len(f.storage.puts) != 1 || f.storage.puts[0].ContentType != "text/csv" {
		t.Fatalf("put options = %+v", f.storage.puts)
	}
	if f.storage.puts[0].Metadata["user_id"] != "11" {
		t.Fatalf("metadata = %v, want the caller's id", f.storage.puts[0].Metadata)
	}
}

func TestDashboardZeroFillsStatuses(t *testing.T) {
	f := newLeadFixture(t)
	f.repo.statusCounts = []entity.StatusCount{
		{Status: entity.LeadStatusNew, Count: 3},
		{Status: entity.LeadStatusLost, Count: 1},
	}
	f.repo.dueFollowUps = []entity.Lead{{ID: 1, OwnerID: agentUserID, FullName: "Dana"}}

	out, err := f.uc.Dashboard(asAgent(context.Background()))
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	if out.Total != 4 {
		t.Fatalf("total = %d, want 4", out.Total)
	}
	for _, status := range []string{"new", "contacted", "qualified", "converted", "lost"} {
		if _, ok := out.StatusCounts[status]; !ok {
			t.Fatalf("status %q missing from counts: %v", status, out.StatusCounts)
		}
	}
	if out.StatusCounts["contacted"] != 0 || out.StatusCounts["new"] != 3 {
		t.Fatalf("counts = %v", out.StatusCounts)
	}

	if f.repo.lastOwnerArg != agentUserID {
		t.Fatalf("counts owner scope = %d, want %d", f.repo.lastOwnerArg, agentUserID)
	}
	if got := f.repo.lastFilter.FollowUpTo.Sub(f.repo.lastFilter.FollowUpFrom); got != 7*24*time.Hour {
		t.Fatalf("follow-up window = %v, want 7 days", got)
	}
	if len(out.DueFollowUps) != 1 {
		t.Fatalf("due follow-ups = %+v", out.DueFollowUps)
	}
}
