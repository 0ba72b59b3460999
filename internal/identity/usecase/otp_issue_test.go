package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/nursyahid/leadpipe/internal/identity/entity"
	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
)

func TestOtpIssueStoresCodeAndPublishes(t *testing.T) {
	f := newOtpFixture(t, "481935")

	out, err := f.uc.OtpIssue(context.Background(), OtpIssueInput{Email: "Agent@Example.com "})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	wantExpiry := f.clock.Now().Add(10 * time.Minute)
	if !out.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("expires_at = %v, want %v", out.ExpiresAt, wantExpiry)
	}

	rec := f.store.record(t, testUserEmail)
	if rec.RemainingAttempts != 5 {
		t.Fatalf("remaining attempts = %d, want 5", rec.RemainingAttempts)
	}
	if !f.hmac.Verify(rec.CodeHash, "481935") {
		t.Fatal("stored hash does not match the generated code")
	}
	if !rec.ExpiresAt.Equal(wantExpiry) {
		t.Fatalf("stored expires_at = %v, want %v", rec.ExpiresAt, wantExpiry)
	}

	f.waitDispatch(t)

	events := f.mq.otpIssuedEvents()
	if len(events) != 1 {
		t.Fatalf("published %d events, want 1", len(events))
	}
	if events[0].UserID != 101 || events[0].Email != testUserEmail || events[0].Code != "481935" {
		t.Fatalf("unexpected event payload: %+v", events[0])
	}
}

func TestOtpIssueUnknownEmailDoesNotLeak(t *testing.T) {
	f := newOtpFixture(t, "481935")

	out, err := f.uc.OtpIssue(context.Background(), OtpIssueInput{Email: "nobody@example.com"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !out.ExpiresAt.Equal(f.clock.Now().Add(10 * time.Minute)) {
		t.Fatal("unknown email must get the same expires_at as a known one")
	}

	if f.store.has("nobody@example.com") {
		t.Fatal("no record may be written for an unknown email")
	}

	f.waitDispatch(t)
	if got := len(f.mq.otpIssuedEvents()); got != 0 {
		t.Fatalf("published %d events for unknown email, want 0", got)
	}
}

func TestOtpIssueIneligibleAccountDoesNotLeak(t *testing.T) {
	f := newOtpFixture(t, "481935")
	f.db.users[testUserEmail].Status = entity.UserStatusBanned

	out, err := f.uc.OtpIssue(context.Background(), OtpIssueInput{Email: testUserEmail})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if out.ExpiresAt.IsZero() {
		t.Fatal("expected a plausible expires_at for an ineligible account")
	}
	if f.store.has(testUserEmail) {
		t.Fatal("no record may be written for a banned account")
	}
}

func TestOtpIssueTwoFactorDisabledDoesNotLeak(t *testing.T) {
	f := newOtpFixture(t, "481935")
	f.db.users[testUserEmail].TwoFactorEnabled = false

	out, err := f.uc.OtpIssue(context.Background(), OtpIssueInput{Email: testUserEmail})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if !out.ExpiresAt.Equal(f.clock.Now().Add(10 * time.Minute)) {
		t.Fatal("account without 2fa must get the same expires_at as an eligible one")
	}

	// No code means OtpVerify can never mint a session for this account.
	if f.store.has(testUserEmail) {
		t.Fatal("no record may be written for an account without 2fa")
	}

	f.waitDispatch(t)
	if got := len(f.mq.otpIssuedEvents()); got != 0 {
		t.Fatalf("published %d events for an account without 2fa, want 0", got)
	}
}

func TestOtpIssueReplacesPriorCode(t *testing.T) {
	f := newOtpFixture(t, "111111", "222222")
	ctx := context.Background()

	if _, err := f.uc.OtpIssue(ctx, OtpIssueInput{Email: testUserEmail}); err != nil {
		t.Fatalf("first issue: %v", err)
	}
	if _, err := f.store.Decrement(ctx, testUserEmail); err != nil {
		t.Fatalf("decrement: %v", err)
	}

	if _, err := f.uc.OtpIssue(ctx, OtpIssueInput{Email: testUserEmail}); err != nil {
		t.Fatalf("second issue: %v", err)
	}

	rec := f.store.record(t, testUserEmail)
	if f.hmac.Verify(rec.CodeHash, "111111") {
		t.Fatal("prior code must be invalidated by re-issue")
	}
	if !f.hmac.Verify(rec.CodeHash, "222222") {
		t.Fatal("latest code must be the stored one")
	}
	if rec.RemainingAttempts != 5 {
		t.Fatalf("re-issue must reset attempts, got %d", rec.RemainingAttempts)
	}
}

func TestOtpIssueRejectsInvalidEmail(t *testing.T) {
	f := newOtpFixture(t)

	_, err := f.uc.OtpIssue(context.Background(), OtpIssueInput{Email: "not-an-email"})
	gErr := asGoError(t, err)
	if gErr.Code() != goerror.CodeInvalidInput {
		t.Fatalf("code = %v, want invalid input", gErr.Code())
	}
}
