package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/nursyahid/leadpipe/internal/identity/entity"
	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
)

func TestOtpVerifySuccessPromotesSessionOnce(t *testing.T) {
	f := newOtpFixture(t, "481935")
	ctx := context.Background()

	if _, err := f.uc.OtpIssue(ctx, OtpIssueInput{Email: testUserEmail}); err != nil {
		t.Fatalf("issue: %v", err)
	}

	out, err := f.uc.OtpVerify(ctx, OtpVerifyInput{Email: testUserEmail, Code: "481935"})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if out.AccessToken == "" || out.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", out)
	}

	tokens := f.db.storedRefreshTokens()
	if len(tokens) != 1 {
		t.Fatalf("stored %d refresh tokens, want 1", len(tokens))
	}
	if tokens[0].UserID != 101 {
		t.Fatalf("refresh token user = %d, want 101", tokens[0].UserID)
	}
	if !f.hmac.Verify(tokens[0].Token, out.RefreshToken) {
		t.Fatal("stored refresh token must be the hmac of the returned one")
	}

	if f.store.has(testUserEmail) {
		t.Fatal("record must be consumed on success")
	}

	// The code is single use: a replay answers like a missing record.
	_, err = f.uc.OtpVerify(ctx, OtpVerifyInput{Email: testUserEmail, Code: "481935"})
	gErr := asGoError(t, err)
	if gErr.Code() != goerror.CodeUnauthorized || gErr.Msg() != "invalid or expired code" {
		t.Fatalf("replay = %q (%v), want invalid or expired code", gErr.Msg(), gErr.Code())
	}
}

func TestOtpVerifyWrongThenRight(t *testing.T) {
	f := newOtpFixture(t, "481935")
	ctx := context.Background()

	if _, err := f.uc.OtpIssue(ctx, OtpIssueInput{Email: testUserEmail}); err != nil {
		t.Fatalf("issue: %v", err)
	}

	_, err := f.uc.OtpVerify(ctx, OtpVerifyInput{Email: testUserEmail, Code: "000000"})
	gErr := asGoError(t, err)
	if gErr.Code() != goerror.CodeUnauthorized || gErr.Msg() != "invalid code" {
		t.Fatalf("mismatch = %q (%v), want invalid code", gErr.Msg(), gErr.Code())
	}
	if got := gErr.Fields()["remaining_attempts"]; got != "4" {
		t.Fatalf("remaining_attempts = %q, want 4", got)
	}

	if _, err := f.uc.OtpVerify(ctx, OtpVerifyInput{Email: testUserEmail, Code: "481935"}); err != nil {
		t.Fatalf("a failed attempt must not block the right code: %v", err)
	}
}

func TestOtpVerifyExhaustsAttempts(t *testing.T) {
	f := newOtpFixture(t, "481935")
	ctx := context.Background()

	if _, err := f.uc.OtpIssue(ctx, OtpIssueInput{Email: testUserEmail}); err != nil {
		t.Fatalf("issue: %v", err)
	}

	for i := range 5 {
		_, err := f.uc.OtpVerify(ctx, OtpVerifyInput{Email: testUserEmail, Code: "000000"})
		gErr := asGoError(t, err)
		if gErr.Msg() != "invalid code" {
			t.Fatalf("attempt %d = %q, want invalid code", i+1, gErr.Msg())
		}
	}

	// Attempts are spent, so even the right code is refused and the
	// record is dropped.
	_, err := f.uc.OtpVerify(ctx, OtpVerifyInput{Email: testUserEmail, Code: "481935"})
	gErr := asGoError(t, err)
	if gErr.Code() != goerror.CodeTooManyRequest {
		t.Fatalf("exhausted code = %v, want too many requests", gErr.Code())
	}
	if f.store.has(testUserEmail) {
		t.Fatal("exhausted record must be deleted")
	}

	_, err = f.uc.OtpVerify(ctx, OtpVerifyInput{Email: testUserEmail, Code: "481935"})
	if asGoError(t, err).Msg() != "invalid or expired code" {
		t.Fatal("after deletion the email must look like it has no code")
	}
}

func TestOtpVerifyExpiredCode(t *testing.T) {
	f := newOtpFixture(t, "481935")
	ctx := context.Background()

	if _, err := f.uc.OtpIssue(ctx, OtpIssueInput{Email: testUserEmail}); err != nil {
		t.Fatalf("issue: %v", err)
	}

	f.clock.advance(10 * time.Minute)

	_, err := f.uc.OtpVerify(ctx, OtpVerifyInput{Email: testUserEmail, Code: "481935"})
	gErr := asGoError(t, err)
	if gErr.Code() != goerror.CodeUnauthorized || gErr.Msg() != "invalid or expired code" {
		t.Fatalf("expired = %q (%v), want invalid or expired code", gErr.Msg(), gErr.Code())
	}
	if f.store.has(testUserEmail) {
		t.Fatal("expired record must be deleted on sight")
	}
}

func TestOtpVerifyExpiryWinsOverExhaustion(t *testing.T) {
	f := newOtpFixture(t)
	ctx := context.Background()

	codeHash, err := f.hmac.Hash("481935")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := f.store.Save(ctx, entity.OtpRecord{
		Email:             testUserEmail,
		CodeHash:          string(codeHash),
		ExpiresAt:         f.clock.Now().Add(-time.Minute),
		RemainingAttempts: 0,
	}, time.Minute); err != nil {
		t.Fatalf("save: %v", err)
	}

	_, err = f.uc.OtpVerify(ctx, OtpVerifyInput{Email: testUserEmail, Code: "481935"})
	if asGoError(t, err).Msg() != "invalid or expired code" {
		t.Fatal("an expired record must answer as expired even with zero attempts left")
	}
}

func TestOtpVerifyReissueInvalidatesPriorCode(t *testing.T) {
	f := newOtpFixture(t, "111111", "222222")
	ctx := context.Background()

	if _, err := f.uc.OtpIssue(ctx, OtpIssueInput{Email: testUserEmail}); err != nil {
		t.Fatalf("first issue: %v", err)
	}
	if _, err := f.uc.OtpIssue(ctx, OtpIssueInput{Email: testUserEmail}); err != nil {
		t.Fatalf("second issue: %v", err)
	}

	_, err := f.uc.OtpVerify(ctx, OtpVerifyInput{Email: testUserEmail, Code: "111111"})
	gErr := asGoError(t, err)
	if gErr.Msg() != "invalid code" || gErr.Fields()["remaining_attempts"] != "4" {
		t.Fatalf("stale code = %q %v, want invalid code with 4 attempts left", gErr.Msg(), gErr.Fields())
	}

	if _, err := f.uc.OtpVerify(ctx, OtpVerifyInput{Email: testUserEmail, Code: "222222"}); err != nil {
		t.Fatalf("latest code must verify: %v", err)
	}
}

func TestOtpVerifyRefusesIneligibleAccount(t *testing.T) {
	f := newOtpFixture(t, "481935")
	ctx := context.Background()

	if _, err := f.uc.OtpIssue(ctx, OtpIssueInput{Email: testUserEmail}); err != nil {
		t.Fatalf("issue: %v", err)
	}
	f.db.users[testUserEmail].Status = entity.UserStatusBanned

	_, err := f.uc.OtpVerify(ctx, OtpVerifyInput{Email: testUserEmail, Code: "481935"})
	if asGoError(t, err).Code() != goerror.CodeForbidden {
		t.Fatalf("banned account = %v, want forbidden", asGoError(t, err).Code())
	}
}

func TestOtpVerifyRejectsMalformedInput(t *testing.T) {
	f := newOtpFixture(t, "481935")
	ctx := context.Background()

	if _, err := f.uc.OtpIssue(ctx, OtpIssueInput{Email: testUserEmail}); err != nil {
		t.Fatalf("issue: %v", err)
	}

	for _, code := range []string{"48a935", "123", "4819350"} {
		_, err := f.uc.OtpVerify(ctx, OtpVerifyInput{Email: testUserEmail, Code: code})
		if asGoError(t, err).Code() != goerror.CodeInvalidInput {
			t.Fatalf("code %q must fail validation, got %v", code, asGoError(t, err).Code())
		}
	}

	// Shape failures never reach the store, so no attempt is spent.
	if got := f.store.record(t, testUserEmail).RemainingAttempts; got != 5 {
		t.Fatalf("remaining attempts = %d, want 5", got)
	}
}
