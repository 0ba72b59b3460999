package usecase

import (
	"context"
	"testing"

	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
)

func (f *otpFixture) setPassword(t *testing.T, email, plaintext string) {
	t.Helper()
	hashed, err := f.password.Hash(plaintext)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	f.db.passwords[email] = string(hashed)
}

func TestLoginWithTwoFactorDefersToOtp(t *testing.T) {
	f := newOtpFixture(t)
	f.setPassword(t, testUserEmail, "s3cret-pass")

	out, err := f.uc.Login(context.Background(), LoginInput{Email: testUserEmail, Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !out.OtpRequired {
		t.Fatal("2fa account must require the otp step")
	}
	if out.AccessToken != "" || out.RefreshToken != "" {
		t.Fatalf("no tokens before otp verification, got %+v", out)
	}
	if got := len(f.db.storedRefreshTokens()); got != 0 {
		t.Fatalf("stored %d refresh tokens before otp verification, want 0", got)
	}
}

func TestLoginWithoutTwoFactorIssuesSession(t *testing.T) {
	f := newOtpFixture(t)
	f.setPassword(t, testUserEmail, "s3cret-pass")
	f.db.users[testUserEmail].TwoFactorEnabled = false

	out, err := f.uc.Login(context.Background(), LoginInput{Email: testUserEmail, Password: "s3cret-pass"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if out.OtpRequired {
		t.Fatal("plain account must not require otp")
	}
	if out.AccessToken == "" || out.RefreshToken == "" {
		t.Fatalf("expected tokens, got %+v", out)
	}
}

func TestLoginBadCredentialsAreIndistinguishable(t *testing.T) {
	f := newOtpFixture(t)
	f.setPassword(t, testUserEmail, "s3cret-pass")

	_, err := f.uc.Login(context.Background(), LoginInput{Email: testUserEmail, Password: "wrong"})
	wrongPass := asGoError(t, err)

	_, err = f.uc.Login(context.Background(), LoginInput{Email: "nobody@example.com", Password: "wrong"})
	unknown := asGoError(t, err)

	if wrongPass.Code() != goerror.CodeUnauthorized || unknown.Code() != goerror.CodeUnauthorized {
		t.Fatalf("codes = %v / %v, want unauthorized for both", wrongPass.Code(), unknown.Code())
	}
	if wrongPass.Msg() != unknown.Msg() {
		t.Fatalf("messages differ (%q vs %q), leaking account existence", wrongPass.Msg(), unknown.Msg())
	}
}
