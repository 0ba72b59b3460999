package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"

	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
)

const msgInvalidOrExpiredCode = "invalid or expired code"

type OtpVerifyInput struct {
	Email string `validate:"required,email"`
	Code  string `validate:"required,len=6,numeric"`
}

type OtpVerifyOutput struct {
	AccessToken  string
	RefreshToken string
}

// OtpVerify checks the submitted code against the stored record and,
// on success, promotes the login into a full session. Preconditions
// are checked in a fixed order: missing record, then expiry, then
// exhausted attempts, then code mismatch. A missing and an expired
// record answer with the same message so the two are
// indistinguishable to the caller.
func (s *Usecase) OtpVerify(ctx context.Context, in OtpVerifyInput) (*OtpVerifyOutput, error) {
	ctx, span := s.startSpan(ctx, "OtpVerify")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	rec, err := s.otpStore.Get(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp record not found", "email", in.Email)
		return nil, goerror.NewBusiness(msgInvalidOrExpiredCode, goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to get otp record", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if !s.clock.Now().Before(rec.ExpiresAt) {
		if err := s.otpStore.Delete(ctx, in.Email); err != nil {
			slog.ErrorContext(ctx, "failed to delete expired otp record", "email", in.Email, "error", err)
		}
		slog.WarnContext(ctx, "otp record is expired", "email", in.Email)
		return nil, goerror.NewBusiness(msgInvalidOrExpiredCode, goerror.CodeUnauthorized)
	}

	if rec.RemainingAttempts <= 0 {
		if err := s.otpStore.Delete(ctx, in.Email); err != nil {
			slog.ErrorContext(ctx, "failed to delete exhausted otp record", "email", in.Email, "error", err)
		}
		slog.WarnContext(ctx, "otp attempts exhausted", "email", in.Email)
		return nil, goerror.NewBusiness("too many failed attempts, request a new code", goerror.CodeTooManyRequest)
	}

	if !s.hmac.Verify(rec.CodeHash, in.Code) {
		remaining, err := s.otpStore.Decrement(ctx, in.Email)
		if err != nil {
			slog.ErrorContext(ctx, "failed to decrement otp attempts", "email", in.Email, "error", err)
			remaining = rec.RemainingAttempts - 1
		}

		slog.WarnContext(ctx, "otp code mismatch", "email", in.Email, "remaining_attempts", remaining)
		if remaining > 0 {
			return nil, goerror.NewBusinessFields("invalid code", goerror.CodeUnauthorized,
				"remaining_attempts", strconv.FormatInt(remaining, 10))
		}
		return nil, goerror.NewBusiness("invalid code", goerror.CodeUnauthorized)
	}

	if err := s.otpStore.Delete(ctx, in.Email); err != nil {
		slog.ErrorContext(ctx, "failed to delete consumed otp record", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	user, err := s.repoDB.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp verified for unknown email", "email", in.Email)
		return nil, goerror.NewBusiness(msgInvalidOrExpiredCode, goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.ensureUserStatusAllowed(ctx, user.ID, user.Status); err != nil {
		return nil, err
	}

	accessToken, refreshToken, err := s.issueSession(ctx, user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &OtpVerifyOutput{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
