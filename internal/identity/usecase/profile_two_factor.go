package usecase

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
	"github.com/nursyahid/leadpipe/internal/pkg/jwt"
)

type ProfileTwoFactorInput struct {
	Enabled bool
}

// ProfileTwoFactor turns email-OTP two-factor login on or off for the
// current user. Disabling also drops any outstanding one-time code so
// a stale code cannot be used later.
func (s *Usecase) ProfileTwoFactor(ctx context.Context, in ProfileTwoFactorInput) error {
	ctx, span := s.startSpan(ctx, "ProfileTwoFactor")
	defer span.End()

	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	user, err := s.repoDB.GetUserByID(ctx, clm.UserID)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "user account not found", "user_id", clm.UserID)
		return goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by id", "user_id", clm.UserID, "error", err)
		return goerror.NewServer(err)
	}

	if user.TwoFactorEnabled == in.Enabled {
		return nil
	}

	if err := s.repoDB.UpdateUserTwoFactor(ctx, user.ID, in.Enabled); err != nil {
		slog.ErrorContext(ctx, "failed to repo update user two-factor flag", "user_id", user.ID, "error", err)
		return goerror.NewServer(err)
	}

	if !in.Enabled {
		if err := s.otpStore.Delete(ctx, user.Email); err != nil {
			slog.ErrorContext(ctx, "failed to delete otp record", "user_id", user.ID, "error", err)
		}
	}

	return nil
}
