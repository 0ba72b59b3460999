package usecase

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nursyahid/leadpipe/internal/identity/entity"
	"github.com/nursyahid/leadpipe/internal/pkg/goerror"
)

type OtpIssueInput struct {
	Email string `validate:"required,email"`
}

type OtpIssueOutput struct {
	ExpiresAt time.Time
}

// OtpIssue generates a fresh one-time code for the email and stores it,
// replacing any code issued earlier for the same address. The response
// never reveals whether the email belongs to an account: unknown or
// ineligible addresses get the same expires_at with no record written.
func (s *Usecase) OtpIssue(ctx context.Context, in OtpIssueInput) (*OtpIssueOutput, error) {
	ctx, span := s.startSpan(ctx, "OtpIssue")
	defer span.End()

	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	if err := s.validator.Validate(in); err != nil {
		return nil, goerror.NewInvalidInput(err)
	}

	ttl := s.cfg.GetMinute("modules.identity.otp_ttl_minutes")
	expiresAt := s.clock.Now().Add(ttl)

	user, err := s.repoDB.GetUserByEmail(ctx, in.Email)
	if errors.Is(err, goerror.ErrNotFound) {
		slog.WarnContext(ctx, "otp requested for unknown email", "email", in.Email)
		return &OtpIssueOutput{ExpiresAt: expiresAt}, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to repo get user by email", "email", in.Email, "error", err)
		return nil, goerror.NewServer(err)
	}

	// Accounts that never opted into email 2FA must not be reachable
	// through the code path, or mailbox access alone would log them in.
	if user.Status.Ensure() != entity.UserStatusActive || !user.TwoFactorEnabled {
		slog.WarnContext(ctx, "otp requested for ineligible account", "user_id", user.ID)
		return &OtpIssueOutput{ExpiresAt: expiresAt}, nil
	}

	code, err := s.codegen.Generate()
	if err != nil {
		slog.ErrorContext(ctx, "failed to generate otp code", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	codeHash, err := s.hmac.Hash(code)
	if err != nil {
		slog.ErrorContext(ctx, "failed to hash otp code", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	if err := s.otpStore.Save(ctx, entity.OtpRecord{
		Email:             in.Email,
		CodeHash:          string(codeHash),
		ExpiresAt:         expiresAt,
		RemainingAttempts: s.cfg.GetInt64("modules.identity.otp_max_attempts"),
	}, ttl); err != nil {
		slog.ErrorContext(ctx, "failed to save otp record", "user_id", user.ID, "error", err)
		return nil, goerror.NewServer(err)
	}

	// Dispatch must not delay or fail the request; a publish failure is
	// only logged and the code stays verifiable.
	dispatchCtx := context.WithoutCancel(ctx)
	s.goroutine.Go(dispatchCtx, func(ctx context.Context) error {
		if err := s.repoMessaging.PublishOtpIssued(ctx, OtpIssuedEvent{
			UserID:    user.ID,
			Email:     user.Email,
			Code:      code,
			ExpiresAt: expiresAt,
		}); err != nil {
			slog.ErrorContext(ctx, "failed to publish otp issued event", "user_id", user.ID, "error", err)
		}
		return nil
	})

	return &OtpIssueOutput{ExpiresAt: expiresAt}, nil
}
