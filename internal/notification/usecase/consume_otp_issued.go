package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/nursyahid/leadpipe/internal/notification/entity"
	"github.com/nursyahid/leadpipe/internal/pkg/idempotency"
)

type ConsumeOtpIssuedInput struct {
	UserID    int64  `validate:"required,gt=0"`
	Email     string `validate:"required,email"`
	Code      string `validate:"required,numeric"`
	ExpiresAt time.Time
}

// ConsumeOtpIssued emails the one-time login code. Redelivered events
// are deduplicated on user id + code expiry, so a broker retry does not
// send the same code twice.
func (s *Usecase) ConsumeOtpIssued(ctx context.Context, in ConsumeOtpIssuedInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeOtpIssued")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "invalid otp issued payload", "user_id", in.UserID, "error", err)
		return nil
	}

	expiresIn := in.ExpiresAt.Sub(s.clock.Now())
	if expiresIn <= 0 {
		slog.WarnContext(ctx, "otp already expired, skipping email", "user_id", in.UserID)
		return nil
	}

	key := fmt.Sprintf("otp_issued:%d:%d", in.UserID, in.ExpiresAt.UnixMilli())
	err := s.idempotency.Exec(ctx, key, func(ctx context.Context) error {
		body, err := s.renderTemplate(otpEmailTemplate, map[string]any{
			"app_name":           s.cfg.GetString("app.name"),
			"code":               in.Code,
			"expires_in_minutes": int(math.Ceil(expiresIn.Minutes())),
		})
		if err != nil {
			return err
		}

		s.deliverEmail(ctx, emailDeliveryInput{
			UserID:   in.UserID,
			Email:    in.Email,
			Template: entity.TemplateOtpCode,
			Subject:  "Your login code",
			HTMLBody: body,
		})
		return nil
	}, idempotency.WithStateTTL(expiresIn))
	if err != nil {
		slog.WarnContext(ctx, "skipped duplicate otp issued event", "user_id", in.UserID, "error", err)
	}

	return nil
}
