package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nursyahid/leadpipe/internal/notification/entity"
	"github.com/nursyahid/leadpipe/internal/pkg/idempotency"
)

type ConsumeUserRegisteredInput struct {
	UserID   int64  `validate:"required,gt=0"`
	Email    string `validate:"required,email"`
	FullName string `validate:"required,min=3,max=100"`
}

// ConsumeUserRegistered emails the welcome message for a new account.
func (s *Usecase) ConsumeUserRegistered(ctx context.Context, in ConsumeUserRegisteredInput) error {
	ctx, span := s.startSpan(ctx, "ConsumeUserRegistered")
	defer span.End()

	if err := s.validator.Validate(in); err != nil {
		slog.ErrorContext(ctx, "invalid user registered payload", "user_id", in.UserID, "error", err)
		return nil
	}

	key := fmt.Sprintf("user_registered:%d", in.UserID)
	err := s.idempotency.Exec(ctx, key, func(ctx context.Context) error {
		body, err := s.renderTemplate(welcomeEmailTemplate, map[string]any{
			"app_name":  s.cfg.GetString("app.name"),
			"full_name": in.FullName,
			"web_url":   s.cfg.GetString("app.web"),
		})
		if err != nil {
			return err
		}

		s.deliverEmail(ctx, emailDeliveryInput{
			UserID:   in.UserID,
			Email:    in.Email,
			Template: entity.TemplateWelcome,
			Subject:  "Welcome to " + s.cfg.GetString("app.name"),
			HTMLBody: body,
		})
		return nil
	}, idempotency.WithStateTTL(24*time.Hour))
	if err != nil {
		slog.WarnContext(ctx, "skipped duplicate user registered event", "user_id", in.UserID, "error", err)
	}

	return nil
}
