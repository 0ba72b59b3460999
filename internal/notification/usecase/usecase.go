// Package usecase turns consumed events into rendered, delivered, and
// logged emails.
package usecase

import (
	"bytes"
	"context"
	"html/template"
	"log/slog"
	"time"

	"github.com/nursyahid/leadpipe/internal/notification/entity"
	"github.com/nursyahid/leadpipe/internal/pkg/clock"
	"github.com/nursyahid/leadpipe/internal/pkg/config"
	"github.com/nursyahid/leadpipe/internal/pkg/idempotency"
	"github.com/nursyahid/leadpipe/internal/pkg/instrument"
	"github.com/nursyahid/leadpipe/internal/pkg/mail"
	"github.com/nursyahid/leadpipe/internal/pkg/uid"
	"github.com/nursyahid/leadpipe/internal/pkg/validator"
	"github.com/sethvargo/go-retry"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/atomic"
)

type repoDB interface {
	CreateDeliveryLog(ctx context.Context, in entity.CreateDeliveryLog) error
	UpdateDeliveryLog(ctx context.Context, in entity.UpdateDeliveryLog) error
}

type repoMail interface {
	Send(ctx context.Context, msg mail.Message) error
}

type Usecase struct {
	repoDB      repoDB
	repoMail    repoMail
	idempotency idempotency.Idempotency
	validator   validator.Validator
	cfg         config.Config
	uid         uid.NumberID
	clock       clock.Clocker
	ins         instrument.Instrumentation

	sentCount   atomic.Int64
	failedCount atomic.Int64
}

type Dependency struct {
	RepoDB      repoDB
	RepoMail    repoMail
	Idempotency idempotency.Idempotency
	Validator   validator.Validator
	Config      config.Config
	UID         uid.NumberID
	Clock       clock.Clocker
	Instrument  instrument.Instrumentation
}

func New(dep Dependency) *Usecase {
	return &Usecase{
		repoDB:      dep.RepoDB,
		repoMail:    dep.RepoMail,
		idempotency: dep.Idempotency,
		validator:   dep.Validator,
		cfg:         dep.Config,
		uid:         dep.UID,
		clock:       dep.Clock,
		ins:         dep.Instrument,
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("notification.usecase").Start(ctx, name)
}

func (s *Usecase) renderTemplate(tpl *template.Template, data map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

type emailDeliveryInput struct {
	UserID   int64
	Email    string
	Template entity.Template
	Subject  string
	HTMLBody string
}

// deliverEmail writes the queued delivery row, sends with bounded
// retry, and records the outcome. Send failure never propagates; the
// event was already accepted once the broker handed it over.
func (s *Usecase) deliverEmail(ctx context.Context, in emailDeliveryInput) {
	logID := s.uid.Generate()
	if err := s.repoDB.CreateDeliveryLog(ctx, entity.CreateDeliveryLog{
		ID:        logID,
		UserID:    in.UserID,
		Recipient: in.Email,
		Template:  in.Template,
		Subject:   in.Subject,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to repo create delivery log", "user_id", in.UserID, "template", in.Template.String(), "error", err)
		return
	}

	maxRetries := uint64(s.cfg.GetInt64("modules.notification.max_send_retries"))
	backoff := retry.WithMaxRetries(maxRetries, retry.NewExponential(500*time.Millisecond))

	var attempts int32
	sendErr := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		if err := s.repoMail.Send(ctx, mail.Message{
			To:       []string{in.Email},
			Subject:  in.Subject,
			HTMLBody: in.HTMLBody,
		}); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})

	up := entity.UpdateDeliveryLog{ID: logID, Status: entity.DeliveryStatusSent, Attempts: attempts}
	if sendErr != nil {
		up.Status = entity.DeliveryStatusFailed
		up.ProviderResponse = sendErr.Error()
		s.failedCount.Inc()
		slog.ErrorContext(ctx, "failed to send email",
			"log_id", logID, "user_id", in.UserID, "template", in.Template.String(),
			"attempts", attempts, "failed_total", s.failedCount.Load(), "error", sendErr)
	} else {
		s.sentCount.Inc()
		slog.InfoContext(ctx, "email sent",
			"log_id", logID, "user_id", in.UserID, "template", in.Template.String(),
			"attempts", attempts, "sent_total", s.sentCount.Load())
	}

	if err := s.repoDB.UpdateDeliveryLog(ctx, up); err != nil {
		slog.ErrorContext(ctx, "failed to repo update delivery log", "log_id", logID, "error", err)
	}
}
