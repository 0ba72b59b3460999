package inbound

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nursyahid/leadpipe/internal/notification/usecase"
	"github.com/nursyahid/leadpipe/internal/pkg/instrument"
	"github.com/nursyahid/leadpipe/internal/pkg/messaging"
	"github.com/nursyahid/leadpipe/internal/pkg/uid"
	"github.com/nursyahid/leadpipe/internal/shared/event"
)

const keyOfCorrelationID string = "cID"

type MQHandler struct {
	uc   uc
	uuid uid.StringID
	ins  instrument.Instrumentation
}

func (h *MQHandler) ensureCorrelationID(ctx context.Context, headers []messaging.Header) context.Context {
	for i := range headers {
		if headers[i].Key == keyOfCorrelationID {
			return instrument.SetCorrelationID(ctx, string(headers[i].Value))
		}
	}
	return instrument.SetCorrelationID(ctx, h.uuid.Generate())
}

func (h *MQHandler) OtpIssuedNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "OtpIssuedNotification")
	defer span.End()

	var payload event.OtpIssuedMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		// a body that never parses would redeliver forever
		slog.ErrorContext(ctx, "failed to parse otp issued message body", "error", err)
		return nil
	}

	slog.InfoContext(ctx, "consume: otp issued notification", "user_id", payload.UserID)

	if err := h.uc.ConsumeOtpIssued(ctx, usecase.ConsumeOtpIssuedInput{
		UserID:    payload.UserID,
		Email:     payload.Email,
		Code:      payload.Code,
		ExpiresAt: time.UnixMilli(payload.ExpiresAt),
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume otp issued", "user_id", payload.UserID, "error", err)
		return err
	}

	return nil
}

func (h *MQHandler) UserRegisteredNotification(ctx context.Context, msg messaging.Message) error {
	ctx = h.ensureCorrelationID(ctx, msg.Headers())

	ctx, span := h.ins.Tracer("notification.inbound.mq").Start(ctx, "UserRegisteredNotification")
	defer span.End()

	var payload event.UserRegisteredMessage
	if err := json.Unmarshal(msg.Body(), &payload); err != nil {
		slog.ErrorContext(ctx, "failed to parse user registered message body", "error", err)
		return nil
	}

	slog.InfoContext(ctx, "consume: user registered notification", "user_id", payload.UserID)

	if err := h.uc.ConsumeUserRegistered(ctx, usecase.ConsumeUserRegisteredInput{
		UserID:   payload.UserID,
		Email:    payload.Email,
		FullName: payload.FullName,
	}); err != nil {
		slog.ErrorContext(ctx, "failed to consume user registered", "user_id", payload.UserID, "error", err)
		return err
	}

	return nil
}
