package mq

import (
	"context"
	"encoding/json"

	"github.com/nursyahid/leadpipe/internal/identity/usecase"
	"github.com/nursyahid/leadpipe/internal/pkg/instrument"
	"github.com/nursyahid/leadpipe/internal/pkg/messaging"
	"github.com/nursyahid/leadpipe/internal/shared/event"
	"go.opentelemetry.io/otel/codes"
)

const keyOfCorrelationID string = "cID"

type Messaging struct {
	client messaging.Messaging
	ins    instrument.Instrumentation
}

func NewMessaging(client messaging.Messaging, ins instrument.Instrumentation) *Messaging {
	return &Messaging{client: client, ins: ins}
}

func (m *Messaging) publish(ctx context.Context, spanName, destination string, payload any) error {
	ctx, span := m.ins.Tracer("identity.outbound.mq").Start(ctx, spanName)
	defer span.End()

	body, err := json.Marshal(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	cID := instrument.GetCorrelationID(ctx)
	if _, err := m.client.Publish(ctx, destination, messaging.OutgoingMessage{
		Body:    body,
		Headers: []messaging.Header{{Key: keyOfCorrelationID, Value: []byte(cID)}},
	}); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	return nil
}

func (m *Messaging) PublishOtpIssued(ctx context.Context, msg usecase.OtpIssuedEvent) error {
	return m.publish(ctx, "PublishOtpIssued", event.OtpIssuedDestination, event.OtpIssuedMessage{
		UserID:    msg.UserID,
		Email:     msg.Email,
		Code:      msg.Code,
		ExpiresAt: msg.ExpiresAt.UnixMilli(),
	})
}

func (m *Messaging) PublishUserRegistered(ctx context.Context, msg usecase.UserRegisteredEvent) error {
	return m.publish(ctx, "PublishUserRegistered", event.UserRegisteredDestination, event.UserRegisteredMessage{
		UserID:   msg.UserID,
		Email:    msg.Email,
		FullName: msg.FullName,
	})
}
