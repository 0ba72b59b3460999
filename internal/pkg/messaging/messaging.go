// Package messaging provides a broker-agnostic publish/consume client
// with NSQ, NATS, Kafka, and Google Pub/Sub implementations.
package messaging

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrUnsupported is returned when the selected broker cannot perform
// the requested feature (for example delayed delivery).
var ErrUnsupported = errors.New("pkgmessage: unsupported operation")

// Messaging publishes and consumes messages through one broker.
type Messaging interface {
	io.Closer

	Publisher
	Consumer
}

// Publisher sends messages to a destination (topic/subject/queue).
type Publisher interface {
	Publish(ctx context.Context, destination string, msg OutgoingMessage) (PublishResult, error)
}

// Consumer receives messages from a source (topic/subject/subscription).
type Consumer interface {
	Consume(ctx context.Context, source string, handler Handler, opts ...ConsumeOption) error
}

// Handler processes a received message. Whether a returned error acks,
// nacks, or leaves the message unacked depends on the consume options.
type Handler func(ctx context.Context, msg Message) error

// OutgoingMessage is a broker-agnostic message to publish.
type OutgoingMessage struct {
	// Body is the message payload.
	Body []byte

	// Key is used by Kafka for partitioning.
	Key []byte

	// Headers carry binary values and allow duplicate keys.
	Headers []Header

	// Attributes serve brokers that model string attributes (Pub/Sub).
	Attributes map[string]string

	// OrderingKey is used by Google Pub/Sub.
	OrderingKey string

	// Delay defers delivery where the broker supports it.
	Delay time.Duration
}

// Header is a message header key/value pair.
type Header struct {
	Key   string
	Value []byte
}

// PublishResult carries broker-specific publish metadata.
type PublishResult struct {
	// MessageID is the broker-assigned message ID.
	MessageID string

	// Topic is the topic used for publishing.
	Topic string

	// Timestamp is when the broker accepted the message.
	Timestamp time.Time
}

// Message is a broker-agnostic received message.
type Message interface {
	// Body returns the message payload.
	Body() []byte
	// Key returns the message key, when the broker has one.
	Key() []byte
	// Headers returns message headers.
	Headers() []Header
	// Attributes returns broker string attributes.
	Attributes() map[string]string

	// ID returns the broker message ID.
	ID() string
	// Topic returns the topic name when applicable.
	Topic() string
	// Subject returns the subject name when applicable.
	Subject() string
	// Timestamp returns the broker timestamp.
	Timestamp() time.Time

	// Ack acknowledges successful processing.
	Ack(ctx context.Context) error
}

// Nackable can request redelivery of a message.
type Nackable interface {
	Nack(ctx context.Context) error
}
