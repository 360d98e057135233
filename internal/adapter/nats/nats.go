// Package nats implements the message queue port using NATS JetStream.
package nats

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/Strob0t/ilmihal/internal/adapter/natskv"
	"github.com/Strob0t/ilmihal/internal/logger"
	"github.com/Strob0t/ilmihal/internal/port/messagequeue"
)

const (
	streamName       = "ILMIHAL"
	headerRequestID  = "X-Request-ID"
	headerRetryCount = "Retry-Count"
	maxRetries       = 3
	retryDelay       = time.Second
	dlqSuffix        = ".dlq"
)

// Queue implements messagequeue.Queue using NATS JetStream.
type Queue struct {
	nc *nats.Conn
	js jetstream.JetStream
}

// Connect establishes a connection to NATS and ensures the JetStream stream exists.
func Connect(ctx context.Context, url string) (*Queue, error) {
	nc, err := nats.Connect(url,
		nats.Name("ilmihal"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				slog.Warn("nats disconnected", "error", err)
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			slog.Info("nats reconnected", "url", c.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream init: %w", err)
	}

	_, err = js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:     streamName,
		Subjects: []string{"messages.>", "content.>"},
		MaxAge:   7 * 24 * time.Hour,
	})
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream stream create: %w", err)
	}

	slog.Info("nats connected", "url", url, "stream", streamName)
	return &Queue{nc: nc, js: js}, nil
}

// Publish validates data against the subject schema and sends it. The
// request ID from ctx travels as a header.
func (q *Queue) Publish(ctx context.Context, subject string, data []byte) error {
	if err := messagequeue.Validate(subject, data); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	msg := &nats.Msg{Subject: subject, Data: data, Header: nats.Header{}}
	if id := logger.RequestID(ctx); id != "" {
		msg.Header.Set(headerRequestID, id)
	}
	if _, err := q.js.PublishMsg(ctx, msg); err != nil {
		return fmt.Errorf("nats publish %s: %w", subject, err)
	}
	return nil
}

// Subscribe registers handler for new messages on subject. Every caller
// gets its own consumer, so each subscribed instance sees every message.
// Messages that fail validation, or whose handler fails maxRetries times,
// are moved to subject+".dlq".
func (q *Queue) Subscribe(ctx context.Context, subject string, handler messagequeue.Handler) (func(), error) {
	return q.consume(ctx, jetstream.ConsumerConfig{
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	}, handler)
}

// SubscribeShared registers handler on the durable consumer named group.
// Instances using the same group split the messages between them, and
// messages published while none is running are delivered on restart.
func (q *Queue) SubscribeShared(ctx context.Context, subject, group string, handler messagequeue.Handler) (func(), error) {
	return q.consume(ctx, jetstream.ConsumerConfig{
		Durable:       group,
		FilterSubject: subject,
		AckPolicy:     jetstream.AckExplicitPolicy,
		DeliverPolicy: jetstream.DeliverNewPolicy,
	}, handler)
}

func (q *Queue) consume(ctx context.Context, cfg jetstream.ConsumerConfig, handler messagequeue.Handler) (func(), error) {
	consumer, err := q.js.CreateOrUpdateConsumer(ctx, streamName, cfg)
	if err != nil {
		return nil, fmt.Errorf("nats consumer create: %w", err)
	}

	cons, err := consumer.Consume(func(msg jetstream.Msg) {
		q.handle(msg, handler)
	})
	if err != nil {
		return nil, fmt.Errorf("nats consume: %w", err)
	}

	return cons.Stop, nil
}

func (q *Queue) handle(msg jetstream.Msg, handler messagequeue.Handler) {
	ctx := context.Background()
	hdrs := msg.Headers()
	if id := hdrs.Get(headerRequestID); id != "" {
		ctx = logger.WithRequestID(ctx, id)
	}
	log := slog.With("subject", msg.Subject())

	if err := messagequeue.Validate(msg.Subject(), msg.Data()); err != nil {
		log.WarnContext(ctx, "invalid message, moving to dlq", "error", err)
		q.moveToDLQ(ctx, msg)
		return
	}

	if err := handler(ctx, msg.Subject(), msg.Data()); err != nil {
		n := retries(msg)
		if n >= maxRetries {
			log.ErrorContext(ctx, "message handler exhausted retries, moving to dlq", "retries", n, "error", err)
			q.moveToDLQ(ctx, msg)
			return
		}
		// Redelivery goes back to the same consumer only, so other
		// subscribers do not see the message twice.
		log.WarnContext(ctx, "message handler failed, redelivering", "retry", n+1, "error", err)
		if err := msg.NakWithDelay(retryDelay * time.Duration(n+1)); err != nil {
			log.ErrorContext(ctx, "nats nak failed", "error", err)
		}
		return
	}
	if err := msg.Ack(); err != nil {
		log.ErrorContext(ctx, "nats ack failed", "error", err)
	}
}

// retries counts earlier failed attempts: redeliveries of this message plus
// any Retry-Count carried over from the producer.
func retries(msg jetstream.Msg) int {
	n := retryCount(msg.Headers())
	if md, err := msg.Metadata(); err == nil && md.NumDelivered > 1 {
		n += int(md.NumDelivered - 1)
	}
	return n
}

func (q *Queue) moveToDLQ(ctx context.Context, msg jetstream.Msg) {
	out := &nats.Msg{Subject: msg.Subject() + dlqSuffix, Data: msg.Data(), Header: copyHeader(msg.Headers())}
	if _, err := q.js.PublishMsg(ctx, out); err != nil {
		slog.ErrorContext(ctx, "nats dlq publish failed", "subject", out.Subject, "error", err)
		_ = msg.Nak()
		return
	}
	_ = msg.Term()
}

func retryCount(h nats.Header) int {
	n, _ := strconv.Atoi(h.Get(headerRetryCount))
	return n
}

func copyHeader(h nats.Header) nats.Header {
	out := nats.Header{}
	for k, v := range h {
		out[k] = append([]string(nil), v...)
	}
	return out
}

// KeyValue opens (creating if needed) a KV bucket on this connection.
func (q *Queue) KeyValue(ctx context.Context, bucket string, ttl time.Duration) (jetstream.KeyValue, error) {
	return natskv.OpenBucket(ctx, q.js, bucket, ttl)
}

// IsConnected reports whether the NATS connection is up.
func (q *Queue) IsConnected() bool {
	return q.nc.IsConnected()
}

// Close drains subscriptions and shuts down the NATS connection.
func (q *Queue) Close() error {
	if err := q.nc.Drain(); err != nil {
		q.nc.Close()
		return fmt.Errorf("nats drain: %w", err)
	}
	return nil
}
