// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/wneessen/roam-tripdemo/internal/logger"
)

const (
	// RoutingKeyPrefix prefixes the field name in the routing key of every forwarded event.
	RoutingKeyPrefix = "session."
	publishTimeout   = 5 * time.Second
	sinkBuffer       = 64
)

// Publisher is the publishing part of an AMQP channel.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool,
		msg amqp.Publishing) error
}

// AMQPSink forwards bus events as JSON messages to a topic exchange.
type AMQPSink struct {
	publisher Publisher
	exchange  string
	logger    *logger.Logger
	closer    func() error
}

// NewAMQPSink returns a sink that publishes to exchange through publisher.
func NewAMQPSink(publisher Publisher, exchange string, log *logger.Logger) *AMQPSink {
	return &AMQPSink{
		publisher: publisher,
		exchange:  exchange,
		logger:    log,
		closer:    func() error { return nil },
	}
}

// DialAMQP connects to the broker at url, declares exchange as durable topic exchange and
// returns a sink publishing to it.
func DialAMQP(url, exchange string, log *logger.Logger) (*AMQPSink, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(30 * time.Second),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to dial AMQP broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open AMQP channel: %w", err)
	}
	if err = ch.ExchangeDeclare(exchange, "topic", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	sink := NewAMQPSink(ch, exchange, log)
	sink.closer = func() error {
		return errors.Join(ch.Close(), conn.Close())
	}
	log.Info("connected to AMQP broker", slog.String("exchange", exchange))
	return sink, nil
}

// Run forwards every event of bus until ctx is done. Failed publishes are logged and skipped.
func (s *AMQPSink) Run(ctx context.Context, bus *Bus) {
	events, unsub := bus.SubscribeAll(sinkBuffer)
	defer unsub()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := s.Forward(ctx, ev); err != nil {
				s.logger.Error("failed to forward event", logger.Err(err), slog.String("field", ev.Field))
			}
		}
	}
}

// Forward publishes a single event.
func (s *AMQPSink) Forward(ctx context.Context, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()
	return s.publisher.PublishWithContext(ctx, s.exchange, RoutingKeyPrefix+ev.Field, false, false,
		amqp.Publishing{
			ContentType: "application/json",
			Timestamp:   ev.At,
			Body:        body,
		},
	)
}

// Close closes the underlying channel and connection.
func (s *AMQPSink) Close() error {
	return s.closer()
}
