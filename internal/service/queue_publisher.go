// Package queue_publisher publishes booking lifecycle events to
// RabbitMQ. Publishing is best-effort: errors are logged and returned
// so callers can ignore failures without interrupting the request that
// triggered the event.
package queue_publisher

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	q "github.com/Milindddd/Enhanced-Public-Infrastructure-Booking-Platform/internal/queue"
)

// PublishBookingConfirmed publishes a BookingConfirmedEvent to the
// booking.confirmed queue.
func PublishBookingConfirmed(ctx context.Context, event q.BookingConfirmedEvent) error {
	return publish(ctx, q.BookingConfirmedQueue, event)
}

// PublishBookingCancelled publishes a BookingCancelledEvent to the
// booking.cancelled queue.
func PublishBookingCancelled(ctx context.Context, event q.BookingCancelledEvent) error {
	return publish(ctx, q.BookingCancelledQueue, event)
}

// publish opens a short-lived connection, declares the durable queue
// (idempotent) and sends the payload as a persistent JSON message.
func publish(ctx context.Context, queueName string, event any) error {
	conn, err := amqp.Dial(q.BrokerURL())
	if err != nil {
		slog.Warn("rabbitmq: dial failed", "error", err)
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		slog.Warn("rabbitmq: channel open failed", "error", err)
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(queueName, true, false, false, false, nil); err != nil {
		slog.Warn("rabbitmq: queue declare failed", "queue", queueName, "error", err)
		return err
	}

	body, err := json.Marshal(event)
	if err != nil {
		slog.Warn("rabbitmq: marshal event failed", "error", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queueName, false, false, pub); err != nil {
		slog.Warn("rabbitmq: publish failed", "queue", queueName, "error", err)
		return err
	}
	return nil
}
