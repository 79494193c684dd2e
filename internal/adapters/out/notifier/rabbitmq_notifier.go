package notifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tradeerp/internal/core/ports"

	amqp "github.com/rabbitmq/amqp091-go"
)

const DefaultExchange = "order_notifications"

// publisher is the part of *amqp.Channel the notifier needs.
type publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// RabbitMQNotifier publishes notifications to a fanout exchange. Consumers
// bind their own queues and filter on the roles field.
type RabbitMQNotifier struct {
	channel  publisher
	exchange string
	timeout  time.Duration
	logger   *slog.Logger
	closers  []func() error
}

var _ ports.Notifier = (*RabbitMQNotifier)(nil)

func NewRabbitMQNotifier(channel publisher, exchange string, logger *slog.Logger) *RabbitMQNotifier {
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &RabbitMQNotifier{
		channel:  channel,
		exchange: exchange,
		timeout:  5 * time.Second,
		logger:   logger.With("component", "rabbitmq_notifier"),
	}
}

// DialRabbitMQNotifier connects to url and declares a durable fanout exchange.
// Close releases the channel and connection.
func DialRabbitMQNotifier(url, exchange string, logger *slog.Logger) (*RabbitMQNotifier, error) {
	if exchange == "" {
		exchange = DefaultExchange
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to dial RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	if err := ch.ExchangeDeclare(
		exchange,
		amqp.ExchangeFanout,
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}

	n := NewRabbitMQNotifier(ch, exchange, logger)
	n.closers = []func() error{ch.Close, conn.Close}
	return n, nil
}

func (n *RabbitMQNotifier) Notify(ctx context.Context, notification ports.TransitionNotification) error {
	body, err := json.Marshal(newMessage(notification))
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	err = n.channel.PublishWithContext(
		ctx,
		n.exchange,
		"",    // routing key (not used for fanout)
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    notification.OrderID.String() + ":" + notification.ToStatus.String(),
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish notification for order %s: %w", notification.OrderNumber, err)
	}

	n.logger.DebugContext(ctx, "Notification published",
		"order_number", notification.OrderNumber,
		"to", notification.ToStatus.String(),
	)
	return nil
}

func (n *RabbitMQNotifier) Close() error {
	var errList []error
	for _, c := range n.closers {
		errList = append(errList, c())
	}
	return errors.Join(errList...)
}
