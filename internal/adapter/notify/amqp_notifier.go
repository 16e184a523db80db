package notify

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/chatscai10/gclaude-enterprise-system-2025-sub001/internal/core/domain"
)

const (
	TooRareQueue     = "anomaly.too_rare"
	TooFrequentQueue = "anomaly.too_frequent"
	ShortfallQueue   = "orders.threshold_shortfall"
)

// AMQPNotifier publishes notification payloads as JSON to per-kind queues.
// The consumer side (message formatting, delivery retries) lives outside
// this system.
type AMQPNotifier struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewAMQPNotifier(url string) (*AMQPNotifier, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("connect to broker: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	for _, queue := range []string{TooRareQueue, TooFrequentQueue, ShortfallQueue} {
		_, err := channel.QueueDeclare(
			queue,
			true,  // durable
			false, // auto-delete
			false, // exclusive
			false, // no-wait
			nil,
		)
		if err != nil {
			channel.Close()
			conn.Close()
			return nil, fmt.Errorf("declare queue %s: %w", queue, err)
		}
	}

	return &AMQPNotifier{conn: conn, channel: channel}, nil
}

func (n *AMQPNotifier) NotifyTooRare(ctx context.Context, notice domain.TooRareNotice) error {
	return n.publish(ctx, TooRareQueue, notice)
}

func (n *AMQPNotifier) NotifyTooFrequent(ctx context.Context, notice domain.TooFrequentNotice) error {
	return n.publish(ctx, TooFrequentQueue, notice)
}

func (n *AMQPNotifier) NotifyThresholdShortfall(ctx context.Context, notice domain.ThresholdShortfallNotice) error {
	return n.publish(ctx, ShortfallQueue, notice)
}

func (n *AMQPNotifier) publish(ctx context.Context, queue string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	err = n.channel.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", queue, err)
	}
	return nil
}

func (n *AMQPNotifier) Close() {
	if n.channel != nil {
		n.channel.Close()
	}
	if n.conn != nil {
		n.conn.Close()
	}
}
