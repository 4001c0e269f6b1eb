package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RabbitMQDeadLetterPublisher pushes terminal async failures onto a durable
// dead-letter queue so they survive the process and reach operators.
type RabbitMQDeadLetterPublisher struct {
	client *RabbitMQ
}

var _ DeadLetterPublisher = (*RabbitMQDeadLetterPublisher)(nil)

func NewRabbitMQDeadLetterPublisher(client *RabbitMQ) *RabbitMQDeadLetterPublisher {
	return &RabbitMQDeadLetterPublisher{client: client}
}

func (p *RabbitMQDeadLetterPublisher) Publish(ctx context.Context, msg DeadLetterMessage) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("publisher is not initialized")
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid dead letter message: %w", err)
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal dead letter message: %w", err)
	}

	ch, err := p.client.channel(ctx)
	if err != nil {
		return err
	}
	defer ch.Close()

	publishing := amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Persistent,
		Timestamp:     time.Now().UTC(),
		MessageId:     msg.LogRowID,
		CorrelationId: msg.CorrelationID,
		Body:          payload,
	}

	routingKey := strings.ToLower(msg.Channel.String())
	if err := ch.PublishWithContext(ctx, dlxExchangeName, routingKey, false, false, publishing); err != nil {
		return fmt.Errorf("failed to publish dead letter for %q: %w", msg.Recipient, err)
	}

	return nil
}

func (p *RabbitMQDeadLetterPublisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}
