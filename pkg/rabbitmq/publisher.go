package rabbitmq

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	// NotificationExchange carries outbound notification requests for the
	// external dispatcher.
	NotificationExchange = "notifications"

	// JobExchange holds delayed jobs until their fire time. It is an
	// x-delayed-message exchange (rabbitmq_delayed_message_exchange plugin
	// must be enabled on the broker) so per-job delays are honoured
	// independently, with no head-of-line blocking.
	JobExchange = "jobs.delayed"

	exchangeKindTopic = "topic"
)

type Publisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewPublisher(url string) (*Publisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := ch.ExchangeDeclare(NotificationExchange, exchangeKindTopic, true, false, false, false, nil); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}

	if err := ch.ExchangeDeclare(JobExchange, "x-delayed-message", true, false, false, false, amqp.Table{
		"x-delayed-type": exchangeKindTopic,
	}); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("rabbitmq delayed exchange declare: %w", err)
	}

	return &Publisher{conn: conn, channel: ch}, nil
}

// Publish sends an immediate message to the notifications exchange.
func (p *Publisher) Publish(routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	if err := p.channel.Publish(
		NotificationExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	); err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	log.Printf("[RabbitMQ] published to %s/%s: %s", NotificationExchange, routingKey, string(body))
	return nil
}

// PublishDelayed enqueues a job that the broker will deliver no earlier than
// delay from now. A non-positive delay delivers immediately.
func (p *Publisher) PublishDelayed(routingKey string, payload any, delay time.Duration) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	if delay < 0 {
		delay = 0
	}

	if err := p.channel.Publish(
		JobExchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Headers:     amqp.Table{"x-delay": delay.Milliseconds()},
		},
	); err != nil {
		return fmt.Errorf("publish delayed message: %w", err)
	}

	log.Printf("[RabbitMQ] published to %s/%s (delay %s): %s", JobExchange, routingKey, delay, string(body))
	return nil
}

func (p *Publisher) Close() {
	if p.channel != nil {
		p.channel.Close()
	}
	if p.conn != nil {
		p.conn.Close()
	}
}
