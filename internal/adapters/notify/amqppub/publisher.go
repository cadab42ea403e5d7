package amqppub

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"nutrikid-care-access/internal/ports/notify"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Publisher implementa notify.Sink publicando cada evento de transición
// a una cola de RabbitMQ. El consumidor (push, poll o webhook) decide la
// cadencia de entrega; el engine solo emite.
type Publisher struct {
	conn  *amqp.Connection
	chn   *amqp.Channel
	queue string
}

// New conecta a RabbitMQ y declara la cola durable de eventos.
func New(url, queue string) (*Publisher, error) {
	url = strings.TrimSpace(url)
	queue = strings.TrimSpace(queue)
	if url == "" || queue == "" {
		return nil, fmt.Errorf("amqppub: url and queue required")
	}

	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("amqppub: dial: %w", err)
	}

	chn, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("amqppub: open channel: %w", err)
	}

	if _, err := chn.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	); err != nil {
		_ = chn.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("amqppub: declare queue: %w", err)
	}

	return &Publisher{conn: conn, chn: chn, queue: queue}, nil
}

func (p *Publisher) Emit(ctx context.Context, e notify.Event) error {
	body, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("amqppub: marshal event: %w", err)
	}

	return p.chn.PublishWithContext(
		ctx,
		"",      // exchange default
		p.queue, // routing key
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Type:         e.Name,
			Body:         body,
		},
	)
}

func (p *Publisher) Close() error {
	if err := p.chn.Close(); err != nil {
		return err
	}
	return p.conn.Close()
}
