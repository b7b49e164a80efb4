package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/subscription-tracker/internal/workflow"
)

// Channel - часть amqp.Channel, нужная публикатору.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// Publisher публикует запросы на запуск напоминаний в RabbitMQ.
// Реализует reminder.Trigger; повторных попыток не делает.
type Publisher struct {
	mu         sync.Mutex
	ch         Channel
	exchange   string
	routingKey string
}

// NewPublisher создаёт Publisher поверх открытого канала.
func NewPublisher(ch Channel, exchange, routingKey string) *Publisher {
	return &Publisher{
		ch:         ch,
		exchange:   exchange,
		routingKey: routingKey,
	}
}

// Trigger публикует запрос на запуск напоминания. runID передаётся в заголовке и message id
// и возвращается после того, как брокер принял сообщение.
func (p *Publisher) Trigger(ctx context.Context, req workflow.TriggerRequest, runID string) (string, error) {
	const op = "rabbitmq.Trigger"
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	headers := amqp.Table{"workflow-run-id": runID}
	for k, v := range req.Headers {
		headers[k] = v
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.Publish(
		p.exchange,
		p.routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			MessageId:    runID,
			Headers:      headers,
			Body:         body,
			DeliveryMode: amqp.Persistent,
		},
	)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return runID, nil
}
