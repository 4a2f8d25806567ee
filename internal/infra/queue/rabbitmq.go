package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"complaints-service/internal/domain"
	"complaints-service/internal/infra/metrics"
)

// RabbitNotificationQueue реализует очередь уведомлений через AMQP.
type RabbitNotificationQueue struct {
	conn  *amqp.Connection
	ch    *amqp.Channel
	queue string

	mu         sync.Mutex
	deliveries <-chan amqp.Delivery
}

var _ domain.NotificationQueue = (*RabbitNotificationQueue)(nil)

// NewRabbitNotificationQueue подключается к брокеру и объявляет
// durable-очередь.
func NewRabbitNotificationQueue(amqpURL, queue string) (*RabbitNotificationQueue, error) {
	if amqpURL == "" {
		return nil, errors.New("amqp url is empty")
	}
	if queue == "" {
		return nil, errors.New("queue name is empty")
	}
	conn, err := amqp.Dial(amqpURL)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue: %w", err)
	}
	return &RabbitNotificationQueue{conn: conn, ch: ch, queue: queue}, nil
}

// Enqueue публикует задачу в очередь.
func (q *RabbitNotificationQueue) Enqueue(ctx context.Context, job domain.Notification) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	start := time.Now()
	err = q.ch.PublishWithContext(ctx, "", q.queue, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    job.ID,
		Body:         payload,
	})
	metrics.ObserveNetworkRequest("rabbitmq", "publish", q.queue, start, err)
	if err != nil {
		return fmt.Errorf("publish job: %w", err)
	}
	return nil
}

// Pop блокирующе читает задачу из очереди; сообщение подтверждается
// после успешного декодирования.
func (q *RabbitNotificationQueue) Pop(ctx context.Context) (domain.Notification, error) {
	deliveries, err := q.consume()
	if err != nil {
		return domain.Notification{}, err
	}
	select {
	case <-ctx.Done():
		return domain.Notification{}, ctx.Err()
	case d, ok := <-deliveries:
		if !ok {
			return domain.Notification{}, errors.New("rabbitmq queue: consume channel closed")
		}
		var job domain.Notification
		if err := json.Unmarshal(d.Body, &job); err != nil {
			_ = d.Nack(false, false)
			return domain.Notification{}, fmt.Errorf("decode job: %w", err)
		}
		if err := d.Ack(false); err != nil {
			return domain.Notification{}, fmt.Errorf("ack job: %w", err)
		}
		return job, nil
	}
}

func (q *RabbitNotificationQueue) consume() (<-chan amqp.Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.deliveries != nil {
		return q.deliveries, nil
	}
	deliveries, err := q.ch.Consume(q.queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume: %w", err)
	}
	q.deliveries = deliveries
	return deliveries, nil
}

// Close закрывает канал и соединение.
func (q *RabbitNotificationQueue) Close() error {
	if err := q.ch.Close(); err != nil {
		_ = q.conn.Close()
		return err
	}
	return q.conn.Close()
}
