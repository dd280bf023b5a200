// Package notify carries committed workflow decisions to the staff member they concern.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/rotadesk/backend/internal/domain"
)

type Publisher interface {
	Publish(ctx context.Context, n domain.Notification) error
}

// New fills in the id and timestamp of a notification.
func New(typ domain.NotificationType, tenantID, staffID int64, data map[string]any) domain.Notification {
	return domain.Notification{
		ID:         uuid.NewString(),
		Type:       typ,
		TenantID:   tenantID,
		StaffID:    staffID,
		OccurredAt: time.Now().UTC(),
		Data:       data,
	}
}

// AMQPPublisher sends notifications as persistent JSON messages to one queue through the
// default exchange.
type AMQPPublisher struct {
	ch      *amqp.Channel
	queue   string
	timeout time.Duration
}

func NewAMQPPublisher(ch *amqp.Channel, queue string, timeout time.Duration) *AMQPPublisher {
	return &AMQPPublisher{
		ch:      ch,
		queue:   queue,
		timeout: timeout,
	}
}

func (p *AMQPPublisher) Publish(ctx context.Context, n domain.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	return p.ch.PublishWithContext(
		ctx,
		"",
		p.queue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    n.ID,
			Type:         string(n.Type),
			Timestamp:    n.OccurredAt,
			Body:         body,
		},
	)
}

type Noop struct{}

func (Noop) Publish(context.Context, domain.Notification) error { return nil }

// Recorder keeps published notifications in memory.
type Recorder struct {
	mu   sync.Mutex
	sent []domain.Notification
	Err  error
}

func (r *Recorder) Publish(_ context.Context, n domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.Err != nil {
		return r.Err
	}
	r.sent = append(r.sent, n)
	return nil
}

func (r *Recorder) Sent() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Notification(nil), r.sent...)
}
