package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

var ErrPublishNacked = errors.New("broker did not confirm message")

// Publisher sends webhook outcomes to the checkout exchange with publisher
// confirms enabled, so Publish returns only once the broker has the message.
type Publisher struct {
	*session
	mu sync.Mutex
}

func NewPublisher(url string) (*Publisher, error) {
	s, err := openSession(url)
	if err != nil {
		return nil, err
	}
	if err := s.channel.Confirm(false); err != nil {
		s.close()
		return nil, fmt.Errorf("rabbitmq confirm mode: %w", err)
	}
	return &Publisher{session: s}, nil
}

func (p *Publisher) Publish(ctx context.Context, routingKey string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID(payload),
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}

	// confirmations are matched by delivery tag, which is per channel
	p.mu.Lock()
	confirm, err := p.channel.PublishWithDeferredConfirmWithContext(ctx, ExchangeName, routingKey, false, false, msg)
	p.mu.Unlock()
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("wait for confirm: %w", err)
	}
	if !acked {
		return ErrPublishNacked
	}

	log.Printf("[RabbitMQ] published %s to %s/%s", msg.MessageId, ExchangeName, routingKey)
	return nil
}

func (p *Publisher) Close() {
	p.close()
}

// messageID reuses the payload's own id when it has one so the broker
// message and the stored audit row share a key.
func messageID(payload any) string {
	if m, ok := payload.(interface{ GetMessageID() string }); ok && m.GetMessageID() != "" {
		return m.GetMessageID()
	}
	return uuid.NewString()
}
