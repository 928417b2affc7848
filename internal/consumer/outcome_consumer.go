package consumer

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/Eursukkul/event-checkout/internal/models"
	"github.com/Eursukkul/event-checkout/internal/repository"
	amqp "github.com/rabbitmq/amqp091-go"
)

// OutcomeConsumer writes published reconciliation outcomes into the webhook
// audit log.
type OutcomeConsumer struct {
	repo repository.WebhookEventRepository
}

func NewOutcomeConsumer(repo repository.WebhookEventRepository) *OutcomeConsumer {
	return &OutcomeConsumer{repo: repo}
}

// Start listens for messages until the delivery channel is closed.
func (oc *OutcomeConsumer) Start(msgs <-chan amqp.Delivery) {
	go func() {
		for msg := range msgs {
			oc.handleMessage(msg)
		}
		log.Println("[OutcomeConsumer] channel closed, stopping consumer")
	}()
}

func (oc *OutcomeConsumer) handleMessage(msg amqp.Delivery) {
	var event models.WebhookEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		log.Printf("[OutcomeConsumer] failed to unmarshal: %v", err)
		msg.Nack(false, false)
		return
	}
	if event.MessageID == "" {
		event.MessageID = msg.MessageId
	}
	if event.MessageID == "" || event.Outcome == "" {
		log.Printf("[OutcomeConsumer] dropping message without id or outcome (routing key %s)", msg.RoutingKey)
		msg.Nack(false, false)
		return
	}
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	inserted, err := oc.repo.Record(ctx, &event)
	if err != nil {
		log.Printf("[OutcomeConsumer] failed to record %s: %v", event.MessageID, err)
		msg.Nack(false, true)
		return
	}

	if !inserted {
		log.Printf("[OutcomeConsumer] %s already recorded", event.MessageID)
	} else if event.Outcome.NeedsAttention() {
		log.Printf("[OutcomeConsumer] %s payment %s needs manual follow-up: %s", event.Outcome, event.ProviderPaymentID, event.Detail)
	}
	msg.Ack(false)
}
