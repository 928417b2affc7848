package rabbitmq

import (
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	QueueName   = "event-checkout.webhook-events"
	BindingKey  = "checkout.*"
	ConsumerTag = "event-checkout-audit"

	PrefetchCount = 20
)

// Consumer owns the durable audit queue bound to every checkout outcome.
type Consumer struct {
	*session
}

func NewConsumer(url string) (*Consumer, error) {
	s, err := openSession(url)
	if err != nil {
		return nil, err
	}

	q, err := s.channel.QueueDeclare(QueueName, true, false, false, false, nil)
	if err == nil {
		err = s.channel.QueueBind(q.Name, BindingKey, ExchangeName, false, nil)
	}
	if err == nil {
		err = s.channel.Qos(PrefetchCount, 0, false)
	}
	if err != nil {
		s.close()
		return nil, fmt.Errorf("rabbitmq audit queue setup: %w", err)
	}

	return &Consumer{session: s}, nil
}

// Consume starts manual-ack delivery from the audit queue.
func (c *Consumer) Consume() (<-chan amqp.Delivery, error) {
	msgs, err := c.channel.Consume(QueueName, ConsumerTag, false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq consume: %w", err)
	}

	log.Printf("[RabbitMQ] consuming from queue: %s", QueueName)
	return msgs, nil
}

// Close cancels the subscription first so in-flight deliveries are not
// redelivered to a half-closed channel.
func (c *Consumer) Close() {
	if c.channel != nil {
		if err := c.channel.Cancel(ConsumerTag, false); err != nil {
			log.Printf("[RabbitMQ] cancel consumer: %v", err)
		}
	}
	c.close()
}
