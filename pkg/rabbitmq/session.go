package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "checkout"
	ExchangeKind = "topic"
)

// session is one connection with one channel bound to the checkout exchange.
type session struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func openSession(url string) (*session, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("rabbitmq dial: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	s := &session{conn: conn, channel: ch}
	if err := ch.ExchangeDeclare(ExchangeName, ExchangeKind, true, false, false, false, nil); err != nil {
		s.close()
		return nil, fmt.Errorf("rabbitmq exchange declare: %w", err)
	}
	return s, nil
}

func (s *session) close() {
	if s.channel != nil {
		s.channel.Close()
	}
	if s.conn != nil {
		s.conn.Close()
	}
}
