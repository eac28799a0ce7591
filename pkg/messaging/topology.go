package messaging

import (
	"fmt"

	"github.com/rabbitmq/amqp091-go"
)

// topologyDeclarer is the slice of amqp091.Channel the topology setup needs.
type topologyDeclarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp091.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp091.Table) (amqp091.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp091.Table) error
}

func deadLetterExchange(queue string) string {
	return queue + ".dlx"
}

// queueArgs builds the declare arguments for the main queue. Publisher and
// consumer must pass identical arguments: the broker rejects a re-declare of
// an existing queue with an inequivalent table (406 PRECONDITION_FAILED),
// and which process declares first depends on startup order.
func queueArgs(queue string) amqp091.Table {
	return amqp091.Table{
		"x-dead-letter-exchange": deadLetterExchange(queue),
	}
}

// declareTopology sets up the durable queue plus its dead-letter pair:
// <queue>.dlx fanning out into <queue>.dlq, with the main queue routing
// rejected messages there. Every connecting process declares the same
// topology, so declares are idempotent regardless of who comes up first.
func declareTopology(ch topologyDeclarer, queue string) error {
	dlx := deadLetterExchange(queue)
	if err := ch.ExchangeDeclare(dlx, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dead-letter exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(queue+".dlq", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare dead-letter queue: %w", err)
	}

	if err := ch.QueueBind(queue+".dlq", "", dlx, false, nil); err != nil {
		return fmt.Errorf("bind dead-letter queue: %w", err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, queueArgs(queue)); err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	return nil
}
