package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

func getName(prefix string, topic ChangeTopic) string {
	return fmt.Sprintf("%s_%s", prefix, topic)
}

// DefineTopic declares the durable topic exchange and a durable queue of the
// same name bound to it, so events published while no consumer runs are kept.
func DefineTopic(ch *amqp.Channel, prefix string, topic ChangeTopic) error {
	name := getName(prefix, topic)
	err := ch.ExchangeDeclare(name, amqp.ExchangeTopic, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", name, err)
	}
	q, err := ch.QueueDeclare(name, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", name, err)
	}
	if err = ch.QueueBind(q.Name, name, name, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", name, err)
	}
	return nil
}

// SendChange publishes data as json on a short lived channel, routed with
// the exchange name.
func SendChange[V any](c *amqp.Connection, prefix string, topic ChangeTopic, data V) error {
	body, err := sonic.Marshal(data)
	if err != nil {
		return fmt.Errorf("encode %s message: %w", topic, err)
	}
	ch, err := c.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()
	name := getName(prefix, topic)
	return ch.PublishWithContext(ctx, name, name, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Type:         string(topic),
		Body:         body,
	})
}
