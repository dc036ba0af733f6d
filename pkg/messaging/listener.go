package messaging

import (
	"log"

	"github.com/bytedance/sonic"
	amqp "github.com/rabbitmq/amqp091-go"
)

// DeclareBindAndConsume binds an exclusive queue to the topic so every
// instance gets its own copy of each message.
func DeclareBindAndConsume(ch *amqp.Channel, prefix string, topic ChangeTopic) (<-chan amqp.Delivery, error) {
	name := getName(prefix, topic)
	q, err := ch.QueueDeclare(
		"",    // name
		false, // durable
		true,  // delete when unused
		true,  // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return nil, err
	}
	if err = ch.QueueBind(q.Name, name, name, false, nil); err != nil {
		return nil, err
	}
	return ch.Consume(
		q.Name,
		"",    // consumer
		false, // auto-ack
		true,  // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
}

// ListenToTopic handles deliveries in a goroutine until the channel closes.
// A failing handler rejects the message without requeue.
func ListenToTopic(ch *amqp.Channel, prefix string, topic ChangeTopic, handler func(amqp.Delivery) error) error {
	msgs, err := DeclareBindAndConsume(ch, prefix, topic)
	if err != nil {
		return err
	}
	go func(msgs <-chan amqp.Delivery) {
		defer ch.Close()
		for d := range msgs {
			if err := handler(d); err != nil {
				log.Printf("Error processing %s message: %v", topic, err)
				_ = d.Nack(false, false)
				continue
			}
			_ = d.Ack(false)
		}
		log.Printf("Stopped listening to %s", topic)
	}(msgs)
	return nil
}

// ListenForCatalogChanges decodes catalog change messages for fn.
func ListenForCatalogChanges(ch *amqp.Channel, prefix string, fn func(CatalogChange) error) error {
	return ListenToTopic(ch, prefix, CatalogChanged, func(d amqp.Delivery) error {
		var change CatalogChange
		if err := sonic.Unmarshal(d.Body, &change); err != nil {
			return err
		}
		return fn(change)
	})
}
