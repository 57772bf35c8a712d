package queue

import (
	"encoding/json"
	"fmt"

	"github.com/streadway/amqp"
)

// DispatchJob is the wire format on the RabbitMQ dispatch queue.
type DispatchJob struct {
	CampaignID int `json:"campaign_id"`
}

// AMQPPublisher pushes dispatch jobs onto a durable RabbitMQ queue. The
// worker binary consumes them; Subscribe is not implemented here.
type AMQPPublisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewAMQPPublisher(url string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}

	_, err = ch.QueueDeclare(
		DispatchTopic, // name
		true,          // durable
		false,         // delete when unused
		false,         // exclusive
		false,         // no-wait
		nil,           // arguments
	)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare queue: %w", err)
	}

	return &AMQPPublisher{conn: conn, ch: ch}, nil
}

func (p *AMQPPublisher) Publish(topic string, payload any) error {
	campaignID, ok := payload.(int)
	if !ok {
		return fmt.Errorf("expected campaign id payload, got %T", payload)
	}

	body, err := json.Marshal(DispatchJob{CampaignID: campaignID})
	if err != nil {
		return err
	}

	return p.ch.Publish(
		"",    // exchange
		topic, // routing key
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		},
	)
}

func (p *AMQPPublisher) Subscribe(topic string, handler func(payload any) error) error {
	return fmt.Errorf("AMQPPublisher does not consume; run the worker binary")
}

func (p *AMQPPublisher) Close() {
	p.ch.Close()
	p.conn.Close()
}

var _ Queue = (*AMQPPublisher)(nil)
