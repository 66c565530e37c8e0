package mq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/roomly/apiserver/config"
)

const (
	jsonContentType = "application/json"
	exchangeKind    = "topic"

	// RoutingAttribute names the attribute used as the routing key.
	RoutingAttribute = "type"

	defaultRoutingKey = "event"
	bindAllKeys       = "#"
)

// RabbitMQClient publishes each channel to a topic exchange of the same name.
// Subscribers bind their own queue to it: an exclusive server-named queue by
// default, or the shared queue from config so several consumers split the work.
type RabbitMQClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	cfg     config.RabbitMQConfig

	mu       sync.Mutex
	declared map[string]struct{}
}

// NewRabbitMQClient dials the broker and opens a channel.
func NewRabbitMQClient(cfg config.RabbitMQConfig) (*RabbitMQClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, errors.New("rabbitmq url is required")
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open rabbitmq channel: %w", err)
	}

	if cfg.PrefetchCount > 0 {
		if err := ch.Qos(cfg.PrefetchCount, 0, false); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return nil, fmt.Errorf("set prefetch: %w", err)
		}
	}

	return &RabbitMQClient{
		conn:     conn,
		channel:  ch,
		cfg:      cfg,
		declared: map[string]struct{}{},
	}, nil
}

// Publish sends a persistent JSON message to the channel's exchange, routed
// by the RoutingAttribute attribute.
func (r *RabbitMQClient) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if err := r.ensureExchange(channel); err != nil {
		return "", err
	}

	messageID := uuid.NewString()
	err := r.channel.PublishWithContext(ctx, channel, routingKey(attrs), false, false, amqp.Publishing{
		ContentType:  jsonContentType,
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID,
		Timestamp:    time.Now().UTC(),
		Headers:      attributesToHeaders(attrs),
		Body:         data,
	})
	if err != nil {
		return "", fmt.Errorf("publish to %q: %w", channel, err)
	}
	return messageID, nil
}

// Subscribe binds a queue to the channel's exchange and delivers every
// message to handler until ctx is done. A failed message is requeued once;
// a second failure drops it.
func (r *RabbitMQClient) Subscribe(ctx context.Context, channel string, handler Handler) error {
	if err := r.ensureExchange(channel); err != nil {
		return err
	}

	queue, err := r.bindQueue(channel)
	if err != nil {
		return err
	}

	consumerTag := "users-events-" + uuid.NewString()
	deliveries, err := r.channel.Consume(queue, consumerTag, false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume %q: %w", queue, err)
	}
	defer func() {
		_ = r.channel.Cancel(consumerTag, false)
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case delivery, ok := <-deliveries:
			if !ok {
				return errors.New("rabbitmq delivery channel closed")
			}
			message := Message{
				ID:         delivery.MessageId,
				Data:       delivery.Body,
				Attributes: headersToAttributes(delivery.Headers),
			}
			if err := handler(ctx, message); err != nil {
				_ = delivery.Nack(false, !delivery.Redelivered)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

// Close closes the channel and the connection.
func (r *RabbitMQClient) Close() error {
	if r.channel != nil {
		_ = r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

func (r *RabbitMQClient) ensureExchange(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("rabbitmq channel is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.declared[name]; ok {
		return nil
	}
	if err := r.channel.ExchangeDeclare(name, exchangeKind, r.cfg.QueueDurable, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %q: %w", name, err)
	}
	r.declared[name] = struct{}{}
	return nil
}

// bindQueue returns the name of the queue bound to exchange.
func (r *RabbitMQClient) bindQueue(exchange string) (string, error) {
	var (
		queue amqp.Queue
		err   error
	)
	if name := strings.TrimSpace(r.cfg.Queue); name != "" {
		queue, err = r.channel.QueueDeclare(name, r.cfg.QueueDurable, r.cfg.QueueAutoDelete, false, false, nil)
	} else {
		queue, err = r.channel.QueueDeclare("", false, true, true, false, nil)
	}
	if err != nil {
		return "", fmt.Errorf("declare queue: %w", err)
	}

	if err := r.channel.QueueBind(queue.Name, bindAllKeys, exchange, false, nil); err != nil {
		return "", fmt.Errorf("bind queue %q to %q: %w", queue.Name, exchange, err)
	}
	return queue.Name, nil
}

func routingKey(attrs map[string]string) string {
	if key := strings.TrimSpace(attrs[RoutingAttribute]); key != "" {
		return key
	}
	return defaultRoutingKey
}

func attributesToHeaders(attrs map[string]string) amqp.Table {
	if len(attrs) == 0 {
		return nil
	}
	headers := make(amqp.Table, len(attrs))
	for key, value := range attrs {
		headers[key] = value
	}
	return headers
}

func headersToAttributes(headers amqp.Table) map[string]string {
	if len(headers) == 0 {
		return nil
	}
	attrs := make(map[string]string, len(headers))
	for key, value := range headers {
		switch typed := value.(type) {
		case string:
			attrs[key] = typed
		case []byte:
			attrs[key] = string(typed)
		default:
			attrs[key] = fmt.Sprint(value)
		}
	}
	return attrs
}
