package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// EventTypeEraAdvanced is the type tag of EraAdvancedEvent messages.
const EventTypeEraAdvanced = "world.era_advanced"

// EraAdvancedEvent is published after an advancement has been saved.
type EraAdvancedEvent struct {
	EventType        string    `json:"eventType"`
	WorldID          string    `json:"worldId"`
	PreviousYear     int       `json:"previousYear"`
	NewYear          int       `json:"newYear"`
	Years            int       `json:"years"`
	PopulationBefore int       `json:"populationBefore"`
	PopulationAfter  int       `json:"populationAfter"`
	RacesDefaulted   int       `json:"racesDefaulted"`
	OccurredAt       time.Time `json:"occurredAt"`
}

// EventPublisher publishes world events.
type EventPublisher interface {
	PublishEraAdvanced(ctx context.Context, event EraAdvancedEvent) error
}

// rabbitMQPublisher publishes JSON messages to one durable queue through the
// default exchange.
type rabbitMQPublisher struct {
	channel   *amqp.Channel
	queueName string
	logger    *zap.Logger
}

var _ EventPublisher = (*rabbitMQPublisher)(nil)

// NewRabbitMQEventPublisher opens a channel on conn and declares queueName.
func NewRabbitMQEventPublisher(conn *amqp.Connection, queueName string, logger *zap.Logger) (*rabbitMQPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("event publisher: open channel: %w", err)
	}
	_, err = ch.QueueDeclare(
		queueName, // name
		true,      // durable
		false,     // delete when unused
		false,     // exclusive
		false,     // no-wait
		nil,       // arguments
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("event publisher: declare queue '%s': %w", queueName, err)
	}
	logger = logger.Named("EventPublisher")
	logger.Info("World events queue declared", zap.String("queue", queueName))
	return &rabbitMQPublisher{channel: ch, queueName: queueName, logger: logger}, nil
}

// PublishEraAdvanced sends event, filling in its type and timestamp.
func (p *rabbitMQPublisher) PublishEraAdvanced(ctx context.Context, event EraAdvancedEvent) error {
	event.EventType = EventTypeEraAdvanced
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", EventTypeEraAdvanced, err)
	}
	return p.publishMessage(ctx, body)
}

// Close closes the publisher's channel.
func (p *rabbitMQPublisher) Close() error {
	if p.channel == nil {
		return nil
	}
	return p.channel.Close()
}

func (p *rabbitMQPublisher) publishMessage(ctx context.Context, body []byte) error {
	if p.channel == nil {
		return errors.New("rabbitmq channel is not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	var err error
	for attempt := 1; attempt <= 3; attempt++ {
		err = p.channel.PublishWithContext(ctx,
			"",          // exchange
			p.queueName, // routing key
			false,       // mandatory
			false,       // immediate
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Body:         body,
				Timestamp:    time.Now(),
				AppId:        "worldforge",
			},
		)
		if err == nil {
			p.logger.Debug("Message published", zap.String("queue", p.queueName), zap.Int("attempt", attempt))
			return nil
		}
		p.logger.Warn("Publish failed", zap.String("queue", p.queueName), zap.Int("attempt", attempt), zap.Error(err))
		time.Sleep(time.Duration(attempt) * 100 * time.Millisecond)
	}
	return fmt.Errorf("publish to queue %s after retries: %w", p.queueName, err)
}

// NoopPublisher drops every event. It is used when RabbitMQ is not configured.
type NoopPublisher struct {
	logger *zap.Logger
}

var _ EventPublisher = (*NoopPublisher)(nil)

// NewNoopPublisher creates a NoopPublisher.
func NewNoopPublisher(logger *zap.Logger) *NoopPublisher {
	return &NoopPublisher{logger: logger.Named("NoopPublisher")}
}

func (p *NoopPublisher) PublishEraAdvanced(_ context.Context, event EraAdvancedEvent) error {
	p.logger.Debug("Event dropped, publishing is disabled",
		zap.String("eventType", EventTypeEraAdvanced),
		zap.String("worldID", event.WorldID),
	)
	return nil
}
