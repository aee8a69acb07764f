//go:build integration

package messaging_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/rabbitmq"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"worldforge/internal/messaging"
)

func TestRabbitMQPublisher_DeliversEraAdvanced(t *testing.T) {
	ctx := context.Background()
	container, err := rabbitmq.Run(ctx,
		"rabbitmq:3-management-alpine",
		testcontainers.WithWaitStrategy(wait.ForLog("Server startup complete")),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	url, err := container.AmqpURL(ctx)
	require.NoError(t, err)

	logger := zap.NewNop()
	conn, err := messaging.ConnectRabbitMQ(url, 5, time.Second, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	publisher, err := messaging.NewRabbitMQEventPublisher(conn, "world_events_test", logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = publisher.Close() })

	require.NoError(t, publisher.PublishEraAdvanced(ctx, messaging.EraAdvancedEvent{
		WorldID: "w1", PreviousYear: 10, NewYear: 20, Years: 10,
		PopulationBefore: 1000, PopulationAfter: 1100,
	}))

	ch, err := conn.Channel()
	require.NoError(t, err)
	defer ch.Close()

	var msg amqp.Delivery
	require.Eventually(t, func() bool {
		var ok bool
		msg, ok, err = ch.Get("world_events_test", true)
		return err == nil && ok
	}, 10*time.Second, 100*time.Millisecond)

	assert.Equal(t, "application/json", msg.ContentType)
	var event messaging.EraAdvancedEvent
	require.NoError(t, json.Unmarshal(msg.Body, &event))
	assert.Equal(t, messaging.EventTypeEraAdvanced, event.EventType)
	assert.Equal(t, "w1", event.WorldID)
	assert.Equal(t, 20, event.NewYear)
	assert.False(t, event.OccurredAt.IsZero())
}
