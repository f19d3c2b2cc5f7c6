//go:build integration

package rabbitmq

import (
	"context"
	"fmt"
	"os/exec"
	"testing"
	"time"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestClientRoundTrip(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if exec.CommandContext(ctx, "docker", "info").Run() != nil {
		t.Skip("Skipping test: Docker not available")
	}

	container, err := testcontainers.GenericContainer(context.Background(), testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "rabbitmq:3.13-alpine",
			ExposedPorts: []string{"5672/tcp"},
			WaitingFor:   wait.ForLog("Server startup complete").WithStartupTimeout(90 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(context.Background())
	require.NoError(t, err)
	port, err := container.MappedPort(context.Background(), "5672")
	require.NoError(t, err)

	client, err := NewClient(Config{URL: fmt.Sprintf("amqp://guest:guest@%s:%s/", host, port.Port())})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	received := make(chan string, 1)
	require.NoError(t, client.ConsumeAccountEvents(func(msg amqp.Delivery) error {
		received <- msg.RoutingKey
		return nil
	}))
	require.NoError(t, client.Publish(AccountExchange, "account.subscription_changed", []byte(`{}`)))

	select {
	case key := <-received:
		assert.Equal(t, "account.subscription_changed", key)
	case <-time.After(10 * time.Second):
		t.Fatal("event was not delivered")
	}
}
