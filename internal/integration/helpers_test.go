//go:build integration

package integration_test

import (
	"context"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"
	tckafka "github.com/testcontainers/testcontainers-go/modules/kafka"
)

const kafkaImage = "confluentinc/confluent-local:7.5.0"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startKafka runs a single-node KRaft broker for the lifetime of the test and
// returns its bootstrap address.
func startKafka(ctx context.Context, t *testing.T) string {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping kafka integration test in short mode (requires Docker)")
	}

	container, err := tckafka.Run(ctx, kafkaImage, tckafka.WithClusterID("landlord-risk-test"))
	require.NoError(t, err, "start kafka container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	brokers, err := container.Brokers(ctx)
	require.NoError(t, err, "kafka brokers")
	require.NotEmpty(t, brokers)
	return brokers[0]
}

// createTopic creates a single-partition topic through the cluster controller.
func createTopic(t *testing.T, broker, topic string) {
	t.Helper()

	conn, err := kafkago.Dial("tcp", broker)
	require.NoError(t, err, "dial broker")
	defer conn.Close()

	controller, err := conn.Controller()
	require.NoError(t, err, "find controller")

	ctrl, err := kafkago.Dial("tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	require.NoError(t, err, "dial controller")
	defer ctrl.Close()

	require.NoError(t, ctrl.CreateTopics(kafkago.TopicConfig{
		Topic:             topic,
		NumPartitions:     1,
		ReplicationFactor: 1,
	}), "create topic %s", topic)
}

// writeInputs lays out a small city export under dir and returns the paths
// keyed by dataset.
func writeInputs(t *testing.T, dir string) map[string]string {
	t.Helper()

	files := map[string]string{
		"student": "address,district,landlord,latitude,longitude\n" +
			"10 Acme Way,D1,Acme,42.35,-71.05\n" +
			"22 Quiet Ct,D2,Calm LLC,,\n",
		"violations": "address,severity,date\n" +
			"10 Acme Way,critical,2024-06-01\n" +
			"10 ACME WAY,minor,2024-06-01\n",
		"service_requests": "full_address,case_title,open_dt\n" +
			"22 Quiet Court,noise,2024-06-01\n",
	}
	paths := make(map[string]string, len(files))
	for name, content := range files {
		path := filepath.Join(dir, name+".csv")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
		paths[name] = path
	}
	return paths
}
