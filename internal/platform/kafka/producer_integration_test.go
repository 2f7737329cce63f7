//go:build integration

package kafka_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kgo"

	"doseguard/internal/platform/kafka"
	"doseguard/internal/platform/outbox"
	"doseguard/pkg/testutil/containers"
)

type ProducerSuite struct {
	suite.Suite
	broker   string
	producer *kafka.Producer
}

func TestProducerSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(ProducerSuite))
}

func (s *ProducerSuite) SetupSuite() {
	s.broker = containers.GetManager().GetRedpanda(s.T()).Broker
	p, err := kafka.NewProducer([]string{s.broker}, "doseguard-test")
	s.Require().NoError(err)
	s.producer = p
}

func (s *ProducerSuite) TearDownSuite() {
	s.producer.Close()
}

func (s *ProducerSuite) TestPublishRoundTrip() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	const topic = "doseguard.test-alerts"

	s.Require().NoError(s.producer.EnsureTopics(ctx, 1, 1, topic))
	// Creating twice is a no-op.
	s.Require().NoError(s.producer.EnsureTopics(ctx, 1, 1, topic))

	err := s.producer.Publish(ctx, outbox.Message{
		Topic:   topic,
		Key:     []byte("container-1"),
		Value:   []byte(`{"category":"time_violation"}`),
		Headers: map[string]string{"event_type": "alert_raised"},
	})
	s.Require().NoError(err)

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.broker),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().NoError(fetches.Err())
	records := fetches.Records()
	s.Require().NotEmpty(records)
	s.Equal("container-1", string(records[0].Key))
	s.Equal("alert_raised", string(records[0].Headers[0].Value))
}
