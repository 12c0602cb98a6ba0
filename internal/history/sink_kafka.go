package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
)

// KafkaSink publishes history entries to a Kafka topic, keyed by distribution
// ID so one distribution's entries stay ordered within a partition.
type KafkaSink struct {
	client *kgo.Client
	topic  string
}

// NewKafkaSink connects to the given brokers. The caller owns Close.
func NewKafkaSink(brokers []string, topic string) (*KafkaSink, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &KafkaSink{client: client, topic: topic}, nil
}

// sinkPayload is the JSON structure published downstream.
type sinkPayload struct {
	DistributionID string `json:"distribution_id"`
	Action         string `json:"action"`
	ActorID        string `json:"actor_id"`
	OccurredAt     string `json:"occurred_at"`
	Detail         string `json:"detail,omitempty"`
}

func (s *KafkaSink) Publish(ctx context.Context, entry Entry) error {
	payload, err := json.Marshal(sinkPayload{
		DistributionID: entry.DistributionID.String(),
		Action:         string(entry.Action),
		ActorID:        entry.ActorID.String(),
		OccurredAt:     entry.OccurredAt.UTC().Format(time.RFC3339Nano),
		Detail:         entry.Detail,
	})
	if err != nil {
		return fmt.Errorf("marshal history payload: %w", err)
	}

	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(entry.DistributionID.String()),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce history entry: %w", err)
	}
	return nil
}

func (s *KafkaSink) Close() {
	s.client.Close()
}
