package alert

import (
	"context"

	"RankPulse/internal/domain/models"
	"RankPulse/pkg/kafka"
)

// KafkaSink publishes emitted alerts to a Kafka topic keyed by instrument
// code, so one instrument's alerts stay ordered within a partition.
type KafkaSink struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaSink(producer *kafka.Producer, topic string) *KafkaSink {
	return &KafkaSink{producer: producer, topic: topic}
}

func (s *KafkaSink) Publish(ctx context.Context, a models.Alert) error {
	return s.producer.Publish(ctx, s.topic, []byte(a.Code), a)
}

func (s *KafkaSink) PublishBatch(ctx context.Context, alerts []models.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, len(alerts))
	for i, a := range alerts {
		msgs[i] = kafka.Message{Key: []byte(a.Code), Value: a}
	}
	return s.producer.PublishBatch(ctx, s.topic, msgs)
}

func (s *KafkaSink) Close() error { return s.producer.Close() }

// NopSink drops alerts; used when no broker is configured.
type NopSink struct{}

func (NopSink) Publish(context.Context, models.Alert) error        { return nil }
func (NopSink) PublishBatch(context.Context, []models.Alert) error { return nil }
func (NopSink) Close() error                                       { return nil }
