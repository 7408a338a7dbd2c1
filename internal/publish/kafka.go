// Package publish ships per-building assessments of a completed run to Kafka
// for downstream reporting.
package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/mr1hm/go-quake-impact/internal/models"
	"github.com/mr1hm/go-quake-impact/internal/report"
)

// MessageWriter is the subset of *kafkago.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// KafkaPublisher writes one message per assessment, keyed by run ID so a
// run's rows land on one partition in order.
type KafkaPublisher struct {
	writer MessageWriter
	logger *slog.Logger
}

// NewKafkaWriter creates a producer for topic on brokers.
func NewKafkaWriter(brokers []string, topic string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:         kafkago.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
}

func NewKafkaPublisher(w MessageWriter, logger *slog.Logger) *KafkaPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaPublisher{writer: w, logger: logger}
}

// Publish sends every result of run in a single WriteMessages call and
// returns the number of messages written.
func (p *KafkaPublisher) Publish(ctx context.Context, run *models.ScenarioRun) (int, error) {
	if len(run.Results) == 0 {
		return 0, nil
	}
	msgs := make([]kafkago.Message, len(run.Results))
	for i, r := range run.Results {
		msg, err := serializeToMessage(run, r)
		if err != nil {
			return 0, err
		}
		msgs[i] = msg
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return 0, fmt.Errorf("publish run %s: %w", run.ID, err)
	}
	p.logger.Debug("published run", "run_id", run.ID, "messages", len(msgs))
	return len(msgs), nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// serializeToMessage flattens one assessment into a Kafka message.
func serializeToMessage(run *models.ScenarioRun, r models.Result) (kafkago.Message, error) {
	row := report.Row(r)
	row["run_id"] = run.ID
	row["source"] = run.Source

	data, err := json.Marshal(row)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize assessment of building %d: %w", r.Building.ID, err)
	}
	return kafkago.Message{
		Key:   []byte(run.ID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "damage_state", Value: []byte(r.Assessment.DamageState)},
			{Key: "magnitude", Value: []byte(strconv.FormatFloat(run.Earthquake.Magnitude, 'f', -1, 64))},
			{Key: "occurred_at", Value: []byte(run.OccurredAt.UTC().Format(time.RFC3339))},
		},
	}, nil
}
