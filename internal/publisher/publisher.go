package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"PremiumScreener/internal/model"
)

// Event types carried on the signals topic.
const (
	EventSignalFound  = "SIGNAL_FOUND"
	EventScanComplete = "SCAN_COMPLETE"
)

// SignalEvent is the JSON value of every published message.
type SignalEvent struct {
	EventType string              `json:"event_type"`
	Ticker    string              `json:"ticker,omitempty"`
	Signal    *model.SignalRecord `json:"signal,omitempty"`
	Summary   *ScanSummary        `json:"summary,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

// ScanSummary is the end-of-run message body.
type ScanSummary struct {
	Analyzed    int     `json:"analyzed"`
	Errored     int     `json:"errored"`
	Signals     int     `json:"signals"`
	AvgStrength float64 `json:"avg_strength"`
	AvgRSI      float64 `json:"avg_rsi"`
}

// Publisher fans qualifying records out to downstream consumers.
type Publisher interface {
	PublishSignals(ctx context.Context, records []model.SignalRecord, sum model.RunSummary) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher writes one message per record, keyed by ticker, followed by
// a run summary message.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
	now    func() time.Time
}

// NewKafkaPublisher creates a new Kafka publisher.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &KafkaPublisher{writer: writer, topic: topic, now: time.Now}
}

// PublishSignals sends every record and the run summary in one batch.
func (p *KafkaPublisher) PublishSignals(ctx context.Context, records []model.SignalRecord, sum model.RunSummary) error {
	ts := p.now()
	msgs := make([]kafka.Message, 0, len(records)+1)
	for i := range records {
		msg, err := message(records[i].Ticker, SignalEvent{
			EventType: EventSignalFound,
			Ticker:    records[i].Ticker,
			Signal:    &records[i],
			Timestamp: ts,
		})
		if err != nil {
			return err
		}
		msgs = append(msgs, msg)
	}

	msg, err := message("", SignalEvent{
		EventType: EventScanComplete,
		Summary: &ScanSummary{
			Analyzed:    sum.Analyzed,
			Errored:     sum.Errored,
			Signals:     sum.Signals,
			AvgStrength: sum.AvgStrength,
			AvgRSI:      sum.AvgRSI,
		},
		Timestamp: ts,
	})
	if err != nil {
		return err
	}
	msgs = append(msgs, msg)

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to write messages to kafka topic %s: %w", p.topic, err)
	}
	return nil
}

func message(key string, event SignalEvent) (kafka.Message, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal event: %w", err)
	}
	msg := kafka.Message{Value: data}
	if key != "" {
		msg.Key = []byte(key)
	}
	return msg, nil
}

// Close closes the Kafka writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NoopPublisher is used when no brokers are configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishSignals(context.Context, []model.SignalRecord, model.RunSummary) error {
	return nil
}

func (NoopPublisher) Close() error { return nil }
