// Package notifications hands verification codes to a delivery channel.
// Delivery itself happens outside this service.
package notifications

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"promisetracker/pkg/requestcontext"
)

// VerificationMessage is the record value published for each code.
type VerificationMessage struct {
	Email       string    `json:"email"`
	Code        string    `json:"code"`
	RequestedAt time.Time `json:"requested_at"`
	RequestID   string    `json:"request_id,omitempty"`
}

// Producer is the subset of *kgo.Client used for publishing.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaDispatcher publishes verification messages keyed by email so codes for
// one address stay ordered on a partition. Retries are bounded by the
// producer's RecordRetries setting.
type KafkaDispatcher struct {
	producer Producer
	topic    string
	logger   *slog.Logger
}

func NewKafkaDispatcher(producer Producer, topic string, logger *slog.Logger) *KafkaDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &KafkaDispatcher{producer: producer, topic: topic, logger: logger}
}

func (d *KafkaDispatcher) SendVerificationEmail(ctx context.Context, email, code string) error {
	value, err := json.Marshal(VerificationMessage{
		Email:       email,
		Code:        code,
		RequestedAt: requestcontext.Now(ctx).UTC(),
		RequestID:   requestcontext.RequestID(ctx),
	})
	if err != nil {
		return fmt.Errorf("encode verification message: %w", err)
	}

	record := &kgo.Record{Topic: d.topic, Key: []byte(email), Value: value}
	if err := d.producer.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("publish verification message: %w", err)
	}

	d.logger.DebugContext(ctx, "verification message published",
		"topic", d.topic,
		"partition", record.Partition,
		"offset", record.Offset,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}

// LogDispatcher records the code in the log. Used when no broker is configured.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) SendVerificationEmail(ctx context.Context, email, code string) error {
	d.logger.InfoContext(ctx, "verification email queued",
		"email", email,
		"code", code,
		"request_id", requestcontext.RequestID(ctx),
	)
	return nil
}
