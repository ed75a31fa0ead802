// Package audit writes an optional delivery trail to Kafka. Publishing is
// best effort: a broker outage never affects event dispatch.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/alttch/roboger/internal/config"
	"github.com/alttch/roboger/internal/logger"
)

// Record is one dispatch outcome.
type Record struct {
	EventID    string    `json:"event_id"`
	AddrID     string    `json:"addr_id"`
	EndpointID string    `json:"endpoint_id,omitempty"`
	Plugin     string    `json:"plugin,omitempty"`
	Level      int       `json:"level"`
	Location   string    `json:"location,omitempty"`
	Status     string    `json:"status"`
	Matched    int       `json:"matched,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

type Producer interface {
	Publish(ctx context.Context, rec Record)
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
	logger logger.Logger
}

// NewProducer returns a Kafka-backed producer, or a no-op one when no
// brokers are configured.
func NewProducer(cfg config.AuditConfig, log logger.Logger) Producer {
	if len(cfg.Brokers) == 0 {
		return nopProducer{}
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		Async:        true,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			log.Warnf("audit writer: "+msg, args...)
		}),
	}

	return &kafkaProducer{writer: writer, logger: log}
}

func (p *kafkaProducer) Publish(ctx context.Context, rec Record) {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	value, err := json.Marshal(rec)
	if err != nil {
		p.logger.WarnwCtx(ctx, "audit record marshal failed", "error", err)
		return
	}

	// Async writer, errors surface through ErrorLogger.
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(rec.AddrID),
		Value: value,
	})
	if err != nil {
		p.logger.WarnwCtx(ctx, "audit publish failed", "error", err)
	}
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}

type nopProducer struct{}

func (nopProducer) Publish(context.Context, Record) {}

func (nopProducer) Close() error { return nil }
