package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

var compressions = map[string]kafka.Compression{
	"gzip":   kafka.Gzip,
	"snappy": kafka.Snappy,
	"lz4":    kafka.Lz4,
	"zstd":   kafka.Zstd,
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes JSON payloads, mainly the aggregated error-log batches
// flushed by logger.LogCollector.
type Producer struct {
	writer messageWriter
	topic  string
	comp   string
	now    func() time.Time
}

// Message is one keyed record for PublishBatch.
type Message struct {
	Key   []byte
	Value interface{}
}

// NewProducer creates a producer backed by a kafka.Writer.
func NewProducer(opts ...ProducerOption) (*Producer, error) {
	cfg := defaultProducerConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Balancer:               &kafka.LeastBytes{},
		RequiredAcks:           kafka.RequiredAcks(cfg.RequiredAcks),
		Compression:            compressions[cfg.Compression],
		WriteTimeout:           cfg.WriteTimeout,
		BatchTimeout:           cfg.BatchTimeout,
		Async:                  cfg.Async,
		AllowAutoTopicCreation: true,
	}
	return newProducer(w, cfg.Topic, cfg.Compression), nil
}

func newProducer(w messageWriter, topic, comp string) *Producer {
	registerProducerMetrics()
	return &Producer{writer: w, topic: topic, comp: comp, now: time.Now}
}

// Publish sends one record. []byte and string values are sent as-is, anything else as JSON.
func (p *Producer) Publish(ctx context.Context, topic string, key []byte, value interface{}) error {
	return p.write(ctx, topic, []Message{{Key: key, Value: value}})
}

// PublishMessage sends an unkeyed record; it satisfies logger.Publisher.
func (p *Producer) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.Publish(ctx, topic, nil, payload)
}

// PublishBatch sends all messages in one write.
func (p *Producer) PublishBatch(ctx context.Context, topic string, messages []Message) error {
	if len(messages) == 0 {
		return nil
	}
	return p.write(ctx, topic, messages)
}

func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

func (p *Producer) write(ctx context.Context, topic string, messages []Message) error {
	if topic == "" {
		topic = p.topic
	}
	if topic == "" {
		return fmt.Errorf("kafka: no topic")
	}

	start := p.now()
	msgs := make([]kafka.Message, 0, len(messages))
	var size int
	for _, m := range messages {
		v, err := encode(m.Value)
		if err != nil {
			return err
		}
		size += len(v)
		msgs = append(msgs, kafka.Message{Topic: topic, Key: m.Key, Value: v, Time: start})
	}

	err := p.writer.WriteMessages(ctx, msgs...)
	observePublish(topic, p.comp, size, len(msgs), time.Since(start), err)
	if err != nil {
		return fmt.Errorf("kafka: write %d message(s) to %s: %w", len(msgs), topic, err)
	}
	return nil
}

func encode(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		b, err := json.Marshal(value)
		if err != nil {
			return nil, fmt.Errorf("kafka: marshal value: %w", err)
		}
		return b, nil
	}
}

var (
	producerMetricsOnce sync.Once
	publishedTotal      *prometheus.CounterVec
	publishedBytes      *prometheus.CounterVec
	publishSeconds      *prometheus.HistogramVec
)

func registerProducerMetrics() {
	producerMetricsOnce.Do(func() {
		publishedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "macropulse_kafka_producer_messages_total",
			Help: "Messages published to Kafka by result.",
		}, []string{"topic", "compression", "result"})
		publishedBytes = promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "macropulse_kafka_producer_bytes_total",
			Help: "Payload bytes published to Kafka.",
		}, []string{"topic", "compression"})
		publishSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "macropulse_kafka_producer_publish_seconds",
			Help:    "Kafka write latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"topic"})
	})
}

func observePublish(topic, comp string, size, count int, d time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	publishedTotal.WithLabelValues(topic, comp, result).Add(float64(count))
	if err == nil {
		publishedBytes.WithLabelValues(topic, comp).Add(float64(size))
	}
	publishSeconds.WithLabelValues(topic).Observe(d.Seconds())
}
