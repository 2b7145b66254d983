package kafka

import (
	"errors"
	"time"

	"github.com/segmentio/kafka-go"
)

// ProducerOption configures Producer.
type ProducerOption func(*ProducerConfig)

// ProducerConfig holds producer configuration.
type ProducerConfig struct {
	Brokers      []string
	Topic        string // used when a publish call passes an empty topic
	RequiredAcks int
	Compression  string
	WriteTimeout time.Duration
	BatchTimeout time.Duration
	Async        bool
}

func defaultProducerConfig() *ProducerConfig {
	return &ProducerConfig{
		RequiredAcks: int(kafka.RequireOne),
		Compression:  "gzip",
		WriteTimeout: 10 * time.Second,
		BatchTimeout: time.Second,
	}
}

func (c *ProducerConfig) validate() error {
	if len(c.Brokers) == 0 {
		return errors.New("kafka: brokers are required")
	}
	if _, ok := compressions[c.Compression]; !ok {
		return errors.New("kafka: unknown compression " + c.Compression)
	}
	return nil
}

// WithBrokers sets Kafka brokers.
func WithBrokers(brokers []string) ProducerOption {
	return func(c *ProducerConfig) { c.Brokers = brokers }
}

// WithTopic sets the fallback topic.
func WithTopic(topic string) ProducerOption {
	return func(c *ProducerConfig) { c.Topic = topic }
}

// WithCompression sets the codec: gzip, snappy, lz4 or zstd.
func WithCompression(compression string) ProducerOption {
	return func(c *ProducerConfig) { c.Compression = compression }
}

// WithRequiredAcks sets required acknowledgements (-1 = all).
func WithRequiredAcks(acks int) ProducerOption {
	return func(c *ProducerConfig) { c.RequiredAcks = acks }
}

func WithWriteTimeout(d time.Duration) ProducerOption {
	return func(c *ProducerConfig) { c.WriteTimeout = d }
}

func WithBatchTimeout(d time.Duration) ProducerOption {
	return func(c *ProducerConfig) { c.BatchTimeout = d }
}

// WithAsync makes writes fire-and-forget.
func WithAsync(async bool) ProducerOption {
	return func(c *ProducerConfig) { c.Async = async }
}
