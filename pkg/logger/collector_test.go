package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]AggregatedLogEntry
}

func (p *recordingPublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	entries, ok := payload.([]AggregatedLogEntry)
	if !ok {
		return errors.New("unexpected payload")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, entries)
	return nil
}

func (p *recordingPublisher) snapshot() (string, [][]AggregatedLogEntry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.topic, append([][]AggregatedLogEntry(nil), p.batches...)
}

func TestLogCollectorFoldsDuplicates(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 100,
		Topic:          "macropulse.logs",
		Publisher:      pub,
		Service:        "macropulse",
	})

	fields := map[string]interface{}{"field": "dxy"}
	c.AddLog("error", "field unavailable", fields, "usecase/resolver.go:10")
	c.AddLog("error", "field unavailable", fields, "usecase/resolver.go:10")
	c.AddLog("error", "field unavailable", map[string]interface{}{"field": "inav"}, "usecase/resolver.go:10")
	c.Close()

	topic, batches := pub.snapshot()
	require.Len(t, batches, 1)
	assert.Equal(t, "macropulse.logs", topic)
	require.Len(t, batches[0], 2)

	counts := map[interface{}]int{}
	for _, e := range batches[0] {
		counts[e.Fields["field"]] = e.Count
		assert.Equal(t, "macropulse", e.Service)
	}
	assert.Equal(t, 2, counts["dxy"])
	assert.Equal(t, 1, counts["inav"])
}

func TestLogCollectorFlushesOnThreshold(t *testing.T) {
	pub := &recordingPublisher{}
	c := NewLogCollector(&CollectionConfig{
		TimeInterval:   time.Hour,
		CountThreshold: 2,
		Publisher:      pub,
	})
	defer c.Close()

	c.AddLog("error", "a", nil, "x:1")
	c.AddLog("error", "b", nil, "x:2")

	assert.Eventually(t, func() bool {
		_, batches := pub.snapshot()
		return len(batches) == 1 && len(batches[0]) == 2
	}, time.Second, 10*time.Millisecond)
}

func TestLoggerErrorFeedsCollector(t *testing.T) {
	pub := &recordingPublisher{}
	l := NewNop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 100, Publisher: pub})

	l.Error("upstream down", String("provider", "yahoo"), Error(errors.New("boom")))
	l.Warn("not collected")
	l.RemoveCollector()

	_, batches := pub.snapshot()
	require.Len(t, batches, 1)
	require.Len(t, batches[0], 1)
	assert.Equal(t, "upstream down", batches[0][0].Message)
	assert.Equal(t, "yahoo", batches[0][0].Fields["provider"])
	assert.Equal(t, "boom", batches[0][0].Fields["error"])
}
