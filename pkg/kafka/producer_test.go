package kafka

import (
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducer_AppliesTimeoutDefaults(t *testing.T) {
	p := NewProducer(Config{Brokers: []string{"localhost:9092"}})
	assert.Equal(t, defaultBatchTimeout, p.batchTimeout)
	assert.Equal(t, defaultWriteTimeout, p.writeTimeout)

	tuned := NewProducer(Config{
		Brokers:      []string{"localhost:9092"},
		BatchTimeout: 5 * time.Millisecond,
		WriteTimeout: 2 * time.Second,
	})
	assert.Equal(t, 5*time.Millisecond, tuned.batchTimeout)
	assert.Equal(t, 2*time.Second, tuned.writeTimeout)
}

func TestWriterFor_ReusesWriterPerTopic(t *testing.T) {
	p := NewProducer(Config{Brokers: []string{"localhost:9092"}})
	defer p.Close()

	w1 := p.writerFor("origination-events")
	w2 := p.writerFor("origination-events")
	assert.Same(t, w1, w2)

	// Keyed messages must stay partition-sticky per conversation.
	require.IsType(t, &kafkago.Hash{}, w1.Balancer)
	assert.Equal(t, kafkago.RequireAll, w1.RequiredAcks)
	assert.Equal(t, p.batchTimeout, w1.BatchTimeout)
}

func TestClose_DropsWriters(t *testing.T) {
	p := NewProducer(Config{Brokers: []string{"localhost:9092"}})
	p.writerFor("origination-events")

	require.NoError(t, p.Close())
	assert.Empty(t, p.writers)
}
