package kafka

import (
	"context"
	"fmt"
	"sync"
	"time"

	kafkago "github.com/segmentio/kafka-go"
)

const (
	defaultBatchTimeout = 25 * time.Millisecond
	defaultWriteTimeout = 10 * time.Second
)

// Message is one record to publish. Headers carry event metadata such as
// the event type and id; the key carries the aggregate id so all events of
// one conversation land on the same partition.
type Message struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Producer publishes messages through one lazily created kafka-go writer
// per topic. It is safe for concurrent use.
type Producer struct {
	brokers      []string
	batchTimeout time.Duration
	writeTimeout time.Duration

	mu      sync.Mutex
	writers map[string]*kafkago.Writer
}

// NewProducer creates a Producer from the given config, filling unset
// timeouts with the package defaults.
func NewProducer(cfg Config) *Producer {
	batchTimeout := cfg.BatchTimeout
	if batchTimeout == 0 {
		batchTimeout = defaultBatchTimeout
	}
	writeTimeout := cfg.WriteTimeout
	if writeTimeout == 0 {
		writeTimeout = defaultWriteTimeout
	}
	return &Producer{
		brokers:      cfg.Brokers,
		batchTimeout: batchTimeout,
		writeTimeout: writeTimeout,
		writers:      make(map[string]*kafkago.Writer),
	}
}

// Publish writes the messages to the topic in one batch.
func (p *Producer) Publish(ctx context.Context, topic string, messages ...Message) error {
	if len(messages) == 0 {
		return nil
	}
	w := p.writerFor(topic)

	records := make([]kafkago.Message, len(messages))
	for i, msg := range messages {
		headers := make([]kafkago.Header, 0, len(msg.Headers))
		for k, v := range msg.Headers {
			headers = append(headers, kafkago.Header{Key: k, Value: []byte(v)})
		}
		records[i] = kafkago.Message{
			Key:     msg.Key,
			Value:   msg.Value,
			Headers: headers,
		}
	}

	if err := w.WriteMessages(ctx, records...); err != nil {
		return fmt.Errorf("kafka publish to %s: %w", topic, err)
	}
	return nil
}

// Close shuts down every topic writer and reports the first failure.
func (p *Producer) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var firstErr error
	for topic, w := range p.writers {
		if err := w.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing writer for topic %s: %w", topic, err)
		}
	}
	p.writers = make(map[string]*kafkago.Writer)
	return firstErr
}

func (p *Producer) writerFor(topic string) *kafkago.Writer {
	p.mu.Lock()
	defer p.mu.Unlock()

	if w, ok := p.writers[topic]; ok {
		return w
	}

	w := &kafkago.Writer{
		Addr:         kafkago.TCP(p.brokers...),
		Topic:        topic,
		Balancer:     &kafkago.Hash{},
		BatchTimeout: p.batchTimeout,
		WriteTimeout: p.writeTimeout,
		RequiredAcks: kafkago.RequireAll,
	}
	p.writers[topic] = w
	return w
}
