package kafka

import "time"

// Config holds Kafka producer settings.
type Config struct {
	Brokers []string

	// BatchTimeout bounds how long a writer buffers before flushing.
	// Domain events arrive in small per-turn batches, so the window
	// stays short. Zero means the package default.
	BatchTimeout time.Duration

	// WriteTimeout bounds a single broker write. Zero means the package
	// default.
	WriteTimeout time.Duration
}
