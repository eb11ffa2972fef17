// Package worker consumes urgent help reports from Pub/Sub and forwards them
// to responders.
package worker

import (
	"os"
	"strconv"
	"time"
)

// Config holds configuration for the report worker.
type Config struct {
	// ProjectID and SubscriptionName locate the urgent report subscription.
	ProjectID        string
	SubscriptionName string

	// WebhookURL receives each report as JSON. When empty, reports are
	// only logged.
	WebhookURL string

	// Timeout bounds one delivery, retries included.
	// Default: 30 seconds
	Timeout time.Duration

	// MaxRetries is the number of webhook retries per delivery.
	// Default: 3
	MaxRetries uint64

	// DedupeSize is how many recent report IDs are remembered so a
	// redelivered message is not forwarded twice.
	// Default: 1024
	DedupeSize int

	// MaxOutstanding caps messages processed concurrently.
	// Default: 10
	MaxOutstanding int
}

// DefaultConfig returns the default worker configuration.
func DefaultConfig() Config {
	return Config{
		SubscriptionName: "urgent-reports-worker",
		Timeout:          30 * time.Second,
		MaxRetries:       3,
		DedupeSize:       1024,
		MaxOutstanding:   10,
	}
}

// ConfigFromEnv reads PUBSUB_PROJECT_ID, PUBSUB_SUBSCRIPTION,
// RESPONDER_WEBHOOK_URL, DISPATCH_TIMEOUT and DISPATCH_MAX_RETRIES over the
// defaults.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()
	cfg.ProjectID = os.Getenv("PUBSUB_PROJECT_ID")
	if v := os.Getenv("PUBSUB_SUBSCRIPTION"); v != "" {
		cfg.SubscriptionName = v
	}
	cfg.WebhookURL = os.Getenv("RESPONDER_WEBHOOK_URL")
	if d, err := time.ParseDuration(os.Getenv("DISPATCH_TIMEOUT")); err == nil && d > 0 {
		cfg.Timeout = d
	}
	if n, err := strconv.ParseUint(os.Getenv("DISPATCH_MAX_RETRIES"), 10, 64); err == nil {
		cfg.MaxRetries = n
	}
	return cfg
}
