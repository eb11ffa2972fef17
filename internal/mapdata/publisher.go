package mapdata

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// Publisher fans out urgent reports to responders.
type Publisher interface {
	Publish(ctx context.Context, report *UrgentReport) error
}

// PubSubConfig holds configuration for the Pub/Sub publisher.
type PubSubConfig struct {
	ProjectID string
	TopicName string
	Logger    zerolog.Logger
}

// ReportMessage is the Pub/Sub payload for an urgent report.
type ReportMessage struct {
	JobType string        `json:"job_type"`
	Report  *UrgentReport `json:"report"`
}

// JobTypeUrgentReport is the job type of urgent report messages.
const JobTypeUrgentReport = "urgent_report"

// PubSubPublisher publishes urgent reports to a Pub/Sub topic.
type PubSubPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	topicName string
	logger    zerolog.Logger
}

// NewPubSubPublisher creates a publisher for cfg.TopicName.
func NewPubSubPublisher(ctx context.Context, cfg PubSubConfig) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &PubSubPublisher{
		client:    client,
		publisher: client.Publisher(cfg.TopicName),
		topicName: cfg.TopicName,
		logger:    cfg.Logger,
	}, nil
}

// Publish sends report and waits for the server to acknowledge it.
func (p *PubSubPublisher) Publish(ctx context.Context, report *UrgentReport) error {
	data, err := json.Marshal(ReportMessage{JobType: JobTypeUrgentReport, Report: report})
	if err != nil {
		return fmt.Errorf("encoding report message: %w", err)
	}

	res := p.publisher.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"job_type":  JobTypeUrgentReport,
			"report_id": report.ID,
		},
	})

	msgID, err := res.Get(ctx)
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", p.topicName, err)
	}

	p.logger.Debug().
		Str("message_id", msgID).
		Str("report_id", report.ID).
		Str("topic", p.topicName).
		Msg("urgent report published")
	return nil
}

// Close flushes pending messages and closes the client.
func (p *PubSubPublisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}
