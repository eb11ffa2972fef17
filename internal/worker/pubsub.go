package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"

	"github.com/saferoute/saferoute/internal/mapdata"
)

// ErrInvalidMessage marks a message that can never be processed. Such
// messages are acked so they are not redelivered forever.
var ErrInvalidMessage = errors.New("invalid message")

// JobTypeHealthCheck is a no-op job used to probe the subscription.
const JobTypeHealthCheck = "health_check"

// PubSubHandler handles Pub/Sub messages for the worker.
type PubSubHandler struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	dispatcher       *Dispatcher
	logger           zerolog.Logger
}

// PubSubConfig holds configuration for the Pub/Sub handler.
type PubSubConfig struct {
	ProjectID        string
	SubscriptionName string
	MaxOutstanding   int
	Dispatcher       *Dispatcher
	Logger           zerolog.Logger
}

// NewPubSubHandler creates a new Pub/Sub handler.
func NewPubSubHandler(ctx context.Context, cfg PubSubConfig) (*PubSubHandler, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	maxOutstanding := cfg.MaxOutstanding
	if maxOutstanding <= 0 {
		maxOutstanding = DefaultConfig().MaxOutstanding
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)
	subscriber.ReceiveSettings.MaxOutstandingMessages = maxOutstanding
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubHandler{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		dispatcher:       cfg.Dispatcher,
		logger:           cfg.Logger,
	}, nil
}

// Start processes messages until ctx is done.
func (h *PubSubHandler) Start(ctx context.Context) error {
	h.logger.Info().
		Str("subscription", h.subscriptionName).
		Msg("starting pubsub handler")

	return h.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		h.handleMessage(ctx, msg)
	})
}

// Close closes the Pub/Sub client.
func (h *PubSubHandler) Close() error {
	return h.client.Close()
}

func (h *PubSubHandler) handleMessage(ctx context.Context, msg *pubsub.Message) {
	logger := h.logger.With().
		Str("message_id", msg.ID).
		Str("publish_time", msg.PublishTime.Format(time.RFC3339)).
		Logger()

	if err := Process(ctx, h.dispatcher, msg.Data, logger); err != nil {
		if errors.Is(err, ErrInvalidMessage) {
			logger.Error().Err(err).Msg("dropping unprocessable message")
			msg.Ack()
			return
		}
		logger.Error().Err(err).Msg("job failed")
		msg.Nack()
		return
	}
	msg.Ack()
}

// Process handles one message body. Errors wrapping ErrInvalidMessage
// should be acked; any other error should be retried.
func Process(ctx context.Context, d *Dispatcher, data []byte, logger zerolog.Logger) error {
	var msg mapdata.ReportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	switch msg.JobType {
	case mapdata.JobTypeUrgentReport:
		if msg.Report == nil || msg.Report.ID == "" {
			return fmt.Errorf("%w: urgent_report without a report id", ErrInvalidMessage)
		}
		return d.Dispatch(ctx, msg.Report)
	case JobTypeHealthCheck:
		logger.Debug().Msg("health check message received")
		return nil
	default:
		logger.Warn().Str("job_type", msg.JobType).Msg("unknown job type")
		return nil
	}
}
