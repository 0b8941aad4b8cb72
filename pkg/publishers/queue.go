package publishers

import (
	"context"
	"fmt"
)

// queueSender delivers one run event to a cloud queue or topic.
type queueSender interface {
	Send(ctx context.Context, evt Event) error
}

// senderFactory builds the sender for one queue provider from its config block.
type senderFactory func(ctx context.Context, cfg *QueuePublisherConfig, log Logger) (queueSender, error)

var queueSenders = map[string]senderFactory{
	QueueProviderAWSSQS: func(ctx context.Context, cfg *QueuePublisherConfig, log Logger) (queueSender, error) {
		return newAWSSQSSender(ctx, cfg.AWS, log)
	},
	QueueProviderAWSSNS: func(ctx context.Context, cfg *QueuePublisherConfig, log Logger) (queueSender, error) {
		return newAWSSNSSender(ctx, cfg.SNS, log)
	},
	QueueProviderGCP: func(ctx context.Context, cfg *QueuePublisherConfig, log Logger) (queueSender, error) {
		return newGCPPubSubSender(ctx, cfg.GCP, log)
	},
}

// queuePublisher publishes run events through a provider specific sender.
type queuePublisher struct {
	id       string
	typ      string
	provider string
	sender   queueSender
	log      Logger
}

func newQueuePublisher(ctx context.Context, cfg PublisherConfig, log Logger) (Publisher, error) {
	if cfg.Queue == nil {
		return nil, fmt.Errorf("publisher %q missing queue configuration", cfg.ID)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	factory, ok := queueSenders[cfg.Queue.Provider]
	if !ok {
		return nil, fmt.Errorf("queue provider %q is not supported", cfg.Queue.Provider)
	}
	sender, err := factory(ctx, cfg.Queue, log)
	if err != nil {
		return nil, fmt.Errorf("publisher %q: %w", cfg.ID, err)
	}

	return &queuePublisher{
		id:       cfg.ID,
		typ:      cfg.Type,
		provider: cfg.Queue.Provider,
		sender:   sender,
		log:      ensureLogger(log),
	}, nil
}

func (p *queuePublisher) ID() string   { return p.id }
func (p *queuePublisher) Type() string { return p.typ }

func (p *queuePublisher) Publish(ctx context.Context, evt Event) error {
	if err := p.sender.Send(ctx, evt); err != nil {
		return fmt.Errorf("queue provider %s send failed: %w", p.provider, err)
	}
	p.log.DebugObj("run event queued", "publisher_queue", map[string]any{
		"publisher_id": p.id,
		"provider":     p.provider,
		"run_id":       evt.RunID,
		"outcome":      outcome(evt),
	})
	return nil
}
