package outbox_poller

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shop-backoffice-ledger/internal/config"
	"github.com/shop-backoffice-ledger/internal/domain/outbox"
	"github.com/shop-backoffice-ledger/internal/domain/shared"
)

// Poller relays committed outbox rows to the change feed
type Poller struct {
	outboxRepo  outbox.Repository
	publisher   OutboxPublisher
	logger      *slog.Logger
	interval    time.Duration
	batchSize   int
	maxAttempts int
}

func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	publisher OutboxPublisher,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:  outboxRepo,
		publisher:   publisher,
		logger:      logger,
		interval:    cfg.PollingInterval,
		batchSize:   cfg.BatchSize,
		maxAttempts: cfg.MaxRetryAttempts,
	}
}

// Start polls every interval until ctx is canceled. A tick keeps draining
// while full batches go out cleanly, so a backlog does not wait for the
// next tick.
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting outbox poller",
		"interval", p.interval.String(),
		"batch_size", p.batchSize,
		"max_attempts", p.maxAttempts,
	)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox poller stopped")
			return
		case <-ticker.C:
			for ctx.Err() == nil {
				published, err := p.drain(ctx)
				if err != nil {
					p.logger.Error("Failed to drain outbox", "error", err)
					break
				}
				if published < p.batchSize {
					break
				}
			}
		}
	}
}

// drain publishes one batch in creation order and reports how many messages
// went out. A failing message does not hold back the rest of the batch.
func (p *Poller) drain(ctx context.Context) (int, error) {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to get pending outbox messages: %w", err)
	}

	published := 0
	for _, msg := range messages {
		if err := p.publisher.PublishOutboxMessage(ctx, msg); err != nil {
			p.retryLater(ctx, msg, err)
			continue
		}
		published++
	}

	if len(messages) > 0 {
		p.logger.Debug("Outbox batch relayed", "fetched", len(messages), "published", published)
	}
	return published, nil
}

// retryLater counts the failed attempt and parks the message as
// FAILED_TO_PUBLISH once it used up maxAttempts.
func (p *Poller) retryLater(ctx context.Context, msg *outbox.Message, cause error) {
	logger := p.logger.With("outbox_id", msg.ID, "event_id", msg.EventID.String(), "attempt", msg.Attempts+1)
	logger.Error("Failed to publish outbox message", "error", cause)

	if err := p.outboxRepo.IncrementAttempts(ctx, msg.ID); err != nil {
		logger.Error("Failed to count outbox attempt", "error", err)
		return
	}
	if msg.Attempts+1 < p.maxAttempts {
		return
	}

	logger.Warn("Outbox message gave up, parking it")
	if err := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); err != nil {
		logger.Error("Failed to park outbox message", "error", err)
	}
}
