package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/panjf2000/ants/v2"

	"github.com/shop-backoffice-ledger/internal/domain/operation"
)

type WorkerPoolConfig struct {
	Size int
}

// WorkerPoolProcessingService bounds how many operations run at once. Each
// caller blocks until its own operation is done, so a Kafka offset is only
// committed after the ledger was written.
type WorkerPoolProcessingService struct {
	next     ProcessingService
	pool     *ants.Pool
	logger   *slog.Logger
	inFlight atomic.Int64
}

func NewWorkerPoolProcessingService(
	next ProcessingService,
	cfg WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolProcessingService, error) {
	pool, err := ants.NewPool(cfg.Size)
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool of size %d: %w", cfg.Size, err)
	}

	return &WorkerPoolProcessingService{
		next:   next,
		pool:   pool,
		logger: logger,
	}, nil
}

func (s *WorkerPoolProcessingService) ProcessOperation(ctx context.Context, request *operation.Request) error {
	logger := s.logger.With("operation_id", request.OperationID.String(), "type", string(request.Type))

	req := *request
	done := make(chan error, 1)

	s.inFlight.Add(1)
	err := s.pool.Submit(func() {
		err := s.run(ctx, &req)
		s.inFlight.Add(-1)
		done <- err
	})
	if err != nil {
		s.inFlight.Add(-1)
		logger.Error("Failed to submit operation to worker pool", "error", err)
		return fmt.Errorf("failed to submit operation: %w", err)
	}

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		logger.Warn("Stopped waiting for operation", "error", ctx.Err())
		return ctx.Err()
	}
}

// run turns a panic of the operation into an error for the waiting caller
func (s *WorkerPoolProcessingService) run(ctx context.Context, request *operation.Request) (err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Operation panicked", "operation_id", request.OperationID.String(), "panic", r)
			err = fmt.Errorf("operation %s panicked: %v", request.OperationID, r)
		}
	}()
	return s.next.ProcessOperation(ctx, request)
}

// InFlight is the number of submitted operations that have not returned yet
func (s *WorkerPoolProcessingService) InFlight() int {
	return int(s.inFlight.Load())
}

func (s *WorkerPoolProcessingService) Shutdown() {
	s.logger.Info("Releasing worker pool", "running_workers", s.pool.Running(), "in_flight", s.InFlight())
	s.pool.Release()
}

func (s *WorkerPoolProcessingService) Running() int {
	return s.pool.Running()
}

func (s *WorkerPoolProcessingService) Capacity() int {
	return s.pool.Cap()
}
