package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/fracbond-investment-ledger/internal/domain/shared"
)

// WorkerPoolRecordingService implements the RecordingService interface by
// fanning event recording out to a bounded worker pool
type WorkerPoolRecordingService struct {
	baseService RecordingService
	pool        *ants.Pool
	logger      *slog.Logger
	// Use a mutex to protect access to the results map
	mu      sync.Mutex
	results map[string]chan error
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolRecordingService(
	baseService RecordingService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolRecordingService, error) {
	// Create a new worker pool with the specified size
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolRecordingService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
		results:     make(map[string]chan error),
	}, nil
}

// RecordEvent submits an event to the worker pool for recording and waits
// for the result, so the caller can decide whether to commit the Kafka
// offset.
func (s *WorkerPoolRecordingService) RecordEvent(ctx context.Context, event *shared.LedgerEvent) error {
	logger := s.logger
	if event.CorrelationID != "" {
		logger = s.logger.With("correlation_id", event.CorrelationID)
	}

	logger.Info("Submitting event to worker pool",
		"event_id", event.EventID.String(),
		"bond_id", event.BondID,
	)

	// Create a channel to receive the result of the recording
	resultChan := make(chan error, 1)

	eventID := event.EventID.String()
	s.mu.Lock()
	s.results[eventID] = resultChan
	s.mu.Unlock()

	// Create a copy of the event to avoid data races
	eventCopy := *event

	// Submit the task to the worker pool
	err := s.pool.Submit(func() {
		err := s.baseService.RecordEvent(ctx, &eventCopy)

		resultChan <- err

		s.mu.Lock()
		delete(s.results, eventID)
		close(resultChan)
		s.mu.Unlock()
	})

	if err != nil {
		// If we couldn't submit the task to the pool, remove the result channel
		s.mu.Lock()
		delete(s.results, eventID)
		close(resultChan)
		s.mu.Unlock()

		logger.Error("Failed to submit event to worker pool",
			"event_id", event.EventID.String(),
			"error", err,
		)
		return err
	}

	// Wait for the result from the worker
	return <-resultChan
}

// Shutdown gracefully shuts down the worker pool.
func (s *WorkerPoolRecordingService) Shutdown() {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolRecordingService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolRecordingService) Capacity() int {
	return s.pool.Cap()
}
