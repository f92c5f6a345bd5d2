// Package trigger implements the upload-event handler that starts the
// orchestrated pipeline exactly once per batch.
package trigger

import (
	"context"
	"errors"

	"github.com/ecommerce/etl/internal/application/readiness"
	"github.com/ecommerce/etl/internal/domain/pipeline"
	"github.com/ecommerce/etl/internal/infrastructure/storage"
	"github.com/ecommerce/etl/internal/infrastructure/workflow"
	"go.uber.org/zap"
)

// Trigger outcome states.
const (
	StateAlreadyTriggered = "already_triggered"
	StateTriggered        = "triggered"
	StateWaiting          = "waiting"
)

// sentinelBody is written into the sentinel object. Only the object's
// existence matters.
const sentinelBody = "pipeline triggered"

// Status is the structured outcome of one upload notification.
type Status struct {
	State     string              `json:"status"`
	RunID     string              `json:"run_id,omitempty"`
	Readiness *pipeline.Readiness `json:"readiness,omitempty"`
	Message   string              `json:"message"`
}

// Service decides whether an upload notification starts the pipeline.
type Service struct {
	store   storage.ObjectStorage
	checker *readiness.Checker
	starter workflow.Starter
	logger  *zap.Logger
}

// NewService creates a trigger Service.
func NewService(store storage.ObjectStorage, starter workflow.Starter, logger *zap.Logger) *Service {
	return &Service{
		store:   store,
		checker: readiness.NewChecker(store),
		starter: starter,
		logger:  logger,
	}
}

// HandleUploadEvent runs the idle-to-triggered transition. The sentinel is
// written with an atomic create-if-absent, so of two notifications racing
// past the readiness check only one can start the pipeline; the loser is
// told the run was already triggered.
func (s *Service) HandleUploadEvent(ctx context.Context) (*Status, error) {
	triggered, err := s.store.Exists(ctx, pipeline.SentinelKey)
	if err != nil {
		return nil, err
	}
	if triggered {
		s.logger.Info("Pipeline already triggered, skipping")
		return &Status{
			State:   StateAlreadyTriggered,
			Message: "pipeline execution has already been triggered",
		}, nil
	}

	ready, err := s.checker.Check(ctx)
	if err != nil {
		return nil, err
	}
	if !ready.AllPresent() {
		s.logger.Info("Waiting for required files",
			zap.Bool("has_products", ready.HasProducts),
			zap.Bool("has_orders", ready.HasOrders),
			zap.Bool("has_order_items", ready.HasOrderItems),
		)
		return &Status{
			State:     StateWaiting,
			Readiness: &ready,
			Message:   "waiting for all required files",
		}, nil
	}

	err = s.store.PutIfAbsent(ctx, pipeline.SentinelKey, []byte(sentinelBody), "text/plain")
	if errors.Is(err, storage.ErrObjectExists) {
		// A concurrent notification won the conditional write.
		s.logger.Info("Lost sentinel race, pipeline already triggered")
		return &Status{
			State:   StateAlreadyTriggered,
			Message: "pipeline execution has already been triggered",
		}, nil
	}
	if err != nil {
		return nil, err
	}

	runID, err := s.starter.StartPipeline(ctx)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Pipeline triggered", zap.String("run_id", runID))
	return &Status{
		State:   StateTriggered,
		RunID:   runID,
		Message: "pipeline execution started",
	}, nil
}
