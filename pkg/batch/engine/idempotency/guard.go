// Package idempotency implements the execution guard that decides whether a
// keyed request may run, replays the cached result of a completed run, or
// rejects a duplicate submission.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	port "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/application/port"
	config "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/config"
	model "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/model"
	repository "github.com/pkanduri1/fabric-platform-sub001/pkg/batch/core/domain/repository"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/exception"
	"github.com/pkanduri1/fabric-platform-sub001/pkg/batch/support/util/logger"
)

const moduleName = "idempotency"

// DefaultIdempotencyGuard implements port.IdempotencyGuard over the idempotency
// record store. Every status move goes through a compare-and-set update keyed
// on the status the guard last read, so two callers racing on the same key can
// never both win the claim: the loser's update fails as an optimistic locking
// conflict and is reported as a CONFLICT decision.
type DefaultIdempotencyGuard struct {
	repo     repository.Idempotency
	cooldown time.Duration
	ttl      time.Duration
	now      func() time.Time
}

// NewDefaultIdempotencyGuard creates a guard using the configured retry
// cooldown and record TTL. A TTL of zero disables expiry.
func NewDefaultIdempotencyGuard(cfg *config.Config, repo repository.Idempotency) *DefaultIdempotencyGuard {
	return &DefaultIdempotencyGuard{
		repo:     repo,
		cooldown: time.Duration(cfg.Fabric.Batch.RetryCooldownSeconds) * time.Second,
		ttl:      time.Duration(cfg.Fabric.Batch.Idempotency.TTLHours) * time.Hour,
		now:      time.Now,
	}
}

// Verify interfaces
var _ port.IdempotencyGuard = (*DefaultIdempotencyGuard)(nil)

// Begin claims the key for the given execution.
//
// A key with no record (or only an expired one) is claimed and PROCEED is
// returned. A COMPLETED key replays its stored result as RETURN_CACHED without
// executing anything. A PENDING or IN_PROGRESS key is a duplicate concurrent
// submission and yields CONFLICT, as does a FAILED key still inside its retry
// cooldown; a FAILED key past the cooldown is reclaimed. Reusing a key with a
// different fingerprint is surfaced as a RequestConflictException rather than
// silently replaying the cache.
func (g *DefaultIdempotencyGuard) Begin(ctx context.Context, key, fingerprint, executionID string) (model.IdempotencyDecision, error) {
	record, err := g.repo.FindIdempotencyRecordByKey(ctx, key)
	if err != nil {
		if errors.Is(err, repository.ErrIdempotencyRecordNotFound) {
			return g.claim(ctx, key, fingerprint, executionID)
		}
		return model.IdempotencyDecision{}, exception.NewInfrastructureError(
			moduleName, fmt.Sprintf("failed to look up idempotency key '%s'", key), err)
	}

	if record.IsExpired(g.now()) {
		// An expired record no longer binds the key; the claim starts over.
		if err := g.repo.DeleteIdempotencyRecord(ctx, key); err != nil {
			return model.IdempotencyDecision{}, exception.NewInfrastructureError(
				moduleName, fmt.Sprintf("failed to remove expired idempotency key '%s'", key), err)
		}
		logger.Debugf("Idempotency key '%s' expired at %s; reclaiming.", key, record.ExpiresAt.Format(time.RFC3339))
		return g.claim(ctx, key, fingerprint, executionID)
	}

	if record.Fingerprint != fingerprint {
		return model.IdempotencyDecision{Outcome: model.OutcomeConflict}, exception.NewRequestConflictError(
			moduleName, fmt.Sprintf("idempotency key '%s' was first used with different request content", key))
	}

	switch record.Status {
	case model.IdempotencyStatusCompleted:
		logger.Infof("Idempotency key '%s' already completed; returning cached result without executing.", key)
		return model.IdempotencyDecision{Outcome: model.OutcomeReturnCached, CachedResult: record.Result}, nil

	case model.IdempotencyStatusPending, model.IdempotencyStatusInProgress:
		logger.Warnf("Idempotency key '%s' is %s; rejecting duplicate submission.", key, record.Status)
		return model.IdempotencyDecision{Outcome: model.OutcomeConflict}, nil

	case model.IdempotencyStatusFailed:
		return g.reclaimFailed(ctx, record, executionID)

	default:
		return model.IdempotencyDecision{}, exception.NewBatchError(
			moduleName, fmt.Sprintf("idempotency key '%s' has unknown status '%s'", key, record.Status), nil, false, false)
	}
}

// claim creates a fresh PENDING record for the key and immediately moves it to
// IN_PROGRESS. Losing either step to a concurrent caller yields CONFLICT.
func (g *DefaultIdempotencyGuard) claim(ctx context.Context, key, fingerprint, executionID string) (model.IdempotencyDecision, error) {
	record := model.NewIdempotencyRecord(key, fingerprint)
	record.ExecutionID = executionID
	if g.ttl > 0 {
		expiresAt := g.now().Add(g.ttl)
		record.ExpiresAt = &expiresAt
	}

	if err := g.repo.CreateIdempotencyRecord(ctx, record); err != nil {
		if errors.Is(err, repository.ErrIdempotencyKeyExists) {
			logger.Warnf("Idempotency key '%s' was claimed concurrently; rejecting duplicate submission.", key)
			return model.IdempotencyDecision{Outcome: model.OutcomeConflict}, nil
		}
		return model.IdempotencyDecision{}, exception.NewInfrastructureError(
			moduleName, fmt.Sprintf("failed to create idempotency record for key '%s'", key), err)
	}

	if err := record.TransitionTo(model.IdempotencyStatusInProgress); err != nil {
		return model.IdempotencyDecision{}, exception.NewBatchError(
			moduleName, fmt.Sprintf("failed to transition idempotency key '%s'", key), err, false, false)
	}
	if err := g.repo.UpdateIdempotencyRecord(ctx, record, model.IdempotencyStatusPending); err != nil {
		if repository.IsOptimisticConflict(err) {
			logger.Warnf("Idempotency key '%s' moved concurrently before the claim settled; rejecting.", key)
			return model.IdempotencyDecision{Outcome: model.OutcomeConflict}, nil
		}
		return model.IdempotencyDecision{}, exception.NewInfrastructureError(
			moduleName, fmt.Sprintf("failed to claim idempotency key '%s'", key), err)
	}

	logger.Debugf("Idempotency key '%s' claimed by execution %s.", key, executionID)
	return model.IdempotencyDecision{Outcome: model.OutcomeProceed}, nil
}

// reclaimFailed retries a FAILED key once its cooldown has elapsed. Within the
// cooldown the key stays claimed and the caller gets CONFLICT.
func (g *DefaultIdempotencyGuard) reclaimFailed(ctx context.Context, record *model.IdempotencyRecord, executionID string) (model.IdempotencyDecision, error) {
	settledAt := record.CreatedAt
	if record.ProcessedAt != nil {
		settledAt = *record.ProcessedAt
	}
	if remaining := g.cooldown - g.now().Sub(settledAt); remaining > 0 {
		logger.Warnf("Idempotency key '%s' failed recently; %s of the retry cooldown remains.", record.Key, remaining.Round(time.Second))
		return model.IdempotencyDecision{Outcome: model.OutcomeConflict}, nil
	}

	if err := record.TransitionTo(model.IdempotencyStatusInProgress); err != nil {
		return model.IdempotencyDecision{}, exception.NewBatchError(
			moduleName, fmt.Sprintf("failed to transition idempotency key '%s'", record.Key), err, false, false)
	}
	record.ExecutionID = executionID
	record.FailureReason = ""
	record.ProcessedAt = nil
	if g.ttl > 0 {
		expiresAt := g.now().Add(g.ttl)
		record.ExpiresAt = &expiresAt
	}

	if err := g.repo.UpdateIdempotencyRecord(ctx, record, model.IdempotencyStatusFailed); err != nil {
		if repository.IsOptimisticConflict(err) {
			logger.Warnf("Idempotency key '%s' was reclaimed concurrently; rejecting duplicate retry.", record.Key)
			return model.IdempotencyDecision{Outcome: model.OutcomeConflict}, nil
		}
		return model.IdempotencyDecision{}, exception.NewInfrastructureError(
			moduleName, fmt.Sprintf("failed to reclaim idempotency key '%s'", record.Key), err)
	}

	logger.Infof("Idempotency key '%s' reclaimed after cooldown by execution %s.", record.Key, executionID)
	return model.IdempotencyDecision{Outcome: model.OutcomeProceed}, nil
}

// Complete settles the key after a successful execution and stores the result
// payload for replay to later callers of the same key. The record's expiry is
// refreshed so the cached result stays available for the full TTL after settle.
func (g *DefaultIdempotencyGuard) Complete(ctx context.Context, key string, result []byte) error {
	record, err := g.repo.FindIdempotencyRecordByKey(ctx, key)
	if err != nil {
		return exception.NewInfrastructureError(
			moduleName, fmt.Sprintf("failed to load idempotency key '%s' for completion", key), err)
	}
	priorStatus := record.Status
	if err := record.TransitionTo(model.IdempotencyStatusCompleted); err != nil {
		return exception.NewBatchError(
			moduleName, fmt.Sprintf("idempotency key '%s' cannot be completed from status '%s'", key, priorStatus), err, false, false)
	}

	now := g.now()
	record.Result = result
	record.ProcessedAt = &now
	if g.ttl > 0 {
		expiresAt := now.Add(g.ttl)
		record.ExpiresAt = &expiresAt
	}

	if err := g.repo.UpdateIdempotencyRecord(ctx, record, priorStatus); err != nil {
		return exception.NewInfrastructureError(
			moduleName, fmt.Sprintf("failed to settle idempotency key '%s' as completed", key), err)
	}
	logger.Debugf("Idempotency key '%s' completed; result cached for replay.", key)
	return nil
}

// Fail settles the key after a failed execution. The key becomes claimable
// again once the retry cooldown, measured from this settle, has elapsed.
func (g *DefaultIdempotencyGuard) Fail(ctx context.Context, key string, reason string) error {
	record, err := g.repo.FindIdempotencyRecordByKey(ctx, key)
	if err != nil {
		return exception.NewInfrastructureError(
			moduleName, fmt.Sprintf("failed to load idempotency key '%s' for failure", key), err)
	}
	priorStatus := record.Status
	if err := record.TransitionTo(model.IdempotencyStatusFailed); err != nil {
		return exception.NewBatchError(
			moduleName, fmt.Sprintf("idempotency key '%s' cannot be failed from status '%s'", key, priorStatus), err, false, false)
	}

	now := g.now()
	record.FailureReason = reason
	record.ProcessedAt = &now

	if err := g.repo.UpdateIdempotencyRecord(ctx, record, priorStatus); err != nil {
		return exception.NewInfrastructureError(
			moduleName, fmt.Sprintf("failed to settle idempotency key '%s' as failed", key), err)
	}
	logger.Debugf("Idempotency key '%s' failed: %s", key, reason)
	return nil
}
