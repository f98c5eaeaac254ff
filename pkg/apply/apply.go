// Package apply feeds an ordered change set through the dual-write
// orchestrator, one entity at a time, and reports every outcome so
// partial success is auditable.
package apply

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/gateway-labs/konnect-sync/pkg/diff"
	"github.com/gateway-labs/konnect-sync/pkg/dualwrite"
	"github.com/gateway-labs/konnect-sync/pkg/gateway"
	"github.com/gateway-labs/konnect-sync/pkg/metrics"
)

// Result is the per-entity outcome of one applied change. Succeeded
// covers the Gateway write only; Konnect state lives in Write/Delete.
type Result struct {
	Change    diff.Change
	Succeeded bool
	Err       error
	Write     *dualwrite.WriteResult
	Delete    *dualwrite.DeleteResult
}

// FullySynced reports whether the change landed in both stores.
func (r Result) FullySynced() bool {
	if r.Write != nil {
		return r.Write.FullySynced()
	}
	if r.Delete != nil {
		return r.Delete.FullySynced()
	}
	return false
}

// Applier applies diff summaries. Changes are applied sequentially in the
// summary's tier order; a single entity's failure is recorded and the
// batch moves on.
type Applier struct {
	orchestrator *dualwrite.Orchestrator
	logger       *zap.SugaredLogger
}

func New(orchestrator *dualwrite.Orchestrator, logger *zap.SugaredLogger) *Applier {
	return &Applier{orchestrator: orchestrator, logger: logger}
}

// Apply walks the summary in order and returns one result per change,
// nothing silently dropped.
func (a *Applier) Apply(ctx context.Context, summary *diff.Summary) []Result {
	runID := uuid.NewString()
	a.logger.Infow("Applying config diff", "runID", runID, "changes", len(summary.Changes))

	results := make([]Result, 0, len(summary.Changes))
	for _, change := range summary.Changes {
		result := a.applyOne(ctx, change)
		if result.Err != nil {
			a.logger.Errorw("Failed to apply change",
				"runID", runID, "entityType", change.EntityType,
				"operation", change.Operation, "identifier", change.Identifier,
				"error", result.Err)
			metrics.AddApplyResult(change.EntityType, string(change.Operation), metrics.ResultFailed, 1)
		} else {
			metrics.AddApplyResult(change.EntityType, string(change.Operation), metrics.ResultSucceeded, 1)
		}
		results = append(results, result)
	}
	return results
}

func (a *Applier) applyOne(ctx context.Context, change diff.Change) Result {
	result := Result{Change: change}
	switch change.Operation {
	case gateway.OperationCreate:
		writeResult, err := a.orchestrator.Create(ctx, change.EntityType, change.Desired)
		if err != nil {
			result.Err = err
			return result
		}
		result.Succeeded = true
		result.Write = &writeResult
	case gateway.OperationUpdate:
		writeResult, err := a.orchestrator.Update(ctx, change.EntityType, targetFor(change), change.Desired)
		if err != nil {
			result.Err = err
			return result
		}
		result.Succeeded = true
		result.Write = &writeResult
	case gateway.OperationDelete:
		deleteResult, err := a.orchestrator.Delete(ctx, change.EntityType, targetFor(change))
		if err != nil {
			result.Err = err
			return result
		}
		result.Succeeded = true
		result.Delete = &deleteResult
	}
	return result
}

// targetFor prefers the live entity's raw id on the Gateway side and
// always carries the correlation key so the orchestrator can locate the
// Konnect copy, whose raw id is assigned independently.
func targetFor(change diff.Change) dualwrite.Target {
	target := dualwrite.Target{Gateway: change.Identifier, Key: change.Identifier}
	if change.Current != nil {
		if id := change.Current.ID(); id != "" {
			target.Gateway = id
		}
	}
	return target
}
