// Package diff computes the minimal ordered change set that takes the
// live gateway configuration to a desired-state document.
package diff

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gateway-labs/konnect-sync/pkg/client"
	"github.com/gateway-labs/konnect-sync/pkg/declarative"
	"github.com/gateway-labs/konnect-sync/pkg/fielddiff"
	"github.com/gateway-labs/konnect-sync/pkg/gateway"
	"github.com/gateway-labs/konnect-sync/pkg/identity"
	"github.com/gateway-labs/konnect-sync/pkg/metrics"
)

// FieldChange records one differing field of an update.
type FieldChange struct {
	Old interface{} `json:"old"`
	New interface{} `json:"new"`
}

// Change is one unit of required change. Current is nil iff the operation
// is a create, Desired is nil iff it is a delete, and FieldChanges is
// populated only for updates.
type Change struct {
	EntityType   string
	Operation    gateway.Operation
	Identifier   string
	Current      gateway.Entity
	Desired      gateway.Entity
	FieldChanges map[string]FieldChange
}

// OperationCounts aggregates one entity type's changes for reporting.
type OperationCounts struct {
	Creates   int `json:"creates"`
	Updates   int `json:"updates"`
	Deletes   int `json:"deletes"`
	Unchanged int `json:"unchanged"`
}

// Summary is the full ordered change list plus per-type counts. Changes
// are already in apply order: creates and updates walk the dependency
// tiers forward, deletes walk them backward, so deleting a service never
// races ahead of deleting its routes.
type Summary struct {
	Changes []Change
	Counts  map[string]OperationCounts
}

// Empty reports whether nothing needs to change.
func (s *Summary) Empty() bool {
	return len(s.Changes) == 0
}

// Engine matches desired entities against live listings by correlation
// key and classifies each as create, update, delete or unchanged.
type Engine struct {
	logger *zap.SugaredLogger
}

func NewEngine(logger *zap.SugaredLogger) *Engine {
	return &Engine{logger: logger}
}

// Run lists every configured entity type from the backend and diffs the
// desired document against the listings.
func (e *Engine) Run(ctx context.Context, desired *declarative.Content, api client.AdminAPI) (*Summary, error) {
	listStart := time.Now()
	live := map[string][]gateway.Entity{}
	for _, entityType := range gateway.Types() {
		entities, err := api.ListAll(ctx, entityType, nil)
		if err != nil {
			return nil, fmt.Errorf("error listing %s: %w", entityType, err)
		}
		live[entityType] = entities
	}
	metrics.SetDiffDuration("list", time.Since(listStart).Seconds())

	diffStart := time.Now()
	summary, err := e.Diff(desired, live)
	metrics.SetDiffDuration("diff", time.Since(diffStart).Seconds())
	return summary, err
}

// Diff compares a desired document against per-type live listings.
func (e *Engine) Diff(desired *declarative.Content, live map[string][]gateway.Entity) (*Summary, error) {
	summary := &Summary{Counts: map[string]OperationCounts{}}

	var deletes []Change
	for _, tier := range gateway.Tiers {
		for _, entityType := range tier {
			creates, updates, tierDeletes, unchanged, err := e.diffType(entityType, desired.EntitiesOf(entityType), live[entityType])
			if err != nil {
				return nil, err
			}
			summary.Changes = append(summary.Changes, creates...)
			summary.Changes = append(summary.Changes, updates...)
			// Deletes are collected and emitted tier-reversed below.
			deletes = append(tierDeletes, deletes...)
			summary.Counts[entityType] = OperationCounts{
				Creates:   len(creates),
				Updates:   len(updates),
				Deletes:   len(tierDeletes),
				Unchanged: unchanged,
			}
		}
	}
	summary.Changes = append(summary.Changes, deletes...)

	e.logger.Debugw("Computed config diff", "changes", len(summary.Changes))
	return summary, nil
}

func (e *Engine) diffType(entityType string, desired, live []gateway.Entity) (creates, updates, deletes []Change, unchanged int, err error) {
	liveByKey, unkeyedLive, err := identity.KeyBy(entityType, live)
	if err != nil {
		return nil, nil, nil, 0, fmt.Errorf("error keying live %s: %w", entityType, err)
	}
	for _, entity := range unkeyedLive {
		e.logger.Warnw("Live entity has no correlation key, skipping",
			"entityType", entityType, "id", entity.ID())
	}

	matched := map[string]bool{}
	for _, desiredEntity := range desired {
		key, keyErr := identity.Key(entityType, desiredEntity)
		if keyErr != nil {
			return nil, nil, nil, 0, fmt.Errorf("error keying desired %s: %w", entityType, keyErr)
		}
		if key == "" {
			return nil, nil, nil, 0, fmt.Errorf("desired %s entry has no identifying field", entityType)
		}

		liveEntity, exists := liveByKey[key]
		if !exists {
			creates = append(creates, Change{
				EntityType: entityType,
				Operation:  gateway.OperationCreate,
				Identifier: key,
				Desired:    desiredEntity.Clone(),
			})
			continue
		}
		matched[key] = true

		fieldChanges := compareEntities(desiredEntity, liveEntity)
		if len(fieldChanges) == 0 {
			unchanged++
			continue
		}
		updates = append(updates, Change{
			EntityType:   entityType,
			Operation:    gateway.OperationUpdate,
			Identifier:   key,
			Current:      liveEntity.Clone(),
			Desired:      desiredEntity.Clone(),
			FieldChanges: fieldChanges,
		})
	}

	for key, liveEntity := range liveByKey {
		if matched[key] {
			continue
		}
		deletes = append(deletes, Change{
			EntityType: entityType,
			Operation:  gateway.OperationDelete,
			Identifier: key,
			Current:    liveEntity.Clone(),
		})
	}
	return creates, updates, deletes, unchanged, nil
}

// compareEntities runs a two-way field comparison, live as baseline, with
// server-assigned fields excluded. Only fields the desired document
// mentions participate: a live field absent from desired stays untouched
// rather than being reported as a removal, since the document may omit
// backend defaults.
func compareEntities(desired, live gateway.Entity) map[string]FieldChange {
	desiredClean := map[string]interface{}(desired.WithoutServerAssigned())
	liveClean := map[string]interface{}(live.WithoutServerAssigned())

	result := fielddiff.Diff(desiredClean, liveClean, liveClean)

	fieldChanges := map[string]FieldChange{}
	for _, path := range result.SourceOnly {
		newValue, newOK := fielddiff.Lookup(desiredClean, path)
		if !newOK {
			// Path exists only in live; the desired document does not
			// manage it.
			continue
		}
		oldValue, _ := fielddiff.Lookup(liveClean, path)
		fieldChanges[path] = FieldChange{Old: oldValue, New: newValue}
	}
	return fieldChanges
}
