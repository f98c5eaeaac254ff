// Package unified joins independently-fetched Gateway and Konnect
// listings into one view per logical entity, tagging provenance and
// field-level drift. The view is rebuilt on every call and never
// persisted.
package unified

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/gateway-labs/konnect-sync/pkg/client"
	"github.com/gateway-labs/konnect-sync/pkg/fielddiff"
	"github.com/gateway-labs/konnect-sync/pkg/gateway"
	"github.com/gateway-labs/konnect-sync/pkg/identity"
	"github.com/gateway-labs/konnect-sync/pkg/merge"
)

// Entity is the unified view of one logical entity across both stores.
type Entity struct {
	EntityType      string
	Key             string
	Source          gateway.Source
	GatewayID       string
	KonnectID       string
	HasDrift        bool
	DriftFields     []string
	GatewaySnapshot gateway.Entity
	KonnectSnapshot gateway.Entity
}

// TypeSummary aggregates sync state for one entity type.
type TypeSummary struct {
	GatewayOnly int `json:"gateway_only"`
	KonnectOnly int `json:"konnect_only"`
	Synced      int `json:"synced"`
	Drift       int `json:"drift"`
	Total       int `json:"total"`
}

// Correlator matches entities across the two stores by correlation key.
// Raw ids are never compared; they differ between systems.
type Correlator struct {
	logger *zap.SugaredLogger
}

func NewCorrelator(logger *zap.SugaredLogger) *Correlator {
	return &Correlator{logger: logger}
}

// Correlate joins two listings of one entity type. Entities found in both
// stores get drift computed by a two-way field comparison of the
// snapshots, Gateway as baseline, with server-assigned fields excluded.
func (c *Correlator) Correlate(entityType string, gatewayEntities, konnectEntities []gateway.Entity) ([]Entity, error) {
	gatewayByKey, unkeyedGateway, err := identity.KeyBy(entityType, gatewayEntities)
	if err != nil {
		return nil, fmt.Errorf("error keying gateway %s: %w", entityType, err)
	}
	konnectByKey, unkeyedKonnect, err := identity.KeyBy(entityType, konnectEntities)
	if err != nil {
		return nil, fmt.Errorf("error keying konnect %s: %w", entityType, err)
	}
	for _, e := range unkeyedGateway {
		c.logger.Warnw("Unkeyable gateway entity excluded from correlation", "entityType", entityType, "id", e.ID())
	}
	for _, e := range unkeyedKonnect {
		c.logger.Warnw("Unkeyable konnect entity excluded from correlation", "entityType", entityType, "id", e.ID())
	}

	keys := map[string]bool{}
	for k := range gatewayByKey {
		keys[k] = true
	}
	for k := range konnectByKey {
		keys[k] = true
	}
	sorted := maps.Keys(keys)
	slices.Sort(sorted)

	result := make([]Entity, 0, len(sorted))
	for _, key := range sorted {
		gatewayEntity, inGateway := gatewayByKey[key]
		konnectEntity, inKonnect := konnectByKey[key]

		unifiedEntity := Entity{EntityType: entityType, Key: key}
		switch {
		case inGateway && inKonnect:
			unifiedEntity.Source = gateway.SourceBoth
			unifiedEntity.GatewayID = gatewayEntity.ID()
			unifiedEntity.KonnectID = konnectEntity.ID()
			unifiedEntity.GatewaySnapshot = gatewayEntity.Clone()
			unifiedEntity.KonnectSnapshot = konnectEntity.Clone()
			unifiedEntity.DriftFields = driftFields(gatewayEntity, konnectEntity)
			unifiedEntity.HasDrift = len(unifiedEntity.DriftFields) > 0
		case inGateway:
			unifiedEntity.Source = gateway.SourceGateway
			unifiedEntity.GatewayID = gatewayEntity.ID()
			unifiedEntity.GatewaySnapshot = gatewayEntity.Clone()
		default:
			unifiedEntity.Source = gateway.SourceKonnect
			unifiedEntity.KonnectID = konnectEntity.ID()
			unifiedEntity.KonnectSnapshot = konnectEntity.Clone()
		}
		result = append(result, unifiedEntity)
	}
	return result, nil
}

// driftFields is a two-way comparison: there is no recorded common
// ancestor for the two stores, so any differing field is drift.
func driftFields(gatewayEntity, konnectEntity gateway.Entity) []string {
	gatewayClean := map[string]interface{}(gatewayEntity.WithoutServerAssigned())
	konnectClean := map[string]interface{}(konnectEntity.WithoutServerAssigned())
	result := fielddiff.Diff(konnectClean, gatewayClean, gatewayClean)
	return result.SourceOnly
}

// SyncSummary lists the given types from both backends, correlates them
// and aggregates counts per type.
func (c *Correlator) SyncSummary(ctx context.Context, entityTypes []string, gatewayAPI, konnectAPI client.AdminAPI) (map[string]TypeSummary, error) {
	summary := map[string]TypeSummary{}
	for _, entityType := range entityTypes {
		gatewayEntities, err := gatewayAPI.ListAll(ctx, entityType, nil)
		if err != nil {
			return nil, fmt.Errorf("error listing gateway %s: %w", entityType, err)
		}
		konnectEntities, err := konnectAPI.ListAll(ctx, entityType, nil)
		if err != nil {
			return nil, fmt.Errorf("error listing konnect %s: %w", entityType, err)
		}

		entities, err := c.Correlate(entityType, gatewayEntities, konnectEntities)
		if err != nil {
			return nil, err
		}

		counts := TypeSummary{Total: len(entities)}
		for _, entity := range entities {
			switch {
			case entity.Source == gateway.SourceGateway:
				counts.GatewayOnly++
			case entity.Source == gateway.SourceKonnect:
				counts.KonnectOnly++
			case entity.HasDrift:
				counts.Drift++
			default:
				counts.Synced++
			}
		}
		summary[entityType] = counts
	}
	return summary, nil
}

// Conflicts turns every drifted entity into a merge conflict ready for
// the resolution engine. Direction only labels which side the resolution
// UI treats as authoritative.
func Conflicts(entities []Entity, direction merge.Direction) []merge.Conflict {
	var conflicts []merge.Conflict
	for _, entity := range entities {
		if entity.Source != gateway.SourceBoth || !entity.HasDrift {
			continue
		}
		conflict := merge.Conflict{
			EntityType:  entity.EntityType,
			EntityName:  entity.Key,
			EntityID:    entity.GatewayID,
			SourceState: entity.GatewaySnapshot.WithoutServerAssigned(),
			TargetState: entity.KonnectSnapshot.WithoutServerAssigned(),
			DriftFields: entity.DriftFields,
			Direction:   direction,
			SourceLabel: "Gateway",
			TargetLabel: "Konnect",
		}
		if direction == merge.DirectionPull {
			conflict.SourceState, conflict.TargetState = conflict.TargetState, conflict.SourceState
			conflict.SourceLabel, conflict.TargetLabel = conflict.TargetLabel, conflict.SourceLabel
			conflict.EntityID = entity.KonnectID
		}
		conflicts = append(conflicts, conflict)
	}
	return conflicts
}
