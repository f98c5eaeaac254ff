// Package merge decides whether two divergent entity states can be
// combined without human input, computes the combination when they can,
// and assists a manual edit when they cannot.
package merge

import (
	"fmt"
	"strings"

	"github.com/gateway-labs/konnect-sync/pkg/fielddiff"
)

// Direction records which store the resolution treats as authoritative
// for presentation. It is a UI hint, not a correctness constraint.
type Direction string

const (
	DirectionPush Direction = "push"
	DirectionPull Direction = "pull"
)

// Conflict is one divergence that needs resolving.
type Conflict struct {
	EntityType  string
	EntityName  string
	EntityID    string
	SourceState map[string]interface{}
	TargetState map[string]interface{}
	DriftFields []string
	Direction   Direction
	SourceLabel string
	TargetLabel string
}

// Analysis is the outcome of a three-way comparison. CanAutoMerge holds
// iff no field changed to different values on both sides.
type Analysis struct {
	CanAutoMerge      bool
	SourceOnlyFields  []string
	TargetOnlyFields  []string
	ConflictingFields []string
}

// Analyze classifies every divergent field of source and target against a
// common baseline. A false CanAutoMerge is a normal return value, not an
// error; only feeding unresolved conflicts into ComputeAutoMerge is a
// programmer error.
func Analyze(source, target, baseline map[string]interface{}) Analysis {
	result := fielddiff.Diff(source, target, baseline)
	return Analysis{
		CanAutoMerge:      !result.HasConflicts(),
		SourceOnlyFields:  result.SourceOnly,
		TargetOnlyFields:  result.TargetOnly,
		ConflictingFields: result.Conflicting,
	}
}

// ComputeAutoMerge builds the merged document: the union of both sides
// for untouched fields, source's value for every source-only path and
// target's value for every target-only path. With no conflicts present
// the result does not depend on which side is called source.
func ComputeAutoMerge(source, target map[string]interface{}, analysis Analysis) (map[string]interface{}, error) {
	if len(analysis.ConflictingFields) > 0 {
		return nil, fmt.Errorf("cannot auto-merge with %d unresolved conflicting fields: %s",
			len(analysis.ConflictingFields), strings.Join(analysis.ConflictingFields, ", "))
	}

	merged := unionMaps(source, target)
	for _, path := range analysis.SourceOnlyFields {
		overlayPath(merged, source, path)
	}
	for _, path := range analysis.TargetOnlyFields {
		overlayPath(merged, target, path)
	}
	return merged, nil
}

// unionMaps deep-copies a while filling keys only b has. Fields present
// in both carry their common value, so precedence only matters for paths
// the caller overlays afterwards.
func unionMaps(a, b map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(a)+len(b))
	for k, v := range a {
		out[k] = cloneValue(v)
	}
	for k, v := range b {
		existing, ok := out[k]
		if !ok {
			out[k] = cloneValue(v)
			continue
		}
		existingMap, existingIsMap := existing.(map[string]interface{})
		incomingMap, incomingIsMap := v.(map[string]interface{})
		if existingIsMap && incomingIsMap {
			out[k] = unionMaps(existingMap, incomingMap)
		}
	}
	return out
}

// overlayPath writes from's value at path into doc, creating intermediate
// objects; a path absent from from means the field was removed on that
// side, so it is removed from doc too.
func overlayPath(doc, from map[string]interface{}, path string) {
	value, present := fielddiff.Lookup(from, path)
	segments := strings.Split(path, ".")
	current := doc
	for i, segment := range segments {
		if i == len(segments)-1 {
			if !present {
				delete(current, segment)
				return
			}
			current[segment] = cloneValue(value)
			return
		}
		nested, ok := current[segment].(map[string]interface{})
		if !ok {
			nested = map[string]interface{}{}
			current[segment] = nested
		}
		current = nested
	}
}

func cloneValue(v interface{}) interface{} {
	switch tv := v.(type) {
	case map[string]interface{}:
		out := make(map[string]interface{}, len(tv))
		for k, inner := range tv {
			out[k] = cloneValue(inner)
		}
		return out
	case []interface{}:
		out := make([]interface{}, len(tv))
		for i, inner := range tv {
			out[i] = cloneValue(inner)
		}
		return out
	default:
		return v
	}
}
