package fielddiff

import (
	"reflect"
	"strings"

	"golang.org/x/exp/slices"
)

// Result classifies every differing leaf path of a three-way comparison.
// A path appears in at most one of the three sets.
type Result struct {
	// SourceOnly holds paths changed relative to the baseline on the
	// source side only.
	SourceOnly []string
	// TargetOnly holds paths changed on the target side only.
	TargetOnly []string
	// Conflicting holds paths changed on both sides to different values.
	Conflicting []string
}

// HasConflicts reports whether any path diverged on both sides.
func (r Result) HasConflicts() bool {
	return len(r.Conflicting) > 0
}

// Diff walks source and target against baseline and classifies each leaf
// path. Leaves are non-mapping values; lists are compared as opaque values
// and never descended into, so a one-element list change on both sides is
// a conflict. A key present on only one side counts as a changed value.
// Paths in the result are dot-joined and sorted.
func Diff(source, target, baseline map[string]interface{}) Result {
	paths := map[string]bool{}
	collectLeafPaths(source, nil, paths)
	collectLeafPaths(target, nil, paths)
	collectLeafPaths(baseline, nil, paths)

	result := Result{}
	for path := range paths {
		segments := strings.Split(path, ".")
		sourceValue, sourceOK := lookup(source, segments)
		targetValue, targetOK := lookup(target, segments)
		baseValue, baseOK := lookup(baseline, segments)

		sourceChanged := !valueEqual(sourceValue, sourceOK, baseValue, baseOK)
		targetChanged := !valueEqual(targetValue, targetOK, baseValue, baseOK)

		switch {
		case !sourceChanged && !targetChanged:
		case sourceChanged && !targetChanged:
			result.SourceOnly = append(result.SourceOnly, path)
		case !sourceChanged && targetChanged:
			result.TargetOnly = append(result.TargetOnly, path)
		default:
			// Both sides moved. Converging to the same value is not a
			// conflict.
			if valueEqual(sourceValue, sourceOK, targetValue, targetOK) {
				continue
			}
			result.Conflicting = append(result.Conflicting, path)
		}
	}

	slices.Sort(result.SourceOnly)
	slices.Sort(result.TargetOnly)
	slices.Sort(result.Conflicting)
	return result
}

func collectLeafPaths(doc map[string]interface{}, prefix []string, out map[string]bool) {
	for key, value := range doc {
		path := append(append([]string{}, prefix...), key)
		if nested, ok := value.(map[string]interface{}); ok && len(nested) > 0 {
			collectLeafPaths(nested, path, out)
			continue
		}
		out[strings.Join(path, ".")] = true
	}
}

// Lookup resolves a dot-joined path against a document, reporting whether
// the path is present.
func Lookup(doc map[string]interface{}, path string) (interface{}, bool) {
	return lookup(doc, strings.Split(path, "."))
}

// lookup navigates a dot path. Navigation through a non-mapping value, or
// past a missing key, reports the path as absent. If the path lands on a
// mapping (the other document nests deeper there) the mapping itself is
// the value, so a scalar-vs-object disagreement still surfaces.
func lookup(doc map[string]interface{}, segments []string) (interface{}, bool) {
	current := doc
	for i, segment := range segments {
		value, ok := current[segment]
		if !ok {
			return nil, false
		}
		if i == len(segments)-1 {
			return value, true
		}
		nested, ok := value.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current = nested
	}
	return nil, false
}

func valueEqual(a interface{}, aPresent bool, b interface{}, bPresent bool) bool {
	if aPresent != bPresent {
		return false
	}
	if !aPresent {
		return true
	}
	return reflect.DeepEqual(canonical(a), canonical(b))
}

// canonical rewrites every number in v to float64. Desired documents come
// out of the YAML decoder with int values while live listings come out of
// the JSON decoder with float64, and the same config must compare equal
// regardless of which side it was decoded on.
func canonical(v interface{}) interface{} {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case float32:
		return float64(t)
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, item := range t {
			out[i] = canonical(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for key, item := range t {
			out[key] = canonical(item)
		}
		return out
	}
	return v
}
