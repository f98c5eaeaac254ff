package merge

import (
	"fmt"
	"reflect"

	"github.com/gateway-labs/konnect-sync/pkg/gateway"
)

// ValidationResult reports merge-output problems. Errors block applying
// the merge; warnings do not.
type ValidationResult struct {
	IsValid  bool
	Errors   []string
	Warnings []string
}

// requiredFields lists, per entity type, the field groups a merged entity
// must carry: every group must have at least one member present.
var requiredFields = map[string][][]string{
	gateway.TypeService:  {{"name"}, {"host"}},
	gateway.TypeRoute:    {{"name", "paths"}},
	gateway.TypeConsumer: {{"username", "custom_id"}},
	gateway.TypeUpstream: {{"name"}},
	gateway.TypePlugin:   {{"name"}},
}

// Validate checks a merged document before it is written anywhere:
// entity-type required fields, type compatibility of overlapping fields
// against whichever input last held a known type, and a warning for any
// field neither input carried (caller-introduced).
func Validate(merged map[string]interface{}, entityType string, source, target map[string]interface{}) ValidationResult {
	result := ValidationResult{IsValid: true}

	for _, group := range requiredFields[entityType] {
		if !anyPresent(merged, group) {
			result.Errors = append(result.Errors,
				fmt.Sprintf("%s requires one of: %v", entityType, group))
		}
	}

	for field, value := range merged {
		known, hasKnown := lastKnownValue(field, source, target)
		if !hasKnown {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("field %q is present in the merge result but in neither input", field))
			continue
		}
		if value == nil || known == nil {
			continue
		}
		if reflect.TypeOf(value).Kind() != reflect.TypeOf(known).Kind() {
			result.Errors = append(result.Errors,
				fmt.Sprintf("field %q has type %T, expected %T", field, value, known))
		}
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

// lastKnownValue prefers target, the side written most recently in a
// pull, falling back to source.
func lastKnownValue(field string, source, target map[string]interface{}) (interface{}, bool) {
	if target != nil {
		if v, ok := target[field]; ok {
			return v, true
		}
	}
	if source != nil {
		if v, ok := source[field]; ok {
			return v, true
		}
	}
	return nil, false
}

func anyPresent(doc map[string]interface{}, fields []string) bool {
	for _, field := range fields {
		if v, ok := doc[field]; ok && v != nil {
			return true
		}
	}
	return false
}
