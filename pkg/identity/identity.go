// Package identity owns the correlation key for every entity type. The
// same key matches desired config against live listings and matches
// Gateway listings against Konnect listings, so a key change here changes
// what "same logical entity" means everywhere.
package identity

import (
	"fmt"

	"github.com/itchyny/gojq"

	"github.com/gateway-labs/konnect-sync/pkg/gateway"
)

// keyExpressions declares, per entity type, how the natural key is read
// out of an entity. Raw ids differ between Gateway and Konnect, so the key
// is the stable business identifier. Plugins have no unique name; their
// key is the plugin name compounded with the scope it is attached to.
var keyExpressions = map[string]string{
	gateway.TypeService:       `.name // .id // ""`,
	gateway.TypeRoute:         `.name // .id // ""`,
	gateway.TypeUpstream:      `.name // .id // ""`,
	gateway.TypeConsumer:      `.username // .custom_id // .id // ""`,
	gateway.TypeCertificate:   `.id // .cert // ""`,
	gateway.TypeCACertificate: `.id // .cert // ""`,
	gateway.TypeSNI:           `.name // .id // ""`,
	gateway.TypePlugin: `[
		.name // "",
		(.service | if type == "object" then (.name // .id // "") else (. // "") end),
		(.route | if type == "object" then (.name // .id // "") else (. // "") end),
		(.consumer | if type == "object" then (.username // .id // "") else (. // "") end)
	] | map(tostring) | join("@")`,
}

var compiled = map[string]*gojq.Code{}

func init() {
	for entityType, expression := range keyExpressions {
		query, err := gojq.Parse(expression)
		if err != nil {
			panic(fmt.Sprintf("invalid key expression for %s: %s", entityType, err))
		}
		code, err := gojq.Compile(query)
		if err != nil {
			panic(fmt.Sprintf("failed to compile key expression for %s: %s", entityType, err))
		}
		compiled[entityType] = code
	}
}

// Key returns the correlation key of an entity. An empty key means the
// entity carries none of the identifying fields for its type; callers
// treat such entities as unmatchable rather than silently colliding on "".
func Key(entityType string, entity gateway.Entity) (string, error) {
	code, ok := compiled[entityType]
	if !ok {
		return "", fmt.Errorf("no correlation key defined for entity type %q", entityType)
	}

	queryRes, ok := code.Run(map[string]interface{}(entity)).Next()
	if !ok {
		return "", fmt.Errorf("key expression for %s produced no result", entityType)
	}
	if err, ok := queryRes.(error); ok {
		return "", fmt.Errorf("key expression for %s failed: %w", entityType, err)
	}

	key, ok := queryRes.(string)
	if !ok {
		return "", fmt.Errorf("key expression for %s returned %T, expected string", entityType, queryRes)
	}
	return key, nil
}

// KeyBy indexes entities by correlation key. Entities with an empty key
// are returned separately so the caller can report them instead of
// merging unrelated records.
func KeyBy(entityType string, entities []gateway.Entity) (map[string]gateway.Entity, []gateway.Entity, error) {
	keyed := make(map[string]gateway.Entity, len(entities))
	var unkeyed []gateway.Entity
	for _, entity := range entities {
		key, err := Key(entityType, entity)
		if err != nil {
			return nil, nil, err
		}
		if key == "" {
			unkeyed = append(unkeyed, entity)
			continue
		}
		keyed[key] = entity
	}
	return keyed, unkeyed, nil
}
