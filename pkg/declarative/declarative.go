// Package declarative reads and writes the desired-state document. The
// document is the complete target configuration; diffing it against live
// listings is what drives sync.
package declarative

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/gateway-labs/konnect-sync/pkg/gateway"
)

const (
	FormatVersionKey = "_format_version"

	// DefaultFormatVersion is stamped on documents we produce.
	DefaultFormatVersion = "3.0"
)

// Content is a parsed desired-state document. Top-level keys that are not
// a known entity type are kept opaquely in Extra and written back on dump,
// so backend-specific sections this module does not understand survive a
// round trip.
type Content struct {
	FormatVersion string
	Entities      map[string][]gateway.Entity
	Extra         map[string]interface{}
}

// EntitiesOf returns the desired entities of one type, never nil.
func (c *Content) EntitiesOf(entityType string) []gateway.Entity {
	if c.Entities == nil {
		return nil
	}
	return c.Entities[entityType]
}

// Load reads and parses a YAML (or JSON, YAML being a superset here)
// desired-state file.
func Load(path string) (*Content, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading state file %s: %w", path, err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Content, error) {
	doc := map[string]interface{}{}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("error parsing state document: %w", err)
	}

	content := &Content{
		FormatVersion: DefaultFormatVersion,
		Entities:      map[string][]gateway.Entity{},
		Extra:         map[string]interface{}{},
	}
	if v, ok := doc[FormatVersionKey].(string); ok {
		content.FormatVersion = v
	}

	known := map[string]bool{}
	for _, entityType := range gateway.Types() {
		known[entityType] = true
	}

	for key, value := range doc {
		if key == FormatVersionKey {
			continue
		}
		if !known[key] {
			content.Extra[key] = value
			continue
		}
		list, ok := value.([]interface{})
		if !ok {
			return nil, fmt.Errorf("state document key %q must hold a list, got %T", key, value)
		}
		entities := make([]gateway.Entity, 0, len(list))
		for i, item := range list {
			entityMap, ok := item.(map[string]interface{})
			if !ok {
				return nil, fmt.Errorf("entry %d under %q is not a mapping", i, key)
			}
			entities = append(entities, gateway.Entity(entityMap))
		}
		content.Entities[key] = entities
	}
	return content, nil
}

// Dump renders a Content back to YAML, entity types in apply order with
// unknown keys appended.
func Dump(content *Content) ([]byte, error) {
	doc := map[string]interface{}{
		FormatVersionKey: content.FormatVersion,
	}
	for entityType, entities := range content.Entities {
		if len(entities) == 0 {
			continue
		}
		list := make([]interface{}, 0, len(entities))
		for _, entity := range entities {
			list = append(list, map[string]interface{}(entity))
		}
		doc[entityType] = list
	}
	for key, value := range content.Extra {
		doc[key] = value
	}
	return yaml.Marshal(doc)
}
