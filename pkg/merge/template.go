package merge

import (
	"encoding/json"
	"fmt"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// CreateTemplate renders a conflict as a line-oriented, human-editable
// pseudo-JSON document. Every key of the union of both states gets two
// annotation lines showing each side's value, then an editable value line
// defaulting to the source side. Stripping the comments yields valid JSON.
func CreateTemplate(conflict Conflict) string {
	var b strings.Builder

	fmt.Fprintf(&b, "// Conflict: %s %q", conflict.EntityType, conflict.EntityName)
	if conflict.EntityID != "" {
		fmt.Fprintf(&b, " (id %s)", conflict.EntityID)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "// Direction: %s (%s -> %s)\n", conflict.Direction, conflict.SourceLabel, conflict.TargetLabel)
	b.WriteString("// Edit the value lines; lines starting with // are ignored.\n")
	b.WriteString("{\n")

	keys := map[string]bool{}
	for k := range conflict.SourceState {
		keys[k] = true
	}
	for k := range conflict.TargetState {
		keys[k] = true
	}
	sorted := maps.Keys(keys)
	slices.Sort(sorted)

	for i, key := range sorted {
		fmt.Fprintf(&b, "  // Source (%s): %s\n", conflict.SourceLabel, renderAnnotation(conflict.SourceState, key))
		fmt.Fprintf(&b, "  // Target (%s): %s\n", conflict.TargetLabel, renderAnnotation(conflict.TargetState, key))

		value, ok := conflict.SourceState[key]
		if !ok {
			value = conflict.TargetState[key]
		}
		encoded, err := json.Marshal(value)
		if err != nil {
			encoded = []byte("null")
		}
		keyJSON, _ := json.Marshal(key)
		fmt.Fprintf(&b, "  %s: %s", keyJSON, encoded)
		if i < len(sorted)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}

	b.WriteString("}\n")
	return b.String()
}

func renderAnnotation(state map[string]interface{}, key string) string {
	value, ok := state[key]
	if !ok {
		return "(absent)"
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return "(unencodable)"
	}
	return string(encoded)
}

// ParseTemplate inverts CreateTemplate after a human edit: it strips //
// comment sequences occurring outside string literals and decodes the
// remainder as strict JSON. Failing to get a JSON object back is an
// error, since the editor may have mangled the structure.
func ParseTemplate(content string) (map[string]interface{}, error) {
	stripped := stripComments(content)

	var decoded interface{}
	if err := json.Unmarshal([]byte(stripped), &decoded); err != nil {
		return nil, fmt.Errorf("merge template is not valid JSON after comment removal: %w", err)
	}
	doc, ok := decoded.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("merge template must contain a JSON object, got %T", decoded)
	}
	return doc, nil
}

// stripComments removes // comments character by character, tracking
// string and escape state so a "//" inside a quoted value (URLs, most
// commonly) survives.
func stripComments(content string) string {
	var b strings.Builder
	inString := false
	escapeNext := false

	runes := []rune(content)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]

		if escapeNext {
			b.WriteRune(ch)
			escapeNext = false
			continue
		}
		if inString && ch == '\\' {
			b.WriteRune(ch)
			escapeNext = true
			continue
		}
		if ch == '"' {
			inString = !inString
			b.WriteRune(ch)
			continue
		}
		if !inString && ch == '/' && i+1 < len(runes) && runes[i+1] == '/' {
			for i < len(runes) && runes[i] != '\n' {
				i++
			}
			if i < len(runes) {
				b.WriteRune('\n')
			}
			continue
		}
		b.WriteRune(ch)
	}
	return b.String()
}
