package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyze_DisjointChanges(t *testing.T) {
	source := map[string]interface{}{"host": "new.com", "port": 8080}
	target := map[string]interface{}{"host": "old.com", "port": 9090}
	baseline := map[string]interface{}{"host": "old.com", "port": 8080}

	analysis := Analyze(source, target, baseline)

	assert.True(t, analysis.CanAutoMerge)
	assert.Equal(t, []string{"host"}, analysis.SourceOnlyFields)
	assert.Equal(t, []string{"port"}, analysis.TargetOnlyFields)
	assert.Empty(t, analysis.ConflictingFields)
}

func TestAnalyze_ConflictBlocksAutoMerge(t *testing.T) {
	source := map[string]interface{}{"host": "a.com"}
	target := map[string]interface{}{"host": "b.com"}
	baseline := map[string]interface{}{"host": "old.com"}

	analysis := Analyze(source, target, baseline)

	assert.False(t, analysis.CanAutoMerge)
	assert.Equal(t, []string{"host"}, analysis.ConflictingFields)
}

func TestComputeAutoMerge(t *testing.T) {
	source := map[string]interface{}{"host": "new.com", "port": 8080, "retries": 5}
	target := map[string]interface{}{"host": "old.com", "port": 9090, "retries": 5}
	baseline := map[string]interface{}{"host": "old.com", "port": 8080, "retries": 5}

	analysis := Analyze(source, target, baseline)
	require.True(t, analysis.CanAutoMerge)

	merged, err := ComputeAutoMerge(source, target, analysis)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"host": "new.com", "port": 9090, "retries": 5}, merged)
}

func TestComputeAutoMerge_OrderIndependentWithoutConflicts(t *testing.T) {
	source := map[string]interface{}{"host": "new.com", "port": 8080}
	target := map[string]interface{}{"host": "old.com", "port": 9090}
	baseline := map[string]interface{}{"host": "old.com", "port": 8080}

	forward, err := ComputeAutoMerge(source, target, Analyze(source, target, baseline))
	require.NoError(t, err)
	backward, err := ComputeAutoMerge(target, source, Analyze(target, source, baseline))
	require.NoError(t, err)

	assert.Equal(t, forward, backward)
}

func TestComputeAutoMerge_RefusesConflicts(t *testing.T) {
	source := map[string]interface{}{"host": "a.com"}
	target := map[string]interface{}{"host": "b.com"}
	baseline := map[string]interface{}{"host": "old.com"}

	analysis := Analyze(source, target, baseline)
	_, err := ComputeAutoMerge(source, target, analysis)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "host")
}

func TestComputeAutoMerge_FieldRemoval(t *testing.T) {
	// Source dropped "retries"; the merge drops it too.
	source := map[string]interface{}{"host": "old.com"}
	target := map[string]interface{}{"host": "old.com", "retries": 5}
	baseline := map[string]interface{}{"host": "old.com", "retries": 5}

	analysis := Analyze(source, target, baseline)
	require.True(t, analysis.CanAutoMerge)

	merged, err := ComputeAutoMerge(source, target, analysis)
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"host": "old.com"}, merged)
}

func TestComputeAutoMerge_NestedOverlay(t *testing.T) {
	source := map[string]interface{}{
		"name": "up",
		"healthchecks": map[string]interface{}{
			"active":  map[string]interface{}{"timeout": 5},
			"passive": map[string]interface{}{"type": "tcp"},
		},
	}
	target := map[string]interface{}{
		"name": "up",
		"healthchecks": map[string]interface{}{
			"active":  map[string]interface{}{"timeout": 1},
			"passive": map[string]interface{}{"type": "http"},
		},
	}
	baseline := map[string]interface{}{
		"name": "up",
		"healthchecks": map[string]interface{}{
			"active":  map[string]interface{}{"timeout": 1},
			"passive": map[string]interface{}{"type": "tcp"},
		},
	}

	analysis := Analyze(source, target, baseline)
	require.True(t, analysis.CanAutoMerge)

	merged, err := ComputeAutoMerge(source, target, analysis)
	require.NoError(t, err)

	healthchecks := merged["healthchecks"].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"timeout": 5}, healthchecks["active"])
	assert.Equal(t, map[string]interface{}{"type": "http"}, healthchecks["passive"])
}

func TestComputeAutoMerge_DoesNotAliasInputs(t *testing.T) {
	source := map[string]interface{}{"nested": map[string]interface{}{"a": 1}}
	target := map[string]interface{}{"nested": map[string]interface{}{"a": 1}}
	baseline := map[string]interface{}{"nested": map[string]interface{}{"a": 1}}

	merged, err := ComputeAutoMerge(source, target, Analyze(source, target, baseline))
	require.NoError(t, err)

	merged["nested"].(map[string]interface{})["a"] = 99
	assert.Equal(t, 1, source["nested"].(map[string]interface{})["a"])
	assert.Equal(t, 1, target["nested"].(map[string]interface{})["a"])
}
