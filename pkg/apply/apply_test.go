package apply

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gateway-labs/konnect-sync/pkg/diff"
	"github.com/gateway-labs/konnect-sync/pkg/dualwrite"
	"github.com/gateway-labs/konnect-sync/pkg/gateway"
	"github.com/gateway-labs/konnect-sync/pkg/logger"
	"github.com/gateway-labs/konnect-sync/test_utils"
)

func TestApply_AllOperations(t *testing.T) {
	gatewayAPI := test_utils.NewFakeAdminAPI()
	gatewayAPI.Seed(gateway.TypeService,
		gateway.Entity{"id": "s1", "name": "to-update", "host": "old"},
		gateway.Entity{"id": "s2", "name": "to-delete", "host": "x"},
	)
	orchestrator := dualwrite.New(gatewayAPI, logger.NewNop())

	summary := &diff.Summary{Changes: []diff.Change{
		{
			EntityType: gateway.TypeService,
			Operation:  gateway.OperationCreate,
			Identifier: "fresh",
			Desired:    gateway.Entity{"name": "fresh", "host": "fresh.local"},
		},
		{
			EntityType: gateway.TypeService,
			Operation:  gateway.OperationUpdate,
			Identifier: "to-update",
			Current:    gateway.Entity{"id": "s1", "name": "to-update", "host": "old"},
			Desired:    gateway.Entity{"name": "to-update", "host": "new"},
		},
		{
			EntityType: gateway.TypeService,
			Operation:  gateway.OperationDelete,
			Identifier: "to-delete",
			Current:    gateway.Entity{"id": "s2", "name": "to-delete", "host": "x"},
		},
	}}

	results := New(orchestrator, logger.NewNop()).Apply(context.Background(), summary)
	require.Len(t, results, 3)
	for _, result := range results {
		assert.True(t, result.Succeeded)
		assert.NoError(t, result.Err)
	}

	entities := gatewayAPI.Entities(gateway.TypeService)
	require.Len(t, entities, 2)
	names := []string{entities[0].Name(), entities[1].Name()}
	assert.Contains(t, names, "fresh")
	assert.Contains(t, names, "to-update")
}

func TestApply_ContinuesPastEntityFailure(t *testing.T) {
	gatewayAPI := test_utils.NewFakeAdminAPI()
	gatewayAPI.FailWith["create"] = errors.New("validation failed")
	orchestrator := dualwrite.New(gatewayAPI, logger.NewNop())

	summary := &diff.Summary{Changes: []diff.Change{
		{
			EntityType: gateway.TypeService,
			Operation:  gateway.OperationCreate,
			Identifier: "bad",
			Desired:    gateway.Entity{"name": "bad", "host": "h"},
		},
		{
			EntityType: gateway.TypeService,
			Operation:  gateway.OperationDelete,
			Identifier: "missing",
			Current:    gateway.Entity{"id": "s9", "name": "missing"},
		},
	}}

	gatewayAPI.Seed(gateway.TypeService, gateway.Entity{"id": "s9", "name": "missing", "host": "h"})

	results := New(orchestrator, logger.NewNop()).Apply(context.Background(), summary)
	require.Len(t, results, 2)

	assert.False(t, results[0].Succeeded)
	assert.EqualError(t, results[0].Err, "validation failed")
	// The batch moved on to the next entity.
	assert.True(t, results[1].Succeeded)
	assert.Empty(t, gatewayAPI.Entities(gateway.TypeService))
}

func TestApply_TargetsLiveIDWhenPresent(t *testing.T) {
	gatewayAPI := test_utils.NewFakeAdminAPI()
	// Compound plugin keys are not addressable; the raw id is.
	gatewayAPI.Seed(gateway.TypePlugin, gateway.Entity{"id": "p1", "name": "rate-limiting"})
	orchestrator := dualwrite.New(gatewayAPI, logger.NewNop())

	summary := &diff.Summary{Changes: []diff.Change{
		{
			EntityType: gateway.TypePlugin,
			Operation:  gateway.OperationDelete,
			Identifier: "rate-limiting@svc@@",
			Current:    gateway.Entity{"id": "p1", "name": "rate-limiting"},
		},
	}}

	results := New(orchestrator, logger.NewNop()).Apply(context.Background(), summary)
	require.Len(t, results, 1)
	assert.True(t, results[0].Succeeded)
	assert.Empty(t, gatewayAPI.Entities(gateway.TypePlugin))
}

func TestApply_UpdateConvergesBothStoresWithDistinctIDs(t *testing.T) {
	gatewayAPI := test_utils.NewFakeAdminAPI()
	gatewayAPI.Seed(gateway.TypeService, gateway.Entity{"id": "gw-1", "name": "billing", "host": "old"})
	konnectAPI := test_utils.NewFakeAdminAPI()
	konnectAPI.Seed(gateway.TypeService, gateway.Entity{"id": "k-1", "name": "billing", "host": "old"})
	orchestrator := dualwrite.New(gatewayAPI, logger.NewNop(), dualwrite.WithKonnect(konnectAPI))

	summary := &diff.Summary{Changes: []diff.Change{
		{
			EntityType: gateway.TypeService,
			Operation:  gateway.OperationUpdate,
			Identifier: "billing",
			Current:    gateway.Entity{"id": "gw-1", "name": "billing", "host": "old"},
			Desired:    gateway.Entity{"name": "billing", "host": "new"},
		},
	}}

	results := New(orchestrator, logger.NewNop()).Apply(context.Background(), summary)
	require.Len(t, results, 1)
	assert.True(t, results[0].Succeeded)
	assert.True(t, results[0].FullySynced())
	assert.Equal(t, "new", gatewayAPI.Entities(gateway.TypeService)[0]["host"])
	assert.Equal(t, "new", konnectAPI.Entities(gateway.TypeService)[0]["host"])
	assert.Equal(t, "k-1", konnectAPI.Entities(gateway.TypeService)[0].ID())
}

func TestResult_FullySynced(t *testing.T) {
	assert.False(t, Result{}.FullySynced())
	assert.True(t, Result{Write: &dualwrite.WriteResult{KonnectEntity: gateway.Entity{}}}.FullySynced())
	assert.False(t, Result{Write: &dualwrite.WriteResult{KonnectSkipped: true}}.FullySynced())
	assert.True(t, Result{Delete: &dualwrite.DeleteResult{KonnectDeleted: true}}.FullySynced())
}
