package unified

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gateway-labs/konnect-sync/pkg/gateway"
	"github.com/gateway-labs/konnect-sync/pkg/logger"
	"github.com/gateway-labs/konnect-sync/pkg/merge"
	"github.com/gateway-labs/konnect-sync/test_utils"
)

func TestCorrelate_Provenance(t *testing.T) {
	gatewayEntities := []gateway.Entity{
		{"id": "gw-1", "name": "shared", "host": "h"},
		{"id": "gw-2", "name": "gateway-only", "host": "h"},
	}
	konnectEntities := []gateway.Entity{
		{"id": "k-1", "name": "shared", "host": "h"},
		{"id": "k-2", "name": "konnect-only", "host": "h"},
	}

	entities, err := NewCorrelator(logger.NewNop()).Correlate(gateway.TypeService, gatewayEntities, konnectEntities)
	require.NoError(t, err)
	require.Len(t, entities, 3)

	byKey := map[string]Entity{}
	for _, e := range entities {
		byKey[e.Key] = e
	}

	shared := byKey["shared"]
	assert.Equal(t, gateway.SourceBoth, shared.Source)
	assert.Equal(t, "gw-1", shared.GatewayID)
	assert.Equal(t, "k-1", shared.KonnectID)
	assert.False(t, shared.HasDrift)
	assert.Empty(t, shared.DriftFields)

	gatewayOnly := byKey["gateway-only"]
	assert.Equal(t, gateway.SourceGateway, gatewayOnly.Source)
	assert.Empty(t, gatewayOnly.DriftFields)
	assert.Nil(t, gatewayOnly.KonnectSnapshot)

	konnectOnly := byKey["konnect-only"]
	assert.Equal(t, gateway.SourceKonnect, konnectOnly.Source)
	assert.Nil(t, konnectOnly.GatewaySnapshot)
}

func TestCorrelate_DriftIsTwoWay(t *testing.T) {
	gatewayEntities := []gateway.Entity{
		{"id": "gw-1", "name": "svc", "host": "gw.internal", "port": 80},
	}
	konnectEntities := []gateway.Entity{
		// Different raw id on purpose; correlation is by name.
		{"id": "k-1", "name": "svc", "host": "konnect.internal", "port": 80},
	}

	entities, err := NewCorrelator(logger.NewNop()).Correlate(gateway.TypeService, gatewayEntities, konnectEntities)
	require.NoError(t, err)
	require.Len(t, entities, 1)

	assert.True(t, entities[0].HasDrift)
	assert.Equal(t, []string{"host"}, entities[0].DriftFields)
}

func TestCorrelate_ServerAssignedFieldsAreNotDrift(t *testing.T) {
	gatewayEntities := []gateway.Entity{
		{"id": "gw-1", "name": "svc", "host": "h", "created_at": 1},
	}
	konnectEntities := []gateway.Entity{
		{"id": "k-1", "name": "svc", "host": "h", "created_at": 999},
	}

	entities, err := NewCorrelator(logger.NewNop()).Correlate(gateway.TypeService, gatewayEntities, konnectEntities)
	require.NoError(t, err)
	require.Len(t, entities, 1)
	assert.False(t, entities[0].HasDrift)
}

func TestSyncSummary(t *testing.T) {
	gatewayAPI := test_utils.NewFakeAdminAPI()
	konnectAPI := test_utils.NewFakeAdminAPI()

	gatewayAPI.Seed(gateway.TypeService,
		gateway.Entity{"id": "g1", "name": "synced", "host": "h"},
		gateway.Entity{"id": "g2", "name": "drifted", "host": "gw"},
		gateway.Entity{"id": "g3", "name": "local", "host": "h"},
	)
	konnectAPI.Seed(gateway.TypeService,
		gateway.Entity{"id": "k1", "name": "synced", "host": "h"},
		gateway.Entity{"id": "k2", "name": "drifted", "host": "konnect"},
		gateway.Entity{"id": "k3", "name": "remote", "host": "h"},
	)

	summary, err := NewCorrelator(logger.NewNop()).SyncSummary(
		context.Background(), []string{gateway.TypeService}, gatewayAPI, konnectAPI)
	require.NoError(t, err)

	counts := summary[gateway.TypeService]
	assert.Equal(t, 1, counts.Synced)
	assert.Equal(t, 1, counts.Drift)
	assert.Equal(t, 1, counts.GatewayOnly)
	assert.Equal(t, 1, counts.KonnectOnly)
	assert.Equal(t, 4, counts.Total)
}

func TestConflicts(t *testing.T) {
	entities := []Entity{
		{
			EntityType:      gateway.TypeService,
			Key:             "svc",
			Source:          gateway.SourceBoth,
			GatewayID:       "gw-1",
			KonnectID:       "k-1",
			HasDrift:        true,
			DriftFields:     []string{"host"},
			GatewaySnapshot: gateway.Entity{"id": "gw-1", "name": "svc", "host": "gw"},
			KonnectSnapshot: gateway.Entity{"id": "k-1", "name": "svc", "host": "konnect"},
		},
		{Key: "clean", Source: gateway.SourceBoth, HasDrift: false},
		{Key: "only", Source: gateway.SourceGateway},
	}

	pushConflicts := Conflicts(entities, merge.DirectionPush)
	require.Len(t, pushConflicts, 1)
	assert.Equal(t, "Gateway", pushConflicts[0].SourceLabel)
	assert.Equal(t, "gw", pushConflicts[0].SourceState["host"])
	assert.Equal(t, "gw-1", pushConflicts[0].EntityID)
	// Server-assigned fields do not reach the resolution UI.
	assert.NotContains(t, pushConflicts[0].SourceState, "id")

	pullConflicts := Conflicts(entities, merge.DirectionPull)
	require.Len(t, pullConflicts, 1)
	assert.Equal(t, "Konnect", pullConflicts[0].SourceLabel)
	assert.Equal(t, "konnect", pullConflicts[0].SourceState["host"])
	assert.Equal(t, "k-1", pullConflicts[0].EntityID)
}
