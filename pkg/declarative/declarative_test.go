package declarative

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gateway-labs/konnect-sync/pkg/gateway"
)

const sampleDocument = `
_format_version: "3.0"
services:
  - name: billing
    host: billing.internal
    port: 8080
routes:
  - name: billing-route
    service:
      name: billing
    paths:
      - /billing
consumers:
  - username: alice
_custom_section:
  owner: platform-team
`

func TestParse(t *testing.T) {
	content, err := Parse([]byte(sampleDocument))
	require.NoError(t, err)

	assert.Equal(t, "3.0", content.FormatVersion)

	services := content.EntitiesOf(gateway.TypeService)
	require.Len(t, services, 1)
	assert.Equal(t, "billing", services[0].Name())
	assert.Equal(t, "billing.internal", services[0]["host"])

	routes := content.EntitiesOf(gateway.TypeRoute)
	require.Len(t, routes, 1)
	serviceRef := routes[0]["service"].(map[string]interface{})
	assert.Equal(t, "billing", serviceRef["name"])

	require.Len(t, content.EntitiesOf(gateway.TypeConsumer), 1)
	assert.Empty(t, content.EntitiesOf(gateway.TypePlugin))
}

func TestParse_UnknownKeysPreserved(t *testing.T) {
	content, err := Parse([]byte(sampleDocument))
	require.NoError(t, err)

	custom, ok := content.Extra["_custom_section"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "platform-team", custom["owner"])
}

func TestParse_MissingFormatVersionDefaults(t *testing.T) {
	content, err := Parse([]byte("services: []\n"))
	require.NoError(t, err)
	assert.Equal(t, DefaultFormatVersion, content.FormatVersion)
}

func TestParse_RejectsNonListEntityKey(t *testing.T) {
	_, err := Parse([]byte("services: not-a-list\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "services")
}

func TestDump_RoundTrip(t *testing.T) {
	content, err := Parse([]byte(sampleDocument))
	require.NoError(t, err)

	raw, err := Dump(content)
	require.NoError(t, err)

	reparsed, err := Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, content.FormatVersion, reparsed.FormatVersion)
	assert.Equal(t, content.Entities, reparsed.Entities)
	assert.Equal(t, content.Extra, reparsed.Extra)
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gateway.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleDocument), 0o600))

	content, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, content.EntitiesOf(gateway.TypeService), 1)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}
