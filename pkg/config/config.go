package config

import (
	"github.com/joho/godotenv"
)

type ApplicationConfiguration struct {
	Mode                  string
	StateFilePath         string
	GatewayURL            string
	GatewayAdminToken     string
	KonnectURL            string
	KonnectToken          string
	KonnectControlPlaneID string
	DataPlaneOnly         bool
	LogLevel              string
	Debug                 bool
	MetricsAddr           string
	MetricsEnabled        bool
}

var ApplicationConfig = &ApplicationConfiguration{}

// Init binds every setting to a flag with an env-var fallback of the same
// name. A .env file in the working directory is loaded first so local
// runs do not need exported variables.
func Init() {
	_ = godotenv.Load()

	NewString(&ApplicationConfig.Mode, "mode", "diff", "One of diff, sync, status")
	NewString(&ApplicationConfig.StateFilePath, "state-file", "gateway.yaml", "Path to the desired-state document")
	NewString(&ApplicationConfig.GatewayURL, "gateway-url", "http://localhost:8001", "Gateway admin API base URL")
	NewString(&ApplicationConfig.GatewayAdminToken, "gateway-admin-token", "", "Kong-Admin-Token for RBAC-enabled gateways")
	NewString(&ApplicationConfig.KonnectURL, "konnect-url", "", "Konnect API base URL, empty disables Konnect propagation")
	NewString(&ApplicationConfig.KonnectToken, "konnect-token", "", "Konnect personal access token")
	NewString(&ApplicationConfig.KonnectControlPlaneID, "konnect-control-plane-id", "", "Konnect control plane to scope entity paths to")
	NewBool(&ApplicationConfig.DataPlaneOnly, "data-plane-only", false, "Skip Konnect propagation for all writes")
	NewString(&ApplicationConfig.LogLevel, "log-level", "info", "Log level")
	NewBool(&ApplicationConfig.Debug, "debug", false, "Force debug logging")
	NewString(&ApplicationConfig.MetricsAddr, "metrics-addr", ":6556", "Metrics listen address")
	NewBool(&ApplicationConfig.MetricsEnabled, "metrics", false, "Serve Prometheus metrics")
}
