package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/gateway-labs/konnect-sync/pkg/apply"
	"github.com/gateway-labs/konnect-sync/pkg/client"
	"github.com/gateway-labs/konnect-sync/pkg/config"
	"github.com/gateway-labs/konnect-sync/pkg/declarative"
	"github.com/gateway-labs/konnect-sync/pkg/diff"
	"github.com/gateway-labs/konnect-sync/pkg/dualwrite"
	"github.com/gateway-labs/konnect-sync/pkg/gateway"
	"github.com/gateway-labs/konnect-sync/pkg/logger"
	"github.com/gateway-labs/konnect-sync/pkg/metrics"
	"github.com/gateway-labs/konnect-sync/pkg/redact"
	"github.com/gateway-labs/konnect-sync/pkg/signal"
	"github.com/gateway-labs/konnect-sync/pkg/unified"
)

func newGatewayClient() *client.Client {
	opts := []client.Option{
		client.WithHeader("User-Agent", "konnect-sync/0.1"),
	}
	if config.ApplicationConfig.GatewayAdminToken != "" {
		opts = append(opts, client.WithAdminToken(config.ApplicationConfig.GatewayAdminToken))
	}
	return client.New(config.ApplicationConfig.GatewayURL, opts...)
}

func newKonnectClient() *client.Client {
	if config.ApplicationConfig.KonnectURL == "" {
		return nil
	}
	opts := []client.Option{
		client.WithHeader("User-Agent", "konnect-sync/0.1"),
		client.WithAuthToken(config.ApplicationConfig.KonnectToken),
	}
	if cpID := config.ApplicationConfig.KonnectControlPlaneID; cpID != "" {
		opts = append(opts, client.WithPathPrefix(fmt.Sprintf("/v2/control-planes/%s/core-entities", cpID)))
	}
	return client.New(config.ApplicationConfig.KonnectURL, opts...)
}

func runDiff(ctx context.Context, log *zap.SugaredLogger, gatewayClient *client.Client) (*diff.Summary, error) {
	desired, err := declarative.Load(config.ApplicationConfig.StateFilePath)
	if err != nil {
		return nil, err
	}
	engine := diff.NewEngine(log)
	return engine.Run(ctx, desired, gatewayClient)
}

func printSummary(summary *diff.Summary) {
	for entityType, counts := range summary.Counts {
		if counts.Creates+counts.Updates+counts.Deletes+counts.Unchanged == 0 {
			continue
		}
		fmt.Printf("%s: %d to create, %d to update, %d to delete, %d unchanged\n",
			entityType, counts.Creates, counts.Updates, counts.Deletes, counts.Unchanged)
	}
	for _, change := range summary.Changes {
		if change.Operation != gateway.OperationUpdate {
			fmt.Printf("  %s %s %q\n", change.Operation, change.EntityType, change.Identifier)
			continue
		}
		masked := make(map[string]diff.FieldChange, len(change.FieldChanges))
		for path, fieldChange := range change.FieldChanges {
			masked[path] = diff.FieldChange{
				Old: redact.Field(path, fieldChange.Old),
				New: redact.Field(path, fieldChange.New),
			}
		}
		fields, _ := json.Marshal(masked)
		fmt.Printf("  %s %s %q %s\n", change.Operation, change.EntityType, change.Identifier, fields)
	}
}

func runSync(ctx context.Context, log *zap.SugaredLogger, gatewayClient, konnectClient *client.Client) error {
	summary, err := runDiff(ctx, log, gatewayClient)
	if err != nil {
		return err
	}
	if summary.Empty() {
		log.Info("Nothing to do, gateway already matches the state file")
		return nil
	}

	orchestratorOpts := []dualwrite.Option{
		dualwrite.WithDataPlaneOnly(config.ApplicationConfig.DataPlaneOnly),
	}
	if konnectClient != nil {
		orchestratorOpts = append(orchestratorOpts, dualwrite.WithKonnect(konnectClient))
	}
	orchestrator := dualwrite.New(gatewayClient, log, orchestratorOpts...)

	results := apply.New(orchestrator, log).Apply(ctx, summary)
	failed := 0
	for _, result := range results {
		if result.Err != nil {
			failed++
		}
	}
	log.Infow("Sync finished", "applied", len(results)-failed, "failed", failed)
	if failed > 0 {
		return fmt.Errorf("%d of %d changes failed", failed, len(results))
	}
	return nil
}

func runStatus(ctx context.Context, log *zap.SugaredLogger, gatewayClient, konnectClient *client.Client) error {
	if konnectClient == nil {
		return fmt.Errorf("status requires --konnect-url")
	}
	correlator := unified.NewCorrelator(log)
	summary, err := correlator.SyncSummary(ctx, gateway.Types(), gatewayClient, konnectClient)
	if err != nil {
		return err
	}
	for entityType, counts := range summary {
		if counts.Total == 0 {
			continue
		}
		fmt.Printf("%s: %d synced, %d drifted, %d gateway-only, %d konnect-only\n",
			entityType, counts.Synced, counts.Drift, counts.GatewayOnly, counts.KonnectOnly)
		metrics.SetSyncState(entityType, "synced", float64(counts.Synced))
		metrics.SetSyncState(entityType, "drift", float64(counts.Drift))
		metrics.SetSyncState(entityType, "gateway_only", float64(counts.GatewayOnly))
		metrics.SetSyncState(entityType, "konnect_only", float64(counts.KonnectOnly))
	}
	return nil
}

func main() {
	log, err := logger.New(config.ApplicationConfig.LogLevel, config.ApplicationConfig.Debug)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error building logger: %s\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if config.ApplicationConfig.MetricsEnabled {
		metrics.StartMetricsServer(config.ApplicationConfig.MetricsAddr, log)
	}

	gatewayClient := newGatewayClient()
	konnectClient := newKonnectClient()
	ctx := context.Background()

	switch config.ApplicationConfig.Mode {
	case "diff":
		summary, err := runDiff(ctx, log, gatewayClient)
		if err != nil {
			log.Fatalf("Error computing diff: %s", err)
		}
		printSummary(summary)
	case "sync":
		if err := runSync(ctx, log, gatewayClient, konnectClient); err != nil {
			log.Fatalf("Error syncing: %s", err)
		}
	case "status":
		stop := signal.SetupSignalHandler()
		for {
			if err := runStatus(ctx, log, gatewayClient, konnectClient); err != nil {
				log.Fatalf("Error computing status: %s", err)
			}
			if !config.ApplicationConfig.MetricsEnabled {
				return
			}
			// With metrics enabled, keep refreshing the gauges until we
			// are told to stop.
			select {
			case <-stop:
				return
			case <-time.After(30 * time.Second):
			}
		}
	default:
		log.Fatalf("Unknown mode %q, expected diff, sync or status", config.ApplicationConfig.Mode)
	}
}

func init() {
	config.Init()
	flag.Parse()
}
