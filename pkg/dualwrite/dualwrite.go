// Package dualwrite applies one logical change to both stores: Gateway
// first and authoritatively, Konnect second and best-effort. A Konnect
// failure is captured, never raised, and Gateway is never rolled back;
// divergence surfaces later through correlation instead of being hidden.
package dualwrite

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gateway-labs/konnect-sync/pkg/client"
	"github.com/gateway-labs/konnect-sync/pkg/gateway"
	"github.com/gateway-labs/konnect-sync/pkg/identity"
)

// Target addresses one entity in both stores. Gateway is the raw id (or
// name) used against the Gateway Admin API. Key is the correlation key
// used to locate the Konnect copy, because raw ids are assigned
// independently by each store and never transfer between them.
type Target struct {
	Gateway string
	Key     string
}

// nameAddressable lists the types whose correlation key doubles as an
// Admin API path parameter. The remaining types accept raw ids only, so
// their Konnect target has to be resolved through a listing.
var nameAddressable = map[string]bool{
	gateway.TypeService:  true,
	gateway.TypeRoute:    true,
	gateway.TypeUpstream: true,
	gateway.TypeConsumer: true,
	gateway.TypeSNI:      true,
}

// WriteResult is the outcome of a dual create/update. Exactly one of
// KonnectEntity != nil, KonnectError != nil, KonnectSkipped and
// KonnectNotConfigured holds after a completed call.
type WriteResult struct {
	GatewayEntity        gateway.Entity
	KonnectEntity        gateway.Entity
	KonnectError         error
	KonnectSkipped       bool
	KonnectNotConfigured bool
}

// FullySynced reports whether the change landed in both stores.
func (r WriteResult) FullySynced() bool {
	return r.KonnectEntity != nil && r.KonnectError == nil && !r.KonnectSkipped
}

// PartialSuccess reports a Konnect write that was attempted and failed,
// as opposed to skipped or not configured.
func (r WriteResult) PartialSuccess() bool {
	return r.KonnectError != nil
}

// DeleteResult is the outcome of a dual delete.
type DeleteResult struct {
	GatewayDeleted       bool
	KonnectDeleted       bool
	KonnectError         error
	KonnectSkipped       bool
	KonnectNotConfigured bool
}

func (r DeleteResult) FullySynced() bool {
	return r.KonnectDeleted && r.KonnectError == nil && !r.KonnectSkipped
}

func (r DeleteResult) PartialSuccess() bool {
	return r.KonnectError != nil
}

type (
	Option func(*Orchestrator)

	// Orchestrator coordinates the two writes. The Konnect client may be
	// nil: running against a bare Gateway is a supported deployment.
	Orchestrator struct {
		gatewayAPI    client.AdminAPI
		konnectAPI    client.AdminAPI
		dataPlaneOnly bool
		logger        *zap.SugaredLogger
	}
)

func New(gatewayAPI client.AdminAPI, logger *zap.SugaredLogger, opts ...Option) *Orchestrator {
	o := &Orchestrator{gatewayAPI: gatewayAPI, logger: logger}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithKonnect enables best-effort propagation to the control plane.
func WithKonnect(api client.AdminAPI) Option {
	return func(o *Orchestrator) {
		o.konnectAPI = api
	}
}

// WithDataPlaneOnly suppresses Konnect writes even when a client is
// configured. Used for changes that must stay local.
func WithDataPlaneOnly(dataPlaneOnly bool) Option {
	return func(o *Orchestrator) {
		o.dataPlaneOnly = dataPlaneOnly
	}
}

// Create writes to Gateway, then best-effort to Konnect. A Gateway
// failure fails the whole operation and skips the Konnect step.
func (o *Orchestrator) Create(ctx context.Context, entityType string, entity gateway.Entity) (WriteResult, error) {
	created, err := o.gatewayAPI.Create(ctx, entityType, entity)
	if err != nil {
		return WriteResult{}, err
	}
	result := WriteResult{GatewayEntity: created}
	o.propagate(ctx, &result, func() (gateway.Entity, error) {
		return o.konnectAPI.Create(ctx, entityType, entity)
	}, entityType, entity.Name())
	return result, nil
}

func (o *Orchestrator) Update(ctx context.Context, entityType string, target Target, entity gateway.Entity) (WriteResult, error) {
	updated, err := o.gatewayAPI.Update(ctx, entityType, target.Gateway, entity)
	if err != nil {
		return WriteResult{}, err
	}
	result := WriteResult{GatewayEntity: updated}
	o.propagate(ctx, &result, func() (gateway.Entity, error) {
		idOrName, resolveErr := o.konnectTarget(ctx, entityType, target)
		if resolveErr != nil {
			return nil, resolveErr
		}
		return o.konnectAPI.Update(ctx, entityType, idOrName, entity)
	}, entityType, target.Gateway)
	return result, nil
}

func (o *Orchestrator) Delete(ctx context.Context, entityType string, target Target) (DeleteResult, error) {
	if err := o.gatewayAPI.Delete(ctx, entityType, target.Gateway); err != nil {
		return DeleteResult{}, err
	}
	result := DeleteResult{GatewayDeleted: true}
	switch {
	case o.dataPlaneOnly:
		result.KonnectSkipped = true
	case o.konnectAPI == nil:
		result.KonnectNotConfigured = true
	default:
		err := func() error {
			idOrName, resolveErr := o.konnectTarget(ctx, entityType, target)
			if resolveErr != nil {
				return resolveErr
			}
			return o.konnectAPI.Delete(ctx, entityType, idOrName)
		}()
		if err != nil {
			o.logger.Warnw("Konnect delete failed, gateway state kept",
				"entityType", entityType, "identifier", target.Gateway, "error", err)
			result.KonnectError = err
		} else {
			result.KonnectDeleted = true
		}
	}
	return result, nil
}

// konnectTarget turns a dual-store target into the idOrName usable
// against the Konnect Admin API. Name-addressable types go straight by
// correlation key; the rest are resolved to the Konnect-assigned raw id
// by keying a listing.
func (o *Orchestrator) konnectTarget(ctx context.Context, entityType string, target Target) (string, error) {
	if target.Key == "" {
		return target.Gateway, nil
	}
	if nameAddressable[entityType] {
		return target.Key, nil
	}
	entities, err := o.konnectAPI.ListAll(ctx, entityType, nil)
	if err != nil {
		return "", err
	}
	keyed, _, err := identity.KeyBy(entityType, entities)
	if err != nil {
		return "", err
	}
	match, ok := keyed[target.Key]
	if !ok || match.ID() == "" {
		return "", &client.APIError{
			Kind:    client.ErrorKindNotFound,
			Message: fmt.Sprintf("no konnect %s matches key %q", entityType, target.Key),
		}
	}
	return match.ID(), nil
}

// propagate runs the Konnect step of a create/update: evaluate the skip
// conditions in order, then attempt the write, downgrading any failure to
// a captured result field.
func (o *Orchestrator) propagate(ctx context.Context, result *WriteResult, write func() (gateway.Entity, error), entityType, identifier string) {
	switch {
	case o.dataPlaneOnly:
		result.KonnectSkipped = true
	case o.konnectAPI == nil:
		result.KonnectNotConfigured = true
	default:
		konnectEntity, err := write()
		if err != nil {
			o.logger.Warnw("Konnect write failed, gateway state kept",
				"entityType", entityType, "identifier", identifier, "error", err)
			result.KonnectError = err
			return
		}
		result.KonnectEntity = konnectEntity
	}
}
