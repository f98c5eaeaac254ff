package test_utils

import (
	"context"
	"fmt"
	"sync"

	"github.com/gateway-labs/konnect-sync/pkg/client"
	"github.com/gateway-labs/konnect-sync/pkg/gateway"
)

// FakeAdminAPI is an in-memory AdminAPI for tests. Entities are stored
// per type and addressed by id or name, like the real admin surface.
// Individual operations can be forced to fail to exercise partial-failure
// paths.
type FakeAdminAPI struct {
	mu       sync.Mutex
	store    map[string][]gateway.Entity
	FailWith map[string]error // keyed by operation: "create", "update", "delete", "list", "get"
	Calls    []string
}

var _ client.AdminAPI = (*FakeAdminAPI)(nil)

func NewFakeAdminAPI() *FakeAdminAPI {
	return &FakeAdminAPI{
		store:    map[string][]gateway.Entity{},
		FailWith: map[string]error{},
	}
}

// Seed loads entities of one type, replacing what was there.
func (f *FakeAdminAPI) Seed(entityType string, entities ...gateway.Entity) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cloned := make([]gateway.Entity, 0, len(entities))
	for _, entity := range entities {
		cloned = append(cloned, entity.Clone())
	}
	f.store[entityType] = cloned
}

func (f *FakeAdminAPI) record(op, entityType string) {
	f.Calls = append(f.Calls, fmt.Sprintf("%s %s", op, entityType))
}

func (f *FakeAdminAPI) List(ctx context.Context, entityType string, opts client.ListOptions) ([]gateway.Entity, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("list", entityType)
	if err := f.FailWith["list"]; err != nil {
		return nil, "", err
	}
	out := make([]gateway.Entity, 0, len(f.store[entityType]))
	for _, entity := range f.store[entityType] {
		out = append(out, entity.Clone())
	}
	return out, "", nil
}

func (f *FakeAdminAPI) ListAll(ctx context.Context, entityType string, tags []string) ([]gateway.Entity, error) {
	entities, _, err := f.List(ctx, entityType, client.ListOptions{Tags: tags})
	return entities, err
}

func (f *FakeAdminAPI) Get(ctx context.Context, entityType, idOrName string) (gateway.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("get", entityType)
	if err := f.FailWith["get"]; err != nil {
		return nil, err
	}
	for _, entity := range f.store[entityType] {
		if entity.ID() == idOrName || entity.Name() == idOrName {
			return entity.Clone(), nil
		}
	}
	return nil, &client.APIError{Kind: client.ErrorKindNotFound, StatusCode: 404, Message: "not found"}
}

func (f *FakeAdminAPI) Create(ctx context.Context, entityType string, entity gateway.Entity) (gateway.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("create", entityType)
	if err := f.FailWith["create"]; err != nil {
		return nil, err
	}
	created := entity.Clone()
	if created.ID() == "" {
		created["id"] = fmt.Sprintf("%s-%d", entityType, len(f.store[entityType])+1)
	}
	f.store[entityType] = append(f.store[entityType], created)
	return created.Clone(), nil
}

func (f *FakeAdminAPI) Update(ctx context.Context, entityType, idOrName string, entity gateway.Entity) (gateway.Entity, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("update", entityType)
	if err := f.FailWith["update"]; err != nil {
		return nil, err
	}
	for i, existing := range f.store[entityType] {
		if existing.ID() == idOrName || existing.Name() == idOrName {
			updated := entity.Clone()
			if updated.ID() == "" && existing.ID() != "" {
				updated["id"] = existing.ID()
			}
			f.store[entityType][i] = updated
			return updated.Clone(), nil
		}
	}
	return nil, &client.APIError{Kind: client.ErrorKindNotFound, StatusCode: 404, Message: "not found"}
}

func (f *FakeAdminAPI) Delete(ctx context.Context, entityType, idOrName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("delete", entityType)
	if err := f.FailWith["delete"]; err != nil {
		return err
	}
	for i, existing := range f.store[entityType] {
		if existing.ID() == idOrName || existing.Name() == idOrName {
			f.store[entityType] = append(f.store[entityType][:i], f.store[entityType][i+1:]...)
			return nil
		}
	}
	return &client.APIError{Kind: client.ErrorKindNotFound, StatusCode: 404, Message: "not found"}
}

// Entities returns a copy of the stored entities of one type.
func (f *FakeAdminAPI) Entities(entityType string) []gateway.Entity {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]gateway.Entity, 0, len(f.store[entityType]))
	for _, entity := range f.store[entityType] {
		out = append(out, entity.Clone())
	}
	return out
}
