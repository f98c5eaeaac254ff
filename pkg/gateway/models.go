package gateway

// Entity is a single gateway configuration object (service, route,
// consumer, ...). The field schema is owned by the backend, not by this
// module, so entities stay open mappings end to end.
type Entity map[string]interface{}

// Source tells which backend(s) an entity was observed in.
type Source string

const (
	SourceGateway Source = "GATEWAY"
	SourceKonnect Source = "KONNECT"
	SourceBoth    Source = "BOTH"
)

// Operation is one kind of change to apply against a backend.
type Operation string

const (
	OperationCreate Operation = "create"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

const (
	TypeService       = "services"
	TypeRoute         = "routes"
	TypeUpstream      = "upstreams"
	TypeConsumer      = "consumers"
	TypePlugin        = "plugins"
	TypeCertificate   = "certificates"
	TypeCACertificate = "ca_certificates"
	TypeSNI           = "snis"
)

// Tiers orders entity types by dependency: services, upstreams and
// certificates reference nothing, routes and snis reference services and
// certificates, plugins can reference services, routes and consumers.
// Creates and updates walk the tiers forward, deletes walk them backward.
var Tiers = [][]string{
	{TypeService, TypeUpstream, TypeCertificate, TypeCACertificate},
	{TypeRoute, TypeConsumer, TypeSNI},
	{TypePlugin},
}

// Types is the closed set of entity types known to the diff engine, in
// apply order. Unknown keys in a declarative document pass through
// unvalidated but are never diffed.
func Types() []string {
	out := make([]string, 0, 8)
	for _, tier := range Tiers {
		out = append(out, tier...)
	}
	return out
}

// ServerAssignedFields are populated by the backend on write and excluded
// from every comparison this module performs.
var ServerAssignedFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

func (e Entity) ID() string {
	return e.stringField("id")
}

// Name returns the entity's human identifier. Consumers are named by
// username or custom_id, everything else by name.
func (e Entity) Name() string {
	if name := e.stringField("name"); name != "" {
		return name
	}
	if username := e.stringField("username"); username != "" {
		return username
	}
	return e.stringField("custom_id")
}

func (e Entity) stringField(key string) string {
	if v, ok := e[key].(string); ok {
		return v
	}
	return ""
}

// Clone returns a deep copy. Diff and merge hand entities across component
// boundaries, so nobody may alias the caller's maps.
func (e Entity) Clone() Entity {
	if e == nil {
		return nil
	}
	return Entity(cloneMap(e))
}

func cloneMap(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v interface{}) interface{} {
	switch tv := v.(type) {
	case map[string]interface{}:
		return cloneMap(tv)
	case Entity:
		return cloneMap(tv)
	case []interface{}:
		out := make([]interface{}, len(tv))
		for i, item := range tv {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// WithoutServerAssigned returns a copy stripped of backend-populated
// fields so two listings of the same logical entity compare clean.
func (e Entity) WithoutServerAssigned() Entity {
	out := make(Entity, len(e))
	for k, v := range e {
		if ServerAssignedFields[k] {
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}
