package client

import (
	"context"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"

	"github.com/gateway-labs/konnect-sync/pkg/gateway"
)

// AdminAPI is the backend collaborator contract the reconciliation core
// depends on. Both the Gateway admin API and the Konnect control-plane
// API are consumed through this shape; the core never cares how a
// collaborator authenticates or transports requests.
type AdminAPI interface {
	// List fetches one page. A non-empty next offset means more pages.
	List(ctx context.Context, entityType string, opts ListOptions) ([]gateway.Entity, string, error)
	// ListAll walks the offset tokens until the backend stops returning one.
	ListAll(ctx context.Context, entityType string, tags []string) ([]gateway.Entity, error)
	Get(ctx context.Context, entityType, idOrName string) (gateway.Entity, error)
	Create(ctx context.Context, entityType string, entity gateway.Entity) (gateway.Entity, error)
	Update(ctx context.Context, entityType, idOrName string, entity gateway.Entity) (gateway.Entity, error)
	Delete(ctx context.Context, entityType, idOrName string) error
}

// ListOptions narrows a listing call.
type ListOptions struct {
	Tags   []string
	Limit  int
	Offset string
}

// Capability is the result of probing whether a backend exposes an
// endpoint. Probing is data, not control flow: callers branch on the
// returned value instead of catching a 404.
type Capability string

const (
	CapabilityAvailable   Capability = "available"
	CapabilityUnavailable Capability = "unavailable"
	CapabilityUnknown     Capability = "unknown"
)

type (
	Option func(*Client)

	// Client is a resty-backed AdminAPI over a Kong-style admin surface.
	// The same implementation serves Gateway and Konnect; they differ
	// only in base URL, auth and path prefix.
	Client struct {
		Client     *resty.Client
		pathPrefix string
	}
)

type listResponseBody struct {
	Data   []map[string]interface{} `json:"data"`
	Offset string                   `json:"offset,omitempty"`
	Next   string                   `json:"next,omitempty"`
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		Client: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Accept", "application/json").
			SetRetryCount(3).
			AddRetryCondition(func(r *resty.Response, err error) bool {
				// Only transport failures and 5xx are worth retrying;
				// 4xx rejections are final.
				return err != nil || r.StatusCode() >= 500
			}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithAuthToken sets a bearer token (Konnect personal access token).
func WithAuthToken(token string) Option {
	return func(c *Client) {
		c.Client.SetAuthScheme("Bearer").SetAuthToken(token)
	}
}

// WithAdminToken sets the Kong-Admin-Token header used by Gateway
// Enterprise deployments with RBAC enabled.
func WithAdminToken(token string) Option {
	return func(c *Client) {
		c.Client.SetHeader("Kong-Admin-Token", token)
	}
}

func WithHeader(key, val string) Option {
	return func(c *Client) {
		c.Client.SetHeader(key, val)
	}
}

// WithPathPrefix prefixes every entity path, e.g. a Konnect
// control-plane scope of /v2/control-planes/{id}/core-entities.
func WithPathPrefix(prefix string) Option {
	return func(c *Client) {
		c.pathPrefix = prefix
	}
}

func (c *Client) entityPath(entityType string) string {
	return fmt.Sprintf("%s/%s", c.pathPrefix, entityType)
}

func (c *Client) List(ctx context.Context, entityType string, opts ListOptions) ([]gateway.Entity, string, error) {
	body := &listResponseBody{}
	req := c.Client.R().
		SetContext(ctx).
		SetResult(body)
	if opts.Limit > 0 {
		req.SetQueryParam("size", strconv.Itoa(opts.Limit))
	}
	if opts.Offset != "" {
		req.SetQueryParam("offset", opts.Offset)
	}
	for _, tag := range opts.Tags {
		req.SetQueryParam("tags", tag)
	}

	resp, err := req.Get(c.entityPath(entityType))
	if err != nil {
		return nil, "", connectionError(err)
	}
	if resp.IsError() {
		return nil, "", classifyStatus(resp.StatusCode(), string(resp.Body()))
	}

	entities := make([]gateway.Entity, 0, len(body.Data))
	for _, raw := range body.Data {
		entities = append(entities, gateway.Entity(raw))
	}
	return entities, body.Offset, nil
}

func (c *Client) ListAll(ctx context.Context, entityType string, tags []string) ([]gateway.Entity, error) {
	var all []gateway.Entity
	offset := ""
	for {
		page, next, err := c.List(ctx, entityType, ListOptions{Tags: tags, Offset: offset})
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if next == "" {
			return all, nil
		}
		offset = next
	}
}

func (c *Client) Get(ctx context.Context, entityType, idOrName string) (gateway.Entity, error) {
	entity := gateway.Entity{}
	resp, err := c.Client.R().
		SetContext(ctx).
		SetResult(&entity).
		Get(fmt.Sprintf("%s/%s", c.entityPath(entityType), idOrName))
	if err != nil {
		return nil, connectionError(err)
	}
	if resp.IsError() {
		return nil, classifyStatus(resp.StatusCode(), string(resp.Body()))
	}
	return entity, nil
}

// Exists converts the not-found error class to a boolean. Any other
// failure still propagates.
func (c *Client) Exists(ctx context.Context, entityType, idOrName string) (bool, error) {
	_, err := c.Get(ctx, entityType, idOrName)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (c *Client) Create(ctx context.Context, entityType string, entity gateway.Entity) (gateway.Entity, error) {
	created := gateway.Entity{}
	resp, err := c.Client.R().
		SetContext(ctx).
		SetBody(entity).
		SetResult(&created).
		Post(c.entityPath(entityType))
	if err != nil {
		return nil, connectionError(err)
	}
	if resp.IsError() {
		return nil, classifyStatus(resp.StatusCode(), string(resp.Body()))
	}
	return created, nil
}

func (c *Client) Update(ctx context.Context, entityType, idOrName string, entity gateway.Entity) (gateway.Entity, error) {
	updated := gateway.Entity{}
	resp, err := c.Client.R().
		SetContext(ctx).
		SetBody(entity).
		SetResult(&updated).
		Patch(fmt.Sprintf("%s/%s", c.entityPath(entityType), idOrName))
	if err != nil {
		return nil, connectionError(err)
	}
	if resp.IsError() {
		return nil, classifyStatus(resp.StatusCode(), string(resp.Body()))
	}
	return updated, nil
}

func (c *Client) Delete(ctx context.Context, entityType, idOrName string) error {
	resp, err := c.Client.R().
		SetContext(ctx).
		Delete(fmt.Sprintf("%s/%s", c.entityPath(entityType), idOrName))
	if err != nil {
		return connectionError(err)
	}
	if resp.IsError() {
		return classifyStatus(resp.StatusCode(), string(resp.Body()))
	}
	return nil
}

// CheckCapability probes whether the backend exposes a path. 404 means
// unavailable, a reachable non-404 answer means available, a transport
// failure means we cannot tell.
func (c *Client) CheckCapability(ctx context.Context, path string) Capability {
	resp, err := c.Client.R().SetContext(ctx).Get(path)
	if err != nil {
		return CapabilityUnknown
	}
	if resp.StatusCode() == 404 {
		return CapabilityUnavailable
	}
	return CapabilityAvailable
}
