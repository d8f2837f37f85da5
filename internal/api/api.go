// Package api declares the panel endpoints as cache descriptors and exposes
// typed wrappers that read through, and invalidate, the query cache.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/ayatskii/panel-sub002/internal/cache"
	"github.com/ayatskii/panel-sub002/internal/client"
)

// Tag types provided and invalidated by the endpoint modules.
const (
	TagSite            = "Site"
	TagPage            = "Page"
	TagDeployment      = "Deployment"
	TagMedia           = "Media"
	TagAnalytics       = "Analytics"
	TagAPIToken        = "ApiToken"
	TagCloudflareToken = "CloudflareToken"
	TagPrompt          = "Prompt"
	TagTemplate        = "Template"
	TagRedirect        = "Redirect"
)

// NoParams is the parameter type of queries that take no arguments.
type NoParams struct{}

type API struct {
	client   *client.APIClient
	cache    *cache.Manager
	registry *cache.Registry

	Sites        SitesModule
	Pages        PagesModule
	Deployments  DeploymentsModule
	Media        MediaModule
	Analytics    AnalyticsModule
	Integrations IntegrationsModule
	Templates    TemplatesModule
	Redirects    RedirectsModule
}

func New(c *client.APIClient, m *cache.Manager) (*API, error) {
	if c == nil {
		return nil, fmt.Errorf("api client is required")
	}
	if m == nil {
		return nil, fmt.Errorf("cache manager is required")
	}
	a := &API{
		client:       c,
		cache:        m,
		registry:     cache.NewRegistry(),
		Sites:        newSitesModule(c),
		Pages:        newPagesModule(c),
		Deployments:  newDeploymentsModule(c),
		Media:        newMediaModule(c),
		Analytics:    newAnalyticsModule(c),
		Integrations: newIntegrationsModule(c),
		Templates:    newTemplatesModule(c),
		Redirects:    newRedirectsModule(c),
	}
	for _, defs := range [][]cache.Descriptor{
		a.Sites.descriptors(),
		a.Pages.descriptors(),
		a.Deployments.descriptors(),
		a.Media.descriptors(),
		a.Analytics.descriptors(),
		a.Integrations.descriptors(),
		a.Templates.descriptors(),
		a.Redirects.descriptors(),
	} {
		if err := a.registry.Register(defs...); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Cache exposes the query cache for subscriptions.
func (a *API) Cache() *cache.Manager { return a.cache }

// Endpoints lists every registered descriptor name.
func (a *API) Endpoints() []string { return a.registry.Names() }

// mutationContext pins one request id for every request a mutation issues so
// the activity journal can correlate them.
func (a *API) mutationContext(ctx context.Context) context.Context {
	if client.RequestIDFromContext(ctx) != "" {
		return ctx
	}
	id, err := client.NewRequestID(time.Now())
	if err != nil {
		return ctx
	}
	return client.WithRequestID(ctx, id)
}

func getList[T any](ctx context.Context, c *client.APIClient, path string, query url.Values) ([]T, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, path, query, &raw); err != nil {
		return nil, err
	}
	return client.DecodeList[T](raw)
}

func getOne[T any](ctx context.Context, c *client.APIClient, path string) (T, error) {
	var out T
	err := c.Get(ctx, path, nil, &out)
	return out, err
}

// collectionTags provides the LIST tag plus one tag per row.
func collectionTags[T any](typ string, rows []T, id func(T) int) []cache.Tag {
	tags := make([]cache.Tag, 0, len(rows)+1)
	tags = append(tags, cache.ListTag(typ))
	for _, row := range rows {
		tags = append(tags, cache.IDTag(typ, id(row)))
	}
	return tags
}

func resourcePath(collection string, id int) string {
	return fmt.Sprintf("%s%d/", collection, id)
}

func idQuery(key string, id int) url.Values {
	q := url.Values{}
	if id > 0 {
		q.Set(key, fmt.Sprint(id))
	}
	return q
}
