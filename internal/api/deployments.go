package api

import (
	"context"
	"fmt"

	"github.com/ayatskii/panel-sub002/internal/cache"
	"github.com/ayatskii/panel-sub002/internal/client"
	"github.com/ayatskii/panel-sub002/pkg/model"
)

const deploymentsPath = "/api/deployments/"

type DeploymentFilter struct {
	Site int `json:"site,omitempty"`
}

type DeploymentsModule struct {
	List    cache.QueryDef[DeploymentFilter, []model.Deployment]
	Get     cache.QueryDef[int, model.Deployment]
	Logs    cache.QueryDef[int, model.DeploymentLogs]
	Trigger cache.MutationDef[int, model.Deployment]
	Cancel  cache.MutationDef[int, model.Deployment]
}

func newDeploymentsModule(c *client.APIClient) DeploymentsModule {
	return DeploymentsModule{
		List: cache.QueryDef[DeploymentFilter, []model.Deployment]{
			Name: "listDeployments",
			Execute: func(ctx context.Context, f DeploymentFilter) ([]model.Deployment, error) {
				return getList[model.Deployment](ctx, c, deploymentsPath, idQuery("site", f.Site))
			},
			ProvidesTags: func(rows []model.Deployment, _ DeploymentFilter) []cache.Tag {
				return collectionTags(TagDeployment, rows, func(d model.Deployment) int { return d.ID })
			},
		},
		Get: cache.QueryDef[int, model.Deployment]{
			Name: "getDeployment",
			Execute: func(ctx context.Context, id int) (model.Deployment, error) {
				return getOne[model.Deployment](ctx, c, resourcePath(deploymentsPath, id))
			},
			ProvidesTags: func(_ model.Deployment, id int) []cache.Tag {
				return []cache.Tag{cache.IDTag(TagDeployment, id)}
			},
		},
		Logs: cache.QueryDef[int, model.DeploymentLogs]{
			Name: "getDeploymentLogs",
			Execute: func(ctx context.Context, id int) (model.DeploymentLogs, error) {
				return getOne[model.DeploymentLogs](ctx, c, resourcePath(deploymentsPath, id)+"logs/")
			},
			ProvidesTags: func(_ model.DeploymentLogs, id int) []cache.Tag {
				return []cache.Tag{cache.IDTag(TagDeployment, id)}
			},
		},
		Trigger: cache.MutationDef[int, model.Deployment]{
			Name: "triggerDeployment",
			Execute: func(ctx context.Context, siteID int) (model.Deployment, error) {
				var out model.Deployment
				err := c.Post(ctx, fmt.Sprintf("%s%d/deploy/", sitesPath, siteID), nil, &out)
				return out, err
			},
			InvalidatesTags: func(_ model.Deployment, siteID int) []cache.Tag {
				return []cache.Tag{cache.ListTag(TagDeployment), cache.IDTag(TagSite, siteID)}
			},
		},
		Cancel: cache.MutationDef[int, model.Deployment]{
			Name: "cancelDeployment",
			Execute: func(ctx context.Context, id int) (model.Deployment, error) {
				var out model.Deployment
				err := c.Post(ctx, resourcePath(deploymentsPath, id)+"cancel/", nil, &out)
				return out, err
			},
			InvalidatesTags: func(_ model.Deployment, id int) []cache.Tag {
				return []cache.Tag{cache.IDTag(TagDeployment, id)}
			},
		},
	}
}

func (m DeploymentsModule) descriptors() []cache.Descriptor {
	return []cache.Descriptor{m.List, m.Get, m.Logs, m.Trigger, m.Cancel}
}

func (a *API) ListDeployments(ctx context.Context, siteID int) ([]model.Deployment, error) {
	return cache.Fetch(ctx, a.cache, a.Deployments.List, DeploymentFilter{Site: siteID})
}

func (a *API) GetDeployment(ctx context.Context, id int) (model.Deployment, error) {
	return cache.Fetch(ctx, a.cache, a.Deployments.Get, id)
}

func (a *API) GetDeploymentLogs(ctx context.Context, id int) (model.DeploymentLogs, error) {
	return cache.Fetch(ctx, a.cache, a.Deployments.Logs, id)
}

func (a *API) TriggerDeployment(ctx context.Context, siteID int) (model.Deployment, error) {
	return cache.Mutate(a.mutationContext(ctx), a.cache, a.Deployments.Trigger, siteID)
}

func (a *API) CancelDeployment(ctx context.Context, id int) (model.Deployment, error) {
	return cache.Mutate(a.mutationContext(ctx), a.cache, a.Deployments.Cancel, id)
}
