package api

import (
	"context"

	"github.com/ayatskii/panel-sub002/internal/cache"
	"github.com/ayatskii/panel-sub002/internal/client"
	"github.com/ayatskii/panel-sub002/pkg/model"
)

const sitesPath = "/api/sites/"

type UpdateSiteParams struct {
	ID    int             `json:"id"`
	Input model.SiteInput `json:"input"`
}

type SitesModule struct {
	List   cache.QueryDef[NoParams, []model.Site]
	Get    cache.QueryDef[int, model.Site]
	Create cache.MutationDef[model.SiteInput, model.Site]
	Update cache.MutationDef[UpdateSiteParams, model.Site]
	Delete cache.MutationDef[int, struct{}]
}

func newSitesModule(c *client.APIClient) SitesModule {
	return SitesModule{
		List: cache.QueryDef[NoParams, []model.Site]{
			Name: "listSites",
			Execute: func(ctx context.Context, _ NoParams) ([]model.Site, error) {
				return getList[model.Site](ctx, c, sitesPath, nil)
			},
			ProvidesTags: func(rows []model.Site, _ NoParams) []cache.Tag {
				return collectionTags(TagSite, rows, func(s model.Site) int { return s.ID })
			},
		},
		Get: cache.QueryDef[int, model.Site]{
			Name: "getSite",
			Execute: func(ctx context.Context, id int) (model.Site, error) {
				return getOne[model.Site](ctx, c, resourcePath(sitesPath, id))
			},
			ProvidesTags: func(_ model.Site, id int) []cache.Tag {
				return []cache.Tag{cache.IDTag(TagSite, id)}
			},
		},
		Create: cache.MutationDef[model.SiteInput, model.Site]{
			Name: "createSite",
			Execute: func(ctx context.Context, in model.SiteInput) (model.Site, error) {
				var out model.Site
				err := c.Post(ctx, sitesPath, in, &out)
				return out, err
			},
			InvalidatesTags: func(model.Site, model.SiteInput) []cache.Tag {
				return []cache.Tag{cache.ListTag(TagSite)}
			},
		},
		Update: cache.MutationDef[UpdateSiteParams, model.Site]{
			Name: "updateSite",
			Execute: func(ctx context.Context, p UpdateSiteParams) (model.Site, error) {
				var out model.Site
				err := c.Patch(ctx, resourcePath(sitesPath, p.ID), p.Input, &out)
				return out, err
			},
			InvalidatesTags: func(_ model.Site, p UpdateSiteParams) []cache.Tag {
				return []cache.Tag{cache.IDTag(TagSite, p.ID), cache.ListTag(TagSite)}
			},
		},
		Delete: cache.MutationDef[int, struct{}]{
			Name: "deleteSite",
			Execute: func(ctx context.Context, id int) (struct{}, error) {
				return struct{}{}, c.Delete(ctx, resourcePath(sitesPath, id), nil)
			},
			InvalidatesTags: func(_ struct{}, id int) []cache.Tag {
				return []cache.Tag{
					cache.IDTag(TagSite, id),
					cache.ListTag(TagSite),
					cache.ListTag(TagPage),
					cache.ListTag(TagDeployment),
				}
			},
		},
	}
}

func (m SitesModule) descriptors() []cache.Descriptor {
	return []cache.Descriptor{m.List, m.Get, m.Create, m.Update, m.Delete}
}

func (a *API) ListSites(ctx context.Context) ([]model.Site, error) {
	return cache.Fetch(ctx, a.cache, a.Sites.List, NoParams{})
}

func (a *API) GetSite(ctx context.Context, id int) (model.Site, error) {
	return cache.Fetch(ctx, a.cache, a.Sites.Get, id)
}

func (a *API) CreateSite(ctx context.Context, in model.SiteInput) (model.Site, error) {
	return cache.Mutate(a.mutationContext(ctx), a.cache, a.Sites.Create, in)
}

func (a *API) UpdateSite(ctx context.Context, id int, in model.SiteInput) (model.Site, error) {
	return cache.Mutate(a.mutationContext(ctx), a.cache, a.Sites.Update, UpdateSiteParams{ID: id, Input: in})
}

func (a *API) DeleteSite(ctx context.Context, id int) error {
	_, err := cache.Mutate(a.mutationContext(ctx), a.cache, a.Sites.Delete, id)
	return err
}
