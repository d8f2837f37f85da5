package api

import (
	"context"

	"github.com/ayatskii/panel-sub002/internal/cache"
	"github.com/ayatskii/panel-sub002/internal/client"
	"github.com/ayatskii/panel-sub002/pkg/model"
)

const templatesPath = "/api/templates/"

// TemplatesModule is read-only.
type TemplatesModule struct {
	List cache.QueryDef[NoParams, []model.Template]
	Get  cache.QueryDef[int, model.Template]
}

func newTemplatesModule(c *client.APIClient) TemplatesModule {
	return TemplatesModule{
		List: cache.QueryDef[NoParams, []model.Template]{
			Name: "listTemplates",
			Execute: func(ctx context.Context, _ NoParams) ([]model.Template, error) {
				return getList[model.Template](ctx, c, templatesPath, nil)
			},
			ProvidesTags: func(rows []model.Template, _ NoParams) []cache.Tag {
				return collectionTags(TagTemplate, rows, func(t model.Template) int { return t.ID })
			},
		},
		Get: cache.QueryDef[int, model.Template]{
			Name: "getTemplate",
			Execute: func(ctx context.Context, id int) (model.Template, error) {
				return getOne[model.Template](ctx, c, resourcePath(templatesPath, id))
			},
			ProvidesTags: func(_ model.Template, id int) []cache.Tag {
				return []cache.Tag{cache.IDTag(TagTemplate, id)}
			},
		},
	}
}

func (m TemplatesModule) descriptors() []cache.Descriptor {
	return []cache.Descriptor{m.List, m.Get}
}

func (a *API) ListTemplates(ctx context.Context) ([]model.Template, error) {
	return cache.Fetch(ctx, a.cache, a.Templates.List, NoParams{})
}

func (a *API) GetTemplate(ctx context.Context, id int) (model.Template, error) {
	return cache.Fetch(ctx, a.cache, a.Templates.Get, id)
}
