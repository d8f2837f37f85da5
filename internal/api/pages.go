package api

import (
	"context"
	"fmt"

	"github.com/ayatskii/panel-sub002/internal/cache"
	"github.com/ayatskii/panel-sub002/internal/client"
	"github.com/ayatskii/panel-sub002/pkg/model"
)

const pagesPath = "/api/pages/"

type PageFilter struct {
	Site int `json:"site,omitempty"`
}

type UpdatePageParams struct {
	ID   int        `json:"id"`
	Page model.Page `json:"page"`
}

type ReorderBlocksParams struct {
	PageID   int   `json:"page_id"`
	BlockIDs []int `json:"block_ids"`
}

type PagesModule struct {
	List          cache.QueryDef[PageFilter, []model.Page]
	Get           cache.QueryDef[int, model.Page]
	Create        cache.MutationDef[model.Page, model.Page]
	Update        cache.MutationDef[UpdatePageParams, model.Page]
	Delete        cache.MutationDef[int, struct{}]
	ReorderBlocks cache.MutationDef[ReorderBlocksParams, model.Page]
	Duplicate     cache.MutationDef[int, model.Page]
}

func newPagesModule(c *client.APIClient) PagesModule {
	pageTags := func(id int) []cache.Tag {
		return []cache.Tag{cache.IDTag(TagPage, id), cache.ListTag(TagPage)}
	}
	return PagesModule{
		List: cache.QueryDef[PageFilter, []model.Page]{
			Name: "listPages",
			Execute: func(ctx context.Context, f PageFilter) ([]model.Page, error) {
				return getList[model.Page](ctx, c, pagesPath, idQuery("site", f.Site))
			},
			ProvidesTags: func(rows []model.Page, _ PageFilter) []cache.Tag {
				return collectionTags(TagPage, rows, func(p model.Page) int { return p.ID })
			},
		},
		Get: cache.QueryDef[int, model.Page]{
			Name: "getPage",
			Execute: func(ctx context.Context, id int) (model.Page, error) {
				return getOne[model.Page](ctx, c, resourcePath(pagesPath, id))
			},
			ProvidesTags: func(_ model.Page, id int) []cache.Tag {
				return []cache.Tag{cache.IDTag(TagPage, id)}
			},
		},
		Create: cache.MutationDef[model.Page, model.Page]{
			Name: "createPage",
			Execute: func(ctx context.Context, p model.Page) (model.Page, error) {
				var out model.Page
				err := c.Post(ctx, pagesPath, p, &out)
				return out, err
			},
			InvalidatesTags: func(model.Page, model.Page) []cache.Tag {
				return []cache.Tag{cache.ListTag(TagPage)}
			},
		},
		Update: cache.MutationDef[UpdatePageParams, model.Page]{
			Name: "updatePage",
			Execute: func(ctx context.Context, p UpdatePageParams) (model.Page, error) {
				var out model.Page
				err := c.Patch(ctx, resourcePath(pagesPath, p.ID), p.Page, &out)
				return out, err
			},
			InvalidatesTags: func(_ model.Page, p UpdatePageParams) []cache.Tag { return pageTags(p.ID) },
		},
		Delete: cache.MutationDef[int, struct{}]{
			Name: "deletePage",
			Execute: func(ctx context.Context, id int) (struct{}, error) {
				return struct{}{}, c.Delete(ctx, resourcePath(pagesPath, id), nil)
			},
			InvalidatesTags: func(_ struct{}, id int) []cache.Tag { return pageTags(id) },
		},
		ReorderBlocks: cache.MutationDef[ReorderBlocksParams, model.Page]{
			Name: "reorderBlocks",
			Execute: func(ctx context.Context, p ReorderBlocksParams) (model.Page, error) {
				if len(p.BlockIDs) == 0 {
					return model.Page{}, fmt.Errorf("reorder blocks: at least one block id is required")
				}
				var out model.Page
				path := resourcePath(pagesPath, p.PageID) + "reorder-blocks/"
				err := c.Post(ctx, path, map[string][]int{"block_ids": p.BlockIDs}, &out)
				return out, err
			},
			InvalidatesTags: func(_ model.Page, p ReorderBlocksParams) []cache.Tag {
				return []cache.Tag{cache.IDTag(TagPage, p.PageID)}
			},
		},
		Duplicate: cache.MutationDef[int, model.Page]{
			Name: "duplicatePage",
			Execute: func(ctx context.Context, id int) (model.Page, error) {
				var out model.Page
				err := c.Post(ctx, resourcePath(pagesPath, id)+"duplicate/", nil, &out)
				return out, err
			},
			InvalidatesTags: func(model.Page, int) []cache.Tag {
				return []cache.Tag{cache.ListTag(TagPage)}
			},
		},
	}
}

func (m PagesModule) descriptors() []cache.Descriptor {
	return []cache.Descriptor{m.List, m.Get, m.Create, m.Update, m.Delete, m.ReorderBlocks, m.Duplicate}
}

func (a *API) ListPages(ctx context.Context, siteID int) ([]model.Page, error) {
	return cache.Fetch(ctx, a.cache, a.Pages.List, PageFilter{Site: siteID})
}

func (a *API) GetPage(ctx context.Context, id int) (model.Page, error) {
	return cache.Fetch(ctx, a.cache, a.Pages.Get, id)
}

func (a *API) CreatePage(ctx context.Context, p model.Page) (model.Page, error) {
	return cache.Mutate(a.mutationContext(ctx), a.cache, a.Pages.Create, p)
}

func (a *API) UpdatePage(ctx context.Context, id int, p model.Page) (model.Page, error) {
	return cache.Mutate(a.mutationContext(ctx), a.cache, a.Pages.Update, UpdatePageParams{ID: id, Page: p})
}

func (a *API) DeletePage(ctx context.Context, id int) error {
	_, err := cache.Mutate(a.mutationContext(ctx), a.cache, a.Pages.Delete, id)
	return err
}

func (a *API) ReorderBlocks(ctx context.Context, pageID int, blockIDs []int) (model.Page, error) {
	return cache.Mutate(a.mutationContext(ctx), a.cache, a.Pages.ReorderBlocks, ReorderBlocksParams{PageID: pageID, BlockIDs: blockIDs})
}

func (a *API) DuplicatePage(ctx context.Context, id int) (model.Page, error) {
	return cache.Mutate(a.mutationContext(ctx), a.cache, a.Pages.Duplicate, id)
}
