package api

import (
	"context"
	"errors"
	"fmt"

	"github.com/ayatskii/panel-sub002/internal/cache"
	"github.com/ayatskii/panel-sub002/internal/client"
	"github.com/ayatskii/panel-sub002/pkg/model"
)

// RedirectsTag is provided by the redirect list of one site.
func RedirectsTag(siteID int) cache.Tag {
	return cache.IDTag(TagRedirect, fmt.Sprintf("site-%d", siteID))
}

func redirectsPath(siteID int) string {
	return fmt.Sprintf("%s%d/redirects/", sitesPath, siteID)
}

type RedirectParams struct {
	Site int                `json:"site"`
	Rule model.RedirectRule `json:"rule"`
}

type DeleteRedirectParams struct {
	Site int `json:"site"`
	ID   int `json:"id"`
}

type ApplyRedirectsParams struct {
	Site  int                  `json:"site"`
	Rules []model.RedirectRule `json:"rules"`
}

// RedirectOutcome is the result of one rule in an ApplyRedirects batch.
type RedirectOutcome struct {
	Rule    model.RedirectRule
	Created *model.RedirectRule
	Err     error
}

type ApplyRedirectsResult struct {
	Outcomes []RedirectOutcome
}

func (r ApplyRedirectsResult) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}

type RedirectsModule struct {
	List   cache.QueryDef[int, []model.RedirectRule]
	Create cache.MutationDef[RedirectParams, model.RedirectRule]
	Delete cache.MutationDef[DeleteRedirectParams, struct{}]
	Apply  cache.MutationDef[ApplyRedirectsParams, ApplyRedirectsResult]
}

func newRedirectsModule(c *client.APIClient) RedirectsModule {
	create := func(ctx context.Context, p RedirectParams) (model.RedirectRule, error) {
		var out model.RedirectRule
		rule := p.Rule
		rule.Site = p.Site
		err := c.Post(ctx, redirectsPath(p.Site), rule, &out)
		return out, err
	}
	return RedirectsModule{
		List: cache.QueryDef[int, []model.RedirectRule]{
			Name: "listRedirects",
			Execute: func(ctx context.Context, siteID int) ([]model.RedirectRule, error) {
				return getList[model.RedirectRule](ctx, c, redirectsPath(siteID), nil)
			},
			ProvidesTags: func(_ []model.RedirectRule, siteID int) []cache.Tag {
				return []cache.Tag{RedirectsTag(siteID)}
			},
		},
		Create: cache.MutationDef[RedirectParams, model.RedirectRule]{
			Name:    "createRedirect",
			Execute: create,
			InvalidatesTags: func(_ model.RedirectRule, p RedirectParams) []cache.Tag {
				return []cache.Tag{RedirectsTag(p.Site)}
			},
		},
		Delete: cache.MutationDef[DeleteRedirectParams, struct{}]{
			Name: "deleteRedirect",
			Execute: func(ctx context.Context, p DeleteRedirectParams) (struct{}, error) {
				return struct{}{}, c.Delete(ctx, resourcePath(redirectsPath(p.Site), p.ID), nil)
			},
			InvalidatesTags: func(_ struct{}, p DeleteRedirectParams) []cache.Tag {
				return []cache.Tag{RedirectsTag(p.Site)}
			},
		},
		Apply: cache.MutationDef[ApplyRedirectsParams, ApplyRedirectsResult]{
			Name: "applyRedirects",
			// One POST per rule, in order. A failed rule does not stop the batch
			// and nothing already created is rolled back.
			Execute: func(ctx context.Context, p ApplyRedirectsParams) (ApplyRedirectsResult, error) {
				res := ApplyRedirectsResult{Outcomes: make([]RedirectOutcome, 0, len(p.Rules))}
				var errs []error
				for _, rule := range p.Rules {
					if err := ctx.Err(); err != nil {
						res.Outcomes = append(res.Outcomes, RedirectOutcome{Rule: rule, Err: err})
						errs = append(errs, fmt.Errorf("redirect %s: %w", rule.SourcePath, err))
						continue
					}
					created, err := create(ctx, RedirectParams{Site: p.Site, Rule: rule})
					if err != nil {
						res.Outcomes = append(res.Outcomes, RedirectOutcome{Rule: rule, Err: err})
						errs = append(errs, fmt.Errorf("redirect %s: %w", rule.SourcePath, err))
						continue
					}
					res.Outcomes = append(res.Outcomes, RedirectOutcome{Rule: rule, Created: &created})
				}
				return res, errors.Join(errs...)
			},
			InvalidatesTags: func(_ ApplyRedirectsResult, p ApplyRedirectsParams) []cache.Tag {
				return []cache.Tag{RedirectsTag(p.Site)}
			},
		},
	}
}

func (m RedirectsModule) descriptors() []cache.Descriptor {
	return []cache.Descriptor{m.List, m.Create, m.Delete, m.Apply}
}

func (a *API) ListRedirects(ctx context.Context, siteID int) ([]model.RedirectRule, error) {
	return cache.Fetch(ctx, a.cache, a.Redirects.List, siteID)
}

func (a *API) CreateRedirect(ctx context.Context, siteID int, rule model.RedirectRule) (model.RedirectRule, error) {
	return cache.Mutate(a.mutationContext(ctx), a.cache, a.Redirects.Create, RedirectParams{Site: siteID, Rule: rule})
}

func (a *API) DeleteRedirect(ctx context.Context, siteID, id int) error {
	_, err := cache.Mutate(a.mutationContext(ctx), a.cache, a.Redirects.Delete, DeleteRedirectParams{Site: siteID, ID: id})
	return err
}

// ApplyRedirects creates every rule in order and reports each outcome. The
// returned error joins the per-rule failures. The site's redirect list is
// invalidated whenever at least one rule was created.
func (a *API) ApplyRedirects(ctx context.Context, siteID int, rules []model.RedirectRule) (ApplyRedirectsResult, error) {
	res, err := cache.Mutate(a.mutationContext(ctx), a.cache, a.Redirects.Apply, ApplyRedirectsParams{Site: siteID, Rules: rules})
	if err != nil && res.Succeeded() > 0 {
		a.cache.Invalidate(RedirectsTag(siteID))
	}
	return res, err
}
