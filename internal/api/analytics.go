package api

import (
	"context"
	"fmt"
	"net/url"

	"github.com/ayatskii/panel-sub002/internal/cache"
	"github.com/ayatskii/panel-sub002/internal/client"
	"github.com/ayatskii/panel-sub002/pkg/model"
)

const analyticsPath = "/api/analytics/"

var overviewTag = cache.IDTag(TagAnalytics, "overview")

// SiteAnalyticsTag is provided by every period of one site's analytics.
func SiteAnalyticsTag(siteID int) cache.Tag {
	return cache.IDTag(TagAnalytics, fmt.Sprintf("site-%d", siteID))
}

type SiteAnalyticsParams struct {
	Site   int    `json:"site"`
	Period string `json:"period,omitempty"`
}

type AnalyticsModule struct {
	Site     cache.QueryDef[SiteAnalyticsParams, model.SiteAnalytics]
	Overview cache.QueryDef[NoParams, model.AnalyticsOverview]
	Refresh  cache.MutationDef[int, model.SiteAnalytics]
}

func newAnalyticsModule(c *client.APIClient) AnalyticsModule {
	return AnalyticsModule{
		Site: cache.QueryDef[SiteAnalyticsParams, model.SiteAnalytics]{
			Name: "getSiteAnalytics",
			Execute: func(ctx context.Context, p SiteAnalyticsParams) (model.SiteAnalytics, error) {
				q := url.Values{}
				if p.Period != "" {
					q.Set("period", p.Period)
				}
				var out model.SiteAnalytics
				err := c.Get(ctx, fmt.Sprintf("%ssites/%d/", analyticsPath, p.Site), q, &out)
				return out, err
			},
			ProvidesTags: func(_ model.SiteAnalytics, p SiteAnalyticsParams) []cache.Tag {
				return []cache.Tag{SiteAnalyticsTag(p.Site)}
			},
		},
		Overview: cache.QueryDef[NoParams, model.AnalyticsOverview]{
			Name: "getAnalyticsOverview",
			Execute: func(ctx context.Context, _ NoParams) (model.AnalyticsOverview, error) {
				return getOne[model.AnalyticsOverview](ctx, c, analyticsPath+"overview/")
			},
			ProvidesTags: func(model.AnalyticsOverview, NoParams) []cache.Tag {
				return []cache.Tag{overviewTag}
			},
		},
		Refresh: cache.MutationDef[int, model.SiteAnalytics]{
			Name: "refreshSiteAnalytics",
			Execute: func(ctx context.Context, siteID int) (model.SiteAnalytics, error) {
				var out model.SiteAnalytics
				err := c.Post(ctx, fmt.Sprintf("%ssites/%d/refresh/", analyticsPath, siteID), nil, &out)
				return out, err
			},
			InvalidatesTags: func(_ model.SiteAnalytics, siteID int) []cache.Tag {
				return []cache.Tag{SiteAnalyticsTag(siteID), overviewTag}
			},
		},
	}
}

func (m AnalyticsModule) descriptors() []cache.Descriptor {
	return []cache.Descriptor{m.Site, m.Overview, m.Refresh}
}

func (a *API) GetSiteAnalytics(ctx context.Context, siteID int, period string) (model.SiteAnalytics, error) {
	return cache.Fetch(ctx, a.cache, a.Analytics.Site, SiteAnalyticsParams{Site: siteID, Period: period})
}

func (a *API) GetAnalyticsOverview(ctx context.Context) (model.AnalyticsOverview, error) {
	return cache.Fetch(ctx, a.cache, a.Analytics.Overview, NoParams{})
}

func (a *API) RefreshSiteAnalytics(ctx context.Context, siteID int) (model.SiteAnalytics, error) {
	return cache.Mutate(a.mutationContext(ctx), a.cache, a.Analytics.Refresh, siteID)
}
