package cli

import (
	"context"
	"fmt"

	"github.com/ayatskii/panel-sub002/internal/api"
	diffpkg "github.com/ayatskii/panel-sub002/internal/diff"
	"github.com/ayatskii/panel-sub002/pkg/loader"
	"github.com/ayatskii/panel-sub002/pkg/model"
)

// remotePageBySlug finds the page of siteID whose slug matches. Pages listed
// without blocks are fetched individually.
func remotePageBySlug(ctx context.Context, a *api.API, siteID int, slug string) (model.Page, bool, error) {
	pages, err := a.ListPages(ctx, siteID)
	if err != nil {
		return model.Page{}, false, err
	}
	want := loader.NormalizeSlug(slug)
	for _, p := range pages {
		if p.Site != 0 && p.Site != siteID {
			continue
		}
		if loader.NormalizeSlug(p.Slug) != want {
			continue
		}
		if p.Blocks == nil {
			full, err := a.GetPage(ctx, p.ID)
			if err != nil {
				return model.Page{}, false, err
			}
			return full, true, nil
		}
		return p, true, nil
	}
	return model.Page{}, false, nil
}

func computePageDiff(ctx context.Context, a *api.API, siteID int, local model.Page) (diffpkg.Report, error) {
	remote, found, err := remotePageBySlug(ctx, a, siteID, local.Slug)
	if err != nil {
		return diffpkg.Report{}, err
	}
	var remoteRecords []diffpkg.Record
	if found {
		remoteRecords, err = diffpkg.PageRecords(remote)
		if err != nil {
			return diffpkg.Report{}, fmt.Errorf("remote page %d: %w", remote.ID, err)
		}
	}
	localRecords, err := diffpkg.PageRecords(local)
	if err != nil {
		return diffpkg.Report{}, fmt.Errorf("local page %s: %w", local.Slug, err)
	}
	result, err := diffpkg.Compute(localRecords, remoteRecords)
	if err != nil {
		return diffpkg.Report{}, err
	}
	return diffpkg.Report{
		Site:   siteID,
		PageID: remote.ID,
		Slug:   loader.NormalizeSlug(local.Slug),
		Result: result,
	}, nil
}
