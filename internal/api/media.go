package api

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/ayatskii/panel-sub002/internal/cache"
	"github.com/ayatskii/panel-sub002/internal/client"
	"github.com/ayatskii/panel-sub002/pkg/model"
)

const mediaPath = "/api/media/"

var mediaAnalyticsTag = cache.IDTag(TagAnalytics, "media")

type MediaFilter struct {
	Folder string `json:"folder,omitempty"`
	Tag    string `json:"tag,omitempty"`
}

type UploadMediaParams struct {
	Filename string
	Content  []byte
	Folder   string
	AltText  string
	Tags     []string
}

type UpdateMediaParams struct {
	ID     int               `json:"id"`
	Update model.MediaUpdate `json:"update"`
}

type MediaModule struct {
	List      cache.QueryDef[MediaFilter, []model.MediaAsset]
	Get       cache.QueryDef[int, model.MediaAsset]
	Analytics cache.QueryDef[NoParams, model.MediaAnalytics]
	Upload    cache.MutationDef[UploadMediaParams, model.MediaAsset]
	Update    cache.MutationDef[UpdateMediaParams, model.MediaAsset]
	Delete    cache.MutationDef[int, struct{}]
}

func newMediaModule(c *client.APIClient) MediaModule {
	return MediaModule{
		List: cache.QueryDef[MediaFilter, []model.MediaAsset]{
			Name: "listMedia",
			Execute: func(ctx context.Context, f MediaFilter) ([]model.MediaAsset, error) {
				q := url.Values{}
				if f.Folder != "" {
					q.Set("folder", f.Folder)
				}
				if f.Tag != "" {
					q.Set("tag", f.Tag)
				}
				return getList[model.MediaAsset](ctx, c, mediaPath, q)
			},
			ProvidesTags: func(rows []model.MediaAsset, _ MediaFilter) []cache.Tag {
				return collectionTags(TagMedia, rows, func(m model.MediaAsset) int { return m.ID })
			},
		},
		Get: cache.QueryDef[int, model.MediaAsset]{
			Name: "getMedia",
			Execute: func(ctx context.Context, id int) (model.MediaAsset, error) {
				return getOne[model.MediaAsset](ctx, c, resourcePath(mediaPath, id))
			},
			ProvidesTags: func(_ model.MediaAsset, id int) []cache.Tag {
				return []cache.Tag{cache.IDTag(TagMedia, id)}
			},
		},
		Analytics: cache.QueryDef[NoParams, model.MediaAnalytics]{
			Name: "getMediaAnalytics",
			Execute: func(ctx context.Context, _ NoParams) (model.MediaAnalytics, error) {
				return getOne[model.MediaAnalytics](ctx, c, mediaPath+"analytics/")
			},
			ProvidesTags: func(model.MediaAnalytics, NoParams) []cache.Tag {
				return []cache.Tag{mediaAnalyticsTag}
			},
		},
		Upload: cache.MutationDef[UploadMediaParams, model.MediaAsset]{
			Name: "uploadMedia",
			Execute: func(ctx context.Context, p UploadMediaParams) (model.MediaAsset, error) {
				return uploadMedia(ctx, c, p)
			},
			InvalidatesTags: func(model.MediaAsset, UploadMediaParams) []cache.Tag {
				return []cache.Tag{cache.ListTag(TagMedia), mediaAnalyticsTag}
			},
		},
		Update: cache.MutationDef[UpdateMediaParams, model.MediaAsset]{
			Name: "updateMedia",
			Execute: func(ctx context.Context, p UpdateMediaParams) (model.MediaAsset, error) {
				var out model.MediaAsset
				err := c.Patch(ctx, resourcePath(mediaPath, p.ID), p.Update, &out)
				return out, err
			},
			InvalidatesTags: func(_ model.MediaAsset, p UpdateMediaParams) []cache.Tag {
				return []cache.Tag{cache.IDTag(TagMedia, p.ID), cache.ListTag(TagMedia)}
			},
		},
		Delete: cache.MutationDef[int, struct{}]{
			Name: "deleteMedia",
			Execute: func(ctx context.Context, id int) (struct{}, error) {
				return struct{}{}, c.Delete(ctx, resourcePath(mediaPath, id), nil)
			},
			InvalidatesTags: func(_ struct{}, id int) []cache.Tag {
				return []cache.Tag{cache.IDTag(TagMedia, id), cache.ListTag(TagMedia), mediaAnalyticsTag}
			},
		},
	}
}

func uploadMedia(ctx context.Context, c *client.APIClient, p UploadMediaParams) (model.MediaAsset, error) {
	name := strings.TrimSpace(p.Filename)
	if name == "" {
		return model.MediaAsset{}, fmt.Errorf("upload media: filename is required")
	}
	if len(p.Content) == 0 {
		return model.MediaAsset{}, fmt.Errorf("upload media %s: file is empty", name)
	}
	info := InspectUpload(name, p.Content)
	fields := map[string]string{}
	if p.Folder != "" {
		fields["folder"] = p.Folder
	}
	if p.AltText != "" {
		fields["alt_text"] = p.AltText
	}
	if len(p.Tags) > 0 {
		fields["tags"] = strings.Join(p.Tags, ",")
	}
	if info.IsImage() {
		fields["width"] = fmt.Sprint(info.Width)
		fields["height"] = fmt.Sprint(info.Height)
	}

	var out model.MediaAsset
	err := c.Upload(ctx, mediaPath, client.UploadFile{
		Field:       "file",
		Filename:    name,
		ContentType: info.MimeType,
		Content:     bytes.NewReader(p.Content),
	}, fields, &out)
	return out, err
}

func (m MediaModule) descriptors() []cache.Descriptor {
	return []cache.Descriptor{m.List, m.Get, m.Analytics, m.Upload, m.Update, m.Delete}
}

func (a *API) ListMedia(ctx context.Context, f MediaFilter) ([]model.MediaAsset, error) {
	return cache.Fetch(ctx, a.cache, a.Media.List, f)
}

func (a *API) GetMedia(ctx context.Context, id int) (model.MediaAsset, error) {
	return cache.Fetch(ctx, a.cache, a.Media.Get, id)
}

func (a *API) GetMediaAnalytics(ctx context.Context) (model.MediaAnalytics, error) {
	return cache.Fetch(ctx, a.cache, a.Media.Analytics, NoParams{})
}

func (a *API) UploadMedia(ctx context.Context, p UploadMediaParams) (model.MediaAsset, error) {
	return cache.Mutate(a.mutationContext(ctx), a.cache, a.Media.Upload, p)
}

func (a *API) UpdateMedia(ctx context.Context, id int, u model.MediaUpdate) (model.MediaAsset, error) {
	return cache.Mutate(a.mutationContext(ctx), a.cache, a.Media.Update, UpdateMediaParams{ID: id, Update: u})
}

func (a *API) DeleteMedia(ctx context.Context, id int) error {
	_, err := cache.Mutate(a.mutationContext(ctx), a.cache, a.Media.Delete, id)
	return err
}
