package api

import (
	"context"

	"github.com/ayatskii/panel-sub002/internal/cache"
	"github.com/ayatskii/panel-sub002/internal/client"
	"github.com/ayatskii/panel-sub002/pkg/model"
)

const (
	apiTokensPath        = "/api/integrations/api-tokens/"
	cloudflareTokensPath = "/api/integrations/cloudflare-tokens/"
	promptsPath          = "/api/integrations/prompts/"
)

type UpdatePromptParams struct {
	ID     int          `json:"id"`
	Prompt model.Prompt `json:"prompt"`
}

type IntegrationsModule struct {
	ListAPITokens    cache.QueryDef[NoParams, []model.APIToken]
	CreateAPIToken   cache.MutationDef[model.APITokenInput, model.APITokenCreated]
	RevokeAPIToken   cache.MutationDef[int, struct{}]
	ListCloudflare   cache.QueryDef[NoParams, []model.CloudflareToken]
	AddCloudflare    cache.MutationDef[model.CloudflareTokenInput, model.CloudflareToken]
	DeleteCloudflare cache.MutationDef[int, struct{}]
	VerifyCloudflare cache.MutationDef[int, model.CloudflareVerification]
	ListPrompts      cache.QueryDef[NoParams, []model.Prompt]
	CreatePrompt     cache.MutationDef[model.Prompt, model.Prompt]
	UpdatePrompt     cache.MutationDef[UpdatePromptParams, model.Prompt]
	DeletePrompt     cache.MutationDef[int, struct{}]
}

func newIntegrationsModule(c *client.APIClient) IntegrationsModule {
	idAndList := func(typ string, id int) []cache.Tag {
		return []cache.Tag{cache.IDTag(typ, id), cache.ListTag(typ)}
	}
	return IntegrationsModule{
		ListAPITokens: cache.QueryDef[NoParams, []model.APIToken]{
			Name: "listApiTokens",
			Execute: func(ctx context.Context, _ NoParams) ([]model.APIToken, error) {
				return getList[model.APIToken](ctx, c, apiTokensPath, nil)
			},
			ProvidesTags: func(rows []model.APIToken, _ NoParams) []cache.Tag {
				return collectionTags(TagAPIToken, rows, func(t model.APIToken) int { return t.ID })
			},
		},
		CreateAPIToken: cache.MutationDef[model.APITokenInput, model.APITokenCreated]{
			Name: "createApiToken",
			Execute: func(ctx context.Context, in model.APITokenInput) (model.APITokenCreated, error) {
				var out model.APITokenCreated
				err := c.Post(ctx, apiTokensPath, in, &out)
				return out, err
			},
			InvalidatesTags: func(model.APITokenCreated, model.APITokenInput) []cache.Tag {
				return []cache.Tag{cache.ListTag(TagAPIToken)}
			},
		},
		RevokeAPIToken: cache.MutationDef[int, struct{}]{
			Name: "revokeApiToken",
			Execute: func(ctx context.Context, id int) (struct{}, error) {
				return struct{}{}, c.Delete(ctx, resourcePath(apiTokensPath, id), nil)
			},
			InvalidatesTags: func(_ struct{}, id int) []cache.Tag { return idAndList(TagAPIToken, id) },
		},
		ListCloudflare: cache.QueryDef[NoParams, []model.CloudflareToken]{
			Name: "listCloudflareTokens",
			Execute: func(ctx context.Context, _ NoParams) ([]model.CloudflareToken, error) {
				return getList[model.CloudflareToken](ctx, c, cloudflareTokensPath, nil)
			},
			ProvidesTags: func(rows []model.CloudflareToken, _ NoParams) []cache.Tag {
				return collectionTags(TagCloudflareToken, rows, func(t model.CloudflareToken) int { return t.ID })
			},
		},
		AddCloudflare: cache.MutationDef[model.CloudflareTokenInput, model.CloudflareToken]{
			Name: "createCloudflareToken",
			Execute: func(ctx context.Context, in model.CloudflareTokenInput) (model.CloudflareToken, error) {
				var out model.CloudflareToken
				err := c.Post(ctx, cloudflareTokensPath, in, &out)
				return out, err
			},
			InvalidatesTags: func(model.CloudflareToken, model.CloudflareTokenInput) []cache.Tag {
				return []cache.Tag{cache.ListTag(TagCloudflareToken)}
			},
		},
		DeleteCloudflare: cache.MutationDef[int, struct{}]{
			Name: "deleteCloudflareToken",
			Execute: func(ctx context.Context, id int) (struct{}, error) {
				return struct{}{}, c.Delete(ctx, resourcePath(cloudflareTokensPath, id), nil)
			},
			InvalidatesTags: func(_ struct{}, id int) []cache.Tag { return idAndList(TagCloudflareToken, id) },
		},
		VerifyCloudflare: cache.MutationDef[int, model.CloudflareVerification]{
			Name: "verifyCloudflareToken",
			Execute: func(ctx context.Context, id int) (model.CloudflareVerification, error) {
				var out model.CloudflareVerification
				err := c.Post(ctx, resourcePath(cloudflareTokensPath, id)+"verify/", nil, &out)
				return out, err
			},
			InvalidatesTags: func(_ model.CloudflareVerification, id int) []cache.Tag {
				return []cache.Tag{cache.IDTag(TagCloudflareToken, id)}
			},
		},
		ListPrompts: cache.QueryDef[NoParams, []model.Prompt]{
			Name: "listPrompts",
			Execute: func(ctx context.Context, _ NoParams) ([]model.Prompt, error) {
				return getList[model.Prompt](ctx, c, promptsPath, nil)
			},
			ProvidesTags: func(rows []model.Prompt, _ NoParams) []cache.Tag {
				return collectionTags(TagPrompt, rows, func(p model.Prompt) int { return p.ID })
			},
		},
		CreatePrompt: cache.MutationDef[model.Prompt, model.Prompt]{
			Name: "createPrompt",
			Execute: func(ctx context.Context, in model.Prompt) (model.Prompt, error) {
				var out model.Prompt
				err := c.Post(ctx, promptsPath, in, &out)
				return out, err
			},
			InvalidatesTags: func(model.Prompt, model.Prompt) []cache.Tag {
				return []cache.Tag{cache.ListTag(TagPrompt)}
			},
		},
		UpdatePrompt: cache.MutationDef[UpdatePromptParams, model.Prompt]{
			Name: "updatePrompt",
			Execute: func(ctx context.Context, p UpdatePromptParams) (model.Prompt, error) {
				var out model.Prompt
				// Prompts are replaced whole; the caller sends every field.
				err := c.Put(ctx, resourcePath(promptsPath, p.ID), p.Prompt, &out)
				return out, err
			},
			InvalidatesTags: func(_ model.Prompt, p UpdatePromptParams) []cache.Tag { return idAndList(TagPrompt, p.ID) },
		},
		DeletePrompt: cache.MutationDef[int, struct{}]{
			Name: "deletePrompt",
			Execute: func(ctx context.Context, id int) (struct{}, error) {
				return struct{}{}, c.Delete(ctx, resourcePath(promptsPath, id), nil)
			},
			InvalidatesTags: func(_ struct{}, id int) []cache.Tag { return idAndList(TagPrompt, id) },
		},
	}
}

func (m IntegrationsModule) descriptors() []cache.Descriptor {
	return []cache.Descriptor{
		m.ListAPITokens, m.CreateAPIToken, m.RevokeAPIToken,
		m.ListCloudflare, m.AddCloudflare, m.DeleteCloudflare, m.VerifyCloudflare,
		m.ListPrompts, m.CreatePrompt, m.UpdatePrompt, m.DeletePrompt,
	}
}

func (a *API) ListAPITokens(ctx context.Context) ([]model.APIToken, error) {
	return cache.Fetch(ctx, a.cache, a.Integrations.ListAPITokens, NoParams{})
}

func (a *API) CreateAPIToken(ctx context.Context, in model.APITokenInput) (model.APITokenCreated, error) {
	return cache.Mutate(a.mutationContext(ctx), a.cache, a.Integrations.CreateAPIToken, in)
}

func (a *API) RevokeAPIToken(ctx context.Context, id int) error {
	_, err := cache.Mutate(a.mutationContext(ctx), a.cache, a.Integrations.RevokeAPIToken, id)
	return err
}

func (a *API) ListCloudflareTokens(ctx context.Context) ([]model.CloudflareToken, error) {
	return cache.Fetch(ctx, a.cache, a.Integrations.ListCloudflare, NoParams{})
}

func (a *API) CreateCloudflareToken(ctx context.Context, in model.CloudflareTokenInput) (model.CloudflareToken, error) {
	return cache.Mutate(a.mutationContext(ctx), a.cache, a.Integrations.AddCloudflare, in)
}

func (a *API) DeleteCloudflareToken(ctx context.Context, id int) error {
	_, err := cache.Mutate(a.mutationContext(ctx), a.cache, a.Integrations.DeleteCloudflare, id)
	return err
}

func (a *API) VerifyCloudflareToken(ctx context.Context, id int) (model.CloudflareVerification, error) {
	return cache.Mutate(a.mutationContext(ctx), a.cache, a.Integrations.VerifyCloudflare, id)
}

func (a *API) ListPrompts(ctx context.Context) ([]model.Prompt, error) {
	return cache.Fetch(ctx, a.cache, a.Integrations.ListPrompts, NoParams{})
}

func (a *API) CreatePrompt(ctx context.Context, p model.Prompt) (model.Prompt, error) {
	return cache.Mutate(a.mutationContext(ctx), a.cache, a.Integrations.CreatePrompt, p)
}

func (a *API) UpdatePrompt(ctx context.Context, id int, p model.Prompt) (model.Prompt, error) {
	return cache.Mutate(a.mutationContext(ctx), a.cache, a.Integrations.UpdatePrompt, UpdatePromptParams{ID: id, Prompt: p})
}

func (a *API) DeletePrompt(ctx context.Context, id int) error {
	_, err := cache.Mutate(a.mutationContext(ctx), a.cache, a.Integrations.DeletePrompt, id)
	return err
}
