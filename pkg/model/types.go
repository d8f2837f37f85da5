package model

import "time"

// DeploymentStatus is the lifecycle state of a deployment.
type DeploymentStatus string

const (
	DeploymentPending  DeploymentStatus = "pending"
	DeploymentBuilding DeploymentStatus = "building"
	DeploymentSuccess  DeploymentStatus = "success"
	DeploymentFailed   DeploymentStatus = "failed"
)

type CustomColors struct {
	Primary   string `json:"primary,omitempty" yaml:"primary,omitempty"`
	Secondary string `json:"secondary,omitempty" yaml:"secondary,omitempty"`
	Accent    string `json:"accent,omitempty" yaml:"accent,omitempty"`
}

func (c CustomColors) IsZero() bool { return c == CustomColors{} }

type Site struct {
	ID                       int              `json:"id" yaml:"id"`
	BrandName                string           `json:"brand_name" yaml:"brandName"`
	Domain                   string           `json:"domain" yaml:"domain"`
	Template                 int              `json:"template" yaml:"template"`
	DeploymentStatus         DeploymentStatus `json:"deployment_status,omitempty" yaml:"deploymentStatus,omitempty"`
	CustomColors             *CustomColors    `json:"custom_colors,omitempty" yaml:"customColors,omitempty"`
	EnablePageSpeed          bool             `json:"enable_page_speed" yaml:"enablePageSpeed"`
	EnableColorCustomization bool             `json:"enable_color_customization" yaml:"enableColorCustomization"`
	CloudflareToken          *int             `json:"cloudflare_token,omitempty" yaml:"cloudflareToken,omitempty"`
	CreatedAt                time.Time        `json:"created_at" yaml:"createdAt"`
	UpdatedAt                time.Time        `json:"updated_at" yaml:"updatedAt"`
}

// SiteInput is the create/update payload for a site. Nil fields are left unchanged on update.
type SiteInput struct {
	BrandName                string        `json:"brand_name,omitempty" yaml:"brandName,omitempty"`
	Domain                   string        `json:"domain,omitempty" yaml:"domain,omitempty"`
	Template                 int           `json:"template,omitempty" yaml:"template,omitempty"`
	CustomColors             *CustomColors `json:"custom_colors,omitempty" yaml:"customColors,omitempty"`
	EnablePageSpeed          *bool         `json:"enable_page_speed,omitempty" yaml:"enablePageSpeed,omitempty"`
	EnableColorCustomization *bool         `json:"enable_color_customization,omitempty" yaml:"enableColorCustomization,omitempty"`
	CloudflareToken          *int          `json:"cloudflare_token,omitempty" yaml:"cloudflareToken,omitempty"`
}

type Page struct {
	ID              int     `json:"id" yaml:"id,omitempty"`
	Site            int     `json:"site" yaml:"site,omitempty"`
	Title           string  `json:"title" yaml:"title"`
	Slug            string  `json:"slug" yaml:"slug"`
	MetaDescription string  `json:"meta_description" yaml:"metaDescription,omitempty"`
	IsPublished     bool    `json:"is_published" yaml:"isPublished"`
	Order           int     `json:"order" yaml:"order"`
	Blocks          []Block `json:"blocks" yaml:"blocks"`
}

type Deployment struct {
	ID         int              `json:"id" yaml:"id"`
	Site       int              `json:"site" yaml:"site"`
	Status     DeploymentStatus `json:"status" yaml:"status"`
	Logs       []string         `json:"logs,omitempty" yaml:"logs,omitempty"`
	URL        string           `json:"url,omitempty" yaml:"url,omitempty"`
	CreatedAt  time.Time        `json:"created_at" yaml:"createdAt"`
	StartedAt  *time.Time       `json:"started_at,omitempty" yaml:"startedAt,omitempty"`
	FinishedAt *time.Time       `json:"finished_at,omitempty" yaml:"finishedAt,omitempty"`
}

// Terminal reports whether the deployment has stopped changing.
func (d Deployment) Terminal() bool {
	return d.Status == DeploymentSuccess || d.Status == DeploymentFailed
}

// DeploymentLogs is the body of the deployment logs endpoint.
type DeploymentLogs struct {
	ID     int              `json:"id" yaml:"id"`
	Status DeploymentStatus `json:"status" yaml:"status"`
	Logs   []string         `json:"logs" yaml:"logs"`
}

type APIToken struct {
	ID          int        `json:"id" yaml:"id"`
	Name        string     `json:"name" yaml:"name"`
	TokenPrefix string     `json:"token_prefix" yaml:"tokenPrefix"`
	CreatedAt   time.Time  `json:"created_at" yaml:"createdAt"`
	LastUsedAt  *time.Time `json:"last_used_at,omitempty" yaml:"lastUsedAt,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty" yaml:"expiresAt,omitempty"`
}

// APITokenCreated is only returned once, at creation; Token is never shown again.
type APITokenCreated struct {
	APIToken `yaml:",inline"`
	Token    string `json:"token" yaml:"token"`
}

type APITokenInput struct {
	Name          string `json:"name"`
	ExpiresInDays int    `json:"expires_in_days,omitempty"`
}

type CloudflareToken struct {
	ID          int       `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	AccountID   string    `json:"account_id" yaml:"accountId"`
	MaskedToken string    `json:"masked_token" yaml:"maskedToken"`
	IsActive    bool      `json:"is_active" yaml:"isActive"`
	CreatedAt   time.Time `json:"created_at" yaml:"createdAt"`
}

// CloudflareTokenInput carries the raw token; it is write-only.
type CloudflareTokenInput struct {
	Name      string `json:"name"`
	AccountID string `json:"account_id"`
	Token     string `json:"api_token"`
}

type CloudflareVerification struct {
	Valid   bool   `json:"valid" yaml:"valid"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

type Prompt struct {
	ID         int    `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	PromptType string `json:"prompt_type" yaml:"promptType"`
	Content    string `json:"content" yaml:"content"`
	IsActive   bool   `json:"is_active" yaml:"isActive"`
}

type MediaAsset struct {
	ID        int       `json:"id" yaml:"id"`
	Filename  string    `json:"filename" yaml:"filename"`
	URL       string    `json:"url" yaml:"url"`
	FileSize  int64     `json:"file_size" yaml:"fileSize"`
	Width     int       `json:"width,omitempty" yaml:"width,omitempty"`
	Height    int       `json:"height,omitempty" yaml:"height,omitempty"`
	MimeType  string    `json:"mime_type" yaml:"mimeType"`
	Tags      []string  `json:"tags,omitempty" yaml:"tags,omitempty"`
	Folder    string    `json:"folder,omitempty" yaml:"folder,omitempty"`
	AltText   string    `json:"alt_text,omitempty" yaml:"altText,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"createdAt"`
}

type MediaUpdate struct {
	AltText *string  `json:"alt_text,omitempty"`
	Folder  *string  `json:"folder,omitempty"`
	Tags    []string `json:"tags,omitempty"`
}

// MediaAnalytics is computed by the server.
type MediaAnalytics struct {
	TotalFiles int            `json:"total_files" yaml:"totalFiles"`
	TotalSize  int64          `json:"total_size" yaml:"totalSize"`
	ByType     map[string]int `json:"by_type,omitempty" yaml:"byType,omitempty"`
	ByFolder   map[string]int `json:"by_folder,omitempty" yaml:"byFolder,omitempty"`
	Unused     int            `json:"unused_files" yaml:"unusedFiles"`
}

type PageViews struct {
	Path  string `json:"path" yaml:"path"`
	Views int    `json:"views" yaml:"views"`
}

type DailyStat struct {
	Date           string `json:"date" yaml:"date"`
	PageViews      int    `json:"page_views" yaml:"pageViews"`
	UniqueVisitors int    `json:"unique_visitors" yaml:"uniqueVisitors"`
}

type SiteAnalytics struct {
	Site           int         `json:"site" yaml:"site"`
	Period         string      `json:"period" yaml:"period"`
	PageViews      int         `json:"page_views" yaml:"pageViews"`
	UniqueVisitors int         `json:"unique_visitors" yaml:"uniqueVisitors"`
	TopPages       []PageViews `json:"top_pages,omitempty" yaml:"topPages,omitempty"`
	Daily          []DailyStat `json:"daily,omitempty" yaml:"daily,omitempty"`
}

type AnalyticsOverview struct {
	TotalSites       int `json:"total_sites" yaml:"totalSites"`
	TotalPages       int `json:"total_pages" yaml:"totalPages"`
	TotalDeployments int `json:"total_deployments" yaml:"totalDeployments"`
	PageViews        int `json:"page_views" yaml:"pageViews"`
	UniqueVisitors   int `json:"unique_visitors" yaml:"uniqueVisitors"`
}

type Template struct {
	ID                         int    `json:"id" yaml:"id"`
	Name                       string `json:"name" yaml:"name"`
	Description                string `json:"description,omitempty" yaml:"description,omitempty"`
	PreviewImage               string `json:"preview_image,omitempty" yaml:"previewImage,omitempty"`
	SupportsColorCustomization bool   `json:"supports_color_customization" yaml:"supportsColorCustomization"`
	SupportsPageSpeed          bool   `json:"supports_page_speed" yaml:"supportsPageSpeed"`
}

type RedirectRule struct {
	ID         int    `json:"id,omitempty" yaml:"id,omitempty"`
	Site       int    `json:"site,omitempty" yaml:"site,omitempty"`
	SourcePath string `json:"source_path" yaml:"sourcePath"`
	TargetURL  string `json:"target_url" yaml:"targetUrl"`
	StatusCode int    `json:"status_code" yaml:"statusCode"`
}
