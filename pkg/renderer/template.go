package renderer

import (
	"bytes"
	"fmt"
	"html/template"
)

type pageTemplateData struct {
	Title       string
	Description string
	SiteName    string
	SocialImage string
	Colors      themeColors
	Blocks      []template.HTML
}

type themeColors struct {
	Primary   string
	Secondary string
	Accent    string
}

const pageTemplateSource = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>{{.Title}}{{if .SiteName}} | {{.SiteName}}{{end}}</title>
{{- if .Description }}
  <meta name="description" content="{{.Description}}">
{{- end }}
{{- if .SocialImage }}
  <meta property="og:title" content="{{.Title}}">
  <meta property="og:image" content="{{.SocialImage}}">
{{- end }}
  <style>
    :root { --primary: {{.Colors.Primary}}; --secondary: {{.Colors.Secondary}}; --accent: {{.Colors.Accent}}; }
    body { font-family: system-ui, sans-serif; margin: 0; color: #1d1d1f; }
    section { padding: 3rem 1.5rem; max-width: 960px; margin: 0 auto; }
    .hero { background: var(--primary); color: #fff; max-width: none; }
    .cta a { background: var(--accent); color: #fff; padding: .75rem 1.5rem; text-decoration: none; }
    .text-image { display: flex; gap: 2rem; }
    .text-image.right { flex-direction: row-reverse; }
    .swiper { display: flex; overflow-x: auto; gap: 1rem; }
  </style>
</head>
<body>
  <main>
{{- range .Blocks }}
{{.}}
{{- end }}
  </main>
</body>
</html>
`

const blockTemplateSource = `
{{- define "hero" -}}
<section class="hero"{{with .BackgroundImage}} style="background-image: url('{{.}}')"{{end}}>
  <h1>{{.Title}}</h1>
{{- if .Subtitle }}
  <div class="subtitle">{{richText .Subtitle}}</div>
{{- end }}
{{- if .CTALink }}
  <a class="button" href="{{.CTALink}}">{{.CTAText}}</a>
{{- end }}
</section>
{{- end -}}

{{- define "faq" -}}
<section class="faq">
{{- if .Title }}
  <h2>{{.Title}}</h2>
{{- end }}
{{- range .Items }}
  <details>
    <summary>{{.Question}}</summary>
    {{richText .Answer}}
  </details>
{{- end }}
</section>
{{- end -}}

{{- define "text_image" -}}
<section class="text-image {{if eq .ImagePosition "right"}}right{{else}}left{{end}}">
{{- if .ImageURL }}
  <img src="{{.ImageURL}}" alt="{{.ImageAlt}}">
{{- end }}
  <div>
{{- if .Title }}
    <h2>{{.Title}}</h2>
{{- end }}
    {{richText .Text}}
  </div>
</section>
{{- end -}}

{{- define "cta" -}}
<section class="cta">
  <h2>{{.Title}}</h2>
{{- if .Text }}
  {{richText .Text}}
{{- end }}
  <a href="{{.ButtonLink}}">{{.ButtonText}}</a>
</section>
{{- end -}}

{{- define "swiper" -}}
<section class="swiper"{{if .Autoplay}} data-autoplay="true"{{end}}>
{{- if .Title }}
  <h2>{{.Title}}</h2>
{{- end }}
{{- range .Slides }}
  <figure>
{{- if .Link }}
    <a href="{{.Link}}"><img src="{{.ImageURL}}" alt="{{.Caption}}"></a>
{{- else }}
    <img src="{{.ImageURL}}" alt="{{.Caption}}">
{{- end }}
{{- if .Caption }}
    <figcaption>{{.Caption}}</figcaption>
{{- end }}
  </figure>
{{- end }}
</section>
{{- end -}}
`

var (
	pageTemplate  = template.Must(template.New("page").Parse(pageTemplateSource))
	blockTemplate = template.Must(template.New("blocks").Funcs(template.FuncMap{
		"richText": richTextHTML,
	}).Parse(blockTemplateSource))
)

// richTextHTML is only called from templates; conversion errors render as escaped text.
func richTextHTML(src string) template.HTML {
	out, err := RichText(src)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(src))
	}
	return template.HTML(out)
}

func renderPageTemplate(data pageTemplateData) ([]byte, error) {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("execute page template: %w", err)
	}
	return []byte(normalizeNewlines(buf.String())), nil
}

func renderBlockTemplate(name string, content any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := blockTemplate.ExecuteTemplate(&buf, name, content); err != nil {
		return "", fmt.Errorf("execute %s block template: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}
