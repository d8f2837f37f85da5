package renderer

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ayatskii/panel-sub002/pkg/model"
)

func samplePage() model.Page {
	return model.Page{
		Title:           "About",
		Slug:            "about",
		MetaDescription: "Who <b>we</b> are",
		Blocks: []model.Block{
			{Order: 2, Content: model.CTAContent{Title: "Join", ButtonText: "Sign up", ButtonLink: "/signup"}},
			{Order: 0, Content: model.HeroContent{Title: "Hello & welcome", Subtitle: "We *build* things"}},
			{Order: 1, Content: model.TextImageContent{Text: "Intro<script>alert(1)</script>", ImageURL: "/img/a.png", ImageAlt: "team", ImagePosition: "right"}},
			{Order: 3, Content: model.FAQContent{Items: []model.FAQItem{{Question: "Why?", Answer: "Because."}}}},
			{Order: 4, Content: model.SwiperContent{Slides: []model.Slide{{ImageURL: "/s1.png", Caption: "One", Link: "/one"}}}},
		},
	}
}

func TestRenderPageOrdersAndEscapesBlocks(t *testing.T) {
	out, err := RenderPage(samplePage(), Options{SiteName: "Acme", Colors: &model.CustomColors{Primary: "#112233"}})
	if err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}
	html := string(out)

	hero := strings.Index(html, `class="hero"`)
	text := strings.Index(html, `class="text-image right"`)
	cta := strings.Index(html, `class="cta"`)
	faq := strings.Index(html, `class="faq"`)
	swiper := strings.Index(html, `class="swiper"`)
	if hero < 0 || text < 0 || cta < 0 || faq < 0 || swiper < 0 {
		t.Fatalf("expected every block to render:\n%s", html)
	}
	if !(hero < text && text < cta && cta < faq && faq < swiper) {
		t.Fatalf("expected blocks in order, got hero=%d text=%d cta=%d faq=%d swiper=%d", hero, text, cta, faq, swiper)
	}
	if !strings.Contains(html, "<title>About | Acme</title>") {
		t.Fatalf("expected title with site name:\n%s", html)
	}
	if !strings.Contains(html, "Hello &amp; welcome") {
		t.Fatalf("expected hero title to be escaped:\n%s", html)
	}
	if !strings.Contains(html, "<em>build</em>") {
		t.Fatalf("expected markdown emphasis in subtitle:\n%s", html)
	}
	if strings.Contains(html, "alert(1)") && strings.Contains(html, "<script>") {
		t.Fatalf("expected script to be sanitized:\n%s", html)
	}
	if !strings.Contains(html, `content="Who we are"`) {
		t.Fatalf("expected plain-text description:\n%s", html)
	}
	if !strings.Contains(html, "--primary: #112233") {
		t.Fatalf("expected custom primary colour:\n%s", html)
	}
	if !strings.Contains(html, "--accent: #e8590c") {
		t.Fatalf("expected default accent colour:\n%s", html)
	}
}

func TestRenderPageIsDeterministic(t *testing.T) {
	a, err := RenderPage(samplePage(), Options{})
	if err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}
	b, err := RenderPage(samplePage(), Options{})
	if err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("expected identical output for identical input")
	}
}

func TestRenderPageRejectsEmptyBlock(t *testing.T) {
	page := model.Page{Title: "x", Blocks: []model.Block{{Type: model.BlockHero}}}
	if _, err := RenderPage(page, Options{}); err == nil {
		t.Fatalf("expected error for block without content")
	}
}

func TestWritePreview(t *testing.T) {
	dir := t.TempDir()
	path, err := WritePreview(dir, samplePage(), Options{})
	if err != nil {
		t.Fatalf("WritePreview() error = %v", err)
	}
	if filepath.Dir(path) != dir || !strings.HasPrefix(filepath.Base(path), "about-") || filepath.Ext(path) != ".html" {
		t.Fatalf("unexpected preview path %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read preview: %v", err)
	}
	if !strings.Contains(string(data), "<!DOCTYPE html>") {
		t.Fatalf("unexpected preview content")
	}
	if _, err := WritePreview("", samplePage(), Options{}); err == nil {
		t.Fatalf("expected empty dir to fail")
	}
}

func TestRichTextSanitizes(t *testing.T) {
	out, err := RichText("# Title\n\nSee [docs](https://example.com) <img src=x onerror=alert(1)>")
	if err != nil {
		t.Fatalf("RichText() error = %v", err)
	}
	if strings.Contains(out, "onerror") {
		t.Fatalf("expected event handler to be removed: %s", out)
	}
	if !strings.Contains(out, `<h1 id="title">Title</h1>`) {
		t.Fatalf("expected heading with id: %s", out)
	}
	if !strings.Contains(out, `href="https://example.com"`) {
		t.Fatalf("expected link to survive: %s", out)
	}
	if got := PlainText("<p>Hello <b>there</b></p>"); got != "Hello there" {
		t.Fatalf("PlainText() = %q", got)
	}
}

func TestRenderPageSocialImage(t *testing.T) {
	without, err := RenderPage(samplePage(), Options{})
	if err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}
	if strings.Contains(string(without), "og:image") {
		t.Fatalf("expected no og:image meta without a social image")
	}

	with, err := RenderPage(samplePage(), Options{SocialImage: "about-og-abc.png"})
	if err != nil {
		t.Fatalf("RenderPage() error = %v", err)
	}
	if !strings.Contains(string(with), `<meta property="og:image" content="about-og-abc.png">`) {
		t.Fatalf("expected og:image meta, got:\n%s", with)
	}
}
