package model

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestBlockJSONDecodesEachPayloadShape(t *testing.T) {
	input := []byte(`[
  {"id":1,"block_type":"hero","order":0,"content":{"title":"Welcome","subtitle":"Fast sites","cta_text":"Start","cta_link":"/start"}},
  {"id":2,"block_type":"faq","order":1,"content":{"items":[{"question":"Q1","answer":"A1"}]}},
  {"id":3,"block_type":"text_image","order":2,"content":{"text":"**bold**","image_url":"https://cdn.example.com/a.png","image_position":"left"}},
  {"id":4,"block_type":"cta","order":3,"content":{"title":"Call","button_text":"Go","button_link":"/go"}},
  {"id":5,"block_type":"swiper","order":4,"content":{"slides":[{"image_url":"https://cdn.example.com/1.webp"}],"autoplay":true}}
]`)

	var blocks []Block
	if err := json.Unmarshal(input, &blocks); err != nil {
		t.Fatalf("unmarshal blocks: %v", err)
	}
	if len(blocks) != 5 {
		t.Fatalf("expected 5 blocks, got %d", len(blocks))
	}

	for _, b := range blocks {
		switch c := b.Content.(type) {
		case HeroContent:
			if c.Title != "Welcome" || c.CTALink != "/start" {
				t.Fatalf("unexpected hero content %#v", c)
			}
		case FAQContent:
			if len(c.Items) != 1 || c.Items[0].Answer != "A1" {
				t.Fatalf("unexpected faq content %#v", c)
			}
		case TextImageContent:
			if c.ImagePosition != "left" {
				t.Fatalf("unexpected text_image content %#v", c)
			}
		case CTAContent:
			if c.ButtonLink != "/go" {
				t.Fatalf("unexpected cta content %#v", c)
			}
		case SwiperContent:
			if !c.Autoplay || len(c.Slides) != 1 {
				t.Fatalf("unexpected swiper content %#v", c)
			}
		default:
			t.Fatalf("unexpected content type %T", b.Content)
		}
		if b.Type != b.Content.BlockType() {
			t.Fatalf("block %d type %q does not match content %q", b.ID, b.Type, b.Content.BlockType())
		}
	}
}

func TestBlockJSONRejectsUnknownType(t *testing.T) {
	var b Block
	err := json.Unmarshal([]byte(`{"block_type":"carousel","content":{}}`), &b)
	if err == nil {
		t.Fatalf("expected unknown block_type error")
	}
	if !strings.Contains(err.Error(), "carousel") {
		t.Fatalf("expected error to name the type, got %v", err)
	}
}

func TestBlockJSONEncodesDiscriminant(t *testing.T) {
	b := Block{ID: 9, Order: 2, Content: CTAContent{Title: "Call", ButtonText: "Go", ButtonLink: "/go"}}
	raw, err := json.Marshal(b)
	if err != nil {
		t.Fatalf("marshal block: %v", err)
	}
	var generic map[string]any
	if err := json.Unmarshal(raw, &generic); err != nil {
		t.Fatalf("unmarshal generic: %v", err)
	}
	if generic["block_type"] != "cta" {
		t.Fatalf("expected block_type cta, got %#v", generic["block_type"])
	}
	content, ok := generic["content"].(map[string]any)
	if !ok || content["button_link"] != "/go" {
		t.Fatalf("unexpected content %#v", generic["content"])
	}
}

func TestBlockRejectsMismatchedType(t *testing.T) {
	b := Block{Type: BlockHero, Content: FAQContent{}}
	if _, err := json.Marshal(b); err == nil {
		t.Fatalf("expected mismatched type error")
	}
	if _, err := json.Marshal(Block{Type: BlockHero}); err == nil {
		t.Fatalf("expected missing content error")
	}
}

func TestBlockYAMLDecodesPageSpec(t *testing.T) {
	input := []byte(`title: Home
slug: home
isPublished: true
blocks:
  - type: hero
    content:
      title: Welcome
      backgroundImage: https://cdn.example.com/bg.jpg
  - type: faq
    order: 1
    content:
      items:
        - question: Is it fast?
          answer: Yes.
`)
	var page Page
	if err := yaml.Unmarshal(input, &page); err != nil {
		t.Fatalf("unmarshal page: %v", err)
	}
	if page.Slug != "home" || !page.IsPublished || len(page.Blocks) != 2 {
		t.Fatalf("unexpected page %#v", page)
	}
	hero, ok := page.Blocks[0].Content.(HeroContent)
	if !ok || hero.BackgroundImage != "https://cdn.example.com/bg.jpg" {
		t.Fatalf("unexpected hero block %#v", page.Blocks[0].Content)
	}
	faq, ok := page.Blocks[1].Content.(FAQContent)
	if !ok || faq.Items[0].Question != "Is it fast?" {
		t.Fatalf("unexpected faq block %#v", page.Blocks[1].Content)
	}

	out, err := yaml.Marshal(page)
	if err != nil {
		t.Fatalf("marshal page: %v", err)
	}
	if !strings.Contains(string(out), "type: faq") || !strings.Contains(string(out), "question: Is it fast?") {
		t.Fatalf("unexpected yaml output:\n%s", out)
	}
	var again Page
	if err := yaml.Unmarshal(out, &again); err != nil {
		t.Fatalf("unmarshal re-encoded page: %v", err)
	}
	if _, ok := again.Blocks[1].Content.(FAQContent); !ok {
		t.Fatalf("expected faq content after yaml round trip, got %T", again.Blocks[1].Content)
	}
}

func TestBlockYAMLRejectsUnknownType(t *testing.T) {
	var b Block
	if err := yaml.Unmarshal([]byte("type: gallery\ncontent: {}\n"), &b); err == nil {
		t.Fatalf("expected unknown type error")
	}
}

func TestDeploymentTerminal(t *testing.T) {
	cases := map[DeploymentStatus]bool{
		DeploymentPending:  false,
		DeploymentBuilding: false,
		DeploymentSuccess:  true,
		DeploymentFailed:   true,
	}
	for status, want := range cases {
		if got := (Deployment{Status: status}).Terminal(); got != want {
			t.Fatalf("Terminal() for %s = %v, want %v", status, got, want)
		}
	}
}

func TestDeploymentLogsMayBeAbsent(t *testing.T) {
	var d Deployment
	if err := json.Unmarshal([]byte(`{"id":1,"site":2,"status":"building","created_at":"2026-01-01T00:00:00Z"}`), &d); err != nil {
		t.Fatalf("unmarshal deployment: %v", err)
	}
	if d.Logs != nil {
		t.Fatalf("expected nil logs, got %#v", d.Logs)
	}
}

func TestAPITokenCreatedFlattensFields(t *testing.T) {
	var created APITokenCreated
	if err := json.Unmarshal([]byte(`{"id":3,"name":"ci","token_prefix":"pk_ab","created_at":"2026-01-01T00:00:00Z","token":"pk_abcdef"}`), &created); err != nil {
		t.Fatalf("unmarshal token: %v", err)
	}
	if created.ID != 3 || created.TokenPrefix != "pk_ab" || created.Token != "pk_abcdef" {
		t.Fatalf("unexpected token %#v", created)
	}
}
