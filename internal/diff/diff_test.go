package diff

import (
	"testing"

	"github.com/ayatskii/panel-sub002/pkg/model"
)

func TestComputeMixedChanges(t *testing.T) {
	local := []Record{
		{Path: "page/title", Hash: "sha256:bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", Detail: "New"},
		{Path: "blocks/00", Hash: "sha256:cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc", Detail: "hero"},
		{Path: "blocks/01", Hash: "sha256:dddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddddd", Detail: "cta"},
	}
	remote := []Record{
		{Path: "page/title", Hash: "sha256:aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Detail: "Old"},
		{Path: "blocks/00", Hash: "sha256:cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc", Detail: "hero"},
		{Path: "blocks/02", Hash: "sha256:eeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeeee", Detail: "faq"},
	}

	out, err := Compute(local, remote)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if out.Summary.Added != 1 || out.Summary.Modified != 1 || out.Summary.Removed != 1 || out.Summary.Unchanged != 1 {
		t.Fatalf("unexpected summary: %#v", out.Summary)
	}
	if len(out.Changes) != 3 {
		t.Fatalf("expected 3 changes, got %d", len(out.Changes))
	}
	first := out.Changes[0]
	if first.ResourceType != ResourcePage || first.OldDetail != "Old" || first.NewDetail != "New" {
		t.Fatalf("expected page change first, got %#v", first)
	}
}

func TestComputeEmptyStates(t *testing.T) {
	out, err := Compute(nil, nil)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}
	if out.HasChanges() {
		t.Fatalf("expected no changes")
	}
	if out.Summary.Unchanged != 0 {
		t.Fatalf("expected unchanged 0, got %d", out.Summary.Unchanged)
	}
}

func TestComputeRejectsConflictingRecords(t *testing.T) {
	_, err := Compute([]Record{{Path: "page/title", Hash: "a"}, {Path: "page/title", Hash: "b"}}, nil)
	if err == nil {
		t.Fatalf("expected conflicting hash error")
	}
	if _, err := Compute([]Record{{Path: "page/title"}}, nil); err == nil {
		t.Fatalf("expected empty hash error")
	}
}

func TestComparePagesIgnoresBlockIDs(t *testing.T) {
	remote := model.Page{
		ID: 9, Title: "About", Slug: "about",
		Blocks: []model.Block{
			{ID: 101, Order: 0, Type: model.BlockHero, Content: model.HeroContent{Title: "Hi"}},
			{ID: 102, Order: 1, Type: model.BlockCTA, Content: model.CTAContent{Title: "Go", ButtonText: "Go", ButtonLink: "/go"}},
		},
	}
	local := model.Page{
		Title: "About", Slug: "about",
		Blocks: []model.Block{
			{Order: 0, Content: model.HeroContent{Title: "Hi"}},
			{Order: 1, Content: model.CTAContent{Title: "Go", ButtonText: "Go", ButtonLink: "/go"}},
		},
	}

	out, err := ComparePages(local, remote)
	if err != nil {
		t.Fatalf("ComparePages() error = %v", err)
	}
	if out.HasChanges() {
		t.Fatalf("expected identical pages, got %#v", out.Changes)
	}

	local.Blocks[1].Content = model.FAQContent{Items: []model.FAQItem{{Question: "q", Answer: "a"}}}
	local.Blocks = append(local.Blocks, model.Block{Order: 2, Content: model.HeroContent{Title: "Bye"}})
	local.IsPublished = true

	out, err = ComparePages(local, remote)
	if err != nil {
		t.Fatalf("ComparePages() error = %v", err)
	}
	if out.Summary.Modified != 2 || out.Summary.Added != 1 {
		t.Fatalf("unexpected summary: %#v", out.Summary)
	}
	var blockChange *Change
	for i := range out.Changes {
		if out.Changes[i].Path == "blocks/01" {
			blockChange = &out.Changes[i]
		}
	}
	if blockChange == nil || blockChange.OldDetail != "cta" || blockChange.NewDetail != "faq" {
		t.Fatalf("expected blocks/01 cta -> faq, got %#v", blockChange)
	}
}

func TestComparePagesRejectsEmptyBlock(t *testing.T) {
	if _, err := ComparePages(model.Page{Blocks: []model.Block{{}}}, model.Page{}); err == nil {
		t.Fatalf("expected error for block without content")
	}
}
