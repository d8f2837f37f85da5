package diff

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/ayatskii/panel-sub002/pkg/model"
)

// PageRecords flattens a page into metadata records and one record per block
// position. Server-assigned block ids are ignored so a local spec compares
// equal to the page it was applied to.
func PageRecords(p model.Page) ([]Record, error) {
	fields := []struct {
		name  string
		value any
	}{
		{"title", p.Title},
		{"slug", p.Slug},
		{"meta_description", p.MetaDescription},
		{"is_published", p.IsPublished},
		{"order", p.Order},
	}
	out := make([]Record, 0, len(fields)+len(p.Blocks))
	for _, f := range fields {
		h, err := hashValue(f.value)
		if err != nil {
			return nil, fmt.Errorf("hash page %s: %w", f.name, err)
		}
		out = append(out, Record{Path: ResourcePage + "/" + f.name, Hash: h, Detail: fmt.Sprint(f.value)})
	}

	blocks := append([]model.Block(nil), p.Blocks...)
	sort.SliceStable(blocks, func(i, j int) bool { return blocks[i].Order < blocks[j].Order })
	for i, b := range blocks {
		if b.Content == nil {
			return nil, fmt.Errorf("block %d has no content", i)
		}
		h, err := hashValue(struct {
			Type    model.BlockType    `json:"type"`
			Content model.BlockContent `json:"content"`
		}{b.Content.BlockType(), b.Content})
		if err != nil {
			return nil, fmt.Errorf("hash block %d: %w", i, err)
		}
		out = append(out, Record{Path: fmt.Sprintf("%s/%02d", ResourceBlock, i), Hash: h, Detail: string(b.Content.BlockType())})
	}
	return out, nil
}

// ComparePages diffs a local page spec against the remote page.
func ComparePages(local, remote model.Page) (Result, error) {
	l, err := PageRecords(local)
	if err != nil {
		return Result{}, fmt.Errorf("local page: %w", err)
	}
	r, err := PageRecords(remote)
	if err != nil {
		return Result{}, fmt.Errorf("remote page: %w", err)
	}
	return Compute(l, r)
}

func hashValue(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return "sha256:" + hex.EncodeToString(sum[:]), nil
}
