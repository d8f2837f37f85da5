package diff

import (
	"cmp"
	"fmt"
	"maps"
	"path"
	"slices"
	"strings"
)

// Compute compares records by path. Local is the desired state, remote is
// what the panel currently stores.
func Compute(local, remote []Record) (Result, error) {
	want, err := byPath(local)
	if err != nil {
		return Result{}, fmt.Errorf("index local records: %w", err)
	}
	have, err := byPath(remote)
	if err != nil {
		return Result{}, fmt.Errorf("index remote records: %w", err)
	}

	union := make(map[string]Record, len(want)+len(have))
	maps.Copy(union, want)
	maps.Copy(union, have)
	keys := slices.Sorted(maps.Keys(union))

	var res Result
	res.Changes = make([]Change, 0, len(keys))
	for _, key := range keys {
		next, inLocal := want[key]
		prev, inRemote := have[key]
		c := Change{Path: key, ResourceType: resourceOf(key)}
		switch {
		case !inRemote:
			c.ChangeType = ChangeAdded
			c.NewHash, c.NewDetail = next.Hash, next.Detail
			res.Summary.Added++
		case !inLocal:
			c.ChangeType = ChangeRemoved
			c.OldHash, c.OldDetail = prev.Hash, prev.Detail
			res.Summary.Removed++
		case next.Hash == prev.Hash:
			res.Summary.Unchanged++
			continue
		default:
			c.ChangeType = ChangeModified
			c.OldHash, c.OldDetail = prev.Hash, prev.Detail
			c.NewHash, c.NewDetail = next.Hash, next.Detail
			res.Summary.Modified++
		}
		res.Changes = append(res.Changes, c)
	}

	slices.SortStableFunc(res.Changes, func(a, b Change) int {
		return cmp.Or(
			cmp.Compare(rank(resourceRanks, a.ResourceType), rank(resourceRanks, b.ResourceType)),
			strings.Compare(a.Path, b.Path),
			cmp.Compare(rank(changeRanks, string(a.ChangeType)), rank(changeRanks, string(b.ChangeType))),
		)
	})
	return res, nil
}

var (
	resourceRanks = []string{ResourcePage, ResourceBlock}
	changeRanks   = []string{string(ChangeAdded), string(ChangeModified), string(ChangeRemoved)}
)

// rank places unknown values after every known one.
func rank(order []string, v string) int {
	if i := slices.Index(order, v); i >= 0 {
		return i
	}
	return len(order)
}

func byPath(records []Record) (map[string]Record, error) {
	idx := make(map[string]Record, len(records))
	for _, rec := range records {
		key := cleanPath(rec.Path)
		if key == "" {
			return nil, fmt.Errorf("record with empty path")
		}
		sum := canonicalHash(rec.Hash)
		if sum == "" {
			return nil, fmt.Errorf("record %q has no hash", key)
		}
		if prior, dup := idx[key]; dup {
			if prior.Hash == sum {
				continue
			}
			return nil, fmt.Errorf("record %q appears with two hashes (%s, %s)", key, prior.Hash, sum)
		}
		idx[key] = Record{Path: key, Hash: sum, Detail: rec.Detail}
	}
	return idx, nil
}

func cleanPath(raw string) string {
	p := strings.TrimSpace(strings.ReplaceAll(raw, `\`, "/"))
	if p == "" {
		return ""
	}
	if p = path.Clean(p); p == "." {
		return ""
	}
	return p
}

func canonicalHash(raw string) string {
	sum := strings.ToLower(strings.TrimSpace(raw))
	if sum == "" || strings.HasPrefix(sum, "sha256:") {
		return sum
	}
	return "sha256:" + sum
}

func resourceOf(p string) string {
	head, _, nested := strings.Cut(p, "/")
	if nested && head == ResourceBlock {
		return ResourceBlock
	}
	return ResourcePage
}
