package cache

import "fmt"

// ListID marks the tag provided by collection queries.
const ListID = "LIST"

// Tag labels cached data so mutations can invalidate it. An empty ID addresses
// every tag of the type.
type Tag struct {
	Type string
	ID   string
}

func TypeTag(typ string) Tag { return Tag{Type: typ} }

func ListTag(typ string) Tag { return Tag{Type: typ, ID: ListID} }

// IDTag formats id with fmt so numeric and string ids tag identically.
func IDTag(typ string, id any) Tag { return Tag{Type: typ, ID: fmt.Sprint(id)} }

func (t Tag) String() string {
	if t.ID == "" {
		return t.Type
	}
	return t.Type + ":" + t.ID
}

type tagIndex struct {
	byTag  map[Tag]map[string]struct{}
	byType map[string]map[string]struct{}
}

func newTagIndex() *tagIndex {
	return &tagIndex{
		byTag:  map[Tag]map[string]struct{}{},
		byType: map[string]map[string]struct{}{},
	}
}

func (ix *tagIndex) add(key string, tags []Tag) {
	for _, t := range tags {
		if ix.byTag[t] == nil {
			ix.byTag[t] = map[string]struct{}{}
		}
		ix.byTag[t][key] = struct{}{}
		if ix.byType[t.Type] == nil {
			ix.byType[t.Type] = map[string]struct{}{}
		}
		ix.byType[t.Type][key] = struct{}{}
	}
}

// remove drops key from the index. tags must be the full set added for key.
func (ix *tagIndex) remove(key string, tags []Tag) {
	types := map[string]struct{}{}
	for _, t := range tags {
		if keys := ix.byTag[t]; keys != nil {
			delete(keys, key)
			if len(keys) == 0 {
				delete(ix.byTag, t)
			}
		}
		types[t.Type] = struct{}{}
	}
	for typ := range types {
		if keys := ix.byType[typ]; keys != nil {
			delete(keys, key)
			if len(keys) == 0 {
				delete(ix.byType, typ)
			}
		}
	}
}

// match returns the keys of entries providing any of tags.
func (ix *tagIndex) match(tags []Tag) map[string]struct{} {
	out := map[string]struct{}{}
	for _, t := range tags {
		src := ix.byTag[t]
		if t.ID == "" {
			src = ix.byType[t.Type]
		}
		for key := range src {
			out[key] = struct{}{}
		}
	}
	return out
}
