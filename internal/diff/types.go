// Package diff compares a local page spec with the page stored on the panel.
package diff

// ChangeType classifies a record that differs between local and remote.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeRemoved  ChangeType = "removed"
)

// Resource groups. Record paths start with one of these.
const (
	ResourcePage  = "page"
	ResourceBlock = "blocks"
)

// Record is one comparable unit of a page: a metadata field or a block slot.
// Detail is a short human-readable value shown next to the hash.
type Record struct {
	Path   string `json:"path" yaml:"path"`
	Hash   string `json:"hash" yaml:"hash"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// Change is a record present on only one side, or with different hashes. Old*
// fields describe the remote side and New* the local side.
type Change struct {
	Path         string     `json:"path" yaml:"path"`
	ResourceType string     `json:"resourceType" yaml:"resourceType"`
	ChangeType   ChangeType `json:"changeType" yaml:"changeType"`
	OldHash      string     `json:"oldHash,omitempty" yaml:"oldHash,omitempty"`
	NewHash      string     `json:"newHash,omitempty" yaml:"newHash,omitempty"`
	OldDetail    string     `json:"oldDetail,omitempty" yaml:"oldDetail,omitempty"`
	NewDetail    string     `json:"newDetail,omitempty" yaml:"newDetail,omitempty"`
}

type Summary struct {
	Added     int `json:"added" yaml:"added"`
	Modified  int `json:"modified" yaml:"modified"`
	Removed   int `json:"removed" yaml:"removed"`
	Unchanged int `json:"unchanged" yaml:"unchanged"`
}

// Changed is the number of records that differ.
func (s Summary) Changed() int {
	return s.Added + s.Modified + s.Removed
}

type Result struct {
	Changes []Change `json:"changes" yaml:"changes"`
	Summary Summary  `json:"summary" yaml:"summary"`
}

func (r Result) HasChanges() bool {
	return r.Summary.Changed() > 0
}

// Report is the structured output of panelctl pages diff.
type Report struct {
	Site   int    `json:"site" yaml:"site"`
	PageID int    `json:"pageId" yaml:"pageId"`
	Slug   string `json:"slug" yaml:"slug"`
	Result Result `json:"result" yaml:"result"`
}
