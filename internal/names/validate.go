// Package names checks the user-chosen identifiers panelctl stores locally or
// sends as path-like values: context names and media folders.
package names

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	MaxContextNameLength = 64
	MaxFolderLength      = 255
)

var (
	contextNamePattern = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_.-]*$`)
	folderSegmentRe    = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9 _.-]*$`)
)

// ValidateContextName reports whether name can key a context in the config
// file and in the local state database.
func ValidateContextName(name string) error {
	if name == "" {
		return fmt.Errorf("context name is required")
	}
	if len(name) > MaxContextNameLength {
		return fmt.Errorf("context name must be at most %d characters", MaxContextNameLength)
	}
	if !contextNamePattern.MatchString(name) {
		return fmt.Errorf("context name %q must start with a letter or digit and contain only letters, digits, '.', '_' or '-'", name)
	}
	return nil
}

// ValidateFolder checks a media folder such as "brand/logos". Empty means the
// library root.
func ValidateFolder(folder string) error {
	if folder == "" {
		return nil
	}
	if len(folder) > MaxFolderLength {
		return fmt.Errorf("folder must be at most %d characters", MaxFolderLength)
	}
	for _, seg := range strings.Split(folder, "/") {
		if seg == "." || seg == ".." || !folderSegmentRe.MatchString(seg) {
			return fmt.Errorf("folder %q has an invalid segment %q", folder, seg)
		}
	}
	return nil
}
