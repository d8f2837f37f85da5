package diff

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ayatskii/panel-sub002/internal/output"
)

type DisplayOptions struct {
	Color bool
}

// AutoColor reports whether w is a terminal and NO_COLOR is unset.
func AutoColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	st, err := f.Stat()
	return err == nil && st.Mode()&os.ModeCharDevice != 0
}

var ansi = map[ChangeType]string{
	ChangeAdded:    "\x1b[32m",
	ChangeModified: "\x1b[33m",
	ChangeRemoved:  "\x1b[31m",
}

const ansiReset = "\x1b[0m"

// WriteTable prints one table per resource group, page fields first, followed
// by the summary line.
func WriteTable(w io.Writer, result Result, opts DisplayOptions) error {
	sections := make(map[string][][]string, len(resourceRanks))
	for _, c := range result.Changes {
		group := c.ResourceType
		if group == "" {
			group = ResourcePage
		}
		label := string(c.ChangeType)
		if code, ok := ansi[c.ChangeType]; ok && opts.Color {
			label = code + label + ansiReset
		}
		sections[group] = append(sections[group], []string{
			label,
			c.Path,
			orDash(c.OldDetail),
			orDash(c.NewDetail),
			abbrevHash(c.NewHash),
		})
	}

	written := 0
	for _, group := range resourceRanks {
		rows := sections[group]
		if len(rows) == 0 {
			continue
		}
		if written > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, strings.ToUpper(group)+":")
		if err := output.WriteTable(w, []string{"CHANGE", "PATH", "REMOTE", "LOCAL", "LOCAL_HASH"}, rows); err != nil {
			return err
		}
		written++
	}
	if written == 0 {
		fmt.Fprintln(w, "No changes detected.")
	}

	s := result.Summary
	_, err := fmt.Fprintf(w, "%d added, %d modified, %d removed, %d unchanged\n", s.Added, s.Modified, s.Removed, s.Unchanged)
	return err
}

func orDash(v string) string {
	if v = strings.TrimSpace(v); v == "" {
		return "-"
	}
	return output.Truncate(v, 40)
}

func abbrevHash(h string) string {
	h = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(h)), "sha256:")
	switch {
	case h == "":
		return "-"
	case len(h) > 8:
		return h[:8]
	default:
		return h
	}
}
