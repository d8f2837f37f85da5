// Package output renders command results as aligned tables or as JSON/YAML
// documents.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

type Format string

const (
	FormatTable Format = "table"
	FormatJSON  Format = "json"
	FormatYAML  Format = "yaml"
)

// ParseFormat reads the -o flag. "yml" is accepted for YAML.
func ParseFormat(v string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "table":
		return FormatTable, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown output format %q: use table, json or yaml", v)
}

// WriteStructured encodes payload as JSON or YAML. HTML in block content is
// written as-is rather than \u-escaped.
func WriteStructured(w io.Writer, format Format, payload any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(payload); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(payload); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	}
	return fmt.Errorf("%s is not a structured format", format)
}

// WriteList writes payload as a document, or rows as a table. An empty table
// is replaced by "No <noun> found.".
func WriteList(w io.Writer, format Format, noun string, payload any, headers []string, rows [][]string) error {
	if format != FormatTable {
		return WriteStructured(w, format, payload)
	}
	if len(rows) == 0 {
		_, err := fmt.Fprintf(w, "No %s found.\n", noun)
		return err
	}
	return WriteTable(w, headers, rows)
}

// WriteFields writes a single resource as FIELD/VALUE pairs.
func WriteFields(w io.Writer, format Format, payload any, fields [][2]string) error {
	if format != FormatTable {
		return WriteStructured(w, format, payload)
	}
	rows := make([][]string, 0, len(fields))
	for _, f := range fields {
		rows = append(rows, []string{f[0], f[1]})
	}
	return WriteTable(w, []string{"FIELD", "VALUE"}, rows)
}
