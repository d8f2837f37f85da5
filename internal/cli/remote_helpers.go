package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ayatskii/panel-sub002/internal/output"
	"github.com/ayatskii/panel-sub002/pkg/validator"
	"github.com/spf13/cobra"
)

var errValidation = errors.New("validation failed")

func parseID(kind, raw string) (int, error) {
	id, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q (expected a positive integer)", kind, raw)
	}
	return id, nil
}

func parseIDs(kind string, raw []string) ([]int, error) {
	ids := make([]int, 0, len(raw))
	for _, v := range raw {
		for _, part := range strings.Split(v, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			id, err := parseID(kind, part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// rejectInvalid prints the validation errors and returns an exit code 2 error
// when errs is non-empty. Nothing is sent to the server in that case.
func rejectInvalid(cmd *cobra.Command, errs []validator.ValidationError) error {
	if len(errs) == 0 {
		return nil
	}
	fmt.Fprintln(cmd.ErrOrStderr(), validator.FormatErrors(errs))
	return exitCodeError(exitValidation, errValidation)
}

// confirm asks a yes/no question on the command's input. Only y and yes accept.
func confirm(cmd *cobra.Command, assumeYes bool, prompt string) (bool, error) {
	if assumeYes {
		return true, nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N]: ", prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read confirmation: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func printAborted(cmd *cobra.Command) error {
	fmt.Fprintln(cmd.OutOrStdout(), "Aborted.")
	return nil
}

func addYesFlag(cmd *cobra.Command, v *bool) {
	cmd.Flags().BoolVarP(v, "yes", "y", false, "Skip the confirmation prompt")
}

func addOutputFlag(cmd *cobra.Command, v *string) {
	cmd.Flags().StringVarP(v, "output", "o", "table", "Output format (table|json|yaml)")
}

// writeList renders rows as a table, or the raw payload for structured formats.
// An empty table prints "No <noun> found.".
func writeList(cmd *cobra.Command, format output.Format, noun string, payload any, headers []string, rows [][]string) error {
	return output.WriteList(cmd.OutOrStdout(), format, noun, payload, headers, rows)
}

func writeFields(cmd *cobra.Command, format output.Format, payload any, fields [][2]string) error {
	return output.WriteFields(cmd.OutOrStdout(), format, payload, fields)
}

func itoa(v int) string {
	return strconv.Itoa(v)
}
