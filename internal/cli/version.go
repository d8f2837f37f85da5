package cli

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/ayatskii/panel-sub002/internal/output"
	"github.com/spf13/cobra"
)

type buildInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit,omitempty" yaml:"commit,omitempty"`
	GoVersion string `json:"goVersion" yaml:"goVersion"`
	Platform  string `json:"platform" yaml:"platform"`
}

func currentBuild(version string) buildInfo {
	if version == "" {
		version = "dev"
	}
	info := buildInfo{
		Version:   version,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" && len(s.Value) >= 12 {
				info.Commit = s.Value[:12]
			}
		}
	}
	return info
}

func newVersionCmd(version string) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print panelctl version",
		Args:  cobra.NoArgs,
		// Runs without config so a broken config file can still be reported against a version.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := output.ParseFormat(format)
			if err != nil {
				return err
			}
			info := currentBuild(version)
			if f == output.FormatTable {
				_, err := fmt.Fprintln(cmd.OutOrStdout(), info.Version)
				return err
			}
			return output.WriteStructured(cmd.OutOrStdout(), f, info)
		},
	}
	addOutputFlag(cmd, &format)
	return cmd
}
