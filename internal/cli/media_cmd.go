package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ayatskii/panel-sub002/internal/api"
	"github.com/ayatskii/panel-sub002/internal/names"
	"github.com/ayatskii/panel-sub002/internal/output"
	"github.com/spf13/cobra"
)

// maxUploadSize mirrors the panel's upload limit so oversized files fail
// before they are read into memory and sent.
const maxUploadSize = 20 << 20

func newMediaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media",
		Short: "Manage the media library",
	}
	markRequiresTransport(cmd)

	cmd.AddCommand(newMediaListCmd())
	cmd.AddCommand(newMediaUploadCmd())
	cmd.AddCommand(newMediaDeleteCmd())
	cmd.AddCommand(newMediaAnalyticsCmd())
	return cmd
}

func newMediaListCmd() *cobra.Command {
	var outputMode string
	var filter api.MediaFilter
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List media assets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := apiFromCommand(cmd)
			if err != nil {
				return err
			}
			format, err := output.ParseFormat(outputMode)
			if err != nil {
				return err
			}
			assets, err := a.ListMedia(cmd.Context(), filter)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(assets))
			for _, m := range assets {
				dims := "-"
				if m.Width > 0 && m.Height > 0 {
					dims = fmt.Sprintf("%dx%d", m.Width, m.Height)
				}
				folder := m.Folder
				rows = append(rows, []string{
					itoa(m.ID),
					output.Truncate(m.Filename, 40),
					m.MimeType,
					output.Bytes(m.FileSize),
					dims,
					output.OrNone(&folder),
				})
			}
			return writeList(cmd, format, "media", assets, []string{"ID", "FILENAME", "TYPE", "SIZE", "DIMENSIONS", "FOLDER"}, rows)
		},
	}
	addOutputFlag(cmd, &outputMode)
	cmd.Flags().StringVar(&filter.Folder, "folder", "", "Only show assets in this folder")
	cmd.Flags().StringVar(&filter.Tag, "tag", "", "Only show assets with this tag")
	return cmd
}

func newMediaUploadCmd() *cobra.Command {
	var folder string
	var altText string
	var tags []string
	var outputMode string
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload a file to the media library",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := apiFromCommand(cmd)
			if err != nil {
				return err
			}
			format, err := output.ParseFormat(outputMode)
			if err != nil {
				return err
			}
			folder = strings.TrimSpace(folder)
			if err := names.ValidateFolder(folder); err != nil {
				return exitCodeError(exitValidation, err)
			}
			path := args[0]
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("stat %s: %w", path, err)
			}
			if info.IsDir() {
				return fmt.Errorf("%s is a directory", path)
			}
			if info.Size() > maxUploadSize {
				return exitCodeError(exitValidation, fmt.Errorf("%s is %s, the upload limit is %s", path, output.Bytes(info.Size()), output.Bytes(maxUploadSize)))
			}
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			asset, err := a.UploadMedia(cmd.Context(), api.UploadMediaParams{
				Filename: filepath.Base(path),
				Content:  content,
				Folder:   folder,
				AltText:  strings.TrimSpace(altText),
				Tags:     tags,
			})
			if err != nil {
				return err
			}
			if format != output.FormatTable {
				return output.WriteStructured(cmd.OutOrStdout(), format, asset)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Uploaded %s as media %d (%s)\n", asset.Filename, asset.ID, output.Bytes(asset.FileSize))
			if asset.URL != "" {
				fmt.Fprintln(cmd.OutOrStdout(), asset.URL)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&folder, "folder", "", "Target folder")
	cmd.Flags().StringVar(&altText, "alt", "", "Alternative text")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tag to attach (repeatable)")
	addOutputFlag(cmd, &outputMode)
	return cmd
}

func newMediaDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <media-id>",
		Short: "Delete a media asset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := apiFromCommand(cmd)
			if err != nil {
				return err
			}
			id, err := parseID("media", args[0])
			if err != nil {
				return err
			}
			ok, err := confirm(cmd, yes, fmt.Sprintf("Delete media %d? Pages referencing it will show a broken image.", id))
			if err != nil {
				return err
			}
			if !ok {
				return printAborted(cmd)
			}
			if err := a.DeleteMedia(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Media %d deleted.\n", id)
			return nil
		},
	}
	addYesFlag(cmd, &yes)
	return cmd
}

func newMediaAnalyticsCmd() *cobra.Command {
	var outputMode string
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show media library usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := apiFromCommand(cmd)
			if err != nil {
				return err
			}
			format, err := output.ParseFormat(outputMode)
			if err != nil {
				return err
			}
			stats, err := a.GetMediaAnalytics(cmd.Context())
			if err != nil {
				return err
			}
			fields := [][2]string{
				{"Files", output.Count(int64(stats.TotalFiles))},
				{"Size", output.Bytes(stats.TotalSize)},
				{"Unused", output.Count(int64(stats.Unused))},
			}
			for _, k := range sortedKeys(stats.ByType) {
				fields = append(fields, [2]string{"Type " + k, output.Count(int64(stats.ByType[k]))})
			}
			for _, k := range sortedKeys(stats.ByFolder) {
				fields = append(fields, [2]string{"Folder " + k, output.Count(int64(stats.ByFolder[k]))})
			}
			return writeFields(cmd, format, stats, fields)
		},
	}
	addOutputFlag(cmd, &outputMode)
	return cmd
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
