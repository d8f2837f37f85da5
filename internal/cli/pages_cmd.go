package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ayatskii/panel-sub002/internal/api"
	diffpkg "github.com/ayatskii/panel-sub002/internal/diff"
	"github.com/ayatskii/panel-sub002/internal/ogimage"
	"github.com/ayatskii/panel-sub002/internal/output"
	"github.com/ayatskii/panel-sub002/pkg/loader"
	"github.com/ayatskii/panel-sub002/pkg/model"
	"github.com/ayatskii/panel-sub002/pkg/renderer"
	"github.com/ayatskii/panel-sub002/pkg/validator"
	"github.com/spf13/cobra"
)

var errDiffHasChanges = errors.New("diff detected changes")

func newPagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pages",
		Aliases: []string{"page"},
		Short:   "Manage site pages and their blocks",
	}
	markRequiresTransport(cmd)

	cmd.AddCommand(newPagesListCmd())
	cmd.AddCommand(newPagesGetCmd())
	cmd.AddCommand(newPagesCreateCmd())
	cmd.AddCommand(newPagesApplyCmd())
	cmd.AddCommand(newPagesDeleteCmd())
	cmd.AddCommand(newPagesPreviewCmd())
	cmd.AddCommand(newPagesDiffCmd())
	cmd.AddCommand(newPagesReorderCmd())
	return cmd
}

func newPagesListCmd() *cobra.Command {
	var outputMode string
	var siteID int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List pages",
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
			pages, err := a.ListPages(cmd.Context(), siteID)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(pages))
			for _, p := range pages {
				rows = append(rows, []string{
					itoa(p.ID),
					itoa(p.Site),
					"/" + loader.NormalizeSlug(p.Slug),
					output.Truncate(p.Title, 40),
					output.YesNo(p.IsPublished),
					itoa(len(p.Blocks)),
				})
			}
			return writeList(cmd, format, "pages", pages, []string{"ID", "SITE", "SLUG", "TITLE", "PUBLISHED", "BLOCKS"}, rows)
		},
	}
	addOutputFlag(cmd, &outputMode)
	cmd.Flags().IntVar(&siteID, "site", 0, "Only show pages of this site")
	return cmd
}

func newPagesGetCmd() *cobra.Command {
	var outputMode string
	cmd := &cobra.Command{
		Use:   "get <page-id>",
		Short: "Show a page and its blocks",
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
			id, err := parseID("page", args[0])
			if err != nil {
				return err
			}
			page, err := a.GetPage(cmd.Context(), id)
			if err != nil {
				return err
			}
			if format != output.FormatTable {
				return output.WriteStructured(cmd.OutOrStdout(), format, page)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Page %d: %s (/%s) published=%s\n", page.ID, page.Title, loader.NormalizeSlug(page.Slug), output.YesNo(page.IsPublished))
			blocks := renderer.SortedBlocks(page.Blocks)
			if len(blocks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No blocks found.")
				return nil
			}
			rows := make([][]string, 0, len(blocks))
			for _, b := range blocks {
				rows = append(rows, []string{itoa(b.ID), itoa(b.Order), string(b.Type), blockSummary(b)})
			}
			return output.WriteTable(cmd.OutOrStdout(), []string{"ID", "ORDER", "TYPE", "SUMMARY"}, rows)
		},
	}
	addOutputFlag(cmd, &outputMode)
	return cmd
}

func blockSummary(b model.Block) string {
	var s string
	switch c := b.Content.(type) {
	case model.HeroContent:
		s = c.Title
	case model.FAQContent:
		s = fmt.Sprintf("%d questions", len(c.Items))
	case model.TextImageContent:
		s = c.Title
		if s == "" {
			s = renderer.PlainText(c.Text)
		}
	case model.CTAContent:
		s = c.Title
	case model.SwiperContent:
		s = fmt.Sprintf("%d slides", len(c.Slides))
	}
	return output.Truncate(strings.TrimSpace(s), 50)
}

// loadPageFile reads a page spec and runs the client-side checks on it.
func loadPageFile(cmd *cobra.Command, path string) (model.Page, error) {
	spec, err := loader.LoadPage(path)
	if err != nil {
		return model.Page{}, err
	}
	page := spec.Page
	page.Slug = loader.NormalizeSlug(page.Slug)
	if err := rejectInvalid(cmd, validator.ValidatePage(page)); err != nil {
		return model.Page{}, err
	}
	return page, nil
}

func newPagesCreateCmd() *cobra.Command {
	var file string
	var siteID int
	var outputMode string
	cmd := &cobra.Command{
		Use:   "create -f <page.yaml> --site <site-id>",
		Short: "Create a page from a page file",
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
			page, err := loadPageFile(cmd, file)
			if err != nil {
				return err
			}
			page.Site = siteID
			created, err := a.CreatePage(cmd.Context(), page)
			if err != nil {
				return err
			}
			if format != output.FormatTable {
				return output.WriteStructured(cmd.OutOrStdout(), format, created)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Page %d created: /%s\n", created.ID, loader.NormalizeSlug(created.Slug))
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Page file (*.page.yaml)")
	cmd.Flags().IntVar(&siteID, "site", 0, "Site id")
	addOutputFlag(cmd, &outputMode)
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("site")
	return cmd
}

type applyResult struct {
	Slug   string `json:"slug" yaml:"slug"`
	PageID int    `json:"pageId" yaml:"pageId"`
	Action string `json:"action" yaml:"action"`
}

func newPagesApplyCmd() *cobra.Command {
	var from string
	var siteID int
	var dryRun bool
	var outputMode string
	cmd := &cobra.Command{
		Use:   "apply -f <site-dir|page.yaml> --site <site-id>",
		Short: "Create or update pages from local page files",
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
			pages, err := loadApplySource(from)
			if err != nil {
				return err
			}
			var errs []validator.ValidationError
			for _, p := range pages {
				for _, e := range validator.ValidatePage(p) {
					e.Field = p.Slug + "." + e.Field
					errs = append(errs, e)
				}
			}
			if err := rejectInvalid(cmd, errs); err != nil {
				return err
			}

			results := make([]applyResult, 0, len(pages))
			for _, page := range pages {
				res, err := applyPage(cmd, a, siteID, page, dryRun)
				if err != nil {
					return fmt.Errorf("apply /%s: %w", page.Slug, err)
				}
				results = append(results, res)
			}
			if format != output.FormatTable {
				return output.WriteStructured(cmd.OutOrStdout(), format, results)
			}
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				id := "-"
				if r.PageID > 0 {
					id = itoa(r.PageID)
				}
				rows = append(rows, []string{"/" + r.Slug, id, r.Action})
			}
			if err := output.WriteTable(cmd.OutOrStdout(), []string{"SLUG", "PAGE", "ACTION"}, rows); err != nil {
				return err
			}
			if dryRun {
				fmt.Fprintln(cmd.OutOrStdout(), "Dry run: nothing was changed.")
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&from, "from", "f", "", "Site directory or single page file")
	cmd.Flags().IntVar(&siteID, "site", 0, "Site id")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only report what would change")
	addOutputFlag(cmd, &outputMode)
	_ = cmd.MarkFlagRequired("from")
	_ = cmd.MarkFlagRequired("site")
	return cmd
}

func loadApplySource(from string) ([]model.Page, error) {
	info, err := os.Stat(from)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", from, err)
	}
	if !info.IsDir() {
		spec, err := loader.LoadPage(from)
		if err != nil {
			return nil, err
		}
		spec.Page.Slug = loader.NormalizeSlug(spec.Page.Slug)
		return []model.Page{spec.Page}, nil
	}
	spec, err := loader.LoadDir(from)
	if err != nil {
		return nil, err
	}
	pages := make([]model.Page, 0, len(spec.Pages))
	for _, p := range spec.Pages {
		pages = append(pages, p.Page)
	}
	return pages, nil
}

func applyPage(cmd *cobra.Command, a *api.API, siteID int, page model.Page, dryRun bool) (applyResult, error) {
	ctx := cmd.Context()
	page.Site = siteID
	remote, found, err := remotePageBySlug(ctx, a, siteID, page.Slug)
	if err != nil {
		return applyResult{}, err
	}
	res := applyResult{Slug: page.Slug, PageID: remote.ID}
	if !found {
		res.Action = "create"
		if dryRun {
			return res, nil
		}
		created, err := a.CreatePage(ctx, page)
		if err != nil {
			return applyResult{}, err
		}
		res.PageID = created.ID
		res.Action = "created"
		return res, nil
	}
	changes, err := diffpkg.ComparePages(page, remote)
	if err != nil {
		return applyResult{}, err
	}
	if !changes.HasChanges() {
		res.Action = "unchanged"
		return res, nil
	}
	res.Action = "update"
	if dryRun {
		return res, nil
	}
	if _, err := a.UpdatePage(ctx, remote.ID, page); err != nil {
		return applyResult{}, err
	}
	res.Action = "updated"
	return res, nil
}

func newPagesDeleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete <page-id>",
		Short: "Delete a page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := apiFromCommand(cmd)
			if err != nil {
				return err
			}
			id, err := parseID("page", args[0])
			if err != nil {
				return err
			}
			ok, err := confirm(cmd, yes, fmt.Sprintf("Delete page %d?", id))
			if err != nil {
				return err
			}
			if !ok {
				return printAborted(cmd)
			}
			if err := a.DeletePage(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Page %d deleted.\n", id)
			return nil
		},
	}
	addYesFlag(cmd, &yes)
	return cmd
}

func newPagesPreviewCmd() *cobra.Command {
	var outDir string
	var siteID int
	var noCard bool
	cmd := &cobra.Command{
		Use:   "preview <page-id|page.yaml>",
		Short: "Render a page to a standalone HTML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := apiFromCommand(cmd)
			if err != nil {
				return err
			}
			var page model.Page
			if id, convErr := strconv.Atoi(args[0]); convErr == nil {
				page, err = a.GetPage(cmd.Context(), id)
				if err != nil {
					return err
				}
				if siteID == 0 {
					siteID = page.Site
				}
			} else {
				page, err = loadPageFile(cmd, args[0])
				if err != nil {
					return err
				}
			}

			opts := renderer.Options{}
			if siteID > 0 {
				site, err := a.GetSite(cmd.Context(), siteID)
				if err != nil {
					return err
				}
				opts.SiteName = site.BrandName
				opts.Colors = site.CustomColors
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			var cardPath string
			if !noCard {
				cardPath, err = ogimage.Write(outDir, page.Slug, socialCard(page, opts))
				if err != nil {
					return fmt.Errorf("social card: %w", err)
				}
				opts.SocialImage = filepath.Base(cardPath)
			}
			path, err := renderer.WritePreview(outDir, page, opts)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Preview written to %s\n", path)
			if cardPath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Social card written to %s\n", cardPath)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "preview", "Output directory")
	cmd.Flags().BoolVar(&noCard, "no-card", false, "Skip the og:image social card")
	cmd.Flags().IntVar(&siteID, "site", 0, "Site whose brand and colours are applied")
	return cmd
}

func socialCard(page model.Page, opts renderer.Options) ogimage.Card {
	card := ogimage.Card{
		Title:       page.Title,
		Description: renderer.PlainText(page.MetaDescription),
		SiteName:    opts.SiteName,
	}
	if opts.Colors != nil {
		card.Accent = opts.Colors.Primary
	}
	return card
}

func newPagesDiffCmd() *cobra.Command {
	var siteID int
	var outputMode string
	cmd := &cobra.Command{
		Use:   "diff <page.yaml> --site <site-id>",
		Short: "Compare a local page file with the page of the same slug",
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
			local, err := loadPageFile(cmd, args[0])
			if err != nil {
				return err
			}
			report, err := computePageDiff(cmd.Context(), a, siteID, local)
			if err != nil {
				return err
			}
			if format == output.FormatTable {
				if err := diffpkg.WriteTable(cmd.OutOrStdout(), report.Result, diffpkg.DisplayOptions{
					Color: diffpkg.AutoColor(cmd.OutOrStdout()),
				}); err != nil {
					return err
				}
			} else if err := output.WriteStructured(cmd.OutOrStdout(), format, report); err != nil {
				return err
			}
			if report.Result.HasChanges() {
				return exitCodeError(exitFailure, errDiffHasChanges)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&siteID, "site", 0, "Site id")
	addOutputFlag(cmd, &outputMode)
	_ = cmd.MarkFlagRequired("site")
	return cmd
}

func newPagesReorderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reorder <page-id> <block-id>...",
		Short: "Set the block order of a page",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, a, err := apiFromCommand(cmd)
			if err != nil {
				return err
			}
			pageID, err := parseID("page", args[0])
			if err != nil {
				return err
			}
			blockIDs, err := parseIDs("block", args[1:])
			if err != nil {
				return err
			}
			page, err := a.ReorderBlocks(cmd.Context(), pageID, blockIDs)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Page %d: %d blocks reordered.\n", page.ID, len(blockIDs))
			return nil
		},
	}
	return cmd
}
