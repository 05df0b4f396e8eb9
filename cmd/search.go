package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/s0up4200/ibhelper/filter"
	"github.com/s0up4200/ibhelper/helper"
	"github.com/s0up4200/ibhelper/inkbunny"
)

var (
	searchPage    int
	searchPerPage int
	searchIDsOnly bool
	searchPages   int
	searchWhere   string
	searchPreset  string
)

var compiler = filter.NewCompiler(filter.WithCache(32))

var searchCmd = &cobra.Command{
	Use:   "search TAG...",
	Short: "Search submissions by tags",
	Long: `Search submissions carrying all of the given tags. Tags containing
spaces are matched with underscores. Use --pages to walk several pages of the
result set and --where to filter the results locally, for example:

  ibhelper search fox --pages 3 --where 'Pages > 1 and not Scraps'`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&searchPage, "page", 1, "first page to fetch")
	searchCmd.Flags().IntVar(&searchPerPage, "per-page", 30, "submissions per page")
	searchCmd.Flags().BoolVar(&searchIDsOnly, "ids-only", false, "only return submission ids")
	searchCmd.Flags().IntVar(&searchPages, "pages", 1, "number of pages to walk")
	searchCmd.Flags().StringVarP(&searchWhere, "where", "w", "", "filter expression applied to each page")
	searchCmd.Flags().StringVarP(&searchPreset, "preset", "p", "", "use a filter preset from config")
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchPages < 1 {
		return fmt.Errorf("--pages must be at least 1")
	}

	f, err := searchFilter(searchWhere, searchPreset)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	h, _, closeSession, err := openSession(ctx, client)
	if err != nil {
		return err
	}
	defer closeSession()

	logger.Info().Strs("tags", args).Int("page", searchPage).Msg("Searching submissions")

	first, err := h.SearchTags(ctx, args, searchIDsOnly, searchPage, searchPerPage)
	if err != nil {
		return err
	}

	if first.ResultsCountAll == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No submissions found.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Found %d submissions on %d pages\n", first.ResultsCountAll, first.PagesCount)

	return walkPages(ctx, first, searchPages, f, func(page *helper.SearchResult, subs []inkbunny.Submission) {
		printPage(cmd.OutOrStdout(), page, subs)
	})
}

// searchFilter resolves the --where expression or a named preset. Every
// preset is compiled up front so a broken one is reported by name; the
// chosen one then comes from the compiler cache.
func searchFilter(where, preset string) (*filter.Filter, error) {
	for name, expression := range cfg.Filters {
		if _, err := compiler.Compile(expression); err != nil {
			return nil, fmt.Errorf("invalid filter preset %q: %w", name, err)
		}
	}

	expression := where
	if preset != "" {
		if where != "" {
			return nil, fmt.Errorf("--where and --preset are mutually exclusive")
		}
		var ok bool
		if expression, ok = cfg.Filters[strings.ToLower(preset)]; !ok {
			return nil, fmt.Errorf("preset '%s' not found in config", preset)
		}
	}
	if expression == "" {
		return nil, nil
	}

	f, err := compiler.Compile(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}
	logger.Debug().Str("filter", f.Expression()).Int("cached", compiler.Size()).Msg("Filter ready")
	return f, nil
}

// walkPages hands up to count pages starting at first to fn, filtered by f
// when it is not nil. It stops early at the last page.
func walkPages(ctx context.Context, first *helper.SearchResult, count int, f *filter.Filter, fn func(*helper.SearchResult, []inkbunny.Submission)) error {
	page := first
	for i := 0; ; i++ {
		subs := page.Submissions
		if f != nil {
			var err error
			if subs, err = f.Apply(subs); err != nil {
				return err
			}
		}
		fn(page, subs)

		if i+1 >= count || int(page.Page) >= int(page.PagesCount) {
			return nil
		}

		next, err := page.NextPage(ctx)
		if errors.Is(err, helper.ErrInvalidRID) {
			logger.Warn().Msg("Server did not issue a result set id, stopping after this page")
			return nil
		}
		if err != nil {
			return err
		}
		page = next
	}
}

func printPage(w io.Writer, page *helper.SearchResult, subs []inkbunny.Submission) {
	fmt.Fprintf(w, "\nPage %d/%d\n", page.Page, page.PagesCount)
	fmt.Fprintln(w, strings.Repeat("-", 80))
	for _, sub := range subs {
		if sub.Title == "" {
			fmt.Fprintf(w, "• %s\n", sub.SubmissionID)
			continue
		}
		fmt.Fprintf(w, "• %s %s by %s [%s]\n", sub.SubmissionID, sub.Title, sub.Username, sub.RatingName)
	}
}
