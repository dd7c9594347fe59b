package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/cbroglie/mustache"
	"github.com/dustin/go-humanize"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/lore-tools/lore/internal/core/search"
)

var (
	searchLimit   int
	searchProject string
	searchSince   string
	searchFormat  string
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the knowledge archive",
	Long: `Search archived sessions by keyword. Query tokens match simple
morphological variants ("fix" also matches "fixed", "fixing"), and recent
sessions rank above stale matches of equal textual relevance.

An empty query lists the most recent archives.

Examples:
  lore search "auth failing"
  lore search migration --since "last week"
  lore search --project /home/me/app`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)
	searchCmd.Flags().IntVar(&searchLimit, "limit", 0, "Maximum results (default from config)")
	searchCmd.Flags().StringVar(&searchProject, "project", "", "Filter by project path")
	searchCmd.Flags().StringVar(&searchSince, "since", "", `Only sessions after this time ("last week", "3 days ago", "2025-01-01")`)
	searchCmd.Flags().StringVar(&searchFormat, "format", "", "Mustache template for each result (default from config)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	arch, idx, err := openStores()
	if err != nil {
		return err
	}
	defer func() { _ = idx.Close() }()

	query := ""
	if len(args) > 0 {
		query = args[0]
	}

	filters := search.Filters{
		Project: searchProject,
		Limit:   searchLimit,
	}
	if filters.Limit <= 0 {
		filters.Limit = cfg.SearchLimit
	}
	if searchSince != "" {
		after, err := parseNaturalTime(searchSince)
		if err != nil {
			return err
		}
		filters.After = after
	}

	searcher := search.New(idx, arch,
		search.WithHalfLife(time.Duration(cfg.HalfLifeDays)*24*time.Hour))

	results, err := searcher.Search(query, filters)
	if err != nil {
		return err
	}

	if len(results) == 0 {
		if query == "" {
			fmt.Println("No archived sessions yet. Run 'lore extract' first.")
		} else {
			fmt.Printf("No results for %q\n", query)
		}
		return nil
	}

	template := cfg.ResultTemplate
	if searchFormat != "" {
		template = searchFormat
	}

	for i, r := range results {
		rendered, err := mustache.Render(template, map[string]interface{}{
			"index":       i + 1,
			"sessionId":   r.Context.SessionID,
			"projectPath": r.Context.ProjectPath,
			"relevance":   fmt.Sprintf("%.3f", r.Relevance),
			"when":        humanize.Time(r.Context.Timestamp),
			"matches":     matchList(r.Matches),
		})
		if err != nil {
			return fmt.Errorf("failed to render result template: %w", err)
		}
		fmt.Println(strings.TrimRight(rendered, "\n"))
		fmt.Println()
	}
	return nil
}

func matchList(matches []search.Match) []map[string]string {
	out := make([]map[string]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, map[string]string{
			"field":   m.Field,
			"snippet": strings.ReplaceAll(m.Snippet, "\n", " "),
		})
	}
	return out
}

// parseNaturalTime accepts both RFC3339/date strings and natural
// language like "last week"
func parseNaturalTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	result, err := w.Parse(s, time.Now())
	if err != nil || result == nil {
		return time.Time{}, fmt.Errorf("cannot parse time %q", s)
	}
	return result.Time, nil
}
