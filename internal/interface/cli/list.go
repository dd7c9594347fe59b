package cli

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	listLimit   int
	listProject string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived sessions",
	Long: `List archived sessions in reverse chronological order.

Examples:
  lore list
  lore list --limit 10
  lore list --project /home/me/app`,
	RunE: runList,
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().IntVar(&listLimit, "limit", 20, "Maximum number of sessions to display")
	listCmd.Flags().StringVar(&listProject, "project", "", "Filter by project path")
}

func runList(cmd *cobra.Command, args []string) error {
	_, idx, err := openStores()
	if err != nil {
		return err
	}
	defer func() { _ = idx.Close() }()

	sessions, err := idx.RecentSessions(listLimit, listProject)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if len(sessions) == 0 {
		if listProject != "" {
			fmt.Printf("No sessions found for project: %s\n", listProject)
		} else {
			fmt.Println("No sessions archived yet. Run 'lore extract' first.")
		}
		return nil
	}

	fmt.Printf("Showing %d session(s)", len(sessions))
	if listProject != "" {
		fmt.Printf(" for project: %s", listProject)
	}
	fmt.Println()
	fmt.Println()

	for i, s := range sessions {
		fmt.Printf("[%d] %s\n", i+1, s.SessionID)
		if s.ProjectPath != "" {
			fmt.Printf("    Project:   %s\n", s.ProjectPath)
		}
		fmt.Printf("    Entries:   %d\n", s.EntryCount)
		fmt.Printf("    Relevance: %.2f\n", s.Relevance)
		fmt.Printf("    When:      %s\n", humanize.Time(s.Timestamp))
		fmt.Println()
	}
	return nil
}
