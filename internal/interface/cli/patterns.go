package cli

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/lore-tools/lore/internal/core/models"
)

var (
	patternsType string
	patternsMin  int
	patternsMax  int
)

var patternsCmd = &cobra.Command{
	Use:   "patterns",
	Short: "Show recurring patterns across sessions",
	Long: `Show values that recur across archived sessions: shell commands,
code idioms, and architectural phrasing. Only patterns at or above the
frequency threshold are shown.

Examples:
  lore patterns
  lore patterns --type command --min 3
  lore patterns --type architecture --limit 5`,
	RunE: runPatterns,
}

func init() {
	rootCmd.AddCommand(patternsCmd)
	patternsCmd.Flags().StringVar(&patternsType, "type", "", "Pattern type: code, command, or architecture")
	patternsCmd.Flags().IntVar(&patternsMin, "min", 2, "Minimum frequency")
	patternsCmd.Flags().IntVar(&patternsMax, "limit", 20, "Maximum patterns to show")
}

func runPatterns(cmd *cobra.Command, args []string) error {
	typ, err := parsePatternType(patternsType)
	if err != nil {
		return err
	}

	_, idx, err := openStores()
	if err != nil {
		return err
	}
	defer func() { _ = idx.Close() }()

	found, err := idx.GetPatterns(typ, patternsMin, patternsMax)
	if err != nil {
		return err
	}

	if len(found) == 0 {
		fmt.Println("No recurring patterns at this threshold. Archive more sessions or lower --min.")
		return nil
	}

	for _, p := range found {
		fmt.Printf("%-12s %-40s x%d\n", p.Type, p.Value, p.Frequency)
		fmt.Printf("             first seen %s, last seen %s\n",
			humanize.Time(p.FirstSeen), humanize.Time(p.LastSeen))
		for _, ex := range p.Examples {
			fmt.Printf("             e.g. %s\n", strings.ReplaceAll(ex, "\n", " "))
		}
		fmt.Println()
	}
	return nil
}

func parsePatternType(s string) (models.PatternType, error) {
	switch s {
	case "":
		return "", nil
	case "code":
		return models.PatternCode, nil
	case "command":
		return models.PatternCommand, nil
	case "architecture":
		return models.PatternArchitecture, nil
	default:
		return "", fmt.Errorf("unknown pattern type %q (want code, command, or architecture)", s)
	}
}
