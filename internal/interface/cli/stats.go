package cli

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show archive and index statistics",
	RunE:  runStats,
}

func init() {
	rootCmd.AddCommand(statsCmd)
}

func runStats(cmd *cobra.Command, args []string) error {
	arch, idx, err := openStores()
	if err != nil {
		return err
	}
	defer func() { _ = idx.Close() }()

	st, err := idx.GetStats()
	if err != nil {
		return err
	}

	fmt.Println("Archive Statistics")
	fmt.Println("==================")
	fmt.Println()
	fmt.Printf("Sessions indexed:  %d\n", st.Sessions)
	fmt.Printf("Postings:          %d\n", st.Postings)
	fmt.Printf("Distinct tokens:   %d\n", st.Tokens)
	fmt.Printf("Cached patterns:   %d\n", st.Patterns)
	fmt.Println()

	fmt.Printf("Archive location:  %s\n", arch.Dir())
	if info, err := os.Stat(cfg.IndexPath); err == nil {
		fmt.Printf("Index location:    %s\n", cfg.IndexPath)
		fmt.Printf("Index size:        %s\n", humanize.Bytes(uint64(info.Size())))
	}
	return nil
}
