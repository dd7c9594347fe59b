package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lore-tools/lore/internal/core/patterns"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the index from the archive",
	Long: `Derive the entire index - postings, session catalog, and pattern
cache - from archive contents. The index is a disposable cache, so a
rebuild is routine maintenance, not recovery: the same archive always
produces the same index.`,
	RunE: runRebuild,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, args []string) error {
	arch, idx, err := openStores()
	if err != nil {
		return err
	}
	defer func() { _ = idx.Close() }()

	started := time.Now()

	contexts, err := arch.List()
	if err != nil {
		return fmt.Errorf("failed to read archive: %w", err)
	}

	mined := patterns.New().Analyze(contexts)
	if err := idx.Rebuild(contexts, mined); err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	log.Info().
		Int("sessions", len(contexts)).
		Int("patterns", len(mined)).
		Dur("took", time.Since(started)).
		Msg("index rebuilt")

	fmt.Printf("Rebuilt index from %d archived session(s)\n", len(contexts))
	return nil
}
