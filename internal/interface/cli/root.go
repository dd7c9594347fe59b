package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lore-tools/lore/internal/core/archive"
	"github.com/lore-tools/lore/internal/core/config"
	"github.com/lore-tools/lore/internal/core/index"
	"github.com/lore-tools/lore/internal/core/redact"
	"github.com/lore-tools/lore/internal/logger"
)

var (
	cfg         *config.Config
	log         zerolog.Logger
	versionInfo string

	flagArchiveDir string
	flagIndexPath  string
	flagVerbose    bool
)

// SetVersion sets the version information from build-time ldflags
func SetVersion(version, commit, date string) {
	versionInfo = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)
	rootCmd.Version = versionInfo
}

// Execute runs the CLI
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lore",
	Short: "Session knowledge archive",
	Long: `lore - turn session transcripts into a scored, redacted, searchable archive

lore extracts problems, implementations, and decisions from conversation
transcripts, scrubs credentials and PII, and indexes the result for fast
keyword retrieval with recency-aware ranking.`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg, _ = config.Load()
		if flagArchiveDir != "" {
			cfg.ArchiveDir = flagArchiveDir
		}
		if flagIndexPath != "" {
			cfg.IndexPath = flagIndexPath
		}
		log = logger.New(flagVerbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagArchiveDir, "archive-dir", "", "Archive directory (default ~/.config/lore/archive)")
	rootCmd.PersistentFlags().StringVar(&flagIndexPath, "index", "", "Index database path (default ~/.config/lore/index.db)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "Enable debug logging")
}

// openStores opens the archive and the index with the effective paths
func openStores() (*archive.Store, *index.Store, error) {
	arch, err := archive.NewStore(cfg.ArchiveDir, log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open archive: %w", err)
	}
	idx, err := index.Open(cfg.IndexPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open index: %w", err)
	}
	return arch, idx, nil
}

// newRedactor builds the security filter, including any caller-supplied
// patterns from config
func newRedactor() *redact.Redactor {
	r := redact.New()
	for name, pattern := range cfg.RedactPatterns {
		if err := r.AddPattern(name, pattern); err != nil {
			log.Warn().Str("pattern", name).Err(err).Msg("skipping invalid redaction pattern")
		}
	}
	return r
}
