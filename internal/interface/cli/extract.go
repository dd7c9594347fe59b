package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/lore-tools/lore/internal/core/archive"
	"github.com/lore-tools/lore/internal/core/extract"
	"github.com/lore-tools/lore/internal/core/index"
	"github.com/lore-tools/lore/internal/core/models"
	"github.com/lore-tools/lore/internal/core/patterns"
	"github.com/lore-tools/lore/pkg/transcript"
)

var extractProject string

var extractCmd = &cobra.Command{
	Use:   "extract <transcript.jsonl | directory>",
	Short: "Extract and archive knowledge from transcripts",
	Long: `Extract problems, implementations, and decisions from one transcript
or every *.jsonl file under a directory, redact sensitive values, archive
the result, and update the search index.

Examples:
  lore extract session.jsonl
  lore extract ~/.claude/projects --project /home/me/app`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().StringVar(&extractProject, "project", "", "Project path recorded in the archive")
}

func runExtract(cmd *cobra.Command, args []string) error {
	arch, idx, err := openStores()
	if err != nil {
		return err
	}
	defer func() { _ = idx.Close() }()

	extractor := extract.New(extract.DefaultVocabulary(), newRedactor(), log)

	info, err := os.Stat(args[0])
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", args[0], err)
	}

	var files []string
	if info.IsDir() {
		err := filepath.Walk(args[0], func(path string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !fi.IsDir() && filepath.Ext(path) == ".jsonl" {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			return fmt.Errorf("failed to walk directory: %w", err)
		}
	} else {
		files = []string{args[0]}
	}

	archived := 0
	for _, file := range files {
		if err := extractOne(file, extractor, arch, idx); err != nil {
			// Per-file failures warn and continue, same as a skipped line
			log.Warn().Str("file", file).Err(err).Msg("failed to extract transcript")
			continue
		}
		archived++
	}

	// Patterns are a cross-session aggregate: recompute from the full
	// archive after every ingest
	contexts, err := arch.List()
	if err != nil {
		return fmt.Errorf("failed to list archive: %w", err)
	}
	if err := idx.SavePatterns(patterns.New().Analyze(contexts)); err != nil {
		return fmt.Errorf("failed to update pattern cache: %w", err)
	}

	fmt.Printf("Archived %d of %d transcript(s)\n", archived, len(files))
	return nil
}

func extractOne(path string, extractor *extract.Extractor, arch *archive.Store, idx *index.Store) error {
	started := time.Now()

	result, err := transcript.ParseFile(path)
	if err != nil {
		return err
	}

	ctx := extractor.Extract(result.Entries, extractProject)
	ctx.Metadata.Warnings = append(ctx.Metadata.Warnings, result.Warnings...)
	if ctx.SessionID == "" {
		// Transcript carried no session id anywhere; mint one so the
		// archive entry is still addressable
		ctx.SessionID = uuid.NewString()
	}

	location, err := arch.Save(ctx)
	if err != nil {
		return err
	}
	if err := idx.IndexContext(ctx); err != nil {
		return err
	}

	log.Info().
		Str("session", ctx.SessionID).
		Str("location", location).
		Int("entries", ctx.Metadata.EntryCount).
		Int("problems", len(ctx.Problems)).
		Int("implementations", len(ctx.Implementations)).
		Int("decisions", len(ctx.Decisions)).
		Int("skipped_lines", result.SkippedLines).
		Float64("relevance", ctx.Metadata.RelevanceScore).
		Dur("took", time.Since(started)).
		Msg("transcript archived")

	printWarnings(ctx)
	return nil
}

func printWarnings(ctx *models.ExtractedContext) {
	for _, w := range ctx.Metadata.Warnings {
		log.Warn().Str("session", ctx.SessionID).Msg(w)
	}
}
