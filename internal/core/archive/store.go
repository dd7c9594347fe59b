// Package archive persists one JSON document per session. The archive is
// the source of truth; the index is derived from it and disposable.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/lore-tools/lore/internal/core/models"
)

// ErrNotFound is returned for missing or unreadable contexts. A corrupt
// archive file reads as "no context found" rather than an error.
var ErrNotFound = errors.New("context not found")

// Store reads and writes ExtractedContext documents under one directory
type Store struct {
	dir string
	log zerolog.Logger
}

// NewStore opens (creating if needed) an archive directory
func NewStore(dir string, log zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &Store{dir: dir, log: log}, nil
}

// Dir returns the archive root
func (s *Store) Dir() string {
	return s.dir
}

// Save writes the context atomically: the document lands in a temp file
// first and is renamed into place, so a concurrent reader sees either the
// old version or the new one, never a truncated file. Returns the final
// location.
func (s *Store) Save(ctx *models.ExtractedContext) (string, error) {
	if err := ctx.Validate(); err != nil {
		return "", fmt.Errorf("refusing to archive invalid context: %w", err)
	}

	data, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode context: %w", err)
	}

	target := s.path(ctx.SessionID)
	tmp, err := os.CreateTemp(s.dir, ".context-*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("failed to write context: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("failed to replace archive file: %w", err)
	}

	s.log.Debug().Str("session", ctx.SessionID).Str("path", target).Msg("context archived")
	return target, nil
}

// Load reads a context by session id. Missing and corrupt files both
// report ErrNotFound.
func (s *Store) Load(sessionID string) (*models.ExtractedContext, error) {
	data, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		return nil, ErrNotFound
	}
	var ctx models.ExtractedContext
	if err := json.Unmarshal(data, &ctx); err != nil {
		s.log.Warn().Str("session", sessionID).Err(err).Msg("corrupt archive file")
		return nil, ErrNotFound
	}
	return &ctx, nil
}

// List loads every context in the archive, newest first. Corrupt files
// are skipped with a warning.
func (s *Store) List() ([]*models.ExtractedContext, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	var contexts []*models.ExtractedContext
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		var ctx models.ExtractedContext
		if err := json.Unmarshal(data, &ctx); err != nil {
			s.log.Warn().Str("file", e.Name()).Err(err).Msg("skipping corrupt archive file")
			continue
		}
		contexts = append(contexts, &ctx)
	}

	sort.Slice(contexts, func(i, j int) bool {
		return contexts[i].Timestamp.After(contexts[j].Timestamp)
	})
	return contexts, nil
}

func (s *Store) path(sessionID string) string {
	return filepath.Join(s.dir, sanitize(sessionID)+".json")
}

// sanitize keeps session-id derived filenames safe on every filesystem
func sanitize(id string) string {
	var b strings.Builder
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
