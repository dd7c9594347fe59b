package index

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/lore-tools/lore/internal/core/models"
	"github.com/lore-tools/lore/internal/core/textutil"
)

// Posting locates one token occurrence in the archive
type Posting struct {
	Token     string
	SessionID string
	Field     string
	Offset    int
}

// SessionInfo is one row of the derived session catalog
type SessionInfo struct {
	SessionID   string
	ProjectPath string
	Timestamp   time.Time
	EntryCount  int
	Relevance   float64
}

// IndexContext replaces all index state for one session with postings
// derived from the given context. The replace runs in one transaction so
// readers never observe a half-indexed session.
func (s *Store) IndexContext(ctx *models.ExtractedContext) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin index transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := indexInTx(tx, ctx); err != nil {
		return err
	}
	return tx.Commit()
}

// Rebuild derives the entire index from archive contents: postings,
// session catalog, and pattern cache. Rebuilding is idempotent - the same
// archive always produces the same index - and atomic from a reader's
// point of view.
func (s *Store) Rebuild(contexts []*models.ExtractedContext, patterns []models.Pattern) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin rebuild: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"postings", "sessions", "patterns"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	for _, ctx := range contexts {
		if err := indexInTx(tx, ctx); err != nil {
			return err
		}
	}
	if err := savePatternsInTx(tx, patterns); err != nil {
		return err
	}
	return tx.Commit()
}

func indexInTx(tx *sql.Tx, ctx *models.ExtractedContext) error {
	if _, err := tx.Exec("DELETE FROM postings WHERE session_id = ?", ctx.SessionID); err != nil {
		return fmt.Errorf("failed to clear postings for %s: %w", ctx.SessionID, err)
	}
	if _, err := tx.Exec(`
		INSERT INTO sessions (session_id, project_path, timestamp, entry_count, relevance)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			project_path = excluded.project_path,
			timestamp = excluded.timestamp,
			entry_count = excluded.entry_count,
			relevance = excluded.relevance
	`, ctx.SessionID, ctx.ProjectPath, ctx.Timestamp.UTC(), ctx.Metadata.EntryCount, ctx.Metadata.RelevanceScore); err != nil {
		return fmt.Errorf("failed to upsert session %s: %w", ctx.SessionID, err)
	}

	for _, ft := range Fields(ctx) {
		for _, tok := range textutil.Tokenize(ft.Text) {
			if _, err := tx.Exec(`
				INSERT OR IGNORE INTO postings (token, session_id, field, token_offset)
				VALUES (?, ?, ?, ?)
			`, tok.Text, ctx.SessionID, ft.Field, tok.Offset); err != nil {
				return fmt.Errorf("failed to insert posting: %w", err)
			}
		}
	}
	return nil
}

// Lookup returns all postings for any of the given tokens
func (s *Store) Lookup(tokens []string) ([]Posting, error) {
	if len(tokens) == 0 {
		return nil, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(tokens)), ",")
	args := make([]interface{}, len(tokens))
	for i, t := range tokens {
		args[i] = t
	}

	rows, err := s.conn.Query(fmt.Sprintf(`
		SELECT token, session_id, field, token_offset
		FROM postings
		WHERE token IN (%s)
		ORDER BY session_id, field, token_offset
	`, placeholders), args...)
	if err != nil {
		return nil, fmt.Errorf("posting lookup failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var postings []Posting
	for rows.Next() {
		var p Posting
		if err := rows.Scan(&p.Token, &p.SessionID, &p.Field, &p.Offset); err != nil {
			return nil, fmt.Errorf("failed to scan posting: %w", err)
		}
		postings = append(postings, p)
	}
	return postings, rows.Err()
}

// RecentSessions lists catalog rows newest first, optionally filtered by
// project path
func (s *Store) RecentSessions(limit int, project string) ([]SessionInfo, error) {
	query := `
		SELECT session_id, project_path, timestamp, entry_count, relevance
		FROM sessions
	`
	var args []interface{}
	if project != "" {
		query += " WHERE project_path = ?"
		args = append(args, project)
	}
	query += " ORDER BY timestamp DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("session listing failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []SessionInfo
	for rows.Next() {
		var info SessionInfo
		if err := rows.Scan(&info.SessionID, &info.ProjectPath, &info.Timestamp, &info.EntryCount, &info.Relevance); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, info)
	}
	return sessions, rows.Err()
}

// SavePatterns replaces the pattern cache
func (s *Store) SavePatterns(patterns []models.Pattern) error {
	tx, err := s.conn.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin pattern save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec("DELETE FROM patterns"); err != nil {
		return fmt.Errorf("failed to clear patterns: %w", err)
	}
	if err := savePatternsInTx(tx, patterns); err != nil {
		return err
	}
	return tx.Commit()
}

func savePatternsInTx(tx *sql.Tx, patterns []models.Pattern) error {
	for _, p := range patterns {
		examples, err := json.Marshal(p.Examples)
		if err != nil {
			return fmt.Errorf("failed to encode pattern examples: %w", err)
		}
		if _, err := tx.Exec(`
			INSERT INTO patterns (type, value, frequency, first_seen, last_seen, examples)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(type, value) DO UPDATE SET
				frequency = excluded.frequency,
				first_seen = excluded.first_seen,
				last_seen = excluded.last_seen,
				examples = excluded.examples
		`, string(p.Type), p.Value, p.Frequency, p.FirstSeen.UTC(), p.LastSeen.UTC(), string(examples)); err != nil {
			return fmt.Errorf("failed to save pattern %q: %w", p.Value, err)
		}
	}
	return nil
}

// GetPatterns returns cached patterns of a type at or above minFrequency,
// most frequent first. Sub-threshold patterns are excluded entirely.
func (s *Store) GetPatterns(typ models.PatternType, minFrequency, limit int) ([]models.Pattern, error) {
	if minFrequency < 1 {
		minFrequency = 1
	}
	if limit < 1 {
		limit = 20
	}

	query := `
		SELECT type, value, frequency, first_seen, last_seen, examples
		FROM patterns
		WHERE frequency >= ?
	`
	args := []interface{}{minFrequency}
	if typ != "" {
		query += " AND type = ?"
		args = append(args, string(typ))
	}
	query += " ORDER BY frequency DESC, last_seen DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("pattern query failed: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var patterns []models.Pattern
	for rows.Next() {
		var p models.Pattern
		var typStr, examples string
		if err := rows.Scan(&typStr, &p.Value, &p.Frequency, &p.FirstSeen, &p.LastSeen, &examples); err != nil {
			return nil, fmt.Errorf("failed to scan pattern: %w", err)
		}
		p.Type = models.PatternType(typStr)
		if err := json.Unmarshal([]byte(examples), &p.Examples); err != nil {
			p.Examples = nil
		}
		patterns = append(patterns, p)
	}
	return patterns, rows.Err()
}

// Stats summarizes the index for the stats command
type Stats struct {
	Sessions int
	Postings int
	Tokens   int
	Patterns int
}

// GetStats counts the derived state
func (s *Store) GetStats() (*Stats, error) {
	var st Stats
	row := s.conn.QueryRow(`
		SELECT
			(SELECT COUNT(*) FROM sessions),
			(SELECT COUNT(*) FROM postings),
			(SELECT COUNT(DISTINCT token) FROM postings),
			(SELECT COUNT(*) FROM patterns)
	`)
	if err := row.Scan(&st.Sessions, &st.Postings, &st.Tokens, &st.Patterns); err != nil {
		return nil, fmt.Errorf("failed to read index stats: %w", err)
	}
	return &st, nil
}
