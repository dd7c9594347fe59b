package index

func (s *Store) initSchema() error {
	schema := `
	-- Session catalog, rebuilt alongside the postings
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		project_path TEXT NOT NULL DEFAULT '',
		timestamp DATETIME NOT NULL,
		entry_count INTEGER NOT NULL DEFAULT 0,
		relevance REAL NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_timestamp ON sessions(timestamp);
	CREATE INDEX IF NOT EXISTS idx_sessions_project ON sessions(project_path);

	-- Inverted index: token -> (session, field, byte offset)
	CREATE TABLE IF NOT EXISTS postings (
		token TEXT NOT NULL,
		session_id TEXT NOT NULL,
		field TEXT NOT NULL,
		token_offset INTEGER NOT NULL,
		UNIQUE(token, session_id, field, token_offset)
	);

	CREATE INDEX IF NOT EXISTS idx_postings_token ON postings(token);
	CREATE INDEX IF NOT EXISTS idx_postings_session ON postings(session_id);

	-- Cross-session pattern cache (analyzer output)
	CREATE TABLE IF NOT EXISTS patterns (
		type TEXT NOT NULL,
		value TEXT NOT NULL,
		frequency INTEGER NOT NULL,
		first_seen DATETIME NOT NULL,
		last_seen DATETIME NOT NULL,
		examples TEXT NOT NULL DEFAULT '[]',
		PRIMARY KEY(type, value)
	);

	CREATE INDEX IF NOT EXISTS idx_patterns_type_freq ON patterns(type, frequency);
	`
	_, err := s.conn.Exec(schema)
	return err
}
