package store

// runMigrations executes all database migrations.
func (s *Store) runMigrations() error {
	migrations := []string{
		// One row per tracking session (app start to stop)
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			initial_mode TEXT NOT NULL,
			started_at DATETIME NOT NULL,
			ended_at DATETIME,
			frames INTEGER NOT NULL DEFAULT 0,
			detected_frames INTEGER NOT NULL DEFAULT 0
		)`,

		// Mode change history, from gestures or manual overrides
		`CREATE TABLE IF NOT EXISTS mode_transitions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
			from_mode TEXT NOT NULL,
			to_mode TEXT NOT NULL,
			source TEXT NOT NULL CHECK(source IN ('gesture', 'manual')),
			at DATETIME NOT NULL
		)`,

		// Trigger to plugin action bindings
		`CREATE TABLE IF NOT EXISTS bindings (
			id TEXT PRIMARY KEY,
			trigger_name TEXT NOT NULL,
			plugin_name TEXT NOT NULL,
			action_name TEXT NOT NULL,
			config TEXT NOT NULL DEFAULT '{}',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,

		// Application settings as key-value pairs
		`CREATE TABLE IF NOT EXISTS settings (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS idx_mode_transitions_session_id ON mode_transitions(session_id)`,
		`CREATE INDEX IF NOT EXISTS idx_bindings_trigger ON bindings(trigger_name)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return err
		}
	}

	return nil
}
