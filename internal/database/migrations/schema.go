package migrations

// All returns the ordered list of schema migrations. Each delta is applied
// at most once, in a transaction, tracked in the migrations table.
func All() []Migration {
	return []Migration{
		{
			Version: 1,
			Up: `
				CREATE TABLE IF NOT EXISTS companies (
					id TEXT PRIMARY KEY,
					name TEXT NOT NULL,
					metadata TEXT,
					created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
				);
			`,
			Down: `DROP TABLE companies;`,
		},
		{
			Version: 2,
			Up: `
				CREATE TABLE IF NOT EXISTS snapshots (
					id TEXT PRIMARY KEY,
					company_id TEXT NOT NULL REFERENCES companies(id),
					kind TEXT NOT NULL,
					url TEXT NOT NULL,
					captured_at DATETIME NOT NULL,
					content_hash TEXT NOT NULL,
					raw_html TEXT NOT NULL,
					extracted TEXT,
					is_change BOOLEAN NOT NULL DEFAULT 0
				);
				CREATE INDEX IF NOT EXISTS idx_snapshots_pair
					ON snapshots(company_id, kind, url, captured_at);
				CREATE INDEX IF NOT EXISTS idx_snapshots_changes
					ON snapshots(is_change, captured_at);
			`,
			Down: `DROP TABLE snapshots;`,
		},
		{
			Version: 3,
			Up: `
				CREATE TABLE IF NOT EXISTS signals (
					id TEXT PRIMARY KEY,
					company_id TEXT NOT NULL REFERENCES companies(id),
					source TEXT NOT NULL,
					source_id TEXT NOT NULL,
					captured_at DATETIME NOT NULL,
					content TEXT NOT NULL,
					url TEXT,
					sentiment DECIMAL(4,3),
					keywords_matched TEXT,
					score INTEGER,
					comment_count INTEGER
				);
				CREATE UNIQUE INDEX IF NOT EXISTS idx_signals_source_id
					ON signals(source, source_id);
				CREATE INDEX IF NOT EXISTS idx_signals_captured
					ON signals(captured_at);
			`,
			Down: `DROP TABLE signals;`,
		},
		{
			Version: 4,
			Up: `
				CREATE TABLE IF NOT EXISTS financial_events (
					id TEXT PRIMARY KEY,
					company_id TEXT NOT NULL REFERENCES companies(id),
					event_date DATETIME NOT NULL,
					event_type TEXT NOT NULL,
					amount DECIMAL(14,2),
					valuation DECIMAL(14,2),
					source_url TEXT,
					notes TEXT
				);
				CREATE INDEX IF NOT EXISTS idx_events_date
					ON financial_events(event_date);
			`,
			Down: `DROP TABLE financial_events;`,
		},
		{
			Version: 5,
			Up: `
				CREATE TABLE IF NOT EXISTS weekly_reports (
					id TEXT PRIMARY KEY,
					week_start DATETIME NOT NULL UNIQUE,
					week_end DATETIME NOT NULL,
					generated_at DATETIME NOT NULL,
					pricing_changes INTEGER NOT NULL DEFAULT 0,
					docs_changes INTEGER NOT NULL DEFAULT 0,
					signal_volume TEXT,
					avg_sentiment DECIMAL(5,3),
					key_events TEXT
				);
			`,
			Down: `DROP TABLE weekly_reports;`,
		},
	}
}
