package store

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create leads",
		SQL: `
			CREATE TABLE leads (
				id          TEXT PRIMARY KEY,
				session_id  TEXT NOT NULL,
				request_id  INTEGER NOT NULL DEFAULT 0,
				context     TEXT NOT NULL DEFAULT '',
				message     TEXT NOT NULL DEFAULT '',
				reply       TEXT NOT NULL DEFAULT '',
				created_at  TEXT NOT NULL
			);

			CREATE UNIQUE INDEX idx_leads_request ON leads (session_id, request_id);
			CREATE INDEX idx_leads_created ON leads (created_at);
			CREATE INDEX idx_leads_context ON leads (context, created_at);
		`,
	},
	{
		Version: 2,
		Name:    "create leads full-text index",
		SQL: `
			CREATE VIRTUAL TABLE leads_fts USING fts5(
				message,
				reply,
				content='leads',
				content_rowid='rowid'
			);

			CREATE TRIGGER leads_ai AFTER INSERT ON leads BEGIN
				INSERT INTO leads_fts(rowid, message, reply)
				VALUES (new.rowid, new.message, new.reply);
			END;

			CREATE TRIGGER leads_ad AFTER DELETE ON leads BEGIN
				INSERT INTO leads_fts(leads_fts, rowid, message, reply)
				VALUES ('delete', old.rowid, old.message, old.reply);
			END;
		`,
	},
}
