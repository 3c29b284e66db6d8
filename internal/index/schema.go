package index

// pages_fts holds one row per record page. Only content is tokenized; the
// other columns are stored for display and lookups.
const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id              INTEGER PRIMARY KEY,
	title           TEXT NOT NULL,
	pdf_path        TEXT NOT NULL UNIQUE,
	source_path     TEXT NOT NULL DEFAULT '',
	extraction_date TEXT NOT NULL,
	total_pages     INTEGER NOT NULL,
	text_pages      INTEGER NOT NULL,
	indexed_at      INTEGER NOT NULL
);

CREATE VIRTUAL TABLE IF NOT EXISTS pages_fts USING fts5(
	content,
	title UNINDEXED,
	pdf_path UNINDEXED,
	page_number UNINDEXED,
	tokenize='unicode61 remove_diacritics 2'
);
`

// dsnPragmas are applied by the driver to every new connection.
const dsnPragmas = "?_pragma=foreign_keys(1)" +
	"&_pragma=journal_mode(WAL)" +
	"&_pragma=busy_timeout(10000)" +
	"&_pragma=synchronous(NORMAL)"
