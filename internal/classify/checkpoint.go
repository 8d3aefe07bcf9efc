package classify

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// Verdict is the stored model judgement for one statement.
type Verdict struct {
	Category  string
	Status    string
	Framework string
}

// Checkpoint persists verdicts keyed by exact statement text, so an
// interrupted classification run resumes without repeating paid calls.
type Checkpoint struct {
	db *sqlx.DB
}

const checkpointSchema = `
CREATE TABLE IF NOT EXISTS verdicts (
	statement     TEXT PRIMARY KEY,
	category      TEXT NOT NULL,
	status        TEXT NOT NULL,
	framework     TEXT NOT NULL,
	classified_at TEXT NOT NULL
);
`

func OpenCheckpoint(path string) (*Checkpoint, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open checkpoint: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(checkpointSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create checkpoint schema: %w", err)
	}
	return &Checkpoint{db: db}, nil
}

func (c *Checkpoint) Close() error {
	return c.db.Close()
}

// Get returns the stored verdict for a statement, if any.
func (c *Checkpoint) Get(statement string) (Verdict, bool, error) {
	var v Verdict
	err := c.db.QueryRow(
		"SELECT category, status, framework FROM verdicts WHERE statement = ?", statement,
	).Scan(&v.Category, &v.Status, &v.Framework)
	if err == sql.ErrNoRows {
		return Verdict{}, false, nil
	}
	if err != nil {
		return Verdict{}, false, err
	}
	return v, true, nil
}

// Put stores a verdict, replacing any earlier one for the same statement.
func (c *Checkpoint) Put(statement string, v Verdict) error {
	_, err := c.db.Exec(
		`INSERT OR REPLACE INTO verdicts (statement, category, status, framework, classified_at) VALUES (?, ?, ?, ?, ?)`,
		statement, v.Category, v.Status, v.Framework, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Count reports how many statements already carry a verdict.
func (c *Checkpoint) Count() (int, error) {
	var n int
	err := c.db.QueryRow("SELECT COUNT(*) FROM verdicts").Scan(&n)
	return n, err
}
