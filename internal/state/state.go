package state

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/simon/jobmux/internal/mux"
)

const schema = `
CREATE TABLE IF NOT EXISTS transitions (
    id          INTEGER PRIMARY KEY AUTOINCREMENT,
    host        TEXT NOT NULL DEFAULT '',
    session     TEXT NOT NULL,
    window_name TEXT NOT NULL DEFAULT '',
    kind        TEXT NOT NULL,
    from_index  INTEGER NOT NULL DEFAULT 0,
    to_index    INTEGER NOT NULL DEFAULT 0,
    command     TEXT NOT NULL DEFAULT '',
    at          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS transitions_session ON transitions (host, session, id);
`

// at is stored as fixed-width UTC text so that string comparison orders it.
const timeLayout = "2006-01-02 15:04:05.000"

// Store wraps a SQLite journal of core transitions. It is a record for
// humans; nothing reads it back to make decisions.
type Store struct {
	db *sql.DB
}

// DefaultPath returns $XDG_STATE_HOME/jobmux/journal.db.
func DefaultPath() (string, error) {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		stateHome = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateHome, "jobmux", "journal.db"), nil
}

// Open creates or opens the journal at the default location.
func Open() (*Store, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return OpenPath(path)
}

// OpenPath creates or opens the journal at path.
func OpenPath(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// WAL mode for safe concurrent access from several controllers
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.Exec("PRAGMA busy_timeout=2000"); err != nil {
		db.Close()
		return nil, err
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record appends a transition.
func (s *Store) Record(t mux.Transition) error {
	at := t.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := s.db.Exec(`
		INSERT INTO transitions (host, session, window_name, kind, from_index, to_index, command, at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, t.Host, t.Session, t.Window, string(t.Kind), t.From, t.To, t.Command, at.UTC().Format(timeLayout))
	return err
}

// Reporter records every transition. Write failures go to onErr so that a
// broken journal never interrupts a tmux operation.
func (s *Store) Reporter(onErr func(error)) mux.Reporter {
	return mux.ReporterFunc(func(t mux.Transition) {
		if err := s.Record(t); err != nil && onErr != nil {
			onErr(err)
		}
	})
}

// Filter narrows History. Zero values match everything.
type Filter struct {
	Host    string
	Session string
	Window  string
	Limit   int
}

// History returns transitions, newest first.
func (s *Store) History(f Filter) ([]mux.Transition, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(`
		SELECT host, session, window_name, kind, from_index, to_index, command, at
		FROM transitions
		WHERE (? = '' OR host = ?)
		  AND (? = '' OR session = ?)
		  AND (? = '' OR window_name = ?)
		ORDER BY id DESC
		LIMIT ?
	`, f.Host, f.Host, f.Session, f.Session, f.Window, f.Window, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []mux.Transition
	for rows.Next() {
		var t mux.Transition
		var kind, at string
		if err := rows.Scan(&t.Host, &t.Session, &t.Window, &kind, &t.From, &t.To, &t.Command, &at); err != nil {
			return nil, err
		}
		t.Kind = mux.TransitionKind(kind)
		if t.At, err = time.Parse(timeLayout, at); err != nil {
			return nil, fmt.Errorf("journal entry has bad timestamp %q: %w", at, err)
		}
		result = append(result, t)
	}
	return result, rows.Err()
}

// Prune deletes transitions older than before and returns how many went.
func (s *Store) Prune(before time.Time) (int64, error) {
	res, err := s.db.Exec("DELETE FROM transitions WHERE at < ?", before.UTC().Format(timeLayout))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
