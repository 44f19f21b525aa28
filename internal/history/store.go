// Package history persists served predictions.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/mcules/student-success/internal/student"
)

var ErrNotFound = errors.New("prediction not found")

// Entry is one stored prediction.
type Entry struct {
	ID            string         `json:"id"`
	CreatedAt     time.Time      `json:"created_at"`
	ModelVersion  string         `json:"model_version"`
	Outcome       string         `json:"outcome"`
	Label         string         `json:"label"`
	Class         int            `json:"class"`
	Classes       []string       `json:"classes"`
	Probabilities []float64      `json:"probabilities"`
	Inputs        student.Record `json:"inputs"`
	Alignment     string         `json:"alignment"`
	Fabricated    bool           `json:"fabricated"`
}

type Store struct {
	db       *sql.DB
	postgres bool
}

// Open connects to dsn. postgres:// and postgresql:// URLs use pgx; anything
// else is a SQLite file path.
func Open(dsn string) (*Store, error) {
	driver, postgres := "sqlite", false
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		driver, postgres = "pgx", true
	}
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if !postgres {
		db.SetMaxOpenConns(1)
	}
	db.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{db: db, postgres: postgres}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate history: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

var migrations = []string{`
CREATE TABLE IF NOT EXISTS predictions (
  id TEXT PRIMARY KEY,
  created_at BIGINT NOT NULL,
  model_version TEXT NOT NULL,
  outcome TEXT NOT NULL,
  label TEXT NOT NULL,
  class INTEGER NOT NULL,
  classes TEXT NOT NULL DEFAULT '[]',
  probabilities TEXT NOT NULL,
  inputs TEXT NOT NULL,
  alignment TEXT NOT NULL DEFAULT '',
  fabricated INTEGER NOT NULL DEFAULT 0
);`,
	`CREATE INDEX IF NOT EXISTS predictions_created_at ON predictions(created_at);`,
}

func (s *Store) migrate() error {
	for _, stmt := range migrations {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// rebind turns ? placeholders into $n for postgres.
func (s *Store) rebind(q string) string {
	if !s.postgres {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *Store) Save(ctx context.Context, e Entry) error {
	probs, err := json.Marshal(e.Probabilities)
	if err != nil {
		return err
	}
	classes, err := json.Marshal(e.Classes)
	if err != nil {
		return err
	}
	inputs, err := json.Marshal(e.Inputs)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`
INSERT INTO predictions(id, created_at, model_version, outcome, label, class, classes, probabilities, inputs, alignment, fabricated)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
`), e.ID, e.CreatedAt.UTC().UnixMicro(), e.ModelVersion, e.Outcome, e.Label, e.Class,
		string(classes), string(probs), string(inputs), e.Alignment, boolToInt(e.Fabricated))
	return err
}

const selectColumns = `SELECT id, created_at, model_version, outcome, label, class, classes, probabilities, inputs, alignment, fabricated FROM predictions`

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (Entry, error) {
	var (
		e              Entry
		created        int64
		classes        string
		probs, inputs  string
		fabricatedFlag int
	)
	if err := row.Scan(&e.ID, &created, &e.ModelVersion, &e.Outcome, &e.Label, &e.Class, &classes, &probs, &inputs, &e.Alignment, &fabricatedFlag); err != nil {
		return Entry{}, err
	}
	e.CreatedAt = time.UnixMicro(created).UTC()
	e.Fabricated = fabricatedFlag != 0
	if err := json.Unmarshal([]byte(classes), &e.Classes); err != nil {
		return Entry{}, fmt.Errorf("decode classes of %s: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(probs), &e.Probabilities); err != nil {
		return Entry{}, fmt.Errorf("decode probabilities of %s: %w", e.ID, err)
	}
	if err := json.Unmarshal([]byte(inputs), &e.Inputs); err != nil {
		return Entry{}, fmt.Errorf("decode inputs of %s: %w", e.ID, err)
	}
	return e, nil
}

func (s *Store) Get(ctx context.Context, id string) (Entry, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(selectColumns+" WHERE id=?;"), id)
	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e, err
}

// List returns the newest entries first. limit <= 0 returns everything.
func (s *Store) List(ctx context.Context, limit int) ([]Entry, error) {
	q := selectColumns + " ORDER BY created_at DESC, id DESC"
	var args []any
	if limit > 0 {
		q += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, s.rebind(q+";"), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM predictions;").Scan(&n)
	return n, err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
