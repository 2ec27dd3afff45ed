// Package symbols keeps the symbol occurrences of open documents in an
// in-memory SQLite database. Nothing is written to disk; the database lives
// as long as the Store.
package symbols

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	"agatypes/internal/engine/types"

	_ "modernc.org/sqlite"
)

const driverName = "sqlite"

// Occurrence is one token of a file as the symbol table sees it.
type Occurrence struct {
	File       string
	Definition types.Position
	Location   types.Location
	Kind       types.TokenKind
	Label      string
}

type Store struct {
	name string
	db   *sql.DB
	mu   sync.Mutex

	referencesStmt *sql.Stmt
	firstStmt      *sql.Stmt
}

// Open creates a named in-memory database. Stores opened with the same name
// in one process share data, so callers pick a unique name per session.
func Open(name string) (*Store, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("symbol store name must not be empty")
	}

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open in-memory symbol store %q: %w", name, err)
	}
	// A single connection that never expires keeps the memory database alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping symbol store %q: %w", name, err)
	}
	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	referencesStmt, err := db.Prepare(`SELECT
  file_path, def_line, def_column, start_line, start_col, end_line, end_col, kind, label
FROM occurrences
WHERE file_path = ? AND def_line = ? AND def_column = ?
ORDER BY start_line, start_col, seq`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare references stmt: %w", err)
	}

	firstStmt, err := db.Prepare(`SELECT
  o.file_path, o.def_line, o.def_column, o.start_line, o.start_col, o.end_line, o.end_col, o.kind, o.label
FROM occurrences o
WHERE o.file_path = ? AND o.label <> '' AND o.seq = (
  SELECT MIN(i.seq) FROM occurrences i WHERE i.file_path = o.file_path AND i.label = o.label
)
ORDER BY o.seq`)
	if err != nil {
		_ = referencesStmt.Close()
		_ = db.Close()
		return nil, fmt.Errorf("prepare first occurrences stmt: %w", err)
	}

	return &Store{
		name:           name,
		db:             db,
		referencesStmt: referencesStmt,
		firstStmt:      firstStmt,
	}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	_ = s.referencesStmt.Close()
	_ = s.firstStmt.Close()
	return s.db.Close()
}

// ReplaceFile swaps all occurrences of file in one transaction. Order of
// occurrences is kept as their sequence.
func (s *Store) ReplaceFile(ctx context.Context, file string, occurrences []Occurrence) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace %q: %w", file, err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM occurrences WHERE file_path = ?`, file); err != nil {
		return fmt.Errorf("clear occurrences of %q: %w", file, err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO occurrences (
  file_path, seq, def_line, def_column, start_line, start_col, end_line, end_col, kind, label
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, occ := range occurrences {
		if _, err := stmt.ExecContext(ctx,
			file,
			i,
			occ.Definition.Line,
			occ.Definition.Column,
			occ.Location.Start.Line,
			occ.Location.Start.Column,
			occ.Location.End.Line,
			occ.Location.End.Column,
			string(occ.Kind),
			occ.Label,
		); err != nil {
			return fmt.Errorf("insert occurrence %d of %q: %w", i, file, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace %q: %w", file, err)
	}
	return nil
}

func (s *Store) DeleteFile(ctx context.Context, file string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.db.ExecContext(ctx, `DELETE FROM occurrences WHERE file_path = ?`, file); err != nil {
		return fmt.Errorf("delete occurrences of %q: %w", file, err)
	}
	return nil
}

// References returns every occurrence in file bound to definition, ordered by
// location.
func (s *Store) References(ctx context.Context, file string, definition types.Position) ([]Occurrence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.referencesStmt.QueryContext(ctx, file, definition.Line, definition.Column)
	if err != nil {
		return nil, fmt.Errorf("query references in %q: %w", file, err)
	}
	return scanOccurrences(rows)
}

// FirstOccurrences returns the first occurrence of each distinct non-empty
// label in file, in token order.
func (s *Store) FirstOccurrences(ctx context.Context, file string) ([]Occurrence, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, err := s.firstStmt.QueryContext(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("query labels in %q: %w", file, err)
	}
	return scanOccurrences(rows)
}

func scanOccurrences(rows *sql.Rows) ([]Occurrence, error) {
	defer rows.Close()
	out := make([]Occurrence, 0)
	for rows.Next() {
		var (
			occ  Occurrence
			kind string
		)
		if err := rows.Scan(
			&occ.File,
			&occ.Definition.Line,
			&occ.Definition.Column,
			&occ.Location.Start.Line,
			&occ.Location.Start.Column,
			&occ.Location.End.Line,
			&occ.Location.End.Column,
			&kind,
			&occ.Label,
		); err != nil {
			return nil, fmt.Errorf("scan occurrence row: %w", err)
		}
		occ.Kind = types.TokenKind(kind)
		out = append(out, occ)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate occurrence rows: %w", err)
	}
	return out, nil
}
