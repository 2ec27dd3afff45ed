package symbols

import (
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS occurrences (
  file_path   TEXT    NOT NULL,
  seq         INTEGER NOT NULL,
  def_line    INTEGER NOT NULL,
  def_column  INTEGER NOT NULL,
  start_line  INTEGER NOT NULL,
  start_col   INTEGER NOT NULL,
  end_line    INTEGER NOT NULL,
  end_col     INTEGER NOT NULL,
  kind        TEXT    NOT NULL,
  label       TEXT    NOT NULL,
  PRIMARY KEY (file_path, seq)
);
CREATE INDEX IF NOT EXISTS idx_occurrences_definition ON occurrences(file_path, def_line, def_column);
CREATE INDEX IF NOT EXISTS idx_occurrences_label ON occurrences(file_path, label, seq);
`

func ensureSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create symbol schema: %w", err)
	}
	return nil
}
