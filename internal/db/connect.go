package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// Open opens a DB and ensures schema exists.
func Open(ctx context.Context, driver Driver, dsn string) (*sql.DB, error) {
	var drvName string
	switch driver {
	case DriverSQLite:
		drvName = "sqlite" // modernc driver
		if dsn == "" {
			dsn = "file:gradecalc.db?cache=shared&mode=rwc&_pragma=busy_timeout(5000)"
		}
	case DriverPostgres:
		drvName = "pgx" // pgx stdlib driver
		if dsn == "" {
			dsn = "postgres://localhost:5432/gradecalc?sslmode=disable"
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", driver)
	}

	db, err := sql.Open(drvName, dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	if err := ensureSchema(ctx, db, driver); err != nil {
		return nil, err
	}
	return db, nil
}

func ensureSchema(ctx context.Context, db *sql.DB, driver Driver) error {
	var schema string
	switch driver {
	case DriverSQLite:
		schema = schemaSQLite
	case DriverPostgres:
		schema = schemaPostgres
	}
	_, err := db.ExecContext(ctx, schema)
	return err
}

const schemaSQLite = `
PRAGMA foreign_keys=ON;

CREATE TABLE IF NOT EXISTS classes (
  id TEXT PRIMARY KEY,
  current_period_id TEXT NOT NULL,
  report_card_score_type_id INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS score_types (
  id INTEGER NOT NULL,
  kind TEXT NOT NULL,                       -- gradebook | reportcard
  max REAL NOT NULL,
  numeric_marks INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (kind, id)
);

CREATE TABLE IF NOT EXISTS score_type_details (
  kind TEXT NOT NULL,
  score_type_id INTEGER NOT NULL,
  seq INTEGER NOT NULL,
  score TEXT NOT NULL,
  value REAL NOT NULL DEFAULT 0,
  low_score REAL NOT NULL DEFAULT 0,
  high_score REAL NOT NULL DEFAULT 0,
  limit_pct_max REAL NOT NULL DEFAULT 0,
  limit_pct_method TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (kind, score_type_id, seq)
);

CREATE TABLE IF NOT EXISTS comment_codes (
  code TEXT PRIMARY KEY,
  comment TEXT NOT NULL DEFAULT '',
  is_missing_mark INTEGER NOT NULL DEFAULT 0,
  penalty_pct REAL,
  remove_when_scored INTEGER NOT NULL DEFAULT 0,
  assignment_value REAL,
  assignment_value_is_percent INTEGER NOT NULL DEFAULT 0,
  standards_value REAL,
  standards_value_is_percent INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS measure_types (
  class_id TEXT NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
  id TEXT NOT NULL,
  name TEXT NOT NULL,
  weight REAL NOT NULL DEFAULT 0,
  drop_scores INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (class_id, id)
);

CREATE TABLE IF NOT EXISTS assignments (
  class_id TEXT NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
  student_id TEXT NOT NULL,
  grade_book_id TEXT NOT NULL,
  measure_type_id TEXT NOT NULL,
  category_id INTEGER NOT NULL DEFAULT 1,
  score_type_id INTEGER NOT NULL DEFAULT 2,
  points_possible REAL NOT NULL DEFAULT 0,
  max_value REAL NOT NULL DEFAULT 0,
  score TEXT NOT NULL DEFAULT '',
  excused INTEGER NOT NULL DEFAULT 0,
  is_for_grading INTEGER NOT NULL DEFAULT 1,
  comment_code TEXT NOT NULL DEFAULT '',
  penalty_pct REAL NOT NULL DEFAULT 0,
  drop_state TEXT NOT NULL DEFAULT '',
  unit TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  week TEXT NOT NULL DEFAULT '',
  due_date INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (class_id, student_id, grade_book_id)
);

CREATE TABLE IF NOT EXISTS class_grades (
  class_id TEXT NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
  student_id TEXT NOT NULL,
  period_id TEXT NOT NULL,
  report_card_score_type_id INTEGER NOT NULL,
  assignment_count INTEGER NOT NULL DEFAULT 0,
  points REAL NOT NULL DEFAULT 0,
  points_possible REAL NOT NULL DEFAULT 0,
  total_weighted_pct REAL NOT NULL DEFAULT 0,
  total_assignment_weight REAL NOT NULL DEFAULT 0,
  incomplete_assignments INTEGER NOT NULL DEFAULT 0,
  force_use_weighting INTEGER NOT NULL DEFAULT 0,
  lock_score INTEGER NOT NULL DEFAULT 0,
  manual_mark TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (class_id, student_id, period_id)
);

CREATE TABLE IF NOT EXISTS term_weighting_rules (
  class_id TEXT NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
  calculated_period_id TEXT NOT NULL,
  child_period_id TEXT NOT NULL,
  weight REAL NOT NULL DEFAULT 0,
  PRIMARY KEY (class_id, calculated_period_id, child_period_id)
);

CREATE TABLE IF NOT EXISTS analysis_bands (
  class_id TEXT NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
  label TEXT NOT NULL,
  low REAL NOT NULL DEFAULT 0,
  high REAL NOT NULL DEFAULT 0,
  PRIMARY KEY (class_id, label)
);

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  role TEXT NOT NULL,
  pass_hash TEXT NOT NULL
);
`

const schemaPostgres = `
CREATE TABLE IF NOT EXISTS classes (
  id TEXT PRIMARY KEY,
  current_period_id TEXT NOT NULL,
  report_card_score_type_id INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS score_types (
  id INTEGER NOT NULL,
  kind TEXT NOT NULL,
  max DOUBLE PRECISION NOT NULL,
  numeric_marks BOOLEAN NOT NULL DEFAULT FALSE,
  PRIMARY KEY (kind, id)
);

CREATE TABLE IF NOT EXISTS score_type_details (
  kind TEXT NOT NULL,
  score_type_id INTEGER NOT NULL,
  seq INTEGER NOT NULL,
  score TEXT NOT NULL,
  value DOUBLE PRECISION NOT NULL DEFAULT 0,
  low_score DOUBLE PRECISION NOT NULL DEFAULT 0,
  high_score DOUBLE PRECISION NOT NULL DEFAULT 0,
  limit_pct_max DOUBLE PRECISION NOT NULL DEFAULT 0,
  limit_pct_method TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (kind, score_type_id, seq)
);

CREATE TABLE IF NOT EXISTS comment_codes (
  code TEXT PRIMARY KEY,
  comment TEXT NOT NULL DEFAULT '',
  is_missing_mark BOOLEAN NOT NULL DEFAULT FALSE,
  penalty_pct DOUBLE PRECISION,
  remove_when_scored BOOLEAN NOT NULL DEFAULT FALSE,
  assignment_value DOUBLE PRECISION,
  assignment_value_is_percent BOOLEAN NOT NULL DEFAULT FALSE,
  standards_value DOUBLE PRECISION,
  standards_value_is_percent BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS measure_types (
  class_id TEXT NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
  id TEXT NOT NULL,
  name TEXT NOT NULL,
  weight DOUBLE PRECISION NOT NULL DEFAULT 0,
  drop_scores INTEGER NOT NULL DEFAULT 0,
  PRIMARY KEY (class_id, id)
);

CREATE TABLE IF NOT EXISTS assignments (
  class_id TEXT NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
  student_id TEXT NOT NULL,
  grade_book_id TEXT NOT NULL,
  measure_type_id TEXT NOT NULL,
  category_id INTEGER NOT NULL DEFAULT 1,
  score_type_id INTEGER NOT NULL DEFAULT 2,
  points_possible DOUBLE PRECISION NOT NULL DEFAULT 0,
  max_value DOUBLE PRECISION NOT NULL DEFAULT 0,
  score TEXT NOT NULL DEFAULT '',
  excused BOOLEAN NOT NULL DEFAULT FALSE,
  is_for_grading BOOLEAN NOT NULL DEFAULT TRUE,
  comment_code TEXT NOT NULL DEFAULT '',
  penalty_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
  drop_state TEXT NOT NULL DEFAULT '',
  unit TEXT NOT NULL DEFAULT '',
  category TEXT NOT NULL DEFAULT '',
  week TEXT NOT NULL DEFAULT '',
  due_date BIGINT NOT NULL DEFAULT 0,
  PRIMARY KEY (class_id, student_id, grade_book_id)
);

CREATE TABLE IF NOT EXISTS class_grades (
  class_id TEXT NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
  student_id TEXT NOT NULL,
  period_id TEXT NOT NULL,
  report_card_score_type_id INTEGER NOT NULL,
  assignment_count INTEGER NOT NULL DEFAULT 0,
  points DOUBLE PRECISION NOT NULL DEFAULT 0,
  points_possible DOUBLE PRECISION NOT NULL DEFAULT 0,
  total_weighted_pct DOUBLE PRECISION NOT NULL DEFAULT 0,
  total_assignment_weight DOUBLE PRECISION NOT NULL DEFAULT 0,
  incomplete_assignments INTEGER NOT NULL DEFAULT 0,
  force_use_weighting BOOLEAN NOT NULL DEFAULT FALSE,
  lock_score BOOLEAN NOT NULL DEFAULT FALSE,
  manual_mark TEXT NOT NULL DEFAULT '',
  PRIMARY KEY (class_id, student_id, period_id)
);

CREATE TABLE IF NOT EXISTS term_weighting_rules (
  class_id TEXT NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
  calculated_period_id TEXT NOT NULL,
  child_period_id TEXT NOT NULL,
  weight DOUBLE PRECISION NOT NULL DEFAULT 0,
  PRIMARY KEY (class_id, calculated_period_id, child_period_id)
);

CREATE TABLE IF NOT EXISTS analysis_bands (
  class_id TEXT NOT NULL REFERENCES classes(id) ON DELETE CASCADE,
  label TEXT NOT NULL,
  low DOUBLE PRECISION NOT NULL DEFAULT 0,
  high DOUBLE PRECISION NOT NULL DEFAULT 0,
  PRIMARY KEY (class_id, label)
);

CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  username TEXT NOT NULL UNIQUE,
  role TEXT NOT NULL,
  pass_hash TEXT NOT NULL
);
`
