package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"ontarioseed/internal"
)

type DB struct {
	conn *sql.DB
}

type RunRow struct {
	ID                  int
	TraceID             string
	SourceURL           string
	HighSchoolCount     int
	CourseProviderCount int
	Timings             map[string]float64
	CreatedAt           string
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS high_schools (
  position INTEGER NOT NULL,
  id TEXT NOT NULL,
  name TEXT NOT NULL,
  streetAddress TEXT NOT NULL,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  country TEXT NOT NULL,
  postal TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_high_schools_id ON high_schools(id);

CREATE TABLE IF NOT EXISTS course_providers (
  position INTEGER NOT NULL,
  id TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  boardName TEXT NOT NULL,
  schoolSpecialConditions TEXT NOT NULL,
  streetAddress TEXT NOT NULL,
  city TEXT NOT NULL,
  state TEXT NOT NULL,
  country TEXT NOT NULL,
  postal TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  traceId TEXT NOT NULL,
  sourceUrl TEXT NOT NULL,
  highSchoolCount INTEGER NOT NULL,
  courseProviderCount INTEGER NOT NULL,
  timingsJson TEXT NOT NULL,
  createdAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS metadata (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updatedAt TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

	_, err := d.conn.Exec(schema)
	return err
}

// ReplaceSeeds swaps both seed tables for the given result in one
// transaction, keeping the sorted order in the position column.
func (d *DB) ReplaceSeeds(result internal.SeedResult) error {
	tx, err := d.conn.Begin()
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM high_schools`); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM course_providers`); err != nil {
		return err
	}

	hsStmt, err := tx.Prepare(`
INSERT INTO high_schools (position, id, name, streetAddress, city, state, country, postal)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer hsStmt.Close()

	for i, r := range result.HighSchools {
		if _, err := hsStmt.Exec(i, r.ID, r.Name, r.StreetAddress, r.City, r.State, r.Country, r.Postal); err != nil {
			return err
		}
	}

	cpStmt, err := tx.Prepare(`
INSERT INTO course_providers (
  position, id, name, boardName, schoolSpecialConditions,
  streetAddress, city, state, country, postal
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer cpStmt.Close()

	for i, r := range result.CourseProviders {
		if _, err := cpStmt.Exec(
			i, r.ID, r.Name, r.BoardName, r.SchoolSpecialConditions,
			r.StreetAddress, r.City, r.State, r.Country, r.Postal,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (d *DB) ListHighSchools() ([]internal.HighSchoolRecord, error) {
	rows, err := d.conn.Query(`
SELECT id, name, streetAddress, city, state, country, postal
FROM high_schools ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.HighSchoolRecord
	for rows.Next() {
		var r internal.HighSchoolRecord
		if err := rows.Scan(&r.ID, &r.Name, &r.StreetAddress, &r.City, &r.State, &r.Country, &r.Postal); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) ListCourseProviders() ([]internal.CourseProviderRecord, error) {
	rows, err := d.conn.Query(`
SELECT id, name, boardName, schoolSpecialConditions, streetAddress, city, state, country, postal
FROM course_providers ORDER BY position ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []internal.CourseProviderRecord
	for rows.Next() {
		var r internal.CourseProviderRecord
		if err := rows.Scan(
			&r.ID, &r.Name, &r.BoardName, &r.SchoolSpecialConditions,
			&r.StreetAddress, &r.City, &r.State, &r.Country, &r.Postal,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (d *DB) InsertRun(traceID, sourceURL string, highSchoolCount, courseProviderCount int, timings map[string]float64) error {
	timingsJSON, _ := json.Marshal(timings)
	_, err := d.conn.Exec(`
INSERT INTO runs (traceId, sourceUrl, highSchoolCount, courseProviderCount, timingsJson)
VALUES (?, ?, ?, ?, ?)`, traceID, sourceURL, highSchoolCount, courseProviderCount, string(timingsJSON))
	return err
}

func (d *DB) LatestRun() (*RunRow, error) {
	var row RunRow
	var timingsJSON string
	err := d.conn.QueryRow(`
SELECT id, traceId, sourceUrl, highSchoolCount, courseProviderCount, timingsJson, createdAt
FROM runs ORDER BY id DESC LIMIT 1`).Scan(
		&row.ID, &row.TraceID, &row.SourceURL, &row.HighSchoolCount, &row.CourseProviderCount, &timingsJSON, &row.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(timingsJSON), &row.Timings)
	return &row, nil
}

func (d *DB) SetMetadata(key, value string) error {
	_, err := d.conn.Exec(`
INSERT INTO metadata (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updatedAt = CURRENT_TIMESTAMP
`, key, value)
	return err
}

func (d *DB) GetMetadata(key string) (*string, error) {
	var value string
	err := d.conn.QueryRow(`SELECT value FROM metadata WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &value, nil
}
