/*
NaiveSystems Analyze - A tool for static code analysis
Copyright (C) 2023  Naive Systems Ltd.

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/
// Package history keeps the statistics of past runs in a SQLite database so
// that trends and new findings can be reported across runs.
package history

import (
	"fmt"
	"time"

	"github.com/golang/glog"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"naive.systems/cxxlint/diagnostic"
	"naive.systems/cxxlint/stats"
)

const schemaVersion = 1

// fixed width so that timestamps sort as text
const timeLayout = "2006-01-02T15:04:05.000000000Z"

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	project TEXT NOT NULL,
	started_at TEXT NOT NULL,
	duration_seconds REAL NOT NULL,
	files INTEGER NOT NULL,
	loc INTEGER NOT NULL,
	findings INTEGER NOT NULL,
	errors INTEGER NOT NULL,
	warnings INTEGER NOT NULL,
	infos INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS rule_counts (
	run_id TEXT NOT NULL,
	rule_id TEXT NOT NULL,
	count INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS file_records (
	run_id TEXT NOT NULL,
	file_path TEXT NOT NULL,
	errors INTEGER NOT NULL,
	warnings INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS fingerprints (
	run_id TEXT NOT NULL,
	fingerprint TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS runs_project ON runs (project, started_at);
CREATE INDEX IF NOT EXISTS fingerprints_run ON fingerprints (run_id);
CREATE INDEX IF NOT EXISTS file_records_path ON file_records (file_path);
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER PRIMARY KEY
);
`

// Store is a run history database. It is not safe for concurrent use.
type Store struct {
	conn *sqlite.Conn
}

// FileRecord is the finding count of one file in one run.
type FileRecord struct {
	RunID     string
	StartedAt time.Time
	Path      string
	Errors    int
	Warnings  int
}

func Open(path string) (*Store, error) {
	conn, err := sqlite.OpenConn(path, sqlite.OpenCreate, sqlite.OpenReadWrite, sqlite.OpenWAL)
	if err != nil {
		return nil, fmt.Errorf("history.Open(%s): %v", path, err)
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("history.Open(%s): creating schema: %v", path, err)
	}
	s := &Store{conn: conn}
	version, err := s.version()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("history.Open(%s): %v", path, err)
	}
	switch {
	case version == 0:
		err = sqlitex.ExecuteTransient(conn, "INSERT INTO schema_version (version) VALUES (?)",
			&sqlitex.ExecOptions{Args: []any{schemaVersion}})
	case version > schemaVersion:
		err = fmt.Errorf("schema version %d is newer than %d", version, schemaVersion)
	}
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("history.Open(%s): %v", path, err)
	}
	glog.V(1).Infof("history database %s opened", path)
	return s, nil
}

func (s *Store) Close() error {
	return s.conn.Close()
}

func (s *Store) version() (int, error) {
	version := 0
	err := sqlitex.ExecuteTransient(s.conn, "SELECT MAX(version) FROM schema_version", &sqlitex.ExecOptions{
		ResultFunc: func(stmt *sqlite.Stmt) error {
			version = stmt.ColumnInt(0)
			return nil
		},
	})
	return version, err
}

// Record stores a run: its summary, the per-file counts and the
// fingerprints of its findings.
func (s *Store) Record(summary stats.Summary, set *diagnostic.Set) (err error) {
	endFn, err := sqlitex.ImmediateTransaction(s.conn)
	if err != nil {
		return fmt.Errorf("begin transaction: %v", err)
	}
	defer endFn(&err)

	err = sqlitex.ExecuteTransient(s.conn,
		`INSERT INTO runs (id, project, started_at, duration_seconds, files, loc, findings, errors, warnings, infos)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{
			summary.RunID, summary.Project, summary.StartedAt.UTC().Format(timeLayout),
			summary.Duration.Seconds(), summary.Files, summary.LOC, summary.Findings,
			summary.Severity.Error, summary.Severity.Warning, summary.Severity.Info,
		}})
	if err != nil {
		return fmt.Errorf("insert run %s: %v", summary.RunID, err)
	}
	for rule, count := range summary.Rules {
		err = sqlitex.ExecuteTransient(s.conn, "INSERT INTO rule_counts (run_id, rule_id, count) VALUES (?, ?, ?)",
			&sqlitex.ExecOptions{Args: []any{summary.RunID, rule, count}})
		if err != nil {
			return fmt.Errorf("insert rule count %s: %v", rule, err)
		}
	}
	for _, file := range perFile(set) {
		err = sqlitex.ExecuteTransient(s.conn, "INSERT INTO file_records (run_id, file_path, errors, warnings) VALUES (?, ?, ?, ?)",
			&sqlitex.ExecOptions{Args: []any{summary.RunID, file.Path, file.Errors, file.Warnings}})
		if err != nil {
			return fmt.Errorf("insert file record %s: %v", file.Path, err)
		}
	}
	for i := range set.Findings {
		err = sqlitex.ExecuteTransient(s.conn, "INSERT INTO fingerprints (run_id, fingerprint) VALUES (?, ?)",
			&sqlitex.ExecOptions{Args: []any{summary.RunID, set.Findings[i].Fingerprint()}})
		if err != nil {
			return fmt.Errorf("insert fingerprint: %v", err)
		}
	}
	return nil
}

// perFile counts errors and warnings per file in set order.
func perFile(set *diagnostic.Set) []FileRecord {
	var records []FileRecord
	index := make(map[string]int)
	for _, f := range set.Findings {
		if f.File == "" {
			continue
		}
		i, ok := index[f.File]
		if !ok {
			i = len(records)
			index[f.File] = i
			records = append(records, FileRecord{Path: f.File})
		}
		switch f.Severity {
		case diagnostic.Error:
			records[i].Errors++
		case diagnostic.Warning:
			records[i].Warnings++
		}
	}
	return records
}

const runColumns = "id, project, started_at, duration_seconds, files, loc, findings, errors, warnings, infos"

func scanRun(stmt *sqlite.Stmt) (stats.Summary, error) {
	startedAt, err := time.Parse(timeLayout, stmt.ColumnText(2))
	if err != nil {
		return stats.Summary{}, fmt.Errorf("run %s: %v", stmt.ColumnText(0), err)
	}
	return stats.Summary{
		RunID:     stmt.ColumnText(0),
		Project:   stmt.ColumnText(1),
		StartedAt: startedAt,
		Duration:  time.Duration(stmt.ColumnFloat(3) * float64(time.Second)),
		Files:     stmt.ColumnInt(4),
		LOC:       stmt.ColumnInt(5),
		Findings:  stmt.ColumnInt(6),
		Severity: stats.SeverityCount{
			Error:   stmt.ColumnInt(7),
			Warning: stmt.ColumnInt(8),
			Info:    stmt.ColumnInt(9),
		},
	}, nil
}

// Runs returns the latest runs of project, newest first. Rule counts are
// filled in; categories are not stored.
func (s *Store) Runs(project string, limit int) ([]stats.Summary, error) {
	var runs []stats.Summary
	err := sqlitex.ExecuteTransient(s.conn,
		"SELECT "+runColumns+" FROM runs WHERE project = ? ORDER BY started_at DESC LIMIT ?",
		&sqlitex.ExecOptions{
			Args: []any{project, limit},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				run, err := scanRun(stmt)
				if err != nil {
					return err
				}
				runs = append(runs, run)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("query runs of %q: %v", project, err)
	}
	for i := range runs {
		if runs[i].Rules, err = s.ruleCounts(runs[i].RunID); err != nil {
			return nil, err
		}
	}
	return runs, nil
}

// Latest returns the newest run of project.
func (s *Store) Latest(project string) (stats.Summary, bool, error) {
	runs, err := s.Runs(project, 1)
	if err != nil || len(runs) == 0 {
		return stats.Summary{}, false, err
	}
	return runs[0], true, nil
}

func (s *Store) ruleCounts(runID string) (map[string]int, error) {
	counts := make(map[string]int)
	err := sqlitex.ExecuteTransient(s.conn, "SELECT rule_id, count FROM rule_counts WHERE run_id = ?",
		&sqlitex.ExecOptions{
			Args: []any{runID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				counts[stmt.ColumnText(0)] = stmt.ColumnInt(1)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("query rule counts of %s: %v", runID, err)
	}
	return counts, nil
}

// Fingerprints returns the finding fingerprints recorded for a run.
func (s *Store) Fingerprints(runID string) (map[string]bool, error) {
	known := make(map[string]bool)
	err := sqlitex.ExecuteTransient(s.conn, "SELECT fingerprint FROM fingerprints WHERE run_id = ?",
		&sqlitex.ExecOptions{
			Args: []any{runID},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				known[stmt.ColumnText(0)] = true
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("query fingerprints of %s: %v", runID, err)
	}
	return known, nil
}

// NewSince returns the findings of set whose fingerprints the run did not
// record.
func (s *Store) NewSince(runID string, set *diagnostic.Set) (*diagnostic.Set, error) {
	known, err := s.Fingerprints(runID)
	if err != nil {
		return nil, err
	}
	return set.Filter(func(f *diagnostic.Finding) bool {
		return !known[f.Fingerprint()]
	}), nil
}

// FileHistory returns the counts recorded for a file, newest first.
func (s *Store) FileHistory(path string, limit int) ([]FileRecord, error) {
	var records []FileRecord
	err := sqlitex.ExecuteTransient(s.conn,
		`SELECT f.run_id, r.started_at, f.file_path, f.errors, f.warnings
		 FROM file_records f JOIN runs r ON f.run_id = r.id
		 WHERE f.file_path = ?
		 ORDER BY r.started_at DESC
		 LIMIT ?`,
		&sqlitex.ExecOptions{
			Args: []any{path, limit},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				startedAt, err := time.Parse(timeLayout, stmt.ColumnText(1))
				if err != nil {
					return err
				}
				records = append(records, FileRecord{
					RunID:     stmt.ColumnText(0),
					StartedAt: startedAt,
					Path:      stmt.ColumnText(2),
					Errors:    stmt.ColumnInt(3),
					Warnings:  stmt.ColumnInt(4),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("query history of %s: %v", path, err)
	}
	return records, nil
}

// DeleteRunsBefore removes the runs started before cutoff with everything
// recorded for them, and returns how many runs were removed.
func (s *Store) DeleteRunsBefore(cutoff time.Time) (n int, err error) {
	endFn, err := sqlitex.ImmediateTransaction(s.conn)
	if err != nil {
		return 0, fmt.Errorf("begin transaction: %v", err)
	}
	defer endFn(&err)
	arg := cutoff.UTC().Format(timeLayout)
	for _, table := range []string{"rule_counts", "file_records", "fingerprints"} {
		err = sqlitex.ExecuteTransient(s.conn,
			"DELETE FROM "+table+" WHERE run_id IN (SELECT id FROM runs WHERE started_at < ?)",
			&sqlitex.ExecOptions{Args: []any{arg}})
		if err != nil {
			return 0, fmt.Errorf("delete from %s: %v", table, err)
		}
	}
	err = sqlitex.ExecuteTransient(s.conn, "DELETE FROM runs WHERE started_at < ?", &sqlitex.ExecOptions{Args: []any{arg}})
	if err != nil {
		return 0, fmt.Errorf("delete runs: %v", err)
	}
	return s.conn.Changes(), nil
}
