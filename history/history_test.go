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
package history

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"naive.systems/cxxlint/diagnostic"
	"naive.systems/cxxlint/stats"
)

func finding(file, rule string, sev diagnostic.Severity, line int) diagnostic.Finding {
	f := diagnostic.Finding{RuleID: rule, Code: "CXX0000", Category: "defect", Severity: sev, File: file, Message: "m"}
	f.Span.Start.Line, f.Span.Start.Column = line, 1
	f.Span.End = f.Span.Start
	return f
}

func summary(set *diagnostic.Set, id string, startedAt time.Time) stats.Summary {
	s := stats.Summarize(set)
	s.RunID = id
	s.Project = "demo"
	s.StartedAt = startedAt
	s.Duration = 1500 * time.Millisecond
	s.Files = 2
	s.LOC = 40
	return s
}

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestRecordAndQuery(t *testing.T) {
	store := openStore(t)
	day1 := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
	day2 := day1.Add(24 * time.Hour)
	first := diagnostic.Aggregate([]diagnostic.Finding{
		finding("a.cpp", "NullDereference", diagnostic.Error, 3),
		finding("a.cpp", "LineLength", diagnostic.Warning, 7),
	})
	second := diagnostic.Aggregate([]diagnostic.Finding{
		finding("a.cpp", "NullDereference", diagnostic.Error, 3),
		finding("b.cpp", "DoubleFree", diagnostic.Error, 9),
	})
	if err := store.Record(summary(first, "run-1", day1), first); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Record(summary(second, "run-2", day2), second); err != nil {
		t.Fatalf("Record: %v", err)
	}

	runs, err := store.Runs("demo", 10)
	if err != nil {
		t.Fatalf("Runs: %v", err)
	}
	var ids []string
	for _, run := range runs {
		ids = append(ids, run.RunID)
	}
	if !reflect.DeepEqual(ids, []string{"run-2", "run-1"}) {
		t.Fatalf("unexpected result for run order. got: %v. expected: [run-2 run-1].", ids)
	}
	latest := runs[0]
	if !latest.StartedAt.Equal(day2) || latest.Duration != 1500*time.Millisecond || latest.Severity.Error != 2 || latest.LOC != 40 {
		t.Errorf("unexpected result for latest run. got: %+v. expected: run-2 with 2 errors.", latest)
	}
	if expected := map[string]int{"NullDereference": 1, "DoubleFree": 1}; !reflect.DeepEqual(latest.Rules, expected) {
		t.Errorf("unexpected result for rule counts. got: %v. expected: %v.", latest.Rules, expected)
	}

	fresh, err := store.NewSince("run-1", second)
	if err != nil {
		t.Fatalf("NewSince: %v", err)
	}
	if fresh.Len() != 1 || fresh.Findings[0].RuleID != "DoubleFree" {
		t.Errorf("unexpected result for new findings. got: %v. expected: [DoubleFree].", fresh.Findings)
	}

	records, err := store.FileHistory("a.cpp", 10)
	if err != nil {
		t.Fatalf("FileHistory: %v", err)
	}
	if len(records) != 2 || records[0].RunID != "run-2" || records[0].Errors != 1 || records[1].Warnings != 1 {
		t.Errorf("unexpected result for a.cpp history. got: %+v. expected: run-2 then run-1.", records)
	}

	n, err := store.DeleteRunsBefore(day2)
	if err != nil {
		t.Fatalf("DeleteRunsBefore: %v", err)
	}
	if n != 1 {
		t.Errorf("unexpected result for deleted runs. got: %v. expected: 1.", n)
	}
	if latest, ok, err := store.Latest("demo"); err != nil || !ok || latest.RunID != "run-2" {
		t.Errorf("unexpected result for latest after delete. got: %v %v %v. expected: run-2.", latest.RunID, ok, err)
	}
	if known, err := store.Fingerprints("run-1"); err != nil || len(known) != 0 {
		t.Errorf("unexpected result for deleted fingerprints. got: %v %v. expected: none.", known, err)
	}
}

func TestLatestEmpty(t *testing.T) {
	store := openStore(t)
	if _, ok, err := store.Latest("nothing"); ok || err != nil {
		t.Errorf("unexpected result for empty history. got: %v %v. expected: false <nil>.", ok, err)
	}
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	for i := 0; i < 2; i++ {
		store, err := Open(path)
		if err != nil {
			t.Fatalf("Open #%d: %v", i, err)
		}
		if v, err := store.version(); err != nil || v != schemaVersion {
			t.Errorf("unexpected result for schema version. got: %v %v. expected: %v.", v, err, schemaVersion)
		}
		store.Close()
	}
}
