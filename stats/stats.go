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
package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/golang/glog"
	"github.com/google/uuid"
	"github.com/hhatto/gocloc"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"naive.systems/cxxlint/atomic"
	"naive.systems/cxxlint/diagnostic"
)

// analysis stages
const (
	Collect int = iota // source discovery
	Analyze            // per-file analysis
	Report             // report writing
	END
)

type Progress struct {
	StageID   int       `json:"stage_id"`
	DoneRatio string    `json:"done_ratio"`
	StartedAt time.Time `json:"started_at"`
}

type SeverityCount struct {
	Error   int `json:"error"`
	Warning int `json:"warning"`
	Info    int `json:"info"`
}

// Summary describes one run of the analyzer.
type Summary struct {
	RunID      string         `json:"run_id"`
	Project    string         `json:"project,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	Duration   time.Duration  `json:"duration_ns"`
	Files      int            `json:"files"`
	LOC        int            `json:"loc"`
	Findings   int            `json:"findings"`
	Severity   SeverityCount  `json:"severity"`
	Categories map[string]int `json:"categories"`
	Rules      map[string]int `json:"rules"`
}

func NewRunID() string {
	return uuid.NewString()
}

// CountLines sums the code lines of the C and C++ files under paths.
func CountLines(paths []string) (int, error) {
	if len(paths) == 0 {
		return 0, nil
	}
	clocOpts := gocloc.NewClocOptions()
	languages := gocloc.NewDefinedLanguages()
	for _, lang := range []string{"C++", "C++ Header", "C Header"} {
		if _, exists := languages.Langs[lang]; exists {
			clocOpts.IncludeLangs[lang] = struct{}{}
		}
	}
	processor := gocloc.NewProcessor(languages, clocOpts)
	result, err := processor.Analyze(paths)
	if err != nil {
		return 0, fmt.Errorf("gocloc: %v", err)
	}
	sum := 0
	for _, file := range result.Files {
		sum += int(file.Code)
	}
	return sum, nil
}

func AccumulateBySeverity(cnt *SeverityCount, sev diagnostic.Severity, ruleID string) {
	switch sev {
	case diagnostic.Error:
		cnt.Error++
	case diagnostic.Warning:
		cnt.Warning++
	case diagnostic.Info:
		cnt.Info++
	default:
		glog.Warningf("undefined severity of result %s", ruleID)
	}
}

// Summarize counts the findings of set by severity, category and rule.
func Summarize(set *diagnostic.Set) Summary {
	s := Summary{
		Findings:   set.Len(),
		Categories: make(map[string]int),
		Rules:      make(map[string]int),
	}
	for _, f := range set.Findings {
		AccumulateBySeverity(&s.Severity, f.Severity, f.RuleID)
		s.Categories[f.Category]++
		s.Rules[f.RuleID]++
	}
	return s
}

// TopRules returns the n rules with the most findings, most first.
func (s *Summary) TopRules(n int) []string {
	ids := maps.Keys(s.Rules)
	slices.SortFunc(ids, func(a, b string) bool {
		if s.Rules[a] != s.Rules[b] {
			return s.Rules[a] > s.Rules[b]
		}
		return a < b
	})
	if n >= 0 && len(ids) > n {
		ids = ids[:n]
	}
	return ids
}

func WriteLOC(resultDir string, linesCounter int) {
	path := filepath.Join(resultDir, "loc.nsa_metadata")
	err := atomic.Write(path, []byte(strconv.Itoa(linesCounter)))
	if err != nil {
		glog.Errorf("failed to write to file %s: %v", path, err)
	}
}

func WriteProgress(resultDir string, stageID int, doneRatio string, startedAt time.Time) {
	// skip writing it if resultDir does not exist
	_, err := os.Stat(resultDir)
	if os.IsNotExist(err) {
		glog.Warningf("result dir %s does not exist", resultDir)
		return
	}
	path := filepath.Join(resultDir, "progress.nsa_metadata")
	progress, err := json.Marshal(Progress{StageID: stageID, DoneRatio: doneRatio, StartedAt: startedAt})
	if err != nil {
		glog.Errorf("failed to marshal json stageID %d and doneRatio %s: %v", stageID, doneRatio, err)
		return
	}
	err = atomic.Write(path, progress)
	if err != nil {
		glog.Errorf("failed to write to file %s: %v", path, err)
	}
}

func WriteSummary(resultDir string, summary Summary) {
	path := filepath.Join(resultDir, "severity_stats.nsa_metadata")
	if err := atomic.WriteJSON(path, summary.Severity); err != nil {
		glog.Errorf("failed to write to file %s: %v", path, err)
	}
	path = filepath.Join(resultDir, "summary.json")
	if err := atomic.WriteJSON(path, summary); err != nil {
		glog.Errorf("failed to write to file %s: %v", path, err)
	}
}
