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
package main

import (
	"context"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/golang/glog"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
	"golang.org/x/text/message"

	"naive.systems/cxxlint/atomic"
	"naive.systems/cxxlint/basic"
	"naive.systems/cxxlint/diagnostic"
	"naive.systems/cxxlint/diff"
	"naive.systems/cxxlint/engine"
	"naive.systems/cxxlint/filter"
	"naive.systems/cxxlint/history"
	"naive.systems/cxxlint/i18n"
	"naive.systems/cxxlint/options"
	"naive.systems/cxxlint/rules/builtin"
	"naive.systems/cxxlint/runner"
	"naive.systems/cxxlint/stats"
)

// collectTasks lists the C++ files under srcDir. Task names are relative to
// srcDir with forward slashes, so ignore patterns and diffs match them.
func collectTasks(srcDir string, ignore []string) ([]runner.Task, []string, error) {
	info, err := os.Stat(srcDir)
	if err != nil {
		return nil, nil, err
	}
	if !info.IsDir() {
		return []runner.Task{{Name: filepath.ToSlash(filepath.Base(srcDir)), Path: srcDir}}, []string{srcDir}, nil
	}
	var tasks []runner.Task
	var paths []string
	err = filepath.WalkDir(srcDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			glog.Warningf("failed to walk %s: %v", path, err)
			return nil
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d.IsDir() {
			if rel != "." && filter.MatchAny(ignore, rel) {
				glog.Infof("Directory %s ignored", rel)
				return filepath.SkipDir
			}
			return nil
		}
		if !filter.IsCppFile(path) {
			return nil
		}
		tasks = append(tasks, runner.Task{Name: rel, Path: path})
		paths = append(paths, path)
		return nil
	})
	return tasks, paths, err
}

func showResults(set *diagnostic.Set) {
	for i := range set.Findings {
		fmt.Println(set.Findings[i].String())
	}
}

func showResultsCount(set *diagnostic.Set, printer *message.Printer) {
	byCategory := set.ByCategory()
	categories := maps.Keys(byCategory)
	slices.Sort(categories)
	for _, category := range categories {
		fmt.Println(printer.Sprintf("%s: %d finding(s)", category, len(byCategory[category])))
	}
}

func recordHistory(path string, summary stats.Summary, set *diagnostic.Set, printer *message.Printer) error {
	store, err := history.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()
	prev, ok, err := store.Latest(summary.Project)
	if err != nil {
		return err
	}
	if err := store.Record(summary, set); err != nil {
		return err
	}
	if ok {
		fresh, err := store.NewSince(prev.RunID, set)
		if err != nil {
			return err
		}
		basic.PrintfWithTimeStamp("%s", printer.Sprintf("%d new finding(s) since run %s", fresh.Len(), prev.RunID))
	}
	return nil
}

func main() {
	sharedOptions := options.NewSharedOptions()
	flag.Parse()
	defer glog.Flush()

	// Do not call any logging functions of glog before this part.
	resultsDir := sharedOptions.GetResultsDir()
	logDir := flag.Lookup("log_dir")
	if logDir.Value.String() == "" {
		err := flag.Set("log_dir", filepath.Join(resultsDir, "logs"))
		if err != nil {
			glog.Fatalf("failed to set default log_dir: %v", err)
		}
	}
	if err := os.MkdirAll(logDir.Value.String(), os.ModePerm); err != nil {
		glog.Fatalf("failed to create log dir: %v", err)
	}
	if err := os.MkdirAll(resultsDir, os.ModePerm); err != nil {
		glog.Fatalf("failed to create result dir: %v", err)
	}
	if !sharedOptions.GetDebugMode() {
		err := flag.Set("stderrthreshold", "FATAL")
		if err != nil {
			glog.Fatalf("failed to set default stderrthreshold: %v", err)
		}
	}

	fmt.Println("(c) 2023 Naive Systems Ltd.")

	config, err := sharedOptions.Config()
	if err != nil {
		glog.Fatalf("sharedOptions.Config: %v", err)
	}
	printer := i18n.GetPrinter(config.Lang)
	glog.Info("config: ", config)

	startedAt := time.Now()
	if sharedOptions.GetCheckProgress() {
		stats.WriteProgress(resultsDir, stats.Collect, "0%", startedAt)
	}
	tasks, paths, err := collectTasks(sharedOptions.GetSrcDir(), config.IgnorePatterns)
	if err != nil {
		glog.Fatalf("collectTasks(%s): %v", sharedOptions.GetSrcDir(), err)
	}

	e, err := engine.New(config, builtin.NewRegistry())
	if err != nil {
		glog.Fatalf("engine.New: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	result, err := runner.Run(ctx, e, tasks, runner.Options{
		Workers:      config.Workers,
		ShowProgress: sharedOptions.GetCheckProgress(),
		ResultsDir:   resultsDir,
	})
	if err != nil {
		glog.Fatalf("runner.Run: %v", err)
	}
	set := result.Set

	if sharedOptions.GetDiffPath() != "" {
		content, err := os.ReadFile(sharedOptions.GetDiffPath())
		if err != nil {
			glog.Fatalf("failed to read diff: %v", err)
		}
		patch, err := diff.Parse(string(content))
		if err != nil {
			glog.Fatalf("diff.Parse(%s): %v", sharedOptions.GetDiffPath(), err)
		}
		set = filter.KeepChanged(set, patch)
	}

	if sharedOptions.GetCheckProgress() {
		stats.WriteProgress(resultsDir, stats.Report, "0%", startedAt)
	}
	resultsPath := filepath.Join(resultsDir, "nsa_results.json")
	if err := atomic.WriteJSON(resultsPath, set.Records()); err != nil {
		glog.Fatalf("failed to write results to %s: %v", resultsPath, err)
	}

	loc, err := stats.CountLines(paths)
	if err != nil {
		glog.Errorf("stats.CountLines: %v", err)
	}
	summary := stats.Summarize(set)
	summary.RunID = stats.NewRunID()
	summary.Project = sharedOptions.GetProjectName()
	summary.StartedAt = startedAt
	summary.Duration = time.Since(startedAt)
	summary.Files = result.Analyzed
	summary.LOC = loc
	stats.WriteSummary(resultsDir, summary)
	stats.WriteLOC(resultsDir, loc)

	if db := sharedOptions.GetHistoryDB(); db != "" {
		if err := recordHistory(db, summary, set, printer); err != nil {
			glog.Errorf("failed to record history in %s: %v", db, err)
		}
	}
	if sharedOptions.GetCheckProgress() {
		stats.WriteProgress(resultsDir, stats.END, "100%", startedAt)
	}

	if sharedOptions.GetShowResults() {
		showResults(set)
	}
	if sharedOptions.GetShowResultsCount() {
		showResultsCount(set, printer)
	}
	basic.PrintfWithTimeStamp("%s", printer.Sprintf("Analysis completed: %d finding(s) in %d file(s)", set.Len(), result.Analyzed))
}
