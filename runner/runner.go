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
// Package runner analyzes many translation units in parallel and merges
// their findings into one deterministic set.
package runner

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/golang/glog"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/message"

	"naive.systems/cxxlint/basic"
	"naive.systems/cxxlint/diagnostic"
	"naive.systems/cxxlint/engine"
	"naive.systems/cxxlint/filter"
	"naive.systems/cxxlint/options"
	"naive.systems/cxxlint/rules"
	"naive.systems/cxxlint/source"
	"naive.systems/cxxlint/stats"
)

// Analyzer is the part of *engine.Engine the runner drives.
type Analyzer interface {
	Analyze(ctx context.Context, unit engine.Unit) (*diagnostic.Set, error)
	ConfigFindings() []diagnostic.Finding
	Config() *options.Config
	Printer() *message.Printer
}

// Task is one unit to analyze. Text is read from Path by the worker when it
// is nil.
type Task struct {
	Name string
	Path string
	Text []byte
}

type Options struct {
	// Workers bounds the units analyzed at once; 0 means one per CPU.
	Workers      int
	ShowProgress bool
	// ResultsDir receives the progress file when ShowProgress is set.
	ResultsDir string
}

// Result is the merged outcome of a run.
type Result struct {
	Set *diagnostic.Set
	// Analyzed counts the tasks that were not ignored.
	Analyzed int
	Ignored  []string
}

// Run analyzes the tasks with a bounded worker group. Findings are merged
// in a fixed order, so the result does not depend on scheduling. The error
// is only set when ctx is done.
func Run(ctx context.Context, a Analyzer, tasks []Task, opts Options) (*Result, error) {
	printer := a.Printer()
	config := a.Config()
	result := &Result{}
	var selected []Task
	for _, task := range tasks {
		if filter.MatchAny(config.IgnorePatterns, task.Name) {
			glog.Infof("Source file %s ignored", task.Name)
			result.Ignored = append(result.Ignored, task.Name)
			continue
		}
		selected = append(selected, task)
	}
	result.Analyzed = len(selected)

	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if opts.ShowProgress {
		basic.PrintfWithTimeStamp("%s", printer.Sprintf("Use %d worker(s)", workers))
		basic.PrintfWithTimeStamp("%s", printer.Sprintf("Start analyzing %d file(s)", len(selected)))
	}
	progress := basic.NewCheckingProcessPrinter(len(selected), printer)

	sets := make([]*diagnostic.Set, len(selected)+1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, task := range selected {
		i, task := i, task
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if opts.ShowProgress {
				progress.StartAnalyzeTask(task.Name)
			}
			set, err := analyzeTask(gctx, a, task, printer)
			if err != nil {
				return err
			}
			sets[i] = set
			if opts.ShowProgress {
				progress.FinishAnalyzeTask(task.Name)
				if opts.ResultsDir != "" {
					stats.WriteProgress(opts.ResultsDir, stats.Analyze, progress.GetPercentString(), progress.GetStartedAt())
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sets[len(selected)] = diagnostic.Aggregate(a.ConfigFindings())
	result.Set = diagnostic.Merge(sets...)
	return result, nil
}

// analyzeTask reads and analyzes one task. A panic fails only this unit and
// is reported as an InternalError finding.
func analyzeTask(ctx context.Context, a Analyzer, task Task, printer *message.Printer) (set *diagnostic.Set, err error) {
	defer func() {
		// recover from possible panic
		if r := recover(); r != nil {
			glog.Error("Recovered in analyze: ", r, string(debug.Stack()))
			f := rules.InternalError.Finding(task.Name, "", source.Span{},
				printer.Sprintf("analysis of '%s' failed: %v", task.Name, fmt.Sprintf("panic: %v", r)))
			set, err = diagnostic.Aggregate([]diagnostic.Finding{f}), nil
		}
	}()
	text := task.Text
	if text == nil && task.Path != "" {
		content, err := os.ReadFile(task.Path)
		if err != nil {
			glog.Errorf("failed to read %s: %v", task.Path, err)
			f := rules.InputError.Finding(task.Name, "", source.Span{}, printer.Sprintf("cannot read '%s': %v", task.Name, err))
			return diagnostic.Aggregate([]diagnostic.Finding{f}), nil
		}
		text = content
	}
	return a.Analyze(ctx, engine.Unit{Name: task.Name, Text: text})
}
