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

// Package engine runs the analysis pipeline over one translation unit:
// lexing, parsing, symbol resolution, control flow and dataflow, then the
// scheduled rules and the aggregator. Only the stages the schedule needs are
// built.
package engine

import (
	"bytes"
	"context"
	"fmt"
	"runtime/debug"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/golang/glog"
	"golang.org/x/exp/slices"
	"golang.org/x/text/message"
	"golang.org/x/text/transform"

	"naive.systems/cxxlint/cfg"
	"naive.systems/cxxlint/dataflow"
	"naive.systems/cxxlint/diagnostic"
	"naive.systems/cxxlint/filter"
	"naive.systems/cxxlint/i18n"
	"naive.systems/cxxlint/lexer"
	"naive.systems/cxxlint/options"
	"naive.systems/cxxlint/rules"
	"naive.systems/cxxlint/source"
	"naive.systems/cxxlint/symbols"
	"naive.systems/cxxlint/syntax"
)

// Unit is one translation unit to analyze.
type Unit struct {
	Name string
	Text []byte
}

// Engine holds the compiled schedule of one configuration. It is read-only
// after New and safe for concurrent use.
type Engine struct {
	config   *options.Config
	compiled *options.Compiled
	registry *rules.Registry
	schedule *rules.Schedule
	printer  *message.Printer
	warnings []diagnostic.Finding

	analyze func(*syntax.Tree, *symbols.Table, *cfg.Graph) (*dataflow.Facts, error)
}

func New(config *options.Config, registry *rules.Registry) (*Engine, error) {
	compiled, err := config.Compile()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}
	schedule := registry.Schedule(config.EnabledRules)
	printer := i18n.GetPrinter(config.Lang)
	e := &Engine{
		config:   config,
		compiled: compiled,
		registry: registry,
		schedule: schedule,
		printer:  printer,
		warnings: options.UnknownRules(config, registry, printer),
		analyze:  dataflow.Analyze,
	}
	glog.Infof("engine: %d rule(s) scheduled, stages %v", len(schedule.Passes), schedule.Stages)
	return e, nil
}

func (e *Engine) Config() *options.Config {
	return e.config
}

func (e *Engine) Schedule() *rules.Schedule {
	return e.schedule
}

func (e *Engine) Printer() *message.Printer {
	return e.printer
}

// ConfigFindings returns the findings about the configuration itself, such
// as unknown rule ids. They belong to no unit.
func (e *Engine) ConfigFindings() []diagnostic.Finding {
	return slices.Clone(e.warnings)
}

// Analyze runs the pipeline over one unit. Input, syntax and internal
// failures are findings; the error is only set when ctx is done, in which
// case partial results are discarded.
func (e *Engine) Analyze(ctx context.Context, unit Unit) (*diagnostic.Set, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text, bad := e.decode(unit)
	if bad != nil {
		return diagnostic.Aggregate([]diagnostic.Finding{*bad}), nil
	}
	in := &rules.Input{
		File:    unit.Name,
		Text:    text,
		Lines:   strings.Split(text, "\n"),
		Style:   e.compiled.Style,
		Printer: e.printer,
	}
	stages := e.schedule.Stages
	var findings []diagnostic.Finding

	start := time.Now()
	in.Tokens = lexer.Tokenize(text)
	glog.V(2).Infof("%s: %d token(s) in %v", unit.Name, len(in.Tokens), time.Since(start))
	if stages.Has(rules.NeedTree) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start = time.Now()
		in.Tree = syntax.Parse(in.Tokens)
		glog.V(2).Infof("%s: %d node(s), %d parse error(s) in %v", unit.Name, len(in.Tree.Nodes), len(in.Tree.Errors), time.Since(start))
	}
	if stages.Has(rules.NeedSymbols) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start = time.Now()
		in.Symbols = symbols.Build(in.Tree)
		glog.V(2).Infof("%s: %d symbol(s) in %v", unit.Name, len(in.Symbols.Symbols), time.Since(start))
	}
	if stages.Has(rules.NeedFlow) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start = time.Now()
		findings = append(findings, e.buildFlow(in)...)
		glog.V(2).Infof("%s: %d function graph(s) in %v", unit.Name, len(in.Graphs), time.Since(start))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	findings = append(findings, e.runRules(in)...)
	return e.finish(in, findings), nil
}

var bom = []byte("\xef\xbb\xbf")

// decode converts the unit to UTF-8 text, or returns the InputError finding
// that replaces the unit's results.
func (e *Engine) decode(unit Unit) (string, *diagnostic.Finding) {
	b := unit.Text
	if e.compiled.Encoding != nil && len(b) > 0 {
		decoded, _, err := transform.Bytes(e.compiled.Encoding.NewDecoder(), b)
		if err != nil {
			glog.Warningf("%s: decoding as %s: %v", unit.Name, e.config.Encoding, err)
		} else {
			b = decoded
		}
	}
	b = bytes.TrimPrefix(b, bom)
	var msg string
	switch {
	case len(b) == 0:
		msg = e.printer.Sprintf("input is empty")
	case !utf8.Valid(b):
		msg = e.printer.Sprintf("input is not valid UTF-8 text")
	default:
		return string(b), nil
	}
	glog.Warningf("%s: %s", unit.Name, msg)
	f := rules.InputError.Finding(unit.Name, "", source.Span{}, msg)
	return "", &f
}

// buildFlow builds the graph and dataflow facts of every function. A
// function whose analysis panics or does not converge yields an
// InternalError finding; the others are unaffected.
func (e *Engine) buildFlow(in *rules.Input) []diagnostic.Finding {
	var findings []diagnostic.Finding
	for _, fn := range in.Tree.Functions {
		name := in.Tree.Nodes[fn].Name
		g, facts, err := e.analyzeFunction(in, fn)
		if err != nil {
			glog.Errorf("%s: analysis of %s failed: %v", in.File, name, err)
			findings = append(findings, in.Report(rules.InternalError, functionNameSpan(in.Tree, fn), name,
				"analysis of '%s' failed: %v", name, err))
			continue
		}
		if g == nil {
			continue
		}
		in.Graphs = append(in.Graphs, g)
		in.Facts = append(in.Facts, facts)
	}
	return findings
}

func (e *Engine) analyzeFunction(in *rules.Input, fn syntax.NodeID) (g *cfg.Graph, facts *dataflow.Facts, err error) {
	defer func() {
		// recover from possible panic
		if r := recover(); r != nil {
			glog.Error("Recovered in analyze function: ", r, string(debug.Stack()))
			g, facts, err = nil, nil, fmt.Errorf("panic: %v", r)
		}
	}()
	g = cfg.Build(in.Tree, fn)
	if g == nil {
		return nil, nil, nil
	}
	facts, err = e.analyze(in.Tree, in.Symbols, g)
	if err != nil {
		return nil, nil, err
	}
	return g, facts, nil
}

// functionNameSpan covers the possibly qualified name of a function.
func functionNameSpan(tree *syntax.Tree, fn syntax.NodeID) source.Span {
	n := &tree.Nodes[fn]
	if n.Tok < 0 || n.Tok >= len(tree.Tokens) {
		return n.Span
	}
	last := n.Tok
	for last+2 < len(tree.Tokens) && tree.Tokens[last+1].Is("::") &&
		(tree.Tokens[last+2].Kind == lexer.Ident || tree.Tokens[last+2].Is("~")) {
		last += 2
		if tree.Tokens[last].Is("~") && last+1 < len(tree.Tokens) {
			last++
		}
	}
	return source.Span{Start: tree.Tokens[n.Tok].Pos, End: tree.Tokens[last].End}
}

func (e *Engine) runRules(in *rules.Input) []diagnostic.Finding {
	var findings []diagnostic.Finding
	for _, rule := range e.schedule.Passes {
		out, err := runRule(rule, in)
		if err != nil {
			glog.Errorf("%s: rule %s failed: %v", in.File, rule.ID, err)
			findings = append(findings, in.Report(rules.InternalError, source.Span{}, "", "rule %s failed: %v", rule.ID, err))
			continue
		}
		glog.V(3).Infof("%s: %s reported %d finding(s)", in.File, rule.ID, len(out))
		findings = append(findings, out...)
	}
	return findings
}

func runRule(rule *rules.Rule, in *rules.Input) (findings []diagnostic.Finding, err error) {
	defer func() {
		if r := recover(); r != nil {
			glog.Error("Recovered in rule check: ", r, string(debug.Stack()))
			findings, err = nil, fmt.Errorf("panic: %v", r)
		}
	}()
	return rule.Check(in), nil
}

// finish applies severity overrides, inline suppressions and report caps,
// then aggregates.
func (e *Engine) finish(in *rules.Input, findings []diagnostic.Finding) *diagnostic.Set {
	for i := range findings {
		f := &findings[i]
		if sev, ok := e.compiled.Severity[f.RuleID]; ok {
			f.Severity = sev
		} else if sev, ok := e.compiled.Severity[f.Code]; ok {
			f.Severity = sev
		}
	}
	if e.config.Suppressions {
		findings = filter.Suppress(findings, filter.ParseSuppressions(in.Tokens))
	}
	set := diagnostic.Aggregate(findings)
	return filter.DeleteExceedResults(set, e.config.MaxReportNum)
}
