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

// Package diagnostic holds the findings produced by the rules and the
// aggregator that turns them into a deterministic, deduplicated set.
package diagnostic

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"

	"naive.systems/cxxlint/source"
)

type Severity uint8

const (
	Error Severity = iota
	Warning
	Info
)

var severityNames = [...]string{Error: "error", Warning: "warning", Info: "info"}

func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s]
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// ParseSeverity accepts the lower-case names printed by String, ignoring
// case.
func ParseSeverity(s string) (Severity, error) {
	for i, name := range severityNames {
		if strings.EqualFold(s, name) {
			return Severity(i), nil
		}
	}
	return Error, fmt.Errorf("unknown severity %q", s)
}

// Finding is one located diagnostic.
type Finding struct {
	RuleID   string
	Code     string
	Category string
	Severity Severity
	Message  string
	File     string
	Function string // enclosing function, empty at file scope
	Span     source.Span
	Related  []source.Span
}

// Key identifies a finding for deduplication: two findings of the same rule
// at the same place in the same function are the same finding.
type Key struct {
	RuleID   string
	File     string
	Span     source.Span
	Function string
}

func (f *Finding) Key() Key {
	return Key{RuleID: f.RuleID, File: f.File, Span: f.Span, Function: f.Function}
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%s:%s:%s", k.RuleID, k.File, k.Span, k.Function)
}

// Fingerprint is a stable digest of the dedup key, suitable for baselines.
func (f *Finding) Fingerprint() string {
	sum := blake3.Sum256([]byte(f.Key().String()))
	return hex.EncodeToString(sum[:8])
}

// String renders the finding in the "[code][rule]: message" form used in
// report text.
func (f *Finding) String() string {
	var b strings.Builder
	if f.File != "" {
		b.WriteString(f.File)
		b.WriteByte(':')
	}
	if f.Span.Start.IsValid() {
		b.WriteString(f.Span.Start.String())
		b.WriteByte(':')
	}
	if b.Len() > 0 {
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%s: [%s][%s]: %s", f.Severity, f.Code, f.RuleID, f.Message)
	return b.String()
}

// Record is the flat, stable JSON form of a finding.
type Record struct {
	File        string `json:"file"`
	Line        int    `json:"line"`
	Column      int    `json:"column"`
	EndLine     int    `json:"end_line"`
	EndColumn   int    `json:"end_column"`
	RuleID      string `json:"rule_id"`
	Code        string `json:"code"`
	Category    string `json:"category"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	Function    string `json:"function,omitempty"`
	Fingerprint string `json:"fingerprint"`
}

func (f *Finding) Record() Record {
	return Record{
		File:        f.File,
		Line:        f.Span.Start.Line,
		Column:      f.Span.Start.Column,
		EndLine:     f.Span.End.Line,
		EndColumn:   f.Span.End.Column,
		RuleID:      f.RuleID,
		Code:        f.Code,
		Category:    f.Category,
		Severity:    f.Severity.String(),
		Message:     f.Message,
		Function:    f.Function,
		Fingerprint: f.Fingerprint(),
	}
}
