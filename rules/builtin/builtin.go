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

// Package builtin assembles the registry of every rule shipped with the
// analyzer.
package builtin

import (
	"fmt"

	"naive.systems/cxxlint/rules"
	"naive.systems/cxxlint/rules/defect"
	"naive.systems/cxxlint/rules/style"
	"naive.systems/cxxlint/rules/syntaxcheck"
)

func Rules() []*rules.Rule {
	var all []*rules.Rule
	all = append(all, syntaxcheck.All()...)
	all = append(all, defect.All()...)
	all = append(all, style.All()...)
	return all
}

// NewRegistry returns a registry holding Rules. The rule tables are static,
// so a registration failure is a programming error.
func NewRegistry() *rules.Registry {
	r := rules.NewRegistry()
	if err := r.Register(Rules()...); err != nil {
		panic(fmt.Sprintf("builtin rules: %v", err))
	}
	return r
}
