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

package builtin

import (
	"strings"
	"testing"
)

func TestRuleTable(t *testing.T) {
	r := NewRegistry()
	all := r.All()
	if len(all) != 24 {
		t.Errorf("unexpected result for rule count. got: %v. expected: %v.", len(all), 24)
	}
	codes := make(map[string]bool)
	for _, rule := range all {
		if codes[rule.Code] {
			t.Errorf("unexpected result for %v. got: duplicate code %v. expected: unique.", rule.ID, rule.Code)
		}
		codes[rule.Code] = true
		prefix := map[string]string{"syntax": "CXX1", "defect": "CXX2", "style": "CXX3"}[rule.Category]
		if prefix == "" || !strings.HasPrefix(rule.Code, prefix) {
			t.Errorf("unexpected result for %v. got: %v in %v. expected: prefix %v.", rule.ID, rule.Code, rule.Category, prefix)
		}
		if rule.Doc == "" || rule.Needs == 0 {
			t.Errorf("unexpected result for %v. got: doc %q, needs %v. expected: both set.", rule.ID, rule.Doc, rule.Needs)
		}
	}
}
