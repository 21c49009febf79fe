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

package i18n

import "testing"

func TestGetPrinter(t *testing.T) {
	for _, testCase := range [...]struct {
		lang     string
		expected string
	}{
		{"en", "'p' is released twice"},
		{"", "'p' is released twice"},
		{"fr", "'p' is released twice"},
		{"zh", "'p' 被重复释放"},
	} {
		got := GetPrinter(testCase.lang).Sprintf("'%s' is released twice", "p")
		if got != testCase.expected {
			t.Errorf("unexpected result for %v. got: %v. expected: %v.", testCase.lang, got, testCase.expected)
		}
	}
}

func TestCatalogArgumentOrder(t *testing.T) {
	got := GetPrinter("zh").Sprintf("Analysis completed: %d finding(s) in %d file(s)", 3, 2)
	expected := "分析完成：2 个文件中发现 3 个问题"
	if got != expected {
		t.Errorf("unexpected result for reordered arguments. got: %v. expected: %v.", got, expected)
	}
}
