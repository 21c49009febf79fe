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
package basic

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func TestFormatTimeDuration(t *testing.T) {
	for _, testCase := range [...]struct {
		d        time.Duration
		expected string
	}{
		{2 * time.Second, "2s"},
		{1500 * time.Millisecond, "1.5s"},
		{1050 * time.Millisecond, "1.05s"},
		{12 * time.Millisecond, "0.012s"},
		{999 * time.Microsecond, "0s"},
	} {
		if got := FormatTimeDuration(testCase.d); got != testCase.expected {
			t.Errorf("unexpected result for %v. got: %v. expected: %v.", testCase.d, got, testCase.expected)
		}
	}
}

func TestGetPercentString(t *testing.T) {
	for _, testCase := range [...]struct {
		v1, v2   int
		expected string
	}{
		{1, 3, "33%"},
		{3, 3, "100%"},
		{0, 0, "100%"},
	} {
		if got := GetPercentString(testCase.v1, testCase.v2); got != testCase.expected {
			t.Errorf("unexpected result for %v/%v. got: %v. expected: %v.", testCase.v1, testCase.v2, got, testCase.expected)
		}
	}
}

func TestCheckingProcessPrinter(t *testing.T) {
	var out bytes.Buffer
	c := NewCheckingProcessPrinterTo(&out, 2, message.NewPrinter(language.English))
	c.StartAnalyzeTask("a.cpp")
	c.FinishAnalyzeTask("a.cpp")
	if got := c.GetPercentString(); got != "50%" {
		t.Errorf("unexpected result for percent. got: %v. expected: 50%%.", got)
	}
	if got := out.String(); !strings.Contains(got, "Analysis of a.cpp completed (50%, 1/2)") {
		t.Errorf("unexpected result for progress line. got: %v. expected: a line for a.cpp at 50%%.", got)
	}
}
