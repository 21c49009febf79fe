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
/*
This package should not import any other package of the analyzer to avoid
recursive import.
*/
package basic

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/golang/glog"
	"golang.org/x/text/message"
)

func PrintfWithTimeStamp(format string, arg ...any) {
	FprintfWithTimeStamp(os.Stdout, format, arg...)
}

func FprintfWithTimeStamp(w io.Writer, format string, arg ...any) {
	prefix := fmt.Sprintf("%v ", time.Now().Format("2006-01-02 15:04:05"))
	line := fmt.Sprintf(prefix+format, arg...)
	fmt.Fprintln(w, line)
	glog.Info(line)
}

func GetPercentString(v1, v2 int) string {
	if v2 <= 0 {
		return "100%"
	}
	return fmt.Sprintf("%d%%", v1*100/v2)
}

// FormatTimeDuration prints d in seconds with at most millisecond
// precision, e.g. 2s or 1.05s.
func FormatTimeDuration(d time.Duration) string {
	s := d / time.Second
	ms := (d - s*time.Second) / time.Millisecond
	if ms == 0 {
		return fmt.Sprintf("%ds", s)
	}
	frac := strings.TrimRight(fmt.Sprintf("%03d", ms), "0")
	return fmt.Sprintf("%d.%ss", s, frac)
}

// print checking process serialized, goroutine safe
type CheckingProcessPrinter struct {
	mutex                sync.Mutex
	out                  io.Writer
	printer              *message.Printer
	startedAt            time.Time
	timeElapsed          map[string]time.Time
	startAnalyzeTaskNum  int
	finishAnalyzeTaskNum int
	totalTaskNum         int
}

func NewCheckingProcessPrinter(totalTaskNum int, printer *message.Printer) *CheckingProcessPrinter {
	return NewCheckingProcessPrinterTo(os.Stdout, totalTaskNum, printer)
}

func NewCheckingProcessPrinterTo(out io.Writer, totalTaskNum int, printer *message.Printer) *CheckingProcessPrinter {
	return &CheckingProcessPrinter{
		out:          out,
		printer:      printer,
		totalTaskNum: totalTaskNum,
		timeElapsed:  make(map[string]time.Time),
		startedAt:    time.Now(),
	}
}

// Called before start analyzing a file
func (c *CheckingProcessPrinter) StartAnalyzeTask(taskName string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.startAnalyzeTaskNum++
	c.timeElapsed[taskName] = time.Now()
	glog.V(1).Infof("start analyzing %s (%v/%v)", taskName, c.startAnalyzeTaskNum, c.totalTaskNum)
}

// Called after finish analyzing a file
func (c *CheckingProcessPrinter) FinishAnalyzeTask(taskName string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	elapsed := time.Since(c.timeElapsed[taskName])
	delete(c.timeElapsed, taskName)
	c.finishAnalyzeTaskNum++
	percent := GetPercentString(c.finishAnalyzeTaskNum, c.totalTaskNum)
	FprintfWithTimeStamp(c.out, "%s", c.printer.Sprintf("Analysis of %s completed (%s, %v/%v) [%s]",
		taskName, percent, c.finishAnalyzeTaskNum, c.totalTaskNum, FormatTimeDuration(elapsed)))
}

func (c *CheckingProcessPrinter) GetPercentString() string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return GetPercentString(c.finishAnalyzeTaskNum, c.totalTaskNum)
}

func (c *CheckingProcessPrinter) GetStartedAt() time.Time {
	return c.startedAt
}
