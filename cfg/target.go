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

package cfg

// branchTargets holds the blocks that break, continue and case labels of
// the innermost enclosing statements jump to.
type branchTargets struct {
	brk      BlockID
	cont     BlockID
	sw       BlockID // header of the enclosing switch
	sawDeflt bool
}

func (s *branchTargets) pushBreak(b BlockID) (old BlockID) {
	old, s.brk = s.brk, b
	return old
}

func (s *branchTargets) popBreak(old BlockID) {
	s.brk = old
}

func (s *branchTargets) pushContinue(b BlockID) (old BlockID) {
	old, s.cont = s.cont, b
	return old
}

func (s *branchTargets) popContinue(old BlockID) {
	s.cont = old
}

// pushSwitch starts a switch whose case labels attach to header.
func (s *branchTargets) pushSwitch(header BlockID) (old BlockID, oldDefault bool) {
	old, oldDefault = s.sw, s.sawDeflt
	s.sw, s.sawDeflt = header, false
	return old, oldDefault
}

// popSwitch restores the enclosing switch and reports whether the finished
// one had a default label.
func (s *branchTargets) popSwitch(old BlockID, oldDefault bool) (hadDefault bool) {
	hadDefault = s.sawDeflt
	s.sw, s.sawDeflt = old, oldDefault
	return hadDefault
}
