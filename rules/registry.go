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

package rules

import (
	"fmt"

	"golang.org/x/exp/slices"
)

// Registry is the read-only catalogue of rules once built.
type Registry struct {
	rules []*Rule
	byID  map[string]*Rule
}

func NewRegistry() *Registry {
	return &Registry{byID: make(map[string]*Rule)}
}

// Register adds rules. Ids must be unique and must not collide with the
// reserved engine ids.
func (r *Registry) Register(rules ...*Rule) error {
	for _, rule := range rules {
		if rule.ID == "" || rule.Check == nil {
			return fmt.Errorf("rule %q: missing id or check", rule.ID)
		}
		if _, exist := r.byID[rule.ID]; exist {
			return fmt.Errorf("rule %q registered twice", rule.ID)
		}
		if IsReserved(rule.ID) {
			return fmt.Errorf("rule %q uses a reserved id", rule.ID)
		}
		r.byID[rule.ID] = rule
		r.rules = append(r.rules, rule)
	}
	return nil
}

func (r *Registry) Lookup(id string) (*Rule, bool) {
	rule, ok := r.byID[id]
	return rule, ok
}

// Resolve looks a rule up by id, then by issue code.
func (r *Registry) Resolve(name string) (*Rule, bool) {
	if rule, ok := r.byID[name]; ok {
		return rule, true
	}
	for _, rule := range r.rules {
		if rule.Code == name {
			return rule, true
		}
	}
	return nil, false
}

// All returns the registered rules ordered by code.
func (r *Registry) All() []*Rule {
	all := slices.Clone(r.rules)
	slices.SortFunc(all, func(a, b *Rule) bool { return a.Code < b.Code })
	return all
}

func IsReserved(id string) bool {
	for _, rule := range Reserved() {
		if rule.ID == id {
			return true
		}
	}
	return false
}

// Schedule is the compiled pass list of one configuration.
type Schedule struct {
	Passes []*Rule
	// Stages is the closure of what the passes need; the engine builds
	// nothing outside it.
	Stages Needs
}

// Known reports whether id names a registered rule, by id or code, or a
// reserved engine rule.
func (r *Registry) Known(id string) bool {
	_, ok := r.Resolve(id)
	return ok || IsReserved(id)
}

// Schedule selects the enabled rules by id or code, all of them when
// enabled is empty, and orders them by the stage they depend on, then by
// code. Ids that are not Known are skipped.
func (r *Registry) Schedule(enabled []string) *Schedule {
	selected := r.rules
	if len(enabled) > 0 {
		selected = nil
		seen := make(map[string]bool)
		for _, id := range enabled {
			rule, ok := r.Resolve(id)
			switch {
			case !ok:
			case !seen[rule.ID]:
				seen[rule.ID] = true
				selected = append(selected, rule)
			}
		}
	}
	s := &Schedule{Passes: slices.Clone(selected)}
	slices.SortStableFunc(s.Passes, func(a, b *Rule) bool {
		if la, lb := a.Needs.level(), b.Needs.level(); la != lb {
			return la < lb
		}
		return a.Code < b.Code
	})
	for _, rule := range s.Passes {
		s.Stages |= rule.Needs
	}
	s.Stages = s.Stages.Closure()
	return s
}

func (s *Schedule) IDs() []string {
	ids := make([]string, 0, len(s.Passes))
	for _, rule := range s.Passes {
		ids = append(ids, rule.ID)
	}
	return ids
}
