// Copyright 2022 Vectra Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package plan

// RuleMergeFilter collapses Filter(Filter(x)) into one Filter holding
// the concatenated conjunction.
type RuleMergeFilter struct {
	id       RuleID
	matchers []*Matcher
}

func NewRuleMergeFilter() *RuleMergeFilter {
	return &RuleMergeFilter{
		id: RuleIDMergeFilter,
		// Filter
		// |
		// Filter
		// |
		// *
		matchers: []*Matcher{
			NewMatchOp(RelOpFilter, NewMatchOp(RelOpFilter, NewLeaf())),
		},
	}
}

func (r *RuleMergeFilter) ID() RuleID {
	return r.id
}

func (r *RuleMergeFilter) Matchers() []*Matcher {
	return r.matchers
}

func (r *RuleMergeFilter) Apply(s *SExpr, result *TransformResult) error {
	upper, ok := s.Plan().(*Filter)
	if !ok {
		return nil
	}
	child, err := s.Child(0)
	if err != nil {
		return err
	}
	lower, ok := child.Plan().(*Filter)
	if !ok {
		return nil
	}
	grandChild, err := child.Child(0)
	if err != nil {
		return err
	}

	predicates := make([]ScalarExpr, 0, len(upper.Predicates)+len(lower.Predicates))
	predicates = append(predicates, upper.Predicates...)
	predicates = append(predicates, lower.Predicates...)

	merged := NewUnarySExpr(&Filter{Predicates: predicates}, grandChild)
	merged.SetAppliedRule(r.id)
	result.AddResult(merged)
	return nil
}
