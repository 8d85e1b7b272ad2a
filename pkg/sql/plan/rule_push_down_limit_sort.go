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

// RulePushDownLimitSort folds the row budget of a Limit into the Sort
// beneath it, turning a full sort into a top-N sort. The Limit node
// stays for offset handling.
type RulePushDownLimitSort struct {
	id       RuleID
	matchers []*Matcher
}

func NewRulePushDownLimitSort() *RulePushDownLimitSort {
	return &RulePushDownLimitSort{
		id: RuleIDPushDownLimitSort,
		// Limit
		// |
		// Sort
		// |
		// *
		matchers: []*Matcher{
			NewMatchOp(RelOpLimit, NewMatchOp(RelOpSort, NewLeaf())),
		},
	}
}

func (r *RulePushDownLimitSort) ID() RuleID {
	return r.id
}

func (r *RulePushDownLimitSort) Matchers() []*Matcher {
	return r.matchers
}

func (r *RulePushDownLimitSort) Apply(s *SExpr, result *TransformResult) error {
	limit, ok := s.Plan().(*Limit)
	if !ok || limit.Count < 0 {
		return nil
	}
	child, err := s.Child(0)
	if err != nil {
		return err
	}
	sort, ok := child.Plan().(*Sort)
	if !ok {
		return nil
	}

	// the sort must hold offset+count rows for the limit above it
	budget := limit.Count + limit.Offset
	if sort.Limit >= 0 && sort.Limit <= budget {
		return nil
	}
	sortInput, err := child.Child(0)
	if err != nil {
		return err
	}

	newSort := NewUnarySExpr(&Sort{Items: sort.Items, Limit: budget}, sortInput)
	newSort.SetAppliedRule(r.id)
	newLimit := NewUnarySExpr(&Limit{Count: limit.Count, Offset: limit.Offset}, newSort)
	newLimit.SetAppliedRule(r.id)
	result.AddResult(newLimit)
	return nil
}
