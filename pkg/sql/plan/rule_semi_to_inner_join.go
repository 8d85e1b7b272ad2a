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

// RuleSemiToInnerJoin rewrites a semi join to an inner join when the
// semi side is already deduplicated on the join keys: every key column
// must appear in the group-by keys of an Aggregate reachable through
// column-preserving unary operators.
type RuleSemiToInnerJoin struct {
	id       RuleID
	matchers []*Matcher
}

func NewRuleSemiToInnerJoin() *RuleSemiToInnerJoin {
	return &RuleSemiToInnerJoin{
		id: RuleIDSemiToInnerJoin,
		// Join
		// |  \
		// *   *
		matchers: []*Matcher{
			NewMatchOp(RelOpJoin, NewLeaf(), NewLeaf()),
		},
	}
}

func (r *RuleSemiToInnerJoin) ID() RuleID {
	return r.id
}

func (r *RuleSemiToInnerJoin) Matchers() []*Matcher {
	return r.matchers
}

func (r *RuleSemiToInnerJoin) Apply(s *SExpr, result *TransformResult) error {
	join, ok := s.Plan().(*Join)
	if !ok {
		return nil
	}
	if join.JoinType != JoinTypeLeftSemi && join.JoinType != JoinTypeRightSemi {
		return nil
	}

	var conditions []ScalarExpr
	if join.JoinType == JoinTypeLeftSemi {
		conditions = join.RightConditions
	} else {
		conditions = join.LeftConditions
	}
	if len(conditions) == 0 {
		return nil
	}

	conditionCols := NewColumnSet()
	for _, condition := range conditions {
		addConditionColumns(condition, conditionCols)
	}

	var childIdx int
	if join.JoinType == JoinTypeLeftSemi {
		childIdx = 1
	} else {
		childIdx = 0
	}
	child, err := s.Child(childIdx)
	if err != nil {
		return err
	}

	// Walk the semi side for join keys appearing in group-by keys.
	groupByKeys := NewColumnSet()
	if err := findGroupByKeys(child, groupByKeys); err != nil {
		return err
	}
	if !groupByKeys.ContainsAll(conditionCols) {
		return nil
	}

	left, err := s.Child(0)
	if err != nil {
		return err
	}
	right, err := s.Child(1)
	if err != nil {
		return err
	}

	newJoin := &Join{
		JoinType:          JoinTypeInner,
		LeftConditions:    join.LeftConditions,
		RightConditions:   join.RightConditions,
		NonEquiConditions: join.NonEquiConditions,
	}
	joinExpr := NewBinarySExpr(newJoin, left, right)
	joinExpr.SetAppliedRule(r.id)
	result.AddResult(joinExpr)
	return nil
}

// findGroupByKeys descends through operators that preserve column
// identity one-to-one. Anything else ends the walk: guessing is worse
// than declining.
func findGroupByKeys(child *SExpr, groupByKeys *ColumnSet) error {
	switch op := child.Plan().(type) {
	case *EvalScalar, *Filter, *Window:
		next, err := child.Child(0)
		if err != nil {
			return err
		}
		return findGroupByKeys(next, groupByKeys)

	case *Aggregate:
		for _, item := range op.GroupItems {
			if ref, ok := item.Expr.(*ColumnRef); ok {
				groupByKeys.Add(ref.Column.Index)
			}
		}
	}
	return nil
}

// addConditionColumns collects column indexes of a join-key condition:
// bare column references, possibly under casts. Other expression forms
// are opaque to this rule.
func addConditionColumns(condition ScalarExpr, cols *ColumnSet) {
	switch e := condition.(type) {
	case *ColumnRef:
		cols.Add(e.Column.Index)
	case *CastExpr:
		addConditionColumns(e.Arg, cols)
	}
}
