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

// RuleEliminateEvalScalar removes an EvalScalar whose items are all
// identity projections of columns its child already produces. Such
// nodes interrupt other rewrites without changing the result.
type RuleEliminateEvalScalar struct {
	id       RuleID
	matchers []*Matcher
}

func NewRuleEliminateEvalScalar() *RuleEliminateEvalScalar {
	return &RuleEliminateEvalScalar{
		id: RuleIDEliminateEvalScalar,
		// EvalScalar
		// |
		// *
		matchers: []*Matcher{
			NewMatchOp(RelOpEvalScalar, NewLeaf()),
		},
	}
}

func (r *RuleEliminateEvalScalar) ID() RuleID {
	return r.id
}

func (r *RuleEliminateEvalScalar) Matchers() []*Matcher {
	return r.matchers
}

func (r *RuleEliminateEvalScalar) Apply(s *SExpr, result *TransformResult) error {
	eval, ok := s.Plan().(*EvalScalar)
	if !ok {
		return nil
	}
	child, err := s.Child(0)
	if err != nil {
		return err
	}

	childProp, err := RelExprWithSExpr(child).DeriveRelationalProp()
	if err != nil {
		return err
	}

	for _, item := range eval.Items {
		ref, ok := item.Expr.(*ColumnRef)
		if !ok {
			return nil
		}
		// identity projection: the item republishes the same column
		if ref.Column.Index != item.Index {
			return nil
		}
		if !childProp.OutputColumns.Contains(ref.Column.Index) {
			return nil
		}
	}

	result.AddResult(child)
	return nil
}
