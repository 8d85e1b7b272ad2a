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

// RuleFoldConstant evaluates constant sub-expressions inside Filter
// predicates. Predicates folding to literal true are dropped from the
// conjunction. Folding is best-effort: any function or value shape it
// does not know stays untouched.
type RuleFoldConstant struct {
	id       RuleID
	matchers []*Matcher
}

func NewRuleFoldConstant() *RuleFoldConstant {
	return &RuleFoldConstant{
		id: RuleIDFoldConstant,
		// Filter
		// |
		// *
		matchers: []*Matcher{
			NewMatchOp(RelOpFilter, NewLeaf()),
		},
	}
}

func (r *RuleFoldConstant) ID() RuleID {
	return r.id
}

func (r *RuleFoldConstant) Matchers() []*Matcher {
	return r.matchers
}

func (r *RuleFoldConstant) Apply(s *SExpr, result *TransformResult) error {
	filter, ok := s.Plan().(*Filter)
	if !ok {
		return nil
	}
	child, err := s.Child(0)
	if err != nil {
		return err
	}

	changed := false
	folded := make([]ScalarExpr, 0, len(filter.Predicates))
	for _, pred := range filter.Predicates {
		newPred, predChanged := foldExpr(pred)
		changed = changed || predChanged
		if c, ok := newPred.(*Constant); ok {
			if v, isBool := c.Value.(bool); isBool && v {
				// true conjunct carries no information
				changed = true
				continue
			}
		}
		folded = append(folded, newPred)
	}
	if !changed {
		return nil
	}

	var replacement *SExpr
	if len(folded) == 0 {
		replacement = child
	} else {
		replacement = NewUnarySExpr(&Filter{Predicates: folded}, child)
		replacement.SetAppliedRule(r.id)
	}
	result.AddResult(replacement)
	return nil
}

func foldExpr(expr ScalarExpr) (ScalarExpr, bool) {
	switch e := expr.(type) {
	case *FuncCall:
		changed := false
		args := make([]ScalarExpr, len(e.Args))
		for i, arg := range e.Args {
			args[i], _ = foldExpr(arg)
			if args[i] != arg {
				changed = true
			}
		}

		consts := make([]*Constant, len(args))
		allConst := true
		for i, arg := range args {
			c, ok := arg.(*Constant)
			if !ok {
				allConst = false
				break
			}
			consts[i] = c
		}
		if allConst {
			if folded, ok := evalConstFunc(e.FuncName, consts); ok {
				return folded, true
			}
		}
		if changed {
			return &FuncCall{FuncName: e.FuncName, Typ: e.Typ, Args: args}, true
		}
		return e, false

	case *CastExpr:
		arg, changed := foldExpr(e.Arg)
		if changed {
			return &CastExpr{Typ: e.Typ, Arg: arg}, true
		}
		return e, false

	default:
		return expr, false
	}
}

func evalConstFunc(name string, args []*Constant) (*Constant, bool) {
	switch name {
	case "and", "or":
		if len(args) != 2 {
			return nil, false
		}
		l, lok := args[0].Value.(bool)
		r, rok := args[1].Value.(bool)
		if !lok || !rok {
			return nil, false
		}
		if name == "and" {
			return &Constant{Typ: TypeBool, Value: l && r}, true
		}
		return &Constant{Typ: TypeBool, Value: l || r}, true

	case "not":
		if len(args) != 1 {
			return nil, false
		}
		v, ok := args[0].Value.(bool)
		if !ok {
			return nil, false
		}
		return &Constant{Typ: TypeBool, Value: !v}, true

	case "=", "!=", "<", "<=", ">", ">=":
		if len(args) != 2 {
			return nil, false
		}
		cmp, ok := compareConstants(args[0], args[1])
		if !ok {
			return nil, false
		}
		var v bool
		switch name {
		case "=":
			v = cmp == 0
		case "!=":
			v = cmp != 0
		case "<":
			v = cmp < 0
		case "<=":
			v = cmp <= 0
		case ">":
			v = cmp > 0
		case ">=":
			v = cmp >= 0
		}
		return &Constant{Typ: TypeBool, Value: v}, true

	case "+", "-", "*":
		if len(args) != 2 {
			return nil, false
		}
		l, lok := args[0].Value.(int64)
		r, rok := args[1].Value.(int64)
		if !lok || !rok {
			return nil, false
		}
		var v int64
		switch name {
		case "+":
			v = l + r
		case "-":
			v = l - r
		case "*":
			v = l * r
		}
		return &Constant{Typ: TypeInt64, Value: v}, true
	}
	return nil, false
}

// compareConstants returns -1/0/1 for ordered comparable constant
// pairs of the same dynamic type.
func compareConstants(l, r *Constant) (int, bool) {
	switch lv := l.Value.(type) {
	case int64:
		rv, ok := r.Value.(int64)
		if !ok {
			return 0, false
		}
		return compareOrdered(lv, rv), true
	case float64:
		rv, ok := r.Value.(float64)
		if !ok {
			return 0, false
		}
		return compareOrdered(lv, rv), true
	case string:
		rv, ok := r.Value.(string)
		if !ok {
			return 0, false
		}
		return compareOrdered(lv, rv), true
	case bool:
		rv, ok := r.Value.(bool)
		if !ok {
			return 0, false
		}
		if lv == rv {
			return 0, true
		}
		if !lv {
			return -1, true
		}
		return 1, true
	}
	return 0, false
}

func compareOrdered[T int64 | float64 | string](l, r T) int {
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}
