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

import (
	"context"

	"github.com/vectradb/vectra/pkg/common/verr"
)

// SExpr is one immutable node of the logical expression tree: an
// operator payload plus ordered children. Rule application never
// mutates a node; it builds replacements. Sub-trees may be shared by
// reference, so treat a constructed SExpr as read-only.
type SExpr struct {
	op       RelOperator
	children []*SExpr

	// appliedRules is a RuleID bitset; a rule does not re-fire on a
	// node it already produced.
	appliedRules uint64

	// derived properties, computed lazily and cached; new nodes start
	// empty so rewrites never see stale values.
	relProp  *RelationalProp
	statInfo *StatInfo
}

func NewSExpr(op RelOperator, children ...*SExpr) *SExpr {
	return &SExpr{op: op, children: children}
}

func NewLeafSExpr(op RelOperator) *SExpr {
	return NewSExpr(op)
}

func NewUnarySExpr(op RelOperator, child *SExpr) *SExpr {
	return NewSExpr(op, child)
}

func NewBinarySExpr(op RelOperator, left, right *SExpr) *SExpr {
	return NewSExpr(op, left, right)
}

// Plan returns the operator payload.
func (s *SExpr) Plan() RelOperator {
	return s.op
}

func (s *SExpr) Arity() int {
	return len(s.children)
}

func (s *SExpr) Children() []*SExpr {
	return s.children
}

// Child returns the i-th child. A missing child is structural
// corruption of the tree and propagates immediately.
func (s *SExpr) Child(i int) (*SExpr, error) {
	if i < 0 || i >= len(s.children) {
		return nil, verr.NewInternalError(context.Background(),
			"%s node has no child %d", s.op.Kind(), i)
	}
	return s.children[i], nil
}

// ReplaceChildren builds a new node with the same operator and applied
// rule set over the given children.
func (s *SExpr) ReplaceChildren(children ...*SExpr) *SExpr {
	return &SExpr{
		op:           s.op,
		children:     children,
		appliedRules: s.appliedRules,
	}
}

// SetAppliedRule marks the node as produced by the rule. Call it on a
// freshly built replacement before publishing it.
func (s *SExpr) SetAppliedRule(id RuleID) {
	s.appliedRules |= id.Mask()
}

// RuleApplied reports whether the rule already fired on this node.
func (s *SExpr) RuleApplied(id RuleID) bool {
	return s.appliedRules&id.Mask() != 0
}
