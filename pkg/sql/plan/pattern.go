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

// Matcher describes a tree shape a rule wants matched. It tests only
// operator kinds and child arity, never operator field values, and it
// never fails: a mismatch is a boolean no.
type Matcher struct {
	opKind   RelOp
	children []*Matcher
	leaf     bool
}

// NewLeaf is the wildcard matcher: any sub-tree, no recursion.
func NewLeaf() *Matcher {
	return &Matcher{leaf: true}
}

// NewMatchOp matches a node of the given kind whose children match in
// order. With no children given, the node's arity is not constrained.
func NewMatchOp(kind RelOp, children ...*Matcher) *Matcher {
	return &Matcher{opKind: kind, children: children}
}

// Matches reports whether the node's shape satisfies the matcher.
func (m *Matcher) Matches(s *SExpr) bool {
	if m.leaf {
		return true
	}
	if s.Plan().Kind() != m.opKind {
		return false
	}
	if len(m.children) == 0 {
		return true
	}
	if s.Arity() != len(m.children) {
		return false
	}
	for i, childMatcher := range m.children {
		if !childMatcher.Matches(s.children[i]) {
			return false
		}
	}
	return true
}

// matchesAny reports whether any matcher in the list matches.
func matchesAny(matchers []*Matcher, s *SExpr) bool {
	for _, m := range matchers {
		if m.Matches(s) {
			return true
		}
	}
	return false
}
