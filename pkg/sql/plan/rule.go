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

// RuleID is the stable identity of one rewrite rule, used for
// "already applied" bookkeeping on tree nodes.
type RuleID uint32

const (
	RuleIDSemiToInnerJoin RuleID = iota
	RuleIDMergeFilter
	RuleIDPushDownLimitSort
	RuleIDEliminateEvalScalar
	RuleIDFoldConstant

	numRuleIDs
)

var ruleIDNames = [numRuleIDs]string{
	"SemiToInnerJoin",
	"MergeFilter",
	"PushDownLimitSort",
	"EliminateEvalScalar",
	"FoldConstant",
}

func (id RuleID) String() string {
	if id < numRuleIDs {
		return ruleIDNames[id]
	}
	return "Unknown"
}

// Mask returns the bit of this rule in a node's applied set.
func (id RuleID) Mask() uint64 {
	return 1 << uint64(id)
}

// TransformResult collects the replacement sub-trees a rule proposes.
type TransformResult struct {
	results []*SExpr
}

func (t *TransformResult) AddResult(s *SExpr) {
	t.results = append(t.results, s)
}

func (t *TransformResult) Results() []*SExpr {
	return t.results
}

// Rule is one named tree-rewrite transformation. Apply may read the
// matched node and its children to test its precondition, must not
// mutate them, and either declines (adds nothing) or registers
// replacement sub-trees built from the original node's children.
// Declining is the normal outcome, never an error.
type Rule interface {
	ID() RuleID
	Matchers() []*Matcher
	Apply(s *SExpr, result *TransformResult) error
}

// RuleRegistry is the explicit, constructed-once rule list handed to
// the optimizer. There is no ambient global rule table.
type RuleRegistry struct {
	rules []Rule
}

func NewRuleRegistry(rules ...Rule) *RuleRegistry {
	return &RuleRegistry{rules: rules}
}

func (r *RuleRegistry) Rules() []Rule {
	return r.rules
}

// DefaultRuleRegistry returns the standard rewrite rule set.
func DefaultRuleRegistry() *RuleRegistry {
	return NewRuleRegistry(
		NewRuleFoldConstant(),
		NewRuleMergeFilter(),
		NewRuleEliminateEvalScalar(),
		NewRulePushDownLimitSort(),
		NewRuleSemiToInnerJoin(),
	)
}
