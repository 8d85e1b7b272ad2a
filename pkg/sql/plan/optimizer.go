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

	"go.uber.org/zap"

	"github.com/vectradb/vectra/pkg/logutil"
)

// Optimizer is the rewrite driver: it owns a rule registry and applies
// it to a tree until a full pass changes nothing or the iteration
// budget runs out. The search is greedy: at each node the first
// accepted proposal wins; with cost pruning enabled a proposal whose
// estimated cardinality is worse than the node it replaces is skipped.
type Optimizer struct {
	registry          *RuleRegistry
	maxIterations     int
	enableCostPruning bool

	iterations int
}

// OptimizerOption tweaks a new Optimizer.
type OptimizerOption func(*Optimizer)

func WithMaxIterations(n int) OptimizerOption {
	return func(o *Optimizer) {
		if n > 0 {
			o.maxIterations = n
		}
	}
}

func WithCostPruning(enable bool) OptimizerOption {
	return func(o *Optimizer) {
		o.enableCostPruning = enable
	}
}

// defaultMaxIterations bounds the fixpoint loop when no configuration
// is supplied.
var defaultMaxIterations = 128

func NewOptimizer(registry *RuleRegistry, opts ...OptimizerOption) *Optimizer {
	o := &Optimizer{
		registry:      registry,
		maxIterations: defaultMaxIterations,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Iterations reports how many full passes the last Optimize ran.
func (o *Optimizer) Iterations() int {
	return o.iterations
}

// Optimize rewrites the tree to fixpoint. Exhausting the iteration
// budget returns the current tree, not an error.
func (o *Optimizer) Optimize(ctx context.Context, s *SExpr) (*SExpr, error) {
	current := s
	o.iterations = 0
	for o.iterations < o.maxIterations {
		o.iterations++
		next, changed, err := o.optimizeExpr(ctx, current)
		if err != nil {
			return nil, err
		}
		if !changed {
			return next, nil
		}
		current = next
	}
	logutil.Warn("optimizer iteration budget exhausted",
		zap.Int("iterations", o.iterations))
	return current, nil
}

// optimizeExpr runs one bottom-up pass: children first, then the rules
// at this node. The first rewrite accepted anywhere ends the pass for
// that branch; the outer loop re-runs passes until nothing fires.
func (o *Optimizer) optimizeExpr(ctx context.Context, s *SExpr) (*SExpr, bool, error) {
	childrenChanged := false
	newChildren := make([]*SExpr, len(s.children))
	for i, child := range s.children {
		newChild, changed, err := o.optimizeExpr(ctx, child)
		if err != nil {
			return nil, false, err
		}
		newChildren[i] = newChild
		childrenChanged = childrenChanged || changed
	}

	current := s
	if childrenChanged {
		current = s.ReplaceChildren(newChildren...)
	}

	replaced, applied, err := o.applyRules(ctx, current)
	if err != nil {
		return nil, false, err
	}
	return replaced, childrenChanged || applied, nil
}

func (o *Optimizer) applyRules(ctx context.Context, s *SExpr) (*SExpr, bool, error) {
	for _, rule := range o.registry.Rules() {
		if s.RuleApplied(rule.ID()) {
			continue
		}
		if !matchesAny(rule.Matchers(), s) {
			continue
		}

		var result TransformResult
		if err := rule.Apply(s, &result); err != nil {
			return nil, false, err
		}
		for _, candidate := range result.Results() {
			if o.enableCostPruning {
				keep, err := o.improves(candidate, s)
				if err != nil {
					return nil, false, err
				}
				if !keep {
					continue
				}
			}
			logutil.Debug("rule applied",
				zap.String("rule", rule.ID().String()),
				zap.String("operator", s.Plan().Kind().String()))
			return candidate, true, nil
		}
	}
	return s, false, nil
}

// improves accepts a candidate whose estimated cardinality is no worse
// than the original.
func (o *Optimizer) improves(candidate, original *SExpr) (bool, error) {
	candStat, err := RelExprWithSExpr(candidate).DeriveCardinality()
	if err != nil {
		return false, err
	}
	origStat, err := RelExprWithSExpr(original).DeriveCardinality()
	if err != nil {
		return false, err
	}
	return candStat.Cardinality <= origStat.Cardinality, nil
}
