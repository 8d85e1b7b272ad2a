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
	"time"

	"go.uber.org/zap"

	"github.com/vectradb/vectra/pkg/config"
	"github.com/vectradb/vectra/pkg/logutil"
)

// PlanResult is a finished compilation: the main physical tree plus
// the sub-pipelines compiled for union right inputs.
type PlanResult struct {
	Root         PhysicalPlan
	SubPipelines []SubPipeline
}

// Planner drives one query through rewrite and physical build.
type Planner struct {
	meta    *Metadata
	compCtx CompilerContext
	cfg     *config.PlannerConfig
	pool    *CompilePool
}

func NewPlanner(meta *Metadata, compCtx CompilerContext, cfg *config.PlannerConfig) *Planner {
	if cfg == nil {
		cfg = &config.PlannerConfig{}
	}
	cfg.SetDefaultValues()
	return &Planner{
		meta:    meta,
		compCtx: compCtx,
		cfg:     cfg,
		pool:    NewCompilePool(int(cfg.CompileWorkers)),
	}
}

func (p *Planner) Close() {
	p.pool.Release()
}

// BuildPlan optimizes the bound tree and compiles it into a physical
// plan pruned to the required columns.
func (p *Planner) BuildPlan(ctx context.Context, s *SExpr, required *ColumnSet, dryRun bool) (*PlanResult, error) {
	start := time.Now()

	optimizer := NewOptimizer(DefaultRuleRegistry(),
		WithMaxIterations(int(p.cfg.OptimizerMaxIterations)),
		WithCostPruning(p.cfg.EnableCostPruning))
	optimized, err := optimizer.Optimize(ctx, s)
	if err != nil {
		return nil, err
	}

	builder := NewPhysicalPlanBuilder(p.meta, p.compCtx,
		WithDryRun(dryRun),
		WithCompilePool(p.pool))
	root, err := builder.Build(ctx, optimized, required)
	if err != nil {
		return nil, err
	}

	logutil.Info("plan built",
		zap.Int("optimizerIterations", optimizer.Iterations()),
		zap.Bool("dryRun", dryRun),
		zap.Duration("elapsed", time.Since(start)))
	return &PlanResult{
		Root:         root,
		SubPipelines: builder.SubPipelines(),
	}, nil
}
