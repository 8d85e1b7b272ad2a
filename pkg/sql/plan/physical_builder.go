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
	"sync"

	"go.uber.org/zap"

	"github.com/vectradb/vectra/pkg/common/verr"
	"github.com/vectradb/vectra/pkg/logutil"
)

// SubPipeline is an independently compiled plan fragment, produced for
// the right input of a union. It publishes into Channel.
type SubPipeline struct {
	Root    PhysicalPlan
	Channel *UnionChannel
}

// cteState is shared by a builder and every nested builder it spawns.
// Nested builders compile concurrently, so all access is under the
// mutex.
type cteState struct {
	mu            sync.Mutex
	outputColumns map[IndexType][]ColumnBinding
	subPipelines  []SubPipeline
}

func newCteState() *cteState {
	return &cteState{outputColumns: make(map[IndexType][]ColumnBinding)}
}

func (c *cteState) setOutput(cteIndex IndexType, cols []ColumnBinding) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outputColumns[cteIndex] = cols
}

func (c *cteState) output(cteIndex IndexType) ([]ColumnBinding, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cols, ok := c.outputColumns[cteIndex]
	return cols, ok
}

func (c *cteState) addSubPipeline(sp SubPipeline) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subPipelines = append(c.subPipelines, sp)
}

// PhysicalPlanBuilder turns an optimized logical tree into a physical
// plan, pruning each node's output to the columns its consumer needs.
// A builder is single-use for one compilation; nested builders created
// for sub-pipelines start a fresh plan id sequence but share the CTE
// state.
type PhysicalPlanBuilder struct {
	meta    *Metadata
	compCtx CompilerContext
	pool    *CompilePool
	dryRun  bool

	nextPlanID IndexType
	cte        *cteState
}

// BuilderOption tweaks a new PhysicalPlanBuilder.
type BuilderOption func(*PhysicalPlanBuilder)

// WithDryRun disables catalog calls during the build: table statistics
// are not refreshed and server functions are not resolved.
func WithDryRun(dryRun bool) BuilderOption {
	return func(b *PhysicalPlanBuilder) {
		b.dryRun = dryRun
	}
}

func WithCompilePool(pool *CompilePool) BuilderOption {
	return func(b *PhysicalPlanBuilder) {
		b.pool = pool
	}
}

func NewPhysicalPlanBuilder(meta *Metadata, compCtx CompilerContext, opts ...BuilderOption) *PhysicalPlanBuilder {
	b := &PhysicalPlanBuilder{
		meta:    meta,
		compCtx: compCtx,
		cte:     newCteState(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// nested spawns a builder for a sub-pipeline compilation. Plan ids
// restart at zero; the CTE state stays shared.
func (b *PhysicalPlanBuilder) nested() *PhysicalPlanBuilder {
	return &PhysicalPlanBuilder{
		meta:    b.meta,
		compCtx: b.compCtx,
		pool:    b.pool,
		dryRun:  b.dryRun,
		cte:     b.cte,
	}
}

// allocID hands out the next plan id. It is called after a node's
// children have been built, so ids are post-order: every node's id
// exceeds the ids in its subtree.
func (b *PhysicalPlanBuilder) allocID() IndexType {
	id := b.nextPlanID
	b.nextPlanID++
	return id
}

// SubPipelines returns the fragments compiled so far for union right
// inputs, in completion order.
func (b *PhysicalPlanBuilder) SubPipelines() []SubPipeline {
	b.cte.mu.Lock()
	defer b.cte.mu.Unlock()
	out := make([]SubPipeline, len(b.cte.subPipelines))
	copy(out, b.cte.subPipelines)
	return out
}

// Build compiles the tree, keeping only the columns in required at
// each node. Derivation runs first so every dispatch sees fresh
// properties and a cardinality estimate.
func (b *PhysicalPlanBuilder) Build(ctx context.Context, s *SExpr, required *ColumnSet) (PhysicalPlan, error) {
	if _, err := RelExprWithSExpr(s).DeriveRelationalProp(); err != nil {
		return nil, err
	}
	stat, err := RelExprWithSExpr(s).DeriveCardinality()
	if err != nil {
		return nil, err
	}
	stats := &PlanStatsInfo{EstimatedRows: stat.Cardinality}
	return s.Plan().buildPhysical(ctx, b, s, required, stats)
}

// buildChild compiles child i with its own required set.
func (b *PhysicalPlanBuilder) buildChild(ctx context.Context, s *SExpr, i int, required *ColumnSet) (PhysicalPlan, error) {
	child, err := s.Child(i)
	if err != nil {
		return nil, err
	}
	return b.Build(ctx, child, required)
}

func childOutputColumns(s *SExpr, i int) (*ColumnSet, error) {
	child, err := s.Child(i)
	if err != nil {
		return nil, err
	}
	prop, err := RelExprWithSExpr(child).DeriveRelationalProp()
	if err != nil {
		return nil, err
	}
	return prop.OutputColumns, nil
}

// outputBindings resolves the node's pruned output schema. When the
// consumer requires nothing the node produces, the full output is kept
// so the plan always carries a schema.
func (b *PhysicalPlanBuilder) outputBindings(ctx context.Context, s *SExpr, required *ColumnSet) ([]ColumnBinding, error) {
	prop, err := RelExprWithSExpr(s).DeriveRelationalProp()
	if err != nil {
		return nil, err
	}
	cols := prop.OutputColumns.Intersect(required)
	if cols.IsEmpty() {
		cols = prop.OutputColumns
	}
	return b.resolveBindings(ctx, cols)
}

func (b *PhysicalPlanBuilder) resolveBindings(ctx context.Context, cols *ColumnSet) ([]ColumnBinding, error) {
	bindings := make([]ColumnBinding, 0, cols.Len())
	for _, idx := range cols.ToSlice() {
		binding, err := b.meta.ColumnByIndex(ctx, idx)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, binding)
	}
	return bindings, nil
}

func (op *Scan) buildPhysical(ctx context.Context, b *PhysicalPlanBuilder, s *SExpr, required *ColumnSet, stats *PlanStatsInfo) (PhysicalPlan, error) {
	pruned := op.Columns.Intersect(required)
	if pruned.IsEmpty() && !op.Columns.IsEmpty() {
		// nothing required, keep the cheapest column so the scan still
		// yields rows
		pruned.Add(op.Columns.Min())
	}

	if !b.dryRun && op.TableStats == nil {
		ts, err := b.compCtx.Stats(op.TableIndex)
		if err != nil {
			return nil, err
		}
		if ts != nil {
			stats = &PlanStatsInfo{EstimatedRows: ts.RowCount}
		}
	}

	entry, err := b.meta.TableByIndex(ctx, op.TableIndex)
	if err != nil {
		return nil, err
	}
	output, err := b.resolveBindings(ctx, pruned)
	if err != nil {
		return nil, err
	}

	return &PhysicalTableScan{
		basePlan:   basePlan{id: b.allocID(), output: output, stats: stats},
		TableIndex: op.TableIndex,
		Ref:        entry.Ref,
		ColumnIDs:  pruned.ToSlice(),
	}, nil
}

func (op *DummyTableScan) buildPhysical(ctx context.Context, b *PhysicalPlanBuilder, s *SExpr, required *ColumnSet, stats *PlanStatsInfo) (PhysicalPlan, error) {
	return &PhysicalDummyScan{
		basePlan: basePlan{id: b.allocID(), stats: stats},
	}, nil
}

func (op *ConstantTableScan) buildPhysical(ctx context.Context, b *PhysicalPlanBuilder, s *SExpr, required *ColumnSet, stats *PlanStatsInfo) (PhysicalPlan, error) {
	columns := make([]ColumnBinding, 0, len(op.Columns))
	for _, col := range op.Columns {
		if required.Contains(col.Index) {
			columns = append(columns, col)
		}
	}
	if len(columns) == 0 {
		columns = op.Columns
	}
	return &PhysicalConstantTableScan{
		basePlan: basePlan{id: b.allocID(), output: columns, stats: stats},
		NumRows:  op.NumRows,
		Columns:  columns,
	}, nil
}

func (op *Join) buildPhysical(ctx context.Context, b *PhysicalPlanBuilder, s *SExpr, required *ColumnSet, stats *PlanStatsInfo) (PhysicalPlan, error) {
	leftOut, err := childOutputColumns(s, 0)
	if err != nil {
		return nil, err
	}
	rightOut, err := childOutputColumns(s, 1)
	if err != nil {
		return nil, err
	}

	need := required.Clone()
	need.UnionWith(exprListColumns(op.LeftConditions))
	need.UnionWith(exprListColumns(op.RightConditions))
	need.UnionWith(exprListColumns(op.NonEquiConditions))

	left, err := b.buildChild(ctx, s, 0, need.Intersect(leftOut))
	if err != nil {
		return nil, err
	}
	right, err := b.buildChild(ctx, s, 1, need.Intersect(rightOut))
	if err != nil {
		return nil, err
	}

	output, err := b.outputBindings(ctx, s, required)
	if err != nil {
		return nil, err
	}
	return &PhysicalJoin{
		basePlan:          basePlan{id: b.allocID(), children: []PhysicalPlan{left, right}, output: output, stats: stats},
		JoinType:          op.JoinType,
		LeftConditions:    op.LeftConditions,
		RightConditions:   op.RightConditions,
		NonEquiConditions: op.NonEquiConditions,
	}, nil
}

func (op *EvalScalar) buildPhysical(ctx context.Context, b *PhysicalPlanBuilder, s *SExpr, required *ColumnSet, stats *PlanStatsInfo) (PhysicalPlan, error) {
	kept := make([]ScalarItem, 0, len(op.Items))
	for _, item := range op.Items {
		if required.Contains(item.Index) {
			kept = append(kept, item)
		}
	}
	if len(kept) == 0 {
		kept = op.Items
	}

	childRequired := required.Clone()
	for _, item := range kept {
		childRequired.Remove(item.Index)
		item.Expr.AddColumnRefs(childRequired)
	}
	childOut, err := childOutputColumns(s, 0)
	if err != nil {
		return nil, err
	}

	child, err := b.buildChild(ctx, s, 0, childRequired.Intersect(childOut))
	if err != nil {
		return nil, err
	}
	output, err := b.outputBindings(ctx, s, required)
	if err != nil {
		return nil, err
	}
	return &PhysicalEvalScalar{
		basePlan: basePlan{id: b.allocID(), children: []PhysicalPlan{child}, output: output, stats: stats},
		Items:    kept,
	}, nil
}

func (op *Filter) buildPhysical(ctx context.Context, b *PhysicalPlanBuilder, s *SExpr, required *ColumnSet, stats *PlanStatsInfo) (PhysicalPlan, error) {
	childRequired := required.Union(exprListColumns(op.Predicates))
	childOut, err := childOutputColumns(s, 0)
	if err != nil {
		return nil, err
	}

	child, err := b.buildChild(ctx, s, 0, childRequired.Intersect(childOut))
	if err != nil {
		return nil, err
	}
	output, err := b.outputBindings(ctx, s, required)
	if err != nil {
		return nil, err
	}
	return &PhysicalFilter{
		basePlan:   basePlan{id: b.allocID(), children: []PhysicalPlan{child}, output: output, stats: stats},
		Predicates: op.Predicates,
	}, nil
}

func (op *Aggregate) buildPhysical(ctx context.Context, b *PhysicalPlanBuilder, s *SExpr, required *ColumnSet, stats *PlanStatsInfo) (PhysicalPlan, error) {
	childRequired := NewColumnSet()
	for _, item := range op.GroupItems {
		item.Expr.AddColumnRefs(childRequired)
	}
	for _, item := range op.AggregateFunctions {
		item.Expr.AddColumnRefs(childRequired)
	}
	childOut, err := childOutputColumns(s, 0)
	if err != nil {
		return nil, err
	}

	child, err := b.buildChild(ctx, s, 0, childRequired.Intersect(childOut))
	if err != nil {
		return nil, err
	}
	output, err := b.outputBindings(ctx, s, required)
	if err != nil {
		return nil, err
	}
	return &PhysicalAggregate{
		basePlan:           basePlan{id: b.allocID(), children: []PhysicalPlan{child}, output: output, stats: stats},
		GroupItems:         op.GroupItems,
		AggregateFunctions: op.AggregateFunctions,
		SpillDesc: AggregateSpillDesc{
			BucketCount:       -1,
			MaxPartitionCount: 0,
			AggPayload:        len(op.AggregateFunctions) > 0,
		},
	}, nil
}

func (op *Window) buildPhysical(ctx context.Context, b *PhysicalPlanBuilder, s *SExpr, required *ColumnSet, stats *PlanStatsInfo) (PhysicalPlan, error) {
	childRequired := required.Clone()
	childRequired.Remove(op.Index)
	childRequired.UnionWith(exprListColumns(op.Args))
	childRequired.UnionWith(exprListColumns(op.PartitionBy))
	for _, item := range op.OrderBy {
		childRequired.Add(item.Index)
	}
	childOut, err := childOutputColumns(s, 0)
	if err != nil {
		return nil, err
	}

	child, err := b.buildChild(ctx, s, 0, childRequired.Intersect(childOut))
	if err != nil {
		return nil, err
	}
	output, err := b.outputBindings(ctx, s, required)
	if err != nil {
		return nil, err
	}
	return &PhysicalWindow{
		basePlan:    basePlan{id: b.allocID(), children: []PhysicalPlan{child}, output: output, stats: stats},
		Index:       op.Index,
		FuncName:    op.FuncName,
		Typ:         op.Typ,
		Args:        op.Args,
		PartitionBy: op.PartitionBy,
		OrderBy:     op.OrderBy,
	}, nil
}

func (op *Sort) buildPhysical(ctx context.Context, b *PhysicalPlanBuilder, s *SExpr, required *ColumnSet, stats *PlanStatsInfo) (PhysicalPlan, error) {
	childRequired := required.Clone()
	for _, item := range op.Items {
		childRequired.Add(item.Index)
	}
	childOut, err := childOutputColumns(s, 0)
	if err != nil {
		return nil, err
	}

	child, err := b.buildChild(ctx, s, 0, childRequired.Intersect(childOut))
	if err != nil {
		return nil, err
	}
	output, err := b.outputBindings(ctx, s, required)
	if err != nil {
		return nil, err
	}
	return &PhysicalSort{
		basePlan: basePlan{id: b.allocID(), children: []PhysicalPlan{child}, output: output, stats: stats},
		Items:    op.Items,
		Limit:    op.Limit,
	}, nil
}

func (op *Limit) buildPhysical(ctx context.Context, b *PhysicalPlanBuilder, s *SExpr, required *ColumnSet, stats *PlanStatsInfo) (PhysicalPlan, error) {
	childOut, err := childOutputColumns(s, 0)
	if err != nil {
		return nil, err
	}
	child, err := b.buildChild(ctx, s, 0, required.Intersect(childOut))
	if err != nil {
		return nil, err
	}
	output, err := b.outputBindings(ctx, s, required)
	if err != nil {
		return nil, err
	}
	return &PhysicalLimit{
		basePlan: basePlan{id: b.allocID(), children: []PhysicalPlan{child}, output: output, stats: stats},
		Count:    op.Count,
		Offset:   op.Offset,
	}, nil
}

func (op *Exchange) buildPhysical(ctx context.Context, b *PhysicalPlanBuilder, s *SExpr, required *ColumnSet, stats *PlanStatsInfo) (PhysicalPlan, error) {
	childRequired := required.Union(exprListColumns(op.HashKeys))
	childOut, err := childOutputColumns(s, 0)
	if err != nil {
		return nil, err
	}

	child, err := b.buildChild(ctx, s, 0, childRequired.Intersect(childOut))
	if err != nil {
		return nil, err
	}
	output, err := b.outputBindings(ctx, s, required)
	if err != nil {
		return nil, err
	}
	return &PhysicalExchange{
		basePlan:     basePlan{id: b.allocID(), children: []PhysicalPlan{child}, output: output, stats: stats},
		ExchangeType: op.ExchangeType,
		HashKeys:     op.HashKeys,
	}, nil
}

// buildPhysical for UnionAll compiles the left input in place and the
// right input as a separate sub-pipeline on the compile pool. The
// fragment publishes through an unbounded channel whose receiving end
// is attached to the union node.
func (op *UnionAll) buildPhysical(ctx context.Context, b *PhysicalPlanBuilder, s *SExpr, required *ColumnSet, stats *PlanStatsInfo) (PhysicalPlan, error) {
	leftRequired := NewColumnSet()
	rightRequired := NewColumnSet()
	for _, pair := range op.Pairs {
		leftRequired.Add(pair[0])
		rightRequired.Add(pair[1])
	}

	left, err := b.buildChild(ctx, s, 0, leftRequired)
	if err != nil {
		return nil, err
	}

	rightChild, err := s.Child(1)
	if err != nil {
		return nil, err
	}
	channel := NewUnionChannel()
	nested := b.nested()
	errCh := b.pool.Submit(func() error {
		root, buildErr := nested.Build(ctx, rightChild, rightRequired)
		if buildErr != nil {
			return buildErr
		}
		b.cte.addSubPipeline(SubPipeline{Root: root, Channel: channel})
		return nil
	})
	if err := <-errCh; err != nil {
		return nil, err
	}
	logutil.Debug("union sub-pipeline compiled",
		zap.Int("pairs", len(op.Pairs)))

	leftSchema, err := b.resolveBindings(ctx, leftRequired)
	if err != nil {
		return nil, err
	}
	rightSchema, err := b.resolveBindings(ctx, rightRequired)
	if err != nil {
		return nil, err
	}
	return &PhysicalUnionAll{
		basePlan:    basePlan{id: b.allocID(), children: []PhysicalPlan{left}, output: leftSchema, stats: stats},
		Pairs:       op.Pairs,
		LeftSchema:  leftSchema,
		RightSchema: rightSchema,
		Receiver:    channel,
	}, nil
}

func (op *ProjectSet) buildPhysical(ctx context.Context, b *PhysicalPlanBuilder, s *SExpr, required *ColumnSet, stats *PlanStatsInfo) (PhysicalPlan, error) {
	childRequired := required.Clone()
	for _, item := range op.SrfItems {
		childRequired.Remove(item.Index)
		item.Expr.AddColumnRefs(childRequired)
	}
	childOut, err := childOutputColumns(s, 0)
	if err != nil {
		return nil, err
	}

	child, err := b.buildChild(ctx, s, 0, childRequired.Intersect(childOut))
	if err != nil {
		return nil, err
	}
	output, err := b.outputBindings(ctx, s, required)
	if err != nil {
		return nil, err
	}
	return &PhysicalProjectSet{
		basePlan: basePlan{id: b.allocID(), children: []PhysicalPlan{child}, output: output, stats: stats},
		SrfItems: op.SrfItems,
	}, nil
}

// buildPhysical for MaterializedCte compiles the producer first with
// its full output, registers that schema for consumers, then compiles
// the consuming side.
func (op *MaterializedCte) buildPhysical(ctx context.Context, b *PhysicalPlanBuilder, s *SExpr, required *ColumnSet, stats *PlanStatsInfo) (PhysicalPlan, error) {
	producerOut, err := childOutputColumns(s, 0)
	if err != nil {
		return nil, err
	}
	producer, err := b.buildChild(ctx, s, 0, producerOut)
	if err != nil {
		return nil, err
	}
	b.cte.setOutput(op.CteIndex, producer.OutputColumns())

	consumer, err := b.buildChild(ctx, s, 1, required)
	if err != nil {
		return nil, err
	}
	return &PhysicalMaterializedCte{
		basePlan: basePlan{id: b.allocID(), children: []PhysicalPlan{producer, consumer}, output: consumer.OutputColumns(), stats: stats},
		CteIndex: op.CteIndex,
	}, nil
}

func (op *CteScan) buildPhysical(ctx context.Context, b *PhysicalPlanBuilder, s *SExpr, required *ColumnSet, stats *PlanStatsInfo) (PhysicalPlan, error) {
	fields, ok := b.cte.output(op.CteIndex)
	if !ok {
		return nil, verr.NewCteNotFound(ctx, int32(op.CteIndex))
	}
	if len(op.Fields) > 0 {
		fields = op.Fields
	}
	return &PhysicalCteScan{
		basePlan: basePlan{id: b.allocID(), output: fields, stats: stats},
		CteIndex: op.CteIndex,
		Fields:   fields,
	}, nil
}

func (op *AddRowNumber) buildPhysical(ctx context.Context, b *PhysicalPlanBuilder, s *SExpr, required *ColumnSet, stats *PlanStatsInfo) (PhysicalPlan, error) {
	childRequired := required.Clone()
	childRequired.Remove(op.ColumnIndex)
	childOut, err := childOutputColumns(s, 0)
	if err != nil {
		return nil, err
	}

	child, err := b.buildChild(ctx, s, 0, childRequired.Intersect(childOut))
	if err != nil {
		return nil, err
	}
	output, err := b.outputBindings(ctx, s, required)
	if err != nil {
		return nil, err
	}
	return &PhysicalAddRowNumber{
		basePlan:    basePlan{id: b.allocID(), children: []PhysicalPlan{child}, output: output, stats: stats},
		ColumnIndex: op.ColumnIndex,
	}, nil
}

func (op *Udf) buildPhysical(ctx context.Context, b *PhysicalPlanBuilder, s *SExpr, required *ColumnSet, stats *PlanStatsInfo) (PhysicalPlan, error) {
	var defs []*UdfDefinition
	if !b.dryRun {
		for _, item := range op.Items {
			fc, ok := item.Expr.(*FuncCall)
			if !ok {
				continue
			}
			def, err := b.compCtx.ResolveUdf(fc.FuncName)
			if err != nil {
				return nil, err
			}
			defs = append(defs, def)
		}
	}

	childRequired := required.Clone()
	for _, item := range op.Items {
		childRequired.Remove(item.Index)
		item.Expr.AddColumnRefs(childRequired)
	}
	childOut, err := childOutputColumns(s, 0)
	if err != nil {
		return nil, err
	}

	child, err := b.buildChild(ctx, s, 0, childRequired.Intersect(childOut))
	if err != nil {
		return nil, err
	}
	output, err := b.outputBindings(ctx, s, required)
	if err != nil {
		return nil, err
	}
	return &PhysicalUdf{
		basePlan: basePlan{id: b.allocID(), children: []PhysicalPlan{child}, output: output, stats: stats},
		Items:    op.Items,
		Defs:     defs,
	}, nil
}
