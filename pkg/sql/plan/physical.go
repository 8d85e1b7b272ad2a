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

// PhysicalPlan is an executable plan node. Ids are assigned after the
// node's children have been built, so every node's id is greater than
// the ids of its subtree.
type PhysicalPlan interface {
	PlanID() IndexType
	Name() string
	Children() []PhysicalPlan
	OutputColumns() []ColumnBinding
	Stats() *PlanStatsInfo

	physicalPlan()
}

type basePlan struct {
	id       IndexType
	children []PhysicalPlan
	output   []ColumnBinding
	stats    *PlanStatsInfo
}

func (p *basePlan) PlanID() IndexType              { return p.id }
func (p *basePlan) Children() []PhysicalPlan       { return p.children }
func (p *basePlan) OutputColumns() []ColumnBinding { return p.output }
func (p *basePlan) Stats() *PlanStatsInfo          { return p.stats }
func (p *basePlan) physicalPlan()                  {}

type PhysicalTableScan struct {
	basePlan

	TableIndex IndexType
	Ref        *ObjectRef
	ColumnIDs  []IndexType
}

func (p *PhysicalTableScan) Name() string { return "TableScan" }

type PhysicalDummyScan struct {
	basePlan
}

func (p *PhysicalDummyScan) Name() string { return "DummyScan" }

type PhysicalJoin struct {
	basePlan

	JoinType          JoinType
	LeftConditions    []ScalarExpr
	RightConditions   []ScalarExpr
	NonEquiConditions []ScalarExpr
}

func (p *PhysicalJoin) Name() string { return "Join" }

type PhysicalEvalScalar struct {
	basePlan

	Items []ScalarItem
}

func (p *PhysicalEvalScalar) Name() string { return "EvalScalar" }

type PhysicalFilter struct {
	basePlan

	Predicates []ScalarExpr
}

func (p *PhysicalFilter) Name() string { return "Filter" }

// AggregateSpillDesc describes how a partial aggregate state is laid
// out when it spills. BucketCount -1 means the payload was never
// bucketed.
type AggregateSpillDesc struct {
	BucketCount       int64
	MaxPartitionCount int64
	AggPayload        bool
}

type PhysicalAggregate struct {
	basePlan

	GroupItems         []ScalarItem
	AggregateFunctions []ScalarItem
	SpillDesc          AggregateSpillDesc
}

func (p *PhysicalAggregate) Name() string { return "Aggregate" }

type PhysicalWindow struct {
	basePlan

	Index       IndexType
	FuncName    string
	Typ         Type
	Args        []ScalarExpr
	PartitionBy []ScalarExpr
	OrderBy     []SortItem
}

func (p *PhysicalWindow) Name() string { return "Window" }

type PhysicalSort struct {
	basePlan

	Items []SortItem
	Limit int64
}

func (p *PhysicalSort) Name() string { return "Sort" }

type PhysicalLimit struct {
	basePlan

	Count  int64
	Offset int64
}

func (p *PhysicalLimit) Name() string { return "Limit" }

type PhysicalExchange struct {
	basePlan

	ExchangeType ExchangeType
	HashKeys     []ScalarExpr
}

func (p *PhysicalExchange) Name() string { return "Exchange" }

// PhysicalUnionAll holds only the synchronously built left input. The
// right input compiles as a separate sub-pipeline that publishes rows
// through Receiver.
type PhysicalUnionAll struct {
	basePlan

	Pairs       [][2]IndexType
	LeftSchema  []ColumnBinding
	RightSchema []ColumnBinding
	Receiver    *UnionChannel
}

func (p *PhysicalUnionAll) Name() string { return "UnionAll" }

type PhysicalProjectSet struct {
	basePlan

	SrfItems []ScalarItem
}

func (p *PhysicalProjectSet) Name() string { return "ProjectSet" }

type PhysicalCteScan struct {
	basePlan

	CteIndex IndexType
	Fields   []ColumnBinding
}

func (p *PhysicalCteScan) Name() string { return "CteScan" }

type PhysicalMaterializedCte struct {
	basePlan

	CteIndex IndexType
}

func (p *PhysicalMaterializedCte) Name() string { return "MaterializedCte" }

type PhysicalConstantTableScan struct {
	basePlan

	NumRows uint64
	Columns []ColumnBinding
}

func (p *PhysicalConstantTableScan) Name() string { return "ConstantTableScan" }

type PhysicalAddRowNumber struct {
	basePlan

	ColumnIndex IndexType
}

func (p *PhysicalAddRowNumber) Name() string { return "AddRowNumber" }

type PhysicalUdf struct {
	basePlan

	Items []ScalarItem
	Defs  []*UdfDefinition
}

func (p *PhysicalUdf) Name() string { return "Udf" }
