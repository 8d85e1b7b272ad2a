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

import "context"

// RelOp tags one relational operator kind.
type RelOp int32

const (
	RelOpScan RelOp = iota + 1
	RelOpDummyTableScan
	RelOpJoin
	RelOpEvalScalar
	RelOpFilter
	RelOpAggregate
	RelOpWindow
	RelOpSort
	RelOpLimit
	RelOpExchange
	RelOpUnionAll
	RelOpProjectSet
	RelOpCteScan
	RelOpMaterializedCte
	RelOpConstantTableScan
	RelOpAddRowNumber
	RelOpUdf
)

var relOpNames = map[RelOp]string{
	RelOpScan:              "Scan",
	RelOpDummyTableScan:    "DummyTableScan",
	RelOpJoin:              "Join",
	RelOpEvalScalar:        "EvalScalar",
	RelOpFilter:            "Filter",
	RelOpAggregate:         "Aggregate",
	RelOpWindow:            "Window",
	RelOpSort:              "Sort",
	RelOpLimit:             "Limit",
	RelOpExchange:          "Exchange",
	RelOpUnionAll:          "UnionAll",
	RelOpProjectSet:        "ProjectSet",
	RelOpCteScan:           "CteScan",
	RelOpMaterializedCte:   "MaterializedCte",
	RelOpConstantTableScan: "ConstantTableScan",
	RelOpAddRowNumber:      "AddRowNumber",
	RelOpUdf:               "Udf",
}

func (op RelOp) String() string {
	if name, ok := relOpNames[op]; ok {
		return name
	}
	return "Unknown"
}

// RelOperator is the closed set of logical plan node payloads. A new
// variant does not compile until it implements buildPhysical, which
// keeps the physical dispatch total.
type RelOperator interface {
	Kind() RelOp

	buildPhysical(ctx context.Context, b *PhysicalPlanBuilder, s *SExpr, required *ColumnSet, stats *PlanStatsInfo) (PhysicalPlan, error)
}

// JoinType is the join kind carried by a Join operator.
type JoinType int32

const (
	JoinTypeInner JoinType = iota
	JoinTypeCross
	JoinTypeLeftOuter
	JoinTypeRightOuter
	JoinTypeFullOuter
	JoinTypeLeftSemi
	JoinTypeRightSemi
	JoinTypeLeftAnti
	JoinTypeRightAnti
	JoinTypeLeftMark
)

func (t JoinType) String() string {
	switch t {
	case JoinTypeInner:
		return "INNER"
	case JoinTypeCross:
		return "CROSS"
	case JoinTypeLeftOuter:
		return "LEFT OUTER"
	case JoinTypeRightOuter:
		return "RIGHT OUTER"
	case JoinTypeFullOuter:
		return "FULL OUTER"
	case JoinTypeLeftSemi:
		return "LEFT SEMI"
	case JoinTypeRightSemi:
		return "RIGHT SEMI"
	case JoinTypeLeftAnti:
		return "LEFT ANTI"
	case JoinTypeRightAnti:
		return "RIGHT ANTI"
	case JoinTypeLeftMark:
		return "LEFT MARK"
	default:
		return "UNKNOWN"
	}
}

// ExchangeType is the redistribution scheme an Exchange node asks the
// transport layer to realize.
type ExchangeType int32

const (
	ExchangeHash ExchangeType = iota
	ExchangeBroadcast
	ExchangeMerge
)

func (t ExchangeType) String() string {
	switch t {
	case ExchangeHash:
		return "HASH"
	case ExchangeBroadcast:
		return "BROADCAST"
	case ExchangeMerge:
		return "MERGE"
	default:
		return "UNKNOWN"
	}
}

// Scan reads a base table. Columns is the full set of column indexes
// the binder registered for the table; the physical builder prunes it.
type Scan struct {
	TableIndex IndexType
	Columns    *ColumnSet

	// TableStats is the binder-attached statistics snapshot, nil when
	// the catalog had none.
	TableStats *TableStatsInfo
}

func (op *Scan) Kind() RelOp { return RelOpScan }

// DummyTableScan produces exactly one empty row (SELECT without FROM).
type DummyTableScan struct{}

func (op *DummyTableScan) Kind() RelOp { return RelOpDummyTableScan }

// Join combines two children. Equi-join keys are split per side;
// LeftConditions[i] pairs with RightConditions[i].
type Join struct {
	JoinType          JoinType
	LeftConditions    []ScalarExpr
	RightConditions   []ScalarExpr
	NonEquiConditions []ScalarExpr
}

func (op *Join) Kind() RelOp { return RelOpJoin }

// EvalScalar projects computed expressions.
type EvalScalar struct {
	Items []ScalarItem
}

func (op *EvalScalar) Kind() RelOp { return RelOpEvalScalar }

// Filter keeps rows satisfying the conjunction of Predicates.
type Filter struct {
	Predicates []ScalarExpr
}

func (op *Filter) Kind() RelOp { return RelOpFilter }

// Aggregate groups by GroupItems and evaluates AggregateFunctions.
type Aggregate struct {
	GroupItems         []ScalarItem
	AggregateFunctions []ScalarItem
}

func (op *Aggregate) Kind() RelOp { return RelOpAggregate }

// Window evaluates one window function over partitions.
type Window struct {
	Index       IndexType
	FuncName    string
	Typ         Type
	Args        []ScalarExpr
	PartitionBy []ScalarExpr
	OrderBy     []SortItem
}

func (op *Window) Kind() RelOp { return RelOpWindow }

// Sort orders rows; a non-negative Limit turns it into a top-N sort.
type Sort struct {
	Items []SortItem
	// Limit < 0 means no limit pushed into the sort.
	Limit int64
}

func (op *Sort) Kind() RelOp { return RelOpSort }

// Limit keeps Count rows after skipping Offset. Count < 0 means
// offset-only.
type Limit struct {
	Count  int64
	Offset int64
}

func (op *Limit) Kind() RelOp { return RelOpLimit }

// Exchange marks a data-redistribution boundary. The builder emits the
// target scheme; the pipeline layer realizes it.
type Exchange struct {
	ExchangeType ExchangeType
	HashKeys     []ScalarExpr
}

func (op *Exchange) Kind() RelOp { return RelOpExchange }

// UnionAll concatenates two children. Pairs maps the output column
// (the left index, Pairs[i][0]) to the right child column that feeds
// it (Pairs[i][1]).
type UnionAll struct {
	Pairs [][2]IndexType
}

func (op *UnionAll) Kind() RelOp { return RelOpUnionAll }

// ProjectSet evaluates set-returning functions.
type ProjectSet struct {
	SrfItems []ScalarItem
}

func (op *ProjectSet) Kind() RelOp { return RelOpProjectSet }

// CteScan reads the materialized output of a CTE producer. It is a
// non-owning reference: the producer is found through the shared CTE
// table, never through a child pointer.
type CteScan struct {
	CteIndex IndexType
	Fields   []ColumnBinding
}

func (op *CteScan) Kind() RelOp { return RelOpCteScan }

// MaterializedCte owns the CTE producer as child 0 and the consuming
// query as child 1.
type MaterializedCte struct {
	CteIndex IndexType
}

func (op *MaterializedCte) Kind() RelOp { return RelOpMaterializedCte }

// ConstantTableScan produces an inline constant relation.
type ConstantTableScan struct {
	NumRows uint64
	Columns []ColumnBinding
}

func (op *ConstantTableScan) Kind() RelOp { return RelOpConstantTableScan }

// AddRowNumber tags each row with a row number column, used by the
// distributed right-join strategy.
type AddRowNumber struct {
	ColumnIndex IndexType
}

func (op *AddRowNumber) Kind() RelOp { return RelOpAddRowNumber }

// Udf evaluates server-side functions; each item is a FuncCall whose
// name resolves through the catalog at build time.
type Udf struct {
	Items []ScalarItem
}

func (op *Udf) Kind() RelOp { return RelOpUdf }
