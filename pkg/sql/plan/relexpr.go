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
	"math"

	"github.com/vectradb/vectra/pkg/common/verr"
)

// RelationalProp is the derived relational property of a sub-tree.
type RelationalProp struct {
	// OutputColumns are the column indexes the sub-tree can produce.
	OutputColumns *ColumnSet
	// UsedColumns are the columns the root operator's own fields
	// reference.
	UsedColumns *ColumnSet
}

// RelExpr wraps an SExpr for property and cardinality derivation.
// Derived values are cached on the node; rewrites build new nodes and
// therefore re-derive.
type RelExpr struct {
	s *SExpr
}

func RelExprWithSExpr(s *SExpr) *RelExpr {
	return &RelExpr{s: s}
}

// DeriveRelationalProp computes output and used columns bottom-up.
func (r *RelExpr) DeriveRelationalProp() (*RelationalProp, error) {
	if r.s.relProp != nil {
		return r.s.relProp, nil
	}

	childProps := make([]*RelationalProp, len(r.s.children))
	for i, child := range r.s.children {
		prop, err := RelExprWithSExpr(child).DeriveRelationalProp()
		if err != nil {
			return nil, err
		}
		childProps[i] = prop
	}

	prop := &RelationalProp{
		OutputColumns: NewColumnSet(),
		UsedColumns:   NewColumnSet(),
	}

	switch op := r.s.op.(type) {
	case *Scan:
		prop.OutputColumns = op.Columns.Clone()

	case *DummyTableScan:

	case *ConstantTableScan:
		for _, col := range op.Columns {
			prop.OutputColumns.Add(col.Index)
		}

	case *CteScan:
		for _, col := range op.Fields {
			prop.OutputColumns.Add(col.Index)
		}

	case *Join:
		if err := r.checkArity(2); err != nil {
			return nil, err
		}
		switch op.JoinType {
		case JoinTypeLeftSemi, JoinTypeLeftAnti, JoinTypeLeftMark:
			prop.OutputColumns = childProps[0].OutputColumns.Clone()
		case JoinTypeRightSemi, JoinTypeRightAnti:
			prop.OutputColumns = childProps[1].OutputColumns.Clone()
		default:
			prop.OutputColumns = childProps[0].OutputColumns.Union(childProps[1].OutputColumns)
		}
		prop.UsedColumns.UnionWith(exprListColumns(op.LeftConditions))
		prop.UsedColumns.UnionWith(exprListColumns(op.RightConditions))
		prop.UsedColumns.UnionWith(exprListColumns(op.NonEquiConditions))

	case *EvalScalar:
		if err := r.checkArity(1); err != nil {
			return nil, err
		}
		prop.OutputColumns = childProps[0].OutputColumns.Clone()
		for _, item := range op.Items {
			prop.OutputColumns.Add(item.Index)
			item.Expr.AddColumnRefs(prop.UsedColumns)
		}

	case *Filter:
		if err := r.checkArity(1); err != nil {
			return nil, err
		}
		prop.OutputColumns = childProps[0].OutputColumns.Clone()
		prop.UsedColumns = exprListColumns(op.Predicates)

	case *Aggregate:
		if err := r.checkArity(1); err != nil {
			return nil, err
		}
		for _, item := range op.GroupItems {
			prop.OutputColumns.Add(item.Index)
			item.Expr.AddColumnRefs(prop.UsedColumns)
		}
		for _, item := range op.AggregateFunctions {
			prop.OutputColumns.Add(item.Index)
			item.Expr.AddColumnRefs(prop.UsedColumns)
		}

	case *Window:
		if err := r.checkArity(1); err != nil {
			return nil, err
		}
		prop.OutputColumns = childProps[0].OutputColumns.Clone()
		prop.OutputColumns.Add(op.Index)
		prop.UsedColumns.UnionWith(exprListColumns(op.Args))
		prop.UsedColumns.UnionWith(exprListColumns(op.PartitionBy))
		for _, item := range op.OrderBy {
			prop.UsedColumns.Add(item.Index)
		}

	case *Sort:
		if err := r.checkArity(1); err != nil {
			return nil, err
		}
		prop.OutputColumns = childProps[0].OutputColumns.Clone()
		for _, item := range op.Items {
			prop.UsedColumns.Add(item.Index)
		}

	case *Limit:
		if err := r.checkArity(1); err != nil {
			return nil, err
		}
		prop.OutputColumns = childProps[0].OutputColumns.Clone()

	case *Exchange:
		if err := r.checkArity(1); err != nil {
			return nil, err
		}
		prop.OutputColumns = childProps[0].OutputColumns.Clone()
		prop.UsedColumns = exprListColumns(op.HashKeys)

	case *UnionAll:
		if err := r.checkArity(2); err != nil {
			return nil, err
		}
		for _, pair := range op.Pairs {
			prop.OutputColumns.Add(pair[0])
			prop.UsedColumns.Add(pair[0])
			prop.UsedColumns.Add(pair[1])
		}

	case *ProjectSet:
		if err := r.checkArity(1); err != nil {
			return nil, err
		}
		prop.OutputColumns = childProps[0].OutputColumns.Clone()
		for _, item := range op.SrfItems {
			prop.OutputColumns.Add(item.Index)
			item.Expr.AddColumnRefs(prop.UsedColumns)
		}

	case *MaterializedCte:
		if err := r.checkArity(2); err != nil {
			return nil, err
		}
		prop.OutputColumns = childProps[1].OutputColumns.Clone()

	case *AddRowNumber:
		if err := r.checkArity(1); err != nil {
			return nil, err
		}
		prop.OutputColumns = childProps[0].OutputColumns.Clone()
		prop.OutputColumns.Add(op.ColumnIndex)

	case *Udf:
		if err := r.checkArity(1); err != nil {
			return nil, err
		}
		prop.OutputColumns = childProps[0].OutputColumns.Clone()
		for _, item := range op.Items {
			prop.OutputColumns.Add(item.Index)
			item.Expr.AddColumnRefs(prop.UsedColumns)
		}

	default:
		return nil, verr.NewInternalError(context.Background(),
			"derive property: unknown operator %T", r.s.op)
	}

	r.s.relProp = prop
	return prop, nil
}

// DeriveCardinality estimates the row count of the sub-tree.
func (r *RelExpr) DeriveCardinality() (*StatInfo, error) {
	if r.s.statInfo != nil {
		return r.s.statInfo, nil
	}

	childStats := make([]*StatInfo, len(r.s.children))
	for i, child := range r.s.children {
		stat, err := RelExprWithSExpr(child).DeriveCardinality()
		if err != nil {
			return nil, err
		}
		childStats[i] = stat
	}

	var stat *StatInfo

	switch op := r.s.op.(type) {
	case *Scan:
		stat = deriveScanStats(op)

	case *DummyTableScan:
		stat = &StatInfo{Cardinality: 1, Selectivity: 1, ColumnNDVs: map[IndexType]float64{}}

	case *ConstantTableScan:
		stat = &StatInfo{Cardinality: float64(op.NumRows), Selectivity: 1, ColumnNDVs: map[IndexType]float64{}}

	case *CteScan:
		stat = DefaultStatInfo()

	case *Join:
		if err := r.checkArity(2); err != nil {
			return nil, err
		}
		stat = deriveJoinStats(op, childStats[0], childStats[1])

	case *Filter:
		if err := r.checkArity(1); err != nil {
			return nil, err
		}
		child := childStats[0]
		sel := filterListSelectivity(op.Predicates)
		stat = &StatInfo{
			Cardinality: child.Cardinality * sel,
			Selectivity: clampSelectivity(child.Selectivity * sel),
			ColumnNDVs:  clampNDVs(child.ColumnNDVs, child.Cardinality*sel),
		}

	case *Aggregate:
		if err := r.checkArity(1); err != nil {
			return nil, err
		}
		stat = deriveAggregateStats(op, childStats[0])

	case *Limit:
		if err := r.checkArity(1); err != nil {
			return nil, err
		}
		child := childStats[0]
		card := child.Cardinality - float64(op.Offset)
		if card < 0 {
			card = 0
		}
		if op.Count >= 0 && float64(op.Count) < card {
			card = float64(op.Count)
		}
		stat = &StatInfo{Cardinality: card, Selectivity: child.Selectivity, ColumnNDVs: clampNDVs(child.ColumnNDVs, card)}

	case *Sort:
		if err := r.checkArity(1); err != nil {
			return nil, err
		}
		child := childStats[0]
		card := child.Cardinality
		if op.Limit >= 0 && float64(op.Limit) < card {
			card = float64(op.Limit)
		}
		stat = &StatInfo{Cardinality: card, Selectivity: child.Selectivity, ColumnNDVs: clampNDVs(child.ColumnNDVs, card)}

	case *UnionAll:
		if err := r.checkArity(2); err != nil {
			return nil, err
		}
		stat = &StatInfo{
			Cardinality: childStats[0].Cardinality + childStats[1].Cardinality,
			Selectivity: 1,
			ColumnNDVs:  map[IndexType]float64{},
		}

	case *ProjectSet:
		if err := r.checkArity(1); err != nil {
			return nil, err
		}
		child := childStats[0]
		// assume each set-returning function yields two rows per input
		card := child.Cardinality * 2
		stat = &StatInfo{Cardinality: card, Selectivity: child.Selectivity, ColumnNDVs: clampNDVs(child.ColumnNDVs, card)}

	case *MaterializedCte:
		if err := r.checkArity(2); err != nil {
			return nil, err
		}
		stat = childStats[1]

	case *EvalScalar, *Window, *Exchange, *AddRowNumber, *Udf:
		if err := r.checkArity(1); err != nil {
			return nil, err
		}
		stat = childStats[0]

	default:
		return nil, verr.NewInternalError(context.Background(),
			"derive cardinality: unknown operator %T", r.s.op)
	}

	r.s.statInfo = stat
	return stat, nil
}

func (r *RelExpr) checkArity(want int) error {
	if len(r.s.children) != want {
		return verr.NewInternalError(context.Background(),
			"%s node has %d children, want %d", r.s.op.Kind(), len(r.s.children), want)
	}
	return nil
}

func deriveScanStats(op *Scan) *StatInfo {
	if op.TableStats == nil {
		stat := DefaultStatInfo()
		return stat
	}
	ndvs := make(map[IndexType]float64, len(op.TableStats.ColumnStats))
	for col, cs := range op.TableStats.ColumnStats {
		if ndv := cs.Ndv(); ndv > 0 {
			ndvs[col] = math.Min(ndv, op.TableStats.RowCount)
		}
	}
	return &StatInfo{
		Cardinality: op.TableStats.RowCount,
		Selectivity: 1,
		ColumnNDVs:  ndvs,
	}
}

func deriveJoinStats(op *Join, left, right *StatInfo) *StatInfo {
	ndv := joinKeyNdv(op, left, right)
	if ndv < 1 {
		ndv = 1
	}
	selectivity := math.Pow(right.Selectivity, math.Pow(left.Selectivity, 0.5))

	merged := make(map[IndexType]float64, len(left.ColumnNDVs)+len(right.ColumnNDVs))
	for col, v := range left.ColumnNDVs {
		merged[col] = v
	}
	for col, v := range right.ColumnNDVs {
		merged[col] = v
	}

	var outcnt float64
	switch op.JoinType {
	case JoinTypeInner:
		outcnt = left.Cardinality * right.Cardinality / ndv * selectivity
	case JoinTypeCross:
		outcnt = left.Cardinality * right.Cardinality
	case JoinTypeLeftOuter:
		outcnt = left.Cardinality*right.Cardinality/ndv*selectivity + left.Cardinality
	case JoinTypeRightOuter:
		outcnt = left.Cardinality*right.Cardinality/ndv*selectivity + right.Cardinality
	case JoinTypeFullOuter:
		outcnt = left.Cardinality*right.Cardinality/ndv*selectivity + left.Cardinality + right.Cardinality
	case JoinTypeLeftSemi, JoinTypeLeftAnti, JoinTypeLeftMark:
		outcnt = left.Cardinality * selectivity
	case JoinTypeRightSemi, JoinTypeRightAnti:
		outcnt = right.Cardinality * selectivity
	default:
		outcnt = left.Cardinality * right.Cardinality / ndv
	}

	return &StatInfo{
		Cardinality: outcnt,
		Selectivity: clampSelectivity(selectivity),
		ColumnNDVs:  clampNDVs(merged, outcnt),
	}
}

// joinKeyNdv uses the largest known key NDV; without key statistics it
// falls back to the smaller input.
func joinKeyNdv(op *Join, left, right *StatInfo) float64 {
	keyCols := NewColumnSet()
	keyCols.UnionWith(exprListColumns(op.LeftConditions))
	keyCols.UnionWith(exprListColumns(op.RightConditions))

	ndv := 0.0
	for _, col := range keyCols.ToSlice() {
		if v, ok := left.ColumnNDVs[col]; ok && v > ndv {
			ndv = v
		}
		if v, ok := right.ColumnNDVs[col]; ok && v > ndv {
			ndv = v
		}
	}
	if ndv == 0 {
		ndv = math.Min(left.Cardinality, right.Cardinality)
	}
	return ndv
}

func deriveAggregateStats(op *Aggregate, child *StatInfo) *StatInfo {
	if len(op.GroupItems) == 0 {
		return &StatInfo{Cardinality: 1, Selectivity: 1, ColumnNDVs: map[IndexType]float64{}}
	}

	card := 1.0
	known := true
	for _, item := range op.GroupItems {
		ref, ok := item.Expr.(*ColumnRef)
		if !ok {
			known = false
			break
		}
		ndv, ok := child.ColumnNDVs[ref.Column.Index]
		if !ok {
			known = false
			break
		}
		card *= ndv
	}
	if !known {
		card = child.Cardinality * defaultAggReduction
	}
	if card > child.Cardinality {
		card = child.Cardinality
	}
	if card < 1 {
		card = 1
	}

	return &StatInfo{
		Cardinality: card,
		Selectivity: 1,
		ColumnNDVs:  clampNDVs(child.ColumnNDVs, card),
	}
}

func clampSelectivity(sel float64) float64 {
	if sel < 0 {
		return 0
	}
	if sel > 1 {
		return 1
	}
	return sel
}

func clampNDVs(ndvs map[IndexType]float64, card float64) map[IndexType]float64 {
	out := make(map[IndexType]float64, len(ndvs))
	for col, v := range ndvs {
		if v > card {
			v = card
		}
		out[col] = v
	}
	return out
}
