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
	"github.com/axiomhq/hyperloglog"
)

const (
	defaultTableRowCount = 1000

	// selectivity factors per predicate shape
	selectivityEq      = 0.1
	selectivityRange   = 0.33
	selectivityLike    = 0.25
	selectivityDefault = 0.5

	// fallback group-by reduction when no NDV is known
	defaultAggReduction = 0.2
)

// ColumnStatistics is what the catalog knows about one column. NDV
// comes from a hyperloglog sketch when one was collected.
type ColumnStatistics struct {
	NullCount float64
	NdvValue  float64
	Sketch    *hyperloglog.Sketch
}

// Ndv returns the number of distinct values, preferring the sketch.
func (c *ColumnStatistics) Ndv() float64 {
	if c == nil {
		return 0
	}
	if c.Sketch != nil {
		return float64(c.Sketch.Estimate())
	}
	return c.NdvValue
}

// TableStatsInfo is the per-table statistics snapshot used by the
// cardinality estimator.
type TableStatsInfo struct {
	RowCount    float64
	ColumnStats map[IndexType]*ColumnStatistics
}

// StatInfo is the derived estimate for one sub-tree.
type StatInfo struct {
	Cardinality float64
	Selectivity float64

	// ColumnNDVs carries per-column distinct counts upward so joins
	// and aggregates can use key NDV.
	ColumnNDVs map[IndexType]float64
}

// PlanStatsInfo is the estimate attached to a physical plan node at
// build time. Derived, never mutated afterward.
type PlanStatsInfo struct {
	EstimatedRows float64
}

// DefaultStatInfo is used where no table statistics are reachable.
func DefaultStatInfo() *StatInfo {
	return &StatInfo{
		Cardinality: defaultTableRowCount,
		Selectivity: 1,
		ColumnNDVs:  map[IndexType]float64{},
	}
}

// predicateSelectivity estimates the fraction of rows one predicate
// keeps.
func predicateSelectivity(pred ScalarExpr) float64 {
	f, ok := pred.(*FuncCall)
	if !ok {
		return selectivityDefault
	}
	switch f.FuncName {
	case "=":
		return selectivityEq
	case "<", "<=", ">", ">=":
		return selectivityRange
	case "like":
		return selectivityLike
	case "and":
		sel := 1.0
		for _, arg := range f.Args {
			sel *= predicateSelectivity(arg)
		}
		return sel
	case "or":
		sel := 0.0
		for _, arg := range f.Args {
			sel += predicateSelectivity(arg)
		}
		if sel > 1 {
			sel = 1
		}
		return sel
	default:
		return selectivityDefault
	}
}

// filterListSelectivity multiplies the conjunction members.
func filterListSelectivity(preds []ScalarExpr) float64 {
	sel := 1.0
	for _, pred := range preds {
		sel *= predicateSelectivity(pred)
	}
	return sel
}
