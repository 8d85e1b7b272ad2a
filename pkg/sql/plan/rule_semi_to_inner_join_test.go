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
	"testing"

	"github.com/stretchr/testify/require"
)

func colRef(idx IndexType) *ColumnRef {
	return &ColumnRef{Column: ColumnBinding{Index: idx, Typ: TypeInt64, TableIndex: -1}}
}

func testScan(cols ...IndexType) *SExpr {
	return NewLeafSExpr(&Scan{TableIndex: 0, Columns: NewColumnSet(cols...)})
}

func groupedOn(input *SExpr, keys ...IndexType) *SExpr {
	items := make([]ScalarItem, len(keys))
	for i, key := range keys {
		items[i] = ScalarItem{Expr: colRef(key), Index: key}
	}
	return NewUnarySExpr(&Aggregate{GroupItems: items}, input)
}

func leftSemiJoin(left, right *SExpr, key IndexType) *SExpr {
	return NewBinarySExpr(&Join{
		JoinType:        JoinTypeLeftSemi,
		LeftConditions:  []ScalarExpr{colRef(0)},
		RightConditions: []ScalarExpr{colRef(key)},
	}, left, right)
}

func applySemiToInner(t *testing.T, s *SExpr) []*SExpr {
	t.Helper()
	rule := NewRuleSemiToInnerJoin()
	require.True(t, rule.Matchers()[0].Matches(s))
	var result TransformResult
	require.NoError(t, rule.Apply(s, &result))
	return result.Results()
}

func TestSemiToInnerJoinApplies(t *testing.T) {
	join := leftSemiJoin(testScan(0, 1), groupedOn(testScan(10, 11), 10), 10)

	results := applySemiToInner(t, join)
	require.Len(t, results, 1)

	rewritten := results[0]
	newJoin := rewritten.Plan().(*Join)
	require.Equal(t, JoinTypeInner, newJoin.JoinType)
	require.Equal(t, join.Plan().(*Join).LeftConditions, newJoin.LeftConditions)
	require.Equal(t, join.Plan().(*Join).RightConditions, newJoin.RightConditions)
	require.True(t, rewritten.RuleApplied(RuleIDSemiToInnerJoin))

	// children are carried over untouched
	left, err := join.Child(0)
	require.NoError(t, err)
	newLeft, err := rewritten.Child(0)
	require.NoError(t, err)
	require.Same(t, left, newLeft)
}

func TestSemiToInnerJoinThroughPreservingOperators(t *testing.T) {
	agg := groupedOn(testScan(10, 11), 10)
	right := NewUnarySExpr(&EvalScalar{Items: []ScalarItem{{Expr: colRef(10), Index: 10}}},
		NewUnarySExpr(&Filter{Predicates: []ScalarExpr{colRef(11)}}, agg))

	results := applySemiToInner(t, leftSemiJoin(testScan(0), right, 10))
	require.Len(t, results, 1)
}

func TestSemiToInnerJoinBlockedByOtherOperators(t *testing.T) {
	// a Limit may drop rows after the aggregation; keys are no longer
	// known to be distinct over the full input
	right := NewUnarySExpr(&Limit{Count: 10}, groupedOn(testScan(10), 10))
	results := applySemiToInner(t, leftSemiJoin(testScan(0), right, 10))
	require.Empty(t, results)
}

func TestSemiToInnerJoinKeysNotGrouped(t *testing.T) {
	// grouped on 11, joined on 10
	results := applySemiToInner(t, leftSemiJoin(testScan(0), groupedOn(testScan(10, 11), 11), 10))
	require.Empty(t, results)
}

func TestSemiToInnerJoinMultiKeySubset(t *testing.T) {
	join := NewBinarySExpr(&Join{
		JoinType:        JoinTypeLeftSemi,
		LeftConditions:  []ScalarExpr{colRef(0), colRef(1)},
		RightConditions: []ScalarExpr{colRef(10), colRef(11)},
	}, testScan(0, 1), groupedOn(testScan(10, 11, 12), 10, 11, 12))

	// every key appears in a wider group-by: still eligible
	results := applySemiToInner(t, join)
	require.Len(t, results, 1)
}

func TestSemiToInnerJoinCastWrappedKey(t *testing.T) {
	join := NewBinarySExpr(&Join{
		JoinType:        JoinTypeLeftSemi,
		LeftConditions:  []ScalarExpr{colRef(0)},
		RightConditions: []ScalarExpr{&CastExpr{Typ: TypeInt64, Arg: colRef(10)}},
	}, testScan(0), groupedOn(testScan(10), 10))

	results := applySemiToInner(t, join)
	require.Len(t, results, 1)
}

func TestSemiToInnerJoinOpaqueKeyExpressions(t *testing.T) {
	// expressions other than column refs and casts contribute no key
	// columns; the containment check runs on what remains
	join := NewBinarySExpr(&Join{
		JoinType:        JoinTypeLeftSemi,
		LeftConditions:  []ScalarExpr{colRef(0), colRef(1)},
		RightConditions: []ScalarExpr{&FuncCall{FuncName: "abs", Typ: TypeInt64, Args: []ScalarExpr{colRef(10)}}, colRef(11)},
	}, testScan(0, 1), groupedOn(testScan(10, 11), 11))

	var result TransformResult
	require.NoError(t, NewRuleSemiToInnerJoin().Apply(join, &result))
	require.Len(t, result.Results(), 1)
}

func TestSemiToInnerJoinRightSemi(t *testing.T) {
	join := NewBinarySExpr(&Join{
		JoinType:        JoinTypeRightSemi,
		LeftConditions:  []ScalarExpr{colRef(10)},
		RightConditions: []ScalarExpr{colRef(0)},
	}, groupedOn(testScan(10), 10), testScan(0))

	results := applySemiToInner(t, join)
	require.Len(t, results, 1)
	require.Equal(t, JoinTypeInner, results[0].Plan().(*Join).JoinType)
}

func TestSemiToInnerJoinNonSemiDeclines(t *testing.T) {
	for _, jt := range []JoinType{JoinTypeInner, JoinTypeLeftOuter, JoinTypeLeftAnti, JoinTypeLeftMark} {
		join := NewBinarySExpr(&Join{
			JoinType:        jt,
			LeftConditions:  []ScalarExpr{colRef(0)},
			RightConditions: []ScalarExpr{colRef(10)},
		}, testScan(0), groupedOn(testScan(10), 10))

		var result TransformResult
		require.NoError(t, NewRuleSemiToInnerJoin().Apply(join, &result))
		require.Empty(t, result.Results(), "join type %s", jt)
	}
}

func TestSemiToInnerJoinNoConditionsDeclines(t *testing.T) {
	join := NewBinarySExpr(&Join{JoinType: JoinTypeLeftSemi},
		testScan(0), groupedOn(testScan(10), 10))

	var result TransformResult
	require.NoError(t, NewRuleSemiToInnerJoin().Apply(join, &result))
	require.Empty(t, result.Results())
}

func TestSemiToInnerJoinDoesNotMutateInput(t *testing.T) {
	join := leftSemiJoin(testScan(0), groupedOn(testScan(10), 10), 10)
	results := applySemiToInner(t, join)
	require.Len(t, results, 1)

	require.Equal(t, JoinTypeLeftSemi, join.Plan().(*Join).JoinType)
	require.False(t, join.RuleApplied(RuleIDSemiToInnerJoin))
}
