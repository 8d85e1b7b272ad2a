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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vectradb/vectra/pkg/config"
)

func TestPlannerBuildPlan(t *testing.T) {
	f := newBuilderFixture(t)
	planner := NewPlanner(f.meta, f.compCtx, &config.PlannerConfig{CompileWorkers: 2})
	defer planner.Close()

	// a semi join over a grouped input rewrites to an inner join and
	// then compiles
	agg := NewUnarySExpr(&Aggregate{
		GroupItems: []ScalarItem{{Expr: colRef(1), Index: 1}},
	}, f.scanWithStats(100))
	tree := NewBinarySExpr(&Join{
		JoinType:        JoinTypeLeftSemi,
		LeftConditions:  []ScalarExpr{colRef(0)},
		RightConditions: []ScalarExpr{colRef(1)},
	}, f.scanWithStats(1000), agg)

	result, err := planner.BuildPlan(context.Background(), tree, NewColumnSet(0), false)
	require.NoError(t, err)

	join, ok := result.Root.(*PhysicalJoin)
	require.True(t, ok)
	require.Equal(t, JoinTypeInner, join.JoinType)
	require.Empty(t, result.SubPipelines)
}

func TestPlannerBuildPlanWithUnion(t *testing.T) {
	f := newBuilderFixture(t)
	planner := NewPlanner(f.meta, f.compCtx, nil)
	defer planner.Close()

	tree := NewBinarySExpr(&UnionAll{Pairs: [][2]IndexType{{0, 1}}},
		f.scanWithStats(10), f.scanWithStats(20))

	result, err := planner.BuildPlan(context.Background(), tree, NewColumnSet(0), false)
	require.NoError(t, err)
	require.Len(t, result.SubPipelines, 1)
	require.Same(t, result.Root.(*PhysicalUnionAll).Receiver, result.SubPipelines[0].Channel)
}

func TestPlannerDryRun(t *testing.T) {
	f := newBuilderFixture(t)
	planner := NewPlanner(f.meta, f.compCtx, nil)
	defer planner.Close()

	// no table statistics attached and no catalog expectations: only a
	// dry run can compile this
	scan := NewLeafSExpr(&Scan{TableIndex: f.entry.TableIndex, Columns: NewColumnSet(0, 1, 2)})
	result, err := planner.BuildPlan(context.Background(), scan, NewColumnSet(0), true)
	require.NoError(t, err)
	require.IsType(t, &PhysicalTableScan{}, result.Root)
}
