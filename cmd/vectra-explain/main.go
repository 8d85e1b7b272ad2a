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

// vectra-explain compiles a sample query tree and prints the physical
// plan, mainly as a smoke check for a planner configuration file.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/vectradb/vectra/pkg/config"
	"github.com/vectradb/vectra/pkg/logutil"
	"github.com/vectradb/vectra/pkg/sql/plan"
)

var configFile = flag.String("config", "", "planner configuration file (toml)")

type staticCompilerContext struct{}

func (staticCompilerContext) GetContext() context.Context { return context.Background() }

func (staticCompilerContext) Stats(tableIndex plan.IndexType) (*plan.TableStatsInfo, error) {
	return &plan.TableStatsInfo{RowCount: 10000}, nil
}

func (staticCompilerContext) ResolveUdf(name string) (*plan.UdfDefinition, error) {
	return &plan.UdfDefinition{Name: name}, nil
}

func run() error {
	cfg := &config.PlannerConfig{}
	if *configFile != "" {
		loaded, err := config.LoadPlannerConfig(*configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg.SetDefaultValues()
	logutil.SetupLogger(&cfg.Log)

	meta := plan.NewMetadata()
	orders := meta.AddTable(
		&plan.ObjectRef{SchemaName: "demo", ObjName: "orders"},
		&plan.TableDef{Name: "orders", Cols: []*plan.ColDef{
			{Name: "id", Typ: plan.TypeInt64},
			{Name: "customer_id", Typ: plan.TypeInt64},
			{Name: "amount", Typ: plan.TypeFloat64},
		}})
	customers := meta.AddTable(
		&plan.ObjectRef{SchemaName: "demo", ObjName: "customers"},
		&plan.TableDef{Name: "customers", Cols: []*plan.ColDef{
			{Name: "id", Typ: plan.TypeInt64},
		}})

	customerID := plan.ColumnBinding{Index: 1, Name: "customer_id", Typ: plan.TypeInt64, TableIndex: orders.TableIndex}
	custID := plan.ColumnBinding{Index: 3, Name: "id", Typ: plan.TypeInt64, TableIndex: customers.TableIndex}

	// orders semi-joined against grouped customer ids
	grouped := plan.NewUnarySExpr(&plan.Aggregate{
		GroupItems: []plan.ScalarItem{{Expr: &plan.ColumnRef{Column: custID}, Index: custID.Index}},
	}, plan.NewLeafSExpr(&plan.Scan{TableIndex: customers.TableIndex, Columns: plan.NewColumnSet(3)}))
	tree := plan.NewBinarySExpr(&plan.Join{
		JoinType:        plan.JoinTypeLeftSemi,
		LeftConditions:  []plan.ScalarExpr{&plan.ColumnRef{Column: customerID}},
		RightConditions: []plan.ScalarExpr{&plan.ColumnRef{Column: custID}},
	}, plan.NewLeafSExpr(&plan.Scan{TableIndex: orders.TableIndex, Columns: plan.NewColumnSet(0, 1, 2)}), grouped)

	planner := plan.NewPlanner(meta, staticCompilerContext{}, cfg)
	defer planner.Close()

	result, err := planner.BuildPlan(context.Background(), tree, plan.NewColumnSet(0, 2), false)
	if err != nil {
		return err
	}
	fmt.Print(plan.ExplainPhysical(result.Root))
	return nil
}

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
