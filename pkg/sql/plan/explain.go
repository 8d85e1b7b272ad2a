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
	"fmt"
	"strings"
)

// WalkPhysical visits the plan pre-order. Returning false from fn
// stops the walk.
func WalkPhysical(p PhysicalPlan, fn func(PhysicalPlan) bool) bool {
	if p == nil {
		return true
	}
	if !fn(p) {
		return false
	}
	for _, child := range p.Children() {
		if !WalkPhysical(child, fn) {
			return false
		}
	}
	return true
}

// ExplainPhysical renders the plan as an indented tree, one node per
// line with its id, estimated rows and output schema.
func ExplainPhysical(p PhysicalPlan) string {
	var sb strings.Builder
	explainNode(&sb, p, 0)
	return sb.String()
}

func explainNode(sb *strings.Builder, p PhysicalPlan, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	sb.WriteString(fmt.Sprintf("%s (id=%d", p.Name(), p.PlanID()))
	if stats := p.Stats(); stats != nil {
		sb.WriteString(fmt.Sprintf(", rows=%.0f", stats.EstimatedRows))
	}
	sb.WriteString(")")

	if extra := explainExtra(p); extra != "" {
		sb.WriteString(" ")
		sb.WriteString(extra)
	}
	if output := p.OutputColumns(); len(output) > 0 {
		names := make([]string, len(output))
		for i, col := range output {
			names[i] = fmt.Sprintf("#%d", col.Index)
		}
		sb.WriteString(" [")
		sb.WriteString(strings.Join(names, ", "))
		sb.WriteString("]")
	}
	sb.WriteString("\n")

	for _, child := range p.Children() {
		explainNode(sb, child, depth+1)
	}
}

func explainExtra(p PhysicalPlan) string {
	switch node := p.(type) {
	case *PhysicalTableScan:
		if node.Ref != nil {
			return node.Ref.SchemaName + "." + node.Ref.ObjName
		}
		return fmt.Sprintf("table=%d", node.TableIndex)
	case *PhysicalJoin:
		return node.JoinType.String()
	case *PhysicalExchange:
		return node.ExchangeType.String()
	case *PhysicalLimit:
		if node.Count < 0 {
			return fmt.Sprintf("offset=%d", node.Offset)
		}
		return fmt.Sprintf("count=%d offset=%d", node.Count, node.Offset)
	case *PhysicalSort:
		if node.Limit >= 0 {
			return fmt.Sprintf("topN=%d", node.Limit)
		}
	case *PhysicalCteScan:
		return fmt.Sprintf("cte=%d", node.CteIndex)
	case *PhysicalMaterializedCte:
		return fmt.Sprintf("cte=%d", node.CteIndex)
	case *PhysicalWindow:
		return node.FuncName
	case *PhysicalUnionAll:
		return fmt.Sprintf("subPipeline pairs=%d", len(node.Pairs))
	}
	return ""
}
