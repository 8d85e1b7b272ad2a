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

// ScalarExpr is a bound scalar expression. The set of variants is
// closed; the binder produces no others.
type ScalarExpr interface {
	Type() Type
	// AddColumnRefs adds every column referenced anywhere in the
	// expression to set.
	AddColumnRefs(set *ColumnSet)
	String() string

	scalarExpr()
}

// ColumnRef references a bound column by index.
type ColumnRef struct {
	Column ColumnBinding
}

func (c *ColumnRef) Type() Type { return c.Column.Typ }

func (c *ColumnRef) AddColumnRefs(set *ColumnSet) {
	set.Add(c.Column.Index)
}

func (c *ColumnRef) String() string {
	if c.Column.Name != "" {
		return fmt.Sprintf("%s#%d", c.Column.Name, c.Column.Index)
	}
	return fmt.Sprintf("#%d", c.Column.Index)
}

func (c *ColumnRef) scalarExpr() {}

// Constant is a literal value. Value holds bool, int64, float64 or
// string according to Typ.
type Constant struct {
	Typ   Type
	Value any
}

func (c *Constant) Type() Type                   { return c.Typ }
func (c *Constant) AddColumnRefs(set *ColumnSet) {}
func (c *Constant) String() string               { return fmt.Sprintf("%v", c.Value) }
func (c *Constant) scalarExpr()                  {}

// FuncCall is a bound scalar function application.
type FuncCall struct {
	FuncName string
	Typ      Type
	Args     []ScalarExpr
}

func (f *FuncCall) Type() Type { return f.Typ }

func (f *FuncCall) AddColumnRefs(set *ColumnSet) {
	for _, arg := range f.Args {
		arg.AddColumnRefs(set)
	}
}

func (f *FuncCall) String() string {
	args := make([]string, len(f.Args))
	for i, arg := range f.Args {
		args[i] = arg.String()
	}
	return fmt.Sprintf("%s(%s)", f.FuncName, strings.Join(args, ", "))
}

func (f *FuncCall) scalarExpr() {}

// CastExpr converts its argument to Typ.
type CastExpr struct {
	Typ Type
	Arg ScalarExpr
}

func (c *CastExpr) Type() Type { return c.Typ }

func (c *CastExpr) AddColumnRefs(set *ColumnSet) {
	c.Arg.AddColumnRefs(set)
}

func (c *CastExpr) String() string {
	return fmt.Sprintf("cast(%s as %s)", c.Arg.String(), c.Typ)
}

func (c *CastExpr) scalarExpr() {}

// ScalarItem binds an expression to the output column index it
// produces.
type ScalarItem struct {
	Expr  ScalarExpr
	Index IndexType
}

// SortItem orders by a produced column.
type SortItem struct {
	Index      IndexType
	Asc        bool
	NullsFirst bool
}

// exprListColumns collects the columns referenced by a list of
// expressions.
func exprListColumns(exprs []ScalarExpr) *ColumnSet {
	set := NewColumnSet()
	for _, expr := range exprs {
		expr.AddColumnRefs(set)
	}
	return set
}
