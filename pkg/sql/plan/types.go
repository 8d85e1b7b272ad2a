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
)

// IndexType names a column in the metadata registry. Indexes are
// process-unique and stable across rewrites.
type IndexType = int32

// Type is the value type of a column or scalar expression.
type Type int32

const (
	TypeAny Type = iota
	TypeBool
	TypeInt64
	TypeFloat64
	TypeString
	TypeDate
	TypeTimestamp
)

func (t Type) String() string {
	switch t {
	case TypeBool:
		return "bool"
	case TypeInt64:
		return "int64"
	case TypeFloat64:
		return "float64"
	case TypeString:
		return "string"
	case TypeDate:
		return "date"
	case TypeTimestamp:
		return "timestamp"
	default:
		return "any"
	}
}

// ObjectRef names a catalog object.
type ObjectRef struct {
	SchemaName string
	ObjName    string
}

// ColDef is one column of a table definition.
type ColDef struct {
	Name string
	Typ  Type
}

// TableDef is the scan descriptor the catalog resolves a table name to.
type TableDef struct {
	Name string
	Cols []*ColDef
}

// ColumnBinding is a resolved output column of a plan node.
type ColumnBinding struct {
	Index IndexType
	Name  string
	Typ   Type
	// TableIndex is -1 for derived columns.
	TableIndex IndexType
}

// UdfDefinition is the catalog's view of a server-side function.
type UdfDefinition struct {
	Name     string
	Language string
	Body     string
	RetType  Type
}

// CompilerContext is the capability handed into the planner by the
// session layer. It reaches the catalog; failures coming out of it are
// collaborator failures and abort the compilation.
type CompilerContext interface {
	GetContext() context.Context

	// Stats fetches table-level statistics for a scan. Not called in
	// dry-run compilations.
	Stats(tableIndex IndexType) (*TableStatsInfo, error)

	// ResolveUdf looks up a server-side function definition.
	ResolveUdf(name string) (*UdfDefinition, error)
}
