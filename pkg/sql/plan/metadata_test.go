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
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vectradb/vectra/pkg/common/verr"
)

func tableDefAB(name string) *TableDef {
	return &TableDef{Name: name, Cols: []*ColDef{
		{Name: "a", Typ: TypeInt64},
		{Name: "b", Typ: TypeString},
	}}
}

func TestMetadataAddTable(t *testing.T) {
	meta := NewMetadata()
	t1 := meta.AddTable(&ObjectRef{SchemaName: "db", ObjName: "t1"}, tableDefAB("t1"))
	t2 := meta.AddTable(&ObjectRef{SchemaName: "db", ObjName: "t2"}, tableDefAB("t2"))

	require.Equal(t, IndexType(0), t1.TableIndex)
	require.Equal(t, IndexType(1), t2.TableIndex)
	require.Equal(t, 4, meta.ColumnCount())

	ctx := context.Background()
	cols, err := meta.ColumnsByTable(ctx, t2.TableIndex)
	require.NoError(t, err)
	require.Len(t, cols, 2)
	require.Equal(t, IndexType(2), cols[0].Index)
	require.Equal(t, "a", cols[0].Name)
	require.Equal(t, t2.TableIndex, cols[0].TableIndex)
}

func TestMetadataColumnByIndex(t *testing.T) {
	meta := NewMetadata()
	meta.AddTable(&ObjectRef{SchemaName: "db", ObjName: "t1"}, tableDefAB("t1"))

	ctx := context.Background()
	binding, err := meta.ColumnByIndex(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, "b", binding.Name)
	require.Equal(t, TypeString, binding.Typ)

	_, err = meta.ColumnByIndex(ctx, 99)
	require.True(t, verr.IsErrCode(err, verr.ErrColumnNotFound))
}

func TestMetadataDerivedColumns(t *testing.T) {
	meta := NewMetadata()
	meta.AddTable(&ObjectRef{SchemaName: "db", ObjName: "t1"}, tableDefAB("t1"))

	derived := meta.AddDerivedColumn("sum_a", TypeInt64)
	require.Equal(t, IndexType(2), derived.Index)
	require.Equal(t, IndexType(-1), derived.TableIndex)

	binding, err := meta.ColumnByIndex(context.Background(), derived.Index)
	require.NoError(t, err)
	require.Equal(t, "sum_a", binding.Name)
}

func TestMetadataTableByIndex(t *testing.T) {
	meta := NewMetadata()
	entry := meta.AddTable(&ObjectRef{SchemaName: "db", ObjName: "t1"}, tableDefAB("t1"))

	ctx := context.Background()
	got, err := meta.TableByIndex(ctx, entry.TableIndex)
	require.NoError(t, err)
	require.Equal(t, "t1", got.Def.Name)

	_, err = meta.TableByIndex(ctx, 5)
	require.True(t, verr.IsErrCode(err, verr.ErrNoSuchTable))
}

func TestMetadataConcurrentAccess(t *testing.T) {
	meta := NewMetadata()
	meta.AddTable(&ObjectRef{SchemaName: "db", ObjName: "t1"}, tableDefAB("t1"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				meta.AddDerivedColumn("d", TypeInt64)
				_, _ = meta.ColumnByIndex(context.Background(), 0)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, 2+8*100, meta.ColumnCount())
}
