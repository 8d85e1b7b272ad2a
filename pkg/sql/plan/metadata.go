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

	"github.com/google/btree"

	"github.com/vectradb/vectra/pkg/common/verr"
)

// TableEntry is a table registered during binding, together with the
// column index range assigned to it.
type TableEntry struct {
	TableIndex IndexType
	Ref        *ObjectRef
	Def        *TableDef

	columnStart IndexType
	columnEnd   IndexType
}

type columnItem struct {
	binding ColumnBinding
}

func (c *columnItem) Less(other btree.Item) bool {
	return c.binding.Index < other.(*columnItem).binding.Index
}

// Metadata assigns global column indexes and maps them back to their
// bindings. Builders running on sub-pipelines read it concurrently, so
// lookups take the read lock.
type Metadata struct {
	mu sync.RWMutex

	tables     []*TableEntry
	columns    *btree.BTree
	nextColumn IndexType
}

func NewMetadata() *Metadata {
	return &Metadata{
		columns: btree.New(2),
	}
}

// AddTable registers a table and assigns every column a fresh global
// index. It returns the new entry.
func (m *Metadata) AddTable(ref *ObjectRef, def *TableDef) *TableEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry := &TableEntry{
		TableIndex:  IndexType(len(m.tables)),
		Ref:         ref,
		Def:         def,
		columnStart: m.nextColumn,
	}
	for _, col := range def.Cols {
		idx := m.nextColumn
		m.nextColumn++
		m.columns.ReplaceOrInsert(&columnItem{
			binding: ColumnBinding{
				Index:      idx,
				Name:       col.Name,
				Typ:        col.Typ,
				TableIndex: entry.TableIndex,
			},
		})
	}
	entry.columnEnd = m.nextColumn
	m.tables = append(m.tables, entry)
	return entry
}

// AddDerivedColumn registers a column produced by an operator rather
// than scanned from a table. Its TableIndex is -1.
func (m *Metadata) AddDerivedColumn(name string, typ Type) ColumnBinding {
	m.mu.Lock()
	defer m.mu.Unlock()

	binding := ColumnBinding{
		Index:      m.nextColumn,
		Name:       name,
		Typ:        typ,
		TableIndex: -1,
	}
	m.nextColumn++
	m.columns.ReplaceOrInsert(&columnItem{binding: binding})
	return binding
}

func (m *Metadata) ColumnByIndex(ctx context.Context, idx IndexType) (ColumnBinding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item := m.columns.Get(&columnItem{binding: ColumnBinding{Index: idx}})
	if item == nil {
		return ColumnBinding{}, verr.NewColumnNotFound(ctx, int32(idx))
	}
	return item.(*columnItem).binding, nil
}

func (m *Metadata) TableByIndex(ctx context.Context, idx IndexType) (*TableEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if idx < 0 || int(idx) >= len(m.tables) {
		return nil, verr.NewNoSuchTable(ctx, int32(idx))
	}
	return m.tables[idx], nil
}

// ColumnsByTable returns the bindings of every column the table owns,
// in index order.
func (m *Metadata) ColumnsByTable(ctx context.Context, tableIndex IndexType) ([]ColumnBinding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if tableIndex < 0 || int(tableIndex) >= len(m.tables) {
		return nil, verr.NewNoSuchTable(ctx, int32(tableIndex))
	}
	entry := m.tables[tableIndex]

	bindings := make([]ColumnBinding, 0, entry.columnEnd-entry.columnStart)
	m.columns.AscendRange(
		&columnItem{binding: ColumnBinding{Index: entry.columnStart}},
		&columnItem{binding: ColumnBinding{Index: entry.columnEnd}},
		func(item btree.Item) bool {
			bindings = append(bindings, item.(*columnItem).binding)
			return true
		})
	return bindings, nil
}

// ColumnCount reports how many columns have been registered.
func (m *Metadata) ColumnCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.columns.Len()
}
