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

	"github.com/RoaringBitmap/roaring"
)

// ColumnSet is a set of column indexes. Column indexes are never
// negative, so they map directly onto bitmap keys.
type ColumnSet struct {
	bm *roaring.Bitmap
}

func NewColumnSet(cols ...IndexType) *ColumnSet {
	s := &ColumnSet{bm: roaring.New()}
	for _, col := range cols {
		s.Add(col)
	}
	return s
}

func (s *ColumnSet) Add(col IndexType) {
	s.bm.Add(uint32(col))
}

func (s *ColumnSet) Remove(col IndexType) {
	s.bm.Remove(uint32(col))
}

func (s *ColumnSet) Contains(col IndexType) bool {
	return s.bm.Contains(uint32(col))
}

func (s *ColumnSet) Len() int {
	return int(s.bm.GetCardinality())
}

func (s *ColumnSet) IsEmpty() bool {
	return s.bm.IsEmpty()
}

func (s *ColumnSet) Clone() *ColumnSet {
	return &ColumnSet{bm: s.bm.Clone()}
}

// UnionWith adds all of other into s.
func (s *ColumnSet) UnionWith(other *ColumnSet) {
	s.bm.Or(other.bm)
}

// Union returns a new set holding s ∪ other.
func (s *ColumnSet) Union(other *ColumnSet) *ColumnSet {
	r := s.Clone()
	r.UnionWith(other)
	return r
}

// Intersect returns a new set holding s ∩ other.
func (s *ColumnSet) Intersect(other *ColumnSet) *ColumnSet {
	r := s.Clone()
	r.bm.And(other.bm)
	return r
}

// ContainsAll reports whether every column of other is in s.
func (s *ColumnSet) ContainsAll(other *ColumnSet) bool {
	return other.bm.AndCardinality(s.bm) == other.bm.GetCardinality()
}

func (s *ColumnSet) Equals(other *ColumnSet) bool {
	return s.bm.Equals(other.bm)
}

// Min returns the smallest column index; s must not be empty.
func (s *ColumnSet) Min() IndexType {
	return IndexType(s.bm.Minimum())
}

// ToSlice returns the columns in ascending order.
func (s *ColumnSet) ToSlice() []IndexType {
	out := make([]IndexType, 0, s.Len())
	it := s.bm.Iterator()
	for it.HasNext() {
		out = append(out, IndexType(it.Next()))
	}
	return out
}

func (s *ColumnSet) String() string {
	var sb strings.Builder
	sb.WriteByte('{')
	for i, col := range s.ToSlice() {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%d", col)
	}
	sb.WriteByte('}')
	return sb.String()
}
