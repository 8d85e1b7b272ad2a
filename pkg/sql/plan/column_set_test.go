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

	"github.com/smartystreets/goconvey/convey"
)

func TestColumnSetBasic(t *testing.T) {
	convey.Convey("add remove contains", t, func() {
		s := NewColumnSet(1, 3, 5)
		convey.So(s.Len(), convey.ShouldEqual, 3)
		convey.So(s.Contains(3), convey.ShouldBeTrue)
		convey.So(s.Contains(2), convey.ShouldBeFalse)

		s.Add(2)
		convey.So(s.Contains(2), convey.ShouldBeTrue)
		s.Remove(2)
		convey.So(s.Contains(2), convey.ShouldBeFalse)
		convey.So(s.IsEmpty(), convey.ShouldBeFalse)

		convey.So(NewColumnSet().IsEmpty(), convey.ShouldBeTrue)
	})
}

func TestColumnSetOps(t *testing.T) {
	convey.Convey("union and intersect build new sets", t, func() {
		a := NewColumnSet(1, 2, 3)
		b := NewColumnSet(3, 4)

		u := a.Union(b)
		convey.So(u.ToSlice(), convey.ShouldResemble, []IndexType{1, 2, 3, 4})
		convey.So(a.Len(), convey.ShouldEqual, 3)

		i := a.Intersect(b)
		convey.So(i.ToSlice(), convey.ShouldResemble, []IndexType{3})

		a.UnionWith(b)
		convey.So(a.Len(), convey.ShouldEqual, 4)
	})

	convey.Convey("clone is independent", t, func() {
		a := NewColumnSet(7)
		c := a.Clone()
		c.Add(8)
		convey.So(a.Contains(8), convey.ShouldBeFalse)
		convey.So(c.Contains(8), convey.ShouldBeTrue)
	})
}

func TestColumnSetContainsAll(t *testing.T) {
	convey.Convey("subset checks", t, func() {
		a := NewColumnSet(1, 2, 3)
		convey.So(a.ContainsAll(NewColumnSet(1, 3)), convey.ShouldBeTrue)
		convey.So(a.ContainsAll(NewColumnSet(1, 4)), convey.ShouldBeFalse)
		convey.So(a.ContainsAll(NewColumnSet()), convey.ShouldBeTrue)
		convey.So(NewColumnSet().ContainsAll(NewColumnSet(1)), convey.ShouldBeFalse)
	})
}

func TestColumnSetMinEquals(t *testing.T) {
	convey.Convey("min and equality", t, func() {
		a := NewColumnSet(9, 4, 6)
		convey.So(a.Min(), convey.ShouldEqual, IndexType(4))
		convey.So(a.Equals(NewColumnSet(4, 6, 9)), convey.ShouldBeTrue)
		convey.So(a.Equals(NewColumnSet(4, 6)), convey.ShouldBeFalse)
	})
}
