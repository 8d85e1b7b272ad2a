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

import "sync"

// DataBatch is one unit of rows flowing from a sub-pipeline into the
// consuming union operator.
type DataBatch struct {
	Columns []ColumnBinding
	Rows    [][]any
}

// UnionChannel links a union sub-pipeline to its consumer. The sender
// side never blocks: batches queue in memory until the receiver drains
// them. A plan-time handle is attached to the union node; the runtime
// wires both ends when the sub-pipeline starts.
type UnionChannel struct {
	mu     sync.Mutex
	cond   *sync.Cond
	buf    []*DataBatch
	closed bool
}

func NewUnionChannel() *UnionChannel {
	c := &UnionChannel{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// Send enqueues a batch. Sending on a closed channel reports false.
func (c *UnionChannel) Send(batch *DataBatch) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	c.buf = append(c.buf, batch)
	c.cond.Signal()
	return true
}

// Recv blocks until a batch is available or the channel is closed and
// drained. The second return is false once nothing more will arrive.
func (c *UnionChannel) Recv() (*DataBatch, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.buf) == 0 && !c.closed {
		c.cond.Wait()
	}
	if len(c.buf) == 0 {
		return nil, false
	}
	batch := c.buf[0]
	c.buf = c.buf[1:]
	return batch, true
}

// Close marks the sender side finished. Buffered batches stay readable.
func (c *UnionChannel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		c.cond.Broadcast()
	}
}

// Len reports how many batches are queued.
func (c *UnionChannel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buf)
}
