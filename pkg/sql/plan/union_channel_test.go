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
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnionChannelSendRecv(t *testing.T) {
	c := NewUnionChannel()

	require.True(t, c.Send(&DataBatch{Rows: [][]any{{int64(1)}}}))
	require.True(t, c.Send(&DataBatch{Rows: [][]any{{int64(2)}}}))
	require.Equal(t, 2, c.Len())

	first, ok := c.Recv()
	require.True(t, ok)
	require.Equal(t, int64(1), first.Rows[0][0])

	second, ok := c.Recv()
	require.True(t, ok)
	require.Equal(t, int64(2), second.Rows[0][0])
}

func TestUnionChannelSenderNeverBlocks(t *testing.T) {
	c := NewUnionChannel()
	for i := 0; i < 10000; i++ {
		require.True(t, c.Send(&DataBatch{}))
	}
	require.Equal(t, 10000, c.Len())
}

func TestUnionChannelClose(t *testing.T) {
	c := NewUnionChannel()
	c.Send(&DataBatch{})
	c.Close()

	// buffered batches stay readable after close
	_, ok := c.Recv()
	require.True(t, ok)
	_, ok = c.Recv()
	require.False(t, ok)

	require.False(t, c.Send(&DataBatch{}))
}

func TestUnionChannelConcurrent(t *testing.T) {
	c := NewUnionChannel()
	const senders, perSender = 4, 250

	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perSender; j++ {
				c.Send(&DataBatch{})
			}
		}()
	}
	go func() {
		wg.Wait()
		c.Close()
	}()

	got := 0
	for {
		if _, ok := c.Recv(); !ok {
			break
		}
		got++
	}
	require.Equal(t, senders*perSender, got)
}
