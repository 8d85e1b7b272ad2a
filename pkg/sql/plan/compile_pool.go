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

import "github.com/panjf2000/ants/v2"

// CompilePool runs nested plan compilations, one task per union
// sub-pipeline. A nil or failed pool degrades to inline execution so
// planning never depends on worker availability. The pool is
// nonblocking: a union nested inside another union's sub-pipeline
// submits from a pool worker, and blocking there for a free worker
// would deadlock once nesting depth reaches the worker count.
type CompilePool struct {
	pool *ants.Pool
}

func NewCompilePool(workers int) *CompilePool {
	if workers <= 0 {
		return &CompilePool{}
	}
	pool, err := ants.NewPool(workers, ants.WithNonblocking(true))
	if err != nil {
		return &CompilePool{}
	}
	return &CompilePool{pool: pool}
}

// Submit schedules task and returns a channel that yields its error.
// When the pool is saturated or absent the task runs inline on the
// caller's goroutine.
func (p *CompilePool) Submit(task func() error) <-chan error {
	done := make(chan error, 1)
	run := func() {
		done <- task()
	}
	if p == nil || p.pool == nil {
		run()
		return done
	}
	if err := p.pool.Submit(run); err != nil {
		run()
	}
	return done
}

func (p *CompilePool) Release() {
	if p != nil && p.pool != nil {
		p.pool.Release()
	}
}
