// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package tiles

import (
	"reflect"
	"sync"

	"github.com/gogpu/tilecomp/colorspace"
)

// Pool recycles sample buffers through one sync.Pool per buffer length.
//
// Tile storage and owned descriptor buffers both come from a Pool. Buffers
// returned by Get are zeroed.
//
// Thread safety: Pool is safe for concurrent use.
type Pool[Q colorspace.Quantum] struct {
	// pools maps a buffer length to its *sync.Pool of *[]Q.
	pools sync.Map
}

// NewPool creates an empty pool.
func NewPool[Q colorspace.Quantum]() *Pool[Q] {
	return &Pool[Q]{}
}

// Get returns a zeroed buffer of exactly n samples.
func (p *Pool[Q]) Get(n int) []Q {
	if n <= 0 {
		return nil
	}
	bp := p.sized(n).Get().(*[]Q)
	buf := *bp
	clear(buf)
	return buf
}

// Put returns buf for reuse. Nil and empty buffers are ignored.
func (p *Pool[Q]) Put(buf []Q) {
	if len(buf) == 0 {
		return
	}
	buf = buf[:cap(buf)]
	p.sized(len(buf)).Put(&buf)
}

func (p *Pool[Q]) sized(n int) *sync.Pool {
	if sp, ok := p.pools.Load(n); ok {
		return sp.(*sync.Pool)
	}
	sp := &sync.Pool{
		New: func() any {
			buf := make([]Q, n)
			return &buf
		},
	}
	actual, _ := p.pools.LoadOrStore(n, sp)
	return actual.(*sync.Pool)
}

var defaultPools sync.Map

// DefaultPool returns the package-level pool for Q. Managers created
// without WithPool and descriptors created by Acquire use it.
func DefaultPool[Q colorspace.Quantum]() *Pool[Q] {
	key := reflect.TypeFor[Q]()
	if p, ok := defaultPools.Load(key); ok {
		return p.(*Pool[Q])
	}
	p, _ := defaultPools.LoadOrStore(key, NewPool[Q]())
	return p.(*Pool[Q])
}
