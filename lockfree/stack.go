// File: lockfree/stack.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Treiber stack over arena handles. The head is a tagged word, so a pop
// racing with a pop-pop-push of the same handle fails its CAS.

package lockfree

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-lockfree/api"
	"github.com/momentics/hioload-lockfree/core/arena"
	"github.com/momentics/hioload-lockfree/core/atomicx"
)

// Stack is an unbounded (arena-bounded) lock-free LIFO.
type Stack[T any] struct {
	_     cpu.CacheLinePad
	head  atomicx.TaggedWord
	_     cpu.CacheLinePad
	size  atomic.Int64
	nodes *arena.Arena[T]
}

// NewStack creates an empty stack.
func NewStack[T any](opts ...Option) *Stack[T] {
	cfg := buildConfig(opts)
	return &Stack[T]{nodes: arena.New[T](cfg.arenaOption())}
}

// Push adds v on top. It fails only when the node arena is exhausted.
// Push never dereferences a shared node, so p needs no protection.
func (s *Stack[T]) Push(p api.Participant, v T) error {
	h, err := s.nodes.Alloc(v)
	if err != nil {
		return err
	}
	n := s.nodes.Node(h)
	for {
		old := s.head.Load(atomicx.Relaxed)
		n.Next.Store(atomicx.MakeTagged(old.Index(), 0), atomicx.Relaxed)
		if s.head.CompareAndSwapWeak(old, h, atomicx.Release, atomicx.Relaxed) {
			s.size.Add(1)
			return nil
		}
	}
}

// Pop removes the top value. ok is false when the stack was observed empty.
func (s *Stack[T]) Pop(p api.Participant) (v T, ok bool) {
	p.Enter()
	defer func() {
		p.Clear(0)
		p.Leave()
	}()
	for {
		old := p.Protect(0, &s.head)
		if old.IsNil() {
			return v, false
		}
		n := s.nodes.Node(old.Index())
		next := n.Next.Load(atomicx.Acquire)
		if s.head.CompareAndSwapWeak(old, next.Index(), atomicx.Acquire, atomicx.Acquire) {
			v = n.Value
			p.Clear(0)
			s.nodes.Retire(old.Index())
			p.Retire(old.Index(), s.nodes.Free)
			s.size.Add(-1)
			return v, true
		}
	}
}

// Drain pops until the stack is empty or fn returns false.
func (s *Stack[T]) Drain(p api.Participant, fn func(T) bool) int {
	n := 0
	for {
		v, ok := s.Pop(p)
		if !ok {
			return n
		}
		n++
		if !fn(v) {
			return n
		}
	}
}

// Len is approximate under concurrent use.
func (s *Stack[T]) Len() int { return int(s.size.Load()) }

// Nodes exposes arena statistics.
func (s *Stack[T]) Nodes() arena.Stats { return s.nodes.Stats() }
