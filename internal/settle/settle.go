// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package settle turns callback-pair style calls into single-settlement results.
package settle

import (
	"context"
	"sync"
)

// Call is the result of a callback-style operation that settles exactly once. The first call
// to Settle, Resolve or Reject wins, every later call is a no-op.
type Call[T any] struct {
	once  sync.Once
	done  chan struct{}
	value T
	err   error
}

// New returns an unsettled Call.
func New[T any]() *Call[T] {
	return &Call[T]{done: make(chan struct{})}
}

// Settle runs fn and stores its result if the Call has not been settled yet. fn runs at most
// once per Call and completes before waiters are released, so side effects in fn are visible
// to anyone who observed the settlement. It reports whether this invocation settled the Call.
func (c *Call[T]) Settle(fn func() (T, error)) bool {
	settled := false
	c.once.Do(func() {
		defer close(c.done)
		c.value, c.err = fn()
		settled = true
	})
	return settled
}

// Resolve settles the Call with a value.
func (c *Call[T]) Resolve(value T) bool {
	return c.Settle(func() (T, error) { return value, nil })
}

// Reject settles the Call with an error.
func (c *Call[T]) Reject(err error) bool {
	return c.Settle(func() (T, error) {
		var zero T
		return zero, err
	})
}

// Done returns a channel that is closed once the Call is settled.
func (c *Call[T]) Done() <-chan struct{} {
	return c.done
}

// Settled reports whether the Call has been settled.
func (c *Call[T]) Settled() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the Call is settled or ctx is done. A context error only ends the wait; the
// underlying operation is not withdrawn and may still settle the Call later.
func (c *Call[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-c.done:
		return c.value, c.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Do issues a callback-style operation and waits for its single settlement.
func Do[T any](ctx context.Context, issue func(resolve func(T), reject func(error))) (T, error) {
	call := New[T]()
	issue(func(v T) { call.Resolve(v) }, func(err error) { call.Reject(err) })
	return call.Wait(ctx)
}
