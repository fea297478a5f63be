// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

package storage

import (
	"context"
	"sync"
)

// Memory is a non-durable Store used for tests and throwaway sessions.
type Memory struct {
	mu     sync.RWMutex
	values map[string]string
	writes map[string]int
}

func NewMemory() *Memory {
	return &Memory{
		values: make(map[string]string),
		writes: make(map[string]int),
	}
}

func (m *Memory) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	val, ok := m.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return val, nil
}

func (m *Memory) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	m.writes[key]++
	return nil
}

// Writes returns how often key has been written.
func (m *Memory) Writes(key string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.writes[key]
}

func (m *Memory) Close() error {
	return nil
}
