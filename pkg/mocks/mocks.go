// Package mocks provides hand-rolled test doubles for the engine seam.
package mocks

import (
	"context"
	"sync"

	"github.com/follower/nikola/pkg/task"
)

// MockEngine records every call made to it and returns canned results.
type MockEngine struct {
	mu sync.Mutex

	RunCode   int
	CleanErr  error
	ForgetErr error
	WatchCode int

	RunCalls    []RunCall
	CleanCalls  []CleanCall
	ForgetCount int
	WatchCount  int
}

// RunCall captures one Run invocation.
type RunCall struct {
	Graph     *task.WorkGraph
	Config    task.ExecutionConfig
	Selection []string
}

// CleanCall captures one Clean invocation.
type CleanCall struct {
	Graph     *task.WorkGraph
	DryRun    bool
	Selection []string
}

func (m *MockEngine) Run(ctx context.Context, graph *task.WorkGraph, cfg task.ExecutionConfig, selection []string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RunCalls = append(m.RunCalls, RunCall{Graph: graph, Config: cfg, Selection: selection})
	return m.RunCode
}

func (m *MockEngine) Clean(graph *task.WorkGraph, cfg task.ExecutionConfig, dryRun bool, selection []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CleanCalls = append(m.CleanCalls, CleanCall{Graph: graph, DryRun: dryRun, Selection: selection})
	return m.CleanErr
}

func (m *MockEngine) Forget() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ForgetCount++
	return m.ForgetErr
}

func (m *MockEngine) Watch(ctx context.Context, graph *task.WorkGraph, cfg task.ExecutionConfig) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WatchCount++
	return m.WatchCode
}
