package graph

import (
	"context"
	"maps"
	"sync"
)

// Mode distinguishes read from write queries recorded by MemoryClient.
type Mode string

const (
	ModeRead  Mode = "read"
	ModeWrite Mode = "write"
)

// ExecutedQuery captures one statement run against a MemoryClient.
type ExecutedQuery struct {
	Mode   Mode
	Query  string
	Params map[string]any
}

// MemoryClient records queries and replays queued results. It stands in for
// Neo4j in repository and service tests.
type MemoryClient struct {
	mu           sync.Mutex
	calls        []ExecutedQuery
	queued       map[Mode][]Result
	err          error
	connectivity error
}

// NewMemoryClient returns an empty client. Unqueued queries yield no records.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{queued: make(map[Mode][]Result)}
}

// WithError makes every subsequent query fail with err.
func (m *MemoryClient) WithError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithConnectivityError makes VerifyConnectivity fail with err.
func (m *MemoryClient) WithConnectivityError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectivity = err
	return m
}

// PushReadResult queues res for the next ExecuteRead.
func (m *MemoryClient) PushReadResult(res Result) { m.push(ModeRead, res) }

// PushWriteResult queues res for the next ExecuteWrite.
func (m *MemoryClient) PushWriteResult(res Result) { m.push(ModeWrite, res) }

func (m *MemoryClient) push(mode Mode, res Result) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued[mode] = append(m.queued[mode], res)
}

func (m *MemoryClient) ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	return m.execute(ctx, ModeWrite, cypher, params)
}

func (m *MemoryClient) ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	return m.execute(ctx, ModeRead, cypher, params)
}

func (m *MemoryClient) execute(ctx context.Context, mode Mode, cypher string, params map[string]any) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return Result{}, m.err
	}
	m.calls = append(m.calls, ExecutedQuery{Mode: mode, Query: cypher, Params: maps.Clone(params)})

	queue := m.queued[mode]
	if len(queue) == 0 {
		return Result{}, nil
	}
	m.queued[mode] = queue[1:]
	return queue[0], nil
}

func (m *MemoryClient) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectivity
}

func (m *MemoryClient) Close(context.Context) error {
	return nil
}

// WriteCalls returns the write queries executed so far.
func (m *MemoryClient) WriteCalls() []ExecutedQuery { return m.callsOf(ModeWrite) }

// ReadCalls returns the read queries executed so far.
func (m *MemoryClient) ReadCalls() []ExecutedQuery { return m.callsOf(ModeRead) }

func (m *MemoryClient) callsOf(mode Mode) []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ExecutedQuery
	for _, c := range m.calls {
		if c.Mode == mode {
			out = append(out, c)
		}
	}
	return out
}
