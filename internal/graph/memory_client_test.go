package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryClient_QueuesPerMode(t *testing.T) {
	mem := NewMemoryClient()
	mem.PushReadResult(Result{Records: []Record{{"n": int64(1)}}})

	_, err := mem.ExecuteWrite(context.Background(), "CREATE (n)", map[string]any{"k": "v"})
	require.NoError(t, err)
	res, err := mem.ExecuteRead(context.Background(), "MATCH (n) RETURN n", nil)
	require.NoError(t, err)

	require.Len(t, res.Records, 1)
	assert.Equal(t, int64(1), res.Records[0]["n"])
	require.Len(t, mem.WriteCalls(), 1)
	assert.Equal(t, "v", mem.WriteCalls()[0].Params["k"])
	assert.Len(t, mem.ReadCalls(), 1)
}

func TestMemoryClient_Errors(t *testing.T) {
	boom := errors.New("boom")
	mem := NewMemoryClient().WithError(boom).WithConnectivityError(boom)

	_, err := mem.ExecuteRead(context.Background(), "RETURN 1", nil)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, mem.VerifyConnectivity(context.Background()), boom)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewMemoryClient().ExecuteWrite(ctx, "RETURN 1", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewNeo4jClient_RequiresURI(t *testing.T) {
	_, err := NewNeo4jClient(context.Background(), Options{})
	assert.ErrorIs(t, err, ErrMissingURI)
}
