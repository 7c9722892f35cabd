package docstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestMemoryClientContract(t *testing.T) {
	suite.Run(t, &ClientContractSuite{newClient: func() Client { return NewMemoryClient() }})
}

func TestMemoryClientListParentBecomesMap(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient()
	require.NoError(t, c.Put(ctx, "leaders", []any{nil, map[string]any{"id": "a"}}))

	v, err := c.Fetch(ctx, "leaders")
	require.NoError(t, err)
	assert.Equal(t, KindList, v.Kind())

	require.NoError(t, c.Put(ctx, "leaders/b", map[string]any{"id": "b"}))
	v, err = c.Fetch(ctx, "leaders")
	require.NoError(t, err)
	assert.Equal(t, KindMap, v.Kind())
	assert.JSONEq(t, `{"1":{"id":"a"},"b":{"id":"b"}}`, string(v.Raw()))
}

func TestMemoryClientFetchReturnsCopy(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryClient()
	fields := map[string]any{"id": "x", "name": "before"}
	require.NoError(t, c.Put(ctx, "members/x", fields))

	fields["name"] = "after"
	v, err := c.Fetch(ctx, "members/x")
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"x","name":"before"}`, string(v.Raw()))
}
