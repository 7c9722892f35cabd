package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"azadi/internal/content/models"
	dErrors "azadi/pkg/domain-errors"
)

func leaders(ids ...string) []models.Leader {
	out := make([]models.Leader, len(ids))
	for i, id := range ids {
		out[i] = models.Leader{ID: id, Name: models.LocalizedText{EN: id}, Order: i + 1}
	}
	return out
}

func TestSaveAllRetriesTransientFailures(t *testing.T) {
	ctx := context.Background()
	client := newFlakyClient()
	client.transient["leaders/b"] = 2
	c := NewCollection(client, models.CollectionLeaders, SeedLeaders, WithRetry(fastRetry))

	require.NoError(t, c.SaveAll(ctx, leaders("a", "b", "c")))

	got, err := c.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestSaveAllReportsEveryPermanentFailure(t *testing.T) {
	ctx := context.Background()
	client := newFlakyClient()
	client.permanent["leaders/b"] = true
	client.permanent["leaders/d"] = true
	c := NewCollection(client, models.CollectionLeaders, SeedLeaders, WithRetry(fastRetry), WithParallelism(2))

	err := c.SaveAll(ctx, leaders("a", "b", "c", "d"))

	var be *BatchError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, 4, be.Total)
	assert.ElementsMatch(t, []string{"b", "d"}, keys(be.Failed))
	assert.ErrorIs(t, err, errDenied)

	got, err := c.List(ctx)
	require.NoError(t, err)
	assert.Len(t, got, 2)
	// permanent failures are not retried
	assert.Equal(t, 4, client.putCount())
}

func TestSortByOrderBreaksTiesByID(t *testing.T) {
	items := []models.Member{
		{ID: "0190b2c4-0003", Order: 2},
		{ID: "0190b2c4-0002", Order: 1},
		{ID: "0190b2c4-0001", Order: 2},
		{ID: "0190b2c4-0004", Order: 1},
	}
	SortByOrder(items)

	var ids []string
	for _, it := range items {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"0190b2c4-0002", "0190b2c4-0004", "0190b2c4-0001", "0190b2c4-0003"}, ids)
	assert.Equal(t, 3, NextOrder(items))
}

func TestReorderAssignsPositions(t *testing.T) {
	ctx := context.Background()
	c := NewCollection(newFlakyClient(), models.CollectionLeaders, SeedLeaders, WithRetry(fastRetry))
	require.NoError(t, c.SaveAll(ctx, leaders("a", "b", "c")))

	require.NoError(t, Reorder(ctx, c, []string{"c", "a", "b"}))

	got, err := ListOrdered(ctx, c)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, 1, got[0].Order)
	assert.Equal(t, "a", got[1].ID)
	assert.Equal(t, 2, got[1].Order)
	assert.Equal(t, "b", got[2].ID)
	assert.Equal(t, 3, got[2].Order)
}

func TestReorderRejectsIncompleteOrUnknownIDs(t *testing.T) {
	ctx := context.Background()
	c := NewCollection(newFlakyClient(), models.CollectionMembers, SeedMembers, WithRetry(fastRetry))
	require.NoError(t, c.SaveAll(ctx, []models.Member{{ID: "a", Order: 1}, {ID: "b", Order: 2}}))

	err := Reorder(ctx, c, []string{"a"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	err = Reorder(ctx, c, []string{"a", "x"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	err = Reorder(ctx, c, []string{"a", "a"})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func keys(m map[string]error) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
