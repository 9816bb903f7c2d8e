package core

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCatalog(t *testing.T) {
	t.Run("builds lookups", func(t *testing.T) {
		c, err := NewCatalog([]CatalogItem{
			{ID: 1, Name: "A", Genre: "Action"},
			{ID: 2, Name: "B", Genre: "Action, Comedy"},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, c.Len())

		it, ok := c.ByName("B")
		require.True(t, ok)
		assert.Equal(t, int64(2), it.ID)

		it, ok = c.ByID(1)
		require.True(t, ok)
		assert.Equal(t, "A", it.Name)

		_, ok = c.ByName("b")
		assert.False(t, ok, "name lookup is exact")
	})

	t.Run("rejects duplicate id", func(t *testing.T) {
		_, err := NewCatalog([]CatalogItem{{ID: 1, Name: "A"}, {ID: 1, Name: "B"}})
		require.Error(t, err)
		assert.True(t, IsInvalidInput(err))
	})

	t.Run("rejects duplicate name", func(t *testing.T) {
		_, err := NewCatalog([]CatalogItem{{ID: 1, Name: "A"}, {ID: 2, Name: "A"}})
		require.Error(t, err)
		assert.True(t, IsInvalidInput(err))
	})

	t.Run("items returns a copy", func(t *testing.T) {
		c, err := NewCatalog([]CatalogItem{{ID: 1, Name: "A"}})
		require.NoError(t, err)
		items := c.Items()
		items[0].Name = "changed"
		assert.Equal(t, "A", c.At(0).Name)
	})
}

func TestRatingHistory(t *testing.T) {
	h := NewRatingHistory([]Rating{
		{UserID: 1, ItemID: 10, Value: 8},
		{UserID: 1, ItemID: 11, Value: 6},
		{UserID: 2, ItemID: 10, Value: 9},
	})
	assert.Equal(t, 3, h.Len())
	assert.Equal(t, 2, h.Users())
	assert.True(t, h.HasUser(1))
	assert.False(t, h.HasUser(3))
	assert.Len(t, h.RatedBy(1), 2)
	assert.Nil(t, h.RatedBy(3))

	var nilHistory *RatingHistory
	assert.Equal(t, 0, nilHistory.Len())
}

func TestScoreTableRanked(t *testing.T) {
	table := ScoreTable{3: 0.5, 1: 0.5, 2: 0.9}
	got := table.Ranked()
	require.Len(t, got, 3)
	assert.Equal(t, []int64{2, 1, 3}, []int64{got[0].ID, got[1].ID, got[2].ID})
	assert.Equal(t, []int64{1, 2, 3}, table.Keys())
}

func TestFinite(t *testing.T) {
	assert.Equal(t, 0.0, Finite(math.NaN()))
	assert.Equal(t, 0.0, Finite(math.Inf(1)))
	assert.Equal(t, 0.25, Finite(0.25))
}

func TestDomainErrorWrapped(t *testing.T) {
	err := fmt.Errorf("load catalog: %w", NewDomainError(ModuleCatalog, ErrorCodeInvalidInput, "bad"))
	assert.True(t, IsDomainError(err))
	assert.True(t, IsInvalidInput(err))
	assert.False(t, IsNotFound(err))
	assert.False(t, IsDomainError(errors.New("plain")))

	assert.True(t, IsStoreNotFound(fmt.Errorf("get: %w", ErrStoreNotFound)))
}
