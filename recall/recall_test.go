package recall

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/model"
)

func testCatalog(t *testing.T) *core.Catalog {
	t.Helper()
	c, err := core.NewCatalog([]core.CatalogItem{
		{ID: 1, Name: "A", Genre: "Action"},
		{ID: 2, Name: "B", Genre: "Action, Comedy"},
		{ID: 3, Name: "C", Genre: "Romance"},
		{ID: 4, Name: "D", Genre: ""},
		{ID: 5, Name: "E", Genre: "Comedy, Romance"},
	})
	require.NoError(t, err)
	return c
}

func testRatings() *core.RatingHistory {
	return core.NewRatingHistory([]core.Rating{
		{UserID: 1, ItemID: 1, Value: 9},
		{UserID: 1, ItemID: 3, Value: 4},
		{UserID: 2, ItemID: 1, Value: 8},
		{UserID: 2, ItemID: 2, Value: 9},
		{UserID: 2, ItemID: 5, Value: 3},
		{UserID: 3, ItemID: 2, Value: 8},
		{UserID: 3, ItemID: 4, Value: 6},
	})
}

func fastSVD() *SVDScorer {
	return &SVDScorer{Config: model.SVDConfig{Factors: 4, Epochs: 10}}
}

func TestContentScorer(t *testing.T) {
	c := testCatalog(t)
	s := NewContentScorer()

	t.Run("shared genre scores higher", func(t *testing.T) {
		table := s.Score(c, []string{"A"})
		assert.Greater(t, table[2], table[3])
		assert.Equal(t, 0.0, table[4], "empty genre is a zero vector")
	})

	t.Run("seed items excluded", func(t *testing.T) {
		table := s.Score(c, []string{"A", "E", "Unknown"})
		_, hasA := table[1]
		_, hasE := table[5]
		assert.False(t, hasA)
		assert.False(t, hasE)
		assert.Len(t, table, 3)
	})

	t.Run("scores bounded", func(t *testing.T) {
		for _, seeds := range [][]string{{"A"}, {"B", "C"}, {"D"}, {"A", "B", "C", "D"}} {
			for id, v := range s.Score(c, seeds) {
				assert.GreaterOrEqual(t, v, 0.0, "item %d", id)
				assert.LessOrEqual(t, v, 1.0, "item %d", id)
			}
		}
	})

	t.Run("no seed matched", func(t *testing.T) {
		table := s.Score(c, []string{"Unknown"})
		assert.NotNil(t, table)
		assert.Empty(t, table)
	})

	t.Run("duplicate seeds collapse", func(t *testing.T) {
		assert.Equal(t, s.Score(c, []string{"A"}), s.Score(c, []string{"A", "A"}))
	})

	t.Run("mean over seeds", func(t *testing.T) {
		ab := s.Score(c, []string{"A", "C"})
		a := s.Score(c, []string{"A"})
		cc := s.Score(c, []string{"C"})
		assert.InDelta(t, (a[5]+cc[5])/2, ab[5], 1e-12)
	})
}

func TestContentRecall(t *testing.T) {
	rctx := &core.RecommendContext{Catalog: testCatalog(t), Seeds: []string{"A"}, TopN: 2}
	items, err := (&ContentRecall{}).Recall(context.Background(), rctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(2), items[0].ID)
	assert.Equal(t, "B", items[0].MetaString(core.MetaName))
	assert.GreaterOrEqual(t, items[0].Score, items[1].Score)
}

func TestSVDScorer(t *testing.T) {
	c := testCatalog(t)
	ratings := testRatings()

	preds, err := fastSVD().PredictTopN(context.Background(), ratings, 1, c, 10)
	require.NoError(t, err)
	require.Len(t, preds, 3, "rated items excluded")
	for i, p := range preds {
		assert.NotEqual(t, int64(1), p.ItemID)
		assert.NotEqual(t, int64(3), p.ItemID)
		if i > 0 {
			assert.GreaterOrEqual(t, preds[i-1].PredictedRating, p.PredictedRating)
		}
	}

	top, err := fastSVD().PredictTopN(context.Background(), ratings, 1, c, 1)
	require.NoError(t, err)
	assert.Equal(t, preds[:1], top)

	unknown, err := fastSVD().PredictTopN(context.Background(), ratings, 404, c, 10)
	require.NoError(t, err)
	assert.Len(t, unknown, 5, "unknown user gets a global list")

	empty, err := fastSVD().PredictTopN(context.Background(), ratings, 1, c, 0)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSortPredictionsTieBreak(t *testing.T) {
	preds := []core.Prediction{
		{ItemID: 3, PredictedRating: 5},
		{ItemID: 1, PredictedRating: 5},
		{ItemID: 2, PredictedRating: 7},
	}
	SortPredictions(preds)
	assert.Equal(t, []int64{2, 1, 3}, []int64{preds[0].ItemID, preds[1].ItemID, preds[2].ItemID})
}

func TestJoin(t *testing.T) {
	c := testCatalog(t)
	collab := []core.Prediction{
		{ItemID: 3, Name: "C", Genre: "Romance", PredictedRating: 8},
		{ItemID: 2, PredictedRating: 6},
	}
	content := core.ScoreTable{2: 0.5, 5: 0.2, 4: 0}

	items := Join(collab, content, c)
	require.Len(t, items, 4)
	assert.Equal(t, []int64{3, 2, 4, 5}, []int64{items[0].ID, items[1].ID, items[2].ID, items[3].ID})

	assert.Equal(t, 0.0, items[0].Features[core.FeatureContentScore])
	assert.Equal(t, 0.5, items[1].Features[core.FeatureContentScore])
	assert.Equal(t, "B", items[1].MetaString(core.MetaName), "name filled from catalog")
	assert.Equal(t, 0.0, items[3].Features[core.FeaturePredictedRating])
	assert.Equal(t, "E", items[3].MetaString(core.MetaName))
}

func TestHybridRecall(t *testing.T) {
	c := testCatalog(t)

	t.Run("joins both signals", func(t *testing.T) {
		rctx := &core.RecommendContext{UserID: 1, Seeds: []string{"A"}, TopN: 2, Catalog: c, Ratings: testRatings()}
		items, err := (&HybridRecall{Collaborative: fastSVD()}).Recall(context.Background(), rctx)
		require.NoError(t, err)
		assert.False(t, IsCollaborativeFallback(rctx))
		// content covers every non-seed item
		assert.Len(t, items, 4)
	})

	t.Run("falls back without seeds", func(t *testing.T) {
		rctx := &core.RecommendContext{UserID: 1, Seeds: []string{"Unknown"}, TopN: 2, Catalog: c, Ratings: testRatings()}
		items, err := (&HybridRecall{Collaborative: fastSVD()}).Recall(context.Background(), rctx)
		require.NoError(t, err)
		assert.True(t, IsCollaborativeFallback(rctx))
		assert.Len(t, items, 2)
	})
}

func TestFanout(t *testing.T) {
	c := testCatalog(t)
	rctx := &core.RecommendContext{UserID: 1, Seeds: []string{"A"}, TopN: 3, Catalog: c, Ratings: testRatings()}
	n := &Fanout{
		Sources:       []Source{&ContentRecall{}, &CollaborativeRecall{Scorer: fastSVD()}},
		Dedup:         true,
		MaxConcurrent: 1,
	}
	items, err := n.Process(context.Background(), rctx, nil)
	require.NoError(t, err)

	seen := make(map[int64]bool)
	for _, it := range items {
		assert.False(t, seen[it.ID], "dedup by id")
		seen[it.ID] = true
	}
	require.NotEmpty(t, items)
	assert.True(t, strings.HasPrefix(items[0].Labels["recall_priority"].Value, "0"))
}
