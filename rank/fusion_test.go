package rank

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/pkg/utils"
	"github.com/rushteam/hybridrec/recall"
)

func fusionCatalog(t *testing.T) *core.Catalog {
	t.Helper()
	c, err := core.NewCatalog([]core.CatalogItem{
		{ID: 1, Name: "A", Genre: "Action"},
		{ID: 2, Name: "B", Genre: "Action, Comedy"},
		{ID: 3, Name: "C", Genre: "Romance"},
		{ID: 4, Name: "D", Genre: "Comedy"},
		{ID: 5, Name: "E", Genre: "Drama"},
		{ID: 6, Name: "F", Genre: "Action, Drama"},
	})
	require.NoError(t, err)
	return c
}

func collabFixture() []core.Prediction {
	return []core.Prediction{
		{ItemID: 5, Name: "E", Genre: "Drama", PredictedRating: 9.1},
		{ItemID: 3, Name: "C", Genre: "Romance", PredictedRating: 8.4},
		{ItemID: 2, Name: "B", Genre: "Action, Comedy", PredictedRating: 7.0},
	}
}

func contentFixture() core.ScoreTable {
	return core.ScoreTable{2: 0.8, 3: 0.0, 4: 0.3, 5: 0.1, 6: 0.6}
}

func ids(recs []core.Recommendation) []int64 {
	out := make([]int64, len(recs))
	for i, r := range recs {
		out[i] = r.AnimeID
	}
	return out
}

func TestFuseBounds(t *testing.T) {
	c := fusionCatalog(t)
	for _, alpha := range []float64{0, 0.25, 0.6, 1} {
		for _, topN := range []int{1, 3, 10} {
			recs, err := Fuse(collabFixture(), contentFixture(), c, alpha, topN)
			require.NoError(t, err)
			assert.LessOrEqual(t, len(recs), topN)
			for _, r := range recs {
				for _, v := range []float64{r.PredictedRating, r.ContentScore, r.FinalScore} {
					assert.False(t, math.IsNaN(v))
					assert.GreaterOrEqual(t, v, 0.0)
					assert.LessOrEqual(t, v, 1.0)
				}
			}
		}
	}
}

func TestFuseAlphaOneFollowsCollaborative(t *testing.T) {
	recs, err := Fuse(collabFixture(), contentFixture(), fusionCatalog(t), 1, 3)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 3, 2}, ids(recs))
}

func TestFuseAlphaZeroFollowsContent(t *testing.T) {
	content := contentFixture()
	recs, err := Fuse(collabFixture(), content, fusionCatalog(t), 0, 10)
	require.NoError(t, err)

	want := make([]int64, 0, len(content))
	for _, s := range content.Ranked() {
		want = append(want, s.ID)
	}
	assert.Equal(t, want, ids(recs))
}

func TestFuseBlend(t *testing.T) {
	recs, err := Fuse(collabFixture(), contentFixture(), fusionCatalog(t), 0.6, 10)
	require.NoError(t, err)
	require.Len(t, recs, 5, "key domain is the union of both tables")

	byID := make(map[int64]core.Recommendation)
	for _, r := range recs {
		byID[r.AnimeID] = r
	}
	// predicted: max 9.1, min 0 (content-only rows); content: max 0.8, min 0
	b := byID[2]
	assert.InDelta(t, 7.0/9.1, b.PredictedRating, 1e-9)
	assert.InDelta(t, 1.0, b.ContentScore, 1e-9)
	assert.InDelta(t, 0.6*7.0/9.1+0.4, b.FinalScore, 1e-9)
	assert.Equal(t, "B", b.Name)

	f := byID[6]
	assert.Equal(t, 0.0, f.PredictedRating)
	assert.Equal(t, "F", f.Name, "content-only rows take name from catalog")

	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].FinalScore, recs[i].FinalScore)
	}
}

func TestFuseDeterministicTieBreak(t *testing.T) {
	collab := []core.Prediction{
		{ItemID: 9, PredictedRating: 5},
		{ItemID: 4, PredictedRating: 5},
		{ItemID: 7, PredictedRating: 5},
	}
	content := core.ScoreTable{9: 0.5, 4: 0.5, 7: 0.5}
	first, err := Fuse(collab, content, fusionCatalog(t), 0.6, 10)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 7, 9}, ids(first))

	second, err := Fuse(collab, content, fusionCatalog(t), 0.6, 10)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestFuseDegenerateNormalization(t *testing.T) {
	collab := []core.Prediction{
		{ItemID: 2, PredictedRating: 7},
		{ItemID: 4, PredictedRating: 7},
	}
	content := core.ScoreTable{2: 0.9, 4: 0.1}
	recs, err := Fuse(collab, content, fusionCatalog(t), 0.6, 10)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	for _, r := range recs {
		assert.Equal(t, 0.0, r.PredictedRating)
		assert.False(t, math.IsNaN(r.FinalScore))
	}
	assert.Equal(t, []int64{2, 4}, ids(recs))
}

func TestFuseCollaborativeFallback(t *testing.T) {
	collab := collabFixture()
	recs, err := Fuse(collab, core.ScoreTable{}, fusionCatalog(t), 0.6, 2)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, 3}, ids(recs), "collaborative order truncated to top_n")
	assert.Equal(t, 1.0, recs[0].FinalScore)
	assert.Equal(t, 0.0, recs[0].ContentScore)
	assert.Equal(t, 9.1, recs[0].PredictedRating, "predicted rating kept as returned by the collaborator")
	assert.Equal(t, 8.4, recs[1].PredictedRating)
	assert.InDelta(t, (8.4-7.0)/(9.1-7.0), recs[1].FinalScore, 1e-9)
}

func TestFuseCollaborativeFallbackSingleRow(t *testing.T) {
	recs, err := Fuse(collabFixture()[:1], nil, fusionCatalog(t), 0.6, 5)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 9.1, recs[0].PredictedRating)
	assert.Equal(t, 0.0, recs[0].FinalScore, "degenerate normalization")
}

func TestFuseEmptyAndLarge(t *testing.T) {
	recs, err := Fuse(nil, nil, fusionCatalog(t), 0.6, 10)
	require.NoError(t, err)
	assert.Empty(t, recs)

	recs, err = Fuse(collabFixture(), nil, fusionCatalog(t), 0.6, 100)
	require.NoError(t, err)
	assert.Len(t, recs, 3)
}

func TestFuseInvalidInput(t *testing.T) {
	for _, tc := range []struct {
		alpha float64
		topN  int
	}{{-0.1, 10}, {1.1, 10}, {math.NaN(), 10}, {0.5, 0}} {
		_, err := Fuse(collabFixture(), contentFixture(), fusionCatalog(t), tc.alpha, tc.topN)
		require.Error(t, err)
		assert.True(t, core.IsInvalidInput(err))
	}
}

func TestHybridNodeMatchesFuse(t *testing.T) {
	c := fusionCatalog(t)
	rctx := &core.RecommendContext{Alpha: 0.6, TopN: 4, Catalog: c}
	items := recall.Join(collabFixture(), contentFixture(), c)

	out, err := (&HybridNode{}).Process(context.Background(), rctx, items)
	require.NoError(t, err)

	want, err := Fuse(collabFixture(), contentFixture(), c, 0.6, 4)
	require.NoError(t, err)
	got := make([]core.Recommendation, 0, 4)
	for _, it := range out[:4] {
		got = append(got, it.ToRecommendation())
	}
	assert.Equal(t, want, got)
	assert.Equal(t, "blend", out[0].Labels["rank_model"].Value)
}

func TestHybridNodeFallback(t *testing.T) {
	rctx := &core.RecommendContext{Alpha: 0.6}
	rctx.PutLabel(recall.LabelFusion, utils.Label{Value: recall.FusionCollaborativeOnly, Source: "recall"})

	items := []*core.Item{core.NewItem(8), core.NewItem(3)}
	items[0].Features[core.FeaturePredictedRating] = 6
	items[1].Features[core.FeaturePredictedRating] = 9

	out, err := (&HybridNode{}).Process(context.Background(), rctx, items)
	require.NoError(t, err)
	assert.Equal(t, int64(8), out[0].ID, "order preserved")
	assert.Equal(t, 0.0, out[0].Score)
	assert.Equal(t, 1.0, out[1].Score)
	assert.Equal(t, 6.0, out[0].Features[core.FeaturePredictedRating])
}

func TestHybridNodeFixedAlpha(t *testing.T) {
	bad := 2.0
	_, err := (&HybridNode{Alpha: &bad}).Process(context.Background(), &core.RecommendContext{}, []*core.Item{core.NewItem(1)})
	assert.True(t, core.IsInvalidInput(err))
}
