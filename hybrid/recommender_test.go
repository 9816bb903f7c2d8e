package hybrid

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/model"
	"github.com/rushteam/hybridrec/pipeline"
	"github.com/rushteam/hybridrec/rank"
	"github.com/rushteam/hybridrec/recall"
	"github.com/rushteam/hybridrec/rerank"
)

func testCatalog(t *testing.T) *core.Catalog {
	t.Helper()
	c, err := core.NewCatalog([]core.CatalogItem{
		{ID: 1, Name: "A", Genre: "Action"},
		{ID: 2, Name: "B", Genre: "Action, Comedy"},
		{ID: 3, Name: "C", Genre: "Romance"},
		{ID: 4, Name: "D", Genre: "Drama"},
		{ID: 5, Name: "E", Genre: "Comedy, Romance"},
	})
	require.NoError(t, err)
	return c
}

func testRatings() *core.RatingHistory {
	return core.NewRatingHistory([]core.Rating{
		{UserID: 1, ItemID: 1, Value: 9},
		{UserID: 2, ItemID: 1, Value: 8},
		{UserID: 2, ItemID: 2, Value: 9},
		{UserID: 2, ItemID: 5, Value: 3},
		{UserID: 3, ItemID: 2, Value: 8},
		{UserID: 3, ItemID: 4, Value: 6},
	})
}

// fixedScorer 返回预先给定的预测，按 n 截断。
type fixedScorer struct {
	preds []core.Prediction
	err   error
	panic bool
}

func (s *fixedScorer) Name() string { return "fixed" }

func (s *fixedScorer) PredictTopN(
	_ context.Context, _ *core.RatingHistory, _ int64, _ *core.Catalog, n int,
) ([]core.Prediction, error) {
	if s.panic {
		panic("model exploded")
	}
	if s.err != nil {
		return nil, s.err
	}
	out := append([]core.Prediction(nil), s.preds...)
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func collab() *fixedScorer {
	return &fixedScorer{preds: []core.Prediction{
		{ItemID: 4, Name: "D", Genre: "Drama", PredictedRating: 9},
		{ItemID: 3, Name: "C", Genre: "Romance", PredictedRating: 7},
		{ItemID: 2, Name: "B", Genre: "Action, Comedy", PredictedRating: 5},
		{ItemID: 5, Name: "E", Genre: "Comedy, Romance", PredictedRating: 4},
	}}
}

func ids(recs []core.Recommendation) []int64 {
	out := make([]int64, len(recs))
	for i, r := range recs {
		out[i] = r.AnimeID
	}
	return out
}

func alpha(v float64) *float64 { return &v }

func TestRecommendHybrid(t *testing.T) {
	r := New(Options{Collaborative: collab()})
	recs, err := r.Recommend(context.Background(), Request{UserID: 1, SeedNames: []string{"A"}, TopN: 3}, testRatings(), testCatalog(t))
	require.NoError(t, err)
	require.Len(t, recs, 3)

	for _, rec := range recs {
		assert.NotEqual(t, int64(1), rec.AnimeID, "seed never recommended")
		for _, v := range []float64{rec.PredictedRating, rec.ContentScore, rec.FinalScore} {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
		assert.InDelta(t, 0.6*rec.PredictedRating+0.4*rec.ContentScore, rec.FinalScore, 1e-9)
	}
	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].FinalScore, recs[i].FinalScore)
	}
}

func TestRecommendAlphaExtremes(t *testing.T) {
	c := testCatalog(t)

	r := New(Options{Collaborative: collab()})
	recs, err := r.Recommend(context.Background(), Request{SeedNames: []string{"A"}, TopN: 4, Alpha: alpha(1)}, nil, c)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 3, 2, 5}, ids(recs), "alpha=1 keeps collaborative order")

	recs, err = r.Recommend(context.Background(), Request{SeedNames: []string{"A"}, TopN: 1, Alpha: alpha(0)}, nil, c)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, ids(recs), "alpha=0 follows content: B shares Action with A")
}

func TestRecommendUnknownSeedFallsBack(t *testing.T) {
	r := New(Options{Collaborative: collab()})
	recs, err := r.Recommend(context.Background(), Request{SeedNames: []string{"Unknown"}, TopN: 3}, nil, testCatalog(t))
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 3, 2}, ids(recs))
	for _, rec := range recs {
		assert.Equal(t, 0.0, rec.ContentScore)
	}
	assert.Equal(t, []float64{9, 7, 5}, []float64{recs[0].PredictedRating, recs[1].PredictedRating, recs[2].PredictedRating})
	assert.Equal(t, 1.0, recs[0].FinalScore)
	assert.Equal(t, 0.5, recs[1].FinalScore)
}

func TestRecommendDefaults(t *testing.T) {
	preds := make([]core.Prediction, 0, 20)
	items := make([]core.CatalogItem, 0, 20)
	for i := int64(1); i <= 20; i++ {
		preds = append(preds, core.Prediction{ItemID: i, PredictedRating: float64(20 - i)})
		items = append(items, core.CatalogItem{ID: i, Name: string(rune('a' + i)), Genre: "Action"})
	}
	c, err := core.NewCatalog(items)
	require.NoError(t, err)

	r := New(Options{Collaborative: &fixedScorer{preds: preds}})
	recs, err := r.Recommend(context.Background(), Request{}, nil, c)
	require.NoError(t, err)
	assert.Len(t, recs, 10)
}

func TestRecommendInvalid(t *testing.T) {
	r := New(Options{Collaborative: collab()})
	c := testCatalog(t)
	tests := []struct {
		name string
		req  Request
	}{
		{name: "alpha above 1", req: Request{Alpha: alpha(1.2)}},
		{name: "negative alpha", req: Request{Alpha: alpha(-0.1)}},
		{name: "negative top_n", req: Request{TopN: -1}},
		{name: "empty seed name", req: Request{SeedNames: []string{""}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Recommend(context.Background(), tt.req, nil, c)
			require.Error(t, err)
			assert.True(t, core.IsInvalidInput(err))
		})
	}

	_, err := r.Recommend(context.Background(), Request{}, nil, nil)
	assert.True(t, core.IsInvalidInput(err))
}

func TestRecommendCollaboratorError(t *testing.T) {
	boom := errors.New("boom")
	r := New(Options{Collaborative: &fixedScorer{err: boom}})
	_, err := r.Recommend(context.Background(), Request{SeedNames: []string{"A"}}, nil, testCatalog(t))
	assert.ErrorIs(t, err, boom)
}

func TestRecommendRecoversPanic(t *testing.T) {
	r := New(Options{Collaborative: &fixedScorer{panic: true}})
	_, err := r.Recommend(context.Background(), Request{SeedNames: []string{"A"}}, nil, testCatalog(t))
	require.Error(t, err)
	de := core.GetDomainError(err)
	require.NotNil(t, de)
	assert.Equal(t, core.ErrorCodeInternalError, de.Code)
}

func TestContentOnly(t *testing.T) {
	r := New(Options{Collaborative: collab()})
	recs, err := r.ContentOnly(context.Background(), Request{SeedNames: []string{"A"}, TopN: 2}, testCatalog(t))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(2), recs[0].AnimeID)
	assert.Equal(t, recs[0].ContentScore, recs[0].FinalScore)

	recs, err = r.ContentOnly(context.Background(), Request{SeedNames: []string{"Unknown"}}, testCatalog(t))
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestCollaborativeOnly(t *testing.T) {
	r := New(Options{Collaborative: collab()})
	recs, err := r.CollaborativeOnly(context.Background(), Request{TopN: 2}, nil, testCatalog(t))
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 3}, ids(recs))
	assert.Equal(t, 9.0, recs[0].PredictedRating)
}

type stubImages struct{}

func (stubImages) ImageURL(_ context.Context, name string) (string, error) {
	if name == "D" {
		return "", errors.New("not found")
	}
	return "https://img/" + name, nil
}

func TestRecommendWithImages(t *testing.T) {
	r := New(Options{Collaborative: collab(), Images: stubImages{}, Placeholder: "none"})
	recs, err := r.Recommend(context.Background(), Request{SeedNames: []string{"Unknown"}, TopN: 2}, nil, testCatalog(t))
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "none", recs[0].ImageURL)
	assert.Equal(t, "https://img/C", recs[1].ImageURL)
}

func TestRecommendCustomPipeline(t *testing.T) {
	p := &pipeline.Pipeline{Nodes: []pipeline.Node{
		&recall.CollaborativeRecall{Scorer: collab()},
		&rerank.TopNNode{N: 1},
	}}
	r := New(Options{Collaborative: collab(), Pipeline: p})
	recs, err := r.Recommend(context.Background(), Request{TopN: 5}, nil, testCatalog(t))
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, ids(recs))
}

func TestRecommendPipelineWithoutTopN(t *testing.T) {
	p := &pipeline.Pipeline{Nodes: []pipeline.Node{
		&recall.HybridRecall{Content: recall.NewContentScorer(), Collaborative: collab(), CollaborativeTopK: 4},
		&rank.HybridNode{},
	}}
	r := New(Options{Collaborative: collab(), Pipeline: p})
	recs, err := r.Recommend(context.Background(), Request{SeedNames: []string{"A"}, TopN: 1, Alpha: alpha(1)}, nil, testCatalog(t))
	require.NoError(t, err)
	assert.Equal(t, []int64{4}, ids(recs), "result truncated to top_n")
}

func TestRecommendSVDDeterministic(t *testing.T) {
	r := New(Options{Collaborative: &recall.SVDScorer{Config: model.SVDConfig{Factors: 4, Epochs: 10}}})
	c, h := testCatalog(t), testRatings()
	req := Request{UserID: 1, SeedNames: []string{"A"}, TopN: 4}

	first, err := r.Recommend(context.Background(), req, h, c)
	require.NoError(t, err)
	second, err := r.Recommend(context.Background(), req, h, c)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.LessOrEqual(t, len(first), 4)
}

func TestRecommendCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := New(Options{Collaborative: collab()})
	_, err := r.Recommend(ctx, Request{SeedNames: []string{"A"}}, nil, testCatalog(t))
	assert.ErrorIs(t, err, context.Canceled)
}
