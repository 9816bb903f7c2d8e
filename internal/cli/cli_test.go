package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/hybridrec/core"
)

const (
	animeCSV = `anime_id,name,genre
1,A,Action
2,B,"Action, Comedy"
3,C,Romance
4,D,Drama
5,E,"Comedy, Romance"
`
	ratingCSV = `user_id,anime_id,rating
1,1,9
1,3,-1
2,1,8
2,2,9
2,5,3
3,2,8
3,4,6
`
)

func setupData(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	catalog := filepath.Join(dir, "anime.csv")
	ratings := filepath.Join(dir, "rating.csv")
	require.NoError(t, os.WriteFile(catalog, []byte(animeCSV), 0o600))
	require.NoError(t, os.WriteFile(ratings, []byte(ratingCSV), 0o600))

	t.Setenv("HYBRIDREC_DATA__CATALOG_PATH", catalog)
	t.Setenv("HYBRIDREC_DATA__RATINGS_PATH", ratings)
	t.Setenv("HYBRIDREC_RECOMMEND__SVD__FACTORS", "4")
	t.Setenv("HYBRIDREC_RECOMMEND__SVD__EPOCHS", "5")
	t.Setenv("HYBRIDREC_LOG__LEVEL", "disabled")
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRecommendCommand(t *testing.T) {
	setupData(t)

	out, err := run(t, "recommend", "-u", "1", "-s", "A", "-n", "3", "--json")
	require.NoError(t, err)
	var recs []core.Recommendation
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	assert.LessOrEqual(t, len(recs), 3)
	assert.NotEmpty(t, recs)
	for _, r := range recs {
		assert.NotEqual(t, int64(1), r.AnimeID)
	}

	out, err = run(t, "recommend", "-u", "1", "-s", "Unknown", "-n", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "ANIME_ID")

	_, err = run(t, "recommend", "-u", "1", "-a", "3")
	require.Error(t, err)
	assert.True(t, core.IsInvalidInput(err))
}

func TestRecommendCommandSettingsDefaults(t *testing.T) {
	setupData(t)
	t.Setenv("HYBRIDREC_RECOMMEND__TOP_N", "2")

	out, err := run(t, "recommend", "-u", "1", "-s", "A", "--json")
	require.NoError(t, err)
	var recs []core.Recommendation
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	assert.Len(t, recs, 2)
}

func TestContentCommand(t *testing.T) {
	setupData(t)

	out, err := run(t, "content", "-s", "A", "-n", "1", "--json")
	require.NoError(t, err)
	var recs []core.Recommendation
	require.NoError(t, json.Unmarshal([]byte(out), &recs))
	require.Len(t, recs, 1)
	assert.Equal(t, "B", recs[0].Name)

	_, err = run(t, "content")
	assert.Error(t, err)
}

func TestEvaluateCommand(t *testing.T) {
	setupData(t)

	out, err := run(t, "evaluate", "--test-fraction", "0.3")
	require.NoError(t, err)
	assert.Contains(t, out, "RMSE=")
	assert.Contains(t, out, "factors=4")

	_, err = run(t, "evaluate", "--test-fraction", "1")
	assert.Error(t, err)
}

func TestSeedStoreCommand(t *testing.T) {
	setupData(t)

	out, err := run(t, "seed-store")
	require.NoError(t, err)
	assert.Contains(t, out, "wrote 5 titles and 6 ratings to memory")
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "hybridrec dev")
}

func TestMissingDataset(t *testing.T) {
	t.Setenv("HYBRIDREC_DATA__CATALOG_PATH", filepath.Join(t.TempDir(), "nope.csv"))
	t.Setenv("HYBRIDREC_LOG__LEVEL", "disabled")
	_, err := run(t, "content", "-s", "A")
	assert.Error(t, err)
}
