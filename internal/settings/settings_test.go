package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "hybridrec.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestDefaultsValid(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())
	assert.Equal(t, 10, s.Recommend.TopN)
	assert.Equal(t, 0.6, s.Recommend.Alpha)
	assert.Equal(t, 100, s.Recommend.SVD.Factors)
	assert.Equal(t, 42, int(s.Recommend.SVD.Model().Seed))
	assert.Equal(t, 10*time.Minute, s.Jikan.NotFoundTTL)
}

func TestLoadLayers(t *testing.T) {
	p := writeConfig(t, `
server:
  addr: ":9000"
recommend:
  top_n: 5
  alpha: 0.3
  svd:
    epochs: 7
jikan:
  timeout: 2s
`)
	t.Setenv("HYBRIDREC_RECOMMEND__TOP_N", "20")
	t.Setenv("HYBRIDREC_DATA__STORE__PREFIX", "anime")

	s, err := Load(p)
	require.NoError(t, err)
	assert.Equal(t, ":9000", s.Server.Addr)
	assert.Equal(t, 20, s.Recommend.TopN, "env overrides file")
	assert.Equal(t, 0.3, s.Recommend.Alpha)
	assert.Equal(t, 7, s.Recommend.SVD.Epochs)
	assert.Equal(t, 100, s.Recommend.SVD.Factors, "defaults kept")
	assert.Equal(t, 2*time.Second, s.Jikan.Timeout)
	assert.Equal(t, "anime", s.Data.Store.Prefix)
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "alpha out of range", body: "recommend:\n  alpha: 1.5\n"},
		{name: "top_n zero", body: "recommend:\n  top_n: 0\n"},
		{name: "redis without addr", body: "data:\n  store:\n    type: redis\n"},
		{name: "unknown log format", body: "log:\n  format: xml\n"},
		{name: "rating scale", body: "recommend:\n  svd:\n    min_rating: 10\n    max_rating: 1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid settings")
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestEnvTransform(t *testing.T) {
	assert.Equal(t, "recommend.svd.epochs", envTransformFunc("HYBRIDREC_RECOMMEND__SVD__EPOCHS"))
	assert.Equal(t, "server.addr", envTransformFunc("HYBRIDREC_SERVER__ADDR"))
	assert.Equal(t, "", envTransformFunc("HYBRIDREC_CONFIG"))
}
