package cli

import (
	"context"

	"github.com/rushteam/hybridrec/config"
	_ "github.com/rushteam/hybridrec/config/builders"
	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/dataset"
	"github.com/rushteam/hybridrec/enrich"
	"github.com/rushteam/hybridrec/hybrid"
	"github.com/rushteam/hybridrec/internal/logging"
	"github.com/rushteam/hybridrec/internal/settings"
	"github.com/rushteam/hybridrec/recall"
	"github.com/rushteam/hybridrec/store"
)

// openStore 按配置创建 KV 存储。
func openStore(s settings.StoreSettings) (core.Store, error) {
	switch s.Type {
	case "redis":
		return store.NewRedisStore(store.RedisOptions{Addr: s.Addr, Password: s.Password, DB: s.DB})
	default:
		return store.NewMemoryStore(), nil
	}
}

// loadDataset 从 CSV 文件或存储中读取目录与评分历史。
func loadDataset(ctx context.Context, s *settings.Settings) (*core.Catalog, *core.RatingHistory, error) {
	if s.Data.Source == "store" {
		st, err := openStore(s.Data.Store)
		if err != nil {
			return nil, nil, err
		}
		defer st.Close()
		loader := &dataset.StoreLoader{Store: st, Prefix: s.Data.Store.Prefix}
		return loader.Load(ctx)
	}
	return loadCSV(s.Data)
}

func loadCSV(d settings.DataSettings) (*core.Catalog, *core.RatingHistory, error) {
	catalog, err := dataset.LoadCatalogCSV(d.CatalogPath)
	if err != nil {
		return nil, nil, err
	}
	ratings, err := dataset.LoadRatingsCSV(d.RatingsPath)
	if err != nil {
		return nil, nil, err
	}
	logging.Info().Int("catalog", catalog.Len()).Int("ratings", ratings.Len()).
		Str("catalog_path", d.CatalogPath).Msg("dataset loaded")
	return catalog, ratings, nil
}

// newJikanClient 未启用图片补全时返回 nil。
func newJikanClient(s settings.JikanSettings) (*enrich.JikanClient, error) {
	if !s.Enabled {
		return nil, nil
	}
	return enrich.NewJikanClient(enrich.JikanConfig{
		BaseURL:     s.BaseURL,
		Timeout:     s.Timeout,
		RateLimit:   s.RateLimit,
		Burst:       s.Burst,
		CacheSize:   s.CacheSize,
		NotFoundTTL: s.NotFoundTTL,
	})
}

// newRecommender 组装打分器、图片补全与可选的 YAML Pipeline。
func newRecommender(s *settings.Settings, images bool) (*hybrid.Recommender, *enrich.JikanClient, error) {
	opts := hybrid.Options{
		Collaborative: &recall.SVDScorer{Config: s.Recommend.SVD.Model()},
		Placeholder:   s.Jikan.Placeholder,
		Defaults:      recommendDefaults{topN: s.Recommend.TopN, alpha: s.Recommend.Alpha},
	}

	var client *enrich.JikanClient
	if images {
		var err error
		client, err = newJikanClient(s.Jikan)
		if err != nil {
			return nil, nil, err
		}
		if client != nil {
			opts.Images = client
			opts.ImageConcurrency = s.Jikan.Concurrency
		}
	}

	if s.Recommend.Pipeline != "" {
		p, err := config.LoadPipeline(s.Recommend.Pipeline)
		if err != nil {
			return nil, nil, err
		}
		opts.Pipeline = p
		logging.Info().Str("path", s.Recommend.Pipeline).Int("nodes", len(p.Nodes)).Msg("pipeline loaded")
	}
	return hybrid.New(opts), client, nil
}

// recommendDefaults 把配置中的默认值暴露为 core.RecommendConfig。
type recommendDefaults struct {
	topN  int
	alpha float64
}

func (d recommendDefaults) DefaultTopN() int { return d.topN }
func (d recommendDefaults) DefaultAlpha() float64 { return d.alpha }

var _ core.RecommendConfig = recommendDefaults{}
