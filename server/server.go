// Package server 提供推荐服务的 HTTP 接口。
//
//	POST /v1/recommendations                 混合推荐
//	POST /v1/recommendations/content         纯内容推荐
//	POST /v1/recommendations/collaborative   纯协同过滤推荐
//	GET  /v1/anime/{name}                    目录条目 + Jikan 详情
//	GET  /healthz
//	GET  /metrics
//	     /debug/*                            pprof（Debug 打开时）
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/enrich"
	"github.com/rushteam/hybridrec/hybrid"
	"github.com/rushteam/hybridrec/internal/logging"
)

// DetailsFetcher 查询番剧详情，enrich.JikanClient 实现了该接口。
type DetailsFetcher interface {
	FetchDetails(ctx context.Context, name string) (*enrich.Details, error)
}

var _ DetailsFetcher = (*enrich.JikanClient)(nil)

// Config 是 Server 的依赖与选项。
type Config struct {
	Recommender *hybrid.Recommender
	Catalog     *core.Catalog
	Ratings     *core.RatingHistory

	// Details 为空时 /v1/anime/{name} 只返回目录信息
	Details     DetailsFetcher
	Placeholder string

	Debug bool
}

// Server 持有只读的目录与评分历史，所有请求共享。
type Server struct {
	cfg Config
}

func New(cfg Config) *Server {
	return &Server{cfg: cfg}
}

// Handler 返回配置好路由与中间件的 http.Handler。
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(Metrics())

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/recommendations", s.recommend)
		r.Post("/recommendations/content", s.recommendContent)
		r.Post("/recommendations/collaborative", s.recommendCollaborative)
		r.Get("/anime/{name}", s.anime)
	})

	if s.cfg.Debug {
		r.Mount("/debug", chimiddleware.Profiler())
	}
	return r
}

// ListenAndServe 启动 HTTP 服务，ctx 取消后在 shutdownTimeout 内优雅退出。
func (s *Server) ListenAndServe(ctx context.Context, addr string, readTimeout, writeTimeout, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info().Str("addr", addr).Int("catalog", s.cfg.Catalog.Len()).
			Int("ratings", s.cfg.Ratings.Len()).Msg("http server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logging.Info().Msg("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
