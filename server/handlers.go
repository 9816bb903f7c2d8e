package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/enrich"
	"github.com/rushteam/hybridrec/hybrid"
	"github.com/rushteam/hybridrec/internal/logging"
)

const maxBodyBytes = 1 << 20

// RecommendResponse 是推荐接口的响应体。
type RecommendResponse struct {
	Recommendations []core.Recommendation `json:"recommendations"`
}

// AnimeResponse 是 /v1/anime/{name} 的响应体。
type AnimeResponse struct {
	AnimeID int64           `json:"anime_id"`
	Name    string          `json:"name"`
	Genre   string          `json:"genre"`
	Details *enrich.Details `json:"details"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"catalog": s.cfg.Catalog.Len(),
		"ratings": s.cfg.Ratings.Len(),
	})
}

func (s *Server) recommend(w http.ResponseWriter, r *http.Request) {
	s.serveRecommend(w, r, func(ctx context.Context, req hybrid.Request) ([]core.Recommendation, error) {
		return s.cfg.Recommender.Recommend(ctx, req, s.cfg.Ratings, s.cfg.Catalog)
	})
}

func (s *Server) recommendContent(w http.ResponseWriter, r *http.Request) {
	s.serveRecommend(w, r, func(ctx context.Context, req hybrid.Request) ([]core.Recommendation, error) {
		return s.cfg.Recommender.ContentOnly(ctx, req, s.cfg.Catalog)
	})
}

func (s *Server) recommendCollaborative(w http.ResponseWriter, r *http.Request) {
	s.serveRecommend(w, r, func(ctx context.Context, req hybrid.Request) ([]core.Recommendation, error) {
		return s.cfg.Recommender.CollaborativeOnly(ctx, req, s.cfg.Ratings, s.cfg.Catalog)
	})
}

func (s *Server) serveRecommend(
	w http.ResponseWriter,
	r *http.Request,
	run func(context.Context, hybrid.Request) ([]core.Recommendation, error),
) {
	var req hybrid.Request
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	recs, err := run(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, RecommendResponse{Recommendations: recs})
}

// anime 查询失败不影响目录信息，details 回落为只含 placeholder 图片。
func (s *Server) anime(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, r, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput, "invalid anime name"))
		return
	}
	item, ok := s.cfg.Catalog.ByName(name)
	if !ok {
		writeError(w, r, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeNotFound, "anime not found: "+name))
		return
	}

	resp := AnimeResponse{AnimeID: item.ID, Name: item.Name, Genre: item.Genre}
	if s.cfg.Details != nil {
		d, err := s.cfg.Details.FetchDetails(r.Context(), item.Name)
		if err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).Str("name", item.Name).Msg("fetch details failed")
			d = &enrich.Details{ImageURL: s.cfg.Placeholder}
		}
		resp.Details = d
	}
	writeJSON(w, http.StatusOK, resp)
}

func decodeJSON(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput, "read body: "+err.Error())
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return core.NewDomainError(core.ModulePipeline, core.ErrorCodeInvalidInput, "invalid json body: "+err.Error())
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("encode response")
	}
}

// writeError 把 DomainError 映射为 HTTP 状态码；其它错误一律 500，且不暴露内部信息。
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := StatusFor(err)
	log := logging.Ctx(r.Context())
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
	} else {
		log.Info().Err(err).Str("path", r.URL.Path).Int("status", status).Msg("request rejected")
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// StatusFor 返回错误对应的 HTTP 状态码与对外消息。
func StatusFor(err error) (int, string) {
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout, "request timed out"
	}
	if errors.Is(err, context.Canceled) {
		return 499, "request canceled"
	}
	de := core.GetDomainError(err)
	if de == nil {
		return http.StatusInternalServerError, "internal error"
	}
	switch de.Code {
	case core.ErrorCodeInvalidInput:
		return http.StatusBadRequest, de.Message
	case core.ErrorCodeNotFound:
		return http.StatusNotFound, de.Message
	case core.ErrorCodeNotSupported:
		return http.StatusNotImplemented, de.Message
	case core.ErrorCodeUnavailable:
		return http.StatusServiceUnavailable, de.Message
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
