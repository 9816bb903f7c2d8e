// Package enrich 为推荐结果补充展示信息（海报图片、简介等），数据来自 Jikan 公共 API。
package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/rushteam/hybridrec/core"
	"github.com/rushteam/hybridrec/internal/logging"
	"github.com/rushteam/hybridrec/internal/metrics"
)

const (
	DefaultBaseURL     = "https://api.jikan.moe/v4"
	DefaultPlaceholder = "https://via.placeholder.com/120/ff4baf/ffffff?text=No+Image"
)

// Details 是单个番剧的展示信息，缺失字段为零值。
type Details struct {
	ImageURL   string   `json:"image_url"`
	Synopsis   string   `json:"synopsis,omitempty"`
	TrailerURL string   `json:"trailer_url,omitempty"`
	Episodes   int      `json:"episodes,omitempty"`
	Genres     []string `json:"genres,omitempty"`
}

// ImageResolver 按名称查询海报地址。
type ImageResolver interface {
	ImageURL(ctx context.Context, name string) (string, error)
}

// JikanConfig 是 JikanClient 的配置，零值字段使用默认值。
type JikanConfig struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64 // 每秒请求数，<= 0 不限流
	Burst     int
	CacheSize int // <= 0 不缓存

	// NotFoundTTL 查无结果的缓存时间，零值为 DefaultNotFoundTTL，< 0 不缓存
	NotFoundTTL time.Duration

	HTTPClient *http.Client
}

// DefaultNotFoundTTL 是查无结果的默认缓存时间。
const DefaultNotFoundTTL = 10 * time.Minute

// JikanClient 查询 https://api.jikan.moe/v4/anime?q=<name>&limit=1，
// 取第一条结果。请求经过限流与熔断，成功结果按名称缓存，查无结果短期缓存。
// 可并发使用。
type JikanClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[*Details]
	cache   *lru.Cache[string, *Details]
	missing *expirable.LRU[string, error]
}

var _ ImageResolver = (*JikanClient)(nil)

// NewJikanClient 创建客户端。
func NewJikanClient(cfg JikanConfig) (*JikanClient, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	c := &JikanClient{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    httpClient,
	}
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	if cfg.CacheSize > 0 {
		cache, err := lru.New[string, *Details](cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("enrich: create cache: %w", err)
		}
		c.cache = cache

		ttl := cfg.NotFoundTTL
		if ttl == 0 {
			ttl = DefaultNotFoundTTL
		}
		if ttl > 0 {
			c.missing = expirable.NewLRU[string, error](cfg.CacheSize, nil, ttl)
		}
	}

	const cbName = "jikan-api"
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0)
	c.cb = gobreaker.NewCircuitBreaker[*Details](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		// 查无结果是正常响应，不计入失败
		IsSuccessful: func(err error) bool {
			return err == nil || core.IsNotFound(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(float64(to))
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})
	return c, nil
}

// ImageURL 返回海报地址；查无结果或结果没有图片时返回 NOT_FOUND。
func (c *JikanClient) ImageURL(ctx context.Context, name string) (string, error) {
	d, err := c.FetchDetails(ctx, name)
	if err != nil {
		return "", err
	}
	if d.ImageURL == "" {
		return "", core.NewDomainError(core.ModuleEnrich, core.ErrorCodeNotFound,
			fmt.Sprintf("enrich: no image for %q", name))
	}
	return d.ImageURL, nil
}

// FetchDetails 返回海报、简介、预告片、集数与类型。
// 熔断打开时返回 UNAVAILABLE，不发出请求。
func (c *JikanClient) FetchDetails(ctx context.Context, name string) (*Details, error) {
	if strings.TrimSpace(name) == "" {
		return nil, core.NewDomainError(core.ModuleEnrich, core.ErrorCodeInvalidInput, "enrich: empty name")
	}
	if c.cache != nil {
		if d, ok := c.cache.Get(name); ok {
			metrics.EnrichLookups.WithLabelValues("hit").Inc()
			return d, nil
		}
	}
	if c.missing != nil {
		if err, ok := c.missing.Get(name); ok {
			metrics.EnrichLookups.WithLabelValues("hit").Inc()
			return nil, err
		}
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			metrics.EnrichLookups.WithLabelValues("error").Inc()
			return nil, fmt.Errorf("enrich: rate limit: %w", err)
		}
	}

	d, err := c.cb.Execute(func() (*Details, error) {
		return c.fetch(ctx, name)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.EnrichLookups.WithLabelValues("open").Inc()
			return nil, core.NewDomainError(core.ModuleEnrich, core.ErrorCodeUnavailable,
				fmt.Sprintf("enrich: jikan unavailable: %v", err))
		}
		if core.IsNotFound(err) {
			metrics.EnrichLookups.WithLabelValues("not_found").Inc()
			if c.missing != nil {
				c.missing.Add(name, err)
			}
			return nil, err
		}
		metrics.EnrichLookups.WithLabelValues("error").Inc()
		return nil, err
	}

	metrics.EnrichLookups.WithLabelValues("ok").Inc()
	if c.cache != nil {
		c.cache.Add(name, d)
	}
	return d, nil
}

// jikanResponse 只声明用到的字段。
type jikanResponse struct {
	Data []struct {
		Images struct {
			JPG struct {
				LargeImageURL string `json:"large_image_url"`
			} `json:"jpg"`
		} `json:"images"`
		Synopsis *string `json:"synopsis"`
		Trailer  struct {
			URL *string `json:"url"`
		} `json:"trailer"`
		Episodes *int `json:"episodes"`
		Genres   []struct {
			Name string `json:"name"`
		} `json:"genres"`
	} `json:"data"`
}

func (c *JikanClient) fetch(ctx context.Context, name string) (*Details, error) {
	q := url.Values{}
	q.Set("q", name)
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/anime?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("enrich: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("enrich: request %q: %w", name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("enrich: request %q: unexpected status %d", name, resp.StatusCode)
	}

	var body jikanResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("enrich: decode %q: %w", name, err)
	}
	if len(body.Data) == 0 {
		return nil, core.NewDomainError(core.ModuleEnrich, core.ErrorCodeNotFound,
			fmt.Sprintf("enrich: %q not found", name))
	}

	a := body.Data[0]
	d := &Details{ImageURL: a.Images.JPG.LargeImageURL}
	if a.Synopsis != nil {
		d.Synopsis = *a.Synopsis
	}
	if a.Trailer.URL != nil {
		d.TrailerURL = *a.Trailer.URL
	}
	if a.Episodes != nil {
		d.Episodes = *a.Episodes
	}
	for _, g := range a.Genres {
		d.Genres = append(d.Genres, g.Name)
	}
	return d, nil
}
