// Package settings 加载服务配置，优先级：环境变量 > YAML 文件 > 内置默认值。
//
// 环境变量使用 HYBRIDREC_ 前缀，双下划线表示层级：
//
//	HYBRIDREC_SERVER__ADDR=:9090        -> server.addr
//	HYBRIDREC_RECOMMEND__TOP_N=20       -> recommend.top_n
//	HYBRIDREC_RECOMMEND__SVD__EPOCHS=5  -> recommend.svd.epochs
package settings

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/rushteam/hybridrec/model"
)

const (
	// EnvPrefix 是环境变量前缀
	EnvPrefix = "HYBRIDREC_"

	// ConfigPathEnvVar 指定配置文件路径
	ConfigPathEnvVar = "HYBRIDREC_CONFIG"
)

// DefaultConfigPaths 未指定路径时按顺序查找的配置文件。
var DefaultConfigPaths = []string{
	"hybridrec.yaml",
	"config/hybridrec.yaml",
	"/etc/hybridrec/hybridrec.yaml",
}

// Settings 是完整的服务配置。
type Settings struct {
	Server    ServerSettings    `koanf:"server"`
	Log       LogSettings       `koanf:"log"`
	Data      DataSettings      `koanf:"data"`
	Recommend RecommendSettings `koanf:"recommend"`
	Jikan     JikanSettings     `koanf:"jikan"`
}

type ServerSettings struct {
	Addr            string        `koanf:"addr" validate:"required"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// Debug 打开 /debug 下的 pprof
	Debug bool `koanf:"debug"`
}

type LogSettings struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// DataSettings 描述目录与评分数据的来源。
// Source=csv 时直接读 CSV；Source=store 时从 Store 读取 seed-store 写入的文档。
type DataSettings struct {
	Source      string        `koanf:"source" validate:"oneof=csv store"`
	CatalogPath string        `koanf:"catalog_path" validate:"required_if=Source csv"`
	RatingsPath string        `koanf:"ratings_path" validate:"required_if=Source csv"`
	Store       StoreSettings `koanf:"store"`
}

type StoreSettings struct {
	Type     string `koanf:"type" validate:"oneof=memory redis"`
	Addr     string `koanf:"addr" validate:"required_if=Type redis"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db" validate:"gte=0"`
	Prefix   string `koanf:"prefix"`
}

type RecommendSettings struct {
	TopN  int     `koanf:"top_n" validate:"gte=1"`
	Alpha float64 `koanf:"alpha" validate:"gte=0,lte=1"`

	// Pipeline 可选的 Pipeline YAML 文件，为空使用内置的混合推荐链路
	Pipeline string `koanf:"pipeline"`

	SVD SVDSettings `koanf:"svd"`
}

type SVDSettings struct {
	Factors      int     `koanf:"factors" validate:"gte=1"`
	Epochs       int     `koanf:"epochs" validate:"gte=1"`
	LearningRate float64 `koanf:"learning_rate" validate:"gt=0"`
	Reg          float64 `koanf:"reg" validate:"gte=0"`
	InitStd      float64 `koanf:"init_std" validate:"gt=0"`
	Seed         int64   `koanf:"seed"`
	MinRating    float64 `koanf:"min_rating"`
	MaxRating    float64 `koanf:"max_rating" validate:"gtfield=MinRating"`
}

// Model 转换为训练配置。
func (s SVDSettings) Model() model.SVDConfig {
	return model.SVDConfig{
		Factors:      s.Factors,
		Epochs:       s.Epochs,
		LearningRate: s.LearningRate,
		Reg:          s.Reg,
		InitStd:      s.InitStd,
		Seed:         s.Seed,
		MinRating:    s.MinRating,
		MaxRating:    s.MaxRating,
	}
}

type JikanSettings struct {
	Enabled     bool          `koanf:"enabled"`
	BaseURL     string        `koanf:"base_url" validate:"required_if=Enabled true"`
	Timeout     time.Duration `koanf:"timeout"`
	RateLimit   float64       `koanf:"rate_limit" validate:"gte=0"` // 每秒请求数
	Burst       int           `koanf:"burst" validate:"gte=0"`
	CacheSize   int           `koanf:"cache_size" validate:"gte=0"`
	NotFoundTTL time.Duration `koanf:"not_found_ttl"` // < 0 不缓存查无结果
	Concurrency int           `koanf:"concurrency" validate:"gte=0"`

	// Placeholder 查询失败时使用的图片地址，可以为空
	Placeholder string `koanf:"placeholder"`
}

// Default 返回内置默认配置。
func Default() *Settings {
	svd := model.DefaultSVDConfig()
	return &Settings{
		Server: ServerSettings{
			Addr:            ":8080",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogSettings{Level: "info", Format: "json"},
		Data: DataSettings{
			Source:      "csv",
			CatalogPath: "data/anime.csv",
			RatingsPath: "data/rating.csv",
			Store:       StoreSettings{Type: "memory", Prefix: "hybridrec"},
		},
		Recommend: RecommendSettings{
			TopN:  10,
			Alpha: 0.6,
			SVD: SVDSettings{
				Factors:      svd.Factors,
				Epochs:       svd.Epochs,
				LearningRate: svd.LearningRate,
				Reg:          svd.Reg,
				InitStd:      svd.InitStd,
				Seed:         svd.Seed,
				MinRating:    svd.MinRating,
				MaxRating:    svd.MaxRating,
			},
		},
		Jikan: JikanSettings{
			Enabled:     true,
			BaseURL:     "https://api.jikan.moe/v4",
			Timeout:     5 * time.Second,
			RateLimit:   3,
			Burst:       3,
			CacheSize:   1024,
			NotFoundTTL: 10 * time.Minute,
			Concurrency: 4,
			Placeholder: "https://via.placeholder.com/120/ff4baf/ffffff?text=No+Image",
		},
	}
}

// Load 按 默认值 -> 配置文件 -> 环境变量 的顺序加载并校验。
// path 为空时读取 HYBRIDREC_CONFIG 或 DefaultConfigPaths 中第一个存在的文件，都不存在则跳过。
func Load(path string) (*Settings, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	s := &Settings{}
	if err := k.Unmarshal("", s); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

var validate = validator.New()

// Validate 校验配置。
func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}
	return nil
}

func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envTransformFunc: HYBRIDREC_RECOMMEND__SVD__EPOCHS -> recommend.svd.epochs
func envTransformFunc(key string) string {
	key = strings.TrimPrefix(key, EnvPrefix)
	if key == "CONFIG" {
		return ""
	}
	return strings.ReplaceAll(strings.ToLower(key), "__", ".")
}
