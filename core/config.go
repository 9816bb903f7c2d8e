package core

// RecommendConfig 提供推荐链路的默认参数。
type RecommendConfig interface {
	// DefaultTopN 返回默认的推荐条数
	DefaultTopN() int

	// DefaultAlpha 返回默认的协同过滤融合权重
	DefaultAlpha() float64
}

// DefaultRecommendConfig 是默认的推荐配置实现。
type DefaultRecommendConfig struct{}

func (c *DefaultRecommendConfig) DefaultTopN() int {
	return 10
}

func (c *DefaultRecommendConfig) DefaultAlpha() float64 {
	return 0.6
}
