package feature

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// tokenPattern 匹配长度 >= 2 的词（字母、数字、下划线），单字符 token 被丢弃。
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// Tokenize 把文本切成小写 token，并剔除停用词。
// "Sci-Fi, Slice of Life" → ["sci", "fi", "slice", "life"]
func Tokenize(doc string, stopWords map[string]struct{}) []string {
	if doc == "" {
		return nil
	}
	raw := tokenPattern.FindAllString(strings.ToLower(doc), -1)
	out := raw[:0]
	for _, tok := range raw {
		if _, stop := stopWords[tok]; stop {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// TFIDF 是基于语料的 TF-IDF 向量空间。
//
// 权重：
//   - tf(t, d) 为原始词频
//   - idf(t) = ln((1 + n) / (1 + df(t))) + 1（平滑，避免除零）
//   - 每个文档向量做 L2 归一化
//
// 空文本得到零向量。Fit 之后只读，可并发 Transform。
type TFIDF struct {
	// StopWords 不进入词表的停用词，nil 时使用 EnglishStopWords
	StopWords map[string]struct{}

	vocab map[string]int
	terms []string
	idf   []float64
}

// NewTFIDF 创建使用英文停用词表的向量器。
func NewTFIDF() *TFIDF {
	return &TFIDF{StopWords: EnglishStopWords}
}

func (t *TFIDF) stopWords() map[string]struct{} {
	if t.StopWords == nil {
		return EnglishStopWords
	}
	return t.StopWords
}

// Fit 在语料上建立词表（按字典序）并计算 idf。
func (t *TFIDF) Fit(docs []string) *TFIDF {
	stop := t.stopWords()
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, tok := range Tokenize(doc, stop) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			df[tok]++
		}
	}

	t.terms = make([]string, 0, len(df))
	for term := range df {
		t.terms = append(t.terms, term)
	}
	sort.Strings(t.terms)

	n := float64(len(docs))
	t.vocab = make(map[string]int, len(t.terms))
	t.idf = make([]float64, len(t.terms))
	for i, term := range t.terms {
		t.vocab[term] = i
		t.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
	return t
}

// Transform 把单个文档映射为 L2 归一化的稀疏向量，未登录词被忽略。
func (t *TFIDF) Transform(doc string) SparseVector {
	counts := make(map[int]float64)
	for _, tok := range Tokenize(doc, t.stopWords()) {
		if idx, ok := t.vocab[tok]; ok {
			counts[idx]++
		}
	}
	if len(counts) == 0 {
		return SparseVector{}
	}

	v := SparseVector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		v.Indices = append(v.Indices, idx)
	}
	sort.Ints(v.Indices)
	for _, idx := range v.Indices {
		v.Values = append(v.Values, counts[idx]*t.idf[idx])
	}

	if norm := v.Norm(); norm > 0 {
		for i := range v.Values {
			v.Values[i] /= norm
		}
	}
	return v
}

// FitTransform 等价于 Fit 后逐个 Transform。
func (t *TFIDF) FitTransform(docs []string) []SparseVector {
	t.Fit(docs)
	out := make([]SparseVector, len(docs))
	for i, doc := range docs {
		out[i] = t.Transform(doc)
	}
	return out
}

// Vocabulary 返回按下标排列的词表。
func (t *TFIDF) Vocabulary() []string {
	out := make([]string, len(t.terms))
	copy(out, t.terms)
	return out
}

// IDF 返回词的 idf 权重，未登录词返回 false。
func (t *TFIDF) IDF(term string) (float64, bool) {
	idx, ok := t.vocab[term]
	if !ok {
		return 0, false
	}
	return t.idf[idx], true
}
