package dataset

import (
	"context"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/rushteam/hybridrec/core"
)

// StoreLoader 把目录与评分历史以 JSON 文档形式保存在 core.Store 中，
// key 为 {Prefix}:catalog 与 {Prefix}:ratings。
type StoreLoader struct {
	Store  core.Store
	Prefix string
}

func (l *StoreLoader) key(name string) string {
	prefix := l.Prefix
	if prefix == "" {
		prefix = "hybridrec"
	}
	return prefix + ":" + name
}

// Save 写入目录与评分历史。
func (l *StoreLoader) Save(ctx context.Context, catalog *core.Catalog, ratings *core.RatingHistory) error {
	catalogDoc, err := json.Marshal(catalog.Items())
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	ratingsDoc, err := json.Marshal(ratings.All())
	if err != nil {
		return fmt.Errorf("encode ratings: %w", err)
	}
	return l.Store.BatchSet(ctx, map[string][]byte{
		l.key("catalog"): catalogDoc,
		l.key("ratings"): ratingsDoc,
	})
}

// Load 读取目录与评分历史，任一文档缺失返回 NOT_FOUND。
func (l *StoreLoader) Load(ctx context.Context) (*core.Catalog, *core.RatingHistory, error) {
	catalogKey, ratingsKey := l.key("catalog"), l.key("ratings")
	docs, err := l.Store.BatchGet(ctx, []string{catalogKey, ratingsKey})
	if err != nil {
		return nil, nil, fmt.Errorf("load dataset from %s: %w", l.Store.Name(), err)
	}
	for _, k := range []string{catalogKey, ratingsKey} {
		if _, ok := docs[k]; !ok {
			return nil, nil, core.NewDomainError(core.ModuleStore, core.ErrorCodeNotFound,
				fmt.Sprintf("store: dataset key %q not found in %s", k, l.Store.Name()))
		}
	}

	var items []core.CatalogItem
	if err := json.Unmarshal(docs[catalogKey], &items); err != nil {
		return nil, nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput,
			fmt.Sprintf("catalog: decode %s: %v", catalogKey, err))
	}
	var ratings []core.Rating
	if err := json.Unmarshal(docs[ratingsKey], &ratings); err != nil {
		return nil, nil, core.NewDomainError(core.ModuleRatings, core.ErrorCodeInvalidInput,
			fmt.Sprintf("ratings: decode %s: %v", ratingsKey, err))
	}

	catalog, err := core.NewCatalog(items)
	if err != nil {
		return nil, nil, err
	}
	return catalog, core.NewRatingHistory(ratings), nil
}
