package core

import "fmt"

// CatalogItem 是目录中的一个物品（动画）。
// Genre 为逗号分隔的类型标签，可能为空。
type CatalogItem struct {
	ID    int64  `json:"anime_id"`
	Name  string `json:"name"`
	Genre string `json:"genre"`
}

// Catalog 是只读的物品目录，保留输入顺序并提供按 id / name 的查找。
// 构建后不再修改，可在并发请求间共享。
type Catalog struct {
	items  []CatalogItem
	byID   map[int64]int
	byName map[string]int
}

// NewCatalog 校验 id 与 name 唯一并构建目录。
func NewCatalog(items []CatalogItem) (*Catalog, error) {
	c := &Catalog{
		items:  make([]CatalogItem, 0, len(items)),
		byID:   make(map[int64]int, len(items)),
		byName: make(map[string]int, len(items)),
	}
	for _, it := range items {
		if _, ok := c.byID[it.ID]; ok {
			return nil, NewDomainError(ModuleCatalog, ErrorCodeInvalidInput,
				fmt.Sprintf("catalog: duplicate anime_id %d", it.ID))
		}
		if _, ok := c.byName[it.Name]; ok {
			return nil, NewDomainError(ModuleCatalog, ErrorCodeInvalidInput,
				fmt.Sprintf("catalog: duplicate name %q", it.Name))
		}
		c.byID[it.ID] = len(c.items)
		c.byName[it.Name] = len(c.items)
		c.items = append(c.items, it)
	}
	return c, nil
}

// Len 返回物品数量。
func (c *Catalog) Len() int {
	if c == nil {
		return 0
	}
	return len(c.items)
}

// Items 返回物品列表的副本。
func (c *Catalog) Items() []CatalogItem {
	if c == nil {
		return nil
	}
	out := make([]CatalogItem, len(c.items))
	copy(out, c.items)
	return out
}

// At 返回第 i 个物品。
func (c *Catalog) At(i int) CatalogItem {
	return c.items[i]
}

// ByID 按 id 查找物品。
func (c *Catalog) ByID(id int64) (CatalogItem, bool) {
	if c == nil {
		return CatalogItem{}, false
	}
	i, ok := c.byID[id]
	if !ok {
		return CatalogItem{}, false
	}
	return c.items[i], true
}

// ByName 按名称精确查找物品。
func (c *Catalog) ByName(name string) (CatalogItem, bool) {
	if c == nil {
		return CatalogItem{}, false
	}
	i, ok := c.byName[name]
	if !ok {
		return CatalogItem{}, false
	}
	return c.items[i], true
}

// IndexOf 返回物品在目录中的位置。
func (c *Catalog) IndexOf(id int64) (int, bool) {
	if c == nil {
		return 0, false
	}
	i, ok := c.byID[id]
	return i, ok
}
