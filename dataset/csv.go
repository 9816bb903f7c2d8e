// Package dataset 负责把外部数据（CSV 文件、Store 中的 JSON 文档）加载为只读的目录与评分历史。
package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/rushteam/hybridrec/core"
)

// UnratedValue 表示“看过但未评分”，加载评分时丢弃。
const UnratedValue = -1

var (
	catalogColumns = []string{"anime_id", "name", "genre"}
	ratingColumns  = []string{"user_id", "anime_id", "rating"}

	// columnAliases 兼容其它导出格式的列名
	columnAliases = map[string]string{"title": "name"}
)

// LoadCatalogCSV 从文件加载目录。
func LoadCatalogCSV(path string) (*core.Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return ReadCatalogCSV(f)
}

// ReadCatalogCSV 读取 anime_id,name,genre 三列（其它列忽略），genre 缺失视为空。
func ReadCatalogCSV(r io.Reader) (*core.Catalog, error) {
	rows, idx, err := readTable(r, catalogColumns, core.ModuleCatalog)
	if err != nil {
		return nil, err
	}

	items := make([]core.CatalogItem, 0, len(rows))
	for line, row := range rows {
		id, err := strconv.ParseInt(strings.TrimSpace(row[idx["anime_id"]]), 10, 64)
		if err != nil {
			return nil, core.NewDomainError(core.ModuleCatalog, core.ErrorCodeInvalidInput,
				fmt.Sprintf("catalog: line %d: invalid anime_id %q", line+2, row[idx["anime_id"]]))
		}
		items = append(items, core.CatalogItem{
			ID:    id,
			Name:  row[idx["name"]],
			Genre: strings.TrimSpace(row[idx["genre"]]),
		})
	}
	return core.NewCatalog(items)
}

// LoadRatingsCSV 从文件加载评分历史。
func LoadRatingsCSV(path string) (*core.RatingHistory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open ratings: %w", err)
	}
	defer f.Close()
	return ReadRatingsCSV(f)
}

// ReadRatingsCSV 读取 user_id,anime_id,rating 三列。
// rating 为 -1（未评分）、NaN / Inf 或无法解析的行被丢弃；id 无法解析视为输入错误。
func ReadRatingsCSV(r io.Reader) (*core.RatingHistory, error) {
	rows, idx, err := readTable(r, ratingColumns, core.ModuleRatings)
	if err != nil {
		return nil, err
	}

	ratings := make([]core.Rating, 0, len(rows))
	for line, row := range rows {
		userID, err := strconv.ParseInt(strings.TrimSpace(row[idx["user_id"]]), 10, 64)
		if err != nil {
			return nil, core.NewDomainError(core.ModuleRatings, core.ErrorCodeInvalidInput,
				fmt.Sprintf("ratings: line %d: invalid user_id %q", line+2, row[idx["user_id"]]))
		}
		itemID, err := strconv.ParseInt(strings.TrimSpace(row[idx["anime_id"]]), 10, 64)
		if err != nil {
			return nil, core.NewDomainError(core.ModuleRatings, core.ErrorCodeInvalidInput,
				fmt.Sprintf("ratings: line %d: invalid anime_id %q", line+2, row[idx["anime_id"]]))
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(row[idx["rating"]]), 64)
		if err != nil || value == UnratedValue || math.IsNaN(value) || math.IsInf(value, 0) {
			continue
		}
		ratings = append(ratings, core.Rating{UserID: userID, ItemID: itemID, Value: value})
	}
	return core.NewRatingHistory(ratings), nil
}

// readTable 读取表头并校验必需列，返回数据行与列下标。
func readTable(r io.Reader, required []string, module string) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, core.NewDomainError(module, core.ErrorCodeInvalidInput, module+": empty csv")
	}
	if err != nil {
		return nil, nil, core.NewDomainError(module, core.ErrorCodeInvalidInput,
			fmt.Sprintf("%s: read header: %v", module, err))
	}

	idx := make(map[string]int, len(header))
	for i, col := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		if alias, ok := columnAliases[name]; ok {
			name = alias
		}
		if _, dup := idx[name]; !dup {
			idx[name] = i
		}
	}
	var missing []string
	for _, col := range required {
		if _, ok := idx[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, nil, core.NewDomainError(module, core.ErrorCodeInvalidInput,
			fmt.Sprintf("%s: missing required columns: %s", module, strings.Join(missing, ", ")))
	}

	var rows [][]string
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, core.NewDomainError(module, core.ErrorCodeInvalidInput,
				fmt.Sprintf("%s: line %d: %v", module, line, err))
		}
		// 短行补齐为空字段（例如缺失的 genre）
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		rows = append(rows, rec)
	}
	return rows, idx, nil
}
