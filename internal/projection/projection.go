// Package projection строит отсортированное и отфильтрованное представление каталога.
package projection

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/mmeshcher/skip-selection/internal/model"
)

// Project возвращает новый срез вариантов, отфильтрованный по roadFilter
// и устойчиво отсортированный по sortKey. Исходный каталог не изменяется.
func Project(catalog []model.SkipOption, sortKey model.SortKey, roadFilter model.RoadFilter) []model.SkipOption {
	out := make([]model.SkipOption, 0, len(catalog))
	for _, s := range catalog {
		if matchesRoad(s, roadFilter) {
			out = append(out, s)
		}
	}

	switch sortKey {
	case model.SortByPrice:
		slices.SortStableFunc(out, func(a, b model.SkipOption) int {
			return cmp.Compare(a.TotalPrice(), b.TotalPrice())
		})
	default:
		slices.SortStableFunc(out, func(a, b model.SkipOption) int {
			return cmp.Compare(a.Size, b.Size)
		})
	}

	return out
}

func matchesRoad(s model.SkipOption, f model.RoadFilter) bool {
	switch f {
	case model.RoadAllowed:
		return s.AllowedOnRoad
	case model.RoadDisallowed:
		return !s.AllowedOnRoad
	default:
		return true
	}
}

// ParseSortKey разбирает ключ сортировки. Пустая строка означает сортировку по размеру.
func ParseSortKey(v string) (model.SortKey, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", string(model.SortBySize):
		return model.SortBySize, nil
	case string(model.SortByPrice):
		return model.SortByPrice, nil
	}
	return "", fmt.Errorf("unknown sort key %q", v)
}

// ParseRoadFilter разбирает фильтр по установке на дороге. Пустая строка означает отсутствие фильтра.
func ParseRoadFilter(v string) (model.RoadFilter, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", string(model.RoadAny):
		return model.RoadAny, nil
	case string(model.RoadAllowed):
		return model.RoadAllowed, nil
	case string(model.RoadDisallowed):
		return model.RoadDisallowed, nil
	}
	return "", fmt.Errorf("unknown road filter %q", v)
}

type cacheKey struct {
	version    uint64
	sortKey    model.SortKey
	roadFilter model.RoadFilter
}

// Cache запоминает последнюю построенную проекцию по версии каталога и параметрам.
type Cache struct {
	mu    sync.Mutex
	key   cacheKey
	valid bool
	last  []model.SkipOption
}

// Project возвращает проекцию снимка, пересчитывая её только при смене
// версии каталога, ключа сортировки или фильтра. Каждый вызов получает собственную копию.
func (c *Cache) Project(snap model.Snapshot, sortKey model.SortKey, roadFilter model.RoadFilter) []model.SkipOption {
	key := cacheKey{version: snap.Version, sortKey: sortKey, roadFilter: roadFilter}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.valid || c.key != key {
		c.last = Project(snap.Catalog, sortKey, roadFilter)
		c.key = key
		c.valid = true
	}

	return slices.Clone(c.last)
}
