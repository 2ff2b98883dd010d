package projection

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/skip-selection/internal/model"
)

func sampleCatalog() []model.SkipOption {
	return []model.SkipOption{
		{ID: 1, Size: 8, HirePeriodDays: 14, PriceBeforeVAT: 375, VATPercent: 20, AllowedOnRoad: true},
		{ID: 2, Size: 4, HirePeriodDays: 14, PriceBeforeVAT: 278, VATPercent: 20, AllowedOnRoad: true},
		{ID: 3, Size: 6, HirePeriodDays: 14, PriceBeforeVAT: 305, VATPercent: 20, AllowedOnRoad: false},
		{ID: 4, Size: 4, HirePeriodDays: 7, PriceBeforeVAT: 250, VATPercent: 0, AllowedOnRoad: false},
		{ID: 5, Size: 20, HirePeriodDays: 14, PriceBeforeVAT: 375, VATPercent: 20, AllowedOnRoad: false},
	}
}

func ids(options []model.SkipOption) []int64 {
	res := make([]int64, 0, len(options))
	for _, o := range options {
		res = append(res, o.ID)
	}
	return res
}

func TestProject(t *testing.T) {
	tests := []struct {
		name    string
		sortKey model.SortKey
		filter  model.RoadFilter
		want    []int64
	}{
		{
			name:    "by size, no filter, ties keep catalog order",
			sortKey: model.SortBySize,
			filter:  model.RoadAny,
			want:    []int64{2, 4, 3, 1, 5},
		},
		{
			name:    "by price, no filter, equal totals keep catalog order",
			sortKey: model.SortByPrice,
			filter:  model.RoadAny,
			want:    []int64{4, 2, 3, 1, 5},
		},
		{
			name:    "road allowed only",
			sortKey: model.SortBySize,
			filter:  model.RoadAllowed,
			want:    []int64{2, 1},
		},
		{
			name:    "private property only by price",
			sortKey: model.SortByPrice,
			filter:  model.RoadDisallowed,
			want:    []int64{4, 3, 5},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			catalog := sampleCatalog()
			before := sampleCatalog()

			got := Project(catalog, tt.sortKey, tt.filter)

			assert.Equal(t, tt.want, ids(got))
			assert.Equal(t, before, catalog, "catalog must not be mutated")
		})
	}
}

func TestProject_EmptyCatalog(t *testing.T) {
	got := Project(nil, model.SortByPrice, model.RoadAllowed)
	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestProject_ReturnsNewSlice(t *testing.T) {
	catalog := sampleCatalog()

	got := Project(catalog, model.SortBySize, model.RoadAny)
	got[0].Size = 999

	assert.NotEqual(t, 999, catalog[0].Size)
	assert.NotEqual(t, 999, catalog[1].Size)
}

func randomCatalog(r *rand.Rand, n int) []model.SkipOption {
	res := make([]model.SkipOption, n)
	for i := range res {
		res[i] = model.SkipOption{
			ID:             int64(i + 1),
			Size:           []int{4, 6, 8, 10, 12, 14, 16, 20, 40}[r.IntN(9)],
			HirePeriodDays: 14,
			PriceBeforeVAT: float64(r.IntN(8) * 50),
			VATPercent:     []float64{0, 5, 20}[r.IntN(3)],
			AllowedOnRoad:  r.IntN(2) == 0,
		}
	}
	return res
}

func TestProject_Properties(t *testing.T) {
	r := rand.New(rand.NewPCG(42, 7))
	filters := []model.RoadFilter{model.RoadAny, model.RoadAllowed, model.RoadDisallowed}
	keys := []model.SortKey{model.SortBySize, model.SortByPrice}

	for iter := 0; iter < 200; iter++ {
		catalog := randomCatalog(r, r.IntN(30))
		position := make(map[int64]int, len(catalog))
		for i, s := range catalog {
			position[s.ID] = i
		}

		for _, key := range keys {
			for _, f := range filters {
				got := Project(catalog, key, f)

				require.Equal(t, got, Project(catalog, key, f), "projection must be idempotent")

				if f == model.RoadAny {
					require.Len(t, got, len(catalog))
				}

				for i, s := range got {
					switch f {
					case model.RoadAllowed:
						require.True(t, s.AllowedOnRoad)
					case model.RoadDisallowed:
						require.False(t, s.AllowedOnRoad)
					}

					if i == 0 {
						continue
					}
					prev := got[i-1]

					var prevKey, curKey float64
					if key == model.SortByPrice {
						prevKey, curKey = prev.TotalPrice(), s.TotalPrice()
					} else {
						prevKey, curKey = float64(prev.Size), float64(s.Size)
					}
					require.LessOrEqual(t, prevKey, curKey)
					if prevKey == curKey {
						require.Less(t, position[prev.ID], position[s.ID], "equal keys must keep catalog order")
					}
				}
			}
		}
	}
}

func TestParseSortKey(t *testing.T) {
	tests := []struct {
		in      string
		want    model.SortKey
		wantErr bool
	}{
		{in: "", want: model.SortBySize},
		{in: "size", want: model.SortBySize},
		{in: "PRICE", want: model.SortByPrice},
		{in: "weight", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSortKey(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRoadFilter(t *testing.T) {
	tests := []struct {
		in      string
		want    model.RoadFilter
		wantErr bool
	}{
		{in: "", want: model.RoadAny},
		{in: "all", want: model.RoadAny},
		{in: "true", want: model.RoadAllowed},
		{in: "false", want: model.RoadDisallowed},
		{in: "maybe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRoadFilter(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCache(t *testing.T) {
	var c Cache

	snap := model.Snapshot{Catalog: sampleCatalog(), Version: 1}

	first := c.Project(snap, model.SortBySize, model.RoadAny)
	assert.Equal(t, []int64{2, 4, 3, 1, 5}, ids(first))

	first[0].ID = 100
	again := c.Project(snap, model.SortBySize, model.RoadAny)
	assert.Equal(t, int64(2), again[0].ID, "cached result must be copied")

	// Same version means same catalog: the cache is keyed by version, not contents.
	stale := model.Snapshot{Catalog: nil, Version: 1}
	assert.Len(t, c.Project(stale, model.SortBySize, model.RoadAny), 5)

	assert.Equal(t, []int64{4, 2, 3, 1, 5}, ids(c.Project(snap, model.SortByPrice, model.RoadAny)))

	next := model.Snapshot{Catalog: sampleCatalog()[:2], Version: 2}
	assert.Equal(t, []int64{2, 1}, ids(c.Project(next, model.SortByPrice, model.RoadAny)))
}
