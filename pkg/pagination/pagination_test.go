package pagination_test

import (
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JaimeStill/tollgate/pkg/pagination"
	"github.com/JaimeStill/tollgate/pkg/query"
)

func defaultConfig() pagination.Config {
	return pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}
}

func TestConfigFinalizeDefaults(t *testing.T) {
	cfg := pagination.Config{}
	require.NoError(t, cfg.Finalize(nil))

	assert.Equal(t, 20, cfg.DefaultPageSize)
	assert.Equal(t, 100, cfg.MaxPageSize)
}

func TestConfigFinalizeEnvOverrides(t *testing.T) {
	t.Setenv("TEST_PAGE_SIZE", "50")
	t.Setenv("TEST_MAX_PAGE", "200")

	cfg := pagination.Config{}
	require.NoError(t, cfg.Finalize(&pagination.ConfigEnv{
		DefaultPageSize: "TEST_PAGE_SIZE",
		MaxPageSize:     "TEST_MAX_PAGE",
	}))

	assert.Equal(t, 50, cfg.DefaultPageSize)
	assert.Equal(t, 200, cfg.MaxPageSize)
}

func TestConfigFinalizeValidation(t *testing.T) {
	cfg := pagination.Config{DefaultPageSize: 200, MaxPageSize: 100}
	err := cfg.Finalize(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "default_page_size cannot exceed max_page_size")
}

func TestConfigMerge(t *testing.T) {
	base := pagination.Config{DefaultPageSize: 20, MaxPageSize: 100}
	base.Merge(&pagination.Config{DefaultPageSize: 50})

	assert.Equal(t, 50, base.DefaultPageSize)
	assert.Equal(t, 100, base.MaxPageSize)
}

func TestPageRequestNormalize(t *testing.T) {
	tests := []struct {
		name         string
		req          pagination.PageRequest
		wantPage     int
		wantPageSize int
	}{
		{"zero values get defaults", pagination.PageRequest{}, 1, 20},
		{"negative page corrected", pagination.PageRequest{Page: -1, PageSize: 10}, 1, 10},
		{"page size clamped to max", pagination.PageRequest{Page: 1, PageSize: 500}, 1, 100},
		{"valid values preserved", pagination.PageRequest{Page: 3, PageSize: 25}, 3, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.req.Normalize(defaultConfig())
			assert.Equal(t, tt.wantPage, tt.req.Page)
			assert.Equal(t, tt.wantPageSize, tt.req.PageSize)
		})
	}
}

func TestPageRequestOffset(t *testing.T) {
	tests := []struct {
		page, pageSize, want int
	}{
		{1, 20, 0},
		{2, 20, 20},
		{3, 10, 20},
	}

	for _, tt := range tests {
		req := pagination.PageRequest{Page: tt.page, PageSize: tt.pageSize}
		assert.Equal(t, tt.want, req.Offset())
	}
}

func TestPageRequestFromQuery(t *testing.T) {
	values := url.Values{
		"page":   {"2"},
		"offset": {"10"},
		"search": {"widget"},
		"sort":   {"-created_at"},
	}

	req := pagination.PageRequestFromQuery(values, defaultConfig())

	assert.Equal(t, 2, req.Page)
	assert.Equal(t, 10, req.PageSize)
	require.NotNil(t, req.Search)
	assert.Equal(t, "widget", *req.Search)
	assert.Equal(t, pagination.SortFields{{Field: "created_at", Descending: true}}, req.Sort)

	values.Set("page_size", "5")
	assert.Equal(t, 5, pagination.PageRequestFromQuery(values, defaultConfig()).PageSize)
}

func TestSortFieldsUnmarshal(t *testing.T) {
	var fromString struct {
		Sort pagination.SortFields `json:"sort"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"sort":"name,-created_at"}`), &fromString))
	assert.Equal(t, pagination.SortFields{{Field: "name"}, {Field: "created_at", Descending: true}}, fromString.Sort)

	var fromArray struct {
		Sort pagination.SortFields `json:"sort"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"sort":[{"field":"name","descending":true}]}`), &fromArray))
	assert.Equal(t, pagination.SortFields{query.SortField{Field: "name", Descending: true}}, fromArray.Sort)
}

func TestNewPageResultHasNextPage(t *testing.T) {
	tests := []struct {
		name                  string
		total, page, pageSize int
		wantNext              bool
		wantPages             int
	}{
		{"first of three", 25, 1, 10, true, 3},
		{"last page", 25, 3, 10, false, 3},
		{"exact boundary", 20, 2, 10, false, 2},
		{"empty", 0, 1, 10, false, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := pagination.NewPageResult[int](nil, tt.total, tt.page, tt.pageSize)

			assert.Equal(t, tt.wantNext, res.HasNextPage)
			assert.Equal(t, tt.wantNext, tt.total > tt.page*tt.pageSize)
			assert.Equal(t, tt.wantPages, res.TotalPages)
			assert.NotNil(t, res.Data)
		})
	}
}

func TestMapPage(t *testing.T) {
	page := pagination.NewPageResult([]int{1, 2}, 12, 1, 2)
	mapped := pagination.MapPage(page, func(n int) string { return string(rune('a' + n)) })

	assert.Equal(t, []string{"b", "c"}, mapped.Data)
	assert.Equal(t, 12, mapped.Total)
	assert.True(t, mapped.HasNextPage)
}
