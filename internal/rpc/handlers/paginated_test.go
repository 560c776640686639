package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReturnPaginatedData(t *testing.T) {
	t.Run("HTTP, page=1 => no prev, has next", func(t *testing.T) {
		resp := PaginatedResponse[string]{
			Page:     1,
			PageSize: 10,
		}
		req := httptest.NewRequest(http.MethodGet, "http://example.com/api/v1/test", nil)
		resp.ReturnPaginatedData(req, 100)

		assert.Nil(t, resp.Prev)
		require.NotNil(t, resp.Next)
		assert.Equal(t, "http://example.com/api/v1/test?page=2&page_size=10", *resp.Next)
		assert.Equal(t, 100, resp.Total)
	})

	t.Run("HTTPS, page=2 => has prev, no next if offsetEnd >= total", func(t *testing.T) {
		resp := PaginatedResponse[string]{
			Page:     2,
			PageSize: 10,
		}
		req := httptest.NewRequest(http.MethodGet, "https://example.com/api/v1/test", nil)
		resp.ReturnPaginatedData(req, 20)

		require.NotNil(t, resp.Prev)
		assert.Equal(t, "https://example.com/api/v1/test?page=1&page_size=10", *resp.Prev)
		assert.Nil(t, resp.Next)
		assert.Equal(t, 20, resp.Total)
	})
}

func TestExtractPagination(t *testing.T) {
	testCases := []struct {
		name         string
		url          string
		wantPage     int
		wantPageSize int
	}{
		{"Valid page & page_size", "http://example.com?page=3&page_size=15", 3, 15},
		{"Missing params", "http://example.com", 1, 10},
		{"Invalid params", "http://example.com?page=abc&page_size=xyz", 1, 10},
		{"Negative params", "http://example.com?page=-2&page_size=0", 1, 10},
		{"Page size capped", "http://example.com?page=1&page_size=5000", 1, maxPageSize},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			page, pageSize := ExtractPagination(req)
			assert.Equal(t, tc.wantPage, page)
			assert.Equal(t, tc.wantPageSize, pageSize)
		})
	}
}

func ptr(s string) *string {
	return &s
}

func TestPaginatedResponse_JSONMarshalling(t *testing.T) {
	resp := PaginatedResponse[string]{
		Page:     1,
		PageSize: 2,
		Total:    10,
		Prev:     nil,
		Next:     ptr("next-link"),
		Data:     []*string{ptr("foo"), ptr("bar")},
	}
	bytes, err := json.Marshal(resp)
	require.NoError(t, err)

	var parsed map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes, &parsed))
	assert.Equal(t, float64(1), parsed["page"])
	assert.Equal(t, float64(2), parsed["page_size"])
	assert.Nil(t, parsed["prev"])
	assert.Equal(t, "next-link", parsed["next"])
	assert.Len(t, parsed["data"], 2)
}
