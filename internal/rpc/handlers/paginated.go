package handlers

import (
	"fmt"
	"net/http"
	"strconv"
)

// PaginatedResponse wraps one page of T with the common pagination fields.
type PaginatedResponse[T any] struct {
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
	Total    int     `json:"total"`
	Prev     *string `json:"prev"`
	Next     *string `json:"next"`
	Data     []*T    `json:"data"`
}

const maxPageSize = 200

// ReturnPaginatedData populates the total count and constructs absolute URLs
// for prev and next based on the request's scheme, host, and path.
func (p *PaginatedResponse[T]) ReturnPaginatedData(r *http.Request, total int) {
	p.Total = total

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	baseURL := fmt.Sprintf("%s://%s%s", scheme, r.Host, r.URL.Path)

	if p.Page > 1 {
		prev := fmt.Sprintf("%s?page=%d&page_size=%d", baseURL, p.Page-1, p.PageSize)
		p.Prev = &prev
	} else {
		p.Prev = nil
	}

	offsetEnd := (p.Page-1)*p.PageSize + p.PageSize
	if offsetEnd < total {
		nxt := fmt.Sprintf("%s?page=%d&page_size=%d", baseURL, p.Page+1, p.PageSize)
		p.Next = &nxt
	} else {
		p.Next = nil
	}
}

// ExtractPagination reads the page and page_size from the query string
// and returns them with default fallbacks if they are missing or invalid.
func ExtractPagination(r *http.Request) (int, int) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	pageSize, err := strconv.Atoi(r.URL.Query().Get("page_size"))
	if err != nil || pageSize < 1 {
		pageSize = 10
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return page, pageSize
}
