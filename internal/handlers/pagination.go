package handlers

import (
	"fmt"
	"strconv"
)

type paginationMeta struct {
	Total       int64 `json:"total"`
	TotalPages  int64 `json:"totalPages"`
	CurrentPage int64 `json:"currentPage"`
	HasMore     bool  `json:"hasMore"`
	HasPrev     bool  `json:"hasPrev"`
}

func parsePaginationParams(pageStr, limitStr string) (int64, int64, error) {
	page := int64(1)
	limit := int64(20)

	if pageStr != "" {
		p, err := strconv.ParseInt(pageStr, 10, 64)
		if err != nil || p < 1 {
			return 0, 0, fmt.Errorf("invalid page: %s", pageStr)
		}
		page = p
	}

	if limitStr != "" {
		l, err := strconv.ParseInt(limitStr, 10, 64)
		if err != nil || l < 1 {
			return 0, 0, fmt.Errorf("invalid limit: %s", limitStr)
		}
		limit = l
	}

	return page, limit, nil
}

func buildPaginationMeta(total, page, limit int64) paginationMeta {
	totalPages := total / limit
	if total%limit != 0 {
		totalPages++
	}

	return paginationMeta{
		Total:       total,
		TotalPages:  totalPages,
		CurrentPage: page,
		HasMore:     page < totalPages,
		HasPrev:     page > 1,
	}
}
