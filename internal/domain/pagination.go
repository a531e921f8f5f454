package domain

import "math"

// Pagination describes the slice of a collection returned by a list operation.
type Pagination struct {
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// NewPagination builds pagination metadata for a list response.
// TotalPages is ceil(total/limit); zero results yield zero pages.
func NewPagination(total, page, limit int) *Pagination {
	totalPages := 0
	if limit > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(limit)))
	}
	return &Pagination{
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	}
}
