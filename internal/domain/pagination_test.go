package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name       string
		total      int
		page       int
		limit      int
		totalPages int
	}{
		{"exact fit", 20, 1, 10, 2},
		{"partial last page", 21, 1, 10, 3},
		{"single item", 1, 1, 10, 1},
		{"empty", 0, 1, 10, 0},
		{"zero limit", 5, 1, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPagination(tt.total, tt.page, tt.limit)
			assert.Equal(t, tt.total, p.Total)
			assert.Equal(t, tt.page, p.Page)
			assert.Equal(t, tt.limit, p.Limit)
			assert.Equal(t, tt.totalPages, p.TotalPages)
		})
	}
}
