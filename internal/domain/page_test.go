package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pkordes/figure-timeline/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestNewPaginationParams(t *testing.T) {
	tests := []struct {
		name        string
		page, limit *int
		want        domain.PaginationParams
	}{
		{"defaults", nil, nil, domain.PaginationParams{Page: 1, Limit: 20}},
		{"explicit", intPtr(3), intPtr(50), domain.PaginationParams{Page: 3, Limit: 50}},
		{"limit capped", nil, intPtr(1000), domain.PaginationParams{Page: 1, Limit: 100}},
		{"non-positive ignored", intPtr(0), intPtr(-5), domain.PaginationParams{Page: 1, Limit: 20}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, domain.NewPaginationParams(tc.page, tc.limit))
		})
	}
}

func TestPaginationParams_OffsetAndPages(t *testing.T) {
	p := domain.PaginationParams{Page: 3, Limit: 20}

	assert.Equal(t, 40, p.Offset())
	assert.Equal(t, 0, p.Pages(0))
	assert.Equal(t, 1, p.Pages(20))
	assert.Equal(t, 2, p.Pages(21))
}
