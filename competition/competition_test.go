package competition

import (
	"testing"

	"github.com/Abraxas-365/craftable/storex"
	"github.com/stretchr/testify/assert"
)

func TestListCompetitionsRequestGetOffset(t *testing.T) {
	tests := []struct {
		page     int
		pageSize int
		offset   int
	}{
		{1, 20, 0},
		{2, 20, 20},
		{3, 50, 100},
	}

	for _, tt := range tests {
		req := ListCompetitionsRequest{PaginationOptions: storex.PaginationOptions{Page: tt.page, PageSize: tt.pageSize}}
		assert.Equal(t, tt.offset, req.GetOffset(), "page %d size %d", tt.page, tt.pageSize)
	}
}
