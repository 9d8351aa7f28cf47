package user

import (
	"testing"

	"github.com/Abraxas-365/craftable/storex"
	"github.com/stretchr/testify/assert"
)

func TestListUsersRequestGetOffset(t *testing.T) {
	req := ListUsersRequest{PaginationOptions: storex.PaginationOptions{Page: 1, PageSize: 10}}
	assert.Equal(t, 0, req.GetOffset())

	req.Page = 5
	assert.Equal(t, 40, req.GetOffset())
}
