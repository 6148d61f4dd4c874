package dbtest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenSeedsRoles(t *testing.T) {
	client := Open(t)

	var names []string
	require.NoError(t, client.DB().Raw("SELECT name FROM roles ORDER BY id").Scan(&names).Error)
	assert.Equal(t, []string{"USER", "ADMIN"}, names)
}
