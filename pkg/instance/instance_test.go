package instance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIDPrefersDyno(t *testing.T) {
	t.Setenv("DYNO", "web.1")
	t.Setenv("HOSTNAME", "box")
	assert.Equal(t, "web.1", ID())
}

func TestIDFallsBackToHostname(t *testing.T) {
	t.Setenv("DYNO", "")
	t.Setenv("HOSTNAME", "box")
	assert.Equal(t, "box", ID())

	t.Setenv("HOSTNAME", "")
	assert.Equal(t, "local", ID())
}
