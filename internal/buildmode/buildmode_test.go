package buildmode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMode(t *testing.T) {
	assert.True(t, Mode().Valid())
}
