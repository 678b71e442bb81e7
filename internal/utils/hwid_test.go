package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHWID_StableAndHashed(t *testing.T) {
	first := HWID()
	assert.Len(t, first, 32)
	assert.Equal(t, first, HWID())
	assert.Regexp(t, "^[0-9a-f]+$", first)
}
