package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidUsername(t *testing.T) {
	valid := []string{"alice", "a.b_c-d+e", "User123"}
	for _, u := range valid {
		assert.True(t, validUsername(u), u)
	}

	invalid := []string{"", "with space", "semi;colon", "slash/", "émile"}
	for _, u := range invalid {
		assert.False(t, validUsername(u), u)
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", normalizeEmail("  A@B.COM "))
}
