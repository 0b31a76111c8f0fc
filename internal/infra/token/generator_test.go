package token

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerator_Length(t *testing.T) {
	gen := NewGenerator()

	for _, length := range []int{1, 12, 50} {
		tok, err := gen.Generate(length)
		require.NoError(t, err)
		assert.Len(t, tok, length)
	}
}

func TestGenerator_AlphanumericOnly(t *testing.T) {
	gen := NewGenerator()

	tok, err := gen.Generate(200)
	require.NoError(t, err)
	assert.Regexp(t, "^[A-Za-z0-9]+$", tok)
}

func TestGenerator_InvalidLength(t *testing.T) {
	gen := NewGenerator()

	_, err := gen.Generate(0)
	assert.Error(t, err)

	_, err = gen.Generate(-5)
	assert.Error(t, err)
}

func TestGenerator_NotConstant(t *testing.T) {
	gen := NewGenerator()

	a, err := gen.Generate(12)
	require.NoError(t, err)
	b, err := gen.Generate(12)
	require.NoError(t, err)

	// 62^12 outcomes; identical consecutive draws indicate a broken source.
	assert.NotEqual(t, a, b)
}
