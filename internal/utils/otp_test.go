package utils

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateVisitCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateVisitCode()
		require.NoError(t, err)
		assert.Len(t, code, 4)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.Greater(t, n, 0)
		assert.LessOrEqual(t, n, 9999)
	}
}

func TestGenerateAccountCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code, err := GenerateAccountCode()
		require.NoError(t, err)
		assert.Len(t, code, 6)

		n, err := strconv.Atoi(code)
		require.NoError(t, err)
		assert.Greater(t, n, 0)
	}
}
