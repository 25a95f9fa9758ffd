package ids

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const testULID = "01HYX3KQW7ERTV9XNBM2P8QJZF"

func TestNewULIDReturnsValid(t *testing.T) {
	value, err := NewULID()

	require.NoError(t, err)
	require.NoError(t, ValidateULID(value))
}

func TestValidateULIDAcceptsKnownValue(t *testing.T) {
	require.NoError(t, ValidateULID(testULID))
}

func TestValidateULIDRejectsMalformed(t *testing.T) {
	for _, value := range []string{"", "not-a-ulid", "01HYX3KQW7ERTV9XNBM2P8QJZ", "01HYX3KQW7ERTV9XNBM2P8QJZFX"} {
		require.ErrorIs(t, ValidateULID(value), ErrInvalidULID, value)
	}
}

func TestMustNewULIDReturnsDistinctValues(t *testing.T) {
	a := MustNewULID()
	b := MustNewULID()

	require.NotEqual(t, a, b)
}
