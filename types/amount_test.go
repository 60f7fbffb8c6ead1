package types

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount("1000000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "1", FormatAlph(d))

	_, err = ParseAmount("")
	assert.Error(t, err)

	_, err = ParseAmount("-5")
	assert.Error(t, err)

	_, err = ParseAmount("1.5")
	assert.Error(t, err)

	_, err = ParseAmount("abc")
	assert.Error(t, err)
}

func TestFormatAlph(t *testing.T) {
	d := decimal.RequireFromString("1500000000000000000")
	assert.Equal(t, "1.5", FormatAlph(d))
}
