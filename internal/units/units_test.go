package units

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedPointRoundTrip(t *testing.T) {
	values := []string{
		"0", "1", "0.01", "0.02", "0.000001", "12.345678", "999999.999999",
		"0.123456789012345678", "1000000000",
	}
	for _, s := range values {
		t.Run(s, func(t *testing.T) {
			x := decimal.RequireFromString(s)
			fp, err := ToFixedPoint(x)
			require.NoError(t, err)
			assert.True(t, FromFixedPoint(fp).Equal(x), "got %s", FromFixedPoint(fp))
		})
	}
}

func TestToFixedPointTicketTotal(t *testing.T) {
	cost := decimal.RequireFromString("0.01")
	fp, err := ToFixedPoint(cost.Mul(decimal.NewFromInt(2)))
	require.NoError(t, err)
	assert.Equal(t, "20000000000000000", fp.String())
}

func TestToFixedPointTruncatesExtraDigits(t *testing.T) {
	fp, err := ToFixedPoint(decimal.RequireFromString("0.0000000000000000019"))
	require.NoError(t, err)
	assert.Equal(t, "1", fp.String())
}

func TestToFixedPointRejects(t *testing.T) {
	_, err := ToFixedPoint(decimal.RequireFromString("-0.5"))
	assert.ErrorIs(t, err, ErrNegativeAmount)

	huge := decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 300), 0)
	_, err = ToFixedPoint(huge)
	assert.ErrorIs(t, err, ErrAmountOutOfRange)
}

func TestFromFixedPointNil(t *testing.T) {
	assert.True(t, FromFixedPoint(nil).IsZero())
}

func TestParseAmount(t *testing.T) {
	d, err := ParseAmount(" 1.5 ")
	require.NoError(t, err)
	assert.Equal(t, "1.5", d.String())

	_, err = ParseAmount("abc")
	assert.ErrorIs(t, err, ErrInvalidAmount)
	_, err = ParseAmount("")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(50000), MinorUnits(decimal.NewFromInt(500)))
	assert.Equal(t, int64(1999), MinorUnits(decimal.RequireFromString("19.999")))
}
