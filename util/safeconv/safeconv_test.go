package safeconv

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToUint64(t *testing.T) {
	for _, v := range []any{uint64(7), 7, int64(7), int32(7), uint32(7), 7.0, float32(7), json.Number("7")} {
		u, err := ToUint64(v)
		require.NoError(t, err, "%T", v)
		assert.Equal(t, uint64(7), u)
	}

	u, err := ToUint64(json.Number("18446744073709551615"))
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64), u)
}

func TestToUint64Rejects(t *testing.T) {
	for _, v := range []any{-1, int64(-5), 1.5, -2.0, math.Inf(1), json.Number("18446744073709551616"), json.Number("-3"), "7", true, nil} {
		_, err := ToUint64(v)
		assert.Error(t, err, "%#v", v)
	}
}

func TestToFloat64(t *testing.T) {
	for _, v := range []any{0.25, float32(0.25), json.Number("0.25")} {
		f, err := ToFloat64(v)
		require.NoError(t, err)
		assert.InDelta(t, 0.25, f, 1e-9)
	}
	f, err := ToFloat64(-100)
	require.NoError(t, err)
	assert.Equal(t, -100.0, f)

	for _, v := range []any{uint(7), uint64(7), uint32(7), uint16(7), uint8(7), int64(7), int32(7), int16(7), int8(7)} {
		f, err := ToFloat64(v)
		require.NoError(t, err, "%T", v)
		assert.Equal(t, 7.0, f, "%T", v)
	}

	_, err = ToFloat64("1.0")
	assert.Error(t, err)
}
