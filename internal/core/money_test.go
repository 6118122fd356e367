package core

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1", true},
		{"1.23", "1.23", true},
		{"-800", "-800", true},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrValidation, "%q", tc.in)
			continue
		}
		require.NoError(t, err, "%q", tc.in)
		want, _ := ParseAmount(tc.out)
		assert.True(t, got.Equal(want), "%q parsed to %s", tc.in, got)
	}
}

func TestAmountJSON(t *testing.T) {
	var a Amount
	require.NoError(t, json.Unmarshal([]byte(`133.7`), &a))
	assert.Equal(t, "133.7", a.String())

	require.NoError(t, json.Unmarshal([]byte(`"-30"`), &a))
	assert.True(t, a.IsNegative())

	data, err := json.Marshal(NewAmount(-100))
	require.NoError(t, err)
	assert.Equal(t, "-100", string(data))

	assert.ErrorIs(t, json.Unmarshal([]byte(`"lots"`), &a), ErrValidation)
}

func TestAmountSumIsExact(t *testing.T) {
	fill := NewAmount(950)
	spent := NewAmount(-800).Add(NewAmount(-100))
	assert.True(t, fill.Add(spent).Equal(NewAmount(50)))
	assert.Equal(t, 50.0, fill.Add(spent).Float64())
}

func TestAmountScan(t *testing.T) {
	var a Amount
	require.NoError(t, a.Scan(float64(133.7)))
	assert.True(t, a.Equal(NewAmount(133.7)))

	require.NoError(t, a.Scan(int64(-5)))
	assert.True(t, a.Equal(NewAmount(-5)))

	require.NoError(t, a.Scan(nil))
	assert.True(t, a.IsZero())

	v, err := NewAmount(12.5).Value()
	require.NoError(t, err)
	assert.Equal(t, 12.5, v)
}
