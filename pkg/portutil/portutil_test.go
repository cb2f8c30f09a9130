package portutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(1))
	require.NoError(t, Validate(65535))
	require.Error(t, Validate(0))
	require.Error(t, Validate(-1))
	require.Error(t, Validate(65536))
}

func TestParseRange(t *testing.T) {
	tests := []struct {
		in      string
		lo, hi  int
		wantErr bool
	}{
		{in: "5000-5100", lo: 5000, hi: 5100},
		{in: " 5000 - 5100 ", lo: 5000, hi: 5100},
		{in: "8080", lo: 8080, hi: 8080},
		{in: "5100-5000", lo: 5100, hi: 5000}, // inverted ranges pass through
		{in: "", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "0-100", wantErr: true},
		{in: "5000-70000", wantErr: true},
	}

	for _, tc := range tests {
		lo, hi, err := ParseRange(tc.in)
		if tc.wantErr {
			require.Error(t, err, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		require.Equal(t, tc.lo, lo)
		require.Equal(t, tc.hi, hi)
	}
}

func TestParseList(t *testing.T) {
	ports, err := ParseList("443,80,5000-5002,80")
	require.NoError(t, err)
	require.Equal(t, []int{80, 443, 5000, 5001, 5002}, ports)

	_, err = ParseList("80,bogus")
	require.Error(t, err)

	_, err = ParseList("5002-5000")
	require.Error(t, err, "inverted range inside a list is a mistake")

	ports, err = ParseList(" , ")
	require.NoError(t, err)
	require.Empty(t, ports)
}
