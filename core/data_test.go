package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		in      string
		want    Data
		wantErr bool
	}{
		{name: "answer", in: "0x002A", want: 42},
		{name: "zero", in: "0x0000", want: 0},
		{name: "upper prefix", in: "0X0007", want: 7},
		{name: "short", in: "0x1", want: 1},
		{name: "full width negative", in: "0xFFFFFFFFFFFFFFFF", want: -1},
		{name: "missing prefix", in: "002A", wantErr: true},
		{name: "no digits", in: "0x", wantErr: true},
		{name: "too wide", in: "0x00000000000000001", wantErr: true},
		{name: "not hex", in: "0x00G1", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseHex(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatHexRoundTrip(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "0x002A", FormatHex(42))
	assert.Equal(t, "0x0000", FormatHex(0))
	assert.Equal(t, "0x12345", FormatHex(0x12345))

	for _, d := range []Data{0, 1, 42, 1 << 20, -1, -42} {
		back, err := ParseHex(FormatHex(d))
		require.NoError(t, err)
		assert.Equal(t, d, back)
	}
}

func TestBasketIDString(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "β0", RootBasket.String())
	assert.Equal(t, "β-", NoBasket.String())
	assert.Equal(t, "β12", BasketID(12).String())
}
