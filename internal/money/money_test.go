package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr error
	}{
		{name: "whole units", input: "1000", want: 100000},
		{name: "two decimals", input: "125.50", want: 12550},
		{name: "one decimal", input: "0.5", want: 50},
		{name: "zero", input: "0", want: 0},
		{name: "negative", input: "-10.25", want: -1025},
		{name: "sub-cent precision", input: "1.005", wantErr: ErrTooPrecise},
		{name: "not a number", input: "ten", wantErr: ErrInvalidAmount},
		{name: "empty", input: "", wantErr: ErrInvalidAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1000.00", Format(100000))
	assert.Equal(t, "0.05", Format(5))
	assert.Equal(t, "-12.34", Format(-1234))
	assert.Equal(t, "0.00", Format(0))
}

func TestParseFormatRoundTrip(t *testing.T) {
	cents, err := Parse("99.99")
	assert.NoError(t, err)
	assert.Equal(t, "99.99", Format(cents))
}
