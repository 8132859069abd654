package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/imu/accel"
)

func TestFormatters(t *testing.T) {
	raw := accel.RawSample{X: 16384, Y: -8192, Z: 0}
	r := accel.Reading{
		Time:  time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC),
		Raw:   raw,
		Accel: accel.Convert(raw),
	}
	tests := []struct {
		format   string
		expected string
	}{
		{formatText, "Accel X: 1.00 \t Accel Y: -0.50 \t Accel Z: 0.00\n"},
		{formatRaw, "2024-03-01T12:30:00Z -> X 16384;Y -8192;Z 0\n"},
	}
	for _, test := range tests {
		t.Run(test.format, func(t *testing.T) {
			f, err := newFormatter(test.format)
			require.NoError(t, err)
			var out bytes.Buffer
			f(&out, r)
			assert.Equal(t, test.expected, out.String())
		})
	}
}

func TestUnknownFormat(t *testing.T) {
	_, err := newFormatter("csv")
	assert.EqualError(t, err, `unknown format "csv"`)
}
