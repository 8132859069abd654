package main

import (
	"fmt"
	"io"
	"time"

	"github.com/mklimuk/imu/accel"
)

const (
	formatText = "text"
	formatRaw  = "raw"
)

var timeNow = time.Now

type formatter func(w io.Writer, r accel.Reading)

func newFormatter(name string) (formatter, error) {
	switch name {
	case formatText:
		return formatTextReading, nil
	case formatRaw:
		return formatRawReading, nil
	default:
		return nil, fmt.Errorf("unknown format %q", name)
	}
}

func formatTextReading(w io.Writer, r accel.Reading) {
	_, _ = fmt.Fprintln(w, r.Accel.String())
}

// formatRawReading writes lines in the "<timestamp> -> X n;Y n;Z n" form
// consumed by the offline analysis scripts.
func formatRawReading(w io.Writer, r accel.Reading) {
	_, _ = fmt.Fprintf(w, "%s -> %s\n", r.Time.Format(time.RFC3339), r.Raw)
}
