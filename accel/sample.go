package accel

import "fmt"

// RawSample holds signed accelerometer counts as read from the sensor.
type RawSample struct {
	X, Y, Z int16
}

// String renders the line format used by the offline analysis scripts.
func (r RawSample) String() string {
	return fmt.Sprintf("X %d;Y %d;Z %d", r.X, r.Y, r.Z)
}

// Sample is an acceleration in units of standard gravity.
type Sample struct {
	X, Y, Z float32
}

func (s Sample) String() string {
	return fmt.Sprintf("Accel X: %.2f \t Accel Y: %.2f \t Accel Z: %.2f", s.X, s.Y, s.Z)
}

// Convert scales raw counts at the ±2g range to g.
func Convert(raw RawSample) Sample {
	return Sample{
		X: convertAxis(raw.X),
		Y: convertAxis(raw.Y),
		Z: convertAxis(raw.Z),
	}
}

func convertAxis(v int16) float32 {
	return float32(v) / countsPerG
}

// decodeSample assembles three big-endian axis words.
func decodeSample(buf []byte) RawSample {
	return RawSample{
		X: int16(uint16(buf[0])<<8 | uint16(buf[1])),
		Y: int16(uint16(buf[2])<<8 | uint16(buf[3])),
		Z: int16(uint16(buf[4])<<8 | uint16(buf[5])),
	}
}
