package rvr

import "time"

// Event is one semantic reading decoded from an inbound frame. Exactly one
// of the concrete event types below is produced per recognized frame.
type Event interface {
	eventKind() string
}

// ColorEvent is a surface color sample from the downward facing sensor.
// Channels are raw sensor bytes, no scaling applied.
type ColorEvent struct {
	R, G, B    uint8
	Index      uint8
	Confidence uint8
}

// AmbientEvent is an ambient light sample in engineering-unit lux.
type AmbientEvent struct {
	Lux float64
}

// EncoderEvent carries the left and right wheel encoder counts in native
// tick units.
type EncoderEvent struct {
	Left, Right int32
}

// IMUEvent carries accelerometer and gyro axes scaled to engineering units.
type IMUEvent struct {
	Ax, Ay, Az float64
	Gx, Gy, Gz float64
}

// DeviceErrorEvent is a device reported error response. It is diagnostic
// only, nothing in the protocol core fails because of it.
type DeviceErrorEvent struct {
	DeviceID uint8
	Command  uint8
	Sequence uint8
	Code     uint8
}

func (ColorEvent) eventKind() string       { return "color" }
func (AmbientEvent) eventKind() string     { return "ambient" }
func (EncoderEvent) eventKind() string     { return "encoders" }
func (IMUEvent) eventKind() string         { return "imu" }
func (DeviceErrorEvent) eventKind() string { return "device_error" }

// ColorReading is the latest cached color sample. Valid is false until the
// first sample arrives.
type ColorReading struct {
	R, G, B    uint8
	Index      uint8
	Confidence uint8
	Valid      bool
	UpdatedAt  time.Time
}

// AmbientReading is the latest cached ambient light sample in lux.
type AmbientReading struct {
	Lux       float64
	Valid     bool
	UpdatedAt time.Time
}

// EncoderReading is the latest cached encoder counts.
type EncoderReading struct {
	Left, Right int32
	Valid       bool
	UpdatedAt   time.Time
}

// IMUReading is the latest cached IMU vector.
type IMUReading struct {
	Ax, Ay, Az float64
	Gx, Gy, Gz float64
	Valid      bool
	UpdatedAt  time.Time
}
