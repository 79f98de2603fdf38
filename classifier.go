package rvr

import (
	"encoding/binary"
)

// The same command id shows up at different byte offsets depending on which
// firmware path produced the frame, so classification is positional and best
// effort. Each hypothesis declares its gates and data offset as plain data
// and the list is walked in precedence order; the first hypothesis whose
// gates and minimum length are satisfied decides the frame.

type decodeKind int

const (
	kindColorRGB decodeKind = iota // r, g, b only
	kindColorFull                  // r, g, b, index, confidence
	kindAmbient                    // int32 big endian, millilux
	kindEncoders                   // two int32 big endian tick counts
	kindIMU                        // six int32 big endian, milliunits
)

const anyFormat = Format(-1)

type hypothesis struct {
	name      string
	kind      decodeKind
	minLen    int    // minimum total frame length including delimiters
	format    Format // anyFormat to skip the envelope gate
	marker    byte   // exact second byte requirement, 0 to skip
	deviceID  byte   // 0 to skip
	commandID byte
	altCmd    byte // optional second accepted command id
	dataOff   int  // offset of the first data byte within the raw frame
}

// hypotheses in fixed precedence order. Raw envelope payloads start at
// offset 6, official at 7; response payloads carry the error byte first.
var hypotheses = []hypothesis{
	{name: "led-echo-color", kind: kindColorRGB, minLen: 12, format: FormatRaw, deviceID: DeviceUserIO, commandID: UserIOCommandsLEDEcho, dataOff: 7},
	{name: "stream-color-official", kind: kindColorFull, minLen: 15, format: FormatOfficial, marker: OfficialStreamMarker, commandID: SensorCommandsStreamData, dataOff: 8},
	{name: "color-notify", kind: kindColorFull, minLen: 13, format: FormatRaw, commandID: SensorCommandsColorNotify, altCmd: SensorCommandsColorDetected, dataOff: 6},
	{name: "stream-color-token", kind: kindColorRGB, minLen: 12, format: FormatRaw, commandID: SensorCommandsStreamData, dataOff: 7},
	{name: "direct-color", kind: kindColorFull, minLen: 14, format: FormatRaw, commandID: SensorCommandsDirectColor, dataOff: 7},
	{name: "ambient-official", kind: kindAmbient, minLen: 13, format: FormatOfficial, commandID: SensorCommandsAmbientLight, dataOff: 7},
	{name: "ambient-response", kind: kindAmbient, minLen: 13, format: FormatRaw, commandID: SensorCommandsAmbientLight, dataOff: 7},
	{name: "ambient-stream", kind: kindAmbient, minLen: 12, format: FormatRaw, commandID: SensorCommandsAmbientLight, dataOff: 6},
	{name: "encoders-official", kind: kindEncoders, minLen: 17, format: FormatOfficial, commandID: SensorCommandsEncoderCounts, dataOff: 7},
	{name: "encoders-response", kind: kindEncoders, minLen: 17, format: FormatRaw, commandID: SensorCommandsEncoderCounts, dataOff: 7},
	{name: "encoders-stream", kind: kindEncoders, minLen: 16, format: FormatRaw, commandID: SensorCommandsEncoderCounts, dataOff: 6},
	{name: "imu-official", kind: kindIMU, minLen: 33, format: FormatOfficial, commandID: SensorCommandsIMUData, dataOff: 7},
	{name: "imu-response", kind: kindIMU, minLen: 33, format: FormatRaw, commandID: SensorCommandsIMUData, dataOff: 7},
	{name: "imu-stream", kind: kindIMU, minLen: 32, format: FormatRaw, commandID: SensorCommandsIMUData, dataOff: 6},
}

func (h hypothesis) matches(f Frame) bool {
	if len(f.Raw) < h.minLen {
		return false
	}
	if h.format != anyFormat && f.Format != h.format {
		return false
	}
	if h.marker != 0 && f.Raw[1] != h.marker {
		return false
	}
	if h.deviceID != 0 && f.DeviceID != h.deviceID {
		return false
	}
	if f.Command != h.commandID && (h.altCmd == 0 || f.Command != h.altCmd) {
		return false
	}
	return true
}

// classify maps a decoded frame to zero or one semantic event. Frames that
// match no hypothesis produce nothing; there is no failure path here.
func classify(f Frame) (Event, bool) {
	if f.IsErrorResponse() {
		return DeviceErrorEvent{
			DeviceID: f.DeviceID,
			Command:  f.Command,
			Sequence: f.Sequence,
			Code:     f.Err,
		}, true
	}

	for _, h := range hypotheses {
		if !h.matches(f) {
			continue
		}

		if ev, ok := h.decode(f.Raw); ok {
			return ev, true
		}
	}

	return nil, false
}

func (h hypothesis) decode(raw []byte) (Event, bool) {
	d := raw[h.dataOff:]

	switch h.kind {
	case kindColorRGB:
		if len(d) < 3 {
			return nil, false
		}
		return ColorEvent{R: d[0], G: d[1], B: d[2], Confidence: 0xFF}, true

	case kindColorFull:
		if len(d) < 5 {
			return nil, false
		}
		return ColorEvent{R: d[0], G: d[1], B: d[2], Index: d[3], Confidence: d[4]}, true

	case kindAmbient:
		if len(d) < 4 {
			return nil, false
		}
		return AmbientEvent{Lux: milliToUnit(d)}, true

	case kindEncoders:
		if len(d) < 8 {
			return nil, false
		}
		return EncoderEvent{
			Left:  int32(binary.BigEndian.Uint32(d[0:4])),
			Right: int32(binary.BigEndian.Uint32(d[4:8])),
		}, true

	case kindIMU:
		if len(d) < 24 {
			return nil, false
		}
		return IMUEvent{
			Ax: milliToUnit(d[0:4]),
			Ay: milliToUnit(d[4:8]),
			Az: milliToUnit(d[8:12]),
			Gx: milliToUnit(d[12:16]),
			Gy: milliToUnit(d[16:20]),
			Gz: milliToUnit(d[20:24]),
		}, true
	}

	return nil, false
}

// milliToUnit reads a signed 32 bit big endian value scaled by 1000.
func milliToUnit(d []byte) float64 {
	return float64(int32(binary.BigEndian.Uint32(d[0:4]))) / 1000.0
}
