package rvr

// The exact payloads that switch the color and streaming sensors on differ
// between firmware revisions and most of them are reverse engineered, so
// activation walks an ordered candidate list and settles for the first
// write the transport accepts. Acceptance only means the write went out,
// not that the firmware honored it. Candidates are data; the loop never
// changes when one is added.

type activationCandidate struct {
	format    Format
	flags     uint8
	deviceID  uint8
	commandID uint8
	payload   []byte
}

const defaultFlags = FlagResetsInactivityTimeout | FlagRequestsResponse

// streaming service tokens, one per subscription slot. Values past the
// first are guesses.
const (
	streamTokenColor    = 0x01
	streamTokenAmbient  = 0x02
	streamTokenIMU      = 0x03
	streamTokenEncoders = 0x04
)

var colorSensorCandidates = []activationCandidate{
	{FormatRaw, defaultFlags, DeviceSensors, SensorCommandsColorConfig, []byte{0x01}},
	{FormatRaw, defaultFlags, DeviceSensors, SensorCommandsColorEnable, []byte{0x01}},
	{FormatRaw, FlagResetsInactivityTimeout, DeviceSensors, SensorCommandsColorEnable, []byte{0x01}},
	{FormatOfficial, 0, DeviceSensors, SensorCommandsColorEnable, []byte{0x01}},
	// some revisions want the sensor LED lit before samples flow
	{FormatRaw, defaultFlags, DeviceSensors, SensorCommandsColorLED, []byte{0xFF, 0xFF, 0xFF}},
}

var colorDetectionCandidates = []activationCandidate{
	{FormatRaw, defaultFlags, DeviceSensors, SensorCommandsColorNotify, []byte{0x01}},
	{FormatRaw, defaultFlags, DeviceSensors, SensorCommandsColorNotify, []byte{0x01, 0x00, 0x00}},
	{FormatOfficial, 0, DeviceSensors, SensorCommandsColorNotify, []byte{0x01}},
}

// token based streaming service candidates. Payload layout guess:
// token, interval ms (16 bit), enable. Unconfirmed, see the stream token
// note above.
var ambientStreamCandidates = []activationCandidate{
	{FormatRaw, defaultFlags, DeviceSensors, SensorCommandsStreamConfigure, []byte{streamTokenAmbient, 0x00, 0xFA, 0x01}},
	{FormatRaw, defaultFlags, DeviceSensors, SensorCommandsStreamStart, []byte{streamTokenAmbient}},
	{FormatRaw, defaultFlags, DeviceSensors, SensorCommandsAmbientLight, []byte{0x01}},
}

var imuStreamCandidates = []activationCandidate{
	{FormatRaw, defaultFlags, DeviceSensors, SensorCommandsStreamConfigure, []byte{streamTokenIMU, 0x00, 0x64, 0x01}},
	{FormatRaw, defaultFlags, DeviceSensors, SensorCommandsStreamStart, []byte{streamTokenIMU}},
	{FormatRaw, defaultFlags, DeviceSensors, SensorCommandsIMUData, []byte{0x01}},
}

var encoderStreamCandidates = []activationCandidate{
	{FormatRaw, defaultFlags, DeviceSensors, SensorCommandsStreamConfigure, []byte{streamTokenEncoders, 0x00, 0xFA, 0x01}},
	{FormatRaw, defaultFlags, DeviceSensors, SensorCommandsStreamStart, []byte{streamTokenEncoders}},
	{FormatRaw, defaultFlags, DeviceSensors, SensorCommandsEncoderCounts, []byte{0x01}},
}

var stopStreamCandidates = []activationCandidate{
	{FormatRaw, defaultFlags, DeviceSensors, SensorCommandsStreamStop, []byte{}},
	{FormatRaw, defaultFlags, DeviceSensors, SensorCommandsStreamClear, []byte{}},
}

// activate sends candidates in order until the transport accepts one.
func (r *RVR) activate(name string, candidates []activationCandidate) bool {
	for i, c := range candidates {
		if r.sendFlags(c.format, c.flags, c.deviceID, c.commandID, c.payload) {
			r.log.Debug("Activation accepted", "sensor", name, "candidate", i)
			return true
		}
	}

	r.log.Warn("No activation candidate accepted", "sensor", name)
	return false
}

// EnableColorSensor switches the downward facing color sensor on
func (r *RVR) EnableColorSensor() *RVR {
	if !r.activate("color", colorSensorCandidates) {
		r.lastError = errCommandNotAccepted("enable color sensor")
	}

	return r
}

// EnableColorDetection asks the firmware to push color detected
// notifications
func (r *RVR) EnableColorDetection() *RVR {
	if !r.activate("color-detection", colorDetectionCandidates) {
		r.lastError = errCommandNotAccepted("enable color detection")
	}

	return r
}

// EnableAmbientStream subscribes to ambient light samples
func (r *RVR) EnableAmbientStream() *RVR {
	if !r.activate("ambient", ambientStreamCandidates) {
		r.lastError = errCommandNotAccepted("enable ambient stream")
	}

	return r
}

// EnableIMUStream subscribes to accelerometer and gyro samples
func (r *RVR) EnableIMUStream() *RVR {
	if !r.activate("imu", imuStreamCandidates) {
		r.lastError = errCommandNotAccepted("enable imu stream")
	}

	return r
}

// EnableEncoderStream subscribes to wheel encoder counts
func (r *RVR) EnableEncoderStream() *RVR {
	if !r.activate("encoders", encoderStreamCandidates) {
		r.lastError = errCommandNotAccepted("enable encoder stream")
	}

	return r
}

// StopStreams tears down every streaming subscription
func (r *RVR) StopStreams() *RVR {
	if !r.activate("stop-streams", stopStreamCandidates) {
		r.lastError = errCommandNotAccepted("stop streams")
	}

	return r
}
