package rvr

import (
	"encoding/binary"
	"fmt"
	"time"
)

func errCommandNotAccepted(op string) error {
	return fmt.Errorf("%s command not accepted by transport", op)
}

// tank drive direction bytes
const (
	motorOff     = 0x00
	motorForward = 0x01
	motorReverse = 0x02
)

func (r *RVR) Wait(d time.Duration) *RVR {
	time.Sleep(d)

	return r
}

// Wake brings the device out of sleep mode
func (r *RVR) Wake() *RVR {
	r.log.Debug("Wake")
	if !r.send(FormatRaw, DevicePower, PowerCommandsWake, []byte{}) {
		r.lastError = errCommandNotAccepted("wake")
	}

	return r
}

func (r *RVR) Sleep() *RVR {
	r.log.Debug("Sleep")
	if !r.send(FormatRaw, DevicePower, PowerCommandsSleep, []byte{}) {
		r.lastError = errCommandNotAccepted("sleep")
	}

	return r
}

// SetAllLEDs sets every LED on the shell to the same color
func (r *RVR) SetAllLEDs(red, green, blue uint8) *RVR {
	r.log.Debug("Setting LEDs", "r", red, "g", green, "b", blue)

	// 32 bit group mask selecting all LEDs, then one triplet
	payload := []byte{0xFF, 0xFF, 0xFF, 0xFF, red, green, blue}

	if !r.send(FormatRaw, DeviceUserIO, UserIOCommandsSetRGBLED, payload) {
		r.lastError = errCommandNotAccepted("set LEDs")
	}

	return r
}

// SetHeadlights sets only the two front LEDs
func (r *RVR) SetHeadlights(red, green, blue uint8) *RVR {
	r.log.Debug("Setting headlights", "r", red, "g", green, "b", blue)

	// group mask selecting the front left and front right triplets
	payload := []byte{0x00, 0x00, 0x00, 0x3F, red, green, blue}

	if !r.send(FormatRaw, DeviceUserIO, UserIOCommandsSetRGBLED, payload) {
		r.lastError = errCommandNotAccepted("set headlights")
	}

	return r
}

// Blink flashes all LEDs in the given color, leaving them off afterwards.
// The sleep is not preemptible; an early caller exit leaves the LEDs in
// whatever state the last write reached.
func (r *RVR) Blink(red, green, blue uint8, interval time.Duration, count int) *RVR {
	for i := 0; i < count; i++ {
		r.SetAllLEDs(red, green, blue).
			Wait(interval).
			SetAllLEDs(0, 0, 0).
			Wait(interval)
	}

	return r
}

// Fade steps all LEDs from one color to another over the given duration
func (r *RVR) Fade(fr, fg, fb, tr, tg, tb uint8, d time.Duration) *RVR {
	const steps = 20

	for i := 0; i <= steps; i++ {
		r.SetAllLEDs(
			lerpByte(fr, tr, i, steps),
			lerpByte(fg, tg, i, steps),
			lerpByte(fb, tb, i, steps),
		)
		time.Sleep(d / steps)
	}

	return r
}

// DriveTank drives the left and right tracks independently. Speeds are
// clamped to -255..255, sign selects direction.
func (r *RVR) DriveTank(left, right int) *RVR {
	left = clampSpeed(left)
	right = clampSpeed(right)

	r.log.Debug("Drive tank", "left", left, "right", right)

	payload := []byte{
		motorMode(left), speedByte(left),
		motorMode(right), speedByte(right),
	}

	if !r.send(FormatRaw, DeviceDrive, DriveCommandsTank, payload) {
		r.lastError = errCommandNotAccepted("drive tank")
	}

	return r
}

// DriveTankFor drives for the given duration then stops. The wait is not
// preemptible: if the caller abandons the goroutine the stop never fires
// and an explicit Stop call is required.
func (r *RVR) DriveTankFor(left, right int, d time.Duration) *RVR {
	r.DriveTank(left, right).
		Wait(d).
		Stop()

	return r
}

// Stop halts both tracks
func (r *RVR) Stop() *RVR {
	r.log.Debug("Stop")

	payload := []byte{motorOff, 0x00, motorOff, 0x00}

	if !r.send(FormatRaw, DeviceDrive, DriveCommandsTank, payload) {
		r.lastError = errCommandNotAccepted("stop")
	}

	return r
}

// ResetEncoders zeroes both wheel encoder counters
func (r *RVR) ResetEncoders() *RVR {
	r.log.Debug("Reset encoders")

	if !r.send(FormatRaw, DeviceSensors, SensorCommandsResetEncoders, []byte{}) {
		r.lastError = errCommandNotAccepted("reset encoders")
	}

	return r
}

// ReadEncoders requests the current encoder counts and waits for the
// response. ok is false when the device did not answer in time, which is
// routine on some firmware revisions.
func (r *RVR) ReadEncoders(timeout time.Duration) (EncoderReading, bool) {
	r.log.Debug("Read encoders")

	frame := BuildFrame(FormatRaw, FlagResetsInactivityTimeout|FlagRequestsResponse,
		DeviceSensors, SensorCommandsReadEncoders, r.NextSequence(), []byte{})

	f, ok := r.SendAndAwait(frame, SensorCommandsReadEncoders, timeout)
	if !ok || f.IsErrorResponse() || len(f.Payload) < 9 {
		return EncoderReading{}, false
	}

	// response payload: error byte then two big endian counts
	reading := EncoderReading{
		Left:      int32(binary.BigEndian.Uint32(f.Payload[1:5])),
		Right:     int32(binary.BigEndian.Uint32(f.Payload[5:9])),
		Valid:     true,
		UpdatedAt: time.Now(),
	}

	r.mu.Lock()
	r.encoders = reading
	r.mu.Unlock()

	return reading, true
}

// GetColor issues a direct color query and waits for the response. The
// cached reading is also refreshed because the response frame passes
// through the classifier.
func (r *RVR) GetColor(timeout time.Duration) (ColorReading, bool) {
	r.log.Debug("Get color")

	frame := BuildFrame(FormatRaw, FlagResetsInactivityTimeout|FlagRequestsResponse,
		DeviceSensors, SensorCommandsDirectColor, r.NextSequence(), []byte{})

	f, ok := r.SendAndAwait(frame, SensorCommandsDirectColor, timeout)
	if !ok || f.IsErrorResponse() {
		return ColorReading{}, false
	}

	return r.Color(), true
}

func clampSpeed(s int) int {
	if s > 255 {
		return 255
	}
	if s < -255 {
		return -255
	}
	return s
}

func motorMode(s int) byte {
	switch {
	case s > 0:
		return motorForward
	case s < 0:
		return motorReverse
	default:
		return motorOff
	}
}

func speedByte(s int) byte {
	if s < 0 {
		return byte(-s)
	}
	return byte(s)
}

func lerpByte(from, to uint8, step, steps int) uint8 {
	return uint8(int(from) + (int(to)-int(from))*step/steps)
}
