package rvr

import (
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

var defaultResponseTimeout = 10 * time.Second

// RVR drives a Sphero RVR+ over a Transport. It owns the receive buffer,
// the sequence counter, the pending response waiters and the latest sensor
// readings. All state is guarded because BLE stacks deliver notifications
// on their own goroutine.
type RVR struct {
	transport Transport
	log       hclog.Logger

	mu         sync.Mutex
	sequenceNo uint8
	buffer     FrameBuffer
	waiters    map[uint8][]chan Frame

	color    ColorReading
	ambient  AmbientReading
	encoders EncoderReading
	imu      IMUReading

	events chan Event

	lastError error
}

// NewRVR creates a controller on top of an already connected transport and
// starts consuming its notifications.
func NewRVR(t Transport, l hclog.Logger) *RVR {
	r := &RVR{
		transport: t,
		log:       l,
		waiters:   map[uint8][]chan Frame{},
		events:    make(chan Event, 16),
	}

	t.SetDataHandler(r.handleData)

	return r
}

// Connect scans for the named device, connects, builds the BLE transport
// and wakes the robot.
func Connect(addr string, adapter *BluetoothAdapter, l hclog.Logger) (*RVR, error) {
	t, err := newBLETransport(addr, adapter, l)
	if err != nil {
		return nil, err
	}

	r := NewRVR(t, l)
	r.Wake()

	return r, nil
}

// Events returns the stream of decoded sensor events. The channel is
// buffered; events are dropped, not blocked on, when the consumer lags.
func (r *RVR) Events() <-chan Event {
	return r.events
}

// GetLastError returns the error recorded by the most recent fluent command.
func (r *RVR) GetLastError() error {
	return r.lastError
}

// Close stops the transport connection.
func (r *RVR) Close() error {
	return r.transport.Disconnect()
}

// NextSequence returns the next command sequence number. The counter is an
// eight bit value and wraps.
func (r *RVR) NextSequence() uint8 {
	r.mu.Lock()
	defer r.mu.Unlock()

	seq := r.sequenceNo
	r.sequenceNo++

	return seq
}

// send builds and writes a single command frame. A false return means the
// transport did not accept the write; protocol level problems never surface
// here.
func (r *RVR) send(format Format, deviceID, commandID uint8, payload []byte) bool {
	return r.sendFlags(format, FlagResetsInactivityTimeout|FlagRequestsResponse, deviceID, commandID, payload)
}

func (r *RVR) sendFlags(format Format, flags, deviceID, commandID uint8, payload []byte) bool {
	data := BuildFrame(format, flags, deviceID, commandID, r.NextSequence(), payload)

	r.log.Trace("Sending data", "bytes", data)

	if !r.transport.SendCommand(data) {
		r.log.Error("Transport rejected write", "did", deviceID, "cid", commandID)
		return false
	}

	return true
}

// SendAndAwait writes a prebuilt frame and blocks until an inbound frame
// decodes with the expected command id, or the timeout passes. A timeout is
// routine, not an error: the second return is false and the Frame is zero.
// Waiters for the same command id resolve in FIFO order, so concurrent
// calls are safe, though two in-flight requests for the same command id can
// still cross-resolve if the device answers out of order.
func (r *RVR) SendAndAwait(frame []byte, expectedCommandID uint8, timeout time.Duration) (Frame, bool) {
	if timeout <= 0 {
		timeout = defaultResponseTimeout
	}

	ch := make(chan Frame, 1)

	r.mu.Lock()
	r.waiters[expectedCommandID] = append(r.waiters[expectedCommandID], ch)
	r.mu.Unlock()

	r.log.Trace("Sending data", "bytes", frame)

	if !r.transport.SendCommand(frame) {
		r.log.Error("Transport rejected write", "cid", expectedCommandID)
		r.removeWaiter(expectedCommandID, ch)
		return Frame{}, false
	}

	select {
	case f := <-ch:
		r.log.Debug("Got response", "data", f.Raw)
		return f, true

	case <-time.After(timeout):
		r.removeWaiter(expectedCommandID, ch)

		// the response may have landed between the timeout firing and
		// the waiter being removed
		select {
		case f := <-ch:
			return f, true
		default:
		}

		r.log.Debug("Timeout waiting for response", "cid", expectedCommandID)
		return Frame{}, false
	}
}

func (r *RVR) removeWaiter(commandID uint8, ch chan Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q := r.waiters[commandID]
	for i, w := range q {
		if w == ch {
			r.waiters[commandID] = append(q[:i], q[i+1:]...)
			return
		}
	}
}

// handleData is the transport notification callback. Deliveries are not
// frame aligned, so bytes are accumulated and every complete frame is
// decoded, classified, then offered to a pending waiter.
func (r *RVR) handleData(buf []byte) {
	r.mu.Lock()
	frames := r.buffer.Append(buf)
	r.mu.Unlock()

	for _, raw := range frames {
		f, err := DecodeFrame(raw)
		if err != nil {
			r.log.Trace("Dropping undecodable frame", "data", raw, "error", err)
			continue
		}

		// classification observes every frame, resolved or not; the
		// cache updates before any waiter is released so a query
		// issued from the await path sees the fresh sample
		if ev, ok := classify(f); ok {
			r.applyEvent(ev)
		} else {
			r.log.Trace("Unrecognized frame, disposed", "data", raw)
		}

		r.resolveWaiter(f)
	}
}

func (r *RVR) resolveWaiter(f Frame) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q := r.waiters[f.Command]
	if len(q) == 0 {
		return
	}

	q[0] <- f
	r.waiters[f.Command] = q[1:]
}

func (r *RVR) applyEvent(ev Event) {
	r.mu.Lock()

	now := time.Now()

	switch e := ev.(type) {
	case ColorEvent:
		r.color = ColorReading{R: e.R, G: e.G, B: e.B, Index: e.Index, Confidence: e.Confidence, Valid: true, UpdatedAt: now}
	case AmbientEvent:
		r.ambient = AmbientReading{Lux: e.Lux, Valid: true, UpdatedAt: now}
	case EncoderEvent:
		r.encoders = EncoderReading{Left: e.Left, Right: e.Right, Valid: true, UpdatedAt: now}
	case IMUEvent:
		r.imu = IMUReading{Ax: e.Ax, Ay: e.Ay, Az: e.Az, Gx: e.Gx, Gy: e.Gy, Gz: e.Gz, Valid: true, UpdatedAt: now}
	case DeviceErrorEvent:
		r.log.Warn("Device reported error", "did", e.DeviceID, "cid", e.Command, "seq", e.Sequence, "code", e.Code)
	}

	r.mu.Unlock()

	select {
	case r.events <- ev:
	default:
		r.log.Trace("Event channel full, dropping event")
	}
}

// Color returns the most recent color sample, Valid false if none arrived.
func (r *RVR) Color() ColorReading {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.color
}

// AmbientLight returns the most recent ambient light sample.
func (r *RVR) AmbientLight() AmbientReading {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ambient
}

// Encoders returns the most recent encoder counts.
func (r *RVR) Encoders() EncoderReading {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.encoders
}

// IMU returns the most recent IMU vector.
func (r *RVR) IMU() IMUReading {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.imu
}
