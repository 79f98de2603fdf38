package rvr

import (
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport records writes and lets tests inject notifications, in
// place of a live BLE stack.
type fakeTransport struct {
	mu          sync.Mutex
	sent        [][]byte
	handler     func([]byte)
	rejectFirst int // reject this many writes before accepting
	respond     func(sent []byte) []byte
}

func (f *fakeTransport) SendCommand(data []byte) bool {
	f.mu.Lock()

	if f.rejectFirst > 0 {
		f.rejectFirst--
		f.mu.Unlock()
		return false
	}

	d := make([]byte, len(data))
	copy(d, data)
	f.sent = append(f.sent, d)

	respond := f.respond
	handler := f.handler
	f.mu.Unlock()

	if respond != nil && handler != nil {
		if resp := respond(d); resp != nil {
			handler(resp)
		}
	}

	return true
}

func (f *fakeTransport) SetDataHandler(h func([]byte)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = h
}

func (f *fakeTransport) Disconnect() error { return nil }

func (f *fakeTransport) lastSent() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.sent) == 0 {
		return nil
	}
	return f.sent[len(f.sent)-1]
}

func (f *fakeTransport) sentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

func (f *fakeTransport) deliver(data []byte) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()

	if h != nil {
		h(data)
	}
}

func newTestRVR() (*RVR, *fakeTransport) {
	ft := &fakeTransport{}
	return NewRVR(ft, hclog.NewNullLogger()), ft
}

func TestNextSequenceWrapsAfter256Calls(t *testing.T) {
	r, _ := newTestRVR()

	first := r.NextSequence()
	for i := 0; i < 255; i++ {
		r.NextSequence()
	}

	assert.Equal(t, first, r.NextSequence())
}

func TestSequenceNumbersAssignedInCallOrder(t *testing.T) {
	r, ft := newTestRVR()

	r.Stop()
	r.Stop()

	require.Equal(t, 2, ft.sentCount())
	assert.Equal(t, ft.sent[0][5]+1, ft.sent[1][5])
}

func TestSendAndAwaitResolvesOnMatchingCommandID(t *testing.T) {
	r, ft := newTestRVR()

	ft.respond = func(sent []byte) []byte {
		// answer every write with an ambient response
		payload := append([]byte{0x00}, beInt32(45230)...)
		return BuildFrame(FormatRaw, FlagIsResponse, DeviceSensors, SensorCommandsAmbientLight, sent[5], payload)
	}

	req := BuildFrame(FormatRaw, FlagRequestsResponse, DeviceSensors, SensorCommandsAmbientLight, r.NextSequence(), []byte{})

	f, ok := r.SendAndAwait(req, SensorCommandsAmbientLight, time.Second)
	require.True(t, ok)
	assert.EqualValues(t, SensorCommandsAmbientLight, f.Command)

	// the response was also classified as a side observer
	ambient := r.AmbientLight()
	assert.True(t, ambient.Valid)
	assert.InDelta(t, 45.23, ambient.Lux, 0.0001)
}

func TestSendAndAwaitTimesOutToNoData(t *testing.T) {
	r, _ := newTestRVR()

	req := BuildFrame(FormatRaw, FlagRequestsResponse, DeviceSensors, SensorCommandsDirectColor, r.NextSequence(), []byte{})

	start := time.Now()
	f, ok := r.SendAndAwait(req, SensorCommandsDirectColor, 50*time.Millisecond)

	assert.False(t, ok)
	assert.Empty(t, f.Raw)
	assert.Less(t, time.Since(start), time.Second)
}

func TestSendAndAwaitFalseWhenTransportRejects(t *testing.T) {
	r, ft := newTestRVR()
	ft.rejectFirst = 100

	req := BuildFrame(FormatRaw, FlagRequestsResponse, DeviceSensors, SensorCommandsDirectColor, r.NextSequence(), []byte{})

	_, ok := r.SendAndAwait(req, SensorCommandsDirectColor, time.Second)
	assert.False(t, ok)
}

func TestConcurrentAwaitsResolveFIFO(t *testing.T) {
	r, ft := newTestRVR()

	results := make(chan Frame, 2)
	var wg sync.WaitGroup

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			req := BuildFrame(FormatRaw, FlagRequestsResponse, DeviceSensors, SensorCommandsReadEncoders, r.NextSequence(), []byte{})
			if f, ok := r.SendAndAwait(req, SensorCommandsReadEncoders, time.Second); ok {
				results <- f
			}
		}()
	}

	// wait until both requests are in flight then answer twice
	require.Eventually(t, func() bool { return ft.sentCount() == 2 }, time.Second, time.Millisecond)

	payload := append([]byte{0x00}, append(beInt32(1), beInt32(2)...)...)
	ft.deliver(BuildFrame(FormatRaw, FlagIsResponse, DeviceSensors, SensorCommandsReadEncoders, 1, payload))
	ft.deliver(BuildFrame(FormatRaw, FlagIsResponse, DeviceSensors, SensorCommandsReadEncoders, 2, payload))

	wg.Wait()
	close(results)

	count := 0
	for range results {
		count++
	}
	assert.Equal(t, 2, count, "both waiters must resolve")
}

func TestFragmentedNotificationsUpdateCache(t *testing.T) {
	r, ft := newTestRVR()

	payload := append(beInt32(100), beInt32(200)...)
	frame := BuildFrame(FormatRaw, 0, DeviceSensors, SensorCommandsEncoderCounts, 1, payload)

	// deliver the frame in three arbitrary chunks
	ft.deliver(frame[:3])
	ft.deliver(frame[3:10])
	ft.deliver(frame[10:])

	enc := r.Encoders()
	require.True(t, enc.Valid)
	assert.EqualValues(t, 100, enc.Left)
	assert.EqualValues(t, 200, enc.Right)
}

func TestReadingsInvalidBeforeFirstSample(t *testing.T) {
	r, _ := newTestRVR()

	assert.False(t, r.Color().Valid)
	assert.False(t, r.AmbientLight().Valid)
	assert.False(t, r.Encoders().Valid)
	assert.False(t, r.IMU().Valid)
}

func TestLatestSampleWins(t *testing.T) {
	r, ft := newTestRVR()

	for i, lux := range []int32{1000, 2000, 3000} {
		payload := beInt32(lux)
		ft.deliver(BuildFrame(FormatRaw, 0, DeviceSensors, SensorCommandsAmbientLight, uint8(i), payload))
	}

	assert.InDelta(t, 3.0, r.AmbientLight().Lux, 0.0001)
}

func TestEventsPublishedToChannel(t *testing.T) {
	r, ft := newTestRVR()

	ft.deliver(BuildFrame(FormatRaw, 0, DeviceSensors, SensorCommandsColorNotify, 1, []byte{10, 20, 30, 0, 255}))

	select {
	case ev := <-r.Events():
		c, ok := ev.(ColorEvent)
		require.True(t, ok)
		assert.EqualValues(t, 10, c.R)
	default:
		t.Fatal("expected a color event on the channel")
	}
}

func TestCorruptFrameIsDroppedSilently(t *testing.T) {
	r, ft := newTestRVR()

	frame := BuildFrame(FormatRaw, 0, DeviceSensors, SensorCommandsAmbientLight, 1, beInt32(5000))
	frame[6] ^= 0xFF // breaks the checksum

	ft.deliver(frame)

	assert.False(t, r.AmbientLight().Valid)
}
