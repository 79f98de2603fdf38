package rvr

import "bytes"

// FrameBuffer accumulates raw notification bytes and carves complete
// 0x8D..0xD8 delimited frames out of them. BLE notifications are not frame
// aligned so a frame may arrive split over several deliveries, or several
// frames may arrive in one.
type FrameBuffer struct {
	buf []byte
}

// Append adds newly delivered bytes and returns every complete frame now
// available, in arrival order. After each call all bytes before the first
// unmatched start marker have been discarded, so noise ahead of a valid
// frame cannot grow the buffer without bound.
//
// A 0xD8 data byte inside a payload terminates the frame early. The wire
// format gives no way to distinguish it from the real end marker, so the
// scan is best effort; the truncated frame fails checksum and is dropped by
// the caller.
func (b *FrameBuffer) Append(data []byte) [][]byte {
	b.buf = append(b.buf, data...)

	var frames [][]byte

	for {
		start := bytes.IndexByte(b.buf, DataPacketStart)
		if start < 0 {
			// nothing but noise
			b.buf = b.buf[:0]
			return frames
		}

		end := bytes.IndexByte(b.buf[start+1:], DataPacketEnd)
		if end < 0 {
			// partial frame, keep the tail for the next delivery
			b.buf = append(b.buf[:0], b.buf[start:]...)
			return frames
		}
		end += start + 1

		frame := make([]byte, end-start+1)
		copy(frame, b.buf[start:end+1])
		frames = append(frames, frame)

		b.buf = append(b.buf[:0], b.buf[end+1:]...)
	}
}

// Len returns the number of buffered bytes awaiting a frame end.
func (b *FrameBuffer) Len() int {
	return len(b.buf)
}
