package rvr

import (
	"errors"
	"fmt"
)

// Format selects one of the two observed frame envelopes.
type Format int

const (
	// FormatRaw is the short envelope: 8D 18 <flag> <did> <cid> <seq> <payload...> <chk> D8
	FormatRaw Format = iota
	// FormatOfficial is the envelope produced by the official SDK:
	// 8D 3A 11 01 <did> <cid> <seq> <payload...> <chk> D8
	FormatOfficial
)

const (
	rawHeaderLen      = 6 // start, marker, flag, did, cid, seq
	officialHeaderLen = 7 // start, marker, target, source, did, cid, seq

	minRawFrameLen      = rawHeaderLen + 2
	minOfficialFrameLen = officialHeaderLen + 2
)

var (
	ErrFrameTooShort   = errors.New("frame too short")
	ErrBadDelimiters   = errors.New("frame delimiters invalid")
	ErrBadChecksum     = errors.New("checksum invalid")
	ErrUnknownEnvelope = errors.New("unknown frame envelope")
)

// Frame is one decoded 0x8D..0xD8 protocol message. Raw retains the full
// wire bytes because the sensor classifiers address fields positionally.
type Frame struct {
	Format   Format
	Flags    uint8
	DeviceID uint8
	Command  uint8
	Sequence uint8
	Err      uint8
	Payload  []byte
	Raw      []byte
}

func (f Frame) String() string {
	return fmt.Sprintf("frame did=%#02x cid=%#02x seq=%d len=%d", f.DeviceID, f.Command, f.Sequence, len(f.Raw))
}

// IsErrorResponse reports whether the frame is a device response carrying a
// nonzero error code.
func (f Frame) IsErrorResponse() bool {
	return f.Flags&FlagIsResponse != 0 && f.Err != 0
}

// BuildFrame constructs a wire frame in the given envelope. The checksum is
// the one's complement of the sum of every byte between the start marker and
// the checksum itself, modulo 256. Always produces a well formed frame.
func BuildFrame(format Format, flags, deviceID, commandID, seq uint8, payload []byte) []byte {
	var b []byte

	switch format {
	case FormatOfficial:
		b = make([]byte, 0, officialHeaderLen+len(payload)+2)
		b = append(b, DataPacketStart, OfficialFormatMarker, OfficialTargetByte, OfficialSourceByte, deviceID, commandID, seq)
	default:
		b = make([]byte, 0, rawHeaderLen+len(payload)+2)
		b = append(b, DataPacketStart, RawFormatMarker, flags, deviceID, commandID, seq)
	}

	b = append(b, payload...)
	b = append(b, calculateChecksum(b), DataPacketEnd)

	return b
}

// DecodeFrame parses a complete delimited frame into its positional fields.
// The envelope is selected on the second byte: 0x18 for raw, 0x3A or 0x38 for
// the official layout. Raw response frames carry the device error code as the
// first payload byte.
func DecodeFrame(d []byte) (Frame, error) {
	if len(d) < minRawFrameLen {
		return Frame{}, ErrFrameTooShort
	}
	if d[0] != DataPacketStart || d[len(d)-1] != DataPacketEnd {
		return Frame{}, ErrBadDelimiters
	}
	if d[len(d)-2] != calculateChecksum(d[:len(d)-2]) {
		return Frame{}, ErrBadChecksum
	}

	f := Frame{Raw: d}

	switch d[1] {
	case RawFormatMarker:
		f.Format = FormatRaw
		f.Flags = d[2]
		f.DeviceID = d[3]
		f.Command = d[4]
		f.Sequence = d[5]
		f.Payload = d[rawHeaderLen : len(d)-2]

		if f.Flags&FlagIsResponse != 0 && len(f.Payload) > 0 {
			f.Err = f.Payload[0]
		}

	case OfficialFormatMarker, OfficialStreamMarker:
		if len(d) < minOfficialFrameLen {
			return Frame{}, ErrFrameTooShort
		}
		f.Format = FormatOfficial
		f.DeviceID = d[4]
		f.Command = d[5]
		f.Sequence = d[6]
		f.Payload = d[officialHeaderLen : len(d)-2]

	default:
		return Frame{}, ErrUnknownEnvelope
	}

	return f, nil
}

func calculateChecksum(b []byte) uint8 {
	checksum := uint16(0)
	for _, b := range b[1:] {
		checksum = checksum + uint16(b)
	}

	return uint8(^(checksum % 256))
}

// Checksum computes the frame checksum over the bytes between the start
// marker and the checksum position. Exposed for wire level tests.
func Checksum(b []byte) uint8 {
	return calculateChecksum(b)
}
