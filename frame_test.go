package rvr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sumComplement(b []byte) uint8 {
	sum := 0
	for _, v := range b {
		sum += int(v)
	}
	return uint8(^(sum % 256))
}

func TestBuildRawFrameLayout(t *testing.T) {
	f := BuildFrame(FormatRaw, FlagRequestsResponse, DeviceDrive, DriveCommandsTank, 7, []byte{0x01, 0x80, 0x02, 0x40})

	require.Len(t, f, 12)
	assert.EqualValues(t, DataPacketStart, f[0])
	assert.EqualValues(t, RawFormatMarker, f[1])
	assert.EqualValues(t, FlagRequestsResponse, f[2])
	assert.EqualValues(t, DeviceDrive, f[3])
	assert.EqualValues(t, DriveCommandsTank, f[4])
	assert.EqualValues(t, 7, f[5])
	assert.EqualValues(t, DataPacketEnd, f[len(f)-1])

	// checksum covers everything between start marker and itself
	assert.Equal(t, sumComplement(f[1:len(f)-2]), f[len(f)-2])
}

func TestBuildOfficialFrameLayout(t *testing.T) {
	f := BuildFrame(FormatOfficial, 0, DeviceSensors, SensorCommandsAmbientLight, 3, []byte{0xAA})

	require.Len(t, f, 10)
	assert.EqualValues(t, DataPacketStart, f[0])
	assert.EqualValues(t, OfficialFormatMarker, f[1])
	assert.EqualValues(t, OfficialTargetByte, f[2])
	assert.EqualValues(t, OfficialSourceByte, f[3])
	assert.EqualValues(t, DeviceSensors, f[4])
	assert.EqualValues(t, SensorCommandsAmbientLight, f[5])
	assert.EqualValues(t, 3, f[6])
	assert.EqualValues(t, DataPacketEnd, f[len(f)-1])
	assert.Equal(t, sumComplement(f[1:len(f)-2]), f[len(f)-2])
}

func TestBuildFrameChecksumProperty(t *testing.T) {
	payloads := [][]byte{
		{},
		{0x00},
		{0xFF, 0xFF, 0xFF},
		{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08},
	}

	for _, p := range payloads {
		for _, format := range []Format{FormatRaw, FormatOfficial} {
			f := BuildFrame(format, FlagResetsInactivityTimeout, DeviceSensors, SensorCommandsDirectColor, 42, p)

			assert.EqualValues(t, DataPacketStart, f[0])
			assert.EqualValues(t, DataPacketEnd, f[len(f)-1])
			assert.Equal(t, sumComplement(f[1:len(f)-2]), f[len(f)-2])
		}
	}
}

func TestDecodeRawFrameRoundTrip(t *testing.T) {
	payload := []byte{0x10, 0x20, 0x30}
	raw := BuildFrame(FormatRaw, FlagRequestsResponse, DeviceUserIO, UserIOCommandsSetRGBLED, 99, payload)

	f, err := DecodeFrame(raw)
	require.NoError(t, err)

	assert.Equal(t, FormatRaw, f.Format)
	assert.EqualValues(t, FlagRequestsResponse, f.Flags)
	assert.EqualValues(t, DeviceUserIO, f.DeviceID)
	assert.EqualValues(t, UserIOCommandsSetRGBLED, f.Command)
	assert.EqualValues(t, 99, f.Sequence)
	assert.Equal(t, payload, f.Payload)
}

func TestDecodeOfficialFrameRoundTrip(t *testing.T) {
	payload := []byte{0x01, 0x02}
	raw := BuildFrame(FormatOfficial, 0, DeviceSensors, SensorCommandsStreamData, 5, payload)

	f, err := DecodeFrame(raw)
	require.NoError(t, err)

	assert.Equal(t, FormatOfficial, f.Format)
	assert.EqualValues(t, DeviceSensors, f.DeviceID)
	assert.EqualValues(t, SensorCommandsStreamData, f.Command)
	assert.EqualValues(t, 5, f.Sequence)
	assert.Equal(t, payload, f.Payload)
}

func TestDecodeRejectsBadChecksum(t *testing.T) {
	raw := BuildFrame(FormatRaw, 0, DeviceDrive, DriveCommandsTank, 1, []byte{0x01})
	raw[len(raw)-2] ^= 0xFF

	_, err := DecodeFrame(raw)
	assert.ErrorIs(t, err, ErrBadChecksum)
}

func TestDecodeRejectsShortFrame(t *testing.T) {
	_, err := DecodeFrame([]byte{DataPacketStart, RawFormatMarker, DataPacketEnd})
	assert.ErrorIs(t, err, ErrFrameTooShort)
}

func TestDecodeRejectsUnknownEnvelope(t *testing.T) {
	raw := BuildFrame(FormatRaw, 0, DeviceDrive, DriveCommandsTank, 1, []byte{0x01})
	raw[1] = 0x55
	raw[len(raw)-2] = Checksum(raw[:len(raw)-2])

	_, err := DecodeFrame(raw)
	assert.ErrorIs(t, err, ErrUnknownEnvelope)
}

func TestDecodeErrorResponseCarriesCode(t *testing.T) {
	raw := BuildFrame(FormatRaw, FlagIsResponse, DeviceSensors, SensorCommandsDirectColor, 8, []byte{0x02})

	f, err := DecodeFrame(raw)
	require.NoError(t, err)

	assert.True(t, f.IsErrorResponse())
	assert.EqualValues(t, 0x02, f.Err)
}
