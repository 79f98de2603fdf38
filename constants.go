package rvr

const (
	DataPacketStart = 0x8D
	DataPacketEnd   = 0xD8

	// second envelope byte identifies the frame layout
	RawFormatMarker      = 0x18
	OfficialFormatMarker = 0x3A
	OfficialStreamMarker = 0x38
	OfficialTargetByte   = 0x11
	OfficialSourceByte   = 0x01

	FlagIsResponse                = 0x01
	FlagRequestsResponse          = 0x02
	FlagRequestsOnlyErrorResponse = 0x04
	FlagResetsInactivityTimeout   = 0x08

	DeviceSystem  = 0x11
	DevicePower   = 0x13
	DeviceDrive   = 0x16
	DeviceSensors = 0x18
	DeviceUserIO  = 0x1A

	PowerCommandsSleep = 0x01
	PowerCommandsWake  = 0x0D

	DriveCommandsTank = 0x01

	UserIOCommandsSetRGBLED = 0x1A
	UserIOCommandsLEDEcho   = 0x2F

	SensorCommandsDirectColor   = 0x0F
	SensorCommandsResetEncoders = 0x21
	SensorCommandsReadEncoders  = 0x22
	SensorCommandsColorEnable   = 0x26
	SensorCommandsColorConfig   = 0x27
	SensorCommandsColorLED      = 0x2B
	SensorCommandsColorNotify   = 0x2C
	SensorCommandsColorDetected = 0x2D
	SensorCommandsAmbientLight  = 0x30
	SensorCommandsStreamData    = 0x3D
	SensorCommandsEncoderCounts = 0x50
	SensorCommandsIMUData       = 0x51

	// Streaming service control, token based. The payload layouts are
	// reverse-engineering guesses and have not been confirmed against
	// any firmware revision.
	SensorCommandsStreamConfigure = 0x39
	SensorCommandsStreamStart     = 0x3A
	SensorCommandsStreamStop      = 0x3B
	SensorCommandsStreamClear     = 0x3C
)

// GATT characteristics for the RVR+ API v2 service
const (
	charUUIDAPIV2 = "00010002-574f-4f20-5370-6865726f2121"
	charUUIDDFU   = "00020002-574f-4f20-5370-6865726f2121"
)
