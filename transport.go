package rvr

import (
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"
	"tinygo.org/x/bluetooth"
)

var discoverTimeout = 60 * time.Second

// Transport is the send/receive bridge to the device. Implementations
// report write acceptance as a boolean; acceptance means the write left the
// host, not that the robot honored the command.
type Transport interface {
	SendCommand(data []byte) bool
	SetDataHandler(handler func(data []byte))
	Disconnect() error
}

// bleTransport talks to the RVR+ API v2 GATT service using write without
// response for commands and notifications for inbound frames.
type bleTransport struct {
	device    *bluetooth.Device
	charAPIV2 bluetooth.DeviceCharacteristic
	log       hclog.Logger
	handler   func(data []byte)
}

// newBLETransport finds the named device, connects and subscribes to the
// API v2 characteristic.
func newBLETransport(addr string, adapter *BluetoothAdapter, l hclog.Logger) (*bleTransport, error) {
	var device *bluetooth.Device
	var err error

	// try multiple times as Darwin bluetooth is flakey
	for i := 0; i < 5; i++ {
		l.Debug("Connecting to device", "address", addr, "attempt", i+1)

		device, err = setupConnection(addr, adapter, l)
		if device != nil && err == nil {
			break
		}
	}

	if err != nil || device == nil {
		l.Error("Unable to connect to bluetooth device", "address", addr, "error", err)
		return nil, err
	}

	var services []bluetooth.DeviceService

	for i := 0; i < 5; i++ {
		l.Debug("Attempting to discover services", "address", addr, "attempt", i+1)

		services, err = device.DiscoverServices([]bluetooth.UUID{})
		if err == nil && len(services) > 0 {
			break
		}
	}

	if err != nil {
		l.Error("Unable to get services for bluetooth device", "address", addr, "error", err)
		return nil, err
	}

	charAPIV2, err := getCharacteristic(services, charUUIDAPIV2)
	if err != nil {
		l.Error("Unable to find API v2 characteristic", "address", addr, "error", err)
		return nil, err
	}

	t := &bleTransport{
		device:    device,
		charAPIV2: charAPIV2,
		log:       l,
	}

	err = t.charAPIV2.EnableNotifications(func(buf []byte) {
		if t.handler != nil {
			t.handler(buf)
		}
	})

	if err != nil {
		l.Error("Unable to receive notifications for charAPIV2", "error", err)
		return nil, err
	}

	return t, nil
}

// SendCommand writes one frame to the API v2 characteristic. tinygo
// bluetooth only exposes write without response, so a failed write is
// retried once before reporting rejection.
func (t *bleTransport) SendCommand(data []byte) bool {
	_, err := t.charAPIV2.WriteWithoutResponse(data)
	if err == nil {
		return true
	}

	t.log.Debug("Write failed, retrying", "error", err)

	_, err = t.charAPIV2.WriteWithoutResponse(data)
	if err != nil {
		t.log.Error("Error sending data", "error", err)
		return false
	}

	return true
}

func (t *bleTransport) SetDataHandler(handler func(data []byte)) {
	t.handler = handler
}

func (t *bleTransport) Disconnect() error {
	return t.device.Disconnect()
}

func setupConnection(addr string, adapter *BluetoothAdapter, l hclog.Logger) (*bluetooth.Device, error) {
	var bleAddress bluetooth.Addresser

	ac := make(chan bluetooth.Addresser)
	to := time.After(discoverTimeout)

	sr := adapter.Scan()
	defer adapter.StopScanning()

	go func() {
		for r := range sr {
			if r.Name == addr || r.Address.String() == addr {
				ac <- r.Address
			}
		}
	}()

	select {
	case bleAddress = <-ac:
		l.Trace("Found device", "address", addr)
	case <-to:
		return nil, fmt.Errorf("timeout while trying to find device: %s", addr)
	}

	l.Trace("Connecting", "device", addr)

	device, err := adapter.Connect(bleAddress)
	if err != nil {
		l.Trace("Unable to connect to bluetooth device", "address", addr, "error", err)
		return nil, err
	}

	return device, nil
}

func getCharacteristic(ds []bluetooth.DeviceService, uuid string) (bluetooth.DeviceCharacteristic, error) {
	uu, err := bluetooth.ParseUUID(uuid)
	if err != nil {
		return bluetooth.DeviceCharacteristic{}, err
	}

	for _, s := range ds {
		c, err := s.DiscoverCharacteristics([]bluetooth.UUID{uu})
		if err == nil && len(c) > 0 {
			return c[0], nil
		}
	}

	return bluetooth.DeviceCharacteristic{}, fmt.Errorf("characteristic: %s not found", uuid)
}
