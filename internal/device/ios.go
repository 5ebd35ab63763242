package device

import (
	"fmt"

	"github.com/danielpaulus/go-ios/ios"
	"github.com/danielpaulus/go-ios/ios/screenshotr"

	"github.com/cjeanneret/ScreenGo/internal/debug"
)

// usbmuxd connection types
const (
	connectionUSB     = "USB"
	connectionNetwork = "Network"
)

// iosDevice captures through the screenshotr lockdown service. It needs a
// mounted developer disk image on the device.
type iosDevice struct {
	conn *screenshotr.Connection
}

func openIOS(opts Options) (Screenshotter, error) {
	debug.Step(1, "Listing devices through usbmuxd")
	list, err := ios.ListDevices()
	if err != nil {
		return nil, fmt.Errorf("%w: list devices: %v", ErrDeviceNotFound, err)
	}

	entry, err := selectIOSDevice(list.DeviceList, opts.UDID, opts.Network)
	if err != nil {
		return nil, err
	}
	debug.PrintStruct("Device", entry.Properties)

	debug.Step(2, "Starting screenshotr service")
	conn, err := screenshotr.New(entry)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	return &iosDevice{conn: conn}, nil
}

// selectIOSDevice picks the first entry on the requested transport whose
// serial number matches udid (any serial when udid is empty).
func selectIOSDevice(entries []ios.DeviceEntry, udid string, network bool) (ios.DeviceEntry, error) {
	want := connectionUSB
	if network {
		want = connectionNetwork
	}
	for _, e := range entries {
		if e.Properties.ConnectionType != want {
			continue
		}
		if udid == "" || e.Properties.SerialNumber == udid {
			return e, nil
		}
	}
	if udid != "" {
		return ios.DeviceEntry{}, fmt.Errorf("%w: udid %s", ErrDeviceNotFound, udid)
	}
	return ios.DeviceEntry{}, ErrDeviceNotFound
}

func (d *iosDevice) TakeScreenshot() ([]byte, error) {
	return d.conn.TakeScreenshot()
}

func (d *iosDevice) Close() error {
	d.conn.Close()
	return nil
}
