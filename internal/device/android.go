package device

import (
	"bytes"
	"fmt"

	adb "github.com/zach-klippenstein/goadb"

	"github.com/cjeanneret/ScreenGo/internal/debug"
)

// androidDevice captures with "screencap -p" through the adb server.
type androidDevice struct {
	dev *adb.Device
}

func openAndroid(opts Options) (Screenshotter, error) {
	debug.Step(1, "Connecting to adb server")
	client, err := adb.NewWithConfig(adb.ServerConfig{})
	if err != nil {
		return nil, fmt.Errorf("%w: adb server: %v", ErrServiceUnavailable, err)
	}

	var desc adb.DeviceDescriptor
	switch {
	case opts.UDID != "":
		desc = adb.DeviceWithSerial(opts.UDID)
	case opts.Network:
		desc = adb.AnyLocalDevice()
	default:
		desc = adb.AnyUsbDevice()
	}

	dev := client.Device(desc)
	serial, err := dev.Serial()
	if err != nil {
		if opts.UDID != "" {
			return nil, fmt.Errorf("%w: udid %s", ErrDeviceNotFound, opts.UDID)
		}
		return nil, fmt.Errorf("%w: %v", ErrDeviceNotFound, err)
	}
	debug.Value("Serial", serial)

	return &androidDevice{dev: dev}, nil
}

func (d *androidDevice) TakeScreenshot() ([]byte, error) {
	out, err := d.dev.RunCommand("screencap", "-p")
	if err != nil {
		return nil, fmt.Errorf("screencap: %w", err)
	}
	return fixShellNewlines([]byte(out)), nil
}

func (d *androidDevice) Close() error { return nil }

// Older adb shells run through a pty that turns every "\n" into "\r\n",
// which shows up in the PNG signature as "\r\r\n".
var mangledPNG = []byte("\x89PNG\r\r\n")

func fixShellNewlines(data []byte) []byte {
	if !bytes.HasPrefix(data, mangledPNG) {
		return data
	}
	return bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
}
