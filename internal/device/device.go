package device

import (
	"errors"
	"fmt"

	"github.com/cjeanneret/ScreenGo/internal/debug"
)

// Supported platforms.
const (
	PlatformIOS     = "ios"
	PlatformAndroid = "android"
	PlatformMock    = "mock"
)

var (
	// ErrDeviceNotFound is returned when no device matches the selector.
	ErrDeviceNotFound = errors.New("no device found")
	// ErrServiceUnavailable is returned when the screenshot service cannot be started.
	ErrServiceUnavailable = errors.New("screenshot service unavailable")
)

// Screenshotter is the high-level interface used by the rest of the application.
// It represents a device session able to grab the current screen contents,
// regardless of the platform protocol behind it.
type Screenshotter interface {
	// TakeScreenshot returns the encoded image as sent by the device.
	TakeScreenshot() ([]byte, error)
	Close() error
}

// Options selects a device.
type Options struct {
	Platform string // PlatformIOS, PlatformAndroid or PlatformMock
	UDID     string // device identifier, empty = first matching device
	Network  bool   // look the device up on the network instead of USB
}

// Open establishes a session with the selected device and starts its
// screenshot service.
func Open(opts Options) (Screenshotter, error) {
	debug.Value("Platform", opts.Platform)
	debug.Value("UDID", opts.UDID)
	debug.Value("Network", opts.Network)

	switch opts.Platform {
	case PlatformIOS, "":
		return openIOS(opts)
	case PlatformAndroid:
		return openAndroid(opts)
	case PlatformMock:
		debug.Info("Using MOCK device (development mode)")
		return NewMock(), nil
	default:
		return nil, fmt.Errorf("unsupported platform: %s", opts.Platform)
	}
}
