package capture

import (
	"time"

	"github.com/cjeanneret/ScreenGo/internal/logic/naming"
)

// Frame describes a screenshot that has been written to disk.
type Frame struct {
	Index  int           // 0-based index among saved frames
	Path   string        // file the frame was written to
	Format naming.Format // sniffed image format
	Data   []byte        // image bytes as received from the device
	Time   time.Time     // capture time
}

// Observer is notified after each saved frame.
type Observer interface {
	FrameSaved(f Frame)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(f Frame)

func (fn ObserverFunc) FrameSaved(f Frame) { fn(f) }

// Stats summarises a capture run.
type Stats struct {
	Attempts        int // screenshots requested from the device
	Frames          int // frames written
	CaptureFailures int // requests that returned no image
}
