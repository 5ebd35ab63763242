package device

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"

	"github.com/cjeanneret/ScreenGo/internal/debug"
)

// Mock is a Screenshotter that renders a small PNG whose color changes with
// every capture. Used for development on PC or testing.
type Mock struct {
	mu     sync.Mutex
	frames int
	closed bool
}

// NewMock creates a mock device.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) TakeScreenshot() ([]byte, error) {
	m.mu.Lock()
	n := m.frames
	m.frames++
	m.mu.Unlock()

	img := image.NewRGBA(image.Rect(0, 0, 8, 16))
	c := color.RGBA{R: uint8(n * 40), G: 0x80, B: uint8(255 - n*40), A: 0xff}
	for y := 0; y < 16; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	debug.Trace("Mock device: frame %d (%d bytes)", n, buf.Len())
	return buf.Bytes(), nil
}

func (m *Mock) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	debug.Trace("Mock device closed")
	return nil
}

// Frames returns the number of screenshots taken so far.
func (m *Mock) Frames() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.frames
}

// Closed reports whether Close was called.
func (m *Mock) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
