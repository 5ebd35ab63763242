package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cjeanneret/ScreenGo/internal/logic/naming"
)

// fakeDevice returns the scripted screenshots in order, then keeps
// returning PNG frames.
type fakeDevice struct {
	mu      sync.Mutex
	results []shot
	calls   int
	onShot  func(call int)
}

type shot struct {
	data []byte
	err  error
}

func pngFrame(i int) []byte {
	return []byte(fmt.Sprintf("\x89PNG-frame-%d;", i))
}

func (d *fakeDevice) TakeScreenshot() ([]byte, error) {
	d.mu.Lock()
	call := d.calls
	d.calls++
	d.mu.Unlock()

	if d.onShot != nil {
		d.onShot(call)
	}
	if call < len(d.results) {
		return d.results[call].data, d.results[call].err
	}
	return pngFrame(call), nil
}

func (d *fakeDevice) Close() error { return nil }

func (d *fakeDevice) callCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

// recorder collects saved frames.
type recorder struct {
	mu     sync.Mutex
	frames []Frame
}

func (r *recorder) FrameSaved(f Frame) {
	r.mu.Lock()
	r.frames = append(r.frames, f)
	r.mu.Unlock()
}

// ticks returns a channel already holding n ticks.
func ticks(n int) chan time.Time {
	ch := make(chan time.Time, n)
	for i := 0; i < n; i++ {
		ch <- time.Now()
	}
	return ch
}

func newTestLoop(dev *fakeDevice, out *bytes.Buffer, obs ...Observer) *Loop {
	return NewLoop(dev, naming.NewResolver(0, out), out, obs...)
}

// ---------- one-shot ----------

func TestRun_OneShot(t *testing.T) {
	dir := t.TempDir()
	dev := &fakeDevice{}
	var out bytes.Buffer
	rec := &recorder{}
	loop := newTestLoop(dev, &out, rec)

	st, err := loop.Run(context.Background(), Params{Output: filepath.Join(dir, "shot")})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if dev.callCount() != 1 {
		t.Errorf("captures = %d, want 1", dev.callCount())
	}
	if st.Attempts != 1 || st.Frames != 1 {
		t.Errorf("stats = %+v, want 1 attempt and 1 frame", st)
	}

	path := filepath.Join(dir, "shot.png")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	if !bytes.Equal(data, pngFrame(0)) {
		t.Errorf("file content = %q, want %q", data, pngFrame(0))
	}
	if want := "Screenshot saved to " + path + "\n"; out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
	if len(rec.frames) != 1 || rec.frames[0].Path != path || rec.frames[0].Format != naming.PNG {
		t.Errorf("observed frames = %+v", rec.frames)
	}
}

func TestRun_OneShotCaptureFailure(t *testing.T) {
	dir := t.TempDir()
	dev := &fakeDevice{results: []shot{{err: errors.New("lost connection")}}}
	var out bytes.Buffer
	loop := newTestLoop(dev, &out)

	st, err := loop.Run(context.Background(), Params{Output: filepath.Join(dir, "shot.png")})
	if !errors.Is(err, ErrCapture) {
		t.Fatalf("error = %v, want ErrCapture", err)
	}
	if dev.callCount() != 1 {
		t.Errorf("captures = %d, want exactly 1", dev.callCount())
	}
	if st.CaptureFailures != 1 || st.Frames != 0 {
		t.Errorf("stats = %+v", st)
	}
	if out.String() != "Could not get screenshot!\n" {
		t.Errorf("output = %q", out.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "shot.png")); !os.IsNotExist(err) {
		t.Error("no file should be created when capture fails")
	}
}

func TestRun_OneShotOpenFailure(t *testing.T) {
	dir := t.TempDir()
	dev := &fakeDevice{}
	var out bytes.Buffer
	loop := newTestLoop(dev, &out)

	path := filepath.Join(dir, "missing", "shot.png")
	_, err := loop.Run(context.Background(), Params{Output: path})
	if !errors.Is(err, ErrFileOpen) {
		t.Fatalf("error = %v, want ErrFileOpen", err)
	}
	want := "Could not open " + path + " for writing: no such file or directory\n"
	if out.String() != want {
		t.Errorf("output = %q, want %q", out.String(), want)
	}
}

func TestRun_NameExhaustion(t *testing.T) {
	dev := &fakeDevice{}
	var out bytes.Buffer
	r := naming.NewResolver(3, &out)
	r.Exists = func(string) bool { return true }
	loop := NewLoop(dev, r, &out)

	_, err := loop.Run(context.Background(), Params{Output: "shot"})
	if !errors.Is(err, naming.ErrNameExhausted) {
		t.Fatalf("error = %v, want ErrNameExhausted", err)
	}
	if out.String() != "FATAL: Could not find a unique filename!\n" {
		t.Errorf("output = %q", out.String())
	}
}

// ---------- periodic ----------

func TestRun_PeriodicSeparateFiles(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const n = 4
	dev := &fakeDevice{onShot: func(call int) {
		if call == n-1 {
			cancel()
		}
	}}
	var out bytes.Buffer
	loop := newTestLoop(dev, &out)

	st, err := loop.Run(ctx, Params{
		Output: filepath.Join(dir, "frame-%02d.png"),
		Ticks:  ticks(n + 5),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st.Frames != n {
		t.Fatalf("frames = %d, want %d", st.Frames, n)
	}
	for i := 0; i < n; i++ {
		path := filepath.Join(dir, fmt.Sprintf("frame-%02d.png", i))
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if !bytes.Equal(data, pngFrame(i)) {
			t.Errorf("frame %d content = %q, want %q", i, data, pngFrame(i))
		}
	}
	if out.Len() != 0 {
		t.Errorf("periodic mode should not print per-frame status, got %q", out.String())
	}
}

func TestRun_PeriodicJoin(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	const n = 5
	dev := &fakeDevice{onShot: func(call int) {
		if call == n-1 {
			cancel()
		}
	}}
	var out bytes.Buffer
	loop := newTestLoop(dev, &out)

	path := filepath.Join(dir, "stream.png")
	st, err := loop.Run(ctx, Params{Output: path, Join: true, Ticks: ticks(n)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st.Frames != n {
		t.Fatalf("frames = %d, want %d", st.Frames, n)
	}

	var want []byte
	for i := 0; i < n; i++ {
		want = append(want, pngFrame(i)...)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read joined file: %v", err)
	}
	if !bytes.Equal(got, want) {
		t.Errorf("joined content = %q, want %q", got, want)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Errorf("join mode produced %d files, want 1", len(entries))
	}
}

func TestRun_PeriodicResolvesOnce(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dev := &fakeDevice{onShot: func(call int) {
		if call == 2 {
			cancel()
		}
	}}
	var out bytes.Buffer
	loop := newTestLoop(dev, &out)

	base := filepath.Join(dir, "shot")
	st, err := loop.Run(ctx, Params{Output: base, Join: true, Ticks: ticks(3)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st.Frames != 3 {
		t.Fatalf("frames = %d, want 3", st.Frames)
	}
	// A second resolution would have moved on to shot-2.png.
	if _, err := os.Stat(base + "-2.png"); !os.IsNotExist(err) {
		t.Error("name was resolved more than once")
	}
	data, _ := os.ReadFile(base + ".png")
	if !bytes.HasPrefix(data, pngFrame(0)) || !bytes.HasSuffix(data, pngFrame(2)) {
		t.Errorf("joined content = %q", data)
	}
}

func TestRun_PeriodicCaptureFailureIsSkipped(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dev := &fakeDevice{
		results: []shot{
			{data: pngFrame(0)},
			{err: errors.New("timeout")},
			{data: pngFrame(2)},
		},
		onShot: func(call int) {
			if call == 2 {
				cancel()
			}
		},
	}
	var out bytes.Buffer
	rec := &recorder{}
	loop := newTestLoop(dev, &out, rec)

	st, err := loop.Run(ctx, Params{Output: filepath.Join(dir, "f-%d.png"), Ticks: ticks(10)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if st.Attempts != 3 || st.Frames != 2 || st.CaptureFailures != 1 {
		t.Errorf("stats = %+v, want 3 attempts, 2 frames, 1 failure", st)
	}
	if out.String() != "Could not get screenshot!\n" {
		t.Errorf("output = %q", out.String())
	}
	// Frame numbering follows saved frames, not attempts.
	for i, want := range [][]byte{pngFrame(0), pngFrame(2)} {
		data, err := os.ReadFile(filepath.Join(dir, fmt.Sprintf("f-%d.png", i)))
		if err != nil {
			t.Fatalf("frame %d: %v", i, err)
		}
		if !bytes.Equal(data, want) {
			t.Errorf("frame %d content = %q, want %q", i, data, want)
		}
	}
	if len(rec.frames) != 2 || rec.frames[1].Index != 1 {
		t.Errorf("observed frames = %+v", rec.frames)
	}
}

func TestRun_PeriodicWriteFailureIsFatal(t *testing.T) {
	dir := t.TempDir()
	dev := &fakeDevice{}
	var out bytes.Buffer
	loop := newTestLoop(dev, &out)

	// Frame 1 lands in a directory that does not exist.
	template := filepath.Join(dir, "%d", "frame.png")
	if err := os.Mkdir(filepath.Join(dir, "0"), 0o755); err != nil {
		t.Fatal(err)
	}

	st, err := loop.Run(context.Background(), Params{Output: template, Ticks: ticks(10)})
	if !errors.Is(err, ErrFileOpen) {
		t.Fatalf("error = %v, want ErrFileOpen", err)
	}
	if st.Frames != 1 || dev.callCount() != 2 {
		t.Errorf("stats = %+v, captures = %d; want 1 frame and 2 captures", st, dev.callCount())
	}
	if !strings.HasPrefix(out.String(), "Could not open ") {
		t.Errorf("output = %q", out.String())
	}
}

func TestRun_CancellationCompletesCurrentIteration(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Cancel while the first capture is in flight.
	dev := &fakeDevice{onShot: func(call int) {
		if call == 0 {
			cancel()
		}
	}}
	var out bytes.Buffer
	loop := newTestLoop(dev, &out)

	path := filepath.Join(dir, "only-%d.png")
	st, err := loop.Run(ctx, Params{Output: path, Ticks: ticks(10)})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if dev.callCount() != 1 {
		t.Errorf("captures = %d, want 1", dev.callCount())
	}
	if st.Frames != 1 {
		t.Errorf("frames = %d, want the in-flight frame to be written", st.Frames)
	}
	if _, err := os.Stat(filepath.Join(dir, "only-0.png")); err != nil {
		t.Errorf("in-flight frame missing: %v", err)
	}
}

func TestRun_CancelledWhileWaiting(t *testing.T) {
	dev := &fakeDevice{}
	var out bytes.Buffer
	loop := newTestLoop(dev, &out)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	done := make(chan struct{})
	var st Stats
	var err error
	go func() {
		st, err = loop.Run(ctx, Params{Output: "unused-%d.png", Ticks: make(chan time.Time)})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancellation")
	}
	if err != nil {
		t.Errorf("Run: %v", err)
	}
	if st.Attempts != 0 || dev.callCount() != 0 {
		t.Errorf("no capture expected without ticks, got %d", dev.callCount())
	}
}

func TestRun_AttemptsCountCapturesNotTicks(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tick := make(chan time.Time)
	dev := &fakeDevice{}
	var out bytes.Buffer
	loop := newTestLoop(dev, &out)

	done := make(chan Stats)
	go func() {
		st, _ := loop.Run(ctx, Params{Output: filepath.Join(dir, "t-%d.png"), Ticks: tick})
		done <- st
	}()

	for i := 0; i < 3; i++ {
		tick <- time.Now()
	}
	cancel()

	select {
	case st := <-done:
		if st.Attempts != 3 || st.Frames != 3 {
			t.Errorf("stats = %+v, want 3 attempts and 3 frames", st)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}

// ---------- helpers ----------

type shortWriter struct{}

func (shortWriter) Write(p []byte) (int, error) { return len(p) / 2, nil }

func TestWriteAll_ShortWrite(t *testing.T) {
	if err := writeAll(shortWriter{}, []byte("abcd")); err == nil {
		t.Error("expected short write error, got nil")
	}
	var buf bytes.Buffer
	if err := writeAll(&buf, []byte("abcd")); err != nil {
		t.Errorf("writeAll: %v", err)
	}
}

func TestObserverFunc(t *testing.T) {
	var got Frame
	var o Observer = ObserverFunc(func(f Frame) { got = f })
	o.FrameSaved(Frame{Index: 4})
	if got.Index != 4 {
		t.Errorf("ObserverFunc did not forward the frame")
	}
}
