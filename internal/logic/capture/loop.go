package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/cjeanneret/ScreenGo/internal/debug"
	"github.com/cjeanneret/ScreenGo/internal/device"
	"github.com/cjeanneret/ScreenGo/internal/logic/naming"
)

// Loop contains the capture logic: it requests screenshots from a device,
// picks the output name and writes the images out.
type Loop struct {
	device    device.Screenshotter
	resolver  *naming.Resolver
	out       io.Writer
	observers []Observer
	now       func() time.Time
}

// NewLoop creates a loop capturing from d. Status lines meant for the user
// are written to out.
func NewLoop(d device.Screenshotter, r *naming.Resolver, out io.Writer, observers ...Observer) *Loop {
	if out == nil {
		out = io.Discard
	}
	return &Loop{
		device:    d,
		resolver:  r,
		out:       out,
		observers: observers,
		now:       time.Now,
	}
}

// Params defines a capture run.
type Params struct {
	// Output is the file name, a prefix without extension, a %d frame
	// template (periodic mode) or empty for a generated name.
	Output string
	// Join writes every frame into a single file.
	Join bool
	// Ticks drives periodic captures, one capture per tick. A nil channel
	// selects one-shot mode.
	Ticks <-chan time.Time
}

// Run captures once, or once per tick until ctx is cancelled.
//
// In periodic mode a capture failure is reported and skipped, while write
// failures stop the run. Cancellation is observed between iterations only:
// a capture that has started is always written.
func (l *Loop) Run(ctx context.Context, p Params) (Stats, error) {
	var st Stats
	periodic := p.Ticks != nil

	name := p.Output
	resolved := periodic && naming.IsTemplate(name)

	var joined *os.File
	defer func() {
		if joined != nil {
			if err := joined.Close(); err != nil {
				debug.Error(fmt.Errorf("closing %s: %w", joined.Name(), err))
			}
		}
	}()

	for {
		if periodic {
			if ctx.Err() != nil {
				debug.Live("Capture stopped after %d frame(s)", st.Frames)
				return st, nil
			}
			select {
			case <-ctx.Done():
				debug.Live("Capture stopped after %d frame(s)", st.Frames)
				return st, nil
			case <-p.Ticks:
			}
		}

		st.Attempts++
		data, err := l.device.TakeScreenshot()
		if err != nil {
			st.CaptureFailures++
			fmt.Fprintln(l.out, "Could not get screenshot!")
			debug.Error(err)
			if !periodic {
				return st, fmt.Errorf("%w: %v", ErrCapture, err)
			}
			continue
		}
		taken := l.now()

		if !resolved {
			name, err = l.resolver.Resolve(data, name)
			if err != nil {
				fmt.Fprintln(l.out, "FATAL: Could not find a unique filename!")
				return st, err
			}
			resolved = true
		}

		path := name
		if periodic {
			path = naming.FrameName(name, st.Frames)
		}

		f := joined
		if f == nil {
			f, err = os.Create(path)
			if err != nil {
				fmt.Fprintf(l.out, "Could not open %s for writing: %s\n", path, syscallMessage(err))
				return st, fmt.Errorf("%w: %s: %v", ErrFileOpen, path, err)
			}
			if p.Join {
				joined = f
			}
		}

		werr := writeAll(f, data)
		if !p.Join {
			if cerr := f.Close(); werr == nil && cerr != nil {
				werr = cerr
			}
		}
		if werr != nil {
			fmt.Fprintf(l.out, "Could not save screenshot to file %s!\n", path)
			return st, fmt.Errorf("%w: %s: %v", ErrPartialWrite, path, werr)
		}

		frame := Frame{
			Index:  st.Frames,
			Path:   path,
			Format: naming.Sniff(data),
			Data:   data,
			Time:   taken,
		}
		st.Frames++
		debug.Frame(frame.Index, path, len(data))
		for _, o := range l.observers {
			o.FrameSaved(frame)
		}

		if !periodic {
			fmt.Fprintf(l.out, "Screenshot saved to %s\n", path)
			return st, nil
		}
	}
}

func writeAll(w io.Writer, data []byte) error {
	n, err := w.Write(data)
	if err != nil {
		return err
	}
	if n != len(data) {
		return io.ErrShortWrite
	}
	return nil
}

// syscallMessage strips the operation and path from a *PathError.
func syscallMessage(err error) string {
	var pe *os.PathError
	if errors.As(err, &pe) {
		return pe.Err.Error()
	}
	return err.Error()
}
