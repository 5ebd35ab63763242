package naming

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/cjeanneret/ScreenGo/internal/debug"
)

// DefaultMaxAttempts bounds the number of candidate names probed by Resolve.
const DefaultMaxAttempts = 1 << 16

// ErrNameExhausted is returned when every candidate name already exists.
var ErrNameExhausted = errors.New("could not find a unique filename")

// Resolver turns a user supplied base name into a file name that does not
// exist yet, picking the extension from the image data.
type Resolver struct {
	MaxAttempts int                    // candidate names probed, 0 = DefaultMaxAttempts
	Now         func() time.Time       // clock for generated names, nil = time.Now
	Exists      func(path string) bool // nil = stat on the local filesystem
	Warnings    io.Writer              // receives the unexpected-format warning, may be nil
}

// NewResolver creates a Resolver probing at most maxAttempts names.
func NewResolver(maxAttempts int, warnings io.Writer) *Resolver {
	return &Resolver{
		MaxAttempts: maxAttempts,
		Warnings:    warnings,
	}
}

// Resolve returns the name to write data to.
//
// A base that already carries an extension is returned unchanged. Otherwise
// the extension is sniffed from data, an empty base becomes
// "screenshot-YYYY-MM-DD-HH-MM-SS" (UTC), and base.ext, base-2.ext,
// base-3.ext, ... are probed until one does not exist.
func (r *Resolver) Resolve(data []byte, base string) (string, error) {
	if base != "" && HasExtension(base) {
		debug.Verbose("Output name %q already has an extension", base)
		return base, nil
	}

	format := Sniff(data)
	if format == Unknown && r.Warnings != nil {
		fmt.Fprintln(r.Warnings, "WARNING: screenshot data has unexpected image format.")
	}
	ext := format.Ext()

	if base == "" {
		base = "screenshot-" + r.now().UTC().Format("2006-01-02-15-04-05")
	}

	maxAttempts := r.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}

	candidate := base + ext
	for i := 2; i < maxAttempts+2; i++ {
		if !r.exists(candidate) {
			debug.Verbose("Resolved output name %q after %d probe(s)", candidate, i-1)
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d%s", base, i, ext)
	}
	return "", fmt.Errorf("%w: %s-N%s", ErrNameExhausted, base, ext)
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *Resolver) exists(path string) bool {
	if r.Exists != nil {
		return r.Exists(path)
	}
	_, err := os.Lstat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}

// HasExtension reports whether name has a dot with no path separator after it.
func HasExtension(name string) bool {
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 {
		return false
	}
	return !strings.ContainsAny(name[dot:], `/`+string(os.PathSeparator))
}

// IsTemplate reports whether name contains a printf verb for the frame number.
func IsTemplate(name string) bool {
	return strings.Contains(strings.ReplaceAll(name, "%%", ""), "%")
}

// FrameName expands a frame template with frame. Names without a verb are
// used as they are for every frame.
func FrameName(template string, frame int) string {
	if !IsTemplate(template) {
		return template
	}
	return fmt.Sprintf(template, frame)
}
