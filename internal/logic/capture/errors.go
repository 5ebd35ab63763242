package capture

import "errors"

var (
	// ErrCapture is returned in one-shot mode when the device returned no image.
	ErrCapture = errors.New("could not get screenshot")
	// ErrFileOpen is returned when the output file cannot be opened for writing.
	ErrFileOpen = errors.New("could not open output file")
	// ErrPartialWrite is returned when the image could not be written completely.
	ErrPartialWrite = errors.New("could not save screenshot")
)
