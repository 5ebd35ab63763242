package naming

import "bytes"

// Format is an image format inferred from the leading bytes of a screenshot.
type Format int

const (
	Unknown Format = iota
	PNG
	TIFF
)

var (
	pngMagic    = []byte("\x89PNG")
	tiffBEMagic = []byte("MM\x00*")
	tiffLEMagic = []byte("II*\x00")
)

// Sniff returns the format announced by the first four bytes of data.
func Sniff(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, pngMagic):
		return PNG
	case bytes.HasPrefix(data, tiffBEMagic), bytes.HasPrefix(data, tiffLEMagic):
		return TIFF
	default:
		return Unknown
	}
}

// Ext returns the file extension (with the leading dot) for the format.
func (f Format) Ext() string {
	switch f {
	case PNG:
		return ".png"
	case TIFF:
		return ".tiff"
	default:
		return ".dat"
	}
}

// ContentType returns the MIME type used when serving the image.
func (f Format) ContentType() string {
	switch f {
	case PNG:
		return "image/png"
	case TIFF:
		return "image/tiff"
	default:
		return "application/octet-stream"
	}
}

func (f Format) String() string {
	switch f {
	case PNG:
		return "png"
	case TIFF:
		return "tiff"
	default:
		return "unknown"
	}
}
