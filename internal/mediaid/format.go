package mediaid

import "fmt"

// Format is the closed enumeration of output audio encodings the transcoder can
// produce.
type Format int

const (
	FormatM4A Format = iota
	FormatAAC
	FormatMP3
	FormatWEBM
)

// ErrInvalidFormat reports a string that does not match any Format's canonical
// encoding.
type ErrInvalidFormat struct {
	Given string
}

func (e ErrInvalidFormat) Error() string {
	return fmt.Sprintf("invalid audio format: %q", e.Given)
}

// String returns the canonical lowercase encoding, also used as the file suffix.
func (f Format) String() string {
	switch f {
	case FormatM4A:
		return "m4a"
	case FormatAAC:
		return "aac"
	case FormatMP3:
		return "mp3"
	case FormatWEBM:
		return "webm"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// ParseFormat maps a canonical string back to its Format. Format.parse(Format.
// toString(f)) == f for every enum value.
func ParseFormat(raw string) (Format, error) {
	switch raw {
	case "m4a":
		return FormatM4A, nil
	case "aac":
		return FormatAAC, nil
	case "mp3":
		return FormatMP3, nil
	case "webm":
		return FormatWEBM, nil
	default:
		return 0, ErrInvalidFormat{Given: raw}
	}
}

// CanEmbedThumbnail reports whether this format supports cover-art embedding
// during transcode (only container formats with ID3-style tag support).
func (f Format) CanEmbedThumbnail() bool {
	return f == FormatMP3
}
