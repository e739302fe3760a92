package story

import (
	"errors"
	"fmt"
)

// ErrInvalidStoryVersion is returned when header byte 0 is not a known version.
var ErrInvalidStoryVersion = errors.New("invalid story version")

// Version is the story file format version from header byte 0.
type Version uint8

// Known versions.
const (
	V1 Version = iota + 1
	V2
	V3
	V4
	V5
	V6
	V7
	V8
)

// Valid reports whether v is a known version.
func (v Version) Valid() bool {
	return v >= V1 && v <= V8
}

func (v Version) IsV3OrLower() bool  { return v <= V3 }
func (v Version) IsV4OrLower() bool  { return v <= V4 }
func (v Version) IsV4OrHigher() bool { return v >= V4 }
func (v Version) IsV5OrHigher() bool { return v >= V5 }

func (v Version) String() string {
	return fmt.Sprintf("V%d", uint8(v))
}

// checkVersion fails with ErrInvalidStoryVersion for unknown values.
func checkVersion(b byte) (Version, error) {
	v := Version(b)
	if !v.Valid() {
		return 0, fmt.Errorf("story: version %d: %w", b, ErrInvalidStoryVersion)
	}
	return v, nil
}
