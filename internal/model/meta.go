package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/iamvkosarev/songmeta/internal/genre"
)

// Codec identifies the container/codec of a song file. The numeric values are
// persisted in playlist files.
type Codec uint8

const (
	CodecUnknown Codec = iota
	CodecMp3
	CodecOggOpus
	CodecFlac
)

func (c Codec) String() string {
	switch c {
	case CodecMp3:
		return "MP3"
	case CodecOggOpus:
		return "OPUS"
	case CodecFlac:
		return "FLAC"
	default:
		return "UNKNOWN"
	}
}

func (c Codec) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// CodecFromExtension classifies a file extension (with or without the dot).
func CodecFromExtension(ext string) Codec {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "mp3":
		return CodecMp3
	case "flac":
		return CodecFlac
	case "opus":
		return CodecOggOpus
	default:
		return CodecUnknown
	}
}

// Meta holds the audio properties and text tags of one file. Numeric fields
// are -1 when unknown.
type Meta struct {
	Codec         Codec         `json:"codec"`
	Channels      int8          `json:"channels"`
	BitsPerSample int8          `json:"bitsPerSample"`
	SampleRate    int32         `json:"sampleRate"`
	Duration      int64         `json:"durationNs"`
	Bitrate       int32         `json:"bitrate"`
	Genres        []genre.Genre `json:"genres,omitempty"`
	Title         string        `json:"title,omitempty"`
	Artist        string        `json:"artist,omitempty"`
	Album         string        `json:"album,omitempty"`
	Year          int           `json:"year,omitempty"`

	// Warnings contains non-fatal problems met while reading.
	Warnings []string `json:"warnings,omitempty"`
}

// NewMeta returns a Meta for codec with every property unknown.
func NewMeta(codec Codec) Meta {
	return Meta{
		Codec:         codec,
		Channels:      -1,
		BitsPerSample: -1,
		SampleRate:    -1,
		Duration:      -1,
		Bitrate:       -1,
	}
}

// IsDurationSet reports whether the duration is known.
func (m *Meta) IsDurationSet() bool {
	return m.Duration != -1
}

// DurationValue returns the duration as a time.Duration, zero when unknown.
func (m *Meta) DurationValue() time.Duration {
	if !m.IsDurationSet() {
		return 0
	}
	return time.Duration(m.Duration)
}

// AddWarning records a non-fatal problem.
func (m *Meta) AddWarning(format string, args ...any) {
	m.Warnings = append(m.Warnings, fmt.Sprintf(format, args...))
}
