package audio

import (
	"bytes"
	"fmt"
	"io"

	"github.com/dhowden/tag"

	"github.com/iamvkosarev/songmeta/internal/model"
)

// sniffCodec classifies content by its leading bytes.
func sniffCodec(r io.ReadSeeker) model.Codec {
	_, fileType, err := tag.Identify(r)
	if err != nil {
		return model.CodecUnknown
	}

	switch fileType {
	case tag.MP3:
		return model.CodecMp3
	case tag.FLAC:
		return model.CodecFlac
	case tag.OGG:
		if isOpus(r) {
			return model.CodecOggOpus
		}
	}
	return model.CodecUnknown
}

// isOpus reports whether the first Ogg page carries an OpusHead packet.
func isOpus(r io.ReadSeeker) bool {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return false
	}
	buf := make([]byte, 27+255+8)
	n, _ := io.ReadFull(r, buf)
	return bytes.Contains(buf[:n], []byte("OpusHead"))
}

// fillFromTags fills empty text fields from the tags dhowden/tag finds.
func fillFromTags(r io.ReadSeeker, meta *model.Meta) error {
	m, err := tag.ReadFrom(r)
	if err != nil {
		return fmt.Errorf("failed to read tags: %w", err)
	}

	if meta.Title == "" {
		meta.Title = m.Title()
	}
	if meta.Artist == "" {
		meta.Artist = m.Artist()
	}
	if meta.Album == "" {
		meta.Album = m.Album()
	}
	if meta.Year == 0 {
		meta.Year = m.Year()
	}
	return nil
}
