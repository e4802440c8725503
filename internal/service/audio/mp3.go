package audio

import (
	"bytes"
	"errors"
	"fmt"

	"go4.org/readerutil"

	"github.com/iamvkosarev/songmeta/internal/binutil"
	"github.com/iamvkosarev/songmeta/internal/model"
)

const (
	id3v1Size       = 128
	id3v2HeaderSize = 10

	id3FlagUnsync         = 0x80
	id3FlagExtendedHeader = 0x40
	id3FlagFooter         = 0x10

	// Frame format flags of ID3v2.4.
	id3v4FrameGrouping   = 0x0040
	id3v4FrameCompressed = 0x0008
	id3v4FrameEncrypted  = 0x0004
	id3v4FrameUnsync     = 0x0002
	id3v4FrameDataLength = 0x0001

	// Frame format flags of ID3v2.3.
	id3v3FrameCompressed = 0x0080
	id3v3FrameEncrypted  = 0x0040
	id3v3FrameGrouping   = 0x0020

	mpegVersion1 = 3
	mpegLayer3   = 1
	channelMono  = 3
)

// MPEG-1 Layer III bitrates in bits per second. Index 0 (free) and 15 are
// invalid.
var mp3Bitrates = [16]int32{
	0, 32000, 40000, 48000, 56000, 64000, 80000, 96000,
	112000, 128000, 160000, 192000, 224000, 256000, 320000, 0,
}

var mp3SampleRates = [3]int32{44100, 48000, 32000}

// mpegHeader holds the fields of a frame header word.
type mpegHeader struct {
	sync         uint32
	version      uint32
	layer        uint32
	bitrateIndex uint32
	rateIndex    uint32
	channelMode  uint32
}

func parseMpegHeader(h uint32) mpegHeader {
	return mpegHeader{
		sync:         h >> 21,
		version:      (h >> 19) & 0x3,
		layer:        (h >> 17) & 0x3,
		bitrateIndex: (h >> 12) & 0xF,
		rateIndex:    (h >> 10) & 0x3,
		channelMode:  (h >> 6) & 0x3,
	}
}

func readMp3(r readerutil.SizeReaderAt, path string, opts Options) (model.Meta, error) {
	meta := model.NewMeta(model.CodecMp3)
	sr := binutil.NewSafeReader(r, path)
	size := sr.Size()

	v1, err := id3v1TrailerSize(sr)
	if err != nil {
		return meta, readError(path, err)
	}

	header, err := sr.ReadAt(0, id3v2HeaderSize, "ID3v2 header")
	if err != nil || !bytes.Equal(header[:3], []byte("ID3")) {
		return meta, &FormatError{Path: path, Reason: "missing ID3v2 header", Err: err}
	}
	v2 := int64(binutil.Syncsafe32Bytes(header[6:10])) + id3v2HeaderSize
	if header[3] == 4 && header[5]&id3FlagFooter != 0 {
		v2 += id3v2HeaderSize
	}

	if opts.DecodeID3Text {
		readID3Frames(sr, header, &meta)
	}

	word, err := sr.ReadAt(v2, 4, "MPEG frame header")
	if err != nil {
		return meta, readError(path, err)
	}
	h := parseMpegHeader(binutil.BigEndianWord(word))
	if h.sync != 0x7FF {
		return meta, &FormatError{Path: path, Offset: v2, Reason: "no frame sync after ID3v2 tag"}
	}
	if h.version != mpegVersion1 || h.layer != mpegLayer3 {
		return meta, &FormatError{
			Path:   path,
			Offset: v2,
			Reason: fmt.Sprintf("unsupported MPEG version %d layer %d", h.version, h.layer),
		}
	}

	bitrate := mp3Bitrates[h.bitrateIndex]
	if bitrate == 0 {
		return meta, &FormatError{Path: path, Offset: v2, Reason: fmt.Sprintf("invalid bitrate index %d", h.bitrateIndex)}
	}
	if h.rateIndex >= uint32(len(mp3SampleRates)) {
		return meta, &FormatError{Path: path, Offset: v2, Reason: "reserved sample rate index"}
	}

	meta.Bitrate = bitrate
	meta.SampleRate = mp3SampleRates[h.rateIndex]
	meta.Channels = 2
	if h.channelMode == channelMono {
		meta.Channels = 1
	}

	audioBytes := size - v1 - v2
	if audioBytes < 0 {
		return meta, &FormatError{Path: path, Offset: v2, Reason: "tags are larger than the file"}
	}
	duration, ok := binutil.MulDiv(uint64(audioBytes), 1e9, uint64(bitrate/8))
	if !ok {
		return meta, &FormatError{Path: path, Reason: "duration overflows"}
	}
	meta.Duration = int64(duration)
	return meta, nil
}

// id3v1TrailerSize returns 128 when the file ends with an ID3v1 tag.
func id3v1TrailerSize(sr *binutil.SafeReader) (int64, error) {
	if sr.Size() < id3v1Size {
		return 0, nil
	}
	tag, err := sr.ReadAt(sr.Size()-id3v1Size, 3, "ID3v1 marker")
	if err != nil {
		return 0, err
	}
	if bytes.Equal(tag, []byte("TAG")) {
		return id3v1Size, nil
	}
	return 0, nil
}

// readID3Frames decodes the text frames of the tag. Problems are recorded as
// warnings and never fail the read.
func readID3Frames(sr *binutil.SafeReader, header []byte, meta *model.Meta) {
	path := sr.Path()
	major, flags := header[3], header[5]
	if major < 3 || major > 4 {
		meta.AddWarning("%s: ID3v2.%d text frames are not decoded", path, major)
		return
	}
	if flags&id3FlagUnsync != 0 {
		meta.AddWarning("%s: unsynchronised ID3v2 tag, text frames skipped", path)
		return
	}

	bodySize := int(binutil.Syncsafe32Bytes(header[6:10]))
	body, err := sr.ReadAt(id3v2HeaderSize, bodySize, "ID3v2 tag")
	if err != nil {
		meta.AddWarning("%s: %v", path, err)
		return
	}

	c := binutil.NewCursor(body, path)
	if flags&id3FlagExtendedHeader != 0 {
		if err := skipExtendedHeader(c, major); err != nil {
			meta.AddWarning("%s: %v", path, err)
			return
		}
	}

	for c.Remaining() >= id3v2HeaderSize {
		id, _ := c.Bytes(4, "frame id")
		if id[0] == 0 {
			break
		}
		raw, _ := c.U32BE("frame size")
		frameFlags, _ := c.U16BE("frame flags")

		size := binutil.SyncsafeNoBitDiscard(raw)
		if major == 4 {
			size = binutil.Syncsafe32(raw)
		}
		if size == 0 {
			break
		}
		payload, err := c.Bytes(int(size), "frame "+string(id))
		if err != nil {
			meta.AddWarning("%s: %v", path, err)
			break
		}

		switch frame := string(id); frame {
		case "TIT2", "TPE1", "TALB", "TCON", "TYER", "TDRC":
			data, err := frameData(major, frameFlags, payload)
			if err != nil {
				meta.AddWarning("%s: %s frame skipped: %v", path, frame, err)
				continue
			}
			text, err := decodeID3Text(data)
			if err != nil {
				meta.AddWarning("%s: failed to decode %s: %v", path, frame, err)
				continue
			}
			applyTextFrame(meta, path, frame, text)
		}
	}
}

// frameData strips the prefixes announced by the frame format flags. Frames
// that are compressed, encrypted or unsynchronised are not decoded.
func frameData(major byte, flags uint16, payload []byte) ([]byte, error) {
	var prefix int
	if major == 4 {
		switch {
		case flags&id3v4FrameCompressed != 0:
			return nil, errors.New("compressed")
		case flags&id3v4FrameEncrypted != 0:
			return nil, errors.New("encrypted")
		case flags&id3v4FrameUnsync != 0:
			return nil, errors.New("unsynchronised")
		}
		if flags&id3v4FrameGrouping != 0 {
			prefix++
		}
		if flags&id3v4FrameDataLength != 0 {
			prefix += 4
		}
	} else {
		switch {
		case flags&id3v3FrameCompressed != 0:
			return nil, errors.New("compressed")
		case flags&id3v3FrameEncrypted != 0:
			return nil, errors.New("encrypted")
		}
		if flags&id3v3FrameGrouping != 0 {
			prefix++
		}
	}

	if prefix >= len(payload) {
		return nil, fmt.Errorf("%d byte frame has no data after its %d byte prefix", len(payload), prefix)
	}
	return payload[prefix:], nil
}

func skipExtendedHeader(c *binutil.Cursor, major byte) error {
	raw, err := c.U32BE("extended header size")
	if err != nil {
		return err
	}
	if major == 4 {
		// v2.4 counts the size field itself.
		n := int(binutil.Syncsafe32(raw)) - 4
		if n < 0 {
			return fmt.Errorf("invalid extended header size %d", n+4)
		}
		return c.Skip(n, "extended header")
	}
	return c.Skip(int(raw), "extended header")
}

func applyTextFrame(meta *model.Meta, path, frame, text string) {
	switch frame {
	case "TIT2":
		meta.Title = text
	case "TPE1":
		meta.Artist = text
	case "TALB":
		meta.Album = text
	case "TCON":
		addGenres(meta, path, text)
	case "TYER", "TDRC":
		year, ok := parseYear(text)
		if !ok {
			meta.AddWarning("%s: %s %q is not a year", path, frame, text)
			return
		}
		meta.Year = year
	}
}
