// Package opusfile opens Ogg/Opus streams and exposes the stream head, the
// comment vector, the total PCM length and the average bitrate of the first
// logical Opus stream.
package opusfile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"go4.org/readerutil"

	"github.com/iamvkosarev/songmeta/internal/binutil"
)

// Opus always decodes at 48 kHz, whatever the input rate was.
const SampleRate = 48000

// Header packets larger than this are rejected. OpusTags may carry pictures.
const maxHeaderPacket = 16 << 20

var (
	ErrNotOgg    = errors.New("opusfile: not an ogg stream")
	ErrNotOpus   = errors.New("opusfile: not an opus stream")
	ErrBadHeader = errors.New("opusfile: invalid header packet")
	ErrBadPacket = errors.New("opusfile: invalid packet")
	ErrNoGranule = errors.New("opusfile: no page with a granule position")
)

// Head is the identification header.
type Head struct {
	Version         uint8
	ChannelCount    uint8
	PreSkip         uint16
	InputSampleRate uint32
	OutputGain      int16
	MappingFamily   uint8
}

// Tags is the comment header: a vendor string and "KEY=value" comments.
type Tags struct {
	Vendor   string
	Comments []string
}

// File is an opened Opus stream.
type File struct {
	sr         *binutil.SafeReader
	closer     io.Closer
	head       Head
	tags       Tags
	dataOffset int64
	pcmTotal   int64
}

// OpenFile opens the Opus file at path.
func OpenFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	stat, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}

	of, err := open(io.NewSectionReader(f, 0, stat.Size()), path)
	if err != nil {
		f.Close()
		return nil, err
	}
	of.closer = f
	return of, nil
}

// Open reads the headers of the Opus stream in r.
func Open(r readerutil.SizeReaderAt) (*File, error) {
	return open(r, "")
}

func open(r readerutil.SizeReaderAt, path string) (*File, error) {
	sr := binutil.NewSafeReader(r, path)

	first, err := readPage(sr, 0)
	if err != nil {
		return nil, err
	}
	if first.headerType&headerTypeBOS == 0 {
		return nil, fmt.Errorf("%w: first page is not a beginning of stream", ErrNotOgg)
	}

	pr := &packetReader{sr: sr, serial: first.serial, maxSize: maxHeaderPacket}
	headPkt, _, err := pr.readPacket()
	if err != nil {
		return nil, err
	}
	head, err := parseHead(headPkt)
	if err != nil {
		return nil, err
	}

	tagsPkt, dataOffset, err := pr.readPacket()
	if err != nil {
		return nil, err
	}
	tags, err := parseTags(tagsPkt)
	if err != nil {
		return nil, err
	}

	granule, err := lastGranule(sr, first.serial, dataOffset)
	if err != nil {
		return nil, err
	}
	pcm := granule - int64(head.PreSkip)
	if pcm < 0 {
		pcm = 0
	}

	return &File{
		sr:         sr,
		head:       head,
		tags:       tags,
		dataOffset: dataOffset,
		pcmTotal:   pcm,
	}, nil
}

// Head returns the identification header.
func (f *File) Head() Head {
	return f.head
}

// Tags returns the comment header.
func (f *File) Tags() Tags {
	return f.tags
}

// PCMTotal returns the stream length in 48 kHz samples, pre-skip excluded.
func (f *File) PCMTotal() int64 {
	return f.pcmTotal
}

// Bitrate returns the average bitrate of the audio data in bits per second.
// A stream without samples reports math.MaxInt32.
func (f *File) Bitrate() (int32, error) {
	if f.pcmTotal <= 0 {
		return math.MaxInt32, nil
	}
	audioBytes := f.sr.Size() - f.dataOffset
	if audioBytes <= 0 {
		return 0, fmt.Errorf("%w: stream holds no audio data", ErrBadPacket)
	}
	rate, ok := binutil.MulDiv(uint64(audioBytes), 8*SampleRate, uint64(f.pcmTotal))
	if !ok || rate > math.MaxInt32 {
		return math.MaxInt32, nil
	}
	return int32(rate), nil
}

// Close releases the file opened by OpenFile.
func (f *File) Close() error {
	if f.closer == nil {
		return nil
	}
	err := f.closer.Close()
	f.closer = nil
	return err
}

func parseHead(pkt []byte) (Head, error) {
	if len(pkt) < 19 || !bytes.Equal(pkt[0:8], []byte("OpusHead")) {
		return Head{}, ErrNotOpus
	}

	c := binutil.NewCursor(pkt[8:], "OpusHead")
	var h Head
	h.Version, _ = c.U8("version")
	h.ChannelCount, _ = c.U8("channel count")
	h.PreSkip, _ = c.U16LE("pre-skip")
	h.InputSampleRate, _ = c.U32LE("input sample rate")
	gain, _ := c.U16LE("output gain")
	h.OutputGain = int16(gain)
	h.MappingFamily, _ = c.U8("mapping family")

	if h.Version&0xF0 != 0 {
		return Head{}, fmt.Errorf("%w: unsupported version %d", ErrBadHeader, h.Version)
	}
	if h.ChannelCount == 0 {
		return Head{}, fmt.Errorf("%w: zero channels", ErrBadHeader)
	}
	return h, nil
}

func parseTags(pkt []byte) (Tags, error) {
	if len(pkt) < 8 || !bytes.Equal(pkt[0:8], []byte("OpusTags")) {
		return Tags{}, fmt.Errorf("%w: missing OpusTags", ErrBadHeader)
	}

	c := binutil.NewCursor(pkt[8:], "OpusTags")
	vendorLen, err := c.U32LE("vendor length")
	if err != nil {
		return Tags{}, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	vendor, err := c.Bytes(int(vendorLen), "vendor")
	if err != nil {
		return Tags{}, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	count, err := c.U32LE("comment count")
	if err != nil {
		return Tags{}, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}

	tags := Tags{Vendor: string(vendor)}
	for i := uint32(0); i < count; i++ {
		n, err := c.U32LE("comment length")
		if err != nil {
			return Tags{}, fmt.Errorf("%w: comment %d: %v", ErrBadHeader, i, err)
		}
		comment, err := c.Bytes(int(n), "comment")
		if err != nil {
			return Tags{}, fmt.Errorf("%w: comment %d: %v", ErrBadHeader, i, err)
		}
		tags.Comments = append(tags.Comments, string(comment))
	}
	return tags, nil
}
