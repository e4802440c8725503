package opusfile

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/iamvkosarev/songmeta/internal/binutil"
)

const (
	pageHeaderSize = 27

	headerTypeContinued = 0x01
	headerTypeBOS       = 0x02

	// Granule position of a page on which no packet ends.
	noGranule = -1
)

var capturePattern = []byte("OggS")

// page is one Ogg page with its payload still split into lacing segments.
type page struct {
	offset       int64
	headerType   byte
	granule      int64
	serial       uint32
	sequence     uint32
	segmentTable []byte
	data         []byte
}

func (p *page) size() int64 {
	return int64(pageHeaderSize + len(p.segmentTable) + len(p.data))
}

// readPage reads the page starting at off.
func readPage(sr *binutil.SafeReader, off int64) (*page, error) {
	header, err := sr.ReadAt(off, pageHeaderSize, "ogg page header")
	if err != nil {
		return nil, err
	}
	p, err := parsePageHeader(header, off)
	if err != nil {
		return nil, err
	}

	segments, err := sr.ReadAt(off+pageHeaderSize, int(header[26]), "ogg segment table")
	if err != nil {
		return nil, err
	}
	p.segmentTable = segments

	dataSize := 0
	for _, seg := range segments {
		dataSize += int(seg)
	}
	p.data, err = sr.ReadAt(off+pageHeaderSize+int64(len(segments)), dataSize, "ogg page data")
	if err != nil {
		return nil, err
	}
	return p, nil
}

func parsePageHeader(header []byte, off int64) (*page, error) {
	if !bytes.Equal(header[0:4], capturePattern) {
		return nil, fmt.Errorf("%w at offset %d", ErrNotOgg, off)
	}
	if header[4] != 0 {
		return nil, fmt.Errorf("unsupported ogg stream structure version %d at offset %d", header[4], off)
	}
	return &page{
		offset:     off,
		headerType: header[5],
		granule:    int64(binary.LittleEndian.Uint64(header[6:14])),
		serial:     binary.LittleEndian.Uint32(header[14:18]),
		sequence:   binary.LittleEndian.Uint32(header[18:22]),
	}, nil
}

// packetReader reassembles the packets of one logical stream from
// consecutive pages.
type packetReader struct {
	sr      *binutil.SafeReader
	serial  uint32
	next    int64
	pending []byte
	packets [][]byte
	maxSize int
}

// readPacket returns the next complete packet and the offset right after the
// page on which it ended.
func (pr *packetReader) readPacket() ([]byte, int64, error) {
	for len(pr.packets) == 0 {
		p, err := readPage(pr.sr, pr.next)
		if err != nil {
			return nil, 0, err
		}
		pr.next += p.size()
		if p.serial != pr.serial {
			continue
		}
		if p.headerType&headerTypeContinued == 0 && len(pr.pending) > 0 {
			pr.pending = nil
		}

		offset := 0
		for _, seg := range p.segmentTable {
			segLen := int(seg)
			if len(pr.pending)+segLen > pr.maxSize {
				return nil, 0, fmt.Errorf("%w: packet exceeds %d bytes", ErrBadPacket, pr.maxSize)
			}
			pr.pending = append(pr.pending, p.data[offset:offset+segLen]...)
			offset += segLen
			if segLen < 255 {
				pr.packets = append(pr.packets, pr.pending)
				pr.pending = nil
			}
		}
	}

	pkt := pr.packets[0]
	pr.packets = pr.packets[1:]
	return pkt, pr.next, nil
}

// lastGranule finds the granule position of the last page of stream serial
// that lies at or after floor, scanning backwards from the end of the data.
func lastGranule(sr *binutil.SafeReader, serial uint32, floor int64) (int64, error) {
	const chunk = 64 * 1024

	end := sr.Size()
	for end > floor {
		start := end - chunk
		if start < floor {
			start = floor
		}
		// Overlap by a header so a page straddling two chunks is still found.
		readEnd := end + pageHeaderSize
		if readEnd > sr.Size() {
			readEnd = sr.Size()
		}
		buf, err := sr.ReadAt(start, int(readEnd-start), "ogg tail")
		if err != nil {
			return 0, err
		}

		for i := bytes.LastIndex(buf, capturePattern); i >= 0; i = bytes.LastIndex(buf[:i], capturePattern) {
			off := start + int64(i)
			if off+pageHeaderSize > sr.Size() {
				continue
			}
			p, err := readPage(sr, off)
			if err != nil {
				continue
			}
			if p.serial == serial && p.granule != noGranule {
				return p.granule, nil
			}
		}
		end = start
	}
	return 0, ErrNoGranule
}
