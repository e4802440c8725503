package audio

import (
	"bytes"
	"math"

	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"
	"go4.org/readerutil"

	"github.com/iamvkosarev/songmeta/internal/binutil"
	"github.com/iamvkosarev/songmeta/internal/model"
)

const (
	flacBlockHeaderSize = 4
	flacLastBlock       = 0x80
	flacBlockTypeMask   = 0x7F

	// Sample rate, channels, bits per sample and total samples end at byte 18.
	streamInfoFieldsSize = 18
	streamInfoFieldsAt   = (16 + 16 + 24 + 24) / 8
)

var flacMagic = []byte("fLaC")

func readFlac(r readerutil.SizeReaderAt, path string, _ Options) (model.Meta, error) {
	meta := model.NewMeta(model.CodecFlac)
	sr := binutil.NewSafeReader(r, path)

	magic, err := sr.ReadAt(0, len(flacMagic), "FLAC magic")
	if err != nil {
		return meta, readError(path, err)
	}
	if !bytes.Equal(magic, flacMagic) {
		return meta, &FormatError{Path: path, Reason: "missing fLaC marker"}
	}

	blockHeader, err := sr.ReadAt(4, flacBlockHeaderSize, "STREAMINFO header")
	if err != nil {
		return meta, readError(path, err)
	}
	if flac.BlockType(blockHeader[0]&flacBlockTypeMask) != flac.StreamInfo {
		return meta, &FormatError{Path: path, Offset: 4, Reason: "first metadata block is not STREAMINFO"}
	}
	blockSize := binutil.Syncsafe32Bytes(blockHeader)
	if blockSize < streamInfoFieldsSize {
		return meta, &FormatError{Path: path, Offset: 4, Reason: "STREAMINFO block too small"}
	}
	info, err := sr.ReadAt(8, int(blockSize), "STREAMINFO")
	if err != nil {
		return meta, readError(path, err)
	}

	b := info[streamInfoFieldsAt:]
	sampleRate := (uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])) >> 4
	channels := (b[2]>>1)&0x7 + 1
	bitsPerSample := ((b[2]&0x1)<<4 | b[3]>>4) + 1
	totalSamples := (uint64(b[3])<<32 | uint64(b[4])<<24 | uint64(b[5])<<16 |
		uint64(b[6])<<8 | uint64(b[7])) & 0x0000000FFFFFFFFF

	if sampleRate == 0 {
		return meta, &FormatError{Path: path, Offset: 8 + streamInfoFieldsAt, Reason: "sample rate is 0"}
	}

	meta.SampleRate = int32(sampleRate)
	meta.Channels = int8(channels)
	meta.BitsPerSample = int8(bitsPerSample)
	meta.Bitrate = int32(sampleRate * uint32(bitsPerSample) * uint32(channels))
	if duration, ok := binutil.MulDiv(totalSamples, 1e9, uint64(sampleRate)); ok && duration <= math.MaxInt64 {
		meta.Duration = int64(duration)
	} else {
		meta.AddWarning("%s: %d samples at %d Hz overflow the duration", path, totalSamples, sampleRate)
	}

	if blockHeader[0]&flacLastBlock == 0 {
		readFlacComments(sr, 8+int64(blockSize), &meta)
	}
	return meta, nil
}

// readFlacComments walks the metadata blocks after STREAMINFO and applies
// the first VORBIS_COMMENT block it finds.
func readFlacComments(sr *binutil.SafeReader, off int64, meta *model.Meta) {
	path := sr.Path()
	for {
		hdr, err := sr.ReadAt(off, flacBlockHeaderSize, "metadata block header")
		if err != nil {
			meta.AddWarning("%s: %v", path, err)
			return
		}
		typ := flac.BlockType(hdr[0] & flacBlockTypeMask)
		if typ == flac.Invalid {
			meta.AddWarning("%s: invalid metadata block at offset %d", path, off)
			return
		}
		size := uint32(hdr[1])<<16 | uint32(hdr[2])<<8 | uint32(hdr[3])

		if typ == flac.VorbisComment {
			data, err := sr.ReadAt(off+flacBlockHeaderSize, int(size), "VORBIS_COMMENT")
			if err != nil {
				meta.AddWarning("%s: %v", path, err)
				return
			}
			cmts, err := flacvorbis.ParseFromMetaDataBlock(flac.MetaDataBlock{Type: flac.VorbisComment, Data: data})
			if err != nil {
				meta.AddWarning("%s: failed to parse VORBIS_COMMENT: %v", path, err)
				return
			}
			for _, c := range cmts.Comments {
				applyComment(meta, path, c)
			}
			return
		}

		if hdr[0]&flacLastBlock != 0 {
			return
		}
		off += flacBlockHeaderSize + int64(size)
	}
}
