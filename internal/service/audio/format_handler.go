package audio

import (
	"go4.org/readerutil"

	"github.com/iamvkosarev/songmeta/internal/model"
)

// Options tunes what the readers decode besides the audio properties.
type Options struct {
	// DecodeID3Text enables ID3v2 text frame decoding for MP3.
	DecodeID3Text bool
	// TagFallback fills empty text fields with tags read by a generic tag
	// library after the native read. Used by AudioService only.
	TagFallback bool
}

// metaReader reads one codec. It returns a fresh Meta for its own codec.
type metaReader func(r readerutil.SizeReaderAt, path string, opts Options) (model.Meta, error)

var readers = map[model.Codec]metaReader{
	model.CodecMp3:     readMp3,
	model.CodecFlac:    readFlac,
	model.CodecOggOpus: readOpus,
}
