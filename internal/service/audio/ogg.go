package audio

import (
	"go4.org/readerutil"

	"github.com/iamvkosarev/songmeta/internal/model"
	"github.com/iamvkosarev/songmeta/internal/opusfile"
)

func readOpus(r readerutil.SizeReaderAt, path string, _ Options) (model.Meta, error) {
	meta := model.NewMeta(model.CodecOggOpus)

	of, err := opusfile.Open(r)
	if err != nil {
		return meta, &DecodeError{Path: path, Err: err}
	}
	defer of.Close()

	bitrate, err := of.Bitrate()
	if err != nil {
		return meta, &DecodeError{Path: path, Err: err}
	}
	meta.Bitrate = bitrate

	head := of.Head()
	meta.Channels = int8(head.ChannelCount)
	meta.SampleRate = int32(head.InputSampleRate)
	if meta.SampleRate == 0 {
		meta.SampleRate = opusfile.SampleRate
	}

	pcm := of.PCMTotal()
	meta.Duration = (pcm / opusfile.SampleRate) * 1e9

	for _, c := range of.Tags().Comments {
		applyComment(&meta, path, c)
	}
	return meta, nil
}
