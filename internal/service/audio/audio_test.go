package audio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"
	"unicode/utf16"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacvorbis"
	flac "github.com/go-flac/go-flac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iamvkosarev/songmeta/internal/binutil"
	"github.com/iamvkosarev/songmeta/internal/genre"
	"github.com/iamvkosarev/songmeta/internal/model"
)

// MPEG-1 Layer III, 128 kbps, 44100 Hz, stereo.
var mp3FrameHeader = []byte{0xFF, 0xFB, 0x90, 0x00}

func mp3Payload(n int, header []byte) []byte {
	p := make([]byte, n)
	copy(p, header)
	return p
}

func id3Header(major byte, bodySize int) []byte {
	h := []byte{'I', 'D', '3', major, 0, 0}
	return binary.BigEndian.AppendUint32(h, binutil.EncodeSyncsafe32(uint32(bodySize)))
}

func id3Frame(id string, size uint32, payload []byte) []byte {
	return id3FrameFlags(id, size, 0, payload)
}

func id3FrameFlags(id string, size uint32, flags uint16, payload []byte) []byte {
	b := []byte(id)
	b = binary.BigEndian.AppendUint32(b, size)
	b = binary.BigEndian.AppendUint16(b, flags)
	return append(b, payload...)
}

func id3Tag(major byte, frames ...[]byte) []byte {
	body := bytes.Join(frames, nil)
	return append(id3Header(major, len(body)), body...)
}

func utf16Payload(s string) []byte {
	b := []byte{encodingUTF16, 0xFF, 0xFE}
	for _, u := range utf16.Encode([]rune(s)) {
		b = binary.LittleEndian.AppendUint16(b, u)
	}
	return b
}

func readBytes(t *testing.T, data []byte, codec model.Codec, opts Options) (model.Meta, error) {
	t.Helper()
	return ReadMeta(bytes.NewReader(data), "test", codec, opts)
}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestReadMp3_BitrateAndDuration(t *testing.T) {
	data := append(id3Header(4, 0), mp3Payload(128000, mp3FrameHeader)...)

	meta, err := readBytes(t, data, model.CodecMp3, Options{})
	require.NoError(t, err)

	assert.Equal(t, model.CodecMp3, meta.Codec)
	assert.Equal(t, int32(128000), meta.Bitrate)
	assert.Equal(t, int32(44100), meta.SampleRate)
	assert.Equal(t, int8(2), meta.Channels)
	assert.Equal(t, int8(-1), meta.BitsPerSample)
	assert.Equal(t, int64(8_000_000_000), meta.Duration)
}

func TestReadMp3_ID3v1TrailerExcluded(t *testing.T) {
	trailer := make([]byte, 128)
	copy(trailer, "TAG")
	data := append(id3Header(3, 0), mp3Payload(128000, mp3FrameHeader)...)
	data = append(data, trailer...)

	meta, err := readBytes(t, data, model.CodecMp3, Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(8_000_000_000), meta.Duration)
}

func TestReadMp3_Mono(t *testing.T) {
	data := append(id3Header(4, 0), mp3Payload(64000, []byte{0xFF, 0xFB, 0x94, 0xC0})...)

	meta, err := readBytes(t, data, model.CodecMp3, Options{})
	require.NoError(t, err)
	assert.Equal(t, int8(1), meta.Channels)
	assert.Equal(t, int32(48000), meta.SampleRate)
	assert.Equal(t, int64(4_000_000_000), meta.Duration)
}

func TestReadMp3_TextFramesV24(t *testing.T) {
	tag := id3v2.NewEmptyTag()
	tag.SetVersion(4)
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle("Песня")
	tag.SetArtist("Artist")
	tag.SetAlbum("Album")
	tag.SetGenre("Hip-Hop, R&B")
	tag.AddTextFrame("TDRC", id3v2.EncodingUTF8, "2004-05-01")

	var buf bytes.Buffer
	_, err := tag.WriteTo(&buf)
	require.NoError(t, err)
	data := append(buf.Bytes(), mp3Payload(128000, mp3FrameHeader)...)

	meta, err := readBytes(t, data, model.CodecMp3, Options{DecodeID3Text: true})
	require.NoError(t, err)

	assert.Equal(t, "Песня", meta.Title)
	assert.Equal(t, "Artist", meta.Artist)
	assert.Equal(t, "Album", meta.Album)
	assert.Equal(t, []genre.Genre{genre.HipHop, genre.RNB}, meta.Genres)
	assert.Equal(t, 2004, meta.Year)
	assert.Equal(t, int64(8_000_000_000), meta.Duration)
	assert.Empty(t, meta.Warnings)
}

func TestReadMp3_TextFramesDisabled(t *testing.T) {
	title := append([]byte{encodingLatin1}, "Title"...)
	data := append(id3Tag(4, id3Frame("TIT2", uint32(len(title)), title)), mp3Payload(128000, mp3FrameHeader)...)

	meta, err := readBytes(t, data, model.CodecMp3, Options{})
	require.NoError(t, err)
	assert.Empty(t, meta.Title)
}

func TestReadMp3_FrameSizeByVersion(t *testing.T) {
	// Over 127 bytes, so the plain and syncsafe readings differ.
	long := string(bytes.Repeat([]byte("a"), 100))
	title := utf16Payload(long)
	genreText := append([]byte{encodingLatin1}, "Rock\x00"...)

	t.Run("v2.3 plain sizes", func(t *testing.T) {
		tag := id3Tag(3,
			id3Frame("TIT2", uint32(len(title)), title),
			id3Frame("TCON", uint32(len(genreText)), genreText),
		)
		meta, err := readBytes(t, append(tag, mp3Payload(128000, mp3FrameHeader)...), model.CodecMp3, Options{DecodeID3Text: true})
		require.NoError(t, err)
		assert.Equal(t, long, meta.Title)
		assert.Equal(t, []genre.Genre{genre.Rock}, meta.Genres)
	})

	t.Run("v2.4 syncsafe sizes", func(t *testing.T) {
		tag := id3Tag(4,
			id3Frame("TIT2", binutil.EncodeSyncsafe32(uint32(len(title))), title),
			id3Frame("TCON", binutil.EncodeSyncsafe32(uint32(len(genreText))), genreText),
		)
		meta, err := readBytes(t, append(tag, mp3Payload(128000, mp3FrameHeader)...), model.CodecMp3, Options{DecodeID3Text: true})
		require.NoError(t, err)
		assert.Equal(t, long, meta.Title)
		assert.Equal(t, []genre.Genre{genre.Rock}, meta.Genres)
	})
}

func TestReadMp3_FrameFormatFlags(t *testing.T) {
	v4 := func(id string, flags uint16, payload []byte) []byte {
		return id3FrameFlags(id, binutil.EncodeSyncsafe32(uint32(len(payload))), flags, payload)
	}
	text := func(s string) []byte {
		return append([]byte{encodingLatin1}, s...)
	}
	dataLength := func(b []byte) []byte {
		return append(binary.BigEndian.AppendUint32(nil, binutil.EncodeSyncsafe32(uint32(len(b)))), b...)
	}

	t.Run("v2.4", func(t *testing.T) {
		tag := id3Tag(4,
			v4("TIT2", 0x0001, dataLength(text("Hello"))),
			v4("TPE1", 0x0041, append([]byte{7}, dataLength(text("Band"))...)),
			v4("TALB", 0x0009, dataLength([]byte{0x78, 0x9C, 0x01})),
			v4("TCON", 0x0004, append([]byte{1}, text("Rock")...)),
			v4("TDRC", 0x0002, text("2001")),
			v4("TYER", 0x0001, []byte{0, 0, 0}),
		)
		meta, err := readBytes(t, append(tag, mp3Payload(128000, mp3FrameHeader)...), model.CodecMp3, Options{DecodeID3Text: true})
		require.NoError(t, err)

		assert.Equal(t, "Hello", meta.Title)
		assert.Equal(t, "Band", meta.Artist)
		assert.Empty(t, meta.Album)
		assert.Empty(t, meta.Genres)
		assert.Zero(t, meta.Year)
		require.Len(t, meta.Warnings, 4)
		assert.Contains(t, meta.Warnings[0], "TALB frame skipped: compressed")
		assert.Contains(t, meta.Warnings[1], "TCON frame skipped: encrypted")
		assert.Contains(t, meta.Warnings[2], "TDRC frame skipped: unsynchronised")
		assert.Contains(t, meta.Warnings[3], "TYER frame skipped")
	})

	t.Run("v2.3", func(t *testing.T) {
		title := append([]byte{3}, text("Grouped")...)
		album := append([]byte{0, 0, 0, 10}, 0x78, 0x9C)
		tag := id3Tag(3,
			id3FrameFlags("TIT2", uint32(len(title)), 0x0020, title),
			id3FrameFlags("TALB", uint32(len(album)), 0x0080, album),
		)
		meta, err := readBytes(t, append(tag, mp3Payload(128000, mp3FrameHeader)...), model.CodecMp3, Options{DecodeID3Text: true})
		require.NoError(t, err)

		assert.Equal(t, "Grouped", meta.Title)
		assert.Empty(t, meta.Album)
		require.Len(t, meta.Warnings, 1)
		assert.Contains(t, meta.Warnings[0], "TALB frame skipped: compressed")
	})
}

func TestReadMp3_TextEncodings(t *testing.T) {
	be := []byte{encodingUTF16BE}
	for _, u := range utf16.Encode([]rune("Beta")) {
		be = binary.BigEndian.AppendUint16(be, u)
	}
	latin := []byte{encodingLatin1, 'C', 'a', 'f', 0xE9}
	apic := []byte{0, 'i', 'm', 'a', 'g', 'e', '/', 'p', 'n', 'g', 0, 3, 0, 0x89, 'P', 'N', 'G'}

	tag := id3Tag(3,
		id3Frame("APIC", uint32(len(apic)), apic),
		id3Frame("TPE1", uint32(len(be)), be),
		id3Frame("TALB", uint32(len(latin)), latin),
		id3Frame("TCON", 9, append([]byte{encodingLatin1}, "Polkadot"...)),
		id3Frame("TYER", 5, append([]byte{encodingLatin1}, "soon"...)),
	)
	// Padding after the frames.
	tag = append(id3Header(3, len(tag)-10+32), append(tag[10:], make([]byte, 32)...)...)

	meta, err := readBytes(t, append(tag, mp3Payload(128000, mp3FrameHeader)...), model.CodecMp3, Options{DecodeID3Text: true})
	require.NoError(t, err)

	assert.Equal(t, "Beta", meta.Artist)
	assert.Equal(t, "Café", meta.Album)
	assert.Empty(t, meta.Genres)
	assert.Zero(t, meta.Year)
	require.Len(t, meta.Warnings, 2)
	assert.Contains(t, meta.Warnings[0], `"Polkadot"`)
	assert.Contains(t, meta.Warnings[0], "test")
	assert.Equal(t, int64(8_000_000_000), meta.Duration)
}

func TestReadMp3_Errors(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{name: "no ID3v2 header", data: mp3Payload(1000, mp3FrameHeader)},
		{name: "too small", data: []byte("ID3")},
		{name: "no frame sync", data: append(id3Header(4, 0), make([]byte, 100)...)},
		{name: "MPEG-2", data: append(id3Header(4, 0), mp3Payload(100, []byte{0xFF, 0xF3, 0x90, 0x00})...)},
		{name: "Layer II", data: append(id3Header(4, 0), mp3Payload(100, []byte{0xFF, 0xFD, 0x90, 0x00})...)},
		{name: "free bitrate", data: append(id3Header(4, 0), mp3Payload(100, []byte{0xFF, 0xFB, 0x00, 0x00})...)},
		{name: "bad bitrate", data: append(id3Header(4, 0), mp3Payload(100, []byte{0xFF, 0xFB, 0xF0, 0x00})...)},
		{name: "reserved sample rate", data: append(id3Header(4, 0), mp3Payload(100, []byte{0xFF, 0xFB, 0x9C, 0x00})...)},
		{name: "tag past end", data: append(id3Header(4, 5000), mp3FrameHeader...)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := readBytes(t, tt.data, model.CodecMp3, Options{})
			var formatErr *FormatError
			assert.ErrorAs(t, err, &formatErr)
			assert.Equal(t, model.CodecMp3, meta.Codec)
			assert.False(t, meta.IsDurationSet())
		})
	}
}

func streamInfo(rate uint32, channels, bps uint8, total uint64) []byte {
	b := make([]byte, 34)
	binary.BigEndian.PutUint16(b[0:], 4096)
	binary.BigEndian.PutUint16(b[2:], 4096)
	b[10] = byte(rate >> 12)
	b[11] = byte(rate >> 4)
	b[12] = byte(rate<<4) | (channels-1)<<1 | (bps-1)>>4
	b[13] = (bps-1)<<4 | byte(total>>32)&0x0F
	binary.BigEndian.PutUint32(b[14:], uint32(total))
	return b
}

func flacFile(blocks ...*flac.MetaDataBlock) *flac.File {
	return &flac.File{Meta: blocks, Frames: make([]byte, 64)}
}

func TestReadFlac_StreamInfo(t *testing.T) {
	f := flacFile(&flac.MetaDataBlock{Type: flac.StreamInfo, Data: streamInfo(44100, 2, 16, 4410000)})

	meta, err := readBytes(t, f.Marshal(), model.CodecFlac, Options{})
	require.NoError(t, err)

	assert.Equal(t, model.CodecFlac, meta.Codec)
	assert.Equal(t, int32(44100), meta.SampleRate)
	assert.Equal(t, int8(2), meta.Channels)
	assert.Equal(t, int8(16), meta.BitsPerSample)
	assert.Equal(t, int64(100_000_000_000), meta.Duration)
	assert.Equal(t, int32(1_411_200), meta.Bitrate)

	info, err := f.GetStreamInfo()
	require.NoError(t, err)
	assert.Equal(t, info.SampleRate, int(meta.SampleRate))
	assert.Equal(t, info.ChannelCount, int(meta.Channels))
	assert.Equal(t, info.BitDepth, int(meta.BitsPerSample))
}

func TestReadFlac_WideFields(t *testing.T) {
	total := uint64(1)<<33 + 12345
	f := flacFile(&flac.MetaDataBlock{Type: flac.StreamInfo, Data: streamInfo(192000, 8, 24, total)})

	meta, err := readBytes(t, f.Marshal(), model.CodecFlac, Options{})
	require.NoError(t, err)

	assert.Equal(t, int32(192000), meta.SampleRate)
	assert.Equal(t, int8(8), meta.Channels)
	assert.Equal(t, int8(24), meta.BitsPerSample)
	assert.Equal(t, int64(total*1e9/192000), meta.Duration)
}

func TestReadFlac_DurationOverflow(t *testing.T) {
	tests := []struct {
		name string
		rate uint32
	}{
		{name: "product overflows 64 bits", rate: 1},
		{name: "quotient exceeds int64", rate: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := flacFile(&flac.MetaDataBlock{Type: flac.StreamInfo, Data: streamInfo(tt.rate, 1, 8, 1<<36-1)})

			meta, err := readBytes(t, f.Marshal(), model.CodecFlac, Options{})
			require.NoError(t, err)
			assert.False(t, meta.IsDurationSet())
			assert.Equal(t, int64(-1), meta.Duration)
			assert.Equal(t, int32(tt.rate), meta.SampleRate)
			require.Len(t, meta.Warnings, 1)
			assert.Contains(t, meta.Warnings[0], "overflow")
		})
	}
}

func TestReadFlac_VorbisComment(t *testing.T) {
	vc := flacvorbis.New()
	require.NoError(t, vc.Add(flacvorbis.FIELD_TITLE, "Title"))
	require.NoError(t, vc.Add(flacvorbis.FIELD_ARTIST, "Artist"))
	require.NoError(t, vc.Add(flacvorbis.FIELD_ALBUM, "Album"))
	require.NoError(t, vc.Add(flacvorbis.FIELD_GENRE, "Rock/Pop"))
	require.NoError(t, vc.Add(flacvorbis.FIELD_DATE, "1999"))
	block := vc.Marshal()

	f := flacFile(
		&flac.MetaDataBlock{Type: flac.StreamInfo, Data: streamInfo(48000, 2, 24, 48000)},
		&flac.MetaDataBlock{Type: flac.Padding, Data: make([]byte, 100)},
		&block,
	)

	meta, err := readBytes(t, f.Marshal(), model.CodecFlac, Options{})
	require.NoError(t, err)

	assert.Equal(t, "Title", meta.Title)
	assert.Equal(t, "Artist", meta.Artist)
	assert.Equal(t, "Album", meta.Album)
	assert.Equal(t, []genre.Genre{genre.Rock, genre.Pop}, meta.Genres)
	assert.Equal(t, 1999, meta.Year)
	assert.Equal(t, int64(1_000_000_000), meta.Duration)
}

func TestReadFlac_BrokenTrailingBlockWarns(t *testing.T) {
	f := flacFile(
		&flac.MetaDataBlock{Type: flac.StreamInfo, Data: streamInfo(44100, 2, 16, 44100)},
		&flac.MetaDataBlock{Type: flac.VorbisComment, Data: []byte{0xFF, 0xFF}},
	)

	meta, err := readBytes(t, f.Marshal(), model.CodecFlac, Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(1_000_000_000), meta.Duration)
	assert.Len(t, meta.Warnings, 1)
}

func TestReadFlac_Errors(t *testing.T) {
	good := flacFile(&flac.MetaDataBlock{Type: flac.StreamInfo, Data: streamInfo(44100, 2, 16, 1)}).Marshal()
	notStreamInfo := flacFile(&flac.MetaDataBlock{Type: flac.Padding, Data: make([]byte, 34)}).Marshal()
	zeroRate := flacFile(&flac.MetaDataBlock{Type: flac.StreamInfo, Data: streamInfo(0, 2, 16, 1)}).Marshal()
	short := flacFile(&flac.MetaDataBlock{Type: flac.StreamInfo, Data: make([]byte, 10)}).Marshal()

	tests := []struct {
		name string
		data []byte
	}{
		{name: "bad magic", data: append([]byte("RIFF"), good[4:]...)},
		{name: "magic only", data: []byte("fLaC")},
		{name: "truncated STREAMINFO", data: good[:20]},
		{name: "first block not STREAMINFO", data: notStreamInfo},
		{name: "sample rate 0", data: zeroRate},
		{name: "STREAMINFO too small", data: short},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := readBytes(t, tt.data, model.CodecFlac, Options{})
			var formatErr *FormatError
			assert.ErrorAs(t, err, &formatErr)
			assert.Equal(t, model.CodecFlac, meta.Codec)
		})
	}
}

func oggPage(headerType byte, granule int64, seq uint32, packet []byte) []byte {
	b := []byte("OggS")
	b = append(b, 0, headerType)
	b = binary.LittleEndian.AppendUint64(b, uint64(granule))
	b = binary.LittleEndian.AppendUint32(b, 7)
	b = binary.LittleEndian.AppendUint32(b, seq)
	b = binary.LittleEndian.AppendUint32(b, 0)

	var segs []byte
	n := len(packet)
	for ; n >= 255; n -= 255 {
		segs = append(segs, 255)
	}
	segs = append(segs, byte(n))
	b = append(b, byte(len(segs)))
	b = append(b, segs...)
	return append(b, packet...)
}

func opusStream(inputRate uint32, granule int64, comments ...string) []byte {
	head := []byte("OpusHead")
	head = append(head, 1, 2)
	head = binary.LittleEndian.AppendUint16(head, 0)
	head = binary.LittleEndian.AppendUint32(head, inputRate)
	head = append(head, 0, 0, 0)

	tags := []byte("OpusTags")
	tags = binary.LittleEndian.AppendUint32(tags, 4)
	tags = append(tags, "test"...)
	tags = binary.LittleEndian.AppendUint32(tags, uint32(len(comments)))
	for _, c := range comments {
		tags = binary.LittleEndian.AppendUint32(tags, uint32(len(c)))
		tags = append(tags, c...)
	}

	var data []byte
	data = append(data, oggPage(0x02, 0, 0, head)...)
	data = append(data, oggPage(0, 0, 1, tags)...)
	data = append(data, oggPage(0x04, granule, 2, make([]byte, 6000))...)
	return data
}

func TestReadOpus(t *testing.T) {
	data := opusStream(44100, 48000*10+500,
		"GENRE=Rock",
		"genre=Jazz",
		"ARTIST=Band",
		"title=Song",
		"Album=Record",
		"DATE=soon",
		"DATE=2019",
		"=nokey",
		"novalue",
		"x=y",
		"COMMENT=ignored",
	)

	meta, err := readBytes(t, data, model.CodecOggOpus, Options{})
	require.NoError(t, err)

	assert.Equal(t, model.CodecOggOpus, meta.Codec)
	assert.Equal(t, int8(2), meta.Channels)
	assert.Equal(t, int32(44100), meta.SampleRate)
	assert.Equal(t, int64(10_000_000_000), meta.Duration)
	assert.Positive(t, meta.Bitrate)
	assert.Equal(t, []genre.Genre{genre.Rock, genre.Jazz}, meta.Genres)
	assert.Equal(t, "Band", meta.Artist)
	assert.Equal(t, "Song", meta.Title)
	assert.Equal(t, "Record", meta.Album)
	assert.Equal(t, 2019, meta.Year)
	require.Len(t, meta.Warnings, 1)
	assert.Contains(t, meta.Warnings[0], "soon")
}

func TestApplyComment_ValueLength(t *testing.T) {
	tests := []struct {
		comment string
		want    string
	}{
		{comment: "title=ab", want: "ab"},
		{comment: "title=é", want: ""},
		{comment: "title=éé", want: "éé"},
		{comment: "títle=ab", want: ""},
		{comment: "title=a", want: ""},
		{comment: "=ab", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.comment, func(t *testing.T) {
			meta := model.NewMeta(model.CodecOggOpus)
			applyComment(&meta, "test", tt.comment)
			assert.Equal(t, tt.want, meta.Title)
		})
	}
}

func TestReadOpus_DefaultSampleRate(t *testing.T) {
	meta, err := readBytes(t, opusStream(0, 48000), model.CodecOggOpus, Options{})
	require.NoError(t, err)
	assert.Equal(t, int32(48000), meta.SampleRate)
	assert.Equal(t, int64(1_000_000_000), meta.Duration)
}

func TestReadOpus_NoSamples(t *testing.T) {
	meta, err := readBytes(t, opusStream(48000, 0), model.CodecOggOpus, Options{})
	require.NoError(t, err)
	assert.Equal(t, int32(math.MaxInt32), meta.Bitrate)
	assert.Zero(t, meta.Duration)
	assert.True(t, meta.IsDurationSet())
}

func TestReadOpus_DecodeError(t *testing.T) {
	_, err := readBytes(t, []byte("not an ogg stream at all, really"), model.CodecOggOpus, Options{})
	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)
}

func TestReadFileMeta(t *testing.T) {
	data := append(id3Header(4, 0), mp3Payload(128000, mp3FrameHeader)...)
	path := writeFile(t, "song.mp3", data)

	meta, err := ReadFileMeta(path, model.CodecMp3, Options{})
	require.NoError(t, err)
	assert.Equal(t, int64(8_000_000_000), meta.Duration)
}

func TestReadFileMeta_UnknownCodecDoesNoIO(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.mka")

	meta, err := ReadFileMeta(missing, model.CodecUnknown, Options{})
	assert.ErrorIs(t, err, ErrUnsupportedCodec)
	var ioErr *IOError
	assert.False(t, errors.As(err, &ioErr))
	assert.Equal(t, model.CodecUnknown, meta.Codec)
	assert.False(t, meta.IsDurationSet())
}

func TestReadFileMeta_OpenFailure(t *testing.T) {
	_, err := ReadFileMeta(filepath.Join(t.TempDir(), "missing.flac"), model.CodecFlac, Options{})
	var ioErr *IOError
	require.ErrorAs(t, err, &ioErr)
	assert.Equal(t, "open", ioErr.Op)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func newTestService(opts Options) *AudioService {
	return NewAudioService(slog.New(slog.NewTextHandler(io.Discard, nil)), opts)
}

func TestAudioService_ParseFile_SniffsUnknownExtension(t *testing.T) {
	flacData := flacFile(&flac.MetaDataBlock{Type: flac.StreamInfo, Data: streamInfo(44100, 2, 16, 4410000)}).Marshal()
	mp3Data := append(id3Header(4, 0), mp3Payload(128000, mp3FrameHeader)...)

	tests := []struct {
		name  string
		file  string
		data  []byte
		codec model.Codec
	}{
		{name: "flac", file: "track.bin", data: flacData, codec: model.CodecFlac},
		{name: "mp3", file: "track", data: mp3Data, codec: model.CodecMp3},
		{name: "opus", file: "track.ogg", data: opusStream(48000, 48000), codec: model.CodecOggOpus},
	}

	s := newTestService(Options{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := s.ParseFile(writeFile(t, tt.file, tt.data))
			require.NoError(t, err)
			assert.Equal(t, tt.codec, meta.Codec)
			assert.True(t, meta.IsDurationSet())
		})
	}
}

func TestAudioService_ParseFile_Unsupported(t *testing.T) {
	s := newTestService(Options{})
	_, err := s.ParseFile(writeFile(t, "notes.txt", []byte("just some text, not audio at all")))
	assert.ErrorIs(t, err, ErrUnsupportedCodec)
}

func TestAudioService_TagFallback(t *testing.T) {
	tag := id3v2.NewEmptyTag()
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle("Fallback Title")
	tag.SetArtist("Fallback Artist")

	var buf bytes.Buffer
	_, err := tag.WriteTo(&buf)
	require.NoError(t, err)
	path := writeFile(t, "song.mp3", append(buf.Bytes(), mp3Payload(128000, mp3FrameHeader)...))

	meta, err := newTestService(Options{}).ParseFile(path)
	require.NoError(t, err)
	assert.Empty(t, meta.Title)

	meta, err = newTestService(Options{TagFallback: true}).ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Fallback Title", meta.Title)
	assert.Equal(t, "Fallback Artist", meta.Artist)
	assert.Equal(t, int64(8_000_000_000), meta.Duration)
}

func TestAudioService_ParseReader(t *testing.T) {
	data := flacFile(&flac.MetaDataBlock{Type: flac.StreamInfo, Data: streamInfo(44100, 2, 16, 4410000)}).Marshal()

	meta, err := newTestService(Options{}).ParseReader(bytes.NewReader(data), "upload.flac")
	require.NoError(t, err)
	assert.Equal(t, int64(100_000_000_000), meta.Duration)
}
