package playlist

import (
	"math"
	"net/url"
	"path/filepath"

	"github.com/iamvkosarev/songmeta/internal/genre"
	"github.com/iamvkosarev/songmeta/internal/library"
	"github.com/iamvkosarev/songmeta/internal/model"
)

// PlaybackState uses the playback engine's numeric state codes, which are
// stored as is in playlist files.
type PlaybackState int32

const (
	StatePending PlaybackState = iota
	StateNull
	StateReady
	StatePaused
	StatePlaying
)

func (s PlaybackState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateNull:
		return "null"
	case StateReady:
		return "ready"
	case StatePaused:
		return "paused"
	case StatePlaying:
		return "playing"
	default:
		return "invalid"
	}
}

// Bits are per-song flags.
type Bits uint8

// BitMarkedForDeletion is set on songs queued for removal. It is never saved.
const BitMarkedForDeletion Bits = 1 << 0

type Song struct {
	DisplayName string
	URI         string
	DirPath     string
	// Position is the playback offset in nanoseconds, -1 when the song is
	// neither playing nor paused.
	Position   int64
	State      PlaybackState
	Bits       Bits
	Meta       model.Meta
	PlaylistID int64
}

// Path returns the file system path of the song.
func (s *Song) Path() string {
	return filepath.Join(s.DirPath, s.DisplayName)
}

func (s *Song) IsPlaying() bool {
	return s.State == StatePlaying
}

func (s *Song) MarkedForDeletion() bool {
	return s.Bits&BitMarkedForDeletion != 0
}

// SongFromFile builds a song for a listed file. It returns nil for files that
// are not songs. Containers without a reader get CodecUnknown.
func SongFromFile(f library.File, playlistID int64) *Song {
	if f.Type != library.KindRegular || !library.IsSongExtension(f.DirPath, f.Name) {
		return nil
	}

	full, err := filepath.Abs(f.Path())
	if err != nil {
		full = f.Path()
	}
	uri := &url.URL{Scheme: "file", Path: filepath.ToSlash(full)}

	return &Song{
		DisplayName: f.Name,
		URI:         uri.String(),
		DirPath:     f.DirPath,
		Position:    -1,
		State:       StateNull,
		Meta:        model.NewMeta(model.CodecFromExtension(f.Ext())),
		PlaylistID:  playlistID,
	}
}

func (s *Song) encode(ba *ByteArray) {
	ba.AddString(s.DisplayName)
	ba.AddString(s.URI)
	ba.AddString(s.DirPath)

	state, position := s.State, int64(-1)
	switch state {
	case StatePlaying:
		state = StatePaused
		position = s.Position
	case StatePaused:
		position = s.Position
	}
	ba.AddI64(position)
	ba.AddI32(int32(state))
	ba.AddU8(uint8(s.Bits &^ BitMarkedForDeletion))

	m := &s.Meta
	ba.AddI8(m.Channels)
	ba.AddI8(m.BitsPerSample)
	ba.AddI32(m.SampleRate)
	ba.AddI64(m.Duration)
	ba.AddI32(m.Bitrate)
	ba.AddU8(uint8(m.Codec))

	genres := m.Genres
	if len(genres) > math.MaxUint8 {
		genres = genres[:math.MaxUint8]
	}
	ba.AddU8(uint8(len(genres)))
	for _, g := range genres {
		ba.AddI16(int16(g))
	}
}

func decodeSong(ba *ByteArray, playlistID int64) *Song {
	s := &Song{PlaylistID: playlistID}
	s.DisplayName = ba.NextString()
	s.URI = ba.NextString()
	s.DirPath = ba.NextString()
	s.Position = ba.NextI64()
	s.State = loadedState(PlaybackState(ba.NextI32()))
	if s.State != StatePaused {
		s.Position = -1
	}
	s.Bits = Bits(ba.NextU8())

	channels := ba.NextI8()
	bitsPerSample := ba.NextI8()
	sampleRate := ba.NextI32()
	duration := ba.NextI64()
	bitrate := ba.NextI32()
	codec := model.Codec(ba.NextU8())
	if codec > model.CodecFlac {
		codec = model.CodecUnknown
	}

	s.Meta = model.NewMeta(codec)
	s.Meta.Channels = channels
	s.Meta.BitsPerSample = bitsPerSample
	s.Meta.SampleRate = sampleRate
	s.Meta.Duration = duration
	s.Meta.Bitrate = bitrate

	count := int(ba.NextU8())
	if count > 0 {
		s.Meta.Genres = make([]genre.Genre, 0, count)
	}
	for i := 0; i < count; i++ {
		s.Meta.Genres = append(s.Meta.Genres, genre.Genre(ba.NextI16()))
	}
	return s
}

// loadedState maps a saved state to the state a song resumes in. Playback
// never resumes on load.
func loadedState(s PlaybackState) PlaybackState {
	switch s {
	case StatePlaying, StatePaused:
		return StatePaused
	default:
		return StateNull
	}
}
