// Package playlist implements the versioned binary playlist file format.
// Each playlist is stored in its own file named after the playlist ID.
package playlist

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/renameio/v2"
)

// FormatVersion is the only file version Load accepts.
const FormatVersion int32 = 3

// ErrVersionSkipped is returned by Load and Decode for files written with
// another format version. Callers ignore such files.
var ErrVersionSkipped = errors.New("playlist format version skipped")

// Smallest possible encoded song: three empty strings and the fixed fields.
const minSongSize = 3*4 + 8 + 4 + 1 + 1 + 1 + 4 + 8 + 4 + 1 + 1

type Playlist struct {
	ID    int64
	Name  string
	Songs []*Song
	// Active is the flag read from disk: the playlist was the visible one
	// when it was saved.
	Active bool
}

// FileName returns the base name of the playlist file.
func FileName(id int64) string {
	return strconv.FormatInt(id, 10)
}

// Encode serializes the playlist. active marks it as the visible one.
func (p *Playlist) Encode(active bool) []byte {
	ba := NewByteArray()
	ba.AddI32(FormatVersion)
	ba.AddI64(p.ID)
	ba.AddString(p.Name)
	if active {
		ba.AddU8(1)
	} else {
		ba.AddU8(0)
	}
	ba.AddI32(int32(len(p.Songs)))
	for _, s := range p.Songs {
		s.encode(ba)
	}
	return ba.Bytes()
}

// Decode parses an encoded playlist.
func Decode(data []byte) (*Playlist, error) {
	ba := ByteArrayFrom(data)

	version := ba.NextI32()
	if err := ba.Err(); err != nil {
		return nil, fmt.Errorf("failed to read format version: %w", err)
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrVersionSkipped, version, FormatVersion)
	}

	p := &Playlist{}
	p.ID = ba.NextI64()
	p.Name = ba.NextString()
	p.Active = ba.NextU8() == 1
	count := ba.NextI32()
	if err := ba.Err(); err != nil {
		return nil, fmt.Errorf("failed to read playlist header: %w", err)
	}
	if count < 0 || int(count) > ba.Remaining()/minSongSize {
		return nil, fmt.Errorf("invalid song count %d for %d remaining bytes", count, ba.Remaining())
	}

	p.Songs = make([]*Song, 0, count)
	for i := int32(0); i < count; i++ {
		s := decodeSong(ba, p.ID)
		if err := ba.Err(); err != nil {
			return nil, fmt.Errorf("failed to read song %d: %w", i, err)
		}
		p.Songs = append(p.Songs, s)
	}
	return p, nil
}

// Save writes the playlist to dir/<id>, replacing the previous file
// atomically.
func (p *Playlist) Save(dir string, active bool) error {
	return WriteFile(dir, p.ID, p.Encode(active))
}

// WriteFile stores an encoded playlist as dir/<id>. The file is replaced
// atomically and the directory entry is synced.
func WriteFile(dir string, id int64, data []byte) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create playlist dir: %w", err)
	}
	if err := renameio.WriteFile(filepath.Join(dir, FileName(id)), data, 0o644); err != nil {
		return fmt.Errorf("failed to write playlist %d: %w", id, err)
	}
	if err := syncDir(dir); err != nil {
		return fmt.Errorf("failed to sync playlist dir: %w", err)
	}
	return nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// Load reads a playlist file. Files with another format version return
// ErrVersionSkipped.
func Load(path string) (*Playlist, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read playlist: %w", err)
	}
	p, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Remove deletes the file of playlist id from dir.
func Remove(dir string, id int64) error {
	err := os.Remove(filepath.Join(dir, FileName(id)))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove playlist %d: %w", id, err)
	}
	return nil
}
