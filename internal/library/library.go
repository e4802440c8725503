// Package library lists directory contents for adding songs to playlists.
package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Kind is the type of a directory entry.
type Kind uint8

const (
	KindRegular Kind = iota
	KindDir
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindRegular:
		return "file"
	case KindDir:
		return "dir"
	default:
		return "other"
	}
}

// File is one entry of a listed directory.
type File struct {
	Name    string
	DirPath string
	Size    int64
	Type    Kind
}

// Path returns the full path of the entry.
func (f File) Path() string {
	return filepath.Join(f.DirPath, f.Name)
}

// Ext returns the lower-cased extension without the dot.
func (f File) Ext() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Name), "."))
}

// Options select which entries ListFiles returns.
type Options uint8

const (
	ListHidden Options = 1 << iota
	ListDirs
)

// Filter decides whether the entry name in dir is listed.
type Filter func(dir, name string) bool

var songExtensions = map[string]struct{}{
	"mp3":  {},
	"opus": {},
	"flac": {},
	"mka":  {},
	"m4a":  {},
	"webm": {},
}

// IsSongExtension is a Filter accepting audio files the player can queue.
func IsSongExtension(_, name string) bool {
	_, ok := songExtensions[strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))]
	return ok
}

// ListFiles returns the entries of dir sorted by name. Directories are
// listed only with ListDirs and are not passed to filter. A nil filter
// accepts everything.
func ListFiles(dir string, opts Options, filter Filter) ([]File, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var files []File
	for _, e := range entries {
		name := e.Name()
		if opts&ListHidden == 0 && strings.HasPrefix(name, ".") {
			continue
		}

		f := File{Name: name, DirPath: dir}
		switch {
		case e.IsDir():
			if opts&ListDirs == 0 {
				continue
			}
			f.Type = KindDir
			files = append(files, f)
			continue
		case e.Type().IsRegular():
			f.Type = KindRegular
		default:
			f.Type = KindOther
		}

		if filter != nil && !filter(dir, name) {
			continue
		}
		if info, err := e.Info(); err == nil {
			f.Size = info.Size()
		}
		files = append(files, f)
	}
	return files, nil
}
