package audio

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"go4.org/readerutil"

	"github.com/iamvkosarev/songmeta/internal/model"
)

// ReadFileMeta reads the audio properties and tags of the file at path using
// the reader for codec. Unknown codecs fail before the file is opened.
func ReadFileMeta(path string, codec model.Codec, opts Options) (model.Meta, error) {
	read, ok := readers[codec]
	if !ok {
		return model.NewMeta(codec), fmt.Errorf("%s: %w: %s", path, ErrUnsupportedCodec, codec)
	}

	f, err := os.Open(path)
	if err != nil {
		return model.NewMeta(codec), &IOError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return model.NewMeta(codec), &IOError{Path: path, Op: "stat", Err: err}
	}
	return read(io.NewSectionReader(f, 0, stat.Size()), path, opts)
}

// ReadMeta reads from an in-memory or already opened source. path is only
// used in errors and warnings.
func ReadMeta(r readerutil.SizeReaderAt, path string, codec model.Codec, opts Options) (model.Meta, error) {
	read, ok := readers[codec]
	if !ok {
		return model.NewMeta(codec), fmt.Errorf("%s: %w: %s", path, ErrUnsupportedCodec, codec)
	}
	return read(r, path, opts)
}

type AudioService struct {
	log  *slog.Logger
	opts Options
}

func NewAudioService(log *slog.Logger, opts Options) *AudioService {
	return &AudioService{log: log, opts: opts}
}

// Options returns the reader options the service was built with.
func (s *AudioService) Options() Options {
	return s.opts
}

// ParseFile reads a single file for display. The codec comes from the
// extension, or from the content when the extension is not a known one.
func (s *AudioService) ParseFile(path string) (model.Meta, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.Meta{}, &IOError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return model.Meta{}, &IOError{Path: path, Op: "stat", Err: err}
	}
	return s.parse(io.NewSectionReader(f, 0, stat.Size()), path)
}

// ParseReader is ParseFile for content that is not on disk, such as an
// upload. name supplies the extension.
func (s *AudioService) ParseReader(r readerutil.SizeReaderAt, name string) (model.Meta, error) {
	return s.parse(r, name)
}

func (s *AudioService) parse(r readerutil.SizeReaderAt, path string) (model.Meta, error) {
	codec := model.CodecFromExtension(filepath.Ext(path))
	if codec == model.CodecUnknown {
		codec = sniffCodec(io.NewSectionReader(r, 0, r.Size()))
		s.log.Debug("codec sniffed from content", slog.String("path", path), slog.String("codec", codec.String()))
	}

	meta, err := ReadMeta(r, path, codec, s.opts)
	if err != nil {
		return meta, err
	}

	if s.opts.TagFallback && (meta.Title == "" || meta.Artist == "" || meta.Album == "") {
		if err := fillFromTags(io.NewSectionReader(r, 0, r.Size()), &meta); err != nil {
			s.log.Debug("tag fallback failed", slog.String("path", path), slog.Any("error", err))
		}
	}
	for _, w := range meta.Warnings {
		s.log.Warn("metadata warning", slog.String("path", path), slog.String("warning", w))
	}
	return meta, nil
}
