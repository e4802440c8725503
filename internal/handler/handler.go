package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"go4.org/readerutil"

	"github.com/iamvkosarev/songmeta/internal/model"
	"github.com/iamvkosarev/songmeta/internal/playlist"
)

const maxUploadSize = 100 << 20

type AudioService interface {
	ParseFile(path string) (model.Meta, error)
	ParseReader(r readerutil.SizeReaderAt, name string) (model.Meta, error)
}

type PlaylistStore interface {
	Playlists() []playlist.Playlist
}

var (
	errPathsDisabled = errors.New("path lookups are disabled")
	errOutsideRoots  = errors.New("path is outside the allowed roots")
)

type Handler struct {
	log          *slog.Logger
	audioService AudioService
	playlists    PlaylistStore
	// roots are the resolved directories whose files may be read by path.
	roots []string
}

// New builds the handler. Files named by path are read only when they lie
// under one of roots; with no roots only uploads are accepted.
func New(log *slog.Logger, audioService AudioService, playlists PlaylistStore, roots []string) *Handler {
	h := &Handler{
		log:          log,
		audioService: audioService,
		playlists:    playlists,
	}
	for _, root := range roots {
		resolved, err := resolve(root)
		if err != nil {
			log.Warn("ignoring meta root", slog.String("root", root), slog.Any("error", err))
			continue
		}
		h.roots = append(h.roots, resolved)
	}
	return h
}

func resolve(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}

// allowed resolves path and checks it against the roots.
func (h *Handler) allowed(path string) (string, error) {
	if len(h.roots) == 0 {
		return "", errPathsDisabled
	}
	resolved, err := resolve(path)
	if err != nil {
		return "", err
	}
	for _, root := range h.roots {
		rel, err := filepath.Rel(root, resolved)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return resolved, nil
		}
	}
	return "", errOutsideRoots
}

type songView struct {
	Name     string     `json:"name"`
	Path     string     `json:"path"`
	State    string     `json:"state"`
	Position int64      `json:"positionNs"`
	Meta     model.Meta `json:"meta"`
}

type playlistView struct {
	ID     int64      `json:"id"`
	Name   string     `json:"name"`
	Active bool       `json:"active"`
	Songs  []songView `json:"songs"`
}

type fileMeta struct {
	Name  string      `json:"name"`
	Meta  *model.Meta `json:"meta,omitempty"`
	Error string      `json:"error,omitempty"`
}

// Playlists lists every playlist with its songs.
func (h *Handler) Playlists() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lists := h.playlists.Playlists()
		views := make([]playlistView, 0, len(lists))
		for _, p := range lists {
			v := playlistView{ID: p.ID, Name: p.Name, Active: p.Active, Songs: make([]songView, 0, len(p.Songs))}
			for _, s := range p.Songs {
				v.Songs = append(v.Songs, songView{
					Name:     s.DisplayName,
					Path:     s.Path(),
					State:    s.State.String(),
					Position: s.Position,
					Meta:     s.Meta,
				})
			}
			views = append(views, v)
		}
		h.writeJSON(w, http.StatusOK, map[string]any{"playlists": views})
	}
}

// Meta reads the metadata of uploaded files (multipart field "files") and of
// local files named by the "path" form values. Paths outside the configured
// roots are rejected per file.
func (h *Handler) Meta() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			http.Error(w, "Failed to parse multipart form", http.StatusBadRequest)
			return
		}
		defer r.MultipartForm.RemoveAll()

		uploads := r.MultipartForm.File["files"]
		paths := r.MultipartForm.Value["path"]
		if len(uploads) == 0 && len(paths) == 0 {
			http.Error(w, "No files provided", http.StatusBadRequest)
			return
		}

		results := make([]fileMeta, 0, len(uploads)+len(paths))
		for _, fileHeader := range uploads {
			res := fileMeta{Name: fileHeader.Filename}
			file, err := fileHeader.Open()
			if err != nil {
				res.Error = err.Error()
				results = append(results, res)
				continue
			}

			meta, err := h.audioService.ParseReader(io.NewSectionReader(file, 0, fileHeader.Size), fileHeader.Filename)
			file.Close()
			results = append(results, h.result(res, meta, err))
		}
		for _, path := range paths {
			res := fileMeta{Name: path}
			resolved, err := h.allowed(path)
			if err != nil {
				h.log.Warn("rejected meta path", slog.String("path", path), slog.Any("error", err))
				res.Error = err.Error()
				results = append(results, res)
				continue
			}
			meta, err := h.audioService.ParseFile(resolved)
			results = append(results, h.result(res, meta, err))
		}

		h.writeJSON(w, http.StatusOK, map[string]any{"files": results})
	}
}

func (h *Handler) result(res fileMeta, meta model.Meta, err error) fileMeta {
	if err != nil {
		h.log.Debug("failed to read metadata", slog.String("name", res.Name), slog.Any("error", err))
		res.Error = err.Error()
		return res
	}
	res.Meta = &meta
	return res
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("failed to write response", slog.Any("error", err))
	}
}
