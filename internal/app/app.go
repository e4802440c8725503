package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strconv"
	"sync"
	"syscall"

	"github.com/iamvkosarev/songmeta/internal/config"
	"github.com/iamvkosarev/songmeta/internal/library"
	"github.com/iamvkosarev/songmeta/internal/playlist"
	"github.com/iamvkosarev/songmeta/internal/scanner"
	"github.com/iamvkosarev/songmeta/internal/service/audio"
)

var (
	ErrPlaylistNotFound     = errors.New("playlist not found")
	ErrDuplicateName        = errors.New("playlist name already taken")
	ErrActivationInProgress = errors.New("playlist activation in progress")
)

// App owns the playlist collection and the services that fill it.
type App struct {
	config  *config.Config
	log     *slog.Logger
	audio   *audio.AudioService
	scanner *scanner.Scanner

	mu        sync.RWMutex
	playlists []*playlist.Playlist
	active    *playlist.Playlist
	// activating is set while SetActive persists a switch. A second switch
	// started in that window fails with ErrActivationInProgress.
	activating bool
}

func New(cfg *config.Config, log *slog.Logger) *App {
	opts := audio.Options{
		DecodeID3Text: cfg.Library.ID3TextFrames,
		TagFallback:   cfg.Library.TagFallback,
	}
	return &App{
		config:  cfg,
		log:     log,
		audio:   audio.NewAudioService(log, opts),
		scanner: scanner.New(log, opts, cfg.Library.ScanWorkers),
	}
}

func (a *App) Audio() *audio.AudioService {
	return a.audio
}

func (a *App) dir() string {
	return a.config.Library.PlaylistDir
}

// LoadPlaylists replaces the collection with every playlist file found in
// the playlist dir. Files written with another format version are skipped.
// Unreadable files are logged and reported in the joined error; the
// playlists that did load are kept.
func (a *App) LoadPlaylists() error {
	entries, err := os.ReadDir(a.dir())
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to list playlist dir: %w", err)
	}

	var (
		loaded []*playlist.Playlist
		active *playlist.Playlist
		errs   []error
	)
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if _, err := strconv.ParseInt(e.Name(), 10, 64); err != nil {
			continue
		}

		path := filepath.Join(a.dir(), e.Name())
		p, err := playlist.Load(path)
		if errors.Is(err, playlist.ErrVersionSkipped) {
			a.log.Debug("skipping playlist", slog.String("path", path), slog.Any("error", err))
			continue
		}
		if err != nil {
			a.log.Warn("failed to load playlist", slog.String("path", path), slog.Any("error", err))
			errs = append(errs, err)
			continue
		}
		if slices.ContainsFunc(loaded, func(o *playlist.Playlist) bool { return o.ID == p.ID }) {
			a.log.Warn("duplicate playlist id", slog.String("path", path), slog.Int64("id", p.ID))
			continue
		}

		loaded = append(loaded, p)
		if p.Active && active == nil {
			active = p
		}
	}

	slices.SortFunc(loaded, func(x, y *playlist.Playlist) int {
		switch {
		case x.ID < y.ID:
			return -1
		case x.ID > y.ID:
			return 1
		}
		return 0
	})
	if active == nil && len(loaded) == 1 {
		active = loaded[0]
	}

	a.mu.Lock()
	a.playlists = loaded
	a.active = active
	a.mu.Unlock()

	a.log.Info("playlists loaded", slog.Int("count", len(loaded)), slog.Int("failed", len(errs)))
	return errors.Join(errs...)
}

type encoded struct {
	id   int64
	data []byte
}

func (a *App) encodeLocked(p *playlist.Playlist) encoded {
	return encoded{id: p.ID, data: p.Encode(p == a.active)}
}

func (a *App) write(e encoded) error {
	return playlist.WriteFile(a.dir(), e.id, e.data)
}

// SavePlaylists writes every playlist. A failure does not stop the others.
func (a *App) SavePlaylists() error {
	a.mu.RLock()
	batch := make([]encoded, 0, len(a.playlists))
	for _, p := range a.playlists {
		batch = append(batch, a.encodeLocked(p))
	}
	a.mu.RUnlock()

	var errs []error
	for _, e := range batch {
		if err := a.write(e); err != nil {
			a.log.Error("failed to save playlist", slog.Int64("id", e.id), slog.Any("error", err))
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// GenNewPlaylistID returns one more than the largest ID in use.
func (a *App) GenNewPlaylistID() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.genNewPlaylistIDLocked()
}

func (a *App) genNewPlaylistIDLocked() int64 {
	var id int64
	for _, p := range a.playlists {
		id = max(id, p.ID)
	}
	return id + 1
}

func (a *App) findLocked(id int64) (int, *playlist.Playlist) {
	for i, p := range a.playlists {
		if p.ID == id {
			return i, p
		}
	}
	return -1, nil
}

func (a *App) nameTakenLocked(name string, except int64) bool {
	for _, p := range a.playlists {
		if p.ID != except && p.Name == name {
			return true
		}
	}
	return false
}

// CreatePlaylist adds an empty playlist and saves it. An empty name becomes
// "Playlist <id>". The new playlist becomes active when setActive is true or
// no playlist is active yet.
func (a *App) CreatePlaylist(name string, setActive bool) (*playlist.Playlist, error) {
	a.mu.Lock()
	id := a.genNewPlaylistIDLocked()
	if name == "" {
		name = fmt.Sprintf("Playlist %d", id)
	}
	if a.nameTakenLocked(name, 0) {
		a.mu.Unlock()
		return nil, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}

	p := &playlist.Playlist{ID: id, Name: name}
	a.playlists = append(a.playlists, p)
	if setActive || a.active == nil {
		a.active = p
	}
	e := a.encodeLocked(p)
	a.mu.Unlock()

	if err := a.write(e); err != nil {
		return p, fmt.Errorf("failed to save new playlist: %w", err)
	}
	a.log.Info("playlist created", slog.Int64("id", id), slog.String("name", name))
	return p, nil
}

// DeletePlaylist removes the playlist and its file. When it was active the
// first remaining playlist takes its place.
func (a *App) DeletePlaylist(id int64) error {
	a.mu.Lock()
	i, p := a.findLocked(id)
	if p == nil {
		a.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrPlaylistNotFound, id)
	}
	a.playlists = slices.Delete(a.playlists, i, i+1)

	var next *encoded
	if a.active == p {
		a.active = nil
		if len(a.playlists) > 0 {
			a.active = a.playlists[0]
			e := a.encodeLocked(a.active)
			next = &e
		}
	}
	a.mu.Unlock()

	if err := playlist.Remove(a.dir(), id); err != nil {
		return err
	}
	if next != nil {
		if err := a.write(*next); err != nil {
			return err
		}
	}
	a.log.Info("playlist deleted", slog.Int64("id", id))
	return nil
}

func (a *App) RenamePlaylist(id int64, name string) error {
	a.mu.Lock()
	_, p := a.findLocked(id)
	if p == nil {
		a.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrPlaylistNotFound, id)
	}
	if a.nameTakenLocked(name, id) {
		a.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	p.Name = name
	e := a.encodeLocked(p)
	a.mu.Unlock()

	return a.write(e)
}

// AddFiles lists the songs in dir, reads their metadata and appends them to
// the playlist, which is then saved. Nothing is appended when ctx is
// canceled during the scan.
func (a *App) AddFiles(ctx context.Context, id int64, dir string) (scanner.Report, error) {
	files, err := library.ListFiles(dir, 0, library.IsSongExtension)
	if err != nil {
		return scanner.Report{}, err
	}

	songs := make([]*playlist.Song, 0, len(files))
	for _, f := range files {
		if s := playlist.SongFromFile(f, id); s != nil {
			songs = append(songs, s)
		}
	}

	rep, err := a.scanner.Scan(ctx, songs)
	if err != nil {
		return rep, fmt.Errorf("failed to scan %s: %w", dir, err)
	}

	a.mu.Lock()
	_, p := a.findLocked(id)
	if p == nil {
		a.mu.Unlock()
		return rep, fmt.Errorf("%w: %d", ErrPlaylistNotFound, id)
	}
	p.Songs = append(p.Songs, songs...)
	e := a.encodeLocked(p)
	a.mu.Unlock()

	if err := a.write(e); err != nil {
		return rep, err
	}
	return rep, nil
}

// SetActive makes playlist id the visible one and saves the old and the new
// active playlist so the flag survives a restart.
func (a *App) SetActive(id int64) error {
	a.mu.Lock()
	if a.activating {
		a.mu.Unlock()
		return ErrActivationInProgress
	}
	_, p := a.findLocked(id)
	if p == nil {
		a.mu.Unlock()
		return fmt.Errorf("%w: %d", ErrPlaylistNotFound, id)
	}
	if p == a.active {
		a.mu.Unlock()
		return nil
	}

	prev := a.active
	a.active = p
	a.activating = true
	batch := []encoded{a.encodeLocked(p)}
	if prev != nil {
		batch = append(batch, a.encodeLocked(prev))
	}
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.activating = false
		a.mu.Unlock()
	}()

	var errs []error
	for _, e := range batch {
		if err := a.write(e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Active returns the ID of the active playlist, or 0 when there is none.
func (a *App) Active() int64 {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.active == nil {
		return 0
	}
	return a.active.ID
}

// Playlists returns a snapshot of the collection. The returned playlists are
// copies whose Active field reflects the current state.
func (a *App) Playlists() []playlist.Playlist {
	a.mu.RLock()
	defer a.mu.RUnlock()

	out := make([]playlist.Playlist, 0, len(a.playlists))
	for _, p := range a.playlists {
		c := *p
		c.Songs = slices.Clone(p.Songs)
		c.Active = p == a.active
		out = append(out, c)
	}
	return out
}

// Run serves the HTTP API until SIGINT/SIGTERM or ctx is done, then shuts the
// server down and saves the playlists.
func (a *App) Run(ctx context.Context, srv Server) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	a.log.Info("server started", slog.String("address", a.config.Server.Address()))

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var runErr error
	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil {
			runErr = fmt.Errorf("failed to start server: %w", err)
		}
	}

	a.log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.config.App.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		runErr = errors.Join(runErr, fmt.Errorf("server forced to shutdown: %w", err))
	}
	if err := a.SavePlaylists(); err != nil {
		runErr = errors.Join(runErr, err)
	}

	a.log.Info("server exited")
	return runErr
}

// Server is the part of *server.Server that Run drives.
type Server interface {
	Start() error
	Shutdown(ctx context.Context) error
}
