package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/iamvkosarev/songmeta/internal/app"
	"github.com/iamvkosarev/songmeta/internal/config"
	"github.com/iamvkosarev/songmeta/internal/genre"
	"github.com/iamvkosarev/songmeta/internal/handler"
	"github.com/iamvkosarev/songmeta/internal/library"
	"github.com/iamvkosarev/songmeta/internal/logger"
	"github.com/iamvkosarev/songmeta/internal/playlist"
	"github.com/iamvkosarev/songmeta/internal/scanner"
	"github.com/iamvkosarev/songmeta/internal/server"
)

const usage = `usage: songmeta [-env file] <command> [args]

commands:
  meta <file>...              print the metadata of audio files
  scan <dir>                  read the metadata of every song in dir
  add [-playlist name] <dir>  append the songs in dir to a playlist
  list                        print the saved playlists
  serve                       run the HTTP API

environment:
`

func main() {
	envFile := flag.String("env", ".env", "optional .env file")
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, usage, config.Usage())
	}
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*envFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.App.LogMode, os.Stderr)
	application := app.New(cfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cmd, args := flag.Arg(0), flag.Args()[1:]
	switch cmd {
	case "meta":
		err = runMeta(application, args)
	case "scan":
		err = runScan(ctx, cfg, log, application, args)
	case "add":
		err = runAdd(ctx, log, application, args)
	case "list":
		err = runList(log, application)
	case "serve":
		err = runServe(ctx, cfg, log, application)
	default:
		flag.Usage()
		os.Exit(2)
	}
	if err != nil {
		log.Error("command failed", slog.String("command", cmd), slog.Any("error", err))
		os.Exit(1)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runMeta(a *app.App, args []string) error {
	if len(args) == 0 {
		return errors.New("meta: no files given")
	}

	var errs []error
	for _, path := range args {
		meta, err := a.Audio().ParseFile(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := printJSON(map[string]any{"path": path, "meta": meta}); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}

func runScan(ctx context.Context, cfg *config.Config, log *slog.Logger, a *app.App, args []string) error {
	if len(args) != 1 {
		return errors.New("scan: want exactly one directory")
	}

	files, err := library.ListFiles(args[0], 0, library.IsSongExtension)
	if err != nil {
		return err
	}
	var songs []*playlist.Song
	for _, f := range files {
		if s := playlist.SongFromFile(f, 0); s != nil {
			songs = append(songs, s)
		}
	}

	rep, err := scanner.New(log, a.Audio().Options(), cfg.Library.ScanWorkers).Scan(ctx, songs)
	if err != nil {
		return err
	}
	for _, s := range songs {
		fmt.Printf("%-40s %-7s %10s  %s\n",
			s.DisplayName, s.Meta.Codec, s.Meta.DurationValue().Round(time.Second), genre.Join(s.Meta.Genres))
	}
	return printJSON(rep)
}

func runAdd(ctx context.Context, log *slog.Logger, a *app.App, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	name := fs.String("playlist", "", "playlist name, created when missing; default is the active playlist")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return errors.New("add: want exactly one directory")
	}

	if err := a.LoadPlaylists(); err != nil {
		log.Warn("some playlists were not loaded", slog.Any("error", err))
	}

	id := a.Active()
	if *name != "" {
		id = 0
		for _, p := range a.Playlists() {
			if p.Name == *name {
				id = p.ID
				break
			}
		}
	}
	if id == 0 {
		p, err := a.CreatePlaylist(*name, false)
		if err != nil {
			return err
		}
		id = p.ID
	}

	rep, err := a.AddFiles(ctx, id, fs.Arg(0))
	if err != nil {
		return err
	}
	return printJSON(rep)
}

func runList(log *slog.Logger, a *app.App) error {
	if err := a.LoadPlaylists(); err != nil {
		log.Warn("some playlists were not loaded", slog.Any("error", err))
	}

	for _, p := range a.Playlists() {
		mark := " "
		if p.Active {
			mark = "*"
		}
		var total time.Duration
		for _, s := range p.Songs {
			total += s.Meta.DurationValue()
		}
		fmt.Printf("%s %4d  %-30s %5d songs  %s\n", mark, p.ID, p.Name, len(p.Songs), total.Round(time.Second))
	}
	return nil
}

func runServe(ctx context.Context, cfg *config.Config, log *slog.Logger, a *app.App) error {
	if err := a.LoadPlaylists(); err != nil {
		log.Warn("some playlists were not loaded", slog.Any("error", err))
	}

	h := handler.New(log, a.Audio(), a, cfg.Library.MetaRoots)
	srv := server.New(cfg, log, h)
	return a.Run(ctx, srv)
}
