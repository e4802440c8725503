// Package scanner reads the metadata of many songs concurrently.
package scanner

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/iamvkosarev/songmeta/internal/model"
	"github.com/iamvkosarev/songmeta/internal/playlist"
	"github.com/iamvkosarev/songmeta/internal/service/audio"
)

type readFunc func(path string, codec model.Codec, opts audio.Options) (model.Meta, error)

// Report summarizes one scan.
type Report struct {
	ID      uuid.UUID     `json:"id"`
	Total   int           `json:"total"`
	Read    int           `json:"read"`
	Failed  int           `json:"failed"`
	Skipped int           `json:"skipped"`
	Elapsed time.Duration `json:"elapsed"`
}

type Scanner struct {
	log     *slog.Logger
	opts    audio.Options
	workers int
	read    readFunc
}

func New(log *slog.Logger, opts audio.Options, workers int) *Scanner {
	if workers < 1 {
		workers = 1
	}
	return &Scanner{
		log:     log,
		opts:    opts,
		workers: workers,
		read:    audio.ReadFileMeta,
	}
}

// Scan fills in the metadata of every song with a known codec. A file that
// cannot be read is logged and keeps its unset metadata. Each song is
// written only by the task that reads it. The returned error is non-nil only
// when ctx is canceled.
func (s *Scanner) Scan(ctx context.Context, songs []*playlist.Song) (Report, error) {
	rep := Report{ID: uuid.New(), Total: len(songs)}
	start := time.Now()
	log := s.log.With(slog.String("scan", rep.ID.String()))

	var read, failed, skipped atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, song := range songs {
		if song.Meta.Codec == model.CodecUnknown {
			skipped.Add(1)
			continue
		}
		if gctx.Err() != nil {
			break
		}

		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			path := song.Path()
			meta, err := s.read(path, song.Meta.Codec, s.opts)
			if err != nil {
				log.Warn("failed to read metadata", slog.String("path", path), slog.Any("error", err))
				failed.Add(1)
				return nil
			}
			for _, w := range meta.Warnings {
				log.Warn("metadata warning", slog.String("path", path), slog.String("warning", w))
			}
			song.Meta = meta
			read.Add(1)
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	rep.Read = int(read.Load())
	rep.Failed = int(failed.Load())
	rep.Skipped = int(skipped.Load())
	rep.Elapsed = time.Since(start)

	log.Info("scan finished",
		slog.Int("total", rep.Total),
		slog.Int("read", rep.Read),
		slog.Int("failed", rep.Failed),
		slog.Int("skipped", rep.Skipped),
		slog.Duration("elapsed", rep.Elapsed),
	)
	return rep, err
}
