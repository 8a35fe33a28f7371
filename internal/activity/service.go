package activity

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Source lists recorded activities and fetches their GPX tracks.
type Source interface {
	// List returns every recorded activity, most recent first.
	List(ctx context.Context) ([]Activity, error)
	// DownloadGPX fetches the GPX track bytes for one activity.
	DownloadGPX(ctx context.Context, id string) ([]byte, error)
}

// TrackWriter persists GPX tracks to disk.
type TrackWriter interface {
	Exists(a Activity) bool
	// Save writes the track and returns the filename it chose. When the
	// file already exists, the returned error wraps fs.ErrExist.
	Save(a Activity, data []byte) (string, error)
}

// DownloadRecord is one row of the local download history.
type DownloadRecord struct {
	ActivityID string
	Name       string
	Type       string
	Filename   string
	RunID      string
	CreatedAt  time.Time
}

// History records completed downloads so later runs can skip them.
type History interface {
	Seen(ctx context.Context, activityID string) (bool, error)
	Record(ctx context.Context, a Activity, filename, runID string) error
	List(ctx context.Context) ([]DownloadRecord, error)
}

type Service struct {
	source  Source
	history History
	writer  TrackWriter
	logger  *slog.Logger
}

func NewService(source Source, history History, writer TrackWriter, logger *slog.Logger) *Service {
	return &Service{
		source:  source,
		history: history,
		writer:  writer,
		logger:  logger,
	}
}

// FetchOptions control a fetch run.
type FetchOptions struct {
	// NoWrite lists what would be downloaded without fetching any track.
	NoWrite bool
}

// FetchResult summarizes a fetch run.
type FetchResult struct {
	Listed   int
	Selected int
	Written  int
	Skipped  int
	Failed   int
}

// Fetch lists all activities, filters them, and downloads each selected
// activity's GPX track. Listing failures abort the run; per-activity
// download or write failures are logged, counted, and do not stop the
// remaining downloads.
func (s *Service) Fetch(ctx context.Context, spec FilterSpec, comb Combinator, opts FetchOptions) (FetchResult, error) {
	if err := spec.Validate(); err != nil {
		return FetchResult{}, err
	}

	activities, err := s.source.List(ctx)
	if err != nil {
		return FetchResult{}, fmt.Errorf("listing activities: %w", err)
	}
	s.logger.Info("Fetched activity list", slog.Int("count", len(activities)))

	selected, err := Filter(activities, spec, comb)
	if err != nil {
		return FetchResult{}, err
	}

	res := FetchResult{Listed: len(activities), Selected: len(selected)}

	if opts.NoWrite {
		for _, a := range selected {
			s.logger.Info("Would download", slog.String("id", a.ID), slog.String("name", a.Name))
		}
		return res, nil
	}

	runID := uuid.NewString()
	for i, a := range selected {
		s.logger.Info("Downloading activity",
			slog.Int("n", i+1),
			slog.Int("of", len(selected)),
			slog.String("id", a.ID),
			slog.String("name", a.Name))

		switch s.fetchOne(ctx, a, runID) {
		case outcomeWritten:
			res.Written++
		case outcomeSkipped:
			res.Skipped++
		case outcomeFailed:
			res.Failed++
		}
	}

	s.logger.Info("Download run finished",
		slog.String("run_id", runID),
		slog.Int("selected", res.Selected),
		slog.Int("written", res.Written),
		slog.Int("skipped", res.Skipped),
		slog.Int("failed", res.Failed))

	return res, nil
}

type outcome int

const (
	outcomeWritten outcome = iota
	outcomeSkipped
	outcomeFailed
)

func (s *Service) fetchOne(ctx context.Context, a Activity, runID string) outcome {
	seen, err := s.history.Seen(ctx, a.ID)
	if err != nil {
		s.logger.Warn("History lookup failed", slog.String("id", a.ID), slog.Any("error", err))
	}
	if seen || s.writer.Exists(a) {
		s.logger.Debug("Already downloaded, skipping", slog.String("id", a.ID))
		return outcomeSkipped
	}

	data, err := s.source.DownloadGPX(ctx, a.ID)
	if err != nil {
		s.logger.Error("Error downloading track", slog.String("id", a.ID), slog.Any("error", err))
		return outcomeFailed
	}

	filename, err := s.writer.Save(a, data)
	if err != nil {
		// A file can appear between the Exists check and the write.
		if errors.Is(err, fs.ErrExist) {
			s.logger.Debug("File appeared on disk, skipping", slog.String("id", a.ID))
			return outcomeSkipped
		}
		s.logger.Error("Error writing track", slog.String("id", a.ID), slog.Any("error", err))
		return outcomeFailed
	}

	if err := s.history.Record(ctx, a, filename, runID); err != nil {
		s.logger.Warn("Recording download failed", slog.String("id", a.ID), slog.Any("error", err))
	}

	return outcomeWritten
}
