// Package gpxfile writes downloaded GPX tracks to a local directory.
package gpxfile

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/tkrajina/gpxgo/gpx"

	"github.com/briangreenhill/gpxfetch/internal/activity"
)

type Writer struct {
	dir    string
	logger *slog.Logger
}

func NewWriter(dir string, logger *slog.Logger) *Writer {
	return &Writer{
		dir:    dir,
		logger: logger,
	}
}

// Filename builds the on-disk name for an activity: the activity name with
// spaces replaced by underscores, plus the local start time.
func Filename(a activity.Activity) string {
	name := strings.ReplaceAll(a.Name, " ", "_")
	return name + "_" + a.BeginTime.Format("2006_01_02_15_04") + ".gpx"
}

// Exists reports whether the activity's file is already on disk.
func (w *Writer) Exists(a activity.Activity) bool {
	_, err := os.Stat(filepath.Join(w.dir, Filename(a)))
	return err == nil
}

// Save validates data as GPX and writes it under the writer's directory.
// A file that already exists is left alone and reported with an error
// wrapping fs.ErrExist. Returns the filename used.
func (w *Writer) Save(a activity.Activity, data []byte) (string, error) {
	if _, err := gpx.ParseBytes(data); err != nil {
		return "", fmt.Errorf("invalid gpx for activity %s: %w", a.ID, err)
	}

	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return "", fmt.Errorf("creating output directory %s: %w", w.dir, err)
	}

	name := Filename(a)
	path := filepath.Join(w.dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			w.logger.Debug("File already exists, leaving it alone", slog.String("file", path))
		}
		return "", fmt.Errorf("creating %s: %w", path, err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}

	w.logger.Debug("Wrote gpx file", slog.String("file", path))
	return name, nil
}
