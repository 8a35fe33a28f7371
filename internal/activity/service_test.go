package activity_test

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"log/slog"
	"testing"
	"time"

	"github.com/briangreenhill/gpxfetch/internal/activity"
)

// mockSource serves a canned activity list and tracks.
type mockSource struct {
	activities []activity.Activity
	listErr    error
	tracks     map[string][]byte
	trackErrs  map[string]error

	listCalls     int
	downloadCalls []string
}

func (m *mockSource) List(_ context.Context) ([]activity.Activity, error) {
	m.listCalls++
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.activities, nil
}

func (m *mockSource) DownloadGPX(_ context.Context, id string) ([]byte, error) {
	m.downloadCalls = append(m.downloadCalls, id)
	if err, ok := m.trackErrs[id]; ok {
		return nil, err
	}
	return m.tracks[id], nil
}

// memHistory is an in-memory activity.History.
type memHistory struct {
	seen    map[string]bool
	records []activity.DownloadRecord
}

func newMemHistory() *memHistory {
	return &memHistory{seen: map[string]bool{}}
}

func (h *memHistory) Seen(_ context.Context, id string) (bool, error) {
	return h.seen[id], nil
}

func (h *memHistory) Record(_ context.Context, a activity.Activity, filename, runID string) error {
	h.seen[a.ID] = true
	h.records = append(h.records, activity.DownloadRecord{
		ActivityID: a.ID,
		Name:       a.Name,
		Type:       a.Type,
		Filename:   filename,
		RunID:      runID,
		CreatedAt:  time.Now(),
	})
	return nil
}

func (h *memHistory) List(_ context.Context) ([]activity.DownloadRecord, error) {
	return h.records, nil
}

// memWriter is an in-memory activity.TrackWriter.
type memWriter struct {
	files   map[string][]byte
	saveErr map[string]error
}

func newMemWriter() *memWriter {
	return &memWriter{files: map[string][]byte{}}
}

func (w *memWriter) Exists(a activity.Activity) bool {
	_, ok := w.files[a.ID]
	return ok
}

func (w *memWriter) Save(a activity.Activity, data []byte) (string, error) {
	if err, ok := w.saveErr[a.ID]; ok {
		return "", err
	}
	w.files[a.ID] = data
	return a.Name + ".gpx", nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServiceFetch(t *testing.T) {
	acts := []activity.Activity{
		{ID: "1", Name: "Morning Run", Type: "running"},
		{ID: "2", Name: "Evening Walk", Type: "walking"},
		{ID: "3", Name: "Lunch Run", Type: "running"},
	}
	track := []byte("<gpx></gpx>")

	tests := []struct {
		name       string
		spec       activity.FilterSpec
		comb       activity.Combinator
		opts       activity.FetchOptions
		setup      func(*mockSource, *memHistory, *memWriter)
		wantErr    error
		want       activity.FetchResult
		wantNoneDL bool
	}{
		{
			name: "downloads everything with an empty spec",
			want: activity.FetchResult{Listed: 3, Selected: 3, Written: 3},
		},
		{
			name: "type filter narrows the selection",
			spec: activity.FilterSpec{Type: "running"},
			want: activity.FetchResult{Listed: 3, Selected: 2, Written: 2},
		},
		{
			name: "download failures do not abort the batch",
			setup: func(s *mockSource, _ *memHistory, _ *memWriter) {
				s.trackErrs = map[string]error{"2": errors.New("boom")}
			},
			want: activity.FetchResult{Listed: 3, Selected: 3, Written: 2, Failed: 1},
		},
		{
			name: "write failures do not abort the batch",
			setup: func(_ *mockSource, _ *memHistory, w *memWriter) {
				w.saveErr = map[string]error{"1": errors.New("disk full")}
			},
			want: activity.FetchResult{Listed: 3, Selected: 3, Written: 2, Failed: 1},
		},
		{
			name: "files appearing between the existence check and the write are skipped",
			setup: func(_ *mockSource, _ *memHistory, w *memWriter) {
				w.saveErr = map[string]error{"2": fs.ErrExist}
			},
			want: activity.FetchResult{Listed: 3, Selected: 3, Written: 2, Skipped: 1},
		},
		{
			name: "previously downloaded activities are skipped",
			setup: func(_ *mockSource, h *memHistory, _ *memWriter) {
				h.seen["1"] = true
			},
			want: activity.FetchResult{Listed: 3, Selected: 3, Written: 2, Skipped: 1},
		},
		{
			name: "files already on disk are skipped",
			setup: func(_ *mockSource, _ *memHistory, w *memWriter) {
				w.files["3"] = track
			},
			want: activity.FetchResult{Listed: 3, Selected: 3, Written: 2, Skipped: 1},
		},
		{
			name:       "dry run fetches no tracks",
			opts:       activity.FetchOptions{NoWrite: true},
			want:       activity.FetchResult{Listed: 3, Selected: 3},
			wantNoneDL: true,
		},
		{
			name:    "an invalid spec aborts before listing",
			spec:    activity.FilterSpec{Radius: km(-5)},
			wantErr: activity.ErrInvalidFilter,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source := &mockSource{
				activities: acts,
				tracks:     map[string][]byte{"1": track, "2": track, "3": track},
			}
			history := newMemHistory()
			writer := newMemWriter()
			if tt.setup != nil {
				tt.setup(source, history, writer)
			}

			service := activity.NewService(source, history, writer, testLogger())
			got, err := service.Fetch(context.Background(), tt.spec, tt.comb, tt.opts)

			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Fetch() error = %v, want %v", err, tt.wantErr)
				}
				if source.listCalls != 0 {
					t.Errorf("List was called %d times before validation failed", source.listCalls)
				}
				return
			}

			if err != nil {
				t.Fatalf("Fetch() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Fetch() = %+v, want %+v", got, tt.want)
			}
			if tt.wantNoneDL && len(source.downloadCalls) != 0 {
				t.Errorf("dry run downloaded %v", source.downloadCalls)
			}
		})
	}
}

func TestServiceFetchListFailureIsFatal(t *testing.T) {
	source := &mockSource{listErr: errors.New("connection refused")}
	service := activity.NewService(source, newMemHistory(), newMemWriter(), testLogger())

	_, err := service.Fetch(context.Background(), activity.FilterSpec{}, activity.And, activity.FetchOptions{})
	if err == nil {
		t.Fatal("expected listing error to propagate")
	}
	if len(source.downloadCalls) != 0 {
		t.Errorf("downloads attempted after listing failed: %v", source.downloadCalls)
	}
}

func TestServiceFetchRecordsHistory(t *testing.T) {
	source := &mockSource{
		activities: []activity.Activity{{ID: "7", Name: "Hill Repeats", Type: "running"}},
		tracks:     map[string][]byte{"7": []byte("<gpx></gpx>")},
	}
	history := newMemHistory()
	service := activity.NewService(source, history, newMemWriter(), testLogger())

	if _, err := service.Fetch(context.Background(), activity.FilterSpec{}, activity.And, activity.FetchOptions{}); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if len(history.records) != 1 {
		t.Fatalf("got %d history records, want 1", len(history.records))
	}
	rec := history.records[0]
	if rec.ActivityID != "7" || rec.Filename != "Hill Repeats.gpx" {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.RunID == "" {
		t.Error("record has no run id")
	}
}
