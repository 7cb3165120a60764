package importer

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/webtor-io/torrent-loader/models"
)

// fakeStore records inserts and simulates the destination's conflict
// handling by info hash.
type fakeStore struct {
	existing map[string]struct{}

	insertTorrentsErr error
	insertFilesErr    error

	torrents []*models.Torrent
	files    []*models.TorrentFile
	sources  []*models.TorrentsTorrentSource
	contents []*models.TorrentContent

	calls []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{existing: map[string]struct{}{}}
}

func (s *fakeStore) InsertTorrents(_ context.Context, torrents []*models.Torrent) ([][]byte, error) {
	s.calls = append(s.calls, "torrents")
	if s.insertTorrentsErr != nil {
		return nil, s.insertTorrentsErr
	}
	var inserted [][]byte
	for _, t := range torrents {
		key := string(t.InfoHash)
		if _, ok := s.existing[key]; ok {
			continue
		}
		s.existing[key] = struct{}{}
		s.torrents = append(s.torrents, t)
		inserted = append(inserted, t.InfoHash)
	}
	return inserted, nil
}

func (s *fakeStore) InsertFiles(_ context.Context, files []*models.TorrentFile) error {
	s.calls = append(s.calls, "files")
	if s.insertFilesErr != nil {
		return s.insertFilesErr
	}
	s.files = append(s.files, files...)
	return nil
}

func (s *fakeStore) InsertSources(_ context.Context, sources []*models.TorrentsTorrentSource) error {
	s.calls = append(s.calls, "sources")
	s.sources = append(s.sources, sources...)
	return nil
}

func (s *fakeStore) InsertContents(_ context.Context, contents []*models.TorrentContent) error {
	s.calls = append(s.calls, "contents")
	s.contents = append(s.contents, contents...)
	return nil
}

func testSettings() *Settings {
	return &Settings{
		SourceName:    "Test Source",
		WindowSize:    1000,
		ImportFiles:   true,
		MaxFiles:      100,
		InsertContent: true,
	}
}

func record(fill byte, size int64) *models.TorrentRecord {
	count := 2
	return &models.TorrentRecord{
		InfoHash:   bytes.Repeat([]byte{fill}, 20),
		Name:       "Record",
		TotalSize:  size,
		CreatedAt:  time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		FileStatus: models.FileStatusMulti,
		FilesCount: &count,
		Files: []models.FileEntry{
			{Index: 0, Path: "a", Size: size / 2},
			{Index: 1, Path: "b", Size: size / 2},
		},
	}
}

func singleRecord(fill byte, size int64) *models.TorrentRecord {
	return &models.TorrentRecord{
		InfoHash:   bytes.Repeat([]byte{fill}, 20),
		Name:       "Sample",
		TotalSize:  size,
		CreatedAt:  time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC),
		FileStatus: models.FileStatusSingle,
	}
}

func TestImportWindow_OrderingAndCounts(t *testing.T) {
	store := newFakeStore()
	im := New(store, testSettings(), "test source")

	stats, err := im.ImportWindow(context.Background(), []*models.TorrentRecord{record(0x01, 100)})
	if err != nil {
		t.Fatalf("ImportWindow() error = %v", err)
	}
	want := []string{"torrents", "files", "sources", "contents"}
	if len(store.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", store.calls, want)
	}
	for i, c := range store.calls {
		if c != want[i] {
			t.Fatalf("calls = %v, want %v", store.calls, want)
		}
	}
	if stats.Inserted != 1 || stats.Files != 2 || stats.Sources != 1 || stats.Contents != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}
}

func TestImportWindow_SecondRunIsNoOp(t *testing.T) {
	store := newFakeStore()
	im := New(store, testSettings(), "test source")
	recs := []*models.TorrentRecord{record(0x01, 100), record(0x02, 200)}

	if _, err := im.ImportWindow(context.Background(), recs); err != nil {
		t.Fatal(err)
	}
	stats, err := im.ImportWindow(context.Background(), recs)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Inserted != 0 {
		t.Errorf("second run inserted %d torrents, want 0", stats.Inserted)
	}
	if len(store.torrents) != 2 || len(store.files) != 4 || len(store.sources) != 2 || len(store.contents) != 2 {
		t.Errorf("second run changed destination state: %d torrents, %d files, %d sources, %d contents",
			len(store.torrents), len(store.files), len(store.sources), len(store.contents))
	}
}

func TestImportWindow_NoChildrenForConflictingParents(t *testing.T) {
	store := newFakeStore()
	store.existing[string(bytes.Repeat([]byte{0x01}, 20))] = struct{}{}
	im := New(store, testSettings(), "test source")

	_, err := im.ImportWindow(context.Background(), []*models.TorrentRecord{
		record(0x01, 100),
		record(0x02, 200),
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(store.sources) != 1 {
		t.Fatalf("got %d attribution rows, want 1", len(store.sources))
	}
	if !bytes.Equal(store.sources[0].InfoHash, bytes.Repeat([]byte{0x02}, 20)) {
		t.Errorf("attribution written for a pre-existing torrent")
	}
	for _, f := range store.files {
		if bytes.Equal(f.InfoHash, bytes.Repeat([]byte{0x01}, 20)) {
			t.Errorf("file row written for a pre-existing torrent")
		}
	}
}

func TestImportWindow_ParentFailureLeavesNoOrphans(t *testing.T) {
	store := newFakeStore()
	store.insertTorrentsErr = errors.New("constraint violation")
	im := New(store, testSettings(), "test source")

	_, err := im.ImportWindow(context.Background(), []*models.TorrentRecord{record(0x01, 100)})
	if err == nil {
		t.Fatal("ImportWindow() expected error")
	}
	if len(store.files) != 0 || len(store.sources) != 0 || len(store.contents) != 0 {
		t.Errorf("child rows written after parent failure: %d files, %d sources, %d contents",
			len(store.files), len(store.sources), len(store.contents))
	}
}

func TestImportWindow_NegativeSizePolicies(t *testing.T) {
	cases := []struct {
		name         string
		policy       NegativeSizePolicy
		wantTorrents int
		wantSize     int64
	}{
		{"reject", NegativeSizeReject, 0, 0},
		{"clamp to zero", NegativeSizeZero, 1, 0},
		{"force", NegativeSizeForce, 1, -5},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			store := newFakeStore()
			settings := testSettings()
			settings.NegativeSize = c.policy
			im := New(store, settings, "test source")

			stats, err := im.ImportWindow(context.Background(), []*models.TorrentRecord{record(0x01, -5)})
			if err != nil {
				t.Fatal(err)
			}
			if len(store.torrents) != c.wantTorrents {
				t.Fatalf("got %d torrents, want %d", len(store.torrents), c.wantTorrents)
			}
			if c.wantTorrents == 0 {
				if stats.Skipped != 1 {
					t.Errorf("skipped = %d, want 1", stats.Skipped)
				}
				return
			}
			if store.torrents[0].Size != c.wantSize {
				t.Errorf("size = %d, want %d", store.torrents[0].Size, c.wantSize)
			}
		})
	}
}

func TestImportWindow_SingleFileEndToEnd(t *testing.T) {
	store := newFakeStore()
	settings := testSettings()
	settings.InsertContent = false
	im := New(store, settings, "test source")

	stats, err := im.ImportWindow(context.Background(), []*models.TorrentRecord{singleRecord(0x01, 1024)})
	if err != nil {
		t.Fatal(err)
	}
	if stats.Inserted != 1 {
		t.Fatalf("inserted = %d, want 1", stats.Inserted)
	}
	got := store.torrents[0]
	if got.Name != "Sample" || got.Size != 1024 || got.FilesStatus != "single" || got.FilesCount != nil {
		t.Errorf("unexpected torrent row %+v", got)
	}
	if len(store.files) != 0 {
		t.Errorf("got %d file rows, want 0 for a single-file torrent", len(store.files))
	}
	if len(store.sources) != 1 || store.sources[0].Source != "test source" {
		t.Errorf("unexpected attribution rows %+v", store.sources)
	}
	if len(store.contents) != 0 {
		t.Errorf("got %d content rows with insertion disabled", len(store.contents))
	}
}

func TestImportWindow_AllEmptyPathsSkipsFileRows(t *testing.T) {
	rec := record(0x01, 100)
	rec.Files = []models.FileEntry{
		{Index: 0, Path: "", Size: 50},
		{Index: 1, Path: "", Size: 50},
	}

	store := newFakeStore()
	im := New(store, testSettings(), "test source")
	if _, err := im.ImportWindow(context.Background(), []*models.TorrentRecord{rec}); err != nil {
		t.Fatal(err)
	}
	if len(store.files) != 0 {
		t.Errorf("got %d file rows, want 0", len(store.files))
	}
	if len(store.torrents) != 1 {
		t.Errorf("parent row should be kept, got %d", len(store.torrents))
	}

	// Force-import keeps the rows instead.
	store = newFakeStore()
	settings := testSettings()
	settings.ImportEmptyFiles = true
	im = New(store, settings, "test source")
	if _, err := im.ImportWindow(context.Background(), []*models.TorrentRecord{record(0x02, 100), rec}); err != nil {
		t.Fatal(err)
	}
	if len(store.files) != 4 {
		t.Errorf("got %d file rows, want 4", len(store.files))
	}
}

func TestImportWindow_FilesDisabled(t *testing.T) {
	store := newFakeStore()
	settings := testSettings()
	settings.ImportFiles = false
	im := New(store, settings, "test source")

	if _, err := im.ImportWindow(context.Background(), []*models.TorrentRecord{record(0x01, 100)}); err != nil {
		t.Fatal(err)
	}
	for _, c := range store.calls {
		if c == "files" {
			t.Errorf("file step ran with file import disabled")
		}
	}
}
