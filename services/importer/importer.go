// Package importer loads canonical torrent records into the destination
// in windows, keeping every write idempotent and parents ahead of their
// child rows.
package importer

import (
	"context"
	"encoding/hex"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/webtor-io/torrent-loader/models"
)

type Importer struct {
	store     Store
	settings  *Settings
	sourceKey string
	now       func() time.Time
}

func New(store Store, settings *Settings, sourceKey string) *Importer {
	return &Importer{
		store:     store,
		settings:  settings,
		sourceKey: sourceKey,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

type WindowStats struct {
	Records  int
	Inserted int
	Skipped  int
	Files    int
	Sources  int
	Contents int
}

// ImportWindow loads one window of records. Insert order is fixed:
// parents, then files, then attributions, then content placeholders, so a
// child row can never outlive a failed parent insert. Every step tolerates
// conflicts, which makes a retried window a no-op for already-completed
// steps.
func (s *Importer) ImportWindow(ctx context.Context, recs []*models.TorrentRecord) (*WindowStats, error) {
	stats := &WindowStats{Records: len(recs)}

	recs = s.applySizePolicy(recs, stats)
	if len(recs) == 0 {
		return stats, nil
	}

	torrents := make([]*models.Torrent, 0, len(recs))
	for _, r := range recs {
		torrents = append(torrents, r.Torrent())
	}
	insertedHashes, err := s.store.InsertTorrents(ctx, torrents)
	if err != nil {
		return nil, err
	}
	stats.Inserted = len(insertedHashes)

	// Pre-existing torrents already have their children from a prior
	// load; only freshly inserted parents get child rows.
	byHash := make(map[string]*models.TorrentRecord, len(recs))
	for _, r := range recs {
		byHash[r.HexHash()] = r
	}
	newly := make([]*models.TorrentRecord, 0, len(insertedHashes))
	for _, h := range insertedHashes {
		if r, ok := byHash[hex.EncodeToString(h)]; ok {
			newly = append(newly, r)
		}
	}

	if s.settings.ImportFiles {
		files := s.collectFiles(newly)
		if err := s.store.InsertFiles(ctx, files); err != nil {
			return nil, err
		}
		stats.Files = len(files)
	}

	sources := make([]*models.TorrentsTorrentSource, 0, len(newly))
	for _, r := range newly {
		sources = append(sources, &models.TorrentsTorrentSource{
			Source:      s.sourceKey,
			InfoHash:    r.InfoHash,
			PublishedAt: r.CreatedAt,
			CreatedAt:   r.CreatedAt,
			UpdatedAt:   r.CreatedAt,
		})
	}
	if err := s.store.InsertSources(ctx, sources); err != nil {
		return nil, err
	}
	stats.Sources = len(sources)

	if s.settings.InsertContent {
		contents := make([]*models.TorrentContent, 0, len(newly))
		for _, r := range newly {
			contents = append(contents, models.NewTorrentContent(r.InfoHash, r.CreatedAt))
		}
		if err := s.store.InsertContents(ctx, contents); err != nil {
			return nil, err
		}
		stats.Contents = len(contents)
	}
	return stats, nil
}

func (s *Importer) applySizePolicy(recs []*models.TorrentRecord, stats *WindowStats) []*models.TorrentRecord {
	out := recs[:0]
	for _, r := range recs {
		if r.TotalSize >= 0 {
			out = append(out, r)
			continue
		}
		switch s.settings.NegativeSize {
		case NegativeSizeZero:
			log.Infof("%s declares size %d, clamping to 0", r.HexHash(), r.TotalSize)
			out = append(out, r.WithSize(0))
		case NegativeSizeForce:
			log.Infof("%s declares size %d, importing unmodified", r.HexHash(), r.TotalSize)
			out = append(out, r)
		default:
			log.Warnf("%s declares size %d, not importing", r.HexHash(), r.TotalSize)
			stats.Skipped++
		}
	}
	return out
}

func (s *Importer) collectFiles(newly []*models.TorrentRecord) []*models.TorrentFile {
	now := s.now()
	var files []*models.TorrentFile
	for _, r := range newly {
		if r.FileStatus == models.FileStatusSingle || len(r.Files) == 0 {
			continue
		}
		if !s.settings.ImportEmptyFiles && allPathsEmpty(r.Files) {
			log.Warnf("%s: every file path decoded to an empty string, skipping file rows", r.HexHash())
			continue
		}
		files = append(files, r.TorrentFiles(now)...)
	}
	return files
}

func allPathsEmpty(entries []models.FileEntry) bool {
	for _, e := range entries {
		if e.Path != "" {
			return false
		}
	}
	return true
}
