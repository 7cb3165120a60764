package extract

import (
	"encoding/hex"
	"time"

	"github.com/pkg/errors"

	"github.com/webtor-io/torrent-loader/models"
)

// IndexRow is one parent row from the legacy crawl index, paginated by the
// source reader, with its associated file rows already fetched when file
// import is enabled.
type IndexRow struct {
	ID           int64
	InfoHash     []byte
	Name         []byte
	TotalSize    int64
	DiscoveredAt int64
	Files        []IndexFileRow
}

type IndexFileRow struct {
	Size int64
	Path []byte
}

// IndexExtractor maps legacy index rows to canonical records. The info
// hash arrives pre-computed, either as 20 raw bytes or hex text.
type IndexExtractor struct {
	norm        *Normalizer
	importFiles bool
	now         func() time.Time
}

func NewIndexExtractor(norm *Normalizer, importFiles bool) *IndexExtractor {
	return &IndexExtractor{
		norm:        norm,
		importFiles: importFiles,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *IndexExtractor) Extract(row *IndexRow) (*models.TorrentRecord, error) {
	hash, err := decodeInfoHash(row.InfoHash)
	if err != nil {
		return nil, extractionError(rowRef(row), err)
	}

	rec := &models.TorrentRecord{
		InfoHash:  hash,
		Name:      s.norm.Recover(row.Name),
		TotalSize: row.TotalSize,
		CreatedAt: s.discoveryTime(row),
	}

	// With file import disabled no file rows are fetched and every torrent
	// counts as having exactly one implicit file.
	if !s.importFiles || len(row.Files) == 1 {
		rec.FileStatus = models.FileStatusSingle
		return rec, nil
	}

	declared := make([]RawFile, 0, len(row.Files))
	for _, f := range row.Files {
		declared = append(declared, RawFile{Path: f.Path, Size: f.Size})
	}
	rec.Files, rec.FileStatus = s.norm.Normalize(rowRef(row), declared)
	count := len(row.Files)
	rec.FilesCount = &count
	return rec, nil
}

func (s *IndexExtractor) discoveryTime(row *IndexRow) time.Time {
	if row.DiscoveredAt > 0 {
		return time.Unix(row.DiscoveredAt, 0).UTC()
	}
	return s.now()
}

func decodeInfoHash(raw []byte) ([]byte, error) {
	if len(raw) == 20 {
		return append([]byte(nil), raw...), nil
	}
	if len(raw) == 40 {
		hash, err := hex.DecodeString(string(raw))
		if err == nil {
			return hash, nil
		}
	}
	return nil, errors.Errorf("invalid info hash of %d bytes", len(raw))
}

func rowRef(row *IndexRow) string {
	switch {
	case len(row.InfoHash) == 40:
		return string(row.InfoHash)
	case len(row.InfoHash) > 0:
		return hex.EncodeToString(row.InfoHash)
	default:
		return "unknown row"
	}
}
