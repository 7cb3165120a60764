package models

import (
	"encoding/hex"
	"time"
)

type FileStatus string

const (
	FileStatusSingle        FileStatus = "single"
	FileStatusMulti         FileStatus = "multi"
	FileStatusOverThreshold FileStatus = "over_threshold"
)

// FileEntry is a single file slated for import. Index is assigned after
// filtering, so surviving entries always occupy a contiguous 0..n-1 range.
type FileEntry struct {
	Index int
	Path  string
	Size  int64
}

// TorrentRecord is the canonical unit of work produced by the extractors
// and consumed once by the importer. It is not persisted between windows.
type TorrentRecord struct {
	InfoHash   []byte
	Name       string
	TotalSize  int64
	CreatedAt  time.Time
	Private    bool
	FileStatus FileStatus
	FilesCount *int
	Files      []FileEntry
}

// WithSize returns a copy of the record with TotalSize replaced.
func (r *TorrentRecord) WithSize(size int64) *TorrentRecord {
	c := *r
	c.TotalSize = size
	return &c
}

func (r *TorrentRecord) HexHash() string {
	return hex.EncodeToString(r.InfoHash)
}

// Torrent maps the record to its destination parent row.
func (r *TorrentRecord) Torrent() *Torrent {
	return &Torrent{
		InfoHash:    r.InfoHash,
		Name:        r.Name,
		Size:        r.TotalSize,
		Private:     r.Private,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.CreatedAt,
		FilesStatus: string(r.FileStatus),
		FilesCount:  r.FilesCount,
	}
}

// TorrentFiles maps the record's surviving file entries to destination rows.
func (r *TorrentRecord) TorrentFiles(now time.Time) []*TorrentFile {
	rows := make([]*TorrentFile, 0, len(r.Files))
	for _, f := range r.Files {
		rows = append(rows, &TorrentFile{
			InfoHash:  r.InfoHash,
			Index:     f.Index,
			Path:      f.Path,
			Size:      f.Size,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return rows
}
