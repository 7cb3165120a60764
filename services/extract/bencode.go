package extract

import (
	"os"
	"time"

	"github.com/anacrolix/torrent/bencode"
	"github.com/anacrolix/torrent/metainfo"
	"github.com/pkg/errors"

	"github.com/webtor-io/torrent-loader/models"
)

// rawInfo keeps length as a pointer so an absent field is distinguishable
// from a declared zero-length single-file torrent.
type rawInfo struct {
	Name   string        `bencode:"name"`
	Length *int64        `bencode:"length,omitempty"`
	Files  []rawInfoFile `bencode:"files,omitempty"`
}

type rawInfoFile struct {
	Length int64    `bencode:"length"`
	Path   []string `bencode:"path"`
}

// BencodeExtractor builds canonical records from .torrent files. The info
// hash is taken over the file's own canonical info dictionary bytes, so it
// matches what any reference bencode encoder would produce.
type BencodeExtractor struct {
	norm *Normalizer
	now  func() time.Time
}

func NewBencodeExtractor(norm *Normalizer) *BencodeExtractor {
	return &BencodeExtractor{
		norm: norm,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *BencodeExtractor) Extract(path string) (*models.TorrentRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, extractionError(path, err)
	}
	defer func() {
		_ = f.Close()
	}()

	mi, err := metainfo.Load(f)
	if err != nil {
		return nil, extractionError(path, errors.Wrap(err, "malformed bencode"))
	}
	if len(mi.InfoBytes) == 0 {
		return nil, extractionError(path, errors.New("missing info dictionary"))
	}

	var info rawInfo
	if err := bencode.Unmarshal(mi.InfoBytes, &info); err != nil {
		return nil, extractionError(path, errors.Wrap(err, "malformed info dictionary"))
	}
	if info.Name == "" {
		return nil, extractionError(path, errors.New("torrent name is empty"))
	}

	rec := &models.TorrentRecord{
		InfoHash:  mi.HashInfoBytes().Bytes(),
		Name:      s.norm.Recover([]byte(info.Name)),
		CreatedAt: s.creationTime(mi),
	}

	switch {
	case info.Length != nil:
		rec.TotalSize = *info.Length
		rec.FileStatus = models.FileStatusSingle
	case info.Files != nil:
		declared := make([]RawFile, 0, len(info.Files))
		for _, f := range info.Files {
			rec.TotalSize += f.Length
			declared = append(declared, RawFile{
				Path: joinRawPath(f.Path),
				Size: f.Length,
			})
		}
		rec.Files, rec.FileStatus = s.norm.Normalize(path, declared)
		count := len(info.Files)
		rec.FilesCount = &count
	default:
		return nil, extractionError(path, errors.New("info has neither length nor files"))
	}
	if rec.FileStatus == models.FileStatusSingle {
		rec.Files = nil
		rec.FilesCount = nil
	}
	return rec, nil
}

// creationTime converts a declared Unix creation date to UTC, defaulting
// to the extraction time when it is absent or invalid.
func (s *BencodeExtractor) creationTime(mi *metainfo.MetaInfo) time.Time {
	if mi.CreationDate > 0 {
		return time.Unix(mi.CreationDate, 0).UTC()
	}
	return s.now()
}

// joinRawPath joins undecoded path parts with a slash, keeping the raw
// bytes intact for text recovery.
func joinRawPath(parts []string) []byte {
	var b []byte
	for i, p := range parts {
		if i > 0 {
			b = append(b, '/')
		}
		b = append(b, p...)
	}
	return b
}
