package extract

import (
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/webtor-io/torrent-loader/models"
	"github.com/webtor-io/torrent-loader/services/textenc"
)

// Padding markers emitted by common torrent-creation tools to align piece
// boundaries. Such entries are implementation artifacts, not user content.
var paddingMarkers = []string{"_____padding", ".____padding"}

// RawFile is one declared file entry before normalization.
type RawFile struct {
	Path []byte
	Size int64
}

// Normalizer decodes, filters and re-indexes a declared file list.
type Normalizer struct {
	chain       textenc.Chain
	maxFiles    int
	keepPadding bool
}

func NewNormalizer(chain textenc.Chain, maxFiles int, keepPadding bool) *Normalizer {
	return &Normalizer{
		chain:       chain,
		maxFiles:    maxFiles,
		keepPadding: keepPadding,
	}
}

func (s *Normalizer) Recover(b []byte) string {
	return s.chain.Recover(b)
}

// Normalize decodes each path, drops padding entries unless configured to
// keep them, drops duplicate paths (first occurrence wins), truncates to
// the file ceiling and re-indexes survivors densely from 0. The returned
// status classifies the declared list: single for exactly one declared
// file, over_threshold when the declared count exceeds the ceiling, multi
// otherwise. ref labels diagnostics.
func (s *Normalizer) Normalize(ref string, declared []RawFile) ([]models.FileEntry, models.FileStatus) {
	status := models.FileStatusMulti
	if len(declared) == 1 {
		status = models.FileStatusSingle
	} else if len(declared) > s.maxFiles {
		status = models.FileStatusOverThreshold
	}

	seen := make(map[string]struct{}, len(declared))
	entries := make([]models.FileEntry, 0, len(declared))
	for _, f := range declared {
		if len(entries) >= s.maxFiles {
			break
		}
		path := s.chain.Recover(f.Path)
		if !s.keepPadding && isPadding(path) {
			continue
		}
		if _, ok := seen[path]; ok {
			log.Warnf("dropping duplicate file path %q in %s", path, ref)
			continue
		}
		seen[path] = struct{}{}
		entries = append(entries, models.FileEntry{
			Index: len(entries),
			Path:  path,
			Size:  f.Size,
		})
	}
	return entries, status
}

func isPadding(path string) bool {
	for _, m := range paddingMarkers {
		if strings.Contains(path, m) {
			return true
		}
	}
	return false
}
