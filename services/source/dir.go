// Package source produces raw source items in bounded windows, so memory
// stays proportional to one window regardless of source size.
package source

import (
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/yargevad/filepathx"
)

// FindTorrentFiles discovers .torrent files under dir, descending into
// subdirectories when recursive is set.
func FindTorrentFiles(dir string, recursive bool) ([]string, error) {
	pattern := filepath.Join(dir, "*.torrent")
	if recursive {
		pattern = filepath.Join(dir, "**", "*.torrent")
	}
	paths, err := filepathx.Glob(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to discover torrent files in %s", dir)
	}
	return paths, nil
}

// DirReader slices a discovered path list into fixed-size windows without
// re-ordering. The offset is explicit so a run can resume mid-list.
type DirReader struct {
	paths  []string
	window int
	off    int
}

func NewDirReader(paths []string, windowSize int) *DirReader {
	return &DirReader{
		paths:  paths,
		window: windowSize,
	}
}

// Next returns the next window of paths, or nil when the list is
// exhausted.
func (s *DirReader) Next() []string {
	if s.off >= len(s.paths) {
		return nil
	}
	end := s.off + s.window
	if end > len(s.paths) {
		end = len(s.paths)
	}
	w := s.paths[s.off:end]
	s.off = end
	return w
}

func (s *DirReader) Offset() int {
	return s.off
}

func (s *DirReader) SetOffset(off int) {
	s.off = off
}

func (s *DirReader) Total() int {
	return len(s.paths)
}
