package source

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"

	"github.com/webtor-io/torrent-loader/services/extract"
)

var sqliteMagic = []byte("SQLite format 3\x00")

var requiredIndexColumns = map[string][]string{
	"torrents": {"id", "info_hash", "name", "total_size", "discovered_on"},
	"files":    {"id", "torrent_id", "size", "path"},
}

// OpenIndex opens the legacy crawl index read-only after checking it is a
// SQLite database at all.
func OpenIndex(path string) (*sql.DB, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open index %s", path)
	}
	header := make([]byte, len(sqliteMagic))
	_, err = io.ReadFull(f, header)
	_ = f.Close()
	if err != nil || !bytes.Equal(header, sqliteMagic) {
		return nil, errors.Errorf("%s is not a valid SQLite database", path)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open index %s", path)
	}
	return db, nil
}

// ValidateIndexSchema fails fast when a required column is missing, before
// any record is processed.
func ValidateIndexSchema(ctx context.Context, db *sql.DB) error {
	for table, required := range requiredIndexColumns {
		cols, err := tableColumns(ctx, db, table)
		if err != nil {
			return err
		}
		if len(cols) == 0 {
			return errors.Errorf("table %s does not exist", table)
		}
		for _, c := range required {
			if _, ok := cols[c]; !ok {
				return errors.Errorf("table %s is missing required column %s", table, c)
			}
		}
	}
	return nil
}

func tableColumns(ctx context.Context, db *sql.DB, table string) (map[string]struct{}, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+table+")")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to inspect table %s", table)
	}
	defer func() {
		_ = rows.Close()
	}()
	cols := map[string]struct{}{}
	for rows.Next() {
		var (
			cid     int
			name    string
			typ     string
			notNull int
			dflt    sql.NullString
			pk      int
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, errors.Wrapf(err, "failed to inspect table %s", table)
		}
		cols[name] = struct{}{}
	}
	return cols, rows.Err()
}

// IndexReader pages through the crawl index with a keyset cursor. File
// rows for a whole window are fetched in one grouped query, keeping source
// round trips proportional to window count.
type IndexReader struct {
	db        *sql.DB
	window    int
	withFiles bool
	lastID    int64
}

func NewIndexReader(db *sql.DB, windowSize int, withFiles bool) *IndexReader {
	return &IndexReader{
		db:        db,
		window:    windowSize,
		withFiles: withFiles,
	}
}

// Cursor returns the identifier of the last row handed out; feeding it to
// SetCursor on a fresh reader resumes the sequence after that row.
func (s *IndexReader) Cursor() int64 {
	return s.lastID
}

func (s *IndexReader) SetCursor(id int64) {
	s.lastID = id
}

// Count returns the total number of parent rows, for run-level logging.
func (s *IndexReader) Count(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM torrents").Scan(&n)
	if err != nil {
		return 0, errors.Wrap(err, "failed to count index records")
	}
	return n, nil
}

// Next returns the next window of index rows in id order, or nil when the
// index is exhausted.
func (s *IndexReader) Next(ctx context.Context) ([]*extract.IndexRow, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, info_hash, name, total_size, discovered_on FROM torrents WHERE id > ? ORDER BY id LIMIT ?",
		s.lastID, s.window)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read index window")
	}
	defer func() {
		_ = rows.Close()
	}()

	var window []*extract.IndexRow
	for rows.Next() {
		r := &extract.IndexRow{}
		if err := rows.Scan(&r.ID, &r.InfoHash, &r.Name, &r.TotalSize, &r.DiscoveredAt); err != nil {
			return nil, errors.Wrap(err, "failed to scan index row")
		}
		window = append(window, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to read index window")
	}
	if len(window) == 0 {
		return nil, nil
	}
	s.lastID = window[len(window)-1].ID

	if s.withFiles {
		if err := s.attachFiles(ctx, window); err != nil {
			return nil, err
		}
	}
	return window, nil
}

func (s *IndexReader) attachFiles(ctx context.Context, window []*extract.IndexRow) error {
	byID := make(map[int64]*extract.IndexRow, len(window))
	args := make([]interface{}, 0, len(window))
	for _, r := range window {
		byID[r.ID] = r
		args = append(args, r.ID)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(args)), ",")
	rows, err := s.db.QueryContext(ctx,
		"SELECT torrent_id, size, path FROM files WHERE torrent_id IN ("+placeholders+") ORDER BY id",
		args...)
	if err != nil {
		return errors.Wrap(err, "failed to read file rows")
	}
	defer func() {
		_ = rows.Close()
	}()
	for rows.Next() {
		var (
			torrentID int64
			size      int64
			path      []byte
		)
		if err := rows.Scan(&torrentID, &size, &path); err != nil {
			return errors.Wrap(err, "failed to scan file row")
		}
		if r, ok := byID[torrentID]; ok {
			r.Files = append(r.Files, extract.IndexFileRow{Size: size, Path: path})
		}
	}
	return errors.Wrap(rows.Err(), "failed to read file rows")
}
