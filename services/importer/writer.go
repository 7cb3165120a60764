package importer

import (
	"bytes"
	"context"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/go-pg/pg/v10/orm"
	"github.com/pkg/errors"

	"github.com/webtor-io/torrent-loader/models"
)

// Store is the bulk insert capability the importer writes through. The
// parent step always reports which hashes were newly inserted, so it is
// batched in every implementation; child-row steps may be accelerated.
type Store interface {
	InsertTorrents(ctx context.Context, torrents []*models.Torrent) ([][]byte, error)
	InsertFiles(ctx context.Context, files []*models.TorrentFile) error
	InsertSources(ctx context.Context, sources []*models.TorrentsTorrentSource) error
	InsertContents(ctx context.Context, contents []*models.TorrentContent) error
}

// NewStore picks the write strategy once at startup. Both strategies
// produce identical destination state; the copy path only trades
// conflict-time flexibility for throughput.
func NewStore(db orm.DB, useCopy bool) Store {
	if useCopy {
		return NewCopyStore(db)
	}
	return NewBatchStore(db)
}

// BatchStore issues one parameterized multi-row INSERT ... ON CONFLICT DO
// NOTHING per call. db may be a plain connection or a transaction,
// matching the two transaction-scoping policies.
type BatchStore struct {
	db orm.DB
}

func NewBatchStore(db orm.DB) *BatchStore {
	return &BatchStore{db: db}
}

func (s *BatchStore) InsertTorrents(ctx context.Context, torrents []*models.Torrent) ([][]byte, error) {
	return models.InsertTorrents(ctx, s.db, torrents)
}

func (s *BatchStore) InsertFiles(ctx context.Context, files []*models.TorrentFile) error {
	return models.InsertTorrentFiles(ctx, s.db, files)
}

func (s *BatchStore) InsertSources(ctx context.Context, sources []*models.TorrentsTorrentSource) error {
	return models.InsertTorrentSources(ctx, s.db, sources)
}

func (s *BatchStore) InsertContents(ctx context.Context, contents []*models.TorrentContent) error {
	return models.InsertTorrentContents(ctx, s.db, contents)
}

// CopyStore streams file and attribution rows over the COPY protocol.
// Those rows belong to parents confirmed newly inserted, so no conflicting
// row can pre-exist and the conflict-intolerant COPY stays safe. Parent
// and content rows keep the batched path: the former returns inserted
// hashes, the latter needs a tsvector expression.
type CopyStore struct {
	BatchStore
}

func NewCopyStore(db orm.DB) *CopyStore {
	return &CopyStore{BatchStore{db: db}}
}

func (s *CopyStore) InsertFiles(ctx context.Context, files []*models.TorrentFile) error {
	if len(files) == 0 {
		return nil
	}
	_, err := s.db.CopyFrom(encodeFilesCSV(files),
		`COPY torrent_files (info_hash, "index", path, size, created_at, updated_at) FROM STDIN WITH CSV`)
	return errors.Wrap(err, "failed to copy torrent files")
}

func (s *CopyStore) InsertSources(ctx context.Context, sources []*models.TorrentsTorrentSource) error {
	if len(sources) == 0 {
		return nil
	}
	_, err := s.db.CopyFrom(encodeSourcesCSV(sources),
		`COPY torrents_torrent_sources (source, info_hash, published_at, created_at, updated_at) FROM STDIN WITH CSV`)
	return errors.Wrap(err, "failed to copy torrent sources")
}

func encodeFilesCSV(files []*models.TorrentFile) *bytes.Buffer {
	var buf bytes.Buffer
	for _, f := range files {
		writeCSVRow(&buf,
			byteaHex(f.InfoHash),
			strconv.Itoa(f.Index),
			f.Path,
			strconv.FormatInt(f.Size, 10),
			pgTime(f.CreatedAt),
			pgTime(f.UpdatedAt),
		)
	}
	return &buf
}

func encodeSourcesCSV(sources []*models.TorrentsTorrentSource) *bytes.Buffer {
	var buf bytes.Buffer
	for _, src := range sources {
		writeCSVRow(&buf,
			src.Source,
			byteaHex(src.InfoHash),
			pgTime(src.PublishedAt),
			pgTime(src.CreatedAt),
			pgTime(src.UpdatedAt),
		)
	}
	return &buf
}

func writeCSVRow(buf *bytes.Buffer, fields ...string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteString(csvField(f))
	}
	buf.WriteByte('\n')
}

// csvField quotes per the COPY CSV rules. Empty strings are quoted too,
// since an unquoted empty field reads back as NULL rather than empty text.
func csvField(s string) string {
	if s == "" {
		return `""`
	}
	if strings.ContainsAny(s, ",\"\n\r") {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return s
}

func byteaHex(b []byte) string {
	return `\x` + hex.EncodeToString(b)
}

func pgTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
