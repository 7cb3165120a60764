package models

import (
	"context"
	"strings"
	"time"

	"github.com/go-pg/pg/v10/orm"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// TorrentSource is a named source registered once before the first load
// referencing it.
type TorrentSource struct {
	tableName struct{} `pg:"torrent_sources"`

	Key       string    `pg:"key,pk"`
	Name      string    `pg:"name"`
	CreatedAt time.Time `pg:"created_at"`
	UpdatedAt time.Time `pg:"updated_at"`
}

// TorrentsTorrentSource records that a source observed an info hash at a
// given time. Columns beyond that are populated by other bitmagnet
// components and stay null here.
type TorrentsTorrentSource struct {
	tableName struct{} `pg:"torrents_torrent_sources"`

	Source      string    `pg:"source,pk"`
	InfoHash    []byte    `pg:"info_hash,pk"`
	ImportID    *string   `pg:"import_id"`
	Bfsd        []byte    `pg:"bfsd"`
	Bfpe        []byte    `pg:"bfpe"`
	Seeders     *int      `pg:"seeders"`
	Leechers    *int      `pg:"leechers"`
	PublishedAt time.Time `pg:"published_at"`
	CreatedAt   time.Time `pg:"created_at"`
	UpdatedAt   time.Time `pg:"updated_at"`
}

// EnsureSource registers the source under its lowercased key unless a row
// with that key already exists.
func EnsureSource(ctx context.Context, db orm.DB, name string) (string, error) {
	key := strings.ToLower(name)
	exists, err := db.ModelContext(ctx, (*TorrentSource)(nil)).
		Where("key = ?", key).
		Exists()
	if err != nil {
		return "", errors.Wrap(err, "failed to check source")
	}
	if exists {
		log.Infof("source %s already registered", name)
		return key, nil
	}
	now := time.Now().UTC()
	src := &TorrentSource{
		Key:       key,
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	_, err = db.ModelContext(ctx, src).
		OnConflict("(key) DO NOTHING").
		Insert()
	if err != nil {
		return "", errors.Wrapf(err, "failed to register source %s", name)
	}
	log.Infof("source %s registered", name)
	return key, nil
}

// InsertTorrentSources inserts attribution rows; a duplicate
// (source, info_hash) observation is a silent no-op.
func InsertTorrentSources(ctx context.Context, db orm.DB, sources []*TorrentsTorrentSource) error {
	if len(sources) == 0 {
		return nil
	}
	_, err := db.ModelContext(ctx, &sources).
		OnConflict("(source, info_hash) DO NOTHING").
		Insert()
	if err != nil {
		return errors.Wrap(err, "failed to insert torrent sources")
	}
	return nil
}
