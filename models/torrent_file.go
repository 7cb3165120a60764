package models

import (
	"context"
	"time"

	"github.com/go-pg/pg/v10/orm"
	"github.com/pkg/errors"
)

type TorrentFile struct {
	tableName struct{} `pg:"torrent_files"`

	InfoHash  []byte    `pg:"info_hash,pk"`
	Index     int       `pg:"index,pk,use_zero"`
	Path      string    `pg:"path,use_zero"`
	Size      int64     `pg:"size,use_zero"`
	CreatedAt time.Time `pg:"created_at"`
	UpdatedAt time.Time `pg:"updated_at"`
}

// InsertTorrentFiles inserts file rows in one multi-row statement.
// A path already present for the same torrent is a silent no-op.
func InsertTorrentFiles(ctx context.Context, db orm.DB, files []*TorrentFile) error {
	if len(files) == 0 {
		return nil
	}
	_, err := db.ModelContext(ctx, &files).
		OnConflict("(info_hash, path) DO NOTHING").
		Insert()
	if err != nil {
		return errors.Wrap(err, "failed to insert torrent files")
	}
	return nil
}
