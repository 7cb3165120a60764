package models

import (
	"context"
	"time"

	"github.com/go-pg/pg/v10/orm"
	"github.com/pkg/errors"
)

type Torrent struct {
	tableName struct{} `pg:"torrents"`

	InfoHash    []byte    `pg:"info_hash,pk"`
	Name        string    `pg:"name,use_zero"`
	Size        int64     `pg:"size,use_zero"`
	Private     bool      `pg:"private,use_zero"`
	CreatedAt   time.Time `pg:"created_at"`
	UpdatedAt   time.Time `pg:"updated_at"`
	FilesStatus string    `pg:"files_status"`
	FilesCount  *int      `pg:"files_count"`
}

type insertedHash struct {
	InfoHash []byte `pg:"info_hash"`
}

// InsertTorrents upserts parent rows and reports which info hashes were
// actually newly inserted. Rows that conflicted with pre-existing torrents
// are absent from the returned set.
func InsertTorrents(ctx context.Context, db orm.DB, torrents []*Torrent) ([][]byte, error) {
	if len(torrents) == 0 {
		return nil, nil
	}
	var inserted []insertedHash
	_, err := db.ModelContext(ctx, &torrents).
		OnConflict("(info_hash) DO NOTHING").
		Returning("info_hash").
		Insert(&inserted)
	if err != nil {
		return nil, errors.Wrap(err, "failed to insert torrents")
	}
	hashes := make([][]byte, 0, len(inserted))
	for _, h := range inserted {
		hashes = append(hashes, h.InfoHash)
	}
	return hashes, nil
}
