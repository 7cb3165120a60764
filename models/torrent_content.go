package models

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/go-pg/pg/v10/orm"
	"github.com/pkg/errors"
)

// TorrentContent is the placeholder row that makes an info hash searchable
// before the reprocessing stage fills in real classification. Every
// classification column stays null; languages defaults to an empty list and
// tsv is derived from the hex hash.
type TorrentContent struct {
	tableName struct{} `pg:"torrent_contents"`

	InfoHash        []byte    `pg:"info_hash,pk"`
	ContentType     *string   `pg:"content_type"`
	ContentSource   *string   `pg:"content_source"`
	ContentID       *string   `pg:"content_id"`
	Languages       string    `pg:"languages,use_zero"`
	Episodes        *string   `pg:"episodes"`
	VideoResolution *string   `pg:"video_resolution"`
	VideoSource     *string   `pg:"video_source"`
	VideoCodec      *string   `pg:"video_codec"`
	Video3D         *string   `pg:"video_3d"`
	VideoModifier   *string   `pg:"video_modifier"`
	ReleaseGroup    *string   `pg:"release_group"`
	CreatedAt       time.Time `pg:"created_at"`
	UpdatedAt       time.Time `pg:"updated_at"`
}

func NewTorrentContent(infoHash []byte, at time.Time) *TorrentContent {
	return &TorrentContent{
		InfoHash:  infoHash,
		Languages: "[]",
		CreatedAt: at,
		UpdatedAt: at,
	}
}

// InsertTorrentContents inserts placeholder rows, never overwriting an
// existing one. The tsv expression keeps the hash searchable by its hex
// form, so rows are inserted one by one rather than multi-row.
func InsertTorrentContents(ctx context.Context, db orm.DB, contents []*TorrentContent) error {
	for _, c := range contents {
		_, err := db.ModelContext(ctx, c).
			Value("tsv", "to_tsvector(?)", hex.EncodeToString(c.InfoHash)).
			OnConflict("DO NOTHING").
			Insert()
		if err != nil {
			return errors.Wrap(err, "failed to insert torrent content")
		}
	}
	return nil
}
