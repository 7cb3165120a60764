package migrations

import (
	"github.com/go-pg/migrations/v8"
)

// CreateDestinationSchema bootstraps the bitmagnet-compatible destination
// tables on an empty database, for local runs and tests. Production
// destinations already carry this schema.
func CreateDestinationSchema(col *migrations.Collection) {
	col.MustRegisterTx(func(db migrations.DB) error {
		queries := []string{
			`CREATE TABLE IF NOT EXISTS torrents (
				info_hash bytea PRIMARY KEY,
				name text NOT NULL,
				size bigint NOT NULL,
				private boolean NOT NULL DEFAULT false,
				created_at timestamptz NOT NULL,
				updated_at timestamptz NOT NULL,
				files_status text NOT NULL,
				files_count integer
			)`,
			`CREATE TABLE IF NOT EXISTS torrent_files (
				info_hash bytea NOT NULL REFERENCES torrents (info_hash),
				"index" integer NOT NULL,
				path text NOT NULL,
				size bigint NOT NULL,
				created_at timestamptz NOT NULL,
				updated_at timestamptz NOT NULL,
				PRIMARY KEY (info_hash, "index"),
				UNIQUE (info_hash, path)
			)`,
			`CREATE TABLE IF NOT EXISTS torrent_sources (
				key text PRIMARY KEY,
				name text NOT NULL,
				created_at timestamptz NOT NULL,
				updated_at timestamptz NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS torrents_torrent_sources (
				source text NOT NULL REFERENCES torrent_sources (key),
				info_hash bytea NOT NULL REFERENCES torrents (info_hash),
				import_id text,
				bfsd bytea,
				bfpe bytea,
				seeders integer,
				leechers integer,
				published_at timestamptz,
				created_at timestamptz NOT NULL,
				updated_at timestamptz NOT NULL,
				PRIMARY KEY (source, info_hash)
			)`,
			`CREATE TABLE IF NOT EXISTS torrent_contents (
				info_hash bytea PRIMARY KEY REFERENCES torrents (info_hash),
				content_type text,
				content_source text,
				content_id text,
				languages jsonb NOT NULL DEFAULT '[]',
				episodes text,
				video_resolution text,
				video_source text,
				video_codec text,
				video_3d text,
				video_modifier text,
				release_group text,
				created_at timestamptz NOT NULL,
				updated_at timestamptz NOT NULL,
				tsv tsvector
			)`,
			`CREATE INDEX IF NOT EXISTS torrent_contents_tsv_idx ON torrent_contents USING gin (tsv)`,
		}
		for _, q := range queries {
			if _, err := db.Exec(q); err != nil {
				return err
			}
		}
		return nil
	}, func(db migrations.DB) error {
		queries := []string{
			`DROP TABLE IF EXISTS torrent_contents`,
			`DROP TABLE IF EXISTS torrents_torrent_sources`,
			`DROP TABLE IF EXISTS torrent_sources`,
			`DROP TABLE IF EXISTS torrent_files`,
			`DROP TABLE IF EXISTS torrents`,
		}
		for _, q := range queries {
			if _, err := db.Exec(q); err != nil {
				return err
			}
		}
		return nil
	})
}
