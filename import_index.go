package main

import (
	"context"

	"github.com/go-pg/pg/v10"
	"github.com/go-pg/pg/v10/orm"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	cs "github.com/webtor-io/common-services"

	"github.com/webtor-io/torrent-loader/models"
	"github.com/webtor-io/torrent-loader/services/extract"
	"github.com/webtor-io/torrent-loader/services/importer"
	"github.com/webtor-io/torrent-loader/services/source"
	"github.com/webtor-io/torrent-loader/services/textenc"
)

func makeImportIndexCMD() cli.Command {
	cmd := cli.Command{
		Name:      "import-index",
		Aliases:   []string{"i"},
		Usage:     "Imports a legacy SQLite crawl index",
		ArgsUsage: "<database>",
		Action:    importIndex,
	}
	configureImportIndex(&cmd)
	return cmd
}

func configureImportIndex(c *cli.Command) {
	c.Flags = cs.RegisterPGFlags(c.Flags)
	c.Flags = importer.RegisterFlags(c.Flags, 100)
}

func importIndex(c *cli.Context) error {
	settings, err := importer.NewSettings(c)
	if err != nil {
		return err
	}
	path := c.Args().First()
	if path == "" {
		return errors.New("database path is required")
	}

	idx, err := source.OpenIndex(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = idx.Close()
	}()

	ctx := context.Background()
	if err := source.ValidateIndexSchema(ctx, idx); err != nil {
		return err
	}

	// Setting DB
	pgs := cs.NewPG(c)
	defer pgs.Close()
	db := pgs.Get()
	if db == nil {
		return errors.New("db is nil")
	}

	norm := extract.NewNormalizer(textenc.Default, settings.MaxFiles, settings.KeepPadding)
	ex := extract.NewIndexExtractor(norm, settings.ImportFiles)

	r := source.NewIndexReader(idx, settings.WindowSize, settings.ImportFiles)
	total, err := r.Count(ctx)
	if err != nil {
		return err
	}
	log.Infof("found %d records in %s", total, path)

	run := func(db orm.DB) error {
		key, err := models.EnsureSource(ctx, db, settings.SourceName)
		if err != nil {
			return err
		}
		im := importer.New(importer.NewStore(db, settings.UseCopy), settings, key)
		var processed int64
		for {
			rows, err := r.Next(ctx)
			if err != nil {
				return err
			}
			if rows == nil {
				return nil
			}
			recs := make([]*models.TorrentRecord, 0, len(rows))
			for _, row := range rows {
				rec, err := ex.Extract(row)
				if err != nil {
					if extract.IsExtractionError(err) {
						log.WithError(err).Warn("skipping record")
						continue
					}
					return err
				}
				recs = append(recs, rec)
			}
			stats, err := im.ImportWindow(ctx, recs)
			if err != nil {
				return err
			}
			processed += int64(stats.Records)
			log.Infof("processed %d/%d records: %d inserted, %d skipped",
				processed, total, stats.Inserted, stats.Skipped)
		}
	}

	if settings.SingleTransaction {
		return db.RunInTransaction(ctx, func(tx *pg.Tx) error {
			return run(tx)
		})
	}
	return run(db)
}
