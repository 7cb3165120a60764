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

const recursiveFlag = "recursive"

func makeImportTorrentsCMD() cli.Command {
	cmd := cli.Command{
		Name:      "import-torrents",
		Aliases:   []string{"t"},
		Usage:     "Imports a directory of .torrent files",
		ArgsUsage: "<directory>",
		Action:    importTorrents,
	}
	configureImportTorrents(&cmd)
	return cmd
}

func configureImportTorrents(c *cli.Command) {
	c.Flags = cs.RegisterPGFlags(c.Flags)
	c.Flags = importer.RegisterFlags(c.Flags, 500)
	c.Flags = append(c.Flags, cli.BoolFlag{
		Name:  recursiveFlag + ", r",
		Usage: "recursively find .torrent files in subdirectories",
	})
}

func importTorrents(c *cli.Context) error {
	settings, err := importer.NewSettings(c)
	if err != nil {
		return err
	}
	dir := c.Args().First()
	if dir == "" {
		return errors.New("directory path is required")
	}
	paths, err := source.FindTorrentFiles(dir, c.Bool(recursiveFlag))
	if err != nil {
		return err
	}
	log.Infof("found %d torrent files in %s", len(paths), dir)

	// Setting DB
	pgs := cs.NewPG(c)
	defer pgs.Close()
	db := pgs.Get()
	if db == nil {
		return errors.New("db is nil")
	}

	norm := extract.NewNormalizer(textenc.Default, settings.MaxFiles, settings.KeepPadding)
	ex := extract.NewBencodeExtractor(norm)
	ctx := context.Background()

	run := func(db orm.DB) error {
		key, err := models.EnsureSource(ctx, db, settings.SourceName)
		if err != nil {
			return err
		}
		im := importer.New(importer.NewStore(db, settings.UseCopy), settings, key)
		r := source.NewDirReader(paths, settings.WindowSize)
		for w := r.Next(); w != nil; w = r.Next() {
			recs := make([]*models.TorrentRecord, 0, len(w))
			for _, p := range w {
				rec, err := ex.Extract(p)
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
			log.Infof("processed %d/%d files: %d inserted, %d skipped",
				r.Offset(), r.Total(), stats.Inserted, stats.Skipped)
		}
		return nil
	}

	if settings.SingleTransaction {
		return db.RunInTransaction(ctx, func(tx *pg.Tx) error {
			return run(tx)
		})
	}
	return run(db)
}
