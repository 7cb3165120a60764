package main

import (
	"github.com/urfave/cli"
)

func configure(app *cli.App) {
	importTorrentsCMD := makeImportTorrentsCMD()
	importIndexCMD := makeImportIndexCMD()
	migrationCMD := makePGMigrationCMD()
	app.Commands = []cli.Command{importTorrentsCMD, importIndexCMD, migrationCMD}
}
