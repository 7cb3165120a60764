package main

import (
	"github.com/go-pg/migrations/v8"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
	cs "github.com/webtor-io/common-services"

	m "github.com/webtor-io/torrent-loader/migrations"
)

func makePGMigrationCMD() cli.Command {
	migrateCmd := cli.Command{
		Name:    "migrate",
		Aliases: []string{"m"},
		Usage:   "Migrates database",
	}
	configurePGMigration(&migrateCmd)
	return migrateCmd
}

func configurePGMigration(c *cli.Command) {
	upCmd := cli.Command{
		Name:    "up",
		Usage:   "Runs all available migrations",
		Aliases: []string{"u"},
		Action: func(c *cli.Context) error {
			return pgMigrate(c, "up")
		},
	}
	downCmd := cli.Command{
		Name:    "down",
		Usage:   "Reverts last migration",
		Aliases: []string{"d"},
		Action: func(c *cli.Context) error {
			return pgMigrate(c, "down")
		},
	}
	resetCmd := cli.Command{
		Name:    "reset",
		Usage:   "Reverts all migrations",
		Aliases: []string{"r"},
		Action: func(c *cli.Context) error {
			return pgMigrate(c, "reset")
		},
	}
	versionCmd := cli.Command{
		Name:    "version",
		Usage:   "Prints current db version",
		Aliases: []string{"v"},
		Action: func(c *cli.Context) error {
			return pgMigrate(c, "version")
		},
	}
	c.Subcommands = []cli.Command{upCmd, downCmd, resetCmd, versionCmd}
	for k := range c.Subcommands {
		c.Subcommands[k].Flags = cs.RegisterPGFlags(c.Subcommands[k].Flags)
	}
}

func pgMigrate(c *cli.Context, a ...string) error {
	// Setting DB
	pgs := cs.NewPG(c)
	defer pgs.Close()
	db := pgs.Get()
	if db == nil {
		return errors.New("db is nil")
	}

	// Setting migrations
	col := migrations.NewCollection()
	m.CreateDestinationSchema(col)

	_, _, err := col.Run(db, "init")
	if err != nil {
		return errors.Wrap(err, "failed to init migrations")
	}
	oldVersion, newVersion, err := col.Run(db, a...)
	if err != nil {
		return errors.Wrapf(err, "failed to migrate from %v to %v", oldVersion, newVersion)
	}
	if newVersion != oldVersion {
		log.Infof("DB migrated from version %d to %d", oldVersion, newVersion)
	} else {
		log.Infof("DB migration version is %d", oldVersion)
	}
	return nil
}
