package main

import (
	"github.com/pkg/errors"

	logsvc "github.com/nwschool/clubreg/services/logger"
	sheetsvc "github.com/nwschool/clubreg/services/sheets"
	syncsvc "github.com/nwschool/clubreg/services/sync"
	"github.com/nwschool/clubreg/storage/cache"
	"github.com/nwschool/clubreg/storage/database"
	inmemdb "github.com/nwschool/clubreg/storage/inmem"
)

// newEngine builds the same sync tiers the API wires up, minus Rollbar
// reporting. The returned closer releases the archive connection, if any.
func (cli *commandLine) newEngine(store *inmemdb.Store) (*syncsvc.Engine, func(), error) {
	conf := cli.conf

	lg := logsvc.NewRollbarLogger(logger, conf)
	lg.Enable(false)

	var archive syncsvc.Archive
	closer := func() {}
	if conf.Database.URL != "" {
		arch, err := database.Open(conf.Database.URL, conf.Database.Retention)
		if err != nil {
			return nil, nil, errors.Wrap(err, "opening snapshot archive")
		}
		archive = arch
		closer = func() { _ = arch.Close() }
	}

	engine := syncsvc.NewEngine(
		store.Snapshot,
		sheetsvc.NewClient(conf),
		cache.NewFile(conf.Cache.File),
		archive,
		lg,
		conf.Sync.Debounce,
	)
	return engine, closer, nil
}
