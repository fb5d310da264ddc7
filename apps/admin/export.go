package main

import (
	"context"
	"encoding/json"
	"io/ioutil"

	inmemdb "github.com/nwschool/clubreg/storage/inmem"
)

// export downloads the current state snapshot and writes it as indented JSON.
func (cli *commandLine) export(path string) error {
	store := inmemdb.NewStore()
	engine, closer, err := cli.newEngine(store)
	if err != nil {
		return err
	}
	defer closer()

	ctx, cancel := context.WithTimeout(context.Background(), cli.conf.Sheets.Timeout)
	defer cancel()

	snap, source := engine.Load(ctx)
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return err
	}
	if err := ioutil.WriteFile(path, data, 0644); err != nil {
		return err
	}
	logger.Printf("exported %s state to %s (%d teachers, %d students, %d clubs)",
		source, path, len(snap.Teachers), len(snap.Students), len(snap.Clubs))
	return nil
}
