package main

import (
	"context"
	"encoding/csv"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/nwschool/clubreg/core"
	"github.com/nwschool/clubreg/core/registry"
	inmemdb "github.com/nwschool/clubreg/storage/inmem"
)

// importTeachers bulk-loads teachers from a CSV file (id,name,department[,email])
// into the current registry state and pushes the result. Rows whose id already
// exists are skipped, not rejected.
func (cli *commandLine) importTeachers(path string) error {
	list, err := readTeachersCSV(path)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return errors.New("no teacher rows found")
	}

	store := inmemdb.NewStore()
	engine, closer, err := cli.newEngine(store)
	if err != nil {
		return err
	}
	defer closer()

	loadCtx, cancelLoad := context.WithTimeout(context.Background(), cli.conf.Sheets.Timeout)
	defer cancelLoad()
	snap, source := engine.Load(loadCtx)
	store.Reset(snap)
	logger.Printf("registry loaded from %s: %d teachers on file", source, len(snap.Teachers))

	svc := registry.NewService(store, nil, nil, nil, cli.conf)
	res := svc.BulkAddTeachers(list)
	if len(res.Added) == 0 {
		logger.Printf("nothing to do: all %d ids already on file", len(res.Skipped))
		return nil
	}

	flushCtx, cancelFlush := context.WithTimeout(context.Background(), cli.conf.Sheets.Timeout)
	defer cancelFlush()
	if err := engine.Flush(flushCtx); err != nil {
		return errors.Wrap(err, "pushing snapshot")
	}
	logger.Printf("imported %d teachers (%d skipped)", len(res.Added), len(res.Skipped))
	return nil
}

func readTeachersCSV(path string) ([]registry.Teacher, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1 // email column is optional
	rows, err := r.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "parsing CSV")
	}

	var list []registry.Teacher
	for i, row := range rows {
		if len(row) < 3 {
			return nil, errors.Errorf("row %d: want id,name,department[,email], got %d fields", i+1, len(row))
		}
		t := registry.Teacher{
			ID:         registry.ID(core.CleanString(row[0])),
			Name:       core.CleanString(row[1]),
			Department: core.CleanString(row[2]),
		}
		if len(row) > 3 {
			t.Email = core.CleanString(row[3], true)
		}
		if i == 0 && strings.EqualFold(string(t.ID), "id") {
			continue // header row
		}
		list = append(list, t)
	}
	return list, nil
}
