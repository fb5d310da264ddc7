// Package cache persists the aggregate snapshot to a single local file so a
// reload works even when the remote endpoint is unreachable.
package cache

import (
	"encoding/json"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/nwschool/clubreg/core/registry"
)

type File struct {
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

// Write stores the snapshot atomically (write to a temp file, then rename)
// so a crash mid-write never corrupts the previous copy.
func (f *File) Write(snap registry.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "encoding snapshot")
	}

	dir := filepath.Dir(f.path)
	if err = os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating cache dir")
	}
	tmp, err := ioutil.TempFile(dir, filepath.Base(f.path)+".tmp*")
	if err != nil {
		return errors.Wrap(err, "creating temp cache file")
	}
	defer func() { _ = os.Remove(tmp.Name()) }()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return errors.Wrap(err, "writing cache")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "closing cache")
	}
	return errors.Wrap(os.Rename(tmp.Name(), f.path), "replacing cache")
}

// Read loads the most recent cached snapshot.
func (f *File) Read() (registry.Snapshot, error) {
	data, err := ioutil.ReadFile(f.path)
	if err != nil {
		return registry.Snapshot{}, errors.Wrap(err, "reading cache")
	}
	var snap registry.Snapshot
	if err = json.Unmarshal(data, &snap); err != nil {
		return registry.Snapshot{}, errors.Wrap(err, "decoding cache")
	}
	return snap, nil
}
