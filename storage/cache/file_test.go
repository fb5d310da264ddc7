package cache

import (
	"io/ioutil"
	"path/filepath"
	"testing"

	"github.com/nwschool/clubreg/core/registry"
)

func TestFile_roundTrip(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "nested", "cache.json"))

	snap := registry.DefaultSnapshot()
	snap.Teachers = []registry.Teacher{{ID: "T001", Name: "สมชาย", Department: "คณิตศาสตร์"}}
	g := registry.GradePass
	snap.Students = []registry.Student{{ID: "10001", Name: "ก", ClubID: "c-1", Grade: &g}}

	if err := f.Write(snap); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got, err := f.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got.Teachers) != 1 || got.Teachers[0].ID != "T001" {
		t.Errorf("teachers = %+v", got.Teachers)
	}
	if got.Students[0].Grade == nil || *got.Students[0].Grade != registry.GradePass {
		t.Errorf("grade = %v, want ผ", got.Students[0].Grade)
	}

	// overwrites replace the previous copy in place
	snap.Teachers = append(snap.Teachers, registry.Teacher{ID: "T002", Name: "ข", Department: "ศิลปะ"})
	if err := f.Write(snap); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	got, err = f.Read()
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got.Teachers) != 2 {
		t.Errorf("teachers after overwrite = %d, want 2", len(got.Teachers))
	}
}

func TestFile_Read_missing(t *testing.T) {
	f := NewFile(filepath.Join(t.TempDir(), "nope.json"))
	if _, err := f.Read(); err == nil {
		t.Fatal("Read() returned nil for a missing file")
	}
}

func TestFile_Read_corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := ioutil.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFile(path).Read(); err == nil {
		t.Fatal("Read() returned nil for a corrupt file")
	}
}

func TestFile_Write_leavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	f := NewFile(filepath.Join(dir, "cache.json"))
	if err := f.Write(registry.DefaultSnapshot()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}

	entries, err := ioutil.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "cache.json" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("dir contents = %v, want only cache.json", names)
	}
}
