// Package inmemdb provides the in-memory registry.Store. The running process
// owns its state; the store is the authoritative copy between sync pushes.
// Collections are slice-backed because insertion order is the tie-breaker for
// every ranking.
package inmemdb

import (
	"sync"

	"github.com/nwschool/clubreg/core/registry"
)

type Store struct {
	mutex         sync.RWMutex
	teachers      []registry.Teacher
	students      []registry.Student
	clubs         []registry.Club
	announcements []registry.Announcement
	settings      registry.Settings
}

var _ registry.Store = (*Store)(nil)

func NewStore() *Store {
	return &Store{
		settings: registry.Settings{
			IsSystemOpen:      true,
			RegistrationRules: registry.DefaultRules,
		},
	}
}

func (db *Store) Snapshot() registry.Snapshot {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	snap := registry.Snapshot{
		Teachers:      make([]registry.Teacher, len(db.teachers)),
		Students:      make([]registry.Student, len(db.students)),
		Clubs:         make([]registry.Club, len(db.clubs)),
		Announcements: make([]registry.Announcement, len(db.announcements)),
		Settings: registry.Settings{
			IsSystemOpen:      db.settings.IsSystemOpen,
			RegistrationRules: append([]string(nil), db.settings.RegistrationRules...),
		},
	}
	copy(snap.Teachers, db.teachers)
	copy(snap.Clubs, db.clubs)
	copy(snap.Announcements, db.announcements)
	for i, s := range db.students {
		if s.Grade != nil {
			g := *s.Grade
			s.Grade = &g
		}
		snap.Students[i] = s
	}
	return snap
}

func (db *Store) Reset(snap registry.Snapshot) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	db.teachers = append([]registry.Teacher(nil), snap.Teachers...)
	db.students = append([]registry.Student(nil), snap.Students...)
	db.clubs = append([]registry.Club(nil), snap.Clubs...)
	db.announcements = append([]registry.Announcement(nil), snap.Announcements...)
	db.settings = snap.Settings
	if db.settings.RegistrationRules == nil {
		db.settings.RegistrationRules = registry.DefaultRules
	}
}
