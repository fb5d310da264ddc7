package inmemdb

import (
	"sort"

	"github.com/nwschool/clubreg/core/registry"
)

// ---------------------------------------------------------------------------
// Teachers

func (db *Store) Teachers() []registry.Teacher {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return append([]registry.Teacher(nil), db.teachers...)
}

func (db *Store) GetTeacher(id registry.ID) (registry.Teacher, bool) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	for _, t := range db.teachers {
		if t.ID == id {
			return t, true
		}
	}
	return registry.Teacher{}, false
}

func (db *Store) PutTeacher(t registry.Teacher) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for i := range db.teachers {
		if db.teachers[i].ID == t.ID {
			db.teachers[i] = t
			return
		}
	}
	db.teachers = append(db.teachers, t)
}

func (db *Store) ReplaceTeacher(oldID registry.ID, t registry.Teacher) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for i := range db.teachers {
		if db.teachers[i].ID == oldID {
			db.teachers[i] = t
			return
		}
	}
}

func (db *Store) DeleteTeacher(id registry.ID) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for i := range db.teachers {
		if db.teachers[i].ID == id {
			db.teachers = append(db.teachers[:i], db.teachers[i+1:]...)
			return
		}
	}
}

// ---------------------------------------------------------------------------
// Students

func (db *Store) Students() []registry.Student {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return append([]registry.Student(nil), db.students...)
}

func (db *Store) GetStudent(id registry.ID) (registry.Student, bool) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	for _, s := range db.students {
		if s.ID == id {
			return s, true
		}
	}
	return registry.Student{}, false
}

func (db *Store) PutStudent(s registry.Student) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for i := range db.students {
		if db.students[i].ID == s.ID {
			db.students[i] = s
			return
		}
	}
	db.students = append(db.students, s)
}

func (db *Store) ReplaceStudent(oldID registry.ID, s registry.Student) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for i := range db.students {
		if db.students[i].ID == oldID {
			db.students[i] = s
			return
		}
	}
}

func (db *Store) DeleteStudent(id registry.ID) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for i := range db.students {
		if db.students[i].ID == id {
			db.students = append(db.students[:i], db.students[i+1:]...)
			return
		}
	}
}

func (db *Store) DeleteStudentsByClub(clubID registry.ID) int {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	kept := db.students[:0]
	removed := 0
	for _, s := range db.students {
		if s.ClubID == clubID {
			removed++
			continue
		}
		kept = append(kept, s)
	}
	db.students = kept
	return removed
}

// ---------------------------------------------------------------------------
// Clubs

func (db *Store) Clubs() []registry.Club {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return append([]registry.Club(nil), db.clubs...)
}

func (db *Store) GetClub(id registry.ID) (registry.Club, bool) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	for _, c := range db.clubs {
		if c.ID == id {
			return c, true
		}
	}
	return registry.Club{}, false
}

func (db *Store) PutClub(c registry.Club) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for i := range db.clubs {
		if db.clubs[i].ID == c.ID {
			db.clubs[i] = c
			return
		}
	}
	db.clubs = append(db.clubs, c)
}

func (db *Store) DeleteClub(id registry.ID) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for i := range db.clubs {
		if db.clubs[i].ID == id {
			db.clubs = append(db.clubs[:i], db.clubs[i+1:]...)
			return
		}
	}
}

// ---------------------------------------------------------------------------
// Announcements

func (db *Store) Announcements() []registry.Announcement {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return append([]registry.Announcement(nil), db.announcements...)
}

func (db *Store) GetAnnouncement(id registry.ID) (registry.Announcement, bool) {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	for _, a := range db.announcements {
		if a.ID == id {
			return a, true
		}
	}
	return registry.Announcement{}, false
}

func (db *Store) PutAnnouncement(a registry.Announcement) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for i := range db.announcements {
		if db.announcements[i].ID == a.ID {
			db.announcements[i] = a
			return
		}
	}
	db.announcements = append(db.announcements, a)
}

func (db *Store) DeleteAnnouncement(id registry.ID) {
	db.mutex.Lock()
	defer db.mutex.Unlock()

	for i := range db.announcements {
		if db.announcements[i].ID == id {
			db.announcements = append(db.announcements[:i], db.announcements[i+1:]...)
			return
		}
	}
}

// ---------------------------------------------------------------------------
// Settings

func (db *Store) Settings() registry.Settings {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	return registry.Settings{
		IsSystemOpen:      db.settings.IsSystemOpen,
		RegistrationRules: append([]string(nil), db.settings.RegistrationRules...),
	}
}

func (db *Store) PutSettings(s registry.Settings) {
	db.mutex.Lock()
	defer db.mutex.Unlock()
	db.settings = s
}

// ---------------------------------------------------------------------------
// Derived queries

func (db *Store) ClubEnrollment(clubID registry.ID) int {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return db.clubEnrollment(clubID)
}

// clubEnrollment must be called with the mutex held.
func (db *Store) clubEnrollment(clubID registry.ID) int {
	count := 0
	for _, s := range db.students {
		if s.ClubID == clubID {
			count++
		}
	}
	return count
}

func (db *Store) IsClubFull(c registry.Club) bool {
	db.mutex.RLock()
	defer db.mutex.RUnlock()
	return db.clubEnrollment(c.ID) >= c.Capacity
}

func (db *Store) TeacherClubs(teacherID registry.ID) []registry.Club {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	clubs := make([]registry.Club, 0)
	for _, c := range db.clubs {
		if c.AdvisorID == teacherID || (c.CoAdvisorID != "" && c.CoAdvisorID == teacherID) {
			clubs = append(clubs, c)
		}
	}
	return clubs
}

func (db *Store) TeacherStudentTotal(teacherID registry.ID) int {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	total := 0
	for _, c := range db.clubs {
		if c.AdvisorID == teacherID || (c.CoAdvisorID != "" && c.CoAdvisorID == teacherID) {
			total += db.clubEnrollment(c.ID)
		}
	}
	return total
}

func (db *Store) PopularityRanking(limit int) []registry.RankedClub {
	ranked := db.rankedClubs()
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Enrollment > ranked[j].Enrollment })
	if limit != registry.AllClubs && limit < len(ranked) {
		ranked = ranked[:limit]
	}
	return ranked
}

func (db *Store) AvailabilityRanking() []registry.RankedClub {
	ranked := db.rankedClubs()
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].IsFull != ranked[j].IsFull {
			return !ranked[i].IsFull
		}
		return ranked[i].Enrollment > ranked[j].Enrollment
	})
	return ranked
}

func (db *Store) rankedClubs() []registry.RankedClub {
	db.mutex.RLock()
	defer db.mutex.RUnlock()

	ranked := make([]registry.RankedClub, 0, len(db.clubs))
	for _, c := range db.clubs {
		enrollment := db.clubEnrollment(c.ID)
		ranked = append(ranked, registry.RankedClub{
			Club:       c,
			Enrollment: enrollment,
			IsFull:     enrollment >= c.Capacity,
		})
	}
	return ranked
}
