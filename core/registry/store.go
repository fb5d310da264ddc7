package registry

// AllClubs is the PopularityRanking limit sentinel for an unlimited listing.
const AllClubs = -1

// Store holds the authoritative entity collections and answers derived
// queries. It is purely mechanical: invariant checks live in Service, which
// serializes every check-then-apply sequence. Implementations must be safe
// for concurrent readers and preserve insertion order, which is the
// tie-breaker for every ranking.
type Store interface {
	// Snapshot returns a deep copy of the full aggregate state.
	Snapshot() Snapshot
	// Reset replaces the full aggregate state (startup load).
	Reset(snap Snapshot)

	Teachers() []Teacher
	GetTeacher(id ID) (Teacher, bool)
	// PutTeacher inserts, or replaces the teacher with the same id.
	PutTeacher(t Teacher)
	// ReplaceTeacher replaces the teacher stored under oldID, keeping its
	// position; used when an edit changes the id itself.
	ReplaceTeacher(oldID ID, t Teacher)
	DeleteTeacher(id ID)

	Students() []Student
	GetStudent(id ID) (Student, bool)
	PutStudent(s Student)
	ReplaceStudent(oldID ID, s Student)
	DeleteStudent(id ID)
	// DeleteStudentsByClub removes every registration of the club and
	// returns how many were removed.
	DeleteStudentsByClub(clubID ID) int

	Clubs() []Club
	GetClub(id ID) (Club, bool)
	PutClub(c Club)
	DeleteClub(id ID)

	Announcements() []Announcement
	GetAnnouncement(id ID) (Announcement, bool)
	PutAnnouncement(a Announcement)
	DeleteAnnouncement(id ID)

	Settings() Settings
	PutSettings(s Settings)

	// Derived queries.
	ClubEnrollment(clubID ID) int
	IsClubFull(c Club) bool
	TeacherClubs(teacherID ID) []Club
	TeacherStudentTotal(teacherID ID) int
	// PopularityRanking sorts clubs by enrollment descending (stable;
	// insertion order breaks ties) and truncates to limit; AllClubs lifts
	// the truncation.
	PopularityRanking(limit int) []RankedClub
	// AvailabilityRanking puts non-full clubs before full ones, each group
	// by enrollment descending (stable).
	AvailabilityRanking() []RankedClub
}
