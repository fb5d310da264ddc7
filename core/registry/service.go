package registry

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	"github.com/nwschool/clubreg/core"
)

var (
	// conflicts
	ErrSystemClosed          = core.NewConflictError("registration is closed")
	ErrDuplicateStudent      = core.NewConflictError("this student id is already registered")
	ErrClubFull              = core.NewConflictError("this club is full")
	ErrLevelNotAccepted      = core.NewConflictError("this club does not accept the student's grade level")
	ErrTeacherAlreadyAdvises = core.NewConflictError("this teacher already advises a club")
	ErrDuplicateTeacher      = core.NewConflictError("this teacher id already exists")

	// not found
	ErrStudentNotFound      = core.NewNotFoundError("student not found")
	ErrClubNotFound         = core.NewNotFoundError("club not found")
	ErrTeacherNotFound      = core.NewNotFoundError("teacher not found")
	ErrAnnouncementNotFound = core.NewNotFoundError("announcement not found")

	// permissions; the API layer maps this to a 403
	ErrNotAdvisor = errors.New("only the club's advisors may perform this action")

	ErrBadCredentials = errors.New("authentication failed")

	// UnknownTeacherName is displayed when a referenced teacher id no longer
	// resolves; dangling ids are rendered, never followed.
	UnknownTeacherName = "unknown"
)

type (
	// Syncer is notified after every successful mutation. The registry never
	// waits on it: persistence timing is the synchronization engine's business.
	Syncer interface {
		NotifyStateChanged()
	}

	// Actor identifies who is invoking a mutation. Admins bypass advisor
	// ownership checks; teachers must advise the club they touch.
	Actor struct {
		TeacherID ID
		IsAdmin   bool
	}

	// BulkResult reports a partial-success bulk import.
	BulkResult struct {
		Added   []Teacher `json:"added"`
		Skipped []ID      `json:"skipped"`
	}

	Service struct {
		mu      sync.Mutex
		store   Store
		syncer  Syncer
		mailSvc core.EmailService
		logger  core.Logger
		conf    *core.Config
	}
)

func NewService(store Store, syncer Syncer, mailSvc core.EmailService, logger core.Logger, conf *core.Config) *Service {
	return &Service{
		store:   store,
		syncer:  syncer,
		mailSvc: mailSvc,
		logger:  logger,
		conf:    conf,
	}
}

func (svc *Service) notify() {
	if svc.syncer != nil {
		svc.syncer.NotifyStateChanged()
	}
}

// ---------------------------------------------------------------------------
// Students

// RegisterStudent enrolls a student in a club. A student id may hold at most
// one registration system-wide, the system gate must be open and the club
// must accept the student's level and have room left.
func (svc *Service) RegisterStudent(ns NewStudent) (Student, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if !svc.store.Settings().IsSystemOpen {
		return Student{}, ErrSystemClosed
	}
	if _, ok := svc.store.GetStudent(ns.ID); ok {
		return Student{}, ErrDuplicateStudent
	}
	club, ok := svc.store.GetClub(ns.ClubID)
	if !ok {
		return Student{}, ErrClubNotFound
	}
	if !club.LevelTarget.Accepts(ns.Level) {
		return Student{}, ErrLevelNotAccepted
	}
	if svc.store.IsClubFull(club) {
		return Student{}, ErrClubFull
	}

	std := Student{
		ID:         ns.ID,
		Name:       ns.Name,
		Level:      ns.Level,
		Room:       ns.Room,
		SeatNumber: ns.SeatNumber,
		ClubID:     ns.ClubID,
		Grade:      nil, // ungraded until the advisor grades
		Note:       ns.Note,
	}
	svc.store.PutStudent(std)
	svc.notify()

	if svc.store.ClubEnrollment(club.ID) >= club.Capacity {
		svc.sendClubFullNotice(club)
	}
	return std, nil
}

// UpdateStudentInfo merges non-empty fields into an existing registration.
// Changing the id fails if the new id collides with a different student.
func (svc *Service) UpdateStudentInfo(actor Actor, studentID ID, upd UpdateStudent) (Student, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	std, ok := svc.store.GetStudent(studentID)
	if !ok {
		return Student{}, ErrStudentNotFound
	}
	if err := svc.requireClubAdvisor(actor, std.ClubID); err != nil {
		return Student{}, err
	}

	if upd.ID != "" && upd.ID != std.ID {
		if _, exists := svc.store.GetStudent(upd.ID); exists {
			return Student{}, ErrDuplicateStudent
		}
		std.ID = upd.ID
	}
	if upd.Name != "" {
		std.Name = upd.Name
	}
	if upd.Level != "" {
		std.Level = upd.Level
	}
	if upd.Room != "" {
		std.Room = upd.Room
	}
	if upd.SeatNumber != "" {
		std.SeatNumber = upd.SeatNumber
	}
	if upd.Note != nil {
		std.Note = *upd.Note
	}

	svc.store.ReplaceStudent(studentID, std)
	svc.notify()
	return std, nil
}

// UpdateStudentGrade sets the pass/fail evaluation. Only the club's lead or
// co-advisor (or an admin) may grade.
func (svc *Service) UpdateStudentGrade(actor Actor, studentID ID, grade Grade) (Student, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if grade != GradePass && grade != GradeFail {
		return Student{}, core.NewValidationError(errors.Errorf("invalid grade %q", grade),
			core.FieldError{Field: "grade", Error: "grade must be ผ or มผ"})
	}
	std, ok := svc.store.GetStudent(studentID)
	if !ok {
		return Student{}, ErrStudentNotFound
	}
	if err := svc.requireClubAdvisor(actor, std.ClubID); err != nil {
		return Student{}, err
	}

	std.Grade = &grade
	svc.store.ReplaceStudent(studentID, std)
	svc.notify()
	return std, nil
}

// DeleteStudent withdraws a registration; deleting an absent id is a no-op.
func (svc *Service) DeleteStudent(actor Actor, studentID ID) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	std, ok := svc.store.GetStudent(studentID)
	if !ok {
		return nil // idempotent
	}
	if err := svc.requireClubAdvisor(actor, std.ClubID); err != nil {
		return err
	}

	svc.store.DeleteStudent(studentID)
	svc.notify()
	return nil
}

// ---------------------------------------------------------------------------
// Clubs

// CreateClub opens a new club led by the requesting teacher. A teacher may
// hold at most one advisor or co-advisor role system-wide. Capacity defaults
// to 25, or 50 when a co-advisor is attached at creation; it stays an
// independently editable field afterwards.
func (svc *Service) CreateClub(nc NewClub, requestingTeacher ID) (Club, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if _, ok := svc.store.GetTeacher(requestingTeacher); !ok {
		return Club{}, ErrTeacherNotFound
	}
	if len(svc.store.TeacherClubs(requestingTeacher)) > 0 {
		return Club{}, ErrTeacherAlreadyAdvises
	}
	if nc.CoAdvisorID != "" {
		if nc.CoAdvisorID == requestingTeacher {
			return Club{}, core.NewValidationError(nil,
				core.FieldError{Field: "coAdvisorId", Error: "co-advisor must differ from the lead advisor"})
		}
		if _, ok := svc.store.GetTeacher(nc.CoAdvisorID); !ok {
			return Club{}, ErrTeacherNotFound
		}
		if len(svc.store.TeacherClubs(nc.CoAdvisorID)) > 0 {
			return Club{}, ErrTeacherAlreadyAdvises
		}
	}

	capacity := nc.Capacity
	if capacity == 0 {
		capacity = DefaultCapacity
		if nc.CoAdvisorID != "" {
			capacity = CoAdvisedCapacity
		}
	}

	club := Club{
		ID:          ID(uuid.New().String()),
		Name:        nc.Name,
		Type:        nc.Type,
		Description: nc.Description,
		LevelTarget: nc.LevelTarget,
		Capacity:    capacity,
		Location:    nc.Location,
		Phone:       nc.Phone,
		AdvisorID:   requestingTeacher,
		CoAdvisorID: nc.CoAdvisorID,
	}
	svc.store.PutClub(club)
	svc.notify()
	return club, nil
}

// UpdateClub replaces the stored record by id match. Capacity is taken as
// given (never re-derived from the co-advisor). Advisor changes must keep the
// one-club-per-teacher invariant.
func (svc *Service) UpdateClub(c Club) (Club, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if _, ok := svc.store.GetClub(c.ID); !ok {
		return Club{}, ErrClubNotFound
	}
	if c.CoAdvisorID != "" && c.CoAdvisorID == c.AdvisorID {
		return Club{}, core.NewValidationError(nil,
			core.FieldError{Field: "coAdvisorId", Error: "co-advisor must differ from the lead advisor"})
	}
	for _, tid := range []ID{c.AdvisorID, c.CoAdvisorID} {
		if tid == "" {
			continue
		}
		for _, other := range svc.store.TeacherClubs(tid) {
			if other.ID != c.ID {
				return Club{}, ErrTeacherAlreadyAdvises
			}
		}
	}

	svc.store.PutClub(c)
	svc.notify()
	return c, nil
}

// DeleteClub removes the club and every student registered to it.
func (svc *Service) DeleteClub(clubID ID) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if _, ok := svc.store.GetClub(clubID); !ok {
		return nil // idempotent
	}
	svc.store.DeleteStudentsByClub(clubID)
	svc.store.DeleteClub(clubID)
	svc.notify()
	return nil
}

// ---------------------------------------------------------------------------
// Teachers

func (svc *Service) AddTeacher(t Teacher) (Teacher, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if _, ok := svc.store.GetTeacher(t.ID); ok {
		return Teacher{}, ErrDuplicateTeacher
	}
	svc.store.PutTeacher(t)
	svc.notify()
	return t, nil
}

// BulkAddTeachers inserts the teachers whose ids are new and skips the rest.
// Partial success is the designed behavior; it never fails wholesale.
func (svc *Service) BulkAddTeachers(list []Teacher) BulkResult {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	res := BulkResult{Added: []Teacher{}, Skipped: []ID{}}
	seen := make(map[ID]struct{}, len(list))
	for _, t := range list {
		_, exists := svc.store.GetTeacher(t.ID)
		if _, dup := seen[t.ID]; exists || dup {
			res.Skipped = append(res.Skipped, t.ID)
			continue
		}
		seen[t.ID] = struct{}{}
		svc.store.PutTeacher(t)
		res.Added = append(res.Added, t)
	}
	if len(res.Added) > 0 {
		svc.notify()
	}
	return res
}

// UpdateTeacher replaces the teacher stored under oldID. An id change
// cascades to every club referencing the old id as advisor or co-advisor.
func (svc *Service) UpdateTeacher(oldID ID, t Teacher) (Teacher, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if _, ok := svc.store.GetTeacher(oldID); !ok {
		return Teacher{}, ErrTeacherNotFound
	}
	if t.ID != oldID {
		if _, exists := svc.store.GetTeacher(t.ID); exists {
			return Teacher{}, ErrDuplicateTeacher
		}
	}

	svc.store.ReplaceTeacher(oldID, t)
	if t.ID != oldID {
		for _, c := range svc.store.Clubs() {
			changed := false
			if c.AdvisorID == oldID {
				c.AdvisorID = t.ID
				changed = true
			}
			if c.CoAdvisorID == oldID {
				c.CoAdvisorID = t.ID
				changed = true
			}
			if changed {
				svc.store.PutClub(c)
			}
		}
	}
	svc.notify()
	return t, nil
}

// DeleteTeacher removes the teacher and cascades to every club the teacher
// advises or co-advises, which in turn removes those clubs' registrations.
func (svc *Service) DeleteTeacher(id ID) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if _, ok := svc.store.GetTeacher(id); !ok {
		return nil // idempotent
	}
	for _, c := range svc.store.TeacherClubs(id) {
		svc.store.DeleteStudentsByClub(c.ID)
		svc.store.DeleteClub(c.ID)
	}
	svc.store.DeleteTeacher(id)
	svc.notify()
	return nil
}

// ---------------------------------------------------------------------------
// Announcements

func (svc *Service) CreateAnnouncement(na NewAnnouncement) (Announcement, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	ann := Announcement{
		ID:       ID(uuid.New().String()),
		Title:    na.Title,
		Content:  na.Content,
		Date:     time.Now().UTC(),
		IsPinned: na.IsPinned,
	}
	svc.store.PutAnnouncement(ann)
	svc.notify()
	return ann, nil
}

func (svc *Service) UpdateAnnouncement(a Announcement) (Announcement, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	orig, ok := svc.store.GetAnnouncement(a.ID)
	if !ok {
		return Announcement{}, ErrAnnouncementNotFound
	}
	if a.Date.IsZero() {
		a.Date = orig.Date
	}
	svc.store.PutAnnouncement(a)
	svc.notify()
	return a, nil
}

func (svc *Service) DeleteAnnouncement(id ID) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	if _, ok := svc.store.GetAnnouncement(id); !ok {
		return nil // idempotent
	}
	svc.store.DeleteAnnouncement(id)
	svc.notify()
	return nil
}

func (svc *Service) ToggleAnnouncementPin(id ID) (Announcement, error) {
	return svc.toggleAnnouncement(id, func(a *Announcement) { a.IsPinned = !a.IsPinned })
}

// ToggleAnnouncementHide flips visibility; hidden entries stay in storage but
// are excluded from the public listing.
func (svc *Service) ToggleAnnouncementHide(id ID) (Announcement, error) {
	return svc.toggleAnnouncement(id, func(a *Announcement) { a.IsHidden = !a.IsHidden })
}

func (svc *Service) toggleAnnouncement(id ID, flip func(*Announcement)) (Announcement, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	ann, ok := svc.store.GetAnnouncement(id)
	if !ok {
		return Announcement{}, ErrAnnouncementNotFound
	}
	flip(&ann)
	svc.store.PutAnnouncement(ann)
	svc.notify()
	return ann, nil
}

// ---------------------------------------------------------------------------
// Settings

func (svc *Service) ToggleSystemOpen() Settings {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	stg := svc.store.Settings()
	stg.IsSystemOpen = !stg.IsSystemOpen
	svc.store.PutSettings(stg)
	svc.notify()
	return stg
}

func (svc *Service) UpdateRegistrationRules(rules []string) Settings {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	stg := svc.store.Settings()
	stg.RegistrationRules = rules
	svc.store.PutSettings(stg)
	svc.notify()
	return stg
}

// ---------------------------------------------------------------------------
// Auth

// AuthenticateTeacher resolves a teacher login by id code.
func (svc *Service) AuthenticateTeacher(id ID) (Teacher, error) {
	t, ok := svc.store.GetTeacher(ID(core.CleanString(string(id))))
	if !ok {
		return Teacher{}, ErrBadCredentials
	}
	return t, nil
}

// AuthenticateAdmin compares the given password against the configured hash.
func (svc *Service) AuthenticateAdmin(password string) error {
	if svc.conf == nil || svc.conf.AdminPasswordHash == "" {
		return errors.New("admin login is not configured")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(svc.conf.AdminPasswordHash), []byte(password)); err != nil {
		return ErrBadCredentials
	}
	return nil
}

// ---------------------------------------------------------------------------
// Read models

func (svc *Service) Teachers() []Teacher { return svc.store.Teachers() }
func (svc *Service) Students() []Student { return svc.store.Students() }
func (svc *Service) Settings() Settings  { return svc.store.Settings() }

func (svc *Service) GetStudent(id ID) (Student, error) {
	std, ok := svc.store.GetStudent(id)
	if !ok {
		return Student{}, ErrStudentNotFound
	}
	return std, nil
}

func (svc *Service) GetClub(id ID) (RankedClub, error) {
	c, ok := svc.store.GetClub(id)
	if !ok {
		return RankedClub{}, ErrClubNotFound
	}
	return svc.annotate(c), nil
}

// Clubs lists every club with its enrollment, in insertion order.
func (svc *Service) Clubs() []RankedClub {
	clubs := svc.store.Clubs()
	ranked := make([]RankedClub, 0, len(clubs))
	for _, c := range clubs {
		ranked = append(ranked, svc.annotate(c))
	}
	return ranked
}

func (svc *Service) PopularityRanking(limit int) []RankedClub {
	return svc.store.PopularityRanking(limit)
}

func (svc *Service) AvailabilityRanking() []RankedClub {
	return svc.store.AvailabilityRanking()
}

// Roster assembles the printable club detail. Advisor ids that no longer
// resolve are rendered with a fallback name instead of failing.
func (svc *Service) Roster(clubID ID) (ClubRoster, error) {
	club, ok := svc.store.GetClub(clubID)
	if !ok {
		return ClubRoster{}, ErrClubNotFound
	}

	students := make([]Student, 0)
	var stats RosterStats
	for _, s := range svc.store.Students() {
		if s.ClubID != clubID {
			continue
		}
		students = append(students, s)
		stats.Total++
		switch {
		case s.Grade == nil:
			stats.Pending++
		case *s.Grade == GradePass:
			stats.Passed++
		case *s.Grade == GradeFail:
			stats.Failed++
		}
	}
	sort.SliceStable(students, func(i, j int) bool {
		a, b := students[i], students[j]
		if a.Level != b.Level {
			return a.Level < b.Level
		}
		if a.Room != b.Room {
			return SeatNumberLess(a.Room, b.Room)
		}
		return SeatNumberLess(a.SeatNumber, b.SeatNumber)
	})

	roster := ClubRoster{
		Club:        club,
		AdvisorName: svc.teacherName(club.AdvisorID),
		Enrollment:  stats.Total,
		Students:    students,
		Stats:       stats,
	}
	if club.CoAdvisorID != "" {
		roster.CoAdvisorName = svc.teacherName(club.CoAdvisorID)
	}
	return roster, nil
}

// TeacherRollups lists every teacher with their clubs and total
// registrations, narrowed and ordered by the filter.
func (svc *Service) TeacherRollups(filter RollupFilter) []TeacherRollup {
	rollups := make([]TeacherRollup, 0)
	for _, t := range svc.store.Teachers() {
		if filter.Department != "" && t.Department != filter.Department {
			continue
		}
		clubs := svc.store.TeacherClubs(t.ID)
		if filter.ClubName != "" && !anyClubNameContains(clubs, filter.ClubName) {
			continue
		}
		rollups = append(rollups, TeacherRollup{
			Teacher:      t,
			Clubs:        clubs,
			StudentTotal: svc.store.TeacherStudentTotal(t.ID),
		})
	}
	switch filter.Sort {
	case "asc":
		sort.SliceStable(rollups, func(i, j int) bool { return rollups[i].StudentTotal < rollups[j].StudentTotal })
	case "desc":
		sort.SliceStable(rollups, func(i, j int) bool { return rollups[i].StudentTotal > rollups[j].StudentTotal })
	}
	return rollups
}

// PublicAnnouncements excludes hidden entries and sorts pinned first, then
// newest first.
func (svc *Service) PublicAnnouncements() []Announcement {
	anns := make([]Announcement, 0)
	for _, a := range svc.store.Announcements() {
		if !a.IsHidden {
			anns = append(anns, a)
		}
	}
	sortAnnouncements(anns)
	return anns
}

// AllAnnouncements includes hidden entries (admin view), same ordering.
func (svc *Service) AllAnnouncements() []Announcement {
	anns := svc.store.Announcements()
	sortAnnouncements(anns)
	return anns
}

func sortAnnouncements(anns []Announcement) {
	sort.SliceStable(anns, func(i, j int) bool {
		if anns[i].IsPinned != anns[j].IsPinned {
			return anns[i].IsPinned
		}
		return anns[i].Date.After(anns[j].Date)
	})
}

// ---------------------------------------------------------------------------
// helpers

func (svc *Service) requireClubAdvisor(actor Actor, clubID ID) error {
	if actor.IsAdmin {
		return nil
	}
	club, ok := svc.store.GetClub(clubID)
	if !ok {
		// the club is gone; only an admin can still touch the orphan
		return ErrNotAdvisor
	}
	if club.AdvisorID == actor.TeacherID || (club.CoAdvisorID != "" && club.CoAdvisorID == actor.TeacherID) {
		return nil
	}
	return ErrNotAdvisor
}

func (svc *Service) annotate(c Club) RankedClub {
	enrollment := svc.store.ClubEnrollment(c.ID)
	return RankedClub{Club: c, Enrollment: enrollment, IsFull: enrollment >= c.Capacity}
}

func (svc *Service) teacherName(id ID) string {
	if t, ok := svc.store.GetTeacher(id); ok {
		return t.Name
	}
	return UnknownTeacherName
}

func anyClubNameContains(clubs []Club, sub string) bool {
	sub = strings.ToLower(sub)
	for _, c := range clubs {
		if strings.Contains(strings.ToLower(c.Name), sub) {
			return true
		}
	}
	return false
}

// sendClubFullNotice emails the advisors once a club reaches capacity.
// Best effort: skipped entirely when no advisor has an email on file.
func (svc *Service) sendClubFullNotice(club Club) {
	if svc.mailSvc == nil {
		return
	}
	var to []mail.Address
	for _, tid := range []ID{club.AdvisorID, club.CoAdvisorID} {
		if tid == "" {
			continue
		}
		if t, ok := svc.store.GetTeacher(tid); ok && t.Email != "" {
			to = append(to, mail.Address{Name: t.Name, Address: t.Email})
		}
	}
	if len(to) == 0 {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      to,
		Subject: fmt.Sprintf("ชุมนุม %s เต็มแล้ว", club.Name),
		TextContent: fmt.Sprintf(
			"ชุมนุม %s มีนักเรียนลงทะเบียนครบ %d คนแล้ว ระบบจะไม่รับสมัครเพิ่ม",
			club.Name, club.Capacity,
		),
	})
}
