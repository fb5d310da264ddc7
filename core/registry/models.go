package registry

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// ID is a canonical string entity identifier. The spreadsheet backend is
// loosely typed and may hand back numeric cells for ids that look like
// numbers; normalizing once at decode time keeps every comparison a plain
// string equality.
type ID string

func (id ID) String() string { return string(id) }

func (id *ID) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return errors.Wrap(err, "decoding id")
	}
	switch val := v.(type) {
	case string:
		*id = ID(val)
	case json.Number:
		*id = ID(val.String())
	case nil:
		*id = ""
	default:
		return errors.Errorf("invalid id value: %v", v)
	}
	return nil
}

// ClubType classifies a club's activity.
type ClubType string

const (
	ClubTypeSports   ClubType = "กีฬา"
	ClubTypeArts     ClubType = "ศิลปะ"
	ClubTypeAcademic ClubType = "วิชาการ"
	ClubTypeService  ClubType = "บริการ"
	ClubTypeComputer ClubType = "คอมพิวเตอร์"
	ClubTypeOther    ClubType = "อื่นๆ"
)

// LevelCategory constrains which grade levels a club accepts.
type LevelCategory string

const (
	LevelJunior LevelCategory = "ม.ต้น"
	LevelSenior LevelCategory = "ม.ปลาย"
	LevelBoth   LevelCategory = "ทั้งต้นและปลาย"
)

var (
	JuniorLevels = []string{"ม.1", "ม.2", "ม.3"}
	SeniorLevels = []string{"ม.4", "ม.5", "ม.6"}
)

// Accepts reports whether a student of the given grade level may register.
func (lc LevelCategory) Accepts(level string) bool {
	switch lc {
	case LevelJunior:
		return containsString(JuniorLevels, level)
	case LevelSenior:
		return containsString(SeniorLevels, level)
	default:
		return true
	}
}

// Grade is the pass/fail evaluation assigned by a club's advisor.
// An unregistered grade is represented as a nil *Grade (JSON null).
type Grade string

const (
	GradePass Grade = "ผ"
	GradeFail Grade = "มผ"
)

// Departments are the school's fixed department names.
var Departments = []string{
	"ภาษาไทย",
	"คณิตศาสตร์",
	"วิทยาศาสตร์และเทคโนโลยี",
	"สังคมศึกษา ศาสนา และวัฒนธรรม",
	"สุขศึกษาและพลศึกษา",
	"ศิลปะ",
	"การงานอาชีพ",
	"ภาษาต่างประเทศ",
}

// Rooms 1-13.
var Rooms = func() []string {
	rooms := make([]string, 13)
	for i := range rooms {
		rooms[i] = strconv.Itoa(i + 1)
	}
	return rooms
}()

const (
	// DefaultCapacity applies to a club with a single advisor.
	DefaultCapacity = 25
	// CoAdvisedCapacity is the creation-time default when a co-advisor is set.
	// It is a default only: capacity stays an independently editable field and
	// is never recomputed when the co-advisor changes later.
	CoAdvisedCapacity = 50
)

type (
	Teacher struct {
		ID         ID     `json:"id" validate:"required,teacher_id"`
		Name       string `json:"name" validate:"required"`
		Department string `json:"department" validate:"required,department"`
		Email      string `json:"email,omitempty" validate:"omitempty,email"`
	}

	Student struct {
		ID         ID     `json:"id"`
		Name       string `json:"name"`
		Level      string `json:"level"`
		Room       string `json:"room"`
		SeatNumber string `json:"seatNumber"`
		ClubID     ID     `json:"clubId"`
		Grade      *Grade `json:"grade"`
		Note       string `json:"note,omitempty"`
	}

	// Club doubles as the full-replacement update payload, hence the tags.
	Club struct {
		ID          ID            `json:"id"`
		Name        string        `json:"name" validate:"required"`
		Type        ClubType      `json:"type" validate:"required,oneof=กีฬา ศิลปะ วิชาการ บริการ คอมพิวเตอร์ อื่นๆ"`
		Description string        `json:"description"`
		LevelTarget LevelCategory `json:"levelTarget" validate:"required,oneof=ม.ต้น ม.ปลาย ทั้งต้นและปลาย"`
		Capacity    int           `json:"capacity" validate:"required,min=1"`
		Location    string        `json:"location"`
		Phone       string        `json:"phone"`
		AdvisorID   ID            `json:"advisorId" validate:"required,teacher_id"`
		CoAdvisorID ID            `json:"coAdvisorId,omitempty" validate:"omitempty,teacher_id"`
	}

	Announcement struct {
		ID       ID        `json:"id"`
		Title    string    `json:"title" validate:"required"`
		Content  string    `json:"content" validate:"required"`
		Date     time.Time `json:"date"`
		IsPinned bool      `json:"isPinned"`
		IsHidden bool      `json:"isHidden,omitempty"`
	}

	Settings struct {
		IsSystemOpen      bool     `json:"isSystemOpen"`
		RegistrationRules []string `json:"registrationRules"`
	}

	// Snapshot is the aggregate document exchanged with the persistence
	// endpoint and the local cache: the entire state as one unit.
	Snapshot struct {
		Teachers      []Teacher      `json:"teachers"`
		Students      []Student      `json:"students"`
		Clubs         []Club         `json:"clubs"`
		Announcements []Announcement `json:"announcements"`
		Settings      Settings       `json:"settings"`
	}
)

// Input payloads.
type (
	NewStudent struct {
		ID         ID     `json:"id" validate:"required,student_id"`
		Name       string `json:"name" validate:"required"`
		Level      string `json:"level" validate:"required,oneof=ม.1 ม.2 ม.3 ม.4 ม.5 ม.6"`
		Room       string `json:"room" validate:"required,room"`
		SeatNumber string `json:"seatNumber" validate:"required"`
		ClubID     ID     `json:"clubId" validate:"required"`
		Note       string `json:"note,omitempty"`
	}

	NewClub struct {
		Name        string        `json:"name" validate:"required"`
		Type        ClubType      `json:"type" validate:"required,oneof=กีฬา ศิลปะ วิชาการ บริการ คอมพิวเตอร์ อื่นๆ"`
		Description string        `json:"description"`
		LevelTarget LevelCategory `json:"levelTarget" validate:"required,oneof=ม.ต้น ม.ปลาย ทั้งต้นและปลาย"`
		Capacity    int           `json:"capacity" validate:"omitempty,min=1"`
		Location    string        `json:"location"`
		Phone       string        `json:"phone"`
		CoAdvisorID ID            `json:"coAdvisorId,omitempty"`
	}

	// UpdateStudent merges into an existing registration; empty fields are
	// left unchanged. A non-empty ID moves the registration to a new id.
	UpdateStudent struct {
		ID         ID      `json:"id,omitempty" validate:"omitempty,student_id"`
		Name       string  `json:"name,omitempty"`
		Level      string  `json:"level,omitempty" validate:"omitempty,oneof=ม.1 ม.2 ม.3 ม.4 ม.5 ม.6"`
		Room       string  `json:"room,omitempty" validate:"omitempty,room"`
		SeatNumber string  `json:"seatNumber,omitempty"`
		Note       *string `json:"note,omitempty"`
	}

	NewAnnouncement struct {
		Title    string `json:"title" validate:"required"`
		Content  string `json:"content" validate:"required"`
		IsPinned bool   `json:"isPinned"`
	}
)

// Read models.
type (
	// RankedClub annotates a club with its current enrollment.
	RankedClub struct {
		Club
		Enrollment int  `json:"enrollment"`
		IsFull     bool `json:"isFull"`
	}

	// RosterStats summarizes grading progress for a club roster.
	RosterStats struct {
		Total   int `json:"total"`
		Passed  int `json:"passed"`
		Failed  int `json:"failed"`
		Pending int `json:"pending"`
	}

	// ClubRoster is the printable club detail: advisor names resolved
	// defensively ("unknown" on a dangling id) and students ordered by
	// level, room then numeric seat number.
	ClubRoster struct {
		Club          Club        `json:"club"`
		AdvisorName   string      `json:"advisorName"`
		CoAdvisorName string      `json:"coAdvisorName,omitempty"`
		Enrollment    int         `json:"enrollment"`
		Students      []Student   `json:"students"`
		Stats         RosterStats `json:"stats"`
	}

	// TeacherRollup aggregates a teacher's advised clubs and total registrations.
	TeacherRollup struct {
		Teacher
		Clubs        []Club `json:"clubs"`
		StudentTotal int    `json:"studentTotal"`
	}

	// RollupFilter narrows and orders TeacherRollup listings.
	RollupFilter struct {
		Department string // exact department match; empty matches all
		ClubName   string // case-insensitive club name substring
		Sort       string // "asc" | "desc" on StudentTotal; empty keeps insertion order
	}
)

// SeatNumberLess compares seat numbers numerically, falling back to string
// order for non-numeric values.
func SeatNumberLess(a, b string) bool {
	an, aerr := strconv.Atoi(a)
	bn, berr := strconv.Atoi(b)
	if aerr == nil && berr == nil {
		return an < bn
	}
	return a < b
}

func containsString(vals []string, s string) bool {
	for _, v := range vals {
		if v == s {
			return true
		}
	}
	return false
}

// DefaultRules are the registration rules displayed until an admin edits them.
var DefaultRules = []string{
	"นักเรียนสามารถสมัครได้เพียงชุมนุมเดียวเท่านั้น",
	"ถ้าต้องการออก หรือย้ายชุมนุมให้นักเรียนแจ้งครูประจำชุมนุมเพื่อย้าย ครูจะคัดชื่อออก",
	"นักเรียนทุกคนจำเป็น ต้องมีชุมนุม และต้องผ่านเท่านั้น เป็นกิจกรรมบังคับ",
	"แต่ละชุมนุมรับนักเรียนได้เพียง 25 คน ยกเว้นมีครู 2 คน สามารถรับนักเรียนได้ 50 คน",
	"นักเรียนที่มีผลการเรียน \"ไม่ผ่าน\" ให้ติดต่อครูที่ปรึกษาชุมนุมเพื่อทำการแก้ไข",
}

// DefaultSnapshot is the hardcoded startup state used when neither the remote
// endpoint nor any local fallback can provide one.
func DefaultSnapshot() Snapshot {
	return Snapshot{
		Teachers: []Teacher{},
		Students: []Student{},
		Clubs:    []Club{},
		Announcements: []Announcement{
			{
				ID:       "1",
				Title:    "ยินดีต้อนรับสู่ระบบสมัครชุมนุม",
				Content:  "เริ่มเปิดให้ลงทะเบียนภาคเรียนที่ 1/2568 ตั้งแต่วันนี้เป็นต้นไป",
				Date:     time.Now().UTC(),
				IsPinned: true,
			},
		},
		Settings: Settings{
			IsSystemOpen:      true,
			RegistrationRules: DefaultRules,
		},
	}
}
