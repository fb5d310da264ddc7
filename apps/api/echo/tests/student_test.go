package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/nwschool/clubreg/core/registry"
	"github.com/nwschool/clubreg/tests"
)

func Test_studentApi_register(t *testing.T) {
	resetState()
	tch := testutil.CreateTeacher(t, regSvc, "T001", "สมชาย ใจดี", "คณิตศาสตร์")
	club := testutil.CreateClub(t, regSvc, tch.ID, "หมากรุก", registry.LevelJunior)
	testutil.RegisterStudent(t, regSvc, "10001", "ก", "ม.1", "1", "1", club.ID)

	payload := func(id, level, room string, clubID registry.ID) []byte {
		return marchallObj(t, registry.NewStudent{
			ID: registry.ID(id), Name: "นักเรียน", Level: level, Room: room, SeatNumber: "5", ClubID: clubID,
		})
	}

	tests := []httpTest{
		{
			name: "required fields", body: []byte(`{}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{
				"id":         "this field is required",
				"name":       "this field is required",
				"level":      "this field is required",
				"room":       "this field is required",
				"seatNumber": "this field is required",
				"clubId":     "this field is required",
			}),
		},
		{
			name: "malformed student id", body: payload("123", "ม.1", "1", club.ID), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"id": "a student id is a 5-digit code"}),
		},
		{
			name: "room out of range", body: payload("10002", "ม.1", "14", club.ID), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"room": "room must be between 1 and 13"}),
		},
		{name: "unknown level", body: payload("10002", "ม.7", "1", club.ID), wantCode: http.StatusBadRequest},
		{
			name: "duplicate id", body: payload("10001", "ม.1", "1", club.ID), wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: registry.ErrDuplicateStudent.Error()}),
		},
		{
			name: "unknown club", body: payload("10002", "ม.1", "1", "nope"), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: registry.ErrClubNotFound.Error()}),
		},
		{
			name: "level not accepted", body: payload("10002", "ม.4", "1", club.ID), wantCode: http.StatusConflict,
			wantData: marchallObj(t, httpErr{Error: registry.ErrLevelNotAccepted.Error()}),
		},
		{name: "registered", body: payload("10002", "ม.2", "1", club.ID), wantCode: http.StatusCreated},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/students"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				var std registry.Student
				if err := json.Unmarshal(rec.Body.Bytes(), &std); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if std.Grade != nil {
					t.Errorf("failed! new registration carries grade %v", *std.Grade)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_studentApi_register_paddedID(t *testing.T) {
	resetState()
	tch := testutil.CreateTeacher(t, regSvc, "T001", "สมชาย", "คณิตศาสตร์")
	club := testutil.CreateClub(t, regSvc, tch.ID, "หมากรุก", registry.LevelBoth)

	// whitespace is stripped before the id is checked or stored
	body := []byte(`{"id":" 10001 ","name":" ก ","level":"ม.1","room":"1","seatNumber":"1","clubId":"` + string(club.ID) + `"}`)
	req, rec := newRequest(http.MethodPost, "/v1/students", body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	std, err := regSvc.GetStudent("10001")
	if err != nil {
		t.Fatalf("GetStudent() failed: padded id was stored raw (%v)", err)
	}
	if std.Name != "ก" {
		t.Errorf("failed! name = %q, want trimmed", std.Name)
	}

	// the canonical form now collides
	body = []byte(`{"id":"10001","name":"ข","level":"ม.1","room":"1","seatNumber":"2","clubId":"` + string(club.ID) + `"}`)
	req, rec = newRequest(http.MethodPost, "/v1/students", body)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusConflict,
		wantData: marchallObj(t, httpErr{Error: registry.ErrDuplicateStudent.Error()}),
	}, rec)
}

func Test_studentApi_register_systemClosed(t *testing.T) {
	resetState()
	tch := testutil.CreateTeacher(t, regSvc, "T001", "สมชาย", "คณิตศาสตร์")
	club := testutil.CreateClub(t, regSvc, tch.ID, "หมากรุก", registry.LevelBoth)
	regSvc.ToggleSystemOpen() // close the gate

	body := marchallObj(t, registry.NewStudent{
		ID: "10001", Name: "ก", Level: "ม.1", Room: "1", SeatNumber: "1", ClubID: club.ID,
	})
	req, rec := newRequest(http.MethodPost, "/v1/students", body)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{
		wantCode: http.StatusConflict,
		wantData: marchallObj(t, httpErr{Error: registry.ErrSystemClosed.Error()}),
	}, rec)
}

func Test_studentApi_update(t *testing.T) {
	resetState()
	lead := testutil.CreateTeacher(t, regSvc, "T001", "สมชาย", "คณิตศาสตร์")
	other := testutil.CreateTeacher(t, regSvc, "T002", "สมหญิง", "ศิลปะ")
	club := testutil.CreateClub(t, regSvc, lead.ID, "หมากรุก", registry.LevelBoth)
	testutil.CreateClub(t, regSvc, other.ID, "วาดภาพ", registry.LevelBoth)
	testutil.RegisterStudent(t, regSvc, "10001", "ก", "ม.1", "1", "1", club.ID)

	body := marchallObj(t, registry.UpdateStudent{Name: "เด็กชาย ก"})
	tests := []httpTest{
		{name: "auth required", body: body, wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "not an advisor", body: body, token: getTeacherToken(t, other),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "advisor updates", body: body, token: getTeacherToken(t, lead), wantCode: http.StatusOK},
		{name: "admin updates", body: marchallObj(t, registry.UpdateStudent{Room: "2"}), token: getAdminToken(t), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPut
		tt.path = "/v1/students/10001"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}

	std, err := regSvc.GetStudent("10001")
	if err != nil {
		t.Fatalf("GetStudent() failed: %v", err)
	}
	if std.Name != "เด็กชาย ก" || std.Room != "2" {
		t.Errorf("merge result = %+v", std)
	}
}

func Test_studentApi_grade(t *testing.T) {
	resetState()
	lead := testutil.CreateTeacher(t, regSvc, "T001", "สมชาย", "คณิตศาสตร์")
	other := testutil.CreateTeacher(t, regSvc, "T002", "สมหญิง", "ศิลปะ")
	club := testutil.CreateClub(t, regSvc, lead.ID, "หมากรุก", registry.LevelBoth)
	testutil.CreateClub(t, regSvc, other.ID, "วาดภาพ", registry.LevelBoth)
	testutil.RegisterStudent(t, regSvc, "10001", "ก", "ม.1", "1", "1", club.ID)

	tests := []httpTest{
		{name: "auth required", body: []byte(`{"grade":"ผ"}`), wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "invalid grade", body: []byte(`{"grade":"A"}`), token: getTeacherToken(t, lead), wantCode: http.StatusBadRequest},
		{
			name: "not an advisor", body: []byte(`{"grade":"ผ"}`), token: getTeacherToken(t, other),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{name: "advisor grades pass", body: []byte(`{"grade":"ผ"}`), token: getTeacherToken(t, lead), wantCode: http.StatusOK},
		{name: "advisor regrades fail", body: []byte(`{"grade":"มผ"}`), token: getTeacherToken(t, lead), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		tt.method = http.MethodPut
		tt.path = "/v1/students/10001/grade"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusOK {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}

	std, err := regSvc.GetStudent("10001")
	if err != nil {
		t.Fatalf("GetStudent() failed: %v", err)
	}
	if std.Grade == nil || *std.Grade != registry.GradeFail {
		t.Errorf("grade = %v, want มผ", std.Grade)
	}
}

func Test_studentApi_destroy(t *testing.T) {
	resetState()
	lead := testutil.CreateTeacher(t, regSvc, "T001", "สมชาย", "คณิตศาสตร์")
	club := testutil.CreateClub(t, regSvc, lead.ID, "หมากรุก", registry.LevelBoth)
	testutil.RegisterStudent(t, regSvc, "10001", "ก", "ม.1", "1", "1", club.ID)

	req, rec := newAuthRequest(http.MethodDelete, "/v1/students/10001", getTeacherToken(t, lead))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("failed! code = %v; want %v", rec.Code, http.StatusNoContent)
	}

	// withdrawing an absent id stays a 204
	req, rec = newAuthRequest(http.MethodDelete, "/v1/students/10001", getTeacherToken(t, lead))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("failed! code = %v; want %v", rec.Code, http.StatusNoContent)
	}
}
