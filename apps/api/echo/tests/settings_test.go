package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/nwschool/clubreg/core/registry"
	syncsvc "github.com/nwschool/clubreg/services/sync"
	"github.com/nwschool/clubreg/tests"
)

func Test_settingsApi(t *testing.T) {
	resetState()
	tch := testutil.CreateTeacher(t, regSvc, "T001", "สมชาย", "คณิตศาสตร์")
	adminToken := getAdminToken(t)

	// the gate state and rules are public: the registration form shows them
	req, rec := newRequest(http.MethodGet, "/v1/settings")
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var stg registry.Settings
	if err := json.Unmarshal(rec.Body.Bytes(), &stg); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if !stg.IsSystemOpen {
		t.Errorf("failed! IsSystemOpen = false, want true")
	}

	// writes are admin-only
	req, rec = newAuthRequest(http.MethodPut, "/v1/settings/open", getTeacherToken(t, tch))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}, rec)

	req, rec = newAuthRequest(http.MethodPut, "/v1/settings/open", adminToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stg); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if stg.IsSystemOpen {
		t.Errorf("failed! IsSystemOpen = true after toggle, want false")
	}

	body := []byte(`{"rules":["ลงทะเบียนได้คนละ 1 ชุมนุม"]}`)
	req, rec = newAuthRequest(http.MethodPut, "/v1/settings/rules", adminToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &stg); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if len(stg.RegistrationRules) != 1 || stg.RegistrationRules[0] != "ลงทะเบียนได้คนละ 1 ชุมนุม" {
		t.Errorf("failed! rules = %v", stg.RegistrationRules)
	}
}

func Test_reportApi_popularity(t *testing.T) {
	resetState()
	t1 := testutil.CreateTeacher(t, regSvc, "T001", "ก", "คณิตศาสตร์")
	t2 := testutil.CreateTeacher(t, regSvc, "T002", "ข", "ศิลปะ")
	t3 := testutil.CreateTeacher(t, regSvc, "T003", "ค", "ศิลปะ")
	big := testutil.CreateClub(t, regSvc, t1.ID, "หมากรุก", registry.LevelBoth)
	mid := testutil.CreateClub(t, regSvc, t2.ID, "ดนตรีไทย", registry.LevelBoth)
	testutil.CreateClub(t, regSvc, t3.ID, "ว่าง", registry.LevelBoth)
	testutil.RegisterStudent(t, regSvc, "10001", "น", "ม.1", "1", "1", big.ID)
	testutil.RegisterStudent(t, regSvc, "10002", "น", "ม.1", "1", "2", big.ID)
	testutil.RegisterStudent(t, regSvc, "10003", "น", "ม.1", "1", "3", mid.ID)

	req, rec := newRequest(http.MethodGet, "/v1/reports/popularity?limit=2")
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var ranked []registry.RankedClub
	if err := json.Unmarshal(rec.Body.Bytes(), &ranked); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("failed! len(ranked) = %d, want 2", len(ranked))
	}
	if ranked[0].ID != big.ID || ranked[0].Enrollment != 2 {
		t.Errorf("failed! top = %s (%d), want %s (2)", ranked[0].Name, ranked[0].Enrollment, big.Name)
	}

	// "all" lifts the truncation
	req, rec = newRequest(http.MethodGet, "/v1/reports/popularity?limit=all")
	app.ServeHTTP(rec, req)
	if err := json.Unmarshal(rec.Body.Bytes(), &ranked); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if len(ranked) != 3 {
		t.Errorf("failed! len(ranked) = %d, want 3", len(ranked))
	}
}

func Test_reportApi_availability(t *testing.T) {
	resetState()
	t1 := testutil.CreateTeacher(t, regSvc, "T001", "ก", "คณิตศาสตร์")
	club := testutil.CreateClub(t, regSvc, t1.ID, "หมากรุก", registry.LevelBoth)
	testutil.RegisterStudent(t, regSvc, "10001", "น", "ม.1", "1", "1", club.ID)

	req, rec := newRequest(http.MethodGet, "/v1/reports/availability")
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var ranked []registry.RankedClub
	if err := json.Unmarshal(rec.Body.Bytes(), &ranked); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if len(ranked) != 1 || ranked[0].IsFull {
		t.Errorf("failed! ranked = %+v", ranked)
	}
}

func Test_reportApi_teacherRollups(t *testing.T) {
	resetState()
	t1 := testutil.CreateTeacher(t, regSvc, "T001", "ก", "คณิตศาสตร์")
	t2 := testutil.CreateTeacher(t, regSvc, "T002", "ข", "ศิลปะ")
	club := testutil.CreateClub(t, regSvc, t1.ID, "หมากรุก", registry.LevelBoth)
	testutil.CreateClub(t, regSvc, t2.ID, "ดนตรีไทย", registry.LevelBoth)
	testutil.RegisterStudent(t, regSvc, "10001", "น", "ม.1", "1", "1", club.ID)

	// the rollup is an admin report
	req, rec := newRequest(http.MethodGet, "/v1/reports/teachers")
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)

	req, rec = newAuthRequest(http.MethodGet, "/v1/reports/teachers?department=คณิตศาสตร์", getAdminToken(t))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var rollups []registry.TeacherRollup
	if err := json.Unmarshal(rec.Body.Bytes(), &rollups); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if len(rollups) != 1 || rollups[0].ID != t1.ID || rollups[0].StudentTotal != 1 {
		t.Errorf("failed! rollups = %+v", rollups)
	}
}

func Test_syncApi_status(t *testing.T) {
	resetState()

	req, rec := newRequest(http.MethodGet, "/v1/sync/status")
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; body %s", rec.Code, rec.Body.String())
	}
	var status syncsvc.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if status.Syncing {
		t.Errorf("failed! Syncing = true, want false")
	}
}
