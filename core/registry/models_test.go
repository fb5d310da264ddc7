package registry

import (
	"encoding/json"
	"testing"
)

func TestID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    ID
		wantErr bool
	}{
		{name: "string", raw: `"10001"`, want: "10001"},
		{name: "integer cell", raw: `10001`, want: "10001"},
		{name: "large integer keeps digits", raw: `1234567890123456789`, want: "1234567890123456789"},
		{name: "null", raw: `null`, want: ""},
		{name: "object", raw: `{"id":1}`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id ID
			err := json.Unmarshal([]byte(tt.raw), &id)
			if (err != nil) != tt.wantErr {
				t.Fatalf("UnmarshalJSON() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && id != tt.want {
				t.Errorf("UnmarshalJSON() = %q, want %q", id, tt.want)
			}
		})
	}
}

func TestID_unmarshalInStruct(t *testing.T) {
	// the spreadsheet backend hands back numeric cells for numeric-looking ids
	var s Student
	if err := json.Unmarshal([]byte(`{"id":10001,"clubId":"c-1"}`), &s); err != nil {
		t.Fatalf("json.Unmarshal() error = %v", err)
	}
	if s.ID != "10001" || s.ClubID != "c-1" {
		t.Errorf("decoded = %+v", s)
	}
}

func TestLevelCategory_Accepts(t *testing.T) {
	tests := []struct {
		name  string
		lc    LevelCategory
		level string
		want  bool
	}{
		{name: "junior accepts ม.1", lc: LevelJunior, level: "ม.1", want: true},
		{name: "junior rejects ม.4", lc: LevelJunior, level: "ม.4", want: false},
		{name: "senior accepts ม.6", lc: LevelSenior, level: "ม.6", want: true},
		{name: "senior rejects ม.3", lc: LevelSenior, level: "ม.3", want: false},
		{name: "both accepts ม.1", lc: LevelBoth, level: "ม.1", want: true},
		{name: "both accepts ม.6", lc: LevelBoth, level: "ม.6", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.lc.Accepts(tt.level); got != tt.want {
				t.Errorf("Accepts(%s) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestSeatNumberLess(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{name: "numeric", a: "2", b: "10", want: true},
		{name: "numeric reversed", a: "10", b: "2", want: false},
		{name: "equal", a: "7", b: "7", want: false},
		{name: "non-numeric falls back to strings", a: "a2", b: "b1", want: true},
		{name: "mixed falls back to strings", a: "10", b: "x", want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SeatNumberLess(tt.a, tt.b); got != tt.want {
				t.Errorf("SeatNumberLess(%s, %s) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
