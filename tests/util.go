package testutil

import (
	"testing"

	"github.com/nwschool/clubreg/core"
	"github.com/nwschool/clubreg/core/registry"
	inmemdb "github.com/nwschool/clubreg/storage/inmem"
)

// NewRegistry builds a service over a fresh in-memory store, without a syncer
// or mail service.
func NewRegistry(conf *core.Config) (*registry.Service, *inmemdb.Store) {
	store := inmemdb.NewStore()
	return registry.NewService(store, nil, nil, nil, conf), store
}

func CreateTeacher(t *testing.T, svc *registry.Service, id, name, department string, email ...string) registry.Teacher {
	t.Helper()
	tch := registry.Teacher{ID: registry.ID(id), Name: name, Department: department}
	if len(email) > 0 {
		tch.Email = email[0]
	}
	tch, err := svc.AddTeacher(tch)
	if err != nil {
		t.Fatalf("CreateTeacher() failed: %v", err)
	}
	return tch
}

func CreateClub(
	t *testing.T,
	svc *registry.Service,
	advisorID registry.ID,
	name string,
	target registry.LevelCategory,
	coAdvisorID ...registry.ID,
) registry.Club {
	t.Helper()
	nc := registry.NewClub{
		Name:        name,
		Type:        registry.ClubTypeAcademic,
		LevelTarget: target,
	}
	if len(coAdvisorID) > 0 {
		nc.CoAdvisorID = coAdvisorID[0]
	}
	club, err := svc.CreateClub(nc, advisorID)
	if err != nil {
		t.Fatalf("CreateClub() failed: %v", err)
	}
	return club
}

func RegisterStudent(t *testing.T, svc *registry.Service, id, name, level, room, seat string, clubID registry.ID) registry.Student {
	t.Helper()
	std, err := svc.RegisterStudent(registry.NewStudent{
		ID:         registry.ID(id),
		Name:       name,
		Level:      level,
		Room:       room,
		SeatNumber: seat,
		ClubID:     clubID,
	})
	if err != nil {
		t.Fatalf("RegisterStudent() failed: %v", err)
	}
	return std
}
