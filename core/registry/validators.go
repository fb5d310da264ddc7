package registry

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/nwschool/clubreg/core"
)

var (
	// department names contain spaces so the stock `oneof` tag cannot hold them
	departmentTag  = "department"
	departmentText = "unknown department"

	roomTag  = "room"
	roomText = "room must be between 1 and 13"
)

// InitValidators registers the registry package's custom validation tags.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(departmentTag, departmentValidation)
	core.RegisterCustomTranslation(validate, translator, departmentTag, departmentText)

	_ = validate.RegisterValidation(roomTag, roomValidation)
	core.RegisterCustomTranslation(validate, translator, roomTag, roomText)
}

func departmentValidation(fl validator.FieldLevel) bool {
	return containsString(Departments, fl.Field().String())
}

func roomValidation(fl validator.FieldLevel) bool {
	return containsString(Rooms, fl.Field().String())
}

// The Validate methods normalize free-text input in place before checking:
// the value that passes validation is the value the service stores, so a
// whitespace-padded id can never sit next to its canonical form.

func (ns *NewStudent) Validate(validate *validator.Validate) error {
	ns.ID = ID(core.CleanString(string(ns.ID)))
	ns.Name = core.CleanString(ns.Name)
	ns.ClubID = ID(core.CleanString(string(ns.ClubID)))
	return validate.Struct(ns)
}

func (nc *NewClub) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.CoAdvisorID = ID(core.CleanString(string(nc.CoAdvisorID)))
	return validate.Struct(nc)
}

func (us *UpdateStudent) Validate(validate *validator.Validate) error {
	us.ID = ID(core.CleanString(string(us.ID)))
	us.Name = core.CleanString(us.Name)
	return validate.Struct(us)
}

func (t *Teacher) Validate(validate *validator.Validate) error {
	t.ID = ID(core.CleanString(string(t.ID)))
	t.Name = core.CleanString(t.Name)
	t.Email = core.CleanString(t.Email, true)
	return validate.Struct(t)
}

func (c *Club) Validate(validate *validator.Validate) error {
	c.Name = core.CleanString(c.Name)
	return validate.Struct(c)
}

func (na *NewAnnouncement) Validate(validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	return validate.Struct(na)
}

func (a *Announcement) Validate(validate *validator.Validate) error {
	a.Title = core.CleanString(a.Title)
	return validate.Struct(a)
}
