package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nwschool/clubreg/core/registry"
)

type clubApi struct {
	svc      *registry.Service
	validate *validator.Validate
}

func registerClubAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *registry.Service, validate *validator.Validate) {
	api := clubApi{svc: svc, validate: validate}

	cg := g.Group("/clubs")

	// public reads
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)

	// authed endpoints
	ag := cg.Group("", jwt, teacherMiddleware())
	ag.POST("", api.create)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)
	ag.GET("/:id/roster", api.roster)
}

func (api *clubApi) query(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Clubs())
}

func (api *clubApi) retrieve(ctx echo.Context) error {
	club, err := api.svc.GetClub(registry.ID(ctx.Param("id")))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, club)
}

func (api *clubApi) create(ctx echo.Context) error {
	var data registry.NewClub
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewClub")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	if actor.TeacherID == "" {
		// admins do not own clubs; creation needs a teacher session
		return errHttpForbidden
	}

	club, err := api.svc.CreateClub(data, actor.TeacherID)
	if err != nil {
		return errors.Wrap(err, "creating club")
	}
	return ctx.JSON(http.StatusCreated, club)
}

func (api *clubApi) update(ctx echo.Context) error {
	id := registry.ID(ctx.Param("id"))
	if err := api.requireLeadAdvisor(ctx, id); err != nil {
		return err
	}

	var data registry.Club
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Club")
	}
	data.ID = id
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	club, err := api.svc.UpdateClub(data)
	if err != nil {
		return errors.Wrap(err, "updating club")
	}
	return ctx.JSON(http.StatusOK, club)
}

func (api *clubApi) destroy(ctx echo.Context) error {
	id := registry.ID(ctx.Param("id"))
	if err := api.requireLeadAdvisor(ctx, id); err != nil {
		return err
	}
	if err := api.svc.DeleteClub(id); err != nil {
		return errors.Wrap(err, "deleting club")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *clubApi) roster(ctx echo.Context) error {
	id := registry.ID(ctx.Param("id"))
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	if !actor.IsAdmin {
		club, err := api.svc.GetClub(id)
		if err != nil {
			return err
		}
		if club.AdvisorID != actor.TeacherID && club.CoAdvisorID != actor.TeacherID {
			return errHttpForbidden
		}
	}

	roster, err := api.svc.Roster(id)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, roster)
}

// requireLeadAdvisor admits the club's lead advisor and admins. Update and
// delete are lead-only actions; the co-advisor manages students, not the club.
func (api *clubApi) requireLeadAdvisor(ctx echo.Context, clubID registry.ID) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	if actor.IsAdmin {
		return nil
	}
	club, err := api.svc.GetClub(clubID)
	if err != nil {
		return err
	}
	if club.AdvisorID != actor.TeacherID {
		return errHttpForbidden
	}
	return nil
}
