package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nwschool/clubreg/core/registry"
)

type studentApi struct {
	svc      *registry.Service
	validate *validator.Validate
}

func registerStudentAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *registry.Service, validate *validator.Validate) {
	api := studentApi{svc: svc, validate: validate}

	sg := g.Group("/students")

	// registration is the public entry point; the system-open gate and all
	// duplicate/capacity checks live in the service
	sg.POST("", api.register)

	// advisor endpoints
	ag := sg.Group("/:id", jwt, teacherMiddleware())
	ag.PUT("", api.update)
	ag.PUT("/grade", api.grade)
	ag.DELETE("", api.destroy)
}

func (api *studentApi) register(ctx echo.Context) error {
	var data registry.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	std, err := api.svc.RegisterStudent(data)
	if err != nil {
		return errors.Wrap(err, "registering student")
	}
	return ctx.JSON(http.StatusCreated, std)
}

func (api *studentApi) update(ctx echo.Context) error {
	var data registry.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	std, err := api.svc.UpdateStudentInfo(actor, registry.ID(ctx.Param("id")), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, std)
}

type gradeInput struct {
	Grade registry.Grade `json:"grade" validate:"required,oneof=ผ มผ"`
}

func (api *studentApi) grade(ctx echo.Context) error {
	var data gradeInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to gradeInput")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}

	std, err := api.svc.UpdateStudentGrade(actor, registry.ID(ctx.Param("id")), data.Grade)
	if err != nil {
		return errors.Wrap(err, "grading student")
	}
	return ctx.JSON(http.StatusOK, std)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context actor")
	}
	if err := api.svc.DeleteStudent(actor, registry.ID(ctx.Param("id"))); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}
