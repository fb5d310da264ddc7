package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nwschool/clubreg/core/registry"
)

type teacherApi struct {
	svc      *registry.Service
	validate *validator.Validate
}

func registerTeacherAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *registry.Service, validate *validator.Validate) {
	api := teacherApi{svc: svc, validate: validate}

	// the teacher roster is admin-managed
	tg := g.Group("/teachers", jwt, adminMiddleware())
	tg.GET("", api.query)
	tg.POST("", api.create)
	tg.POST("/bulk", api.bulkCreate)
	tg.PUT("/:id", api.update)
	tg.DELETE("/:id", api.destroy)
}

func (api *teacherApi) query(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Teachers())
}

func (api *teacherApi) create(ctx echo.Context) error {
	var data registry.Teacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Teacher")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	teacher, err := api.svc.AddTeacher(data)
	if err != nil {
		return errors.Wrap(err, "adding teacher")
	}
	return ctx.JSON(http.StatusCreated, teacher)
}

// bulkCreate partitions the import into inserted and skipped-duplicate
// entries; it never fails wholesale.
func (api *teacherApi) bulkCreate(ctx echo.Context) error {
	var data []registry.Teacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to []Teacher")
	}
	// validate by index so the in-place normalization survives into the import
	for i := range data {
		if err := data[i].Validate(api.validate); err != nil {
			return err
		}
	}

	res := api.svc.BulkAddTeachers(data)
	return ctx.JSON(http.StatusOK, res)
}

func (api *teacherApi) update(ctx echo.Context) error {
	var data registry.Teacher
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Teacher")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	teacher, err := api.svc.UpdateTeacher(registry.ID(ctx.Param("id")), data)
	if err != nil {
		return errors.Wrap(err, "updating teacher")
	}
	return ctx.JSON(http.StatusOK, teacher)
}

func (api *teacherApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteTeacher(registry.ID(ctx.Param("id"))); err != nil {
		return errors.Wrap(err, "deleting teacher")
	}
	return ctx.NoContent(http.StatusNoContent)
}
