package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nwschool/clubreg/core/registry"
)

type announcementApi struct {
	svc      *registry.Service
	validate *validator.Validate
}

func registerAnnouncementAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *registry.Service, validate *validator.Validate) {
	api := announcementApi{svc: svc, validate: validate}

	ng := g.Group("/announcements")

	// public listing: hidden entries excluded, pinned first
	ng.GET("", api.query)

	ag := ng.Group("", jwt, adminMiddleware())
	ag.GET("/all", api.queryAll)
	ag.POST("", api.create)
	ag.PUT("/:id", api.update)
	ag.DELETE("/:id", api.destroy)
	ag.POST("/:id/toggle-pin", api.togglePin)
	ag.POST("/:id/toggle-hide", api.toggleHide)
}

func (api *announcementApi) query(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.PublicAnnouncements())
}

func (api *announcementApi) queryAll(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.AllAnnouncements())
}

func (api *announcementApi) create(ctx echo.Context) error {
	var data registry.NewAnnouncement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAnnouncement")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ann, err := api.svc.CreateAnnouncement(data)
	if err != nil {
		return errors.Wrap(err, "creating announcement")
	}
	return ctx.JSON(http.StatusCreated, ann)
}

func (api *announcementApi) update(ctx echo.Context) error {
	var data registry.Announcement
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Announcement")
	}
	data.ID = registry.ID(ctx.Param("id"))
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	ann, err := api.svc.UpdateAnnouncement(data)
	if err != nil {
		return errors.Wrap(err, "updating announcement")
	}
	return ctx.JSON(http.StatusOK, ann)
}

func (api *announcementApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteAnnouncement(registry.ID(ctx.Param("id"))); err != nil {
		return errors.Wrap(err, "deleting announcement")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *announcementApi) togglePin(ctx echo.Context) error {
	ann, err := api.svc.ToggleAnnouncementPin(registry.ID(ctx.Param("id")))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ann)
}

func (api *announcementApi) toggleHide(ctx echo.Context) error {
	ann, err := api.svc.ToggleAnnouncementHide(registry.ID(ctx.Param("id")))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ann)
}
