package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/nwschool/clubreg/core/registry"
	syncsvc "github.com/nwschool/clubreg/services/sync"
)

// Settings

type settingsApi struct {
	svc *registry.Service
}

func registerSettingsAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *registry.Service) {
	api := settingsApi{svc: svc}

	sg := g.Group("/settings")

	// the registration form needs the gate state and the rules to display
	sg.GET("", api.retrieve)

	ag := sg.Group("", jwt, adminMiddleware())
	ag.PUT("/open", api.toggleOpen)
	ag.PUT("/rules", api.updateRules)
}

func (api *settingsApi) retrieve(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Settings())
}

func (api *settingsApi) toggleOpen(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.ToggleSystemOpen())
}

type rulesInput struct {
	Rules []string `json:"rules"`
}

func (api *settingsApi) updateRules(ctx echo.Context) error {
	var data rulesInput
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to rulesInput")
	}
	return ctx.JSON(http.StatusOK, api.svc.UpdateRegistrationRules(data.Rules))
}

// Reports

type reportApi struct {
	svc *registry.Service
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *registry.Service) {
	api := reportApi{svc: svc}

	rg := g.Group("/reports")
	rg.GET("/popularity", api.popularity)
	rg.GET("/availability", api.availability)
	rg.GET("/teachers", api.teacherRollups, jwt, adminMiddleware())
}

func (api *reportApi) popularity(ctx echo.Context) error {
	var limit RankingLimit
	limit.Bind(ctx)
	return ctx.JSON(http.StatusOK, api.svc.PopularityRanking(limit.Limit))
}

func (api *reportApi) availability(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.AvailabilityRanking())
}

func (api *reportApi) teacherRollups(ctx echo.Context) error {
	var q RollupQuery
	q.Bind(ctx)
	return ctx.JSON(http.StatusOK, api.svc.TeacherRollups(q.Filter))
}

// Sync status

func registerSyncAPI(g *echo.Group, engine *syncsvc.Engine) {
	g.GET("/sync/status", func(ctx echo.Context) error {
		return ctx.JSON(http.StatusOK, engine.Status())
	})
}
