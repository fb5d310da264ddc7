package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nwschool/clubreg/core/registry"
)

var (
	limitParam      = "limit"
	defaultTopLimit = 10
)

// RankingLimit binds the popularity ranking truncation: a count, or "all".
type RankingLimit struct {
	Limit int
}

func (rl *RankingLimit) Bind(ctx echo.Context) {
	rl.Limit = defaultTopLimit

	val := strings.TrimSpace(ctx.QueryParam(limitParam))
	if val == "" {
		return
	}
	if strings.EqualFold(val, "all") {
		rl.Limit = registry.AllClubs
		return
	}
	if n, err := strconv.Atoi(val); err == nil && n > 0 {
		rl.Limit = n
	}
}

// RollupQuery binds the admin teacher-rollup filters.
type RollupQuery struct {
	Filter registry.RollupFilter
}

func (rq *RollupQuery) Bind(ctx echo.Context) {
	rq.Filter.Department = strings.TrimSpace(ctx.QueryParam("department"))
	rq.Filter.ClubName = strings.TrimSpace(ctx.QueryParam("club"))
	switch strings.ToLower(ctx.QueryParam("sort")) {
	case "asc":
		rq.Filter.Sort = "asc"
	case "desc":
		rq.Filter.Sort = "desc"
	}
}
