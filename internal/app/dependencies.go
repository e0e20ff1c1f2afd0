package app

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klokku/weekcal/internal/clock"
	"github.com/klokku/weekcal/internal/config"
	"github.com/klokku/weekcal/internal/event_bus"
	"github.com/klokku/weekcal/pkg/calendar"
	"github.com/klokku/weekcal/pkg/layout"
	"github.com/klokku/weekcal/pkg/nowline"
	"github.com/klokku/weekcal/pkg/user"
	"github.com/klokku/weekcal/pkg/weekview"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    clock.Clock
	EventBus *event_bus.EventBus

	UserService user.Service
	UserHandler *user.Handler

	CalendarRepository calendar.Repository
	CalendarService    *calendar.Service
	CalendarHandler    *calendar.Handler

	WeekViewService *weekview.Service
	WeekViewHandler *weekview.Handler

	NowLineTicker  *nowline.Ticker
	NowLineHandler *nowline.Handler
}

// BuildDependencies initializes and wires all application services and handlers
// on top of the PostgreSQL repositories.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application, clk clock.Clock) (*Dependencies, error) {
	return buildDependencies(user.NewUserRepo(db), calendar.NewRepository(db), cfg, clk)
}

func buildDependencies(userRepo user.Repo, calendarRepo calendar.Repository, cfg config.Application, clk clock.Clock) (*Dependencies, error) {
	deps := &Dependencies{
		Clock:    clk,
		EventBus: event_bus.NewEventBus(),
	}

	deps.UserService = user.NewUserService(userRepo)
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.CalendarRepository = calendarRepo
	deps.CalendarService = calendar.NewService(deps.CalendarRepository, deps.EventBus, deps.Clock)
	deps.CalendarHandler = calendar.NewHandler(deps.CalendarService)

	deps.WeekViewService = weekview.NewService(deps.CalendarService, layoutMetrics(cfg.Layout), deps.Clock)
	deps.WeekViewHandler = weekview.NewHandler(deps.WeekViewService)

	ticker, err := nowline.NewTicker(deps.EventBus, deps.Clock, cfg.NowLine.Schedule)
	if err != nil {
		return nil, err
	}
	deps.NowLineTicker = ticker
	deps.NowLineHandler = nowline.NewHandler(deps.EventBus, deps.WeekViewService, originChecker(cfg.Cors))

	return deps, nil
}

// layoutMetrics falls back to the built-in grid for every unset value.
func layoutMetrics(cfg config.Layout) layout.Metrics {
	m := layout.DefaultMetrics()
	if cfg.CompactHourHeight > 0 {
		m.CompactHourHeight = cfg.CompactHourHeight
	}
	if cfg.NormalHourHeight > 0 {
		m.NormalHourHeight = cfg.NormalHourHeight
	}
	if cfg.CompactBreakpoint > 0 {
		m.CompactBreakpoint = cfg.CompactBreakpoint
	}
	if cfg.MinEventHeight > 0 {
		m.MinEventHeight = cfg.MinEventHeight
	}
	if cfg.DefaultDuration > 0 {
		m.DefaultDuration = cfg.DefaultDuration
	}
	return m
}
