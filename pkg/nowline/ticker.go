package nowline

import (
	"context"
	"fmt"

	"github.com/klokku/weekcal/internal/clock"
	"github.com/klokku/weekcal/internal/event_bus"
	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
)

const DefaultSchedule = "* * * * *"

// Ticker publishes a NowTick on the event bus on every cron firing, so open
// week views can move their current-time line.
type Ticker struct {
	cron     *cron.Cron
	eventBus *event_bus.EventBus
	clock    clock.Clock
}

// NewTicker validates schedule, a standard 5 field cron expression, and
// registers the tick job. The ticker does not run until Start.
func NewTicker(eventBus *event_bus.EventBus, clk clock.Clock, schedule string) (*Ticker, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	t := &Ticker{
		cron:     cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
		eventBus: eventBus,
		clock:    clk,
	}
	_, err := t.cron.AddFunc(schedule, func() {
		if err := t.Tick(context.Background()); err != nil {
			log.Warnf("now line tick failed: %v", err)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid now line schedule %q: %w", schedule, err)
	}
	return t, nil
}

func (t *Ticker) Start() {
	log.Debug("Starting now line ticker")
	t.cron.Start()
}

// Stop halts the schedule. The returned context is done once a running tick finishes.
func (t *Ticker) Stop() context.Context {
	log.Debug("Stopping now line ticker")
	return t.cron.Stop()
}

// Tick publishes the current time immediately.
func (t *Ticker) Tick(ctx context.Context) error {
	now := t.clock.Now()
	log.Tracef("now line tick at %s", now.Format("15:04"))
	return t.eventBus.Publish(event_bus.NewEvent(ctx, event_bus.NowTickType, event_bus.NowTick{At: now}))
}
