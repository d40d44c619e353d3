package stage

import (
	"context"
	"time"

	"github.com/zurustar/karakuri/pkg/engine"
	"github.com/zurustar/karakuri/pkg/logger"
)

// TickRate is the headless stepping rate, matching the 60 FPS frame
// pacing of the windowed run.
const TickRate = 60

// RunHeadless fires the green flag and paces the engine on a ticker
// until every script finishes or the context ends. A context deadline
// is the normal way to bound a headless run, so it is not an error.
func RunHeadless(ctx context.Context, eng *engine.Engine) error {
	log := logger.GetLogger()
	log.Info("running headless", "tick_rate", TickRate)

	eng.GreenFlag()

	ticker := time.NewTicker(time.Second / TickRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("headless run stopped", "reason", ctx.Err(), "ticks", eng.TickCount())
			if ctx.Err() == context.DeadlineExceeded {
				return nil
			}
			return ctx.Err()
		case <-ticker.C:
			eng.Tick()
			if eng.Done() {
				log.Info("all scripts finished", "ticks", eng.TickCount())
				return nil
			}
		}
	}
}
