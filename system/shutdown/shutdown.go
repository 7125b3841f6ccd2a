package shutdown

import (
	"sync"

	"github.com/rs/zerolog/log"

	"smartalert/system/startup"
)

// Guard funnels every process exit path (normal return, signal, top-level
// panic) into one teardown run. Each step below is independently guarded by
// the peripheral's own no-op semantics, so a failure in one never skips the
// rest.
type Guard struct {
	once sync.Once
	sys  *startup.System
}

func NewGuard(sys *startup.System) *Guard {
	return &Guard{sys: sys}
}

// Teardown runs the teardown sequence exactly once: LED inactive, camera
// stopped, GPIO lines released. Safe to call from multiple paths.
func (g *Guard) Teardown() {
	g.once.Do(g.run)
}

func (g *Guard) run() {
	log.Info().Msg("Shutting down")
	if g.sys == nil {
		return
	}

	if g.sys.Pins != nil {
		g.sys.Pins.SetLED(false)
	}
	if g.sys.Camera != nil {
		g.sys.Camera.Stop()
	}
	if g.sys.Pins != nil {
		g.sys.Pins.Release()
	}

	log.Info().Msg("Teardown complete")
}
