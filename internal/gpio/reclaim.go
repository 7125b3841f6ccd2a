package gpio

import (
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/process"
)

var listProcesses = process.Processes

// Reclaim terminates other live instances of this binary so their line claims
// are dropped before we acquire. This is best-effort hardening only: the
// character device's exclusive claim is what actually guards the lines, and
// no failure here may abort startup.
func Reclaim() {
	self := int32(os.Getpid())
	binary := filepath.Base(os.Args[0])

	procs, err := listProcesses()
	if err != nil {
		log.Warn().Err(err).Msg("Could not enumerate processes for GPIO reclaim")
		return
	}

	terminated := 0
	for _, p := range procs {
		if p.Pid == self {
			continue
		}
		name, err := p.Name()
		if err != nil || name != binary {
			continue
		}
		log.Warn().Int32("pid", p.Pid).Str("binary", binary).Msg("Found existing instance holding GPIO lines, terminating")
		if err := p.Terminate(); err != nil {
			log.Warn().Err(err).Int32("pid", p.Pid).Msg("Could not terminate existing instance")
			continue
		}
		terminated++
	}

	if terminated > 0 {
		log.Info().Int("count", terminated).Msg("Terminated stale instances, waiting for line claims to drop")
		retrySleep(time.Second)
	}
}
