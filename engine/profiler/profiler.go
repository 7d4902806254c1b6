package profiler

import (
	"log"
	"time"
)

// Profiler aggregates the animation scheduler's per-frame counters and logs
// a summary at a configurable interval: tick rate, how many processes ran,
// how many composed a palette versus being skipped by the frustum gate, and
// the motion population. Attach it to the scheduler's frame hook so it
// receives one sample per fixed step.
type Profiler struct {
	tickCount      int
	lastTime       time.Time
	updateInterval time.Duration

	// accumulated since the last log line
	processes   int
	composed    int
	culled      int
	peakMotions int
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
//
// Returns:
//   - *Profiler: the newly created profiler instance
func NewProfiler() *Profiler {
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
}

// SetUpdateInterval changes how often statistics are logged.
//
// Parameters:
//   - interval: the logging interval (minimum 100 ms)
func (p *Profiler) SetUpdateInterval(interval time.Duration) {
	if interval < 100*time.Millisecond {
		interval = 100 * time.Millisecond
	}
	p.updateInterval = interval
}

// Tick records one scheduler frame and logs a summary when the update
// interval has elapsed. Statistics include: ticks/s, average processes per
// frame, palettes composed, composes skipped by the visibility gate, and
// the peak motion count.
//
// Parameters:
//   - processes: processes ticked this frame
//   - composed: processes that composed a palette this frame
//   - culled: processes whose compose was skipped by the frustum gate
//   - motions: live motions across the ticked controllers
//
// Returns:
//   - bool: true if stats were logged this tick, false otherwise
func (p *Profiler) Tick(processes, composed, culled, motions int) bool {
	p.tickCount++
	p.processes += processes
	p.composed += composed
	p.culled += culled
	if motions > p.peakMotions {
		p.peakMotions = motions
	}

	currentTime := time.Now()
	elapsed := currentTime.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	tps := float64(p.tickCount) / elapsed.Seconds()
	avgProcesses := float64(p.processes) / float64(p.tickCount)

	// Culled composes are deferred work, not lost work: the blend weights
	// still advanced, only sample-and-compose was skipped.
	log.Printf("[Profiler] Ticks/s: %.2f | Processes/frame: %.1f | Composed: %d | Gate-skipped: %d | Motions (peak): %d",
		tps, avgProcesses, p.composed, p.culled, p.peakMotions)

	p.tickCount = 0
	p.processes = 0
	p.composed = 0
	p.culled = 0
	p.peakMotions = 0
	p.lastTime = currentTime
	return true
}
