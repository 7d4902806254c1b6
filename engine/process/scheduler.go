package process

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/rig-go/common"
	"gopkg.in/yaml.v3"
)

// SchedulerConfig tunes the fixed-step driver and its worker pool. Zero
// values fall back to defaults.
type SchedulerConfig struct {
	// FixedStepMS is the tick length in milliseconds.
	FixedStepMS uint64 `yaml:"fixed_step_ms"`

	// Workers is the pool's goroutine count.
	Workers int `yaml:"workers"`

	// QueueSize is the pool's task queue depth.
	QueueSize int `yaml:"queue_size"`

	// IdleTimeoutMS is how long idle workers linger before exiting.
	IdleTimeoutMS uint64 `yaml:"idle_timeout_ms"`
}

// DefaultSchedulerConfig returns the config used when none is supplied:
// 60 Hz steps on a 4-worker pool.
//
// Returns:
//   - SchedulerConfig: the default config
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{
		FixedStepMS:   16,
		Workers:       4,
		QueueSize:     256,
		IdleTimeoutMS: 1000,
	}
}

// LoadSchedulerConfig parses a YAML config document, filling omitted fields
// from the defaults.
//
// Parameters:
//   - data: the YAML document
//
// Returns:
//   - SchedulerConfig: the parsed config
//   - error: on malformed YAML
func LoadSchedulerConfig(data []byte) (SchedulerConfig, error) {
	cfg := SchedulerConfig{}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("scheduler config: %w", err)
	}
	def := DefaultSchedulerConfig()
	cfg.FixedStepMS = common.Coalesce(cfg.FixedStepMS, def.FixedStepMS)
	cfg.Workers = common.Coalesce(cfg.Workers, def.Workers)
	cfg.QueueSize = common.Coalesce(cfg.QueueSize, def.QueueSize)
	cfg.IdleTimeoutMS = common.Coalesce(cfg.IdleTimeoutMS, def.IdleTimeoutMS)
	return cfg, nil
}

// FrameStats summarizes one scheduler frame for the frame hook: how many
// processes ran, how their visibility gates resolved, and the motion
// population across the ticked controllers.
type FrameStats struct {
	// Processes is the number of processes dispatched this frame.
	Processes int

	// Composed is the number of processes that composed a palette.
	Composed int

	// Culled is the number of processes whose compose was skipped by the
	// frustum gate.
	Culled int

	// Motions is the number of live motions across the ticked controllers.
	Motions int
}

// Scheduler ticks attached processes at a fixed step on a shared worker
// pool. Workers persist across frames; a WaitGroup provides the per-frame
// barrier since each frame must finish before the next begins.
type Scheduler struct {
	mu        sync.Mutex
	processes []*Process

	pool      worker.DynamicWorkerPool
	step      uint64
	logger    *slog.Logger
	frameHook func(FrameStats)

	started  atomic.Bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewScheduler creates a scheduler from the given config.
//
// Parameters:
//   - cfg: the scheduler config
//
// Returns:
//   - *Scheduler: the new scheduler
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	def := DefaultSchedulerConfig()
	step := common.Coalesce(cfg.FixedStepMS, def.FixedStepMS)
	workers := common.Coalesce(cfg.Workers, def.Workers)
	queueSize := common.Coalesce(cfg.QueueSize, def.QueueSize)
	idle := common.Coalesce(cfg.IdleTimeoutMS, def.IdleTimeoutMS)

	return &Scheduler{
		pool:   worker.NewDynamicWorkerPool(workers, queueSize, time.Duration(idle)*time.Millisecond),
		step:   step,
		logger: slog.Default(),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// SetFrameHook registers a function invoked after each completed frame with
// that frame's stats, typically a profiler tick. Pass nil to clear it. Set
// before Run starts.
//
// Parameters:
//   - hook: the per-frame callback, or nil
func (s *Scheduler) SetFrameHook(hook func(FrameStats)) {
	s.mu.Lock()
	s.frameHook = hook
	s.mu.Unlock()
}

// Attach registers a process for ticking.
//
// Parameters:
//   - p: the process to attach
func (s *Scheduler) Attach(p *Process) {
	s.mu.Lock()
	s.processes = append(s.processes, p)
	s.mu.Unlock()
}

// Detach removes a process without aborting it.
//
// Parameters:
//   - p: the process to detach
func (s *Scheduler) Detach(p *Process) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, q := range s.processes {
		if q == p {
			s.processes = append(s.processes[:i], s.processes[i+1:]...)
			return
		}
	}
}

// Tick runs one fixed step synchronously: every attached process is
// submitted to the pool and the call returns when all have finished.
// Aborted processes are detached instead of ticked.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	// Compact out aborted processes before dispatch
	live := s.processes[:0]
	for _, p := range s.processes {
		if p.Aborted() {
			s.logger.Debug("detaching aborted animation process")
			continue
		}
		live = append(live, p)
	}
	s.processes = live
	batch := append([]*Process(nil), live...)
	hook := s.frameHook
	s.mu.Unlock()

	var wg sync.WaitGroup
	taskID := 0
	for _, p := range batch {
		wg.Add(1)
		pCap := p // capture for closure
		id := taskID
		taskID++
		s.pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				pCap.OnFixedUpdate(s.step)
				return nil, nil
			},
		})
	}
	wg.Wait()

	if hook != nil {
		// The WaitGroup barrier makes each process's tick record safe to read
		var stats FrameStats
		for _, p := range batch {
			stats.Processes++
			if p.lastTicked {
				if p.lastInView {
					stats.Composed++
				} else {
					stats.Culled++
				}
			}
			if p.controller != nil {
				stats.Motions += len(p.controller.Motions())
			}
		}
		hook(stats)
	}
}

// Run drives Tick at the fixed step until Stop is called. Blocks; run it on
// its own goroutine.
func (s *Scheduler) Run() {
	s.started.Store(true)
	defer close(s.doneCh)
	ticker := time.NewTicker(time.Duration(s.step) * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Stop aborts every attached process, halts the Run loop, and waits for the
// frame in flight to complete. Idle pool workers exit on their timeout.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	for _, p := range s.processes {
		p.Abort()
	}
	s.mu.Unlock()

	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	if s.started.Load() {
		<-s.doneCh
	}
}
