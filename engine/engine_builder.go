package engine

import (
	"github.com/Carmen-Shannon/rig-go/engine/camera"
	"github.com/Carmen-Shannon/rig-go/engine/clip"
	"github.com/Carmen-Shannon/rig-go/engine/game_object"
	"github.com/Carmen-Shannon/rig-go/engine/loader"
	"github.com/Carmen-Shannon/rig-go/engine/process"
	"github.com/Carmen-Shannon/rig-go/engine/profiler"
	"github.com/Carmen-Shannon/rig-go/engine/statemachine"
)

// EngineBuilderOption is a functional option for configuring an Engine via NewEngine.
type EngineBuilderOption func(*engineImpl)

// WithSchedulerConfig replaces the default scheduler configuration.
//
// Parameters:
//   - cfg: the scheduler config
//
// Returns:
//   - EngineBuilderOption: a function that applies the scheduler option
func WithSchedulerConfig(cfg process.SchedulerConfig) EngineBuilderOption {
	return func(e *engineImpl) {
		e.scheduler = process.NewScheduler(cfg)
	}
}

// WithCamera sets the camera used as the culling oracle for spawned objects.
//
// Parameters:
//   - cam: the camera
//
// Returns:
//   - EngineBuilderOption: a function that applies the camera option
func WithCamera(cam camera.Camera) EngineBuilderOption {
	return func(e *engineImpl) {
		e.camera = cam
	}
}

// WithClipStore replaces the engine's clip store.
//
// Parameters:
//   - store: the clip store
//
// Returns:
//   - EngineBuilderOption: a function that applies the store option
func WithClipStore(store *clip.Store) EngineBuilderOption {
	return func(e *engineImpl) {
		e.clips = store
	}
}

// WithRegistry replaces the engine's state machine registry.
//
// Parameters:
//   - registry: the registry
//
// Returns:
//   - EngineBuilderOption: a function that applies the registry option
func WithRegistry(registry *statemachine.Registry) EngineBuilderOption {
	return func(e *engineImpl) {
		e.registry = registry
	}
}

// WithLoader replaces the engine's rig loader.
//
// Parameters:
//   - l: the loader
//
// Returns:
//   - EngineBuilderOption: a function that applies the loader option
func WithLoader(l loader.Loader) EngineBuilderOption {
	return func(e *engineImpl) {
		e.loader = l
	}
}

// NewEngine creates an Engine with a default clip store, registry, loader,
// and scheduler, overridden by the given options.
//
// Parameters:
//   - options: variadic list of EngineBuilderOption functions
//
// Returns:
//   - Engine: the new engine
func NewEngine(options ...EngineBuilderOption) Engine {
	e := &engineImpl{
		loader:    loader.NewLoader(),
		clips:     clip.NewStore(),
		registry:  statemachine.NewRegistry(),
		scheduler: process.NewScheduler(process.DefaultSchedulerConfig()),
		profiler:  profiler.NewProfiler(),
		objects:   make(map[uint64]game_object.GameObject),
		processes: make(map[uint64]*process.Process),
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}
