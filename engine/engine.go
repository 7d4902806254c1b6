package engine

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/rig-go/engine/camera"
	"github.com/Carmen-Shannon/rig-go/engine/clip"
	"github.com/Carmen-Shannon/rig-go/engine/game_object"
	"github.com/Carmen-Shannon/rig-go/engine/loader"
	"github.com/Carmen-Shannon/rig-go/engine/process"
	"github.com/Carmen-Shannon/rig-go/engine/profiler"
	"github.com/Carmen-Shannon/rig-go/engine/statemachine"
)

// engineImpl implements the Engine interface.
type engineImpl struct {
	mu sync.Mutex

	loader    loader.Loader
	clips     *clip.Store
	registry  *statemachine.Registry
	scheduler *process.Scheduler
	camera    camera.Camera

	profiler         *profiler.Profiler
	profilingEnabled bool

	objects   map[uint64]game_object.GameObject
	processes map[uint64]*process.Process

	running bool
}

// Engine is the animation runtime's top-level aggregate: the shared clip
// store, machine registry, and rig loader, plus the scheduler that drives
// one animation process per spawned object. Rendering is not the engine's
// business; consumers read each controller's palette themselves.
type Engine interface {
	// ClipStore returns the shared clip store.
	//
	// Returns:
	//   - *clip.Store: the clip store
	ClipStore() *clip.Store

	// Registry returns the shared state machine registry.
	//
	// Returns:
	//   - *statemachine.Registry: the registry
	Registry() *statemachine.Registry

	// Loader returns the rig loader.
	//
	// Returns:
	//   - loader.Loader: the loader
	Loader() loader.Loader

	// Camera returns the camera acting as the culling oracle, or nil.
	//
	// Returns:
	//   - camera.Camera: the camera
	Camera() camera.Camera

	// SetCamera replaces the culling camera. Affects objects spawned after
	// the call.
	//
	// Parameters:
	//   - cam: the new camera, or nil to disable culling for new objects
	SetCamera(cam camera.Camera)

	// Spawn registers an object and starts an animation process for its
	// controller, gated by the engine's camera when one is set.
	//
	// Parameters:
	//   - obj: the object to animate; it must carry a controller
	//
	// Returns:
	//   - *process.Process: the object's animation process
	//   - error: if the object has no controller
	Spawn(obj game_object.GameObject) (*process.Process, error)

	// Remove aborts an object's animation process and forgets the object.
	//
	// Parameters:
	//   - id: the object's ID
	Remove(id uint64)

	// Objects returns the registered objects.
	//
	// Returns:
	//   - []game_object.GameObject: the live objects
	Objects() []game_object.GameObject

	// EnableProfiler enables per-frame performance output to the log.
	EnableProfiler()

	// DisableProfiler disables performance output.
	DisableProfiler()

	// Run starts the fixed-step animation loop on its own goroutine.
	Run()

	// Stop aborts every animation process and halts the loop, waiting for
	// the frame in flight.
	Stop()
}

var _ Engine = &engineImpl{}

func (e *engineImpl) ClipStore() *clip.Store {
	return e.clips
}

func (e *engineImpl) Registry() *statemachine.Registry {
	return e.registry
}

func (e *engineImpl) Loader() loader.Loader {
	return e.loader
}

func (e *engineImpl) Camera() camera.Camera {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.camera
}

func (e *engineImpl) SetCamera(cam camera.Camera) {
	e.mu.Lock()
	e.camera = cam
	e.mu.Unlock()
}

func (e *engineImpl) Spawn(obj game_object.GameObject) (*process.Process, error) {
	ctrl := obj.Controller()
	if ctrl == nil {
		return nil, fmt.Errorf("object %q has no animation controller", obj.Name())
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	opts := []process.ProcessOption{
		process.WithWorldTransform(obj, obj.LocalBounds()),
	}
	if e.camera != nil {
		opts = append(opts, process.WithViewVolume(e.camera))
	}
	p := process.NewProcess(ctrl, opts...)

	e.objects[obj.ID()] = obj
	e.processes[obj.ID()] = p
	e.scheduler.Attach(p)
	return p, nil
}

func (e *engineImpl) Remove(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if p, ok := e.processes[id]; ok {
		p.Abort()
		e.scheduler.Detach(p)
		delete(e.processes, id)
	}
	delete(e.objects, id)
}

func (e *engineImpl) Objects() []game_object.GameObject {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]game_object.GameObject, 0, len(e.objects))
	for _, obj := range e.objects {
		out = append(out, obj)
	}
	return out
}

func (e *engineImpl) EnableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.profilingEnabled {
		return
	}
	e.profilingEnabled = true
	e.scheduler.SetFrameHook(func(stats process.FrameStats) {
		e.profiler.Tick(stats.Processes, stats.Composed, stats.Culled, stats.Motions)
	})
}

func (e *engineImpl) DisableProfiler() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.profilingEnabled = false
	e.scheduler.SetFrameHook(nil)
}

func (e *engineImpl) Run() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.mu.Unlock()

	go e.scheduler.Run()
}

func (e *engineImpl) Stop() {
	e.scheduler.Stop()
	e.mu.Lock()
	e.running = false
	e.mu.Unlock()
}
