package clip

import (
	"sync"
	"sync/atomic"
)

// HandleState tracks the lifecycle of a named clip in a Store.
type HandleState int32

const (
	// HandleLoading means the clip has been declared but its data has not arrived.
	HandleLoading HandleState = iota

	// HandleReady means the clip is resolved and safe to sample.
	HandleReady

	// HandleFailed means the clip's load failed permanently.
	HandleFailed
)

// Handle is a late-bound reference to a clip. The clip asset may arrive on
// another goroutine after states referencing it are already live; consumers
// poll Clip each frame and simply skip handles that are not ready yet.
type Handle struct {
	name  string
	state atomic.Int32
	clip  atomic.Pointer[Clip]
	err   atomic.Pointer[error]
}

// Name returns the handle's clip name.
//
// Returns:
//   - string: the clip name
func (h *Handle) Name() string {
	return h.name
}

// State returns the handle's current lifecycle state.
//
// Returns:
//   - HandleState: Loading, Ready, or Failed
func (h *Handle) State() HandleState {
	return HandleState(h.state.Load())
}

// Clip returns the resolved clip, or nil while loading or failed.
//
// Returns:
//   - *Clip: the clip, or nil if not ready
func (h *Handle) Clip() *Clip {
	return h.clip.Load()
}

// Err returns the load error for a failed handle, or nil.
//
// Returns:
//   - error: the failure cause, or nil
func (h *Handle) Err() error {
	if p := h.err.Load(); p != nil {
		return *p
	}
	return nil
}

// Store owns named clip handles shared by any number of controllers. Clips
// are immutable once published; the store itself is append-only. Safe for
// concurrent use: loaders publish from worker goroutines while animation
// processes resolve.
type Store struct {
	mu      sync.RWMutex
	handles map[string]*Handle
}

// NewStore creates an empty clip store.
//
// Returns:
//   - *Store: the new store
func NewStore() *Store {
	return &Store{handles: make(map[string]*Handle)}
}

// Declare registers a name and returns its handle in the Loading state.
// Declaring an existing name returns the existing handle unchanged.
//
// Parameters:
//   - name: the clip name
//
// Returns:
//   - *Handle: the handle for the name
func (s *Store) Declare(name string) *Handle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h, ok := s.handles[name]; ok {
		return h
	}
	h := &Handle{name: name}
	s.handles[name] = h
	return h
}

// Publish resolves a name to a loaded clip, declaring it if needed. The
// handle transitions to Ready; waiting consumers pick the clip up on their
// next resolution poll.
//
// Parameters:
//   - name: the clip name
//   - c: the immutable clip data
//
// Returns:
//   - *Handle: the handle for the name
func (s *Store) Publish(name string, c *Clip) *Handle {
	h := s.Declare(name)
	h.clip.Store(c)
	h.state.Store(int32(HandleReady))
	return h
}

// Fail marks a name's load as permanently failed.
//
// Parameters:
//   - name: the clip name
//   - err: the failure cause
func (s *Store) Fail(name string, err error) {
	h := s.Declare(name)
	h.err.Store(&err)
	h.state.Store(int32(HandleFailed))
}

// Get looks up a handle without declaring it.
//
// Parameters:
//   - name: the clip name
//
// Returns:
//   - *Handle: the handle, or nil if never declared
func (s *Store) Get(name string) *Handle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.handles[name]
}

// Ref is a clip reference carried by an animation state: a display name, the
// name of the animation in the store, and the state's playback settings for
// it. The handle is cached as soon as the store has declared the clip's name,
// whether or not the clip has finished loading.
type Ref struct {
	// Name labels the clip within its state.
	Name string `json:"name"`

	// Animation is the clip name to resolve in the store.
	Animation string `json:"animation"`

	// Settings are the playback settings this state applies to the clip.
	Settings Settings `json:"settings"`

	handle *Handle
}

// NewRef creates a clip reference with default settings.
//
// Parameters:
//   - name: the display name
//   - animation: the store name of the clip
//
// Returns:
//   - Ref: the new reference
func NewRef(name, animation string) Ref {
	return Ref{Name: name, Animation: animation, Settings: DefaultSettings()}
}

// Resolve attempts to bind the reference to its clip. Non-blocking: while
// the clip is loading (or failed) the reference resolves to nil and the
// caller is expected to skip it for the frame.
//
// Parameters:
//   - store: the store to resolve against
//
// Returns:
//   - *Clip: the resolved clip, or nil if unavailable
func (r *Ref) Resolve(store *Store) *Clip {
	if r.handle == nil {
		if store == nil {
			return nil
		}
		h := store.Get(r.Animation)
		if h == nil {
			return nil
		}
		r.handle = h
	}
	if r.handle.State() != HandleReady {
		return nil
	}
	return r.handle.Clip()
}
