package animation

import "errors"

var (
	// ErrClipUnresolved is returned when a clip reference cannot be bound to
	// a ready clip. Soft: the clip is skipped for the frame and resolution is
	// retried next tick.
	ErrClipUnresolved = errors.New("clip unresolved")

	// ErrPaletteSizeMismatch is returned when a caller-supplied palette
	// buffer does not match the skeleton's bone count.
	ErrPaletteSizeMismatch = errors.New("palette size mismatch")

	// ErrNoSkeleton is returned when an operation needs a skeleton that has
	// not been attached yet.
	ErrNoSkeleton = errors.New("controller has no skeleton")

	// ErrMotionNotFound is returned when a motion lookup misses.
	ErrMotionNotFound = errors.New("motion not found")
)
