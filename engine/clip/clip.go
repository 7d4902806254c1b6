package clip

import (
	"math"
	"sort"

	"github.com/go-gl/mathgl/mgl32"
)

// defaultTicksPerSecond is substituted when a clip carries no tick rate.
const defaultTicksPerSecond = 25.0

// NodeTrack holds the keyframe samples for one animated joint. The three
// sample slices are parallel: either a single constant sample, or one sample
// per entry of the owning clip's KeyTimes.
type NodeTrack struct {
	// NodeName is the skeleton node this track animates.
	NodeName string

	// TransformIndex is the animated-joint slot the track writes to, assigned
	// when the clip is bound to its skeleton. -1 when the node has no slot
	// (it affects hierarchy only).
	TransformIndex int32

	// Translations are the per-key translation samples.
	Translations []mgl32.Vec3

	// Rotations are the per-key rotation samples.
	Rotations []mgl32.Quat

	// Scales are the per-key scale samples.
	Scales []mgl32.Vec3
}

// Clip is an immutable bundle of per-joint keyframe tracks with a tick rate
// and duration. Clips are safe for concurrent reads once published to a Store.
type Clip struct {
	// Name identifies the clip within its store.
	Name string

	// TicksPerSecond is the clip's sample rate; 0 falls back to 25.
	TicksPerSecond float64

	// DurationTicks is the clip length in ticks.
	DurationTicks float64

	// KeyTimes are the sorted, unique key timestamps in ticks.
	KeyTimes []float32

	// NodeTracks are the per-joint sample tracks.
	NodeTracks []NodeTrack

	// NumNonBones counts tracks that animate nodes without an attached bone.
	NumNonBones uint32
}

// TimeDuration returns the clip's wall-clock length in seconds at its
// natural tick rate.
//
// Returns:
//   - float64: duration in seconds
func (c *Clip) TimeDuration() float64 {
	tps := c.TicksPerSecond
	if tps == 0 {
		tps = defaultTicksPerSecond
	}
	return c.DurationTicks / tps
}

// Rate returns plays-per-second at the natural tick rate.
//
// Returns:
//   - float64: the playback rate
func (c *Clip) Rate() float64 {
	return 1.0 / c.TimeDuration()
}

// SpeedFactorForDuration derives the speed factor that makes the clip play
// back over the given wall-clock duration.
//
// Parameters:
//   - secs: the desired duration in seconds
//
// Returns:
//   - float32: the speed factor to store in Settings
func (c *Clip) SpeedFactorForDuration(secs float64) float32 {
	return float32(c.TimeDuration() / secs)
}

// AnimationTime maps elapsed wall-clock seconds onto the clip's local tick
// time under the given settings and playback mode.
//
// Parameters:
//   - elapsedSec: seconds since the motion entered the clip's state
//   - settings: the clip's playback settings
//   - mode: the owning state's playback mode
//
// Returns:
//   - float64: the clip-local time in ticks
//   - bool: true once the playback mode has consumed its allotted plays
func (c *Clip) AnimationTime(elapsedSec float64, settings Settings, mode PlaybackMode) (float64, bool) {
	tps := c.TicksPerSecond
	if tps == 0 {
		tps = defaultTicksPerSecond
	}
	tps *= float64(settings.SpeedFactor)

	timeInTicks := (elapsedSec+float64(settings.TimeOffsetSec))*tps + float64(settings.TickOffset)
	animTime := math.Mod(timeInTicks, c.DurationTicks)
	plays := int32(timeInTicks / c.DurationTicks)

	if settings.NumPlays > 0 && plays >= settings.NumPlays {
		return animTime, true
	}

	switch mode {
	case PlaybackOnce:
		if plays >= 1 {
			return animTime, true
		}
	case PlaybackPingPong:
		if plays%2 == 1 {
			animTime = c.DurationTicks - animTime
		}
	case PlaybackLoop:
	}

	return animTime, false
}

// FrameIndex returns the largest index into KeyTimes whose timestamp does not
// exceed the given tick time.
//
// Parameters:
//   - animTime: the clip-local time in ticks
//
// Returns:
//   - int: the keyframe index at or before animTime
func (c *Clip) FrameIndex(animTime float64) int {
	t := float32(animTime)
	idx := sort.Search(len(c.KeyTimes), func(i int) bool {
		return c.KeyTimes[i] > t
	})
	if idx > 0 {
		idx--
	}
	return idx
}

// InterpolatedFrame samples every track at the given tick time and hands the
// result to visit, one call per track. Tracks with a single sample are
// constant; times past the final key clamp to the last sample.
//
// Parameters:
//   - animTime: the clip-local time in ticks
//   - visit: receives the track's transform index and its sampled TRS
func (c *Clip) InterpolatedFrame(animTime float64, visit func(transformIndex int32, t mgl32.Vec3, r mgl32.Quat, s mgl32.Vec3)) {
	if len(c.NodeTracks) == 0 {
		return
	}

	frameIndex := c.FrameIndex(animTime)
	nextIndex := frameIndex + 1

	var weight float32
	if nextIndex < len(c.KeyTimes) {
		deltaTime := c.KeyTimes[nextIndex] - c.KeyTimes[frameIndex]
		if deltaTime > 0 {
			weight = (float32(animTime) - c.KeyTimes[frameIndex]) / deltaTime
		}
	}

	finalTime := float64(c.KeyTimes[len(c.KeyTimes)-1])

	for i := range c.NodeTracks {
		track := &c.NodeTracks[i]
		numFrames := len(track.Translations)

		// Constant track, nothing to interpolate
		if numFrames == 1 {
			visit(track.TransformIndex, track.Translations[0], track.Rotations[0], track.Scales[0])
			continue
		}

		if nextIndex >= numFrames || animTime > finalTime {
			last := numFrames - 1
			visit(track.TransformIndex, track.Translations[last], track.Rotations[last], track.Scales[last])
			continue
		}

		t := track.Translations[frameIndex].Add(track.Translations[nextIndex].Sub(track.Translations[frameIndex]).Mul(weight))
		r := mgl32.QuatSlerp(track.Rotations[frameIndex], track.Rotations[nextIndex], weight)
		s := track.Scales[frameIndex].Add(track.Scales[nextIndex].Sub(track.Scales[frameIndex]).Mul(weight))
		visit(track.TransformIndex, t, r, s)
	}
}
