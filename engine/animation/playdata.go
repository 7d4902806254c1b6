package animation

import (
	"github.com/Carmen-Shannon/rig-go/common"
	"github.com/Carmen-Shannon/rig-go/engine/clip"
	"github.com/tanema/gween/ease"
)

// PlayStatus flags describe a gathered clip's role in the current frame.
type PlayStatus uint32

const (
	// PlayStatusFadingIn marks a clip gaining weight under a transition.
	PlayStatusFadingIn PlayStatus = 1 << iota

	// PlayStatusFadingOut marks a clip losing weight under a transition.
	PlayStatusFadingOut
)

// TransitionPlayData carries the timing of the transition a faded clip
// belongs to, snapshotted when the clip was gathered.
type TransitionPlayData struct {
	// TotalTime is the transition's duration in seconds.
	TotalTime float32

	// FadeInTime is the incoming state's fade duration.
	FadeInTime float32

	// FadeOutTime is the outgoing state's fade duration.
	FadeOutTime float32

	// FadeInEase shapes the fade-in curve; nil is linear.
	FadeInEase ease.TweenFunc

	// FadeOutEase shapes the fade-out curve; nil is linear.
	FadeOutEase ease.TweenFunc
}

// PlayData is a transient record of one active clip for one frame: the
// resolved clip, the settings and playback mode it plays under, and the
// timers that position it in time.
type PlayData struct {
	// Clip is the resolved clip to sample.
	Clip *clip.Clip

	// Settings are the playback settings applied by the owning state.
	Settings clip.Settings

	// Mode is the owning state's playback mode.
	Mode clip.PlaybackMode

	// Timer is a snapshot of the motion's timer.
	Timer common.Timer

	// Status marks the clip as fading in, fading out, or neither.
	Status PlayStatus

	// TransitionTimer is a snapshot of the transition's timer, meaningful
	// only when Status is non-zero.
	TransitionTimer common.Timer

	// Transition is the owning transition's timing, meaningful only when
	// Status is non-zero.
	Transition TransitionPlayData

	// Frozen pins the clip's sample time to the transition entry frame
	// (first-frozen transitions).
	Frozen bool
}

// IsFadingIn reports whether the clip is gaining weight under a transition.
//
// Returns:
//   - bool: true if fading in
func (p *PlayData) IsFadingIn() bool {
	return p.Status&PlayStatusFadingIn != 0
}

// IsFadingOut reports whether the clip is losing weight under a transition.
//
// Returns:
//   - bool: true if fading out
func (p *PlayData) IsFadingOut() bool {
	return p.Status&PlayStatusFadingOut != 0
}
