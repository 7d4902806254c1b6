package clip

// PlaybackMode controls how a clip's local time maps onto its duration.
type PlaybackMode int

const (
	// PlaybackOnce plays the clip a single time: the clip reports done once its
	// first play-through completes, and its local time keeps wrapping around
	// the duration past that point.
	PlaybackOnce PlaybackMode = iota

	// PlaybackLoop wraps the clip's time around its duration indefinitely.
	PlaybackLoop

	// PlaybackPingPong alternates between forward and reverse playback.
	PlaybackPingPong
)

// Settings tunes how a single clip plays back inside a state.
type Settings struct {
	// SpeedFactor scales the clip's tick rate. Must be > 0.
	SpeedFactor float32 `json:"speedFactor"`

	// BlendWeight is the clip's contribution when blended with others. Must be >= 0.
	BlendWeight float32 `json:"blendWeight"`

	// TickOffset shifts the clip's local time by a fixed number of ticks.
	TickOffset int32 `json:"tickOffset"`

	// TimeOffsetSec shifts the clip's local time by a fixed number of seconds.
	TimeOffsetSec float32 `json:"timeOffsetSec"`

	// NumPlays bounds how many times the clip plays; -1 means unbounded.
	NumPlays int32 `json:"numPlays"`
}

// DefaultSettings returns settings for a clip playing at natural speed with
// full weight and no play limit.
//
// Returns:
//   - Settings: the default playback settings
func DefaultSettings() Settings {
	return Settings{
		SpeedFactor: 1.0,
		BlendWeight: 1.0,
		NumPlays:    -1,
	}
}
