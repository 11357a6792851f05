// Package crawler holds the run configuration shared by harvesters.
package crawler

// FailurePolicy decides what a run does when a single video fails.
type FailurePolicy int

const (
	// AbortOnError stops the whole run on the first per-video error.
	AbortOnError FailurePolicy = iota
	// SkipOnError logs and reports the failing video, then moves on.
	SkipOnError
)

func (p FailurePolicy) String() string {
	switch p {
	case AbortOnError:
		return "abort-on-error"
	case SkipOnError:
		return "skip-on-error"
	default:
		return "unknown"
	}
}

// Hard caps applied regardless of options.
const (
	MaxVideosPerChannel = 5000
	MaxCommentsPerVideo = 5000
	MaxCommentsPerRun   = 5000
)

// Options is the configuration record for one harvest run.
type Options struct {
	Mode                string
	MaxVideos           int
	MaxComments         int
	MaxCommentsPerVideo int
	Policy              FailurePolicy
	// StopAtCommentCap stops before the next video once MaxComments is reached.
	StopAtCommentCap bool
}

// StrictOptions covers the most recent five videos and aborts on any error.
func StrictOptions() Options {
	return Options{
		Mode:                "strict",
		MaxVideos:           5,
		MaxComments:         MaxCommentsPerRun,
		MaxCommentsPerVideo: MaxCommentsPerVideo,
		Policy:              AbortOnError,
	}
}

// ResilientOptions walks as many videos as needed to fill the comment cap,
// skipping the ones that fail.
func ResilientOptions() Options {
	return Options{
		Mode:                "resilient",
		MaxVideos:           MaxVideosPerChannel,
		MaxComments:         MaxCommentsPerRun,
		MaxCommentsPerVideo: MaxCommentsPerVideo,
		Policy:              SkipOnError,
		StopAtCommentCap:    true,
	}
}

// Normalize clamps the options to the hard caps.
func (o Options) Normalize() Options {
	o.MaxVideos = clamp(o.MaxVideos, MaxVideosPerChannel)
	o.MaxComments = clamp(o.MaxComments, MaxCommentsPerRun)
	o.MaxCommentsPerVideo = clamp(o.MaxCommentsPerVideo, MaxCommentsPerVideo)
	return o
}

func clamp(v, limit int) int {
	if v <= 0 || v > limit {
		return limit
	}
	return v
}

// OptionsForMode returns the options for a mode name ("strict" or "resilient").
func OptionsForMode(mode string) (Options, bool) {
	switch mode {
	case "strict", "comments":
		return StrictOptions(), true
	case "resilient", "parse":
		return ResilientOptions(), true
	default:
		return Options{}, false
	}
}
