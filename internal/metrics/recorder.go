package metrics

import "time"

// BuildOutcomeLabel enumerates final build outcomes.
type BuildOutcomeLabel string

const (
	BuildOutcomeSuccess  BuildOutcomeLabel = "success"
	BuildOutcomeFailed   BuildOutcomeLabel = "failed"
	BuildOutcomeCanceled BuildOutcomeLabel = "canceled"
)

// WatchResultLabel enumerates what the change watcher did with an event.
type WatchResultLabel string

const (
	WatchRebuilt    WatchResultLabel = "rebuilt"
	WatchSuppressed WatchResultLabel = "suppressed" // inside the cooldown window
	WatchIgnored    WatchResultLabel = "ignored"    // hidden file, directory, chmod
	WatchDropped    WatchResultLabel = "dropped"    // event queue full
	WatchFailed     WatchResultLabel = "failed"     // rebuild returned an error
)

// Recorder defines observability hooks. Implementations may forward to Prometheus.
type Recorder interface {
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcomeLabel)
	SetPostsBuilt(n int)
	AddPostsSkipped(n int)
	IncWatchEvent(result WatchResultLabel)
	IncLiveReloadInjection()
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(time.Duration) {}
func (NoopRecorder) IncBuildOutcome(BuildOutcomeLabel)  {}
func (NoopRecorder) SetPostsBuilt(int)                  {}
func (NoopRecorder) AddPostsSkipped(int)                {}
func (NoopRecorder) IncWatchEvent(WatchResultLabel)     {}
func (NoopRecorder) IncLiveReloadInjection()            {}
