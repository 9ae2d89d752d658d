package metrics

import (
	"testing"
	"time"
)

type testRecorder struct {
	buildDurations int
	buildOutcomes  map[BuildOutcomeLabel]int
	watchEvents    map[WatchResultLabel]int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{buildOutcomes: map[BuildOutcomeLabel]int{}, watchEvents: map[WatchResultLabel]int{}}
}

func (t *testRecorder) ObserveBuildDuration(time.Duration)        { t.buildDurations++ }
func (t *testRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) { t.buildOutcomes[outcome]++ }
func (t *testRecorder) SetPostsBuilt(int)                         {}
func (t *testRecorder) AddPostsSkipped(int)                       {}
func (t *testRecorder) IncWatchEvent(result WatchResultLabel)     { t.watchEvents[result]++ }
func (t *testRecorder) IncLiveReloadInjection()                   {}

func TestNoopRecorderSatisfiesInterface(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveBuildDuration(time.Second)
	r.IncBuildOutcome(BuildOutcomeSuccess)
	r.SetPostsBuilt(1)
	r.AddPostsSkipped(1)
	r.IncWatchEvent(WatchRebuilt)
	r.IncLiveReloadInjection()
}

func TestTestRecorderCounts(t *testing.T) {
	var r Recorder = newTestRecorder()
	r.ObserveBuildDuration(time.Millisecond)
	r.IncBuildOutcome(BuildOutcomeSuccess)
	r.IncWatchEvent(WatchDropped)
	tr := r.(*testRecorder)
	if tr.buildDurations != 1 || tr.buildOutcomes[BuildOutcomeSuccess] != 1 || tr.watchEvents[WatchDropped] != 1 {
		t.Fatalf("unexpected counts: %+v", tr)
	}
}
