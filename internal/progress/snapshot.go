package progress

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
)

// Snapshot is a point-in-time view of progress. It is rebuilt from the
// tracker's counters on every call and never mutated afterwards.
type Snapshot struct {
	Completed int
	Total     int
	HasTotal  bool
	Errors    int
	Elapsed   time.Duration
	// Throughput is completed sentences per second.
	Throughput float64
	ETA        time.Duration
	HasETA     bool
	Finished   bool
}

// Percent returns completion in [0, 100], or -1 when the total is unknown.
func (s Snapshot) Percent() float64 {
	if !s.HasTotal || s.Total <= 0 {
		return -1
	}
	p := float64(s.Completed) / float64(s.Total) * 100
	if p > 100 {
		p = 100
	}
	return p
}

// Remaining returns the number of sentences left, or -1 when unknown.
func (s Snapshot) Remaining() int {
	if !s.HasTotal {
		return -1
	}
	return max(s.Total-s.Completed, 0)
}

// String renders a compact human summary.
func (s Snapshot) String() string {
	count := humanize.Comma(int64(s.Completed))
	if s.HasTotal {
		count = fmt.Sprintf("%s/%s", count, humanize.Comma(int64(s.Total)))
	}
	out := fmt.Sprintf("%s sentences, %.2f/s", count, s.Throughput)
	if s.HasETA {
		out += fmt.Sprintf(", eta %s", s.ETA.Round(time.Second))
	}
	if s.Errors > 0 {
		out += fmt.Sprintf(", %d errors", s.Errors)
	}
	return out
}

func buildSnapshot(completed, total, errs int, start, now time.Time, finished bool) Snapshot {
	snap := Snapshot{
		Completed: completed,
		Total:     total,
		HasTotal:  total > 0,
		Errors:    errs,
		Finished:  finished,
	}
	if start.IsZero() {
		return snap
	}
	snap.Elapsed = now.Sub(start)
	if snap.Elapsed < 0 {
		snap.Elapsed = 0
	}
	if secs := snap.Elapsed.Seconds(); secs > 0 && completed > 0 {
		snap.Throughput = float64(completed) / secs
	}
	if snap.HasTotal && snap.Throughput > 0 {
		remaining := max(total-completed, 0)
		snap.ETA = time.Duration(float64(remaining) / snap.Throughput * float64(time.Second))
		snap.HasETA = true
	}
	return snap
}
