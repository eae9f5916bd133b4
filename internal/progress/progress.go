package progress

import (
	"io"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/progress"
)

// Bar renders finished units as a go-pretty progress tracker. The counter
// only moves forward.
type Bar struct {
	out     io.Writer
	message string

	mu      sync.Mutex
	writer  progress.Writer
	tracker *progress.Tracker
	done    int64
}

// New returns a Bar that renders to out.
func New(out io.Writer, message string) *Bar {
	return &Bar{out: out, message: message}
}

// Start begins rendering a tracker of total units.
func (b *Bar) Start(total int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	pw := progress.NewWriter()
	pw.SetOutputWriter(b.out)
	pw.SetAutoStop(true)
	pw.SetTrackerLength(40)
	pw.SetUpdateFrequency(100 * time.Millisecond)
	pw.SetStyle(progress.StyleDefault)
	pw.Style().Visibility.ETA = true
	pw.Style().Visibility.Percentage = true

	b.tracker = &progress.Tracker{
		Message: b.message,
		Total:   int64(total),
		Units:   progress.UnitsDefault,
	}
	pw.AppendTracker(b.tracker)
	b.writer = pw
	b.done = 0

	go pw.Render()
}

// Increment records one finished unit.
func (b *Bar) Increment() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.tracker == nil {
		return
	}
	b.done++
	b.tracker.Increment(1)
}

// Completed returns the number of finished units recorded so far.
func (b *Bar) Completed() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.done
}

// Done marks the tracker finished and waits for the final frame.
func (b *Bar) Done() {
	b.mu.Lock()
	pw, tracker := b.writer, b.tracker
	b.mu.Unlock()

	if pw == nil {
		return
	}
	tracker.MarkAsDone()
	// auto-stop ends the render loop once the tracker is done
	deadline := time.Now().Add(time.Second)
	for pw.IsRenderInProgress() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if pw.IsRenderInProgress() {
		pw.Stop()
	}
}
