// Package progress defines the events long-running fotokit operations emit.
package progress

import "fmt"

// Phase names the stage of an operation.
type Phase string

const (
	Scanning  Phase = "SCANNING"
	Comparing Phase = "COMPARING"
	Indexing  Phase = "INDEXING"
	Locating  Phase = "LOCATING"
	Sorting   Phase = "SORTING"
)

// Event is one step of progress. Index and Total describe the outer position;
// Inner is the inner position for two-dimensional sweeps. Total is 0 while it
// is still unknown. Err is set for per-item failures that did not stop the
// operation.
type Event struct {
	Phase Phase
	Index int
	Inner int
	Total int
	Label string
	Err   error
}

func (e Event) String() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %d/%d %s: %v", e.Phase, e.Index, e.Total, e.Label, e.Err)
	}
	return fmt.Sprintf("%s %d.%d/%d %s", e.Phase, e.Index, e.Inner, e.Total, e.Label)
}

// Func receives events. A nil Func discards them.
type Func func(Event)

// Emit calls f if it is set.
func (f Func) Emit(e Event) {
	if f != nil {
		f(e)
	}
}

// Chan returns a Func that forwards events to ch.
func Chan(ch chan<- Event) Func {
	return func(e Event) { ch <- e }
}
