// SPDX-License-Identifier: MPL-2.0

package discovery

type (
	// Report summarizes one FindSubcommands call.
	Report struct {
		// Parent is the key of the parent type; empty when it was not nominal.
		Parent  string
		Nominal bool
		// Candidates is the size of the module's conformance bucket.
		Candidates int
		Kept       int
		Filtered   map[Reason]int
	}

	// Observer receives discovery reports. Observe is called synchronously
	// and may be called from several goroutines at once.
	Observer interface {
		Observe(Report)
	}

	// ObserverFunc adapts a function to Observer.
	ObserverFunc func(Report)

	nopObserver struct{}
)

// Observe calls fn(r).
func (fn ObserverFunc) Observe(r Report) { fn(r) }

func (nopObserver) Observe(Report) {}
