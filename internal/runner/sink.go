package runner

// Sink receives every result the scheduler collects, in the order it
// receives them (completion order, not dispatch order). Implementations
// are opaque to the scheduler: a stdout progress reporter, an XML file
// writer, or both via a fan-out sink.
type Sink interface {
	// Add is called once per received result, with i (1-based) and n
	// (the current expected total, which grows as retries are enqueued).
	Add(i, n int, instance TestInstance, result Result)
	// Close is called exactly once at scheduler exit.
	Close() error
}

// NopSink discards everything. Useful as a default / in tests that only
// care about the scheduler's return value.
type NopSink struct{}

func (NopSink) Add(int, int, TestInstance, Result) {}
func (NopSink) Close() error                       { return nil }

// FanOutSink forwards every call to each of its sinks in order, so a run
// can write both a structured file report and a live progress line.
type FanOutSink []Sink

func (f FanOutSink) Add(i, n int, instance TestInstance, result Result) {
	for _, sink := range f {
		sink.Add(i, n, instance, result)
	}
}

// Close closes every sink and returns the first error encountered, if any,
// after still attempting to close the rest.
func (f FanOutSink) Close() error {
	var first error
	for _, sink := range f {
		if err := sink.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
