// Package telemetry records how long each pipeline stage takes and renders
// the result as a tree.
//
// Collectors travel through context so that stages can be instrumented
// without changing their signatures:
//
//	collector := telemetry.NewTimingCollector()
//	ctx := telemetry.WithCollector(context.Background(), collector)
//
//	ctx, timer := telemetry.StartTimer(ctx, "parse")
//	defer timer.End()
//
//	// Stages called with ctx nest under "parse".
//	_, child := telemetry.StartTimer(ctx, "validate")
//	child.Count(len(records))
//	child.End()
//
//	collector.Report(os.Stderr, output.NewStyles(os.Stderr))
package telemetry

import (
	"context"
	"io"

	"github.com/robinvdvleuten/salesreport/output"
)

type contextKey int

const (
	collectorKey contextKey = iota
	timerKey
)

// Collector gathers timings for a single run.
type Collector interface {
	// Start begins timing a top-level operation.
	Start(name string) Timer

	// Report writes the collected timings to w. styles may be nil.
	Report(w io.Writer, styles *output.Styles)
}

// Timer tracks one operation.
type Timer interface {
	// End stops the timer. Calling End more than once keeps the first end time.
	End()

	// Child starts a timer nested under this one.
	Child(name string) Timer

	// Count attaches the number of records the operation handled.
	Count(n int)
}

// WithCollector adds a collector to a context.
func WithCollector(ctx context.Context, collector Collector) context.Context {
	return context.WithValue(ctx, collectorKey, collector)
}

// FromContext returns the collector stored in ctx, or a collector that
// discards everything.
func FromContext(ctx context.Context) Collector {
	if collector, ok := ctx.Value(collectorKey).(Collector); ok {
		return collector
	}
	return noOpCollector{}
}

// StartTimer starts a timer nested under the timer already carried by ctx,
// or a top-level timer on the context's collector when there is none. The
// returned context carries the new timer.
func StartTimer(ctx context.Context, name string) (context.Context, Timer) {
	var timer Timer
	if parent, ok := ctx.Value(timerKey).(Timer); ok {
		timer = parent.Child(name)
	} else {
		timer = FromContext(ctx).Start(name)
	}
	return context.WithValue(ctx, timerKey, timer), timer
}
