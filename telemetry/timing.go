package telemetry

import (
	"io"
	"sync"
	"time"

	"github.com/robinvdvleuten/salesreport/output"
)

// TimingCollector collects a tree of wall-clock timings. Each call to Start
// adds a new top-level operation, so one collector can hold several runs.
type TimingCollector struct {
	mu    sync.Mutex
	now   func() time.Time
	roots []*timerNode
}

type timerNode struct {
	name     string
	start    time.Time
	end      time.Time
	count    int
	counted  bool
	children []*timerNode
}

// NewTimingCollector creates a new timing collector.
func NewTimingCollector() *TimingCollector {
	return &TimingCollector{now: time.Now}
}

// Start begins timing a top-level operation.
func (c *TimingCollector) Start(name string) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	node := &timerNode{name: name, start: c.now()}
	c.roots = append(c.roots, node)
	return &timingTimer{collector: c, node: node}
}

// Report writes every recorded operation as a tree.
func (c *TimingCollector) Report(w io.Writer, styles *output.Styles) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, root := range c.roots {
		formatTimingTree(w, root, styles)
	}
}

type timingTimer struct {
	collector *TimingCollector
	node      *timerNode
}

func (t *timingTimer) End() {
	t.collector.mu.Lock()
	defer t.collector.mu.Unlock()

	if t.node.end.IsZero() {
		t.node.end = t.collector.now()
	}
}

func (t *timingTimer) Child(name string) Timer {
	t.collector.mu.Lock()
	defer t.collector.mu.Unlock()

	node := &timerNode{name: name, start: t.collector.now()}
	t.node.children = append(t.node.children, node)
	return &timingTimer{collector: t.collector, node: node}
}

func (t *timingTimer) Count(n int) {
	t.collector.mu.Lock()
	defer t.collector.mu.Unlock()

	t.node.count = n
	t.node.counted = true
}
