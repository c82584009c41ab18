package telemetry

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/robinvdvleuten/salesreport/output"
)

const slowThreshold = 100 * time.Millisecond

// formatTimingTree writes a node and its descendants:
//
//	report: 125ms
//	├─ load: 3ms (96 records)
//	├─ catalog: 110ms (100 records)
//	└─ render: 2ms
func formatTimingTree(w io.Writer, root *timerNode, styles *output.Styles) {
	name := root.name
	if styles != nil {
		name = styles.Keyword(name)
	}
	_, _ = fmt.Fprintf(w, "%s: %s%s\n", name, formatDuration(root.duration()), formatCount(root, styles))

	for i, child := range root.children {
		formatNode(w, child, "", i == len(root.children)-1, styles)
	}
}

func formatNode(w io.Writer, node *timerNode, prefix string, last bool, styles *output.Styles) {
	branch, extension := "├─ ", "│  "
	if last {
		branch, extension = "└─ ", "   "
	}

	d := node.duration()
	tree, timing := prefix+branch, formatDuration(d)
	if styles != nil {
		tree = styles.Dim(tree)
		timing = styles.Timing(timing, d >= slowThreshold)
	}
	_, _ = fmt.Fprintf(w, "%s%s: %s%s\n", tree, node.name, timing, formatCount(node, styles))

	for i, child := range node.children {
		formatNode(w, child, prefix+extension, i == len(node.children)-1, styles)
	}
}

func (n *timerNode) duration() time.Duration {
	if n.end.IsZero() {
		return 0
	}
	return n.end.Sub(n.start)
}

func formatCount(n *timerNode, styles *output.Styles) string {
	if !n.counted {
		return ""
	}
	noun := "records"
	if n.count == 1 {
		noun = "record"
	}
	text := fmt.Sprintf(" (%s %s)", humanize.Comma(int64(n.count)), noun)
	if styles != nil {
		return styles.Dim(text)
	}
	return text
}

// formatDuration shows milliseconds below one second and seconds above.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
