package obs

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"text/tabwriter"
)

// Tasks are side-channel sinks scenarios call to print to the operator's console.
// They are distinct from the structured log, which goes to stderr as JSON.
var (
	taskMu  sync.Mutex
	taskOut io.Writer = os.Stdout
)

// SetTaskOutput redirects task output and returns a restore func.
func SetTaskOutput(w io.Writer) func() {
	taskMu.Lock()
	prev := taskOut
	taskOut = w
	taskMu.Unlock()
	return func() {
		taskMu.Lock()
		taskOut = prev
		taskMu.Unlock()
	}
}

// Log prints a message, prefixed with the environment tag when one is set.
func Log(msg string) {
	loggerMu.RLock()
	tag := options.Tag
	loggerMu.RUnlock()

	taskMu.Lock()
	defer taskMu.Unlock()
	if tag != "" {
		fmt.Fprintf(taskOut, "[%s] %s\n", tag, msg)
		return
	}
	fmt.Fprintln(taskOut, msg)
}

// Table prints rows as aligned columns. The first row is treated as the header.
func Table(rows [][]string) {
	if len(rows) == 0 {
		return
	}
	taskMu.Lock()
	defer taskMu.Unlock()

	tw := tabwriter.NewWriter(taskOut, 0, 0, 2, ' ', 0)
	for i, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
		if i == 0 {
			underline := make([]string, len(row))
			for j, cell := range row {
				underline[j] = strings.Repeat("-", len(cell))
			}
			fmt.Fprintln(tw, strings.Join(underline, "\t"))
		}
	}
	_ = tw.Flush()
}
