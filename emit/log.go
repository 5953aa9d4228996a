package emit

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// LogEmitter writes each update as a single human-readable line to an
// io.Writer. Ported from graph/emit's stdout log emitter, adapted to
// FlowExecutionUpdate's field set.
type LogEmitter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewLogEmitter returns a LogEmitter writing to w.
func NewLogEmitter(w io.Writer) *LogEmitter {
	return &LogEmitter{w: w}
}

func (l *LogEmitter) Emit(u Update) {
	l.mu.Lock()
	defer l.mu.Unlock()

	line := fmt.Sprintf("[%s] exec=%s type=%s", u.Timestamp.Format(time.RFC3339), u.ExecutionID, u.Type)
	if u.NodeID != "" {
		line += fmt.Sprintf(" node=%s(%s)", u.NodeID, u.NodeType)
	}
	if d, ok := u.Data["duration"].(time.Duration); ok {
		line += fmt.Sprintf(" duration=%s", d)
	}
	if msg, ok := u.Data["message"].(string); ok && msg != "" {
		line += " msg=" + msg
	}
	fmt.Fprintln(l.w, line)
}
