package task

import (
	"bufio"
	"errors"
	"fmt"
	"sync"

	"github.com/CZERTAINLY/executor/internal/model"
)

// Line is a guarded single slot holding the most recently completed line
// of one output stream. Memory is bounded by its capacity no matter how much
// the stream produces.
type Line struct {
	mx       sync.RWMutex
	capacity int
	line     string
}

func NewLine(capacity int) *Line {
	return &Line{capacity: capacity}
}

func (l *Line) Capacity() int {
	return l.capacity
}

// Set replaces the retained line. Empty lines are ignored. A line longer
// than the capacity is truncated and ErrLineOverflow is returned, the
// truncated value is stored anyway.
func (l *Line) Set(line string) error {
	if line == "" {
		return nil
	}
	var err error
	if len(line) > l.capacity {
		err = fmt.Errorf("%w: %d bytes, capacity %d", model.ErrLineOverflow, len(line), l.capacity)
		line = line[:l.capacity]
	}
	l.mx.Lock()
	l.line = line
	l.mx.Unlock()
	return err
}

func (l *Line) Get() string {
	l.mx.RLock()
	defer l.mx.RUnlock()
	return l.line
}

// readLine reads one newline terminated line from r and keeps at most limit
// bytes of it, the rest of the line is consumed and dropped. The newline is
// stripped. A final unterminated line is returned together with io.EOF.
func readLine(r *bufio.Reader, limit int) ([]byte, error) {
	var line []byte
	for {
		chunk, err := r.ReadSlice('\n')
		if err == nil {
			chunk = chunk[:len(chunk)-1]
		}
		if room := limit - len(line); room > 0 {
			line = append(line, chunk[:min(room, len(chunk))]...)
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return line, err
	}
}
