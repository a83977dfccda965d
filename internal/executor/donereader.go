package executor

import (
	"io"
	"sync"
)

// Wraps a worker's result stream and records when it ends.
//
// The done channel is closed exactly once, on the first read error of any
// kind. A worker's stdout only ends when the worker is gone, so a closed
// channel means the worker can no longer answer.
type doneReader struct {
	r    io.Reader
	once sync.Once
	done chan struct{}
}

// Creates a new [doneReader] wrapping the given reader.
func newDoneReader(r io.Reader) *doneReader {
	return &doneReader{r: r, done: make(chan struct{})}
}

// Delegates to the underlying reader, closing the done channel on error.
func (d *doneReader) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	if err != nil {
		d.once.Do(func() { close(d.done) })
	}
	return n, err
}

// Returns true once the stream has ended.
func (d *doneReader) exhausted() bool {
	select {
	case <-d.done:
		return true
	default:
		return false
	}
}
