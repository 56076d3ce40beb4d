// Package utils holds small helpers shared by the CLI entrypoint.
package utils

import (
	"io"
	"sync"
)

// DeferredWriter buffers writes in memory until Flush is called. It keeps log
// output from corrupting the alternate screen while the TUI is running.
type DeferredWriter struct {
	mu     sync.Mutex
	chunks [][]byte
}

// Write stores a copy of p.
func (w *DeferredWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	buf := make([]byte, len(p))
	copy(buf, p)
	w.chunks = append(w.chunks, buf)
	return len(p), nil
}

// Flush writes every buffered chunk to out, in order, one Write per chunk, and
// empties the buffer.
func (w *DeferredWriter) Flush(out io.Writer) error {
	w.mu.Lock()
	chunks := w.chunks
	w.chunks = nil
	w.mu.Unlock()

	for _, c := range chunks {
		if _, err := out.Write(c); err != nil {
			return err
		}
	}
	return nil
}
