package audio

import (
	"bytes"
	"errors"
	"io"
	"sync"
)

// pcmBuffer drains a capture stream into memory until EOF.
type pcmBuffer struct {
	mu   sync.Mutex
	data bytes.Buffer
	err  error

	done chan struct{}
}

func newPCMBuffer() *pcmBuffer {
	return &pcmBuffer{done: make(chan struct{})}
}

func (b *pcmBuffer) drain(src io.Reader, chunkSize int) {
	defer close(b.done)

	if chunkSize < 256 {
		chunkSize = 4096
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := src.Read(buf)
		if n > 0 {
			b.mu.Lock()
			b.data.Write(buf[:n])
			b.mu.Unlock()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) {
				b.mu.Lock()
				b.err = err
				b.mu.Unlock()
			}
			return
		}
	}
}

// Bytes waits for the drain loop to finish and returns what was captured.
func (b *pcmBuffer) Bytes() ([]byte, error) {
	<-b.done
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data.Bytes(), b.err
}
