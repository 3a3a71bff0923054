// Package transport produces the text chunks a generation session consumes.
package transport

import (
	"context"
	"fmt"
	"io"
	"sync"
	"unicode/utf8"
)

// Source yields model output in arrival order. Next blocks until a chunk is
// available and returns io.EOF once the stream has ended. Close aborts the
// stream; it is safe to call from another goroutine while Next is blocked.
type Source interface {
	Next(ctx context.Context) (string, error)
	Close() error
}

const readSize = 4096

type chunk struct {
	text string
	err  error
}

// ReaderSource turns an io.Reader into a Source. A background goroutine reads
// the underlying stream so that Next can honour context cancellation even
// when a Read blocks. Multi-byte UTF-8 sequences split across reads are held
// back until complete.
type ReaderSource struct {
	r      io.Reader
	chunks chan chunk
	done   chan struct{}
	once   sync.Once
}

// NewReaderSource starts reading r. If r is an io.Closer, Close closes it.
func NewReaderSource(r io.Reader) *ReaderSource {
	s := &ReaderSource{
		r:      r,
		chunks: make(chan chunk, 16),
		done:   make(chan struct{}),
	}
	go s.readLoop()
	return s
}

func (s *ReaderSource) readLoop() {
	defer close(s.chunks)

	buf := make([]byte, readSize)
	var pending []byte
	for {
		n, err := s.r.Read(buf)
		if n > 0 {
			data := append(pending, buf[:n]...)
			cut := completeUTF8(data)
			pending = append([]byte(nil), data[cut:]...)
			if cut > 0 && !s.send(chunk{text: string(data[:cut])}) {
				return
			}
		}
		if err == nil {
			continue
		}
		if len(pending) > 0 && !s.send(chunk{text: string(pending)}) {
			return
		}
		if err != io.EOF {
			s.send(chunk{err: fmt.Errorf("reading stream: %w", err)})
		}
		return
	}
}

func (s *ReaderSource) send(c chunk) bool {
	select {
	case s.chunks <- c:
		return true
	case <-s.done:
		return false
	}
}

// Next returns the next chunk of text.
func (s *ReaderSource) Next(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-s.done:
		return "", io.ErrClosedPipe
	case c, ok := <-s.chunks:
		if !ok {
			return "", io.EOF
		}
		return c.text, c.err
	}
}

// Close stops the reader. The goroutine may stay blocked in Read until the
// underlying reader returns if it is not an io.Closer.
func (s *ReaderSource) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		if c, ok := s.r.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}

// completeUTF8 returns the length of the longest prefix of b that does not
// end inside a multi-byte sequence.
func completeUTF8(b []byte) int {
	for i := len(b) - 1; i >= 0 && i >= len(b)-utf8.UTFMax; i-- {
		if !utf8.RuneStart(b[i]) {
			continue
		}
		if utf8.FullRune(b[i:]) {
			return len(b)
		}
		return i
	}
	return len(b)
}

// teeSource copies every chunk to a writer.
type teeSource struct {
	Source
	w io.Writer
}

// Tee returns a Source that writes each chunk from src to w as it is read.
// Write errors are ignored.
func Tee(src Source, w io.Writer) Source {
	if w == nil {
		return src
	}
	return &teeSource{Source: src, w: w}
}

func (t *teeSource) Next(ctx context.Context) (string, error) {
	text, err := t.Source.Next(ctx)
	if text != "" {
		io.WriteString(t.w, text)
	}
	return text, err
}
