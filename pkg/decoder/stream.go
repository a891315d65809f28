package decoder

import (
	"errors"
	"io"
	"sync"
	"sync/atomic"
)

////////////////////////////////////////////////////////////////////////////////
// TYPES

// Stream is the content of a single file part. It reads at most the
// configured file size; when the part is larger the stream ends early,
// Truncated returns true and the limit callback is invoked once.
type Stream struct {
	r         io.Reader
	limit     int64
	read      int64
	truncated atomic.Bool
	done      chan struct{}
	once      sync.Once
	onLimit   func()
	onError   func(error)
	err       error
}

////////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func newStream(r io.Reader, limit int64) *Stream {
	return &Stream{
		r:     r,
		limit: limit,
		done:  make(chan struct{}),
	}
}

////////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// OnLimit sets the function called when the part exceeds the file size
// limit. It must be set before the stream is read.
func (s *Stream) OnLimit(fn func()) {
	s.onLimit = fn
}

// OnError sets the function called when reading the part fails. It must be
// set before the stream is read.
func (s *Stream) OnError(fn func(error)) {
	s.onError = fn
}

// Truncated returns true if the part exceeded the file size limit
func (s *Stream) Truncated() bool {
	return s.truncated.Load()
}

// Err returns the read error, if any, once the stream is done
func (s *Stream) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

// Done is closed when the stream has been consumed or closed
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Read implements io.Reader. Once the stream is done, Read returns the
// read error or io.EOF without touching the part.
func (s *Stream) Read(p []byte) (int, error) {
	select {
	case <-s.done:
		if s.err != nil {
			return 0, s.err
		}
		return 0, io.EOF
	default:
	}
	if s.limit > 0 {
		remaining := s.limit - s.read
		if remaining <= 0 {
			return s.probe()
		}
		if int64(len(p)) > remaining {
			p = p[:remaining]
		}
	}
	n, err := s.r.Read(p)
	s.read += int64(n)
	switch {
	case err == nil:
	case errors.Is(err, io.EOF):
		s.finish(nil)
	default:
		err = partErr(err)
		s.finish(err)
	}
	return n, err
}

// Close marks the stream as consumed. Any unread content is skipped by the
// decoder.
func (s *Stream) Close() error {
	s.finish(nil)
	return nil
}

// Drain reads the remaining content and discards it
func (s *Stream) Drain() error {
	_, err := io.Copy(io.Discard, s)
	s.Close()
	return err
}

////////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// probe checks for content beyond the limit
func (s *Stream) probe() (int, error) {
	var buf [1]byte
	n, err := s.r.Read(buf[:])
	switch {
	case n > 0:
		s.truncated.Store(true)
		if s.onLimit != nil {
			s.onLimit()
		}
		s.finish(nil)
		return 0, io.EOF
	case err == nil:
		return 0, nil
	case errors.Is(err, io.EOF):
		s.finish(nil)
		return 0, io.EOF
	default:
		err = partErr(err)
		s.finish(err)
		return 0, err
	}
}

func (s *Stream) finish(err error) {
	s.once.Do(func() {
		s.err = err
		if err != nil && s.onError != nil {
			s.onError(err)
		}
		close(s.done)
	})
}
