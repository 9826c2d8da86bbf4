// Package diag delivers controller debug records to a serial console or any
// other writer without ever stalling the control loop.
package diag

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/san-kum/linebot/internal/serialport"
)

const DefaultBuffer = 256

type Options struct {
	// Verbose enables delivery; a quiet sink discards every record.
	Verbose bool
	// Buffer is the number of records queued before new ones are dropped.
	Buffer int
}

type Stats struct {
	Written uint64
	Dropped uint64
	Failed  uint64
}

// Sink formats records as "[TAG] text\r\n" and writes them from a
// background goroutine. Record never blocks: a full queue drops the record
// and a failed write is only counted.
type Sink struct {
	out     io.Writer
	owned   io.Closer
	verbose bool

	mu      sync.RWMutex
	closed  bool
	records chan string
	done    chan struct{}

	written atomic.Uint64
	dropped atomic.Uint64
	failed  atomic.Uint64
}

func New(out io.Writer, opts Options) *Sink {
	if opts.Buffer <= 0 {
		opts.Buffer = DefaultBuffer
	}
	s := &Sink{
		out:     out,
		verbose: opts.Verbose,
		records: make(chan string, opts.Buffer),
		done:    make(chan struct{}),
	}
	go s.drain()
	return s
}

// OpenSerial opens a UART and returns a sink writing to it. Closing the
// sink closes the port.
func OpenSerial(path string, port serialport.PortOptions, opts Options) (*Sink, error) {
	p, err := serialport.Open(path, port)
	if err != nil {
		return nil, err
	}
	return newOwned(p, opts), nil
}

// newOwned returns a sink that closes w on Close.
func newOwned(w io.WriteCloser, opts Options) *Sink {
	s := New(w, opts)
	s.owned = w
	return s
}

func (s *Sink) Verbose() bool { return s.verbose }

func (s *Sink) Record(tag, format string, args ...any) {
	if !s.verbose {
		return
	}
	line := "[" + tag + "] " + fmt.Sprintf(format, args...) + "\r\n"

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.records <- line:
	default:
		s.dropped.Add(1)
	}
}

func (s *Sink) drain() {
	defer close(s.done)
	for line := range s.records {
		if _, err := io.WriteString(s.out, line); err != nil {
			s.failed.Add(1)
			continue
		}
		s.written.Add(1)
	}
}

// Close flushes queued records. Only a writer the sink opened itself is
// closed; one passed to New stays open. It is safe to call more than once.
func (s *Sink) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.records)
	s.mu.Unlock()

	<-s.done
	if s.owned != nil {
		return s.owned.Close()
	}
	return nil
}

func (s *Sink) Stats() Stats {
	return Stats{
		Written: s.written.Load(),
		Dropped: s.dropped.Load(),
		Failed:  s.failed.Load(),
	}
}
