package app

import (
	"strings"
	"sync"
	"time"

	"fyne.io/fyne/v2/data/binding"
)

const (
	logDebounceInterval = 150 * time.Millisecond
	logLineLimit        = 200
)

// logSink keeps the last lines written by the logger and mirrors them into a binding,
// debounced so bursts of log lines cause a single refresh.
type logSink struct {
	mu     sync.Mutex
	lines  []string
	limit  int
	bind   binding.String
	update chan struct{}
	stop   chan struct{}
	once   sync.Once
}

func newLogSink(limit int) *logSink {
	s := &logSink{
		limit:  limit,
		bind:   binding.NewString(),
		update: make(chan struct{}, 1),
		stop:   make(chan struct{}),
	}
	go s.loop()
	return s
}

func (s *logSink) Write(p []byte) (int, error) {
	text := strings.ReplaceAll(string(p), "\r\n", "\n")
	s.mu.Lock()
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		s.lines = append(s.lines, line)
	}
	if len(s.lines) > s.limit {
		s.lines = s.lines[len(s.lines)-s.limit:]
	}
	s.mu.Unlock()

	select {
	case s.update <- struct{}{}:
	default:
	}
	return len(p), nil
}

// Text returns the buffered lines.
func (s *logSink) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return strings.Join(s.lines, "\n")
}

// Stop ends the refresh loop after a final flush.
func (s *logSink) Stop() {
	s.once.Do(func() { close(s.stop) })
}

func (s *logSink) loop() {
	timer := time.NewTimer(logDebounceInterval)
	if !timer.Stop() {
		<-timer.C
	}
	for {
		select {
		case <-s.update:
			if !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(logDebounceInterval)
		case <-timer.C:
			s.flush()
		case <-s.stop:
			timer.Stop()
			s.flush()
			return
		}
	}
}

func (s *logSink) flush() {
	_ = s.bind.Set(s.Text())
}
