package output

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const (
	spinnerDelay    = 200 * time.Millisecond
	spinnerInterval = 100 * time.Millisecond
)

// Spinner animates a message on a terminal while a request is in flight.
// Nothing is drawn for requests that finish within the initial delay, and
// the elapsed seconds are appended once a request takes longer than one.
type Spinner struct {
	w       io.Writer
	message string
	enabled bool
	delay   time.Duration

	mu      sync.Mutex
	started bool
	drawn   bool

	once   sync.Once
	done   chan struct{}
	exited chan struct{}
}

// NewSpinner returns a spinner writing to w. It stays silent unless w is
// a terminal.
func NewSpinner(w io.Writer, message string) *Spinner {
	return &Spinner{
		w:       w,
		message: message,
		enabled: isTerminal(w),
		delay:   spinnerDelay,
		done:    make(chan struct{}),
		exited:  make(chan struct{}),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Start begins the animation. It does nothing after Stop.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.enabled || s.started {
		return
	}
	select {
	case <-s.done:
		return
	default:
	}
	s.started = true
	go s.animate(time.Now())
}

func (s *Spinner) animate(start time.Time) {
	defer close(s.exited)

	wait := time.NewTimer(s.delay)
	defer wait.Stop()
	select {
	case <-s.done:
		return
	case <-wait.C:
	}

	ticker := time.NewTicker(spinnerInterval)
	defer ticker.Stop()
	for frame := 0; ; frame++ {
		s.draw(frame, time.Since(start))
		select {
		case <-s.done:
			return
		case <-ticker.C:
		}
	}
}

func (s *Spinner) draw(frame int, elapsed time.Duration) {
	line := "\r" + spinnerFrames[frame%len(spinnerFrames)] + " " + s.message
	if elapsed >= time.Second {
		line += fmt.Sprintf(" (%ds)", int(elapsed.Seconds()))
	}
	s.mu.Lock()
	s.drawn = true
	s.mu.Unlock()
	fmt.Fprint(s.w, line)
}

// Stop ends the animation and clears the line if anything was drawn.
// It is safe to call more than once.
func (s *Spinner) Stop() {
	s.once.Do(func() {
		close(s.done)
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if !started {
			return
		}
		<-s.exited
		if s.drawn {
			fmt.Fprint(s.w, "\r\033[K")
		}
	})
}
